package networkjobs

import (
	"context"
	"sort"
	"sync"
	"time"
)

// JobInfo describes a job in flight
type JobInfo struct {
	ID      string
	Name    string
	URL     string
	Started time.Time
}

type registryEntry struct {
	info   JobInfo
	cancel context.CancelFunc
}

// registry tracks the jobs of an account which are running
type registry struct {
	mu   sync.Mutex
	jobs map[string]registryEntry
}

func newRegistry() *registry {
	return &registry{jobs: make(map[string]registryEntry)}
}

// add a running job
func (r *registry) add(info JobInfo, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs[info.ID] = registryEntry{info: info, cancel: cancel}
}

// remove a job which has delivered its result
func (r *registry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.jobs, id)
}

// abortAll cancels every running job and returns how many there were.
// The jobs remove themselves once they have delivered.
func (r *registry) abortAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.jobs {
		e.cancel()
	}
	return len(r.jobs)
}

// running returns the jobs in flight, oldest first
func (r *registry) running() []JobInfo {
	r.mu.Lock()
	out := make([]JobInfo, 0, len(r.jobs))
	for _, e := range r.jobs {
		out = append(out, e.info)
	}
	r.mu.Unlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].Started.Equal(out[j].Started) {
			return out[i].ID < out[j].ID
		}
		return out[i].Started.Before(out[j].Started)
	})
	return out
}
