package networkjobs

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/davsync/davsync/lib/rest"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Result is the single value a job delivers
type Result[T any] struct {
	Value T
	Err   error
}

// job states
const (
	stateNew int32 = iota
	stateRunning
	stateDone
)

// job holds what every network job has in common.  It is embedded in
// the concrete jobs.
type job struct {
	acc     *Account
	name    string
	id      string
	url     string
	timeout time.Duration
	state   atomic.Int32

	mu       sync.Mutex
	finished bool // set once the result is about to be delivered
}

// init sets up j to talk to rawURL on behalf of acc
func (j *job) init(acc *Account, name, rawURL string) {
	j.acc = acc
	j.name = name
	j.id = uuid.NewString()
	j.url = rawURL
	j.timeout = acc.jobTimeout()
}

// ID returns the unique identifier of the job
func (j *job) ID() string {
	return j.id
}

// URL returns the URL the job talks to
func (j *job) URL() string {
	return j.url
}

// SetTimeout changes the timeout.  Zero means no timeout.  It has no
// effect once the job is started.
func (j *job) SetTimeout(d time.Duration) {
	if j.state.Load() == stateNew {
		j.timeout = d
	}
}

// Timeout returns the timeout of the job
func (j *job) Timeout() time.Duration {
	return j.timeout
}

// log returns a logger with the job fields set
func (j *job) log() logrus.FieldLogger {
	return j.acc.log.WithFields(logrus.Fields{
		"job": j.name,
		"id":  j.id,
		"url": j.url,
	})
}

// emit calls fn unless the result of the job has been delivered.  It
// returns false if fn was not called.
//
// Callbacks which run on the transfer goroutine go through emit so
// none of them can fire after a timeout or an abort.
func (j *job) emit(fn func()) bool {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.finished {
		return false
	}
	fn()
	return true
}

// finish marks the job as done.  emit does nothing afterwards.
func (j *job) finish() {
	j.mu.Lock()
	j.finished = true
	j.mu.Unlock()
	j.state.Store(stateDone)
}

// send makes the request described by opts.
//
// Errors which are not already one of the typed job errors are
// returned as *TransportError.  The response is returned whenever
// there is one, even with an error.
func (j *job) send(ctx context.Context, opts *rest.Opts) (*http.Response, error) {
	j.log().WithField("method", opts.Method).Debug("Sending request")
	resp, err := j.acc.srv.Call(ctx, opts)
	if err != nil && !isTyped(err) {
		err = newTransportError(err)
	}
	return resp, err
}

// start runs the job j in the background with run doing the transfer.
//
// The channel returned receives exactly one Result and is then
// closed.  The transfer waits for a connection slot of the account
// pacer, is registered with the account while it runs and is
// cancelled when the timeout of the job expires.
func start[T any](ctx context.Context, j *job, run func(ctx context.Context) (T, error)) <-chan Result[T] {
	out := make(chan Result[T], 1)
	if !j.state.CompareAndSwap(stateNew, stateRunning) {
		out <- Result[T]{Err: ErrJobReused}
		close(out)
		return out
	}
	jobCtx, cancel := context.WithCancel(ctx)
	started := time.Now()
	j.acc.jobs.add(JobInfo{ID: j.id, Name: j.name, URL: j.url, Started: started}, cancel)

	done := make(chan Result[T], 1)
	go func() {
		var (
			value  T
			called bool
		)
		err := j.acc.pacer.CallNoRetry(jobCtx, func() (err error) {
			called = true
			value, err = run(jobCtx)
			return err
		})
		if err != nil && !called {
			// never got a connection slot
			err = newTransportError(err)
		}
		done <- Result[T]{Value: value, Err: err}
	}()

	go func() {
		defer cancel()
		var timeout <-chan time.Time
		if j.timeout > 0 {
			timer := time.NewTimer(j.timeout)
			defer timer.Stop()
			timeout = timer.C
		}
		var res Result[T]
		select {
		case res = <-done:
		case <-timeout:
			cancel()
			res = Result[T]{Err: &TimeoutError{URL: j.url, After: j.timeout}}
		}
		j.finish()
		j.acc.jobs.remove(j.id)
		elapsed := time.Since(started)
		j.acc.metrics.observe(j.name, res.Err, elapsed)
		if res.Err != nil {
			j.log().WithError(res.Err).WithField("outcome", outcome(res.Err)).Debug("Job failed")
		} else {
			j.log().WithField("elapsed", elapsed).Debug("Job finished")
		}
		out <- res
		close(out)
	}()
	return out
}

// Wait waits for the result on ch or for ctx to be done
func Wait[T any](ctx context.Context, ch <-chan Result[T]) (T, error) {
	select {
	case res := <-ch:
		return res.Value, res.Err
	case <-ctx.Done():
		var zero T
		return zero, newTransportError(ctx.Err())
	}
}
