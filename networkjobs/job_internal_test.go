package networkjobs

import (
	"context"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/davsync/davsync/fs/fserrors"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newBlockingAccount returns an account whose server holds every
// request until the client goes away or the test ends
func newBlockingAccount(t *testing.T) *Account {
	release := make(chan struct{})
	var once sync.Once
	acc, _ := newTestAccount(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
		w.WriteHeader(http.StatusOK)
	}))
	// runs before the server is closed
	t.Cleanup(func() { once.Do(func() { close(release) }) })
	return acc
}

func TestJobDeliversOnce(t *testing.T) {
	acc, _ := newTestAccount(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	ch := NewEntityExistsJob(acc, "file").Start(context.Background())
	res, ok := <-ch
	require.True(t, ok)
	require.NoError(t, res.Err)
	assert.True(t, res.Value)
	_, ok = <-ch
	assert.False(t, ok, "channel must be closed after the result")
}

func TestJobReused(t *testing.T) {
	acc, _ := newTestAccount(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	j := NewEntityExistsJob(acc, "file")
	ok, err := j.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = j.Run(context.Background())
	assert.True(t, errors.Is(err, ErrJobReused))
}

func TestJobTimeout(t *testing.T) {
	acc := newBlockingAccount(t)

	j := NewEtagJob(acc, "slow")
	j.SetTimeout(50 * time.Millisecond)
	begin := time.Now()
	_, err := j.Run(context.Background())
	var timeoutErr *TimeoutError
	require.True(t, errors.As(err, &timeoutErr), "%v", err)
	assert.Equal(t, 50*time.Millisecond, timeoutErr.After)
	assert.Equal(t, j.URL(), timeoutErr.URL)
	assert.True(t, timeoutErr.Timeout())
	assert.Less(t, time.Since(begin), 10*time.Second)
	assert.Empty(t, acc.Running())

	// changing the timeout after the start does nothing
	j.SetTimeout(time.Hour)
	assert.Equal(t, 50*time.Millisecond, j.Timeout())
}

func TestEmitAfterFinish(t *testing.T) {
	var j job
	called := 0
	assert.True(t, j.emit(func() { called++ }))
	j.finish()
	assert.False(t, j.emit(func() { called++ }))
	assert.Equal(t, 1, called)
}

func TestAbortAll(t *testing.T) {
	acc := newBlockingAccount(t)

	ch1 := NewEtagJob(acc, "one").Start(context.Background())
	ch2 := NewEntityExistsJob(acc, "two").Start(context.Background())
	require.Eventually(t, func() bool {
		return len(acc.Running()) == 2
	}, 5*time.Second, 10*time.Millisecond)

	var names []string
	for _, info := range acc.Running() {
		names = append(names, info.Name)
		assert.NotEmpty(t, info.ID)
	}
	assert.ElementsMatch(t, []string{"etag", "exists"}, names)

	assert.Equal(t, 2, acc.AbortAll())

	for _, err := range []error{(<-ch1).Err, (<-ch2).Err} {
		var transportErr *TransportError
		require.True(t, errors.As(err, &transportErr), "%v", err)
		assert.Equal(t, fserrors.TransportCanceled, transportErr.Kind)
	}
	assert.Empty(t, acc.Running())
	assert.Equal(t, 0, acc.AbortAll())
}

func TestJobParentContextCanceled(t *testing.T) {
	acc, _ := newTestAccount(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := <-NewEntityExistsJob(acc, "file").Start(ctx)
	var transportErr *TransportError
	require.True(t, errors.As(res.Err, &transportErr), "%v", res.Err)
	assert.Equal(t, fserrors.TransportCanceled, transportErr.Kind)
}

func TestJobMetrics(t *testing.T) {
	acc, _ := newTestAccount(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	m := NewMetrics("test")
	acc.SetMetrics(m)

	ok, err := NewEntityExistsJob(acc, "missing").Run(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
	_, err = NewEntityExistsJob(acc, "forbidden").Run(context.Background())
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Jobs.WithLabelValues("exists", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Jobs.WithLabelValues("exists", "http")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.Duration))
}

func TestJobMaxConnections(t *testing.T) {
	var inFlight, maxInFlight atomic.Int32
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		for {
			old := maxInFlight.Load()
			if n <= old || maxInFlight.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		w.WriteHeader(http.StatusOK)
	})
	_, srv := newTestAccount(t, handler)
	opt := DefaultOptions()
	opt.URL = srv.URL
	opt.MaxConnections = 1
	acc, err := NewAccount(context.Background(), &opt, nil, nil)
	require.NoError(t, err)

	var chans []<-chan Result[bool]
	for i := 0; i < 4; i++ {
		chans = append(chans, NewEntityExistsJob(acc, "file").Start(context.Background()))
	}
	for _, ch := range chans {
		res := <-ch
		require.NoError(t, res.Err)
	}
	assert.Equal(t, int32(1), maxInFlight.Load())
}

func TestWaitContext(t *testing.T) {
	ch := make(chan Result[int])
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Wait(ctx, ch)
	var transportErr *TransportError
	require.True(t, errors.As(err, &transportErr))
	assert.Equal(t, fserrors.TransportCanceled, transportErr.Kind)
}
