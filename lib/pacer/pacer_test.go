package pacer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	p := New()
	assert.Equal(t, 0, p.MaxConnections())
	assert.Nil(t, p.connTokens)
}

func TestSetMaxConnections(t *testing.T) {
	p := New()
	p.SetMaxConnections(20)
	assert.Equal(t, 20, p.MaxConnections())
	assert.Equal(t, 20, len(p.connTokens.tokens))
	p.SetMaxConnections(0)
	assert.Equal(t, 0, p.maxConnections)
	assert.Nil(t, p.connTokens)
}

func TestCallNoRetryOnce(t *testing.T) {
	p := New()
	calls := 0
	errFail := errors.New("fail")
	err := p.CallNoRetry(context.Background(), func() error {
		calls++
		return errFail
	})
	assert.Equal(t, errFail, err)
	assert.Equal(t, 1, calls)
}

func TestCallNoRetryLimitsConnections(t *testing.T) {
	p := New().SetMaxConnections(2)
	var inFlight, maxInFlight int32
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := p.CallNoRetry(context.Background(), func() error {
				n := atomic.AddInt32(&inFlight, 1)
				for {
					m := atomic.LoadInt32(&maxInFlight)
					if n <= m || atomic.CompareAndSwapInt32(&maxInFlight, m, n) {
						break
					}
				}
				time.Sleep(5 * time.Millisecond)
				atomic.AddInt32(&inFlight, -1)
				return nil
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, atomic.LoadInt32(&maxInFlight), int32(2))
	assert.Equal(t, 2, len(p.connTokens.tokens))
}

func TestCallNoRetryCanceledWhileWaiting(t *testing.T) {
	p := New().SetMaxConnections(1)
	ctx := context.Background()
	require.NoError(t, p.connTokens.Get(ctx))

	ctx2, cancel := context.WithCancel(ctx)
	cancel()
	called := false
	err := p.CallNoRetry(ctx2, func() error {
		called = true
		return nil
	})
	assert.Equal(t, context.Canceled, err)
	assert.False(t, called)
	p.connTokens.Put()
}

func TestCallNoRetryCanceledUnlimited(t *testing.T) {
	p := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := p.CallNoRetry(ctx, func() error {
		called = true
		return nil
	})
	assert.Equal(t, context.Canceled, err)
	assert.False(t, called)
}
