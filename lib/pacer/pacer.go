// Package pacer limits how many network calls are in flight at once.
//
// It never retries: a call runs exactly once.
package pacer

import (
	"context"
	"sync"
)

// Pacer state
type Pacer struct {
	mu             sync.Mutex // Protecting read/writes
	maxConnections int        // Maximum number of concurrent connections
	connTokens     *TokenDispenser
}

// Paced is a function which is called by the CallNoRetry method
type Paced func() error

// New returns a Pacer with no connection limit
func New() *Pacer {
	return &Pacer{}
}

// SetMaxConnections sets the maximum number of concurrent connections.
// Setting the value to 0 will allow unlimited number of connections.
// Should not be changed once you have started calling the pacer.
func (p *Pacer) SetMaxConnections(n int) *Pacer {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.maxConnections = n
	if n <= 0 {
		p.connTokens = nil
	} else {
		p.connTokens = NewTokenDispenser(n)
	}
	return p
}

// MaxConnections returns the connection limit, 0 for unlimited
func (p *Pacer) MaxConnections() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.maxConnections
}

// Start a call to the API
//
// This must be called as a pair with endCall if it returns nil
//
// This waits for a connection token or for ctx to be done
func (p *Pacer) beginCall(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	tokens := p.connTokens
	p.mu.Unlock()
	if tokens != nil {
		return tokens.Get(ctx)
	}
	return nil
}

// End a call to the API, returning the connection token
func (p *Pacer) endCall() {
	p.mu.Lock()
	tokens := p.connTokens
	p.mu.Unlock()
	if tokens != nil {
		tokens.Put()
	}
}

// CallNoRetry paces the call of fn and returns its error.  It returns
// ctx.Err() without calling fn if ctx is done before a slot is free.
func (p *Pacer) CallNoRetry(ctx context.Context, fn Paced) error {
	if err := p.beginCall(ctx); err != nil {
		return err
	}
	defer p.endCall()
	return fn()
}
