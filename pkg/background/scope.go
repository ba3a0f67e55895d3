package background

import (
	"context"
	"sync"
	"time"
)

// Scope - abstract concurrency scope: one context shared by a group of goroutines
// and a wait group which tracks them.
type Scope struct {
	ctx       context.Context
	ctxCancel context.CancelFunc

	// mu orders member registration against cancellation,
	// so no member can join the scope after it was cancelled and Wait was started.
	mu    sync.Mutex
	scope sync.WaitGroup
}

// NewScope - concurrency scope builder.
// Returned cancel func cancels the scope context and waits for all members.
func NewScope() (scope *Scope, cancel func()) {
	return NewScopeContext(context.Background())
}

// NewScopeContext - builds scope derived from parent context.
func NewScopeContext(parent context.Context) (scope *Scope, cancel func()) {
	ctx, cancelFunc := context.WithCancel(parent)
	s := &Scope{
		ctx:       ctx,
		ctxCancel: cancelFunc,
	}
	return s,
		func() {
			s.Cancel()
			s.scope.Wait()
		}
}

// Context - return background context
func (s *Scope) Context() context.Context {
	return s.ctx
}

// Expired - reports the scope was cancelled.
func (s *Scope) Expired() bool {
	return s.ctx.Err() != nil
}

// Go - runs f as a scope member in a new goroutine.
// Returns false and does not run f when the scope is already cancelled.
func (s *Scope) Go(f func(ctx context.Context)) bool {
	if !s.Add(1) {
		return false
	}
	go func() {
		defer s.Done()
		f(s.ctx)
	}()
	return true
}

// Add - notifies scope to register processes/workers/layers.
// Returns false when the scope is cancelled, in that case nothing is registered.
func (s *Scope) Add(delta int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx.Err() != nil {
		return false
	}
	s.scope.Add(delta)
	return true
}

// Done - notifies scope when process/worker/layer is done.
func (s *Scope) Done() {
	s.scope.Done()
}

// Cancel - cancels scope context without waiting for members.
func (s *Scope) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctxCancel()
}

// Wait - waits for all members are done, but not longer than timeout.
// Zero or negative timeout means no limit. Returns false when the timeout has expired.
func (s *Scope) Wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		s.scope.Wait()
		close(done)
	}()
	if timeout <= 0 {
		<-done
		return true
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}
