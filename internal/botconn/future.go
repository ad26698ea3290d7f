package botconn

import (
	"context"
	"sync"
	"time"
)

// LoginFuture is a one-shot barrier that resolves exactly once: true at the
// LOGGED_IN transition, or false if the bot reaches LOGGED_OUT first. A timed
// wait returns the current isLoggedIn() value on timeout without cancelling
// the underlying login attempt.
type LoginFuture struct {
	done       chan struct{}
	once       sync.Once
	result     bool
	isLoggedIn func() bool
}

func newLoginFuture(isLoggedIn func() bool) *LoginFuture {
	return &LoginFuture{
		done:       make(chan struct{}),
		isLoggedIn: isLoggedIn,
	}
}

// resolve signals the future. Only the first call has any effect.
func (f *LoginFuture) resolve(ok bool) {
	f.once.Do(func() {
		f.result = ok
		close(f.done)
	})
}

// Wait blocks until the future resolves or ctx is done, whichever comes
// first. On ctx cancellation it returns the bot's current login state
// rather than cancelling the handshake.
func (f *LoginFuture) Wait(ctx context.Context) bool {
	select {
	case <-f.done:
		return f.result
	case <-ctx.Done():
		return f.isLoggedIn()
	}
}

// WaitTimeout is Wait with a relative deadline.
func (f *LoginFuture) WaitTimeout(d time.Duration) bool {
	ctx, cancel := context.WithTimeout(context.Background(), d)
	defer cancel()
	return f.Wait(ctx)
}
