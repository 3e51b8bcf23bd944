package signalr

import (
	"context"
	"sync"
	"time"
)

// silenceWatch enforces the C7 inbound-silence deadline (SPEC_FULL §4.6):
// the dispatch loop calls ChangeGuard every time a frame arrives, arming a
// fresh deadline and disarming whichever one was previously outstanding, so
// only the most recently armed deadline can ever fire.
//
// Narrowed from the reference client's connectionWatchDogQueue, which
// serializes two independent deadlines (Read and Write) arriving from
// concurrent goroutines through a channel-fed queue processed by its own
// Run loop. This client has exactly one deadline, armed serially by a
// single goroutine (dispatchLoop), so that queue/replace-via-channel
// indirection collapses into a plain mutex-guarded swap with no background
// loop of its own.
type silenceWatch struct {
	mu  sync.Mutex
	dog *silenceTimer
}

func newSilenceWatch() *silenceWatch {
	return &silenceWatch{}
}

// ChangeGuard disarms the previously armed deadline, if any, and - unless
// timeout is non-positive - arms a new one, returning a context that is
// cancelled if ChangeGuard is not called again before timeout elapses.
func (w *silenceWatch) ChangeGuard(ctx context.Context, timeout time.Duration) context.Context {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dog != nil {
		w.dog.stop()
		w.dog = nil
	}
	if timeout <= 0 {
		return ctx
	}
	guardCtx, dog := newSilenceTimer(ctx, timeout)
	w.dog = dog
	return guardCtx
}

// Stop disarms any outstanding deadline without arming a new one. Called
// once the dispatch loop is tearing down, so the last-armed timer's
// goroutine doesn't outlive the connection.
func (w *silenceWatch) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.dog != nil {
		w.dog.stop()
		w.dog = nil
	}
}

// silenceTimer is one armed deadline: bark cancels the context ChangeGuard
// handed back, unless stop wins the race first.
type silenceTimer struct {
	timer *time.Timer
	done  chan struct{}
	bark  context.CancelFunc
}

func newSilenceTimer(ctx context.Context, timeout time.Duration) (context.Context, *silenceTimer) {
	guardCtx, cancel := context.WithCancel(ctx)
	d := &silenceTimer{
		timer: time.NewTimer(timeout),
		done:  make(chan struct{}),
		bark:  cancel,
	}
	go d.wait()
	return guardCtx, d
}

func (d *silenceTimer) wait() {
	select {
	case <-d.done:
	case <-d.timer.C:
		d.bark()
	}
}

func (d *silenceTimer) stop() {
	if !d.timer.Stop() {
		select {
		case <-d.timer.C:
		default:
		}
	}
	close(d.done)
}
