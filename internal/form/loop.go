package form

import (
	"context"
	"log/slog"
	"time"
)

// loop serialises every mutation of a form onto one goroutine. pending and
// waiters are only touched from that goroutine.
type loop struct {
	tasks   chan func()
	quit    chan struct{}
	stopped chan struct{}

	pending int
	waiters []chan struct{}
}

func newLoop() *loop {
	return &loop{
		tasks:   make(chan func(), 64),
		quit:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
}

func (l *loop) run() {
	defer close(l.stopped)
	for {
		select {
		case <-l.quit:
			return
		case fn := <-l.tasks:
			fn()
		}
	}
}

func (l *loop) stop() {
	select {
	case <-l.quit:
	default:
		close(l.quit)
	}
	<-l.stopped
}

// post queues fn without waiting. It reports false once the loop has stopped.
func (l *loop) post(fn func()) bool {
	select {
	case <-l.quit:
		return false
	case l.tasks <- fn:
		return true
	}
}

// do runs fn on the loop and waits for it to finish.
func (l *loop) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	var panicked any
	ok := l.post(func() {
		defer close(done)
		defer func() { panicked = recover() }()
		fn()
	})
	if !ok {
		return ErrClosed
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopped:
		return ErrClosed
	case <-done:
	}
	if panicked != nil {
		return &PanicError{Value: panicked}
	}
	return nil
}

func (l *loop) acquire() {
	l.pending++
}

func (l *loop) release() {
	l.pending--
	if l.pending > 0 {
		return
	}
	l.pending = 0
	for _, w := range l.waiters {
		close(w)
	}
	l.waiters = nil
}

// idle returns a channel closed once no call is in flight.
func (l *loop) idle() chan struct{} {
	ch := make(chan struct{})
	if l.pending == 0 {
		close(ch)
		return ch
	}
	l.waiters = append(l.waiters, ch)
	return ch
}

// Response is what an asynchronous call hands to its continuation.
type Response[T any] struct {
	Message T
	Exc     error
}

// Call issues req off the loop and runs callback on the loop once the response
// arrives. Calls are neither cancelled nor ordered against each other, so when
// two calls write the same field the response that arrives last wins. A failed
// call is surfaced as a form message before callback sees it.
func Call[T any](f *Form, method string, req func(ctx context.Context) (T, error), callback func(Response[T])) {
	f.loop.acquire()
	start := time.Now()
	go func() {
		msg, err := req(f.ctx)
		f.loop.post(func() {
			defer f.loop.release()
			defer func() {
				if p := recover(); p != nil {
					f.logger.Error("callback panic", slog.String("method", method), slog.Any("panic", p))
				}
			}()
			f.observeCall(method, time.Since(start), err)
			if err != nil {
				f.surface(method, err)
			}
			if callback != nil {
				callback(Response[T]{Message: msg, Exc: err})
			}
		})
	}()
}
