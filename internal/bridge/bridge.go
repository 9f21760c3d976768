// Copyright 2025 Seth Burkart
//
// Operation bridge: cross-goroutine submit with dispatch on a single
// privileged loop

package bridge

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"
)

// ErrDeferred is returned by handlers that hand their work off to a
// background job. The dispatch loop then skips signaling; the job's
// completion callback (delivered through Post) signals the cell instead.
var ErrDeferred = errors.New("result deferred to background completion")

// ErrUnknownOperation is normalized into the result payload when a submitted
// operation name has no registered handler.
var ErrUnknownOperation = errors.New("unknown operation")

// HandlerFunc executes one operation on the privileged loop. The returned
// value becomes the caller's result payload; a non-nil error (other than
// ErrDeferred) is converted to a descriptive failure string and delivered the
// same way. Handlers never signal the cell directly.
type HandlerFunc func(args []any) (any, error)

const (
	// DefaultShortTimeout bounds interactive operations.
	DefaultShortTimeout = 10 * time.Second
	// DefaultLongTimeout bounds operations known to involve external-process
	// conversion.
	DefaultLongTimeout = 90 * time.Second

	// queueDepth is the privileged dispatch queue capacity. Submits are
	// serialized by the one-outstanding-call contract, so the queue only
	// needs headroom for Post callbacks arriving alongside a submit.
	queueDepth = 64
)

// Bridge guarantees that operations submitted from any goroutine execute on a
// single privileged loop, and that the submitting goroutine observes exactly
// one outcome per call.
//
// Callers MUST NOT pipeline concurrent submits on the same bridge: the result
// cell has one slot and a second in-flight submit is last-writer-wins. The
// same hazard applies after a timeout: a handler that outlives its deadline
// still signals when it finishes, and if that signal lands after the next
// submit has cleared the slot, the next caller observes the stale result. The
// system is designed for a single client at a time; serializing concurrent
// callers is the transport layer's concern.
type Bridge struct {
	cell     *Cell
	queue    chan func()
	handlers map[string]HandlerFunc
	short    time.Duration
	long     time.Duration
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithShortTimeout overrides the interactive timeout class.
func WithShortTimeout(d time.Duration) Option {
	return func(b *Bridge) { b.short = d }
}

// WithLongTimeout overrides the conversion timeout class.
func WithLongTimeout(d time.Duration) Option {
	return func(b *Bridge) { b.long = d }
}

// New creates a bridge with no registered handlers. Run must be started
// before the first Submit.
func New(opts ...Option) *Bridge {
	b := &Bridge{
		cell:     NewCell(),
		queue:    make(chan func(), queueDepth),
		handlers: make(map[string]HandlerFunc),
		short:    DefaultShortTimeout,
		long:     DefaultLongTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Register maps an operation name to its handler. Registration happens at
// construction time, before Run, and is not synchronized.
func (b *Bridge) Register(name string, h HandlerFunc) {
	b.handlers[name] = h
}

// Run consumes the dispatch queue until ctx is cancelled. It is the
// privileged loop: every handler body and every posted completion callback
// executes here, strictly in FIFO order, so the host application model needs
// no locking.
func (b *Bridge) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case fn := <-b.queue:
			fn()
		}
	}
}

// Submit executes the named operation on the privileged loop and blocks the
// calling goroutine until a result arrives or the short timeout elapses.
func (b *Bridge) Submit(name string, args ...any) (any, error) {
	return b.submit(name, args, b.short)
}

// SubmitLong is Submit with the long timeout class, for operations that hand
// off to external-process conversion.
func (b *Bridge) SubmitLong(name string, args ...any) (any, error) {
	return b.submit(name, args, b.long)
}

func (b *Bridge) submit(name string, args []any, timeout time.Duration) (any, error) {
	b.cell.Clear()
	b.queue <- func() { b.dispatch(name, args) }
	return b.cell.Await(timeout)
}

// Post enqueues a callback for execution on the privileged loop. It is how
// background jobs marshal their completion back onto the loop; the callback
// typically performs a model mutation and then calls Signal.
func (b *Bridge) Post(fn func()) {
	b.queue <- fn
}

// Signal delivers a result to the waiting caller. Intended for completion
// callbacks running on the privileged loop via Post; handler results are
// signaled automatically by the dispatch wrapper.
func (b *Bridge) Signal(result any) {
	b.cell.Signal(result)
}

// dispatch runs one operation with the catch-all error boundary. Nothing a
// handler does may escape to the caller except through the result payload.
func (b *Bridge) dispatch(name string, args []any) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("operation %s panicked: %v", name, r)
			b.cell.Signal(fmt.Sprintf("Error in %s: internal fault: %v", name, r))
		}
	}()

	h, ok := b.handlers[name]
	if !ok {
		b.cell.Signal(fmt.Sprintf("%v: %s", ErrUnknownOperation, name))
		return
	}

	result, err := h(args)
	switch {
	case errors.Is(err, ErrDeferred):
		// The background job's completion callback will signal.
	case err != nil:
		b.cell.Signal(err.Error())
	default:
		b.cell.Signal(result)
	}
}
