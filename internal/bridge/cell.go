// Copyright 2025 Seth Burkart
//
// One-slot result handoff between the dispatch loop and a waiting caller

package bridge

import (
	"errors"
	"sync"
	"time"
)

// ErrTimeout is returned by Cell.Await when no result arrives in time. It is
// the only error a caller of Bridge.Submit can observe; every other fault is
// normalized into the result payload.
var ErrTimeout = errors.New("operation timed out")

// Cell is a single-slot result container. One value is passed per
// clear/signal cycle: Clear empties the slot, Signal stores a value and wakes
// the waiter, Await blocks until signaled or a deadline passes.
//
// A signal that lands after the waiter has timed out parks in the slot until
// the next Clear discards it. A late signal that lands after that Clear is
// indistinguishable from the new cycle's result and is delivered to the new
// waiter, which is why only one call may be outstanding at a time: callers
// must not Clear while a prior cycle's signal can still arrive. A second
// Signal within the same cycle overwrites the stored value but does not
// re-arm the notification.
type Cell struct {
	mu       sync.Mutex
	value    any
	signaled bool
	ready    chan struct{}
}

// NewCell returns a cleared cell.
func NewCell() *Cell {
	return &Cell{ready: make(chan struct{})}
}

// Clear resets the slot to empty and re-arms the wait signal. It must be
// called before each submit cycle.
func (c *Cell) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = nil
	c.signaled = false
	c.ready = make(chan struct{})
}

// Signal stores the value and wakes the waiter. The first Signal of a cycle
// closes the notification channel; later Signals in the same cycle only
// overwrite the value.
func (c *Cell) Signal(value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = value
	if !c.signaled {
		c.signaled = true
		close(c.ready)
	}
}

// Await blocks until the cell is signaled or timeout elapses. It returns the
// stored value, or ErrTimeout. Await never mutates the slot.
func (c *Cell) Await(timeout time.Duration) (any, error) {
	c.mu.Lock()
	ready := c.ready
	c.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-ready:
		c.mu.Lock()
		defer c.mu.Unlock()
		return c.value, nil
	case <-timer.C:
		return nil, ErrTimeout
	}
}
