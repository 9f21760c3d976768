// Copyright 2025 Seth Burkart

package bridge

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func startBridge(t *testing.T, opts ...Option) *Bridge {
	t.Helper()
	b := New(opts...)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go b.Run(ctx)
	return b
}

func TestSubmitReturnsHandlerResult(t *testing.T) {
	b := startBridge(t)
	b.Register("echo", func(args []any) (any, error) {
		return fmt.Sprintf("echo: %v", args[0]), nil
	})

	got, err := b.Submit("echo", "hello")
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if got != "echo: hello" {
		t.Errorf("Submit = %v, want %q", got, "echo: hello")
	}
}

func TestSubmitExactlyOneSignalPerCall(t *testing.T) {
	b := New()
	var signals atomic.Int64
	b.Register("count", func(args []any) (any, error) {
		signals.Add(1)
		return "ok", nil
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go b.Run(ctx)

	for i := 0; i < 10; i++ {
		if _, err := b.Submit("count"); err != nil {
			t.Fatalf("Submit %d returned error: %v", i, err)
		}
	}
	if got := signals.Load(); got != 10 {
		t.Errorf("handler ran %d times, want 10", got)
	}
}

func TestSubmitHandlerErrorBecomesResult(t *testing.T) {
	b := startBridge(t)
	b.Register("fail", func(args []any) (any, error) {
		return nil, errors.New("Error loading service: no such file")
	})

	got, err := b.Submit("fail")
	if err != nil {
		t.Fatalf("Submit returned error: %v, want fault as payload", err)
	}
	if got != "Error loading service: no such file" {
		t.Errorf("Submit = %v, want failure string", got)
	}
}

func TestSubmitHandlerPanicBecomesResult(t *testing.T) {
	b := startBridge(t)
	b.Register("boom", func(args []any) (any, error) {
		panic("index out of range")
	})

	got, err := b.Submit("boom")
	if err != nil {
		t.Fatalf("Submit returned error: %v, want fault as payload", err)
	}
	s, ok := got.(string)
	if !ok || !strings.Contains(s, "index out of range") {
		t.Errorf("Submit = %v, want string mentioning the panic", got)
	}
}

func TestSubmitUnknownOperation(t *testing.T) {
	b := startBridge(t)

	got, err := b.Submit("no_such_op")
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	s, ok := got.(string)
	if !ok || !strings.Contains(s, "no_such_op") {
		t.Errorf("Submit = %v, want unknown-operation string", got)
	}
}

func TestSubmitTimesOutOnHungHandler(t *testing.T) {
	b := startBridge(t, WithShortTimeout(30*time.Millisecond))
	release := make(chan struct{})
	b.Register("hang", func(args []any) (any, error) {
		<-release
		return "late", nil
	})

	_, err := b.Submit("hang")
	if err != ErrTimeout {
		t.Fatalf("Submit error = %v, want ErrTimeout", err)
	}
	close(release)

	// Wait for the hung handler's late signal to land before submitting
	// again. A signal arriving after the next call clears the slot would be
	// delivered as that call's result; the loop is FIFO, so a barrier posted
	// behind the hung dispatch orders us after its signal.
	drained := make(chan struct{})
	b.Post(func() { close(drained) })
	<-drained

	// The bridge stays usable after a timeout; the next clear discards the
	// parked late result.
	b.Register("ok", func(args []any) (any, error) { return "ok", nil })
	got, err := b.Submit("ok")
	if err != nil {
		t.Fatalf("follow-up Submit returned error: %v", err)
	}
	if got != "ok" {
		t.Errorf("follow-up Submit = %v, want %q", got, "ok")
	}
}

func TestDispatchRunsInFIFOOrder(t *testing.T) {
	b := startBridge(t)
	var order []int
	b.Register("record", func(args []any) (any, error) {
		order = append(order, args[0].(int))
		return "ok", nil
	})

	for i := 0; i < 5; i++ {
		if _, err := b.Submit("record", i); err != nil {
			t.Fatalf("Submit %d returned error: %v", i, err)
		}
	}
	for i, v := range order {
		if v != i {
			t.Fatalf("execution order %v, want ascending", order)
		}
	}
}

func TestDeferredHandlerSignalsViaPost(t *testing.T) {
	b := startBridge(t)
	b.Register("convert", func(args []any) (any, error) {
		// Simulate a background job completing later.
		go func() {
			time.Sleep(20 * time.Millisecond)
			b.Post(func() { b.Signal("conversion finished") })
		}()
		return nil, ErrDeferred
	})

	got, err := b.SubmitLong("convert")
	if err != nil {
		t.Fatalf("SubmitLong returned error: %v", err)
	}
	if got != "conversion finished" {
		t.Errorf("SubmitLong = %v, want deferred result", got)
	}
}

func TestPostCallbacksShareThePrivilegedLoop(t *testing.T) {
	b := startBridge(t)
	var loopValue int
	b.Register("write", func(args []any) (any, error) {
		loopValue = 1
		return "ok", nil
	})

	if _, err := b.Submit("write"); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}

	done := make(chan int, 1)
	b.Post(func() { done <- loopValue })
	select {
	case v := <-done:
		if v != 1 {
			t.Errorf("posted callback saw %d, want 1", v)
		}
	case <-time.After(time.Second):
		t.Fatal("posted callback never ran")
	}
}
