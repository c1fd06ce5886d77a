package metrics

import (
	"sync"
	"testing"
	"time"
)

func TestRecordCommand_CountersRoundTrip(t *testing.T) {
	c := New(Options{})

	c.RecordCommand(1*time.Millisecond, 1, 0, false, false)
	c.RecordCommand(2*time.Millisecond, 1, 0, false, false)
	c.RecordCommand(3*time.Millisecond, 0, 5, false, false)
	c.RecordCommand(1*time.Millisecond, 0, 0, true, false)
	c.RecordCommand(1*time.Millisecond, 0, 0, true, true)

	snap := c.Snapshot()
	if snap.CommandsExecuted != 5 {
		t.Fatalf("CommandsExecuted = %d, want 5", snap.CommandsExecuted)
	}
	if snap.CommandsFailed != 2 {
		t.Fatalf("CommandsFailed = %d, want 2", snap.CommandsFailed)
	}
	if snap.CommandsTimedOut != 1 {
		t.Fatalf("CommandsTimedOut = %d, want 1", snap.CommandsTimedOut)
	}
	if snap.RowsAffectedTotal != 2 {
		t.Fatalf("RowsAffectedTotal = %d, want 2", snap.RowsAffectedTotal)
	}
	if snap.RowsReadTotal != 5 {
		t.Fatalf("RowsReadTotal = %d, want 5", snap.RowsReadTotal)
	}
}

func TestConnectionAndTransactionHighWaterMarks(t *testing.T) {
	c := New(Options{})

	c.IncConnectionsOpened()
	c.IncConnectionsOpened()
	c.IncConnectionsOpened()
	c.IncConnectionsClosed()

	snap := c.Snapshot()
	if snap.ConnectionsOpened != 3 {
		t.Fatalf("ConnectionsOpened = %d, want 3", snap.ConnectionsOpened)
	}
	if snap.ConnectionsCurrent != 2 {
		t.Fatalf("ConnectionsCurrent = %d, want 2", snap.ConnectionsCurrent)
	}
	if snap.ConnectionsMax != 3 {
		t.Fatalf("ConnectionsMax = %d, want 3", snap.ConnectionsMax)
	}

	c.TransactionOpened()
	c.TransactionOpened()
	c.TransactionClosed()

	snap = c.Snapshot()
	if snap.TransactionsActive != 1 {
		t.Fatalf("TransactionsActive = %d, want 1", snap.TransactionsActive)
	}
	if snap.TransactionsMax != 2 {
		t.Fatalf("TransactionsMax = %d, want 2", snap.TransactionsMax)
	}
}

func TestPercentileWindow(t *testing.T) {
	c := New(Options{PercentileWindow: 10})
	for i := 1; i <= 10; i++ {
		c.RecordCommand(time.Duration(i)*time.Millisecond, 0, 0, false, false)
	}
	snap := c.Snapshot()
	if snap.P95CommandMs <= 0 || snap.P99CommandMs <= 0 {
		t.Fatalf("expected non-zero percentiles with window enabled, got p95=%v p99=%v", snap.P95CommandMs, snap.P99CommandMs)
	}
	if snap.AvgCommandMs <= 0 {
		t.Fatalf("expected non-zero average")
	}
}

func TestPercentileWindow_DisabledByDefault(t *testing.T) {
	c := New(Options{})
	c.RecordCommand(5*time.Millisecond, 0, 0, false, false)
	snap := c.Snapshot()
	if snap.P95CommandMs != 0 || snap.P99CommandMs != 0 {
		t.Fatalf("expected zero percentiles when PercentileWindow is 0, got p95=%v p99=%v", snap.P95CommandMs, snap.P99CommandMs)
	}
}

// Testable Property 14: unsubscribed handlers must not be invoked afterwards.
func TestUnsubscribe_NotInvokedAfterRemoval(t *testing.T) {
	c := New(Options{})

	var mu sync.Mutex
	calls := 0
	sub := c.Subscribe(func(Snapshot) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	c.RecordCommand(1*time.Millisecond, 0, 0, false, false)

	c.Unsubscribe(sub)

	c.RecordCommand(1*time.Millisecond, 0, 0, false, false)
	c.RecordCommand(1*time.Millisecond, 0, 0, false, false)

	mu.Lock()
	got := calls
	mu.Unlock()
	if got != 1 {
		t.Fatalf("handler invoked %d times, want exactly 1 (before unsubscribe)", got)
	}
}

func TestSubscribe_MultipleHandlersIndependent(t *testing.T) {
	c := New(Options{})

	var mu sync.Mutex
	var aCalls, bCalls int
	subA := c.Subscribe(func(Snapshot) {
		mu.Lock()
		aCalls++
		mu.Unlock()
	})
	c.Subscribe(func(Snapshot) {
		mu.Lock()
		bCalls++
		mu.Unlock()
	})

	c.RecordCommand(1*time.Millisecond, 0, 0, false, false)
	c.Unsubscribe(subA)
	c.RecordCommand(1*time.Millisecond, 0, 0, false, false)

	mu.Lock()
	defer mu.Unlock()
	if aCalls != 1 {
		t.Fatalf("aCalls = %d, want 1", aCalls)
	}
	if bCalls != 2 {
		t.Fatalf("bCalls = %d, want 2", bCalls)
	}
}
