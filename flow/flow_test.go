package flow

import (
	"context"
	"runtime"
	"testing"
	"time"
)

func TestPublishAndReceive(t *testing.T) {
	f, subs := New[uint32](2, 1)
	sub := subs[0]

	h, err := f.TryNext()
	if err != nil {
		t.Fatalf("TryNext: %v", err)
	}
	if h.Sequence() != 0 {
		t.Fatalf("sequence = %d, want 0", h.Sequence())
	}
	h.Publish(42)

	start, end := sub.receivableSeqs()
	if start != 0 || end != 1 {
		t.Fatalf("receivableSeqs = [%d,%d), want [0,1)", start, end)
	}

	got, err := sub.TryNext()
	if err != nil {
		t.Fatalf("TryNext: %v", err)
	}
	if got.Value() != 42 {
		t.Fatalf("value = %d, want 42", got.Value())
	}
	got.Release()

	start, end = sub.receivableSeqs()
	if start != 1 || end != 1 {
		t.Fatalf("receivableSeqs = [%d,%d), want [1,1)", start, end)
	}
}

// TestBackPressure reproduces the capacity-2, single-subscriber back
// pressure scenario: once two values are published and unreceived, a
// third TryNext fails with ErrFull until the subscriber catches up.
func TestBackPressure(t *testing.T) {
	f, subs := New[int](2, 1)
	sub := subs[0]

	for i := 0; i < 2; i++ {
		h, err := f.TryNext()
		if err != nil {
			t.Fatalf("TryNext #%d: %v", i, err)
		}
		h.Publish(i)
	}

	if _, err := f.TryNext(); err != ErrFull {
		t.Fatalf("err = %v, want ErrFull", err)
	}

	h, err := sub.TryNext()
	if err != nil {
		t.Fatalf("subscriber TryNext: %v", err)
	}
	if h.Value() != 0 {
		t.Fatalf("value = %d, want 0", h.Value())
	}
	h.Release()

	next, err := f.TryNext()
	if err != nil {
		t.Fatalf("TryNext after release: %v", err)
	}
	next.Publish(2)
}

func TestSubscriberAheadError(t *testing.T) {
	_, subs := New[int](2, 1)
	if _, err := subs[0].TryNext(); err != ErrAhead {
		t.Fatalf("err = %v, want ErrAhead", err)
	}
}

func TestNextCancelledByContext(t *testing.T) {
	f, _ := New[int](2, 1)
	h1, _ := f.TryNext()
	h1.Publish(1)
	h2, _ := f.TryNext()
	h2.Publish(2)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := f.Next(ctx); err == nil {
		t.Fatal("expected Next to fail once the flow stays full past the deadline")
	}
}

func TestSubscribersHaveDistinctIDs(t *testing.T) {
	_, subs := New[int](2, 2)
	if subs[0].ID() == subs[1].ID() {
		t.Fatal("expected distinct subscriber IDs")
	}
}

// TestFIFOPerSubscriber checks that every subscriber receives a fully
// ordered, gap-free, duplicate-free copy of the published sequence: with
// N=8, one producer pushing 0..10000 and two subscribers, each
// subscriber reads 0..10000 in order.
func TestFIFOPerSubscriber(t *testing.T) {
	const count = 10000
	f, subs := New[int](8, 2)

	done := make(chan struct{})
	results := make([][]int, 2)
	for i, sub := range subs {
		i, sub := i, sub
		go func() {
			for len(results[i]) < count {
				h, err := sub.TryNext()
				if err == ErrAhead {
					runtime.Gosched()
					continue
				}
				if err != nil {
					t.Errorf("subscriber %d TryNext: %v", i, err)
					return
				}
				results[i] = append(results[i], h.Value())
				h.Release()
			}
			done <- struct{}{}
		}()
	}

	for i := 0; i < count; i++ {
		for {
			h, err := f.TryNext()
			if err == ErrFull {
				runtime.Gosched()
				continue
			}
			if err != nil {
				t.Fatalf("producer TryNext: %v", err)
			}
			h.Publish(i)
			break
		}
	}

	<-done
	<-done

	for i, got := range results {
		if len(got) != count {
			t.Fatalf("subscriber %d received %d values, want %d", i, len(got), count)
		}
		for seq, v := range got {
			if v != seq {
				t.Fatalf("subscriber %d: value at position %d = %d, want %d", i, seq, v, seq)
			}
		}
	}
}

// TestMulticastScenario checks multicast back pressure: capacity 4, two
// subscribers, each progressing independently through the same
// published sequence (subscriber A lagging behind B). Once the buffer
// is genuinely full — every slot holds a value some subscriber hasn't
// received — the producer is blocked until the slowest subscriber (A)
// passes the oldest slot, matching the "head − min(cursor) < N" claim
// rule.
func TestMulticastScenario(t *testing.T) {
	f, subs := New[uint32](4, 2)
	a, b := subs[0], subs[1]

	for _, v := range []uint32{1, 2, 3, 4} {
		h, err := f.TryNext()
		if err != nil {
			t.Fatalf("TryNext(%d): %v", v, err)
		}
		h.Publish(v)
	}

	ha, err := a.TryNext()
	if err != nil {
		t.Fatalf("A TryNext: %v", err)
	}
	if ha.Value() != 1 {
		t.Fatalf("A got %d, want 1", ha.Value())
	}

	for _, want := range []uint32{1, 2, 3, 4} {
		hb, err := b.TryNext()
		if err != nil {
			t.Fatalf("B TryNext: %v", err)
		}
		if hb.Value() != want {
			t.Fatalf("B got %d, want %d", hb.Value(), want)
		}
		hb.Release()
	}

	// The buffer now holds 4 unreceived-by-A values out of capacity 4:
	// genuinely full, regardless of B having passed every slot.
	if _, err := f.TryNext(); err != ErrFull {
		t.Fatalf("producer claim while A is behind by N = %v, want ErrFull", err)
	}

	ha.Release()
	next, err := f.TryNext()
	if err != nil {
		t.Fatalf("producer claim after A passes slot 0: %v", err)
	}
	next.Publish(5)
}
