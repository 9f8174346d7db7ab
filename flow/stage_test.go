package flow

import (
	"context"
	"testing"
)

// TestStageDynamicProcessors reproduces codas-flow's dynamic_subscribers
// test: two processors registered on one stage both observe the same
// published value, and cooperative work a processor spawns runs (and,
// here, finishes on its first poll) within that same Proc call.
func TestStageDynamicProcessors(t *testing.T) {
	f, subs := New[uint32](32, 1)
	ctx := context.Background()
	stage := NewStage(ctx, subs[0], 8)

	const testData = uint32(1337)
	var invocationsA, invocationsB int

	stage.AddProc(ProcessorFunc[uint32](func(ctx context.Context, proc *Proc, data uint32) {
		proc.Spawn(ctx, func(context.Context) bool {
			if data != testData {
				t.Fatalf("data = %d, want %d", data, testData)
			}
			invocationsA++
			return true
		})
		if proc.Remaining() != 0 {
			t.Fatalf("remaining = %d, want 0", proc.Remaining())
		}
	}))
	stage.AddProc(ProcessorFunc[uint32](func(ctx context.Context, proc *Proc, data uint32) {
		proc.Spawn(ctx, func(context.Context) bool {
			invocationsB++
			return true
		})
	}))

	if _, err := stage.Proc(); err != ErrAhead {
		t.Fatalf("err = %v, want ErrAhead", err)
	}

	h, _ := f.TryNext()
	h.Publish(testData)

	n, err := stage.Proc()
	if err != nil {
		t.Fatalf("Proc: %v", err)
	}
	if n != 1 {
		t.Fatalf("processed = %d, want 1", n)
	}
	if invocationsA != 1 || invocationsB != 1 {
		t.Fatalf("invocations = (%d, %d), want (1, 1)", invocationsA, invocationsB)
	}
}

func TestStageRemoveProc(t *testing.T) {
	f, subs := New[int](8, 1)
	stage := NewStage(context.Background(), subs[0], 4)

	var calls int
	id := stage.AddProc(ProcessorFunc[int](func(ctx context.Context, proc *Proc, data int) {
		calls++
	}))

	h, _ := f.TryNext()
	h.Publish(1)
	if _, err := stage.Proc(); err != nil {
		t.Fatalf("Proc: %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d, want 1", calls)
	}

	if !stage.RemoveProc(id) {
		t.Fatal("RemoveProc returned false for a registered id")
	}

	h2, _ := f.TryNext()
	h2.Publish(2)
	if _, err := stage.Proc(); err != nil {
		t.Fatalf("Proc: %v", err)
	}
	if calls != 1 {
		t.Fatalf("calls = %d after removal, want 1", calls)
	}
}

// TestAddedProcessorSeesOnlySubsequentValues checks that adding a
// processor to a stage only affects values published afterward: one
// subscriber, a stage with no processors. The producer publishes "a";
// stage.Proc() with no processors is a no-op. A processor P is then
// added; the producer publishes "b"; P's next Proc() call sees only
// "b", never "a" (which was already consumed by the first,
// processor-less Proc() call).
func TestAddedProcessorSeesOnlySubsequentValues(t *testing.T) {
	f, subs := New[string](8, 1)
	stage := NewStage(context.Background(), subs[0], 4)

	h, _ := f.TryNext()
	h.Publish("a")
	if n, err := stage.Proc(); err != nil || n != 1 {
		t.Fatalf("Proc (no processors) = (%d, %v), want (1, nil)", n, err)
	}

	var seen []string
	stage.AddProc(ProcessorFunc[string](func(ctx context.Context, proc *Proc, data string) {
		seen = append(seen, data)
	}))

	h2, _ := f.TryNext()
	h2.Publish("b")
	if n, err := stage.Proc(); err != nil || n != 1 {
		t.Fatalf("Proc (with P) = (%d, %v), want (1, nil)", n, err)
	}

	if len(seen) != 1 || seen[0] != "b" {
		t.Fatalf("seen = %v, want [\"b\"]", seen)
	}
}

func TestStageMaxProcsPerBatch(t *testing.T) {
	f, subs := New[int](8, 1)
	stage := NewStage(context.Background(), subs[0], 2)

	var seen []int
	stage.AddProc(ProcessorFunc[int](func(ctx context.Context, proc *Proc, data int) {
		seen = append(seen, data)
	}))

	for i := 0; i < 5; i++ {
		h, err := f.TryNext()
		if err != nil {
			t.Fatalf("TryNext #%d: %v", i, err)
		}
		h.Publish(i)
	}

	n, err := stage.ProcMany(5)
	if err != nil {
		t.Fatalf("ProcMany: %v", err)
	}
	if n != 2 {
		t.Fatalf("processed = %d, want 2 (maxProcsPerBatch caps ProcMany(5))", n)
	}
	if len(seen) != 2 || seen[0] != 0 || seen[1] != 1 {
		t.Fatalf("seen = %v, want [0 1]", seen)
	}
}
