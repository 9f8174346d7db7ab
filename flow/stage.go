package flow

import (
	"context"
	"runtime"
)

// Proc is the per-batch context passed to every Processor invocation,
// mirroring codas-flow's stage::Proc: it reports how many more times
// the processor will run in the current batch and lets a processor
// spawn cooperative background work tied to the batch's lifetime.
type Proc struct {
	remaining int
	pending   []func(context.Context) bool
}

// Remaining reports how many more times a Processor may be invoked
// after the current call, within the batch presently being processed.
func (p *Proc) Remaining() int { return p.remaining }

// Spawn schedules task for cooperative execution: task is polled once
// immediately and, if it reports it isn't done, polled again at the end
// of the current batch and of every later Proc/ProcMany batch that
// processes at least one value, until it reports done. Calls that
// return ErrAhead do not poll pending tasks.
//
// task receives a ctx that is cancelled only by the caller driving the
// stage (not by this package); it returns true once it has finished.
func (p *Proc) Spawn(ctx context.Context, task func(ctx context.Context) bool) {
	if !task(ctx) {
		p.pending = append(p.pending, task)
	}
}

func (p *Proc) pollTasks(ctx context.Context) {
	if len(p.pending) == 0 {
		return
	}
	live := p.pending[:0]
	for _, task := range p.pending {
		if !task(ctx) {
			live = append(live, task)
		}
	}
	p.pending = live
}

// Processor handles one published data value within a Stage batch.
type Processor[T any] interface {
	Proc(ctx context.Context, proc *Proc, data T)
}

// ProcessorFunc adapts a plain function to Processor.
type ProcessorFunc[T any] func(ctx context.Context, proc *Proc, data T)

// Proc calls fn.
func (fn ProcessorFunc[T]) Proc(ctx context.Context, proc *Proc, data T) { fn(ctx, proc, data) }

type procEntry[T any] struct {
	id   uint64
	proc Processor[T]
}

// Stage multiplexes a dynamic list of Processors over a single
// FlowSubscriber, dispatching each published value to every registered
// processor in turn. Unlike the original codas-flow Stage (which only
// grows), this one also supports RemoveProc, since a long-lived
// dispatcher needs to retire processors whose consumers have gone away.
type Stage[T any] struct {
	sub *FlowSubscriber[T]

	procs  []procEntry[T]
	nextID uint64

	ctx  context.Context
	proc Proc

	maxProcsPerBatch int
}

// NewStage builds a Stage reading from sub. maxProcsPerBatch bounds how
// much of a backlog a single call to Proc will drain at once; callers
// that want the codas-flow default of one quarter of the flow's
// capacity should pass flowCapacity/4.
func NewStage[T any](ctx context.Context, sub *FlowSubscriber[T], maxProcsPerBatch int) *Stage[T] {
	if maxProcsPerBatch <= 0 {
		maxProcsPerBatch = 1
	}
	return &Stage[T]{sub: sub, ctx: ctx, maxProcsPerBatch: maxProcsPerBatch}
}

// AddProc registers p, returning an id that can later be passed to
// RemoveProc.
func (s *Stage[T]) AddProc(p Processor[T]) uint64 {
	id := s.nextID
	s.nextID++
	s.procs = append(s.procs, procEntry[T]{id: id, proc: p})
	return id
}

// RemoveProc unregisters the processor previously returned by AddProc,
// reporting whether it was found.
func (s *Stage[T]) RemoveProc(id uint64) bool {
	for i, entry := range s.procs {
		if entry.id == id {
			s.procs = append(s.procs[:i], s.procs[i+1:]...)
			return true
		}
	}
	return false
}

// Proc takes one value off the subscriber and invokes every registered
// processor with it, in registration order. It returns ErrAhead if the
// subscriber has no data available right now.
func (s *Stage[T]) Proc() (int, error) {
	return s.procBatch(1)
}

// ProcMany does the work of Proc for up to n values, or fewer if n
// exceeds the stage's configured maxProcsPerBatch.
func (s *Stage[T]) ProcMany(n int) (int, error) {
	return s.procBatch(n)
}

func (s *Stage[T]) procBatch(n int) (int, error) {
	if n > s.maxProcsPerBatch {
		n = s.maxProcsPerBatch
	}

	start, end := s.sub.receivableSeqs()
	if start >= end {
		return 0, ErrAhead
	}
	if limit := start + uint64(n); end > limit {
		end = limit
	}

	processed := 0
	var lastReceived uint64
	for seq := start; seq < end; seq++ {
		s.proc.remaining = int(end - seq - 1)
		value := s.sub.state.buffer[s.sub.state.index(seq)]
		for _, entry := range s.procs {
			entry.proc.Proc(s.ctx, &s.proc, value)
		}
		lastReceived = seq
		processed++
	}

	s.proc.pollTasks(s.ctx)
	s.sub.receiveUpTo(lastReceived)
	return processed, nil
}

// ProcLoop runs ProcMany(maxProcsPerBatch) in a loop until ctx is done,
// cooperatively yielding to the Go scheduler whenever the subscriber is
// caught up.
func (s *Stage[T]) ProcLoop(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.ProcMany(s.maxProcsPerBatch); err == ErrAhead {
			runtime.Gosched()
		}
	}
}
