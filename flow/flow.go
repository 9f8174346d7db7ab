// Package flow implements a lock-free, single-producer/multi-subscriber
// ring buffer used to move schema-described records between codec
// producers and stage processors without blocking allocation on the
// hot path.
//
// The ring buffer algorithm (sequence claiming, publish/receive
// barriers, back-pressure) is grounded on the codas-flow Rust crate's
// Flow/FlowState design; the typed atomic counters and context.Context
// based waiting follow the concurrency idioms artpar-apigate uses for
// its own hot-path state (app/route.go, app/proxy.go).
package flow

import (
	"context"
	"fmt"
	"runtime"
	"sync/atomic"

	"github.com/google/uuid"
)

// Error is a transient condition surfaced by a Flow or
// FlowSubscriber's non-blocking operations; the blocking Next variants
// retry on it until it clears or their context is done.
type Error struct {
	msg string
}

func (e *Error) Error() string { return e.msg }

// ErrFull is returned by TryNext when a flow has no free capacity: every
// slot holds data that some subscriber has not yet received.
var ErrFull = &Error{msg: "flow: full"}

// ErrAhead is returned by a subscriber's TryNext when it has already
// received every sequence currently published.
var ErrAhead = &Error{msg: "flow: subscriber is caught up"}

// state is the data shared between a Flow and every FlowSubscriber
// built from it. It outlives any single Flow or FlowSubscriber value,
// the way codas-flow's FlowState is held behind an Arc.
type state[T any] struct {
	buffer []T // power-of-two length; index = sequence & (len-1)

	nextWritableSeq    atomic.Uint64
	nextPublishableSeq atomic.Uint64

	subscriberSeqs []*atomic.Uint64
}

func (s *state[T]) index(seq uint64) int {
	return int(seq) & (len(s.buffer) - 1)
}

// tryClaimPublishable claims and returns the next writable sequence, or
// ok=false if the flow is full (every subscriber is still behind the
// oldest unreceived slot).
func (s *state[T]) tryClaimPublishable() (seq uint64, ok bool) {
	for {
		writable := s.nextWritableSeq.Load()

		minReceivable := s.nextPublishableSeq.Load()
		for _, sub := range s.subscriberSeqs {
			if r := sub.Load(); r < minReceivable {
				minReceivable = r
			}
		}

		if minReceivable+uint64(len(s.buffer)) <= writable {
			return 0, false
		}
		if s.nextWritableSeq.CompareAndSwap(writable, writable+1) {
			return writable, true
		}
	}
}

func (s *state[T]) tryPublish(seq uint64) bool {
	return s.nextPublishableSeq.CompareAndSwap(seq, seq+1)
}

// Flow is a bounded, power-of-two-capacity ring buffer with one
// producer handle and any number of FlowSubscriber handles. The zero
// value is not usable; construct with New.
type Flow[T any] struct {
	state *state[T]
}

// New allocates a Flow with n subscribers, all initially caught up to
// the start of the flow. capacity is rounded up to the next power of
// two; New panics if capacity is not positive.
func New[T any](capacity int, n int) (*Flow[T], []*FlowSubscriber[T]) {
	if capacity <= 0 {
		panic(fmt.Sprintf("flow: capacity must be positive, got %d", capacity))
	}
	size := 1
	for size < capacity {
		size <<= 1
	}

	s := &state[T]{
		buffer:         make([]T, size),
		subscriberSeqs: make([]*atomic.Uint64, n),
	}
	subs := make([]*FlowSubscriber[T], n)
	for i := range subs {
		seq := &atomic.Uint64{}
		s.subscriberSeqs[i] = seq
		subs[i] = &FlowSubscriber[T]{state: s, nextReceivableSeq: seq, id: uuid.New()}
	}
	return &Flow[T]{state: s}, subs
}

// TryNext claims the next writable sequence without blocking, returning
// ErrFull if the flow has no free capacity.
func (f *Flow[T]) TryNext() (*UnpublishedHandle[T], error) {
	seq, ok := f.state.tryClaimPublishable()
	if !ok {
		return nil, ErrFull
	}
	return &UnpublishedHandle[T]{flow: f, seq: seq}, nil
}

// Next claims the next writable sequence, cooperatively yielding to the
// Go scheduler (mirroring codas-flow's async waker-driven spin) while
// the flow is full, until ctx is done.
func (f *Flow[T]) Next(ctx context.Context) (*UnpublishedHandle[T], error) {
	for {
		h, err := f.TryNext()
		if err != ErrFull {
			return h, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		runtime.Gosched()
	}
}

// UnpublishedHandle is a claimed, not-yet-visible slot in a Flow. A
// writer must call Publish exactly once to make the slot's data visible
// to subscribers; per this implementation's drop-without-publish
// decision (see SPEC_FULL.md), discarding the handle without calling
// Publish permanently stalls the flow at this sequence, so callers
// should always publish, even a zero value, before letting go of it.
type UnpublishedHandle[T any] struct {
	flow *Flow[T]
	seq  uint64
}

// Sequence reports the handle's claimed sequence number.
func (h *UnpublishedHandle[T]) Sequence() uint64 { return h.seq }

// Publish writes data into the claimed slot and marks the sequence
// publishable. It must be called exactly once per handle.
func (h *UnpublishedHandle[T]) Publish(data T) {
	s := h.flow.state
	s.buffer[s.index(h.seq)] = data
	for !s.tryPublish(h.seq) {
		// Another producer's earlier sequence hasn't published yet;
		// spin until publication order matches claim order.
	}
}
