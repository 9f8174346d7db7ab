package flow

import (
	"context"
	"runtime"
	"sync/atomic"

	"github.com/google/uuid"
)

// FlowSubscriber receives published data from a Flow in FIFO order. A
// subscriber never blocks a producer beyond the flow's fixed capacity:
// once it falls capacity slots behind, the producer starts failing with
// ErrFull until the subscriber catches up.
//
// Every subscriber created by New counts against back-pressure for the
// whole lifetime of its Flow; there is no way to detach one, so a
// subscriber that stops receiving eventually stalls the producer.
type FlowSubscriber[T any] struct {
	state             *state[T]
	nextReceivableSeq *atomic.Uint64
	id                uuid.UUID
}

// ID returns a debug identity for this subscriber, stable for its
// lifetime. It has no role in the flow protocol itself.
func (s *FlowSubscriber[T]) ID() uuid.UUID { return s.id }

// receivableSeqs returns [start, end) of sequences this subscriber may
// presently receive.
func (s *FlowSubscriber[T]) receivableSeqs() (start, end uint64) {
	return s.nextReceivableSeq.Load(), s.state.nextPublishableSeq.Load()
}

func (s *FlowSubscriber[T]) receiveUpTo(seq uint64) {
	for {
		cur := s.nextReceivableSeq.Load()
		next := seq + 1
		if next <= cur {
			return
		}
		if s.nextReceivableSeq.CompareAndSwap(cur, next) {
			return
		}
	}
}

// TryNext returns the next published value without blocking, or
// ErrAhead if the subscriber has already received everything currently
// published.
func (s *FlowSubscriber[T]) TryNext() (*PublishedHandle[T], error) {
	start, end := s.receivableSeqs()
	if start >= end {
		return nil, ErrAhead
	}
	return &PublishedHandle[T]{sub: s, seq: start, value: s.state.buffer[s.state.index(start)]}, nil
}

// Next returns the next published value, cooperatively yielding to the
// Go scheduler while the subscriber is caught up, until ctx is done.
func (s *FlowSubscriber[T]) Next(ctx context.Context) (*PublishedHandle[T], error) {
	for {
		h, err := s.TryNext()
		if err != ErrAhead {
			return h, err
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		runtime.Gosched()
	}
}

// PublishedHandle is one value received from a FlowSubscriber. Callers
// must call Release once they are done with the value, marking its
// sequence as received and allowing the producer to reclaim the slot.
type PublishedHandle[T any] struct {
	sub   *FlowSubscriber[T]
	seq   uint64
	value T
}

// Sequence reports the handle's received sequence number.
func (h *PublishedHandle[T]) Sequence() uint64 { return h.seq }

// Value returns the received data.
func (h *PublishedHandle[T]) Value() T { return h.value }

// Release marks this handle's sequence (and every sequence before it)
// as received, freeing its slot for the producer once every subscriber
// has done the same.
func (h *PublishedHandle[T]) Release() {
	h.sub.receiveUpTo(h.seq)
}
