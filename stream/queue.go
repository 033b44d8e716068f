// Package stream provides a player that decodes ahead into a bounded queue.
package stream

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"cvwidgets/frame"
)

var (
	// ErrQueueFull is returned by Put when no slot freed up before the
	// timeout. The frame is dropped.
	ErrQueueFull = errors.New("frame queue full")
	// ErrQueueClosed is returned by Put after Close.
	ErrQueueClosed = errors.New("frame queue closed")
)

// FrameQueue is a fixed capacity buffer between one producer and one
// consumer.
type FrameQueue struct {
	ch     chan *frame.VideoFrame
	done   chan struct{}
	once   sync.Once
	drops  uint64
	closed atomic.Bool
}

func NewFrameQueue(capacity int) *FrameQueue {
	if capacity < 1 {
		capacity = 1
	}
	return &FrameQueue{
		ch:   make(chan *frame.VideoFrame, capacity),
		done: make(chan struct{}),
	}
}

// Put blocks until f is queued, timeout elapses or ctx is done. A timeout
// <= 0 fails immediately when the queue is full.
func (q *FrameQueue) Put(ctx context.Context, f *frame.VideoFrame, timeout time.Duration) error {
	if q.closed.Load() {
		return ErrQueueClosed
	}
	select {
	case q.ch <- f:
		return nil
	default:
	}
	if timeout <= 0 {
		atomic.AddUint64(&q.drops, 1)
		return ErrQueueFull
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case q.ch <- f:
		return nil
	case <-timer.C:
		atomic.AddUint64(&q.drops, 1)
		return ErrQueueFull
	case <-ctx.Done():
		return ctx.Err()
	case <-q.done:
		return ErrQueueClosed
	}
}

// TryGet returns the oldest frame without blocking.
func (q *FrameQueue) TryGet() (*frame.VideoFrame, bool) {
	select {
	case f := <-q.ch:
		return f, true
	default:
		return nil, false
	}
}

// Drain discards every queued frame and returns how many there were.
func (q *FrameQueue) Drain() int {
	n := 0
	for {
		if _, ok := q.TryGet(); !ok {
			return n
		}
		n++
	}
}

func (q *FrameQueue) Len() int { return len(q.ch) }
func (q *FrameQueue) Cap() int { return cap(q.ch) }

// Drops counts frames rejected with ErrQueueFull.
func (q *FrameQueue) Drops() uint64 {
	return atomic.LoadUint64(&q.drops)
}

// Close wakes up a blocked Put. Queued frames can still be taken.
func (q *FrameQueue) Close() {
	q.once.Do(func() {
		q.closed.Store(true)
		close(q.done)
	})
}
