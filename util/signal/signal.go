package signal

import (
	"sync"
)

// Connection identifies a slot connected to a Signal.
type Connection uint64

type slot[T any] struct {
	id Connection
	fn func(T)
}

// Signal is a typed callback list. Slots run synchronously on the emitting
// goroutine, in connection order.
type Signal[T any] struct {
	mu    sync.RWMutex
	seq   Connection
	slots []slot[T]
}

// New 创建一个空的 Signal
func New[T any]() *Signal[T] {
	return &Signal[T]{}
}

// Connect registers fn and returns a handle for Disconnect.
func (s *Signal[T]) Connect(fn func(T)) Connection {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.slots = append(s.slots, slot[T]{id: s.seq, fn: fn})
	return s.seq
}

// Disconnect removes the slot, reporting whether it was connected.
func (s *Signal[T]) Disconnect(c Connection) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sl := range s.slots {
		if sl.id == c {
			s.slots = append(s.slots[:i], s.slots[i+1:]...)
			return true
		}
	}
	return false
}

// DisconnectAll removes every slot.
func (s *Signal[T]) DisconnectAll() {
	s.mu.Lock()
	s.slots = nil
	s.mu.Unlock()
}

// Len returns the number of connected slots.
func (s *Signal[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.slots)
}

// Emit calls every slot with v. The slot list is copied first so slots may
// connect or disconnect while being called.
func (s *Signal[T]) Emit(v T) {
	s.mu.RLock()
	slots := make([]slot[T], len(s.slots))
	copy(slots, s.slots)
	s.mu.RUnlock()

	for _, sl := range slots {
		sl.fn(v)
	}
}

// Forward connects dst so every value emitted on s is re-emitted on dst.
func Forward[T any](s, dst *Signal[T]) Connection {
	return s.Connect(dst.Emit)
}
