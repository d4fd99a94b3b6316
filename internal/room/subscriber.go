package room

import (
	"context"
	"sync"
)

// Subscriber is one receiver of a room's broadcast stream. Snapshots are
// last-write-wins: when the receiver lags, a newer snapshot replaces an
// undelivered one at the tail of the queue. Events are never coalesced and
// keep their position after the snapshot they accompany.
type Subscriber struct {
	PlayerID string

	mu     sync.Mutex
	queue  []queued
	notify chan struct{}
	closed bool

	// coalesced counts snapshots replaced before delivery, for metrics.
	coalesced int
}

type queued struct {
	data     []byte
	snapshot bool
}

// NewSubscriber creates a subscriber delivering on behalf of a player.
func NewSubscriber(playerID string) *Subscriber {
	return &Subscriber{
		PlayerID: playerID,
		notify:   make(chan struct{}, 1),
	}
}

// pushSnapshot enqueues a full room snapshot, replacing a pending one at
// the tail so a slow receiver always converges on the latest state.
func (s *Subscriber) pushSnapshot(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	if n := len(s.queue); n > 0 && s.queue[n-1].snapshot {
		s.queue[n-1].data = data
		s.coalesced++
	} else {
		s.queue = append(s.queue, queued{data: data, snapshot: true})
	}
	s.wake()
}

// pushEvent enqueues a discrete event frame.
func (s *Subscriber) pushEvent(data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.queue = append(s.queue, queued{data: data})
	s.wake()
}

func (s *Subscriber) wake() {
	select {
	case s.notify <- struct{}{}:
	default:
	}
}

// Next blocks until a frame is available or the context ends. The second
// return is false once the subscriber is closed and drained.
func (s *Subscriber) Next(ctx context.Context) ([]byte, bool) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			item := s.queue[0]
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return item.data, true
		}
		closed := s.closed
		s.mu.Unlock()
		if closed {
			return nil, false
		}

		select {
		case <-s.notify:
		case <-ctx.Done():
			return nil, false
		}
	}
}

// Close stops delivery. Pending frames are still drained by Next.
func (s *Subscriber) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	s.wake()
}

// takeCoalesced returns and resets the coalesce counter.
func (s *Subscriber) takeCoalesced() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := s.coalesced
	s.coalesced = 0
	return n
}
