package transport

import (
	"errors"
	"sync"
	"time"

	"github.com/veloradb/exchange/internal/chunk"
)

var (
	ErrClosed  = errors.New("transport queue is closed")
	ErrTimeout = errors.New("transport queue wait timed out")
)

// Packet is one transport item: either a data chunk or an end-of-stream
// marker published by the sender that finished the channel.
type Packet struct {
	Chunk       *chunk.Chunk
	EndOfStream bool
	Sender      string
}

// Queue is a capacity-bounded FIFO of packets shared by the sender and
// receiver sides of a channel. Capacity is enforced with token channels:
// space holds one token per free slot, ready one token per buffered
// packet. Items and their ready tokens are updated under mu so a close
// always observes a consistent pair.
type Queue struct {
	mu     sync.Mutex
	items  []Packet
	closed bool

	space chan struct{}
	ready chan struct{}
	done  chan struct{}
}

// NewQueue creates a queue with the given capacity. Capacity below one
// is raised to one.
func NewQueue(capacity int) *Queue {
	if capacity < 1 {
		capacity = 1
	}
	q := &Queue{
		space: make(chan struct{}, capacity),
		ready: make(chan struct{}, capacity),
		done:  make(chan struct{}),
	}
	for i := 0; i < capacity; i++ {
		q.space <- struct{}{}
	}
	return q
}

// Push inserts a packet, waiting for a free slot until the deadline.
// Returns ErrClosed once the queue is closed and ErrTimeout when the
// deadline elapses first.
func (q *Queue) Push(p Packet, deadline time.Time) error {
	if q.Closed() {
		return ErrClosed
	}
	select {
	case <-q.space:
	default:
		wait := time.Until(deadline)
		if wait <= 0 {
			if q.Closed() {
				return ErrClosed
			}
			return ErrTimeout
		}
		timer := time.NewTimer(wait)
		defer timer.Stop()
		select {
		case <-q.space:
		case <-q.done:
			return ErrClosed
		case <-timer.C:
			if q.Closed() {
				return ErrClosed
			}
			return ErrTimeout
		}
	}

	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		// The slot token is deliberately dropped: the queue is dead.
		return ErrClosed
	}
	q.items = append(q.items, p)
	q.ready <- struct{}{}
	q.mu.Unlock()
	return nil
}

// Pop removes the oldest packet, waiting until the deadline. Already
// buffered packets win over an in-progress close when their ready token
// was granted first; otherwise a closed queue yields ErrClosed.
func (q *Queue) Pop(deadline time.Time) (Packet, error) {
	select {
	case <-q.ready:
		return q.take()
	default:
	}
	wait := time.Until(deadline)
	if wait <= 0 {
		if q.Closed() {
			return Packet{}, ErrClosed
		}
		return Packet{}, ErrTimeout
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-q.ready:
		return q.take()
	case <-q.done:
		return Packet{}, ErrClosed
	case <-timer.C:
		if q.Closed() {
			return Packet{}, ErrClosed
		}
		return Packet{}, ErrTimeout
	}
}

func (q *Queue) take() (Packet, error) {
	q.mu.Lock()
	if len(q.items) == 0 {
		// A concurrent close discarded the packet this token promised.
		q.mu.Unlock()
		return Packet{}, ErrClosed
	}
	p := q.items[0]
	q.items = q.items[1:]
	q.mu.Unlock()

	select {
	case q.space <- struct{}{}:
	default:
	}
	return p, nil
}

// Close marks the queue closed and returns the packets that were still
// buffered so the caller can settle their memory charges. Closing twice
// is a no-op; the second call returns nil.
func (q *Queue) Close() []Packet {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	dropped := q.items
	q.items = nil
	// Absorb the ready tokens of the discarded packets. A token already
	// claimed by a racing Pop is left alone; that Pop will find the
	// items gone and report ErrClosed.
	for range dropped {
		select {
		case <-q.ready:
		default:
		}
	}
	q.mu.Unlock()
	close(q.done)
	return dropped
}

// Closed reports whether the queue has been closed.
func (q *Queue) Closed() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.closed
}

// Len returns the number of buffered packets.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Cap returns the queue capacity.
func (q *Queue) Cap() int {
	return cap(q.ready)
}
