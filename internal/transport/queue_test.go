package transport

import (
	"sync"
	"testing"
	"time"

	"github.com/fortytw2/leaktest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/veloradb/exchange/internal/chunk"
)

func packet(size int) Packet {
	return Packet{Chunk: chunk.New([][]byte{make([]byte, size)}, 1)}
}

func TestFIFOOrder(t *testing.T) {
	q := NewQueue(4)
	deadline := time.Now().Add(time.Second)

	for _, size := range []int{10, 20, 30} {
		require.NoError(t, q.Push(packet(size), deadline))
	}

	for _, want := range []int64{10, 20, 30} {
		p, err := q.Pop(deadline)
		require.NoError(t, err)
		assert.Equal(t, want, p.Chunk.ByteSize())
	}
	assert.Equal(t, 0, q.Len())
}

func TestPushTimeoutWhenFull(t *testing.T) {
	q := NewQueue(1)
	require.NoError(t, q.Push(packet(1), time.Now().Add(time.Second)))

	start := time.Now()
	err := q.Push(packet(2), time.Now().Add(20*time.Millisecond))
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestPopTimeoutWhenEmpty(t *testing.T) {
	q := NewQueue(1)

	_, err := q.Pop(time.Now().Add(20 * time.Millisecond))
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestPopPastDeadlineDoesNotBlock(t *testing.T) {
	q := NewQueue(1)

	start := time.Now()
	_, err := q.Pop(time.Now().Add(-time.Second))
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestCloseDiscardsBufferedPackets(t *testing.T) {
	q := NewQueue(4)
	deadline := time.Now().Add(time.Second)
	require.NoError(t, q.Push(packet(10), deadline))
	require.NoError(t, q.Push(packet(20), deadline))

	dropped := q.Close()
	require.Len(t, dropped, 2)
	assert.Equal(t, int64(10), dropped[0].Chunk.ByteSize())
	assert.Equal(t, int64(20), dropped[1].Chunk.ByteSize())
	assert.True(t, q.Closed())

	_, err := q.Pop(time.Now().Add(10 * time.Millisecond))
	assert.ErrorIs(t, err, ErrClosed)

	// second close is a no-op
	assert.Nil(t, q.Close())
}

func TestPushAfterClose(t *testing.T) {
	q := NewQueue(2)
	q.Close()

	err := q.Push(packet(1), time.Now().Add(time.Second))
	assert.ErrorIs(t, err, ErrClosed)
}

func TestCloseUnblocksWaiters(t *testing.T) {
	defer leaktest.Check(t)()

	full := NewQueue(1)
	require.NoError(t, full.Push(packet(1), time.Now().Add(time.Second)))
	empty := NewQueue(1)

	var wg sync.WaitGroup
	wg.Add(2)
	errs := make([]error, 2)
	go func() {
		defer wg.Done()
		errs[0] = full.Push(packet(2), time.Now().Add(5*time.Second))
	}()
	go func() {
		defer wg.Done()
		_, errs[1] = empty.Pop(time.Now().Add(5 * time.Second))
	}()

	time.Sleep(20 * time.Millisecond)
	full.Close()
	empty.Close()
	wg.Wait()

	assert.ErrorIs(t, errs[0], ErrClosed)
	assert.ErrorIs(t, errs[1], ErrClosed)
}

func TestConcurrentProducersConsumers(t *testing.T) {
	defer leaktest.Check(t)()

	q := NewQueue(8)
	const producers = 4
	const perProducer = 50
	deadline := time.Now().Add(5 * time.Second)

	var wg sync.WaitGroup
	for i := 0; i < producers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perProducer; j++ {
				assert.NoError(t, q.Push(packet(8), deadline))
			}
		}()
	}

	received := make(chan Packet, producers*perProducer)
	var cg sync.WaitGroup
	for i := 0; i < 2; i++ {
		cg.Add(1)
		go func() {
			defer cg.Done()
			for {
				p, err := q.Pop(time.Now().Add(200 * time.Millisecond))
				if err != nil {
					return
				}
				received <- p
			}
		}()
	}

	wg.Wait()
	cg.Wait()
	close(received)

	assert.Len(t, received, producers*perProducer)
}
