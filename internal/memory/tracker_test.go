package memory

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTransferPairing(t *testing.T) {
	tracker := NewTracker()

	tracker.TransferThreadToGlobal(100)
	assert.Equal(t, int64(-100), tracker.ThreadBytes())
	assert.Equal(t, int64(100), tracker.GlobalBytes())

	tracker.TransferGlobalToThread(100)
	assert.Equal(t, int64(0), tracker.ThreadBytes())
	assert.Equal(t, int64(0), tracker.GlobalBytes())
}

func TestReleaseGlobal(t *testing.T) {
	tracker := NewTracker()

	tracker.TransferThreadToGlobal(64)
	tracker.ReleaseGlobal(64)

	assert.Equal(t, int64(0), tracker.GlobalBytes())
}

func TestConcurrentTransfersNetToZero(t *testing.T) {
	tracker := NewTracker()
	const workers = 8
	const perWorker = 1000

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				tracker.TransferThreadToGlobal(10)
				tracker.TransferGlobalToThread(10)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(0), tracker.ThreadBytes())
	assert.Equal(t, int64(0), tracker.GlobalBytes())
}
