package memory

import "sync/atomic"

// Bridge moves a byte charge between a worker-local budget and the
// process-wide budget when a chunk crosses an exchange boundary.
type Bridge interface {
	// TransferThreadToGlobal moves a charge from the calling worker's
	// budget to the process-wide budget (chunk entered a queue).
	TransferThreadToGlobal(bytes int64)
	// TransferGlobalToThread moves a charge from the process-wide budget
	// to the calling worker's budget (chunk left a queue).
	TransferGlobalToThread(bytes int64)
	// ReleaseGlobal drops an in-flight charge for a chunk that was
	// discarded by a hard close and will never reach a consumer.
	ReleaseGlobal(bytes int64)
}

// Tracker is the default Bridge, backed by two atomic counters. The
// worker counter is the aggregate of all worker-local budgets; it goes
// negative on the producing side and back to zero once consumers pick
// the charges up.
type Tracker struct {
	thread atomic.Int64
	global atomic.Int64
}

// NewTracker creates a zeroed tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// TransferThreadToGlobal moves bytes from the worker budget to the
// process-wide budget.
func (t *Tracker) TransferThreadToGlobal(bytes int64) {
	t.thread.Add(-bytes)
	t.global.Add(bytes)
}

// TransferGlobalToThread moves bytes from the process-wide budget to the
// worker budget.
func (t *Tracker) TransferGlobalToThread(bytes int64) {
	t.global.Add(-bytes)
	t.thread.Add(bytes)
}

// ReleaseGlobal drops an in-flight charge without crediting any worker.
func (t *Tracker) ReleaseGlobal(bytes int64) {
	t.global.Add(-bytes)
}

// ThreadBytes returns the aggregate worker-local balance.
func (t *Tracker) ThreadBytes() int64 {
	return t.thread.Load()
}

// GlobalBytes returns the process-wide in-flight balance.
func (t *Tracker) GlobalBytes() int64 {
	return t.global.Load()
}
