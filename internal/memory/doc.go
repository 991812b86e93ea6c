/*
Package memory provides the credit accounting bridge between worker-local
and process-wide memory budgets.

# Overview

Every chunk that crosses an exchange boundary carries a byte charge. While
a worker holds the chunk, the charge belongs to that worker's budget; while
the chunk sits in a transport queue ("in flight"), the charge belongs to
the process-wide budget. The bridge moves the charge exactly once per
crossing, in the direction matching producer-to-queue or queue-to-consumer.

# Usage

	tracker := memory.NewTracker()

	// producer side, after a successful enqueue
	tracker.TransferThreadToGlobal(chunk.AllocatedBytes())

	// consumer side, after a successful dequeue
	tracker.TransferGlobalToThread(chunk.AllocatedBytes())

For a fully drained, closed channel the transfers net to zero.
*/
package memory
