/*
Package transport provides the bounded queue that carries packets between
the sender and receiver sides of a broadcast exchange channel.

# Overview

The queue is multi-producer/multi-consumer, capacity-bounded, and FIFO.
Push and Pop are bounded by absolute deadlines rather than blocking
forever, so a stalled peer can never wedge a pipeline stage. Closing is
one-way: a closed queue rejects further inserts, discards whatever was
still buffered, and hands the discarded packets back to the closer so
their memory charges can be settled.
*/
package transport
