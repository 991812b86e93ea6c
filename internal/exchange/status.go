package exchange

// StatusCode classifies why a channel is running or was terminated.
// Zero means running. Positive codes terminate immediately and discard
// anything still queued; negative codes terminate after consumers drain
// the data already in flight.
type StatusCode int32

const (
	// RecvLimitReached means the receiver hit its row/byte limit and
	// needs no more data; already queued chunks are still delivered.
	RecvLimitReached StatusCode = -2
	// AllSendersDone means every producer finished normally.
	AllSendersDone StatusCode = -1
	// Running is the unique initial, non-terminal code.
	Running StatusCode = 0
	// RecvTimeout means a receive wait exceeded its deadline.
	RecvTimeout StatusCode = 1
	// SendTimeout means a send wait exceeded its deadline.
	SendTimeout StatusCode = 2
	// RecvCancelled means the receiver side aborted the exchange.
	RecvCancelled StatusCode = 3
	// SendCancelled means the sender side aborted the exchange.
	SendCancelled StatusCode = 4
	// SendUnknownError marks a send interrupted by a concurrent queue
	// closure before any terminal status was published. It is returned
	// to callers but never installed as the channel status.
	SendUnknownError StatusCode = 5
)

// String returns the string representation of the code.
func (c StatusCode) String() string {
	switch c {
	case RecvLimitReached:
		return "recv_limit_reached"
	case AllSendersDone:
		return "all_senders_done"
	case Running:
		return "running"
	case RecvTimeout:
		return "recv_timeout"
	case SendTimeout:
		return "send_timeout"
	case RecvCancelled:
		return "recv_cancelled"
	case SendCancelled:
		return "send_cancelled"
	case SendUnknownError:
		return "send_unknown_error"
	default:
		return "unknown"
	}
}

// Terminal reports whether the code ends the channel.
func (c StatusCode) Terminal() bool {
	return c != Running
}

// ClosesImmediately reports whether the code discards queued data
// instead of letting consumers drain it.
func (c StatusCode) ClosesImmediately() bool {
	return c > 0
}

// Status describes the channel's running or terminal condition. A Status
// is immutable once published; IsModifier is true only on the copy
// returned to the caller whose Finish won the transition race.
type Status struct {
	Code       StatusCode
	IsModifier bool
	Message    string
}
