package exchange

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/veloradb/exchange/internal/chunk"
)

var (
	ErrAcceptTimeout = errors.New("sender proxy accept wait timed out")
	ErrBindTimeout   = errors.New("sender proxy bind wait timed out")
	ErrAlreadyBound  = errors.New("sender proxy already bound to a channel")
)

// Key identifies all channels belonging to one logical exchange
// partition of a query.
type Key struct {
	QueryID        string
	ExchangeID     uint64
	PartitionIndex uint64
}

// String renders the key in query_exchange_partition form.
func (k Key) String() string {
	return fmt.Sprintf("%s_%d_%d", k.QueryID, k.ExchangeID, k.PartitionIndex)
}

// Registry is the process-wide rendezvous directory from exchange keys
// to sender proxies. A receiver-created channel parks a proxy here so
// the producer side can discover it and attach.
type Registry struct {
	mu      sync.Mutex
	proxies map[Key]*SenderProxy
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{proxies: make(map[Key]*SenderProxy)}
}

// GetOrCreate returns the proxy for key, creating it if absent. Both
// sides of an exchange call this; whoever comes first creates the cell.
func (r *Registry) GetOrCreate(key Key) *SenderProxy {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.proxies[key]; ok {
		return p
	}
	p := &SenderProxy{
		key:      key,
		accepted: make(chan struct{}),
		bound:    make(chan struct{}),
	}
	r.proxies[key] = p
	return p
}

// Remove drops the proxy for key.
func (r *Registry) Remove(key Key) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.proxies, key)
}

// Len returns the number of parked proxies.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.proxies)
}

// SenderProxy is a write-once rendezvous cell standing in for the real
// sender of an exchange partition. The producer declares itself with
// Accept; the receiver-created channel then binds itself with
// BecomeRealSender, after which all sending delegates to the channel.
type SenderProxy struct {
	key      Key
	accepted chan struct{}
	once     sync.Once

	mu    sync.Mutex
	real  *Channel
	bound chan struct{}
}

// Key returns the exchange key this proxy stands for.
func (p *SenderProxy) Key() Key {
	return p.key
}

// Accept declares that a producer is attached and waiting for the real
// sender. Calling it more than once is harmless.
func (p *SenderProxy) Accept() {
	p.once.Do(func() { close(p.accepted) })
}

// WaitAccept blocks until a producer has declared itself, bounded by
// timeout.
func (p *SenderProxy) WaitAccept(timeout time.Duration) error {
	select {
	case <-p.accepted:
		return nil
	default:
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-p.accepted:
		return nil
	case <-timer.C:
		return fmt.Errorf("proxy %s: %w", p.key, ErrAcceptTimeout)
	}
}

// BecomeRealSender binds the channel behind this proxy. The cell is
// single-assignment; a second bind fails and leaves the first intact.
func (p *SenderProxy) BecomeRealSender(ch *Channel) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.real != nil {
		return fmt.Errorf("proxy %s: %w", p.key, ErrAlreadyBound)
	}
	p.real = ch
	close(p.bound)
	return nil
}

// WaitRealSender blocks until a channel is bound, bounded by timeout.
func (p *SenderProxy) WaitRealSender(timeout time.Duration) (*Channel, error) {
	select {
	case <-p.bound:
		return p.realSender(), nil
	default:
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-p.bound:
		return p.realSender(), nil
	case <-timer.C:
		return nil, fmt.Errorf("proxy %s: %w", p.key, ErrBindTimeout)
	}
}

func (p *SenderProxy) realSender() *Channel {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.real
}

// Name implements Sender.
func (p *SenderProxy) Name() string {
	if ch := p.boundSender(); ch != nil {
		return ch.Name()
	}
	return "proxy:" + p.key.String()
}

// Send implements Sender by delegating to the bound channel. Sending
// through an unbound proxy does not block; it reports an interrupted
// send without claiming authority over the channel state.
func (p *SenderProxy) Send(ck *chunk.Chunk) Status {
	ch := p.boundSender()
	if ch == nil {
		return Status{Code: SendUnknownError, Message: "send through unbound proxy " + p.key.String()}
	}
	return ch.Send(ck)
}

// Finish implements Sender by delegating to the bound channel.
func (p *SenderProxy) Finish(code StatusCode, message string) Status {
	ch := p.boundSender()
	if ch == nil {
		return Status{Code: SendUnknownError, Message: "finish through unbound proxy " + p.key.String()}
	}
	return ch.Finish(code, message)
}

func (p *SenderProxy) boundSender() *Channel {
	select {
	case <-p.bound:
		return p.realSender()
	default:
		return nil
	}
}
