package exchange

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/veloradb/exchange/internal/chunk"
	"github.com/veloradb/exchange/internal/infrastructure/logging"
	"github.com/veloradb/exchange/internal/infrastructure/monitoring"
	"github.com/veloradb/exchange/internal/memory"
	"github.com/veloradb/exchange/internal/transport"
)

var ErrNotImplemented = errors.New("not implemented")

// Sender is the producer-side surface of a broadcast channel.
type Sender interface {
	Send(ck *chunk.Chunk) Status
	Finish(code StatusCode, message string) Status
	Name() string
}

// Options configures a broadcast channel.
type Options struct {
	// MaxWait bounds every blocking queue operation issued by the
	// channel itself (sends and the end-of-stream publication).
	MaxWait time.Duration
	// EnableMetrics turns on per-channel accounting and the exchange
	// log record emitted at teardown.
	EnableMetrics bool
}

// DefaultOptions returns the options used when none are provided.
func DefaultOptions() Options {
	return Options{MaxWait: 10 * time.Second, EnableMetrics: true}
}

// Config assembles a channel's collaborators.
type Config struct {
	Name     string
	Key      Key
	Options  Options
	Queue    *transport.Queue
	Bridge   memory.Bridge
	Registry *Registry
	Logger   *logging.Logger
	Metrics  *monitoring.Metrics // optional
}

// Channel is a local broadcast exchange channel: one producer stage
// writes sequenced chunks, one consumer stage reads them, and either
// side may terminate the exchange through Finish. The published status
// lives behind a single atomic pointer; exactly one Finish call ever
// installs a terminal status.
type Channel struct {
	name     string
	key      Key
	opts     Options
	queue    *transport.Queue
	bridge   memory.Bridge
	registry *Registry
	logger   *logging.Logger
	metrics  *monitoring.Metrics

	initial Status
	status  atomic.Pointer[Status]

	sender   senderStats
	receiver receiverStats

	closeOnce sync.Once
}

type senderStats struct {
	sendTime   atomic.Int64 // nanoseconds
	rows       atomic.Int64
	bytes      atomic.Int64
	finishCode atomic.Int32
	isModifier atomic.Bool

	mu      sync.Mutex
	message string
}

type receiverStats struct {
	recvTime     atomic.Int64 // nanoseconds
	registerTime atomic.Int64
	bytes        atomic.Int64
}

// New creates a channel bound to its transport queue. Queue, Bridge and
// Logger default to sane instances when omitted; Registry is required
// only for RegisterToSenders.
func New(cfg Config) *Channel {
	if cfg.Options == (Options{}) {
		cfg.Options = DefaultOptions()
	}
	if cfg.Queue == nil {
		cfg.Queue = transport.NewQueue(64)
	}
	if cfg.Bridge == nil {
		cfg.Bridge = memory.NewTracker()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewDefault()
	}
	c := &Channel{
		name:     cfg.Name,
		key:      cfg.Key,
		opts:     cfg.Options,
		queue:    cfg.Queue,
		bridge:   cfg.Bridge,
		registry: cfg.Registry,
		logger:   cfg.Logger,
		metrics:  cfg.Metrics,
	}
	c.initial = Status{Code: Running}
	c.status.Store(&c.initial)
	return c
}

// Name returns the channel name.
func (c *Channel) Name() string {
	return c.name
}

// Key returns the exchange key.
func (c *Channel) Key() Key {
	return c.key
}

// Status returns a copy of the currently published status.
func (c *Channel) Status() Status {
	return *c.status.Load()
}

// Send inserts a chunk, bounded by the channel's max wait. The returned
// status is Running on success; any terminal code tells the producer to
// stop. A chunk accepted into the queue always has its memory charge
// moved to the global budget before Send returns.
func (c *Channel) Send(ck *chunk.Chunk) Status {
	start := time.Now()

	cur := c.status.Load()
	if cur.Code != Running {
		return *cur
	}

	allocated := ck.AllocatedBytes()
	err := c.queue.Push(transport.Packet{Chunk: ck}, start.Add(c.opts.MaxWait))
	if err == nil {
		c.bridge.TransferThreadToGlobal(allocated)
		elapsed := time.Since(start)
		if c.opts.EnableMetrics {
			c.sender.sendTime.Add(int64(elapsed))
			c.sender.rows.Add(int64(ck.Rows()))
			c.sender.bytes.Add(ck.ByteSize())
		}
		if c.metrics != nil {
			c.metrics.RecordSend(c.key.String(), ck.Rows(), ck.ByteSize(), elapsed)
			c.metrics.SetQueueDepth(c.key.String(), c.queue.Len())
		}
		return *c.status.Load()
	}

	if errors.Is(err, transport.ErrClosed) {
		cur = c.status.Load()
		if cur.Code != Running {
			return *cur
		}
		// Queue closed by a concurrent actor before the terminal status
		// was published. Only Finish may author the channel status, so
		// report the interruption without installing anything.
		return Status{
			Code:    SendUnknownError,
			Message: fmt.Sprintf("send on channel %s was interrupted", c.name),
		}
	}

	return c.Finish(SendTimeout,
		fmt.Sprintf("send to channel %s timed out after %s", c.name, c.opts.MaxWait))
}

// Recv returns the next chunk, or a nil chunk together with the status
// that ended the stream. The wait is bounded by deadline; an elapsed
// deadline resolves into a RecvTimeout status via Finish.
func (c *Channel) Recv(deadline time.Time) (*chunk.Chunk, Status) {
	start := time.Now()
	defer func() {
		if c.opts.EnableMetrics {
			c.receiver.recvTime.Add(int64(time.Since(start)))
		}
	}()

	cur := c.status.Load()
	if cur.Code.ClosesImmediately() {
		return nil, *cur
	}

	pkt, err := c.queue.Pop(deadline)
	if err == nil {
		if pkt.EndOfStream {
			return nil, *c.status.Load()
		}
		ck := pkt.Chunk
		c.bridge.TransferGlobalToThread(ck.AllocatedBytes())
		if c.opts.EnableMetrics {
			c.receiver.bytes.Add(ck.ByteSize())
		}
		if c.metrics != nil {
			c.metrics.RecordRecv(c.key.String(), ck.ByteSize(), time.Since(start))
			c.metrics.SetQueueDepth(c.key.String(), c.queue.Len())
		}
		return ck, *c.status.Load()
	}

	st := c.Finish(RecvTimeout,
		fmt.Sprintf("receive from channel %s timed out after %s", c.name, time.Since(start)))
	return nil, st
}

// Finish performs the single authoritative status transition. Exactly
// one caller across all racing threads wins the compare-and-swap and
// returns a copy with IsModifier set; everyone else observes the
// installed status. The winner closes the queue for positive codes and
// publishes an end-of-stream marker for negative ones.
func (c *Channel) Finish(code StatusCode, message string) Status {
	cur := c.status.Load()
	if cur.Code != Running {
		c.recordFinish(cur, false)
		return *cur
	}

	candidate := &Status{Code: code, Message: message}
	if c.status.CompareAndSwap(cur, candidate) {
		c.logger.Debug("broadcast status changed",
			zap.String("channel", c.name),
			zap.Int32("from", int32(cur.Code)),
			zap.Int32("to", int32(code)),
			zap.String("message", message),
		)
		if code.ClosesImmediately() {
			for _, p := range c.queue.Close() {
				if p.Chunk != nil {
					c.bridge.ReleaseGlobal(p.Chunk.AllocatedBytes())
				}
			}
		} else {
			// Best effort: consumers that drain the queue observe a
			// clean end instead of waiting out their deadlines.
			_ = c.queue.Push(
				transport.Packet{EndOfStream: true, Sender: c.name},
				time.Now().Add(c.opts.MaxWait),
			)
		}
		res := *candidate
		res.IsModifier = true
		c.recordFinish(candidate, true)
		return res
	}

	// Lost the race; the candidate is dropped and the installed status
	// is what every caller converges on.
	installed := c.status.Load()
	c.logger.Debug("lost broadcast status race",
		zap.String("channel", c.name),
		zap.Int32("attempted", int32(code)),
		zap.Int32("installed", int32(installed.Code)),
		zap.String("message", message),
	)
	c.recordFinish(installed, false)
	return *installed
}

func (c *Channel) recordFinish(st *Status, modifier bool) {
	if c.opts.EnableMetrics {
		c.sender.finishCode.Store(int32(st.Code))
		if modifier {
			c.sender.isModifier.Store(true)
		}
		c.sender.mu.Lock()
		c.sender.message = st.Message
		c.sender.mu.Unlock()
	}
	if c.metrics != nil {
		c.metrics.RecordFinish(st.Code.String(), modifier)
	}
}

// RegisterToSenders parks this channel behind the registry proxy for
// its exchange key, waits up to timeout for a producer to declare
// itself, then installs the channel as the real sender.
func (c *Channel) RegisterToSenders(timeout time.Duration) error {
	if c.registry == nil {
		return fmt.Errorf("channel %s has no sender registry", c.name)
	}
	start := time.Now()
	defer func() {
		elapsed := time.Since(start)
		if c.opts.EnableMetrics {
			c.receiver.registerTime.Add(int64(elapsed))
		}
		if c.metrics != nil {
			c.metrics.RecordRegister(elapsed)
		}
	}()

	proxy := c.registry.GetOrCreate(c.key)
	if err := proxy.WaitAccept(timeout); err != nil {
		return fmt.Errorf("register channel %s: %w", c.name, err)
	}
	return proxy.BecomeRealSender(c)
}

// Merge is unsupported for local channels: a local exchange has exactly
// one producer stage, so there is nothing to merge.
func (c *Channel) Merge(Sender) error {
	return fmt.Errorf("merge on local broadcast channel %s: %w", c.name, ErrNotImplemented)
}

// Stats is a point-in-time snapshot of channel accounting.
type Stats struct {
	Name         string        `json:"name"`
	Key          string        `json:"key"`
	Code         StatusCode    `json:"code"`
	SendRows     int64         `json:"send_rows"`
	SendBytes    int64         `json:"send_bytes"`
	SendTime     time.Duration `json:"send_time"`
	RecvBytes    int64         `json:"recv_bytes"`
	RecvTime     time.Duration `json:"recv_time"`
	RegisterTime time.Duration `json:"register_time"`
	QueueDepth   int           `json:"queue_depth"`
}

// Stats returns a snapshot of the channel's accumulated accounting.
func (c *Channel) Stats() Stats {
	return Stats{
		Name:         c.name,
		Key:          c.key.String(),
		Code:         c.status.Load().Code,
		SendRows:     c.sender.rows.Load(),
		SendBytes:    c.sender.bytes.Load(),
		SendTime:     time.Duration(c.sender.sendTime.Load()),
		RecvBytes:    c.receiver.bytes.Load(),
		RecvTime:     time.Duration(c.receiver.recvTime.Load()),
		RegisterTime: time.Duration(c.receiver.registerTime.Load()),
		QueueDepth:   c.queue.Len(),
	}
}

// Close finalizes the channel. If metrics were accumulated it emits one
// structured exchange log record summarizing both sides. Emission
// failures are recovered and logged; Close never propagates them.
func (c *Channel) Close() error {
	c.closeOnce.Do(func() {
		defer func() {
			if r := recover(); r != nil {
				c.logger.Error("exchange log emission failed",
					zap.String("channel", c.name),
					zap.Any("reason", r),
				)
			}
		}()
		if !c.opts.EnableMetrics {
			return
		}
		c.sender.mu.Lock()
		message := c.sender.message
		c.sender.mu.Unlock()
		c.logger.Info("query exchange log",
			zap.String("query_id", c.key.QueryID),
			zap.Uint64("exchange_id", c.key.ExchangeID),
			zap.Uint64("partition_id", c.key.PartitionIndex),
			zap.String("type", "local"),
			zap.Time("event_time", time.Now()),
			zap.Int64("send_time_ms", time.Duration(c.sender.sendTime.Load()).Milliseconds()),
			zap.Int64("send_rows", c.sender.rows.Load()),
			zap.Int64("send_uncompressed_bytes", c.sender.bytes.Load()),
			zap.Int32("finish_code", c.sender.finishCode.Load()),
			zap.Bool("is_modifier", c.sender.isModifier.Load()),
			zap.String("message", message),
			zap.Int64("recv_time_ms", time.Duration(c.receiver.recvTime.Load()).Milliseconds()),
			zap.Int64("register_time_ms", time.Duration(c.receiver.registerTime.Load()).Milliseconds()),
			zap.Int64("recv_bytes", c.receiver.bytes.Load()),
		)
		if c.metrics != nil {
			c.metrics.IncExchangeLog()
		}
	})
	return nil
}
