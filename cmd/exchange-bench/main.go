package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/veloradb/exchange/internal/chunk"
	"github.com/veloradb/exchange/internal/exchange"
	"github.com/veloradb/exchange/internal/infrastructure/config"
	"github.com/veloradb/exchange/internal/infrastructure/logging"
	"github.com/veloradb/exchange/internal/infrastructure/monitoring"
	"github.com/veloradb/exchange/internal/memory"
	"github.com/veloradb/exchange/internal/transport"
)

func main() {
	dev := flag.Bool("dev", false, "Development mode (colored logs, debug level)")
	chunks := flag.Int("chunks", 0, "Number of chunks to push (overrides BENCH_CHUNKS)")
	chunkBytes := flag.Int("chunk-bytes", 0, "Chunk payload size in bytes (overrides BENCH_CHUNK_BYTES)")
	rateLimit := flag.Int("rate", -1, "Producer rate in chunks/sec, 0 = unlimited (overrides BENCH_RATE)")
	opsAddr := flag.String("ops", "", "Ops HTTP address (overrides OPS_ADDR)")
	flag.Parse()

	cfg := config.LoadOrDefault()
	if *chunks > 0 {
		cfg.Bench.Chunks = *chunks
	}
	if *chunkBytes > 0 {
		cfg.Bench.ChunkBytes = *chunkBytes
	}
	if *rateLimit >= 0 {
		cfg.Bench.Rate = *rateLimit
	}
	if *opsAddr != "" {
		cfg.Ops.Addr = *opsAddr
	}
	if *dev {
		cfg.Logging.Level = "debug"
		cfg.Logging.Development = true
	}

	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
	})
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	metrics := monitoring.NewMetrics()
	tracker := memory.NewTracker()
	registry := exchange.NewRegistry()

	key := exchange.Key{QueryID: uuid.NewString(), ExchangeID: 1, PartitionIndex: 0}
	channel := exchange.New(exchange.Config{
		Name: "bench_" + key.String(),
		Key:  key,
		Options: exchange.Options{
			MaxWait:       cfg.Exchange.MaxWait,
			EnableMetrics: cfg.Exchange.EnableMetrics,
		},
		Queue:    transport.NewQueue(cfg.Exchange.QueueCapacity),
		Bridge:   tracker,
		Registry: registry,
		Logger:   logger,
		Metrics:  metrics,
	})

	if cfg.Ops.Enabled {
		go serveOps(cfg.Ops.Addr, channel, logger)
	}

	logger.Info("starting exchange bench",
		zap.String("key", key.String()),
		zap.Int("chunks", cfg.Bench.Chunks),
		zap.Int("chunk_bytes", cfg.Bench.ChunkBytes),
		zap.Int("queue_capacity", cfg.Exchange.QueueCapacity),
		zap.Int("rate", cfg.Bench.Rate),
	)

	g, ctx := errgroup.WithContext(context.Background())
	g.Go(func() error { return runProducer(ctx, cfg, registry, key) })
	g.Go(func() error { return runConsumer(cfg, channel, logger) })

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() { errChan <- g.Wait() }()

	select {
	case <-sigChan:
		logger.Warn("interrupted, hard-closing channel")
		channel.Finish(exchange.RecvCancelled, "interrupted by signal")
		<-errChan
	case err := <-errChan:
		if err != nil {
			logger.Error("bench failed", zap.Error(err))
		}
	}

	stats := channel.Stats()
	logger.Info("bench finished",
		zap.Int64("send_rows", stats.SendRows),
		zap.Int64("send_bytes", stats.SendBytes),
		zap.Int64("recv_bytes", stats.RecvBytes),
		zap.Duration("send_time", stats.SendTime),
		zap.Duration("recv_time", stats.RecvTime),
		zap.String("final_code", stats.Code.String()),
		zap.Int64("thread_balance", tracker.ThreadBytes()),
		zap.Int64("global_balance", tracker.GlobalBytes()),
	)
	if err := channel.Close(); err != nil {
		logger.Error("channel close failed", zap.Error(err))
	}
}

// runProducer attaches to the sender registry, waits for the consumer's
// channel to bind, then pushes the configured number of chunks.
func runProducer(ctx context.Context, cfg *config.Config, registry *exchange.Registry, key exchange.Key) error {
	proxy := registry.GetOrCreate(key)
	proxy.Accept()
	sender, err := proxy.WaitRealSender(cfg.Exchange.RegisterWait)
	if err != nil {
		return fmt.Errorf("producer attach: %w", err)
	}

	var limiter *rate.Limiter
	if cfg.Bench.Rate > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Bench.Rate), cfg.Bench.Rate)
	}

	for i := 0; i < cfg.Bench.Chunks; i++ {
		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
		}
		ck := chunk.New([][]byte{make([]byte, cfg.Bench.ChunkBytes)}, cfg.Bench.ChunkRows)
		if st := sender.Send(ck); st.Code.Terminal() {
			return fmt.Errorf("send stopped by status %s: %s", st.Code, st.Message)
		}
	}
	sender.Finish(exchange.AllSendersDone, "all senders done")
	return nil
}

// runConsumer registers the channel as the real sender behind its proxy
// and drains chunks until a terminal status arrives.
func runConsumer(cfg *config.Config, channel *exchange.Channel, logger *logging.Logger) error {
	if err := channel.RegisterToSenders(cfg.Exchange.RegisterWait); err != nil {
		return fmt.Errorf("consumer register: %w", err)
	}

	var received int
	for {
		ck, st := channel.Recv(time.Now().Add(cfg.Exchange.MaxWait))
		if ck == nil {
			if st.Code != exchange.AllSendersDone {
				return fmt.Errorf("stream ended with status %s: %s", st.Code, st.Message)
			}
			logger.Info("stream drained", zap.Int("chunks", received))
			return nil
		}
		received++
	}
}

// serveOps exposes Prometheus metrics and a channel snapshot.
func serveOps(addr string, channel *exchange.Channel, logger *logging.Logger) {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/stats", func(c *gin.Context) {
		c.JSON(200, channel.Stats())
	})
	if err := router.Run(addr); err != nil {
		logger.Error("ops server failed", zap.Error(err))
	}
}
