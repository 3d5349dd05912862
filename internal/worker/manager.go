package worker

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"snaps_engagement/internal/logger"
	"snaps_engagement/internal/queue"
)

const (
	// DefaultWorkerCount is the default number of worker goroutines
	DefaultWorkerCount = 2

	// DefaultBatchSize is the number of messages to read per batch
	DefaultBatchSize = 10

	// DefaultBlockTimeout is how long to block waiting for new messages
	DefaultBlockTimeout = 5 * time.Second

	readErrorBackoff = time.Second
)

// EventHandler processes one engagement event.
type EventHandler interface {
	HandleEvent(ctx context.Context, event queue.EngagementEvent) error
}

// Manager orchestrates worker goroutines that consume from Redis Streams.
type Manager struct {
	consumer    queue.Consumer
	handler     EventHandler
	stream      string
	group       string
	workerCount int
	batchSize   int64
	blockTime   time.Duration
	hostname    string

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// ManagerConfig holds configuration for the worker manager.
type ManagerConfig struct {
	WorkerCount  int           // Number of worker goroutines
	BatchSize    int64         // Messages per read
	BlockTimeout time.Duration // Block time for XREADGROUP
}

// DefaultManagerConfig returns sensible defaults.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		WorkerCount:  DefaultWorkerCount,
		BatchSize:    DefaultBatchSize,
		BlockTimeout: DefaultBlockTimeout,
	}
}

// NewManager creates a worker manager for the engagement stream.
func NewManager(consumer queue.Consumer, handler EventHandler, cfg ManagerConfig) *Manager {
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = DefaultWorkerCount
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BlockTimeout <= 0 {
		cfg.BlockTimeout = DefaultBlockTimeout
	}

	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "local"
	}

	return &Manager{
		consumer:    consumer,
		handler:     handler,
		stream:      queue.StreamEngagement,
		group:       queue.ConsumerGroupNotifications,
		workerCount: cfg.WorkerCount,
		batchSize:   cfg.BatchSize,
		blockTime:   cfg.BlockTimeout,
		hostname:    hostname,
	}
}

// Start ensures the consumer group exists and launches the workers.
// Call Stop to shut them down.
func (m *Manager) Start(ctx context.Context) error {
	m.ctx, m.cancel = context.WithCancel(ctx)

	if err := m.consumer.EnsureGroup(m.ctx, m.stream, m.group); err != nil {
		m.cancel()
		return err
	}

	for i := 1; i <= m.workerCount; i++ {
		m.wg.Add(1)
		go m.runWorker(i, m.consumerName(i))
	}

	log := logger.L()
	log.Info().
		Str(logger.FieldStream, m.stream).
		Str(logger.FieldGroup, m.group).
		Int("workers", m.workerCount).
		Msg("workers started")
	return nil
}

// Stop cancels the workers and blocks until all of them have returned.
func (m *Manager) Stop() {
	if m.cancel == nil {
		return
	}
	m.cancel()
	m.wg.Wait()

	log := logger.L()
	log.Info().Msg("workers stopped")
}

func (m *Manager) runWorker(workerID int, consumerName string) {
	defer m.wg.Done()

	log := logger.L().With().
		Int(logger.FieldWorkerID, workerID).
		Str(logger.FieldConsumer, consumerName).
		Logger()
	ctx := logger.WithLogger(m.ctx, log)

	log.Debug().Msg("worker started")

	// Messages left unacknowledged by a previous run come first.
	m.processPending(ctx, consumerName)

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("worker shutting down")
			return
		default:
			m.processMessages(ctx, consumerName)
		}
	}
}

func (m *Manager) processPending(ctx context.Context, consumerName string) {
	log := logger.Ctx(ctx)
	for {
		messages, err := m.consumer.ReadPending(ctx, m.stream, m.group, consumerName, m.batchSize)
		if err != nil {
			if ctx.Err() == nil {
				log.Error().Err(err).Msg("read pending failed")
			}
			return
		}
		if len(messages) == 0 {
			return
		}

		log.Info().Int("count", len(messages)).Msg("recovering pending messages")
		m.handleMessages(ctx, messages)
	}
}

func (m *Manager) processMessages(ctx context.Context, consumerName string) {
	messages, err := m.consumer.Read(ctx, m.stream, m.group, consumerName, m.batchSize, m.blockTime)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		log := logger.Ctx(ctx)
		log.Error().Err(err).Msg("read failed")

		select {
		case <-ctx.Done():
		case <-time.After(readErrorBackoff):
		}
		return
	}

	m.handleMessages(ctx, messages)
}

// handleMessages processes a batch and acknowledges every message. Handler
// failures are logged and acked too: notifications are best effort and a
// poison message must not block the group.
func (m *Manager) handleMessages(ctx context.Context, messages []queue.Message) {
	log := logger.Ctx(ctx)
	for _, msg := range messages {
		if err := m.handler.HandleEvent(ctx, msg.Event); err != nil {
			log.Error().Err(err).
				Str(logger.FieldMessageID, msg.ID).
				Str(logger.FieldEventType, msg.Event.Type).
				Msg("handler failed")
		}

		// Ack with a context that survives shutdown so a handled message is not redelivered.
		ackCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		if err := m.consumer.Ack(ackCtx, m.stream, m.group, msg.ID); err != nil {
			log.Error().Err(err).Str(logger.FieldMessageID, msg.ID).Msg("ack failed")
		}
		cancel()
	}
}

// consumerName is unique per process and worker so restarts reclaim their own pending list.
func (m *Manager) consumerName(workerID int) string {
	return fmt.Sprintf("%s-worker-%d", m.hostname, workerID)
}
