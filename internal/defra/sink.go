package defra

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// WriteOp is one queued document create.
type WriteOp struct {
	Collection string
	Document   map[string]any
}

// SinkConfig configures a Sink.
type SinkConfig struct {
	Client        *Client
	BatchSize     int           // Flush after N ops (default: 50)
	FlushInterval time.Duration // Or after this long (default: 2s)
	QueueSize     int           // Buffered ops (default: 500)
	Logger        *slog.Logger
}

// Sink queues creates and applies them in batches, in submission order, from
// a single goroutine. Failed writes are logged, not returned.
type Sink struct {
	client *Client
	logger *slog.Logger

	batchSize     int
	flushInterval time.Duration

	queue    chan WriteOp
	flushReq chan chan struct{}

	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewSink creates a sink. Call Start before sending.
func NewSink(cfg SinkConfig) *Sink {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 2 * time.Second
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 500
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Sink{
		client:        cfg.Client,
		logger:        cfg.Logger,
		batchSize:     cfg.BatchSize,
		flushInterval: cfg.FlushInterval,
		queue:         make(chan WriteOp, cfg.QueueSize),
		flushReq:      make(chan chan struct{}),
	}
}

// Start launches the batching goroutine.
func (s *Sink) Start(ctx context.Context) {
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.run()
}

// Stop applies everything still queued and shuts the sink down.
func (s *Sink) Stop() {
	s.stopOnce.Do(func() {
		close(s.queue)
		s.wg.Wait()
		s.cancel()
		s.logger.Debug("sink stopped")
	})
}

// Send queues a write without waiting for it. Writes sent after Stop are
// dropped with a warning.
func (s *Sink) Send(op WriteOp) {
	defer func() {
		if recover() != nil {
			s.logger.Warn("sink closed, dropping write", "collection", op.Collection)
		}
	}()

	select {
	case s.queue <- op:
	case <-s.ctx.Done():
		s.logger.Warn("sink closed, dropping write", "collection", op.Collection)
	}
}

// Flush applies every write queued before the call and waits until done.
func (s *Sink) Flush(ctx context.Context) error {
	done := make(chan struct{})
	select {
	case s.flushReq <- done:
	case <-s.ctx.Done():
		return ErrSinkClosed
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Sink) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	batch := make([]WriteOp, 0, s.batchSize)
	for {
		select {
		case op, ok := <-s.queue:
			if !ok {
				s.apply(batch)
				return
			}
			batch = append(batch, op)
			if len(batch) >= s.batchSize {
				s.apply(batch)
				batch = batch[:0]
			}

		case done := <-s.flushReq:
			batch = s.drain(batch)
			s.apply(batch)
			batch = batch[:0]
			close(done)

		case <-ticker.C:
			s.apply(batch)
			batch = batch[:0]
		}
	}
}

// drain moves everything currently buffered in the queue into batch.
func (s *Sink) drain(batch []WriteOp) []WriteOp {
	for {
		select {
		case op, ok := <-s.queue:
			if !ok {
				return batch
			}
			batch = append(batch, op)
		default:
			return batch
		}
	}
}

func (s *Sink) apply(batch []WriteOp) {
	if len(batch) == 0 {
		return
	}
	s.logger.Debug("flushing writes", "count", len(batch))

	for _, op := range batch {
		docID, err := s.client.Create(s.ctx, op.Collection, op.Document)
		if err != nil {
			s.logger.Error("write failed",
				"collection", op.Collection,
				"error", err)
			continue
		}
		s.logger.Debug("document created", "collection", op.Collection, "doc_id", docID)
	}
}
