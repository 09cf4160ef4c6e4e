package analytics

import (
	"context"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/wosp/pkg/kafka"
	"github.com/Adithya-Monish-Kumar-K/wosp/pkg/metrics"
)

// Publisher ships batches of events; *kafka.Producer implements it.
type Publisher interface {
	PublishBatch(ctx context.Context, events []kafka.Event) error
}

// Sink receives every tracked event in-process, before batching.
type Sink interface {
	Record(QueryEvent)
}

// CollectorConfig sizes the buffer and the batches.
type CollectorConfig struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
}

// Collector buffers query events and publishes them in batches, when a
// batch fills up or the flush interval passes. Tracking never blocks: when
// the buffer is full the event is dropped and counted.
type Collector struct {
	publisher Publisher
	sinks     []Sink
	cfg       CollectorConfig
	eventCh   chan QueryEvent
	metrics   *metrics.Metrics
	logger    *slog.Logger
	done      chan struct{}
}

// NewCollector creates a collector. publisher may be nil, in which case
// events only reach the sinks. m may be nil.
func NewCollector(publisher Publisher, cfg CollectorConfig, m *metrics.Metrics, sinks ...Sink) *Collector {
	if cfg.BufferSize <= 0 {
		cfg.BufferSize = 10000
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 2 * time.Second
	}
	return &Collector{
		publisher: publisher,
		sinks:     sinks,
		cfg:       cfg,
		eventCh:   make(chan QueryEvent, cfg.BufferSize),
		metrics:   m,
		logger:    slog.Default().With("component", "analytics-collector"),
		done:      make(chan struct{}),
	}
}

// Start launches the background publishing loop. Close stops it after the
// remaining events have been flushed.
func (c *Collector) Start(ctx context.Context) {
	go c.run(ctx)
	c.logger.Info("analytics collector started",
		"buffer_size", c.cfg.BufferSize,
		"batch_size", c.cfg.BatchSize,
		"flush_interval", c.cfg.FlushInterval,
	)
}

func (c *Collector) run(ctx context.Context) {
	defer close(c.done)
	ticker := time.NewTicker(c.cfg.FlushInterval)
	defer ticker.Stop()
	batch := make([]kafka.Event, 0, c.cfg.BatchSize)
	for {
		select {
		case ev, ok := <-c.eventCh:
			if !ok {
				c.flush(context.Background(), batch)
				return
			}
			batch = append(batch, kafka.Event{Key: ev.Query, Type: string(ev.Type), Value: ev})
			if len(batch) >= c.cfg.BatchSize {
				c.flush(ctx, batch)
				batch = make([]kafka.Event, 0, c.cfg.BatchSize)
			}
		case <-ticker.C:
			c.flush(ctx, batch)
			batch = make([]kafka.Event, 0, c.cfg.BatchSize)
		case <-ctx.Done():
			batch = c.drain(batch)
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			c.flush(flushCtx, batch)
			cancel()
			return
		}
	}
}

func (c *Collector) drain(batch []kafka.Event) []kafka.Event {
	for {
		select {
		case ev, ok := <-c.eventCh:
			if !ok {
				return batch
			}
			batch = append(batch, kafka.Event{Key: ev.Query, Type: string(ev.Type), Value: ev})
		default:
			return batch
		}
	}
}

func (c *Collector) flush(ctx context.Context, batch []kafka.Event) {
	if len(batch) == 0 || c.publisher == nil {
		return
	}
	status := "published"
	if err := c.publisher.PublishBatch(ctx, batch); err != nil {
		status = "failed"
		c.logger.Error("batch flush failed", "batch_size", len(batch), "error", err)
	} else {
		c.logger.Debug("batch flushed", "events", len(batch))
	}
	if c.metrics != nil {
		c.metrics.EventsPublished.WithLabelValues(status).Add(float64(len(batch)))
	}
}

// Track hands ev to the sinks and queues it for publishing.
func (c *Collector) Track(ev QueryEvent) {
	if ev.Type == "" {
		ev.Type = EventQuery
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	for _, s := range c.sinks {
		s.Record(ev)
	}
	if c.publisher == nil {
		return
	}
	select {
	case c.eventCh <- ev:
	default:
		c.logger.Warn("analytics event dropped (buffer full)")
		if c.metrics != nil {
			c.metrics.EventsPublished.WithLabelValues("dropped").Inc()
		}
	}
}

// Close stops accepting events, flushes what is buffered and waits for the
// loop to exit. Start must have been called.
func (c *Collector) Close() {
	close(c.eventCh)
	<-c.done
}
