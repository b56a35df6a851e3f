// Package feed consumes edge events from Kafka and applies them to the graph.
//
// Each message value is a JSON object {"from", "to", "cost", "type"}. Messages of
// one partition are applied in offset order; partitions are consumed concurrently.
package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/Shopify/sarama"

	"github.com/vanshika/routegraph/internal/config"
	"github.com/vanshika/routegraph/internal/engine"
	"github.com/vanshika/routegraph/internal/logging"
	"github.com/vanshika/routegraph/internal/service"
)

// ErrMalformedEvent is returned when a message value is not a valid edge event.
var ErrMalformedEvent = errors.New("malformed edge event")

// Sink receives decoded edge events. *service.RouteService satisfies it.
type Sink interface {
	AddEdge(ctx context.Context, input service.EdgeInput) (engine.Edge, error)
}

type edgeEvent struct {
	From string   `json:"from"`
	To   string   `json:"to"`
	Cost *float64 `json:"cost"`
	Type string   `json:"type"`
}

// Consumer reads every partition of one topic and forwards each event to a Sink.
type Consumer struct {
	consumer  sarama.Consumer
	topic     string
	offset    int64
	sink      Sink
	logger    *slog.Logger
	processed atomic.Int64
}

// Option customises a Consumer.
type Option func(*Consumer)

// WithOffset sets the offset each partition starts from. Defaults to sarama.OffsetOldest.
func WithOffset(offset int64) Option {
	return func(c *Consumer) {
		c.offset = offset
	}
}

// WithLogger sets the consumer's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Consumer) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewSaramaConfig builds the Kafka client configuration for a feed.
func NewSaramaConfig(cfg config.FeedConfig) (*sarama.Config, error) {
	sc := sarama.NewConfig()

	version, err := sarama.ParseKafkaVersion(cfg.KafkaVersion)
	if err != nil {
		return nil, fmt.Errorf("parse kafka version: %w", err)
	}
	sc.Version = version
	sc.ClientID = cfg.ClientID
	sc.Consumer.Return.Errors = true
	return sc, nil
}

// Dial connects a sarama consumer to the configured brokers. The caller closes it
// after Run returns.
func Dial(cfg config.FeedConfig) (sarama.Consumer, error) {
	if !cfg.Enabled() {
		return nil, errors.New("feed brokers are not configured")
	}
	sc, err := NewSaramaConfig(cfg)
	if err != nil {
		return nil, err
	}
	consumer, err := sarama.NewConsumer(cfg.Brokers, sc)
	if err != nil {
		return nil, fmt.Errorf("connect kafka consumer: %w", err)
	}
	return consumer, nil
}

// NewConsumer wraps an existing sarama consumer.
func NewConsumer(consumer sarama.Consumer, topic string, sink Sink, opts ...Option) *Consumer {
	c := &Consumer{
		consumer: consumer,
		topic:    topic,
		offset:   sarama.OffsetOldest,
		sink:     sink,
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "feed", "topic", topic)
	return c
}

// Processed returns how many events have been applied so far.
func (c *Consumer) Processed() int64 {
	return c.processed.Load()
}

// Run consumes until ctx is cancelled or an event fails. Cancellation is a clean stop
// and returns nil; a malformed or rejected event stops every partition and is returned.
func (c *Consumer) Run(ctx context.Context) error {
	partitions, err := c.consumer.Partitions(c.topic)
	if err != nil {
		return fmt.Errorf("list partitions of %s: %w", c.topic, err)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	for _, partition := range partitions {
		pc, err := c.consumer.ConsumePartition(c.topic, partition, c.offset)
		if err != nil {
			fail(fmt.Errorf("consume partition %d: %w", partition, err))
			break
		}

		wg.Add(1)
		go func(partition int32, pc sarama.PartitionConsumer) {
			defer wg.Done()
			defer pc.Close()
			if err := c.consumePartition(ctx, partition, pc); err != nil {
				fail(err)
			}
		}(partition, pc)
	}

	c.logger.Info("edge feed started", "partitions", len(partitions))
	wg.Wait()

	if firstErr != nil {
		c.logger.Error("edge feed stopped", "error", firstErr, "processed", c.Processed())
		return firstErr
	}
	c.logger.Info("edge feed stopped", "processed", c.Processed())
	return nil
}

func (c *Consumer) consumePartition(ctx context.Context, partition int32, pc sarama.PartitionConsumer) error {
	errs := pc.Errors()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-pc.Messages():
			if !ok {
				return nil
			}
			if err := c.apply(ctx, msg); err != nil {
				return fmt.Errorf("partition %d offset %d: %w", partition, msg.Offset, err)
			}
		case cerr, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			return fmt.Errorf("partition %d: %w", partition, cerr)
		}
	}
}

func (c *Consumer) apply(ctx context.Context, msg *sarama.ConsumerMessage) error {
	ev, err := decodeEvent(msg.Value)
	if err != nil {
		return err
	}

	edge, err := c.sink.AddEdge(ctx, service.EdgeInput{From: ev.From, To: ev.To, Cost: *ev.Cost, Type: ev.Type})
	if err != nil {
		return err
	}
	c.processed.Add(1)
	c.logger.Debug("edge event applied", "partition", msg.Partition, "offset", msg.Offset, "edge_id", edge.ID)
	return nil
}

func decodeEvent(value []byte) (edgeEvent, error) {
	var ev edgeEvent
	if err := json.Unmarshal(value, &ev); err != nil {
		return edgeEvent{}, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if ev.From == "" || ev.To == "" {
		return edgeEvent{}, fmt.Errorf("%w: from and to are required", ErrMalformedEvent)
	}
	if ev.Cost == nil {
		return edgeEvent{}, fmt.Errorf("%w: cost is required", ErrMalformedEvent)
	}
	return ev, nil
}
