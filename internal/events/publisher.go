package events

import (
	"context"
	"encoding/json"
	"fmt"

	wbfkafka "github.com/wb-go/wbf/kafka"
	"github.com/wb-go/wbf/retry"

	"github.com/aliskhannn/image-batch/internal/config"
	"github.com/aliskhannn/image-batch/internal/model"
)

// sender is the subset of the Kafka producer used by the Publisher.
type sender interface {
	SendWithRetry(ctx context.Context, strategy retry.Strategy, key, value []byte) error
}

// Publisher sends per-pair batch results to a Kafka topic.
type Publisher struct {
	client   sender
	strategy retry.Strategy
	closer   func() error
}

// New creates a Publisher writing to cfg.Topic on cfg.Brokers.
func New(cfg *config.Events, s retry.Strategy) *Publisher {
	producer := wbfkafka.NewProducer(cfg.Brokers, cfg.Topic)

	return &Publisher{
		client:   producer,
		strategy: s,
		closer:   producer.Close,
	}
}

// Publish serializes res to JSON and sends it. The run ID is used as the
// message key so all results of one batch land on the same partition in order.
func (p *Publisher) Publish(ctx context.Context, res model.PairResult) error {
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	key := []byte(res.RunID.String())

	if err := p.client.SendWithRetry(ctx, p.strategy, key, data); err != nil {
		return fmt.Errorf("failed to send result: %w", err)
	}

	return nil
}

// Close closes the underlying producer.
func (p *Publisher) Close() error {
	if p.closer == nil {
		return nil
	}

	return p.closer()
}
