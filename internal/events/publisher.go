// Package events publishes committed feedback events to Kafka for
// downstream consumers (analytics pipelines, model trainers). Publishing is
// best effort; the review path never fails on a broker outage.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"lookout/internal/logging"
	"lookout/internal/models"
)

const feedbackTopic = "content_feedback"

// Publisher writes feedback events to the content_feedback topic, keyed by
// suggestion id so every decision about one suggestion lands in order on
// the same partition.
type Publisher struct {
	client *kgo.Client
	logger logging.Logger
}

func NewPublisher(brokers []string, logger logging.Logger) (*Publisher, error) {
	opts := []kgo.Opt{
		kgo.SeedBrokers(brokers...),
		kgo.ClientID("lookout"),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
		kgo.ProducerLinger(10 * time.Millisecond),
		kgo.ProducerBatchMaxBytes(1000000),
	}

	client, err := kgo.NewClient(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka client: %w", err)
	}

	return &Publisher{client: client, logger: logger}, nil
}

// PublishFeedback emits one committed feedback event.
func (p *Publisher) PublishFeedback(ctx context.Context, event models.FeedbackEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal feedback event: %w", err)
	}

	record := &kgo.Record{
		Topic: feedbackTopic,
		Key:   []byte(event.SuggestionID),
		Value: value,
		Headers: []kgo.RecordHeader{
			{Key: "tenant_id", Value: []byte(event.TenantID)},
			{Key: "feedback_type", Value: []byte(event.FeedbackType)},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result := p.client.ProduceSync(ctx, record)
	if err := result.FirstErr(); err != nil {
		return fmt.Errorf("failed to produce feedback event: %w", err)
	}
	return nil
}

// Client returns the underlying kgo.Client for health checks.
func (p *Publisher) Client() *kgo.Client {
	return p.client
}

func (p *Publisher) Close() {
	p.client.Close()
}
