// Package events publishes pipeline run lifecycle events to Kafka so
// downstream consumers (alerting, audit, BI) can follow retraining activity.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"triguard/internal/adapters/kafka"
	"triguard/internal/metrics"
	"triguard/pkg/errors"
	"triguard/pkg/logger"
)

// DefaultTopic is used when the run topic is not configured.
const DefaultTopic = "pipeline.runs"

// Run statuses
const (
	StatusStarted   = "started"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// RunEvent is the JSON payload for one pipeline run transition.
type RunEvent struct {
	RunID      string    `json:"run_id"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`

	// Populated on completion
	EnsembleF1 float64 `json:"ensemble_f1,omitempty"`
	Threshold  float64 `json:"threshold,omitempty"`
	TrainRows  int     `json:"train_rows,omitempty"`
	TestRows   int     `json:"test_rows,omitempty"`

	// Populated on failure
	Error string `json:"error,omitempty"`
}

// Publisher publishes run events to Kafka. A nil Publisher is a no-op so
// callers need no guards when messaging is disabled.
type Publisher struct {
	producer *kafka.Producer
	topic    string
	log      *logger.Logger
}

// NewPublisher creates a new event publisher
func NewPublisher(producer *kafka.Producer, topic string) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{
		producer: producer,
		topic:    topic,
		log:      logger.Get().With("component", "events"),
	}
}

// PublishRunStarted publishes a run started event
func (p *Publisher) PublishRunStarted(ctx context.Context, runID uuid.UUID) error {
	return p.publish(ctx, RunEvent{
		RunID:      runID.String(),
		Status:     StatusStarted,
		OccurredAt: time.Now().UTC(),
	})
}

// PublishRunCompleted publishes a run completed event with headline metrics
func (p *Publisher) PublishRunCompleted(ctx context.Context, runID uuid.UUID, f1, threshold float64, trainRows, testRows int) error {
	return p.publish(ctx, RunEvent{
		RunID:      runID.String(),
		Status:     StatusCompleted,
		OccurredAt: time.Now().UTC(),
		EnsembleF1: f1,
		Threshold:  threshold,
		TrainRows:  trainRows,
		TestRows:   testRows,
	})
}

// PublishRunFailed publishes a run failed event
func (p *Publisher) PublishRunFailed(ctx context.Context, runID uuid.UUID, runErr error) error {
	return p.publish(ctx, RunEvent{
		RunID:      runID.String(),
		Status:     StatusFailed,
		OccurredAt: time.Now().UTC(),
		Error:      runErr.Error(),
	})
}

func (p *Publisher) publish(ctx context.Context, event RunEvent) error {
	if p == nil || p.producer == nil {
		return nil
	}

	err := p.producer.Publish(ctx, p.topic, event.RunID, event)
	if err != nil {
		metrics.KafkaMessages.WithLabelValues(p.topic, "error").Inc()
		p.log.Errorf("Failed to publish %s event for run %s: %v",
			event.Status, event.RunID, err)
		return errors.Wrap(err, "send to kafka")
	}

	metrics.KafkaMessages.WithLabelValues(p.topic, "success").Inc()
	p.log.Debugf("Published %s event for run %s", event.Status, event.RunID)
	return nil
}
