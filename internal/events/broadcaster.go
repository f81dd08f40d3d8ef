// Package events publishes job lifecycle notifications over NSQ. Publishing
// is fire-and-forget: failures are logged and never affect job state, which
// is always persisted before the matching event goes out.
package events

import (
	"context"
	"encoding/json"
	"log/slog"

	"docgarden/internal/config"
	"docgarden/internal/middleware"
)

type Publisher interface {
	Publish(topic string, body []byte) error
}

type Broadcaster struct {
	pub Publisher
}

func NewBroadcaster(pub Publisher) *Broadcaster {
	return &Broadcaster{pub: pub}
}

func (b *Broadcaster) JobCreated(ctx context.Context, jobID, url string) {
	b.publish(ctx, config.TopicJobCreated, map[string]interface{}{
		"job_id": jobID,
		"url":    url,
	})
}

func (b *Broadcaster) JobStatus(ctx context.Context, jobID, status string, progress int) {
	b.publish(ctx, config.TopicJobStatus, map[string]interface{}{
		"job_id":   jobID,
		"status":   status,
		"progress": progress,
	})
}

func (b *Broadcaster) JobCompleted(ctx context.Context, jobID, documentID string) {
	b.publish(ctx, config.TopicJobCompleted, map[string]interface{}{
		"job_id":      jobID,
		"document_id": documentID,
	})
}

func (b *Broadcaster) JobFailed(ctx context.Context, jobID, reason string) {
	b.publish(ctx, config.TopicJobFailed, map[string]interface{}{
		"job_id": jobID,
		"reason": reason,
	})
}

func (b *Broadcaster) JobCancelled(ctx context.Context, jobID string) {
	b.publish(ctx, config.TopicJobCancelled, map[string]interface{}{
		"job_id": jobID,
	})
}

func (b *Broadcaster) publish(ctx context.Context, topic string, fields map[string]interface{}) {
	fields["correlation_id"] = middleware.GetCorrelationID(ctx)
	payload, err := json.Marshal(fields)
	if err != nil {
		slog.ErrorContext(ctx, "failed to marshal event", "topic", topic, "error", err)
		return
	}
	if err := b.pub.Publish(topic, payload); err != nil {
		slog.ErrorContext(ctx, "failed to publish event", "topic", topic, "error", err)
	}
}
