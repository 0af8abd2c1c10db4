// Package observability provides the fire-and-forget event sink used for
// validation and data-quality telemetry.
package observability

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Event names recorded by the report pipeline.
const (
	EventReportAttemptedUsefulRequirements = "ApplicantReportAttemptedUsefulRequirements"
	EventReportFailedUsefulRequirements    = "ApplicantReportFailedUsefulRequirements"
	EventDataUnexpectedHours               = "AggregatorDataUnexpectedHours"
)

// EventRecorder records a named event with free-form attributes.
// Implementations are best-effort: RecordEvent must never fail into the
// caller, so recording problems are logged and swallowed.
type EventRecorder interface {
	RecordEvent(ctx context.Context, name string, attributes map[string]any)
}

// StreamRecorder publishes events onto a Redis Stream for downstream
// consumers (analytics, alerting).
type StreamRecorder struct {
	client *redis.Client
	stream string
	logger *zap.Logger
}

// NewStreamRecorder creates a stream-backed event recorder.
func NewStreamRecorder(client *redis.Client, stream string, logger *zap.Logger) *StreamRecorder {
	return &StreamRecorder{
		client: client,
		stream: stream,
		logger: logger,
	}
}

func (r *StreamRecorder) RecordEvent(ctx context.Context, name string, attributes map[string]any) {
	payload, err := json.Marshal(attributes)
	if err != nil {
		r.logger.Error("Failed to marshal event attributes",
			zap.String("event", name),
			zap.Error(err),
		)
		return
	}

	err = r.client.XAdd(ctx, &redis.XAddArgs{
		Stream: r.stream,
		Values: map[string]any{
			"event_id":   uuid.NewString(),
			"event":      name,
			"attributes": string(payload),
			"timestamp":  time.Now().Unix(),
		},
	}).Err()
	if err != nil {
		r.logger.Error("Failed to record event",
			zap.String("event", name),
			zap.Error(err),
		)
	}
}

// LogRecorder writes events to the service log. Used when no stream is
// configured.
type LogRecorder struct {
	logger *zap.Logger
}

func NewLogRecorder(logger *zap.Logger) *LogRecorder {
	return &LogRecorder{logger: logger}
}

func (r *LogRecorder) RecordEvent(ctx context.Context, name string, attributes map[string]any) {
	r.logger.Info("Event recorded",
		zap.String("event", name),
		zap.Any("attributes", attributes),
	)
}

// NopRecorder discards all events.
type NopRecorder struct{}

func (NopRecorder) RecordEvent(ctx context.Context, name string, attributes map[string]any) {}
