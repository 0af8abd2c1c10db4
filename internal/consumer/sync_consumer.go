package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"payroll-report-aggregator/internal/models"
	"payroll-report-aggregator/internal/redisx"
	"payroll-report-aggregator/internal/repository"
)

// AccountProcessor handles one payroll account whose aggregator sync has
// completed. Implemented by the verification service.
type AccountProcessor interface {
	ProcessAccount(ctx context.Context, account models.PayrollAccount) error
}

// SyncEvent is published by the webhook/ingest side when an aggregator
// finishes synchronizing a payroll account.
type SyncEvent struct {
	EventType           string `json:"event_type"`
	AggregatorAccountID string `json:"aggregator_account_id"`
	Aggregator          string `json:"aggregator"`
	FlowID              int64  `json:"flow_id"`
	Timestamp           int64  `json:"timestamp"`
}

// SyncEventConsumer consumes sync-completed events from a Redis Stream and
// triggers report assembly and validation for each account.
type SyncEventConsumer struct {
	redisClient  *redis.Client
	processor    AccountProcessor
	accountRepo  *repository.PayrollAccountRepository
	logger       *zap.Logger
	stream       string
	groupName    string
	consumerName string
	batchSize    int64
}

// NewSyncEventConsumer creates a sync event consumer.
func NewSyncEventConsumer(
	redisClient *redis.Client,
	processor AccountProcessor,
	accountRepo *repository.PayrollAccountRepository,
	logger *zap.Logger,
	stream string,
	groupName string,
	consumerName string,
	batchSize int64,
) *SyncEventConsumer {
	return &SyncEventConsumer{
		redisClient:  redisClient,
		processor:    processor,
		accountRepo:  accountRepo,
		logger:       logger,
		stream:       stream,
		groupName:    groupName,
		consumerName: consumerName,
		batchSize:    batchSize,
	}
}

// Start consumes events until the context is cancelled, backing off
// exponentially on read failures.
func (c *SyncEventConsumer) Start(ctx context.Context) error {
	if err := redisx.CreateConsumerGroup(ctx, c.redisClient, c.stream, c.groupName); err != nil {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	c.logger.Info("Sync event consumer started",
		zap.String("stream", c.stream),
		zap.String("consumer_group", c.groupName),
		zap.String("consumer_name", c.consumerName),
	)

	backoffDuration := time.Second
	maxBackoff := 30 * time.Second

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			if err := c.consumeEvents(ctx); err != nil {
				c.logger.Error("Failed to consume sync events",
					zap.Error(err),
					zap.Duration("backoff", backoffDuration),
				)
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(backoffDuration):
					backoffDuration *= 2
					if backoffDuration > maxBackoff {
						backoffDuration = maxBackoff
					}
				}
			} else {
				backoffDuration = time.Second
			}
		}
	}
}

func (c *SyncEventConsumer) consumeEvents(ctx context.Context) error {
	messages, err := redisx.ReadFromStream(
		ctx,
		c.redisClient,
		c.stream,
		c.groupName,
		c.consumerName,
		c.batchSize,
	)
	if err != nil {
		return err
	}

	for _, msg := range messages {
		if err := c.handleMessage(ctx, msg); err != nil {
			// A bad message is logged and acked; it would fail the same way
			// on redelivery.
			c.logger.Error("Failed to handle sync event",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
		}
		if err := redisx.Ack(ctx, c.redisClient, c.stream, c.groupName, msg.ID); err != nil {
			c.logger.Error("Failed to ack sync event",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
		}
	}

	return nil
}

func (c *SyncEventConsumer) handleMessage(ctx context.Context, msg redisx.StreamMessage) error {
	data, ok := msg.Values["data"].(string)
	if !ok {
		return fmt.Errorf("sync event missing data field")
	}

	var event SyncEvent
	if err := json.Unmarshal([]byte(data), &event); err != nil {
		return fmt.Errorf("failed to unmarshal sync event: %w", err)
	}
	if event.EventType != "sync.completed" {
		c.logger.Debug("Ignoring sync event",
			zap.String("event_type", event.EventType),
		)
		return nil
	}

	account, err := c.accountRepo.GetByAggregatorAccountID(event.AggregatorAccountID)
	if err != nil {
		return err
	}

	return c.processor.ProcessAccount(ctx, *account)
}
