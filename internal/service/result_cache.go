package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"payroll-report-aggregator/internal/redisx"
)

// resultCacheTTL bounds how long a validation outcome suppresses
// reprocessing. Stream delivery is at-least-once, so the same
// sync-completed event can arrive more than once in quick succession.
const resultCacheTTL = 10 * time.Minute

// ResultCache keeps the most recent validation outcome per payroll account in
// Redis. It is a dedup guard, not a source of truth: a miss just means the
// account gets processed again.
type ResultCache struct {
	kv     redisx.KVStore
	logger *zap.Logger
}

func NewResultCache(kv redisx.KVStore, logger *zap.Logger) *ResultCache {
	return &ResultCache{
		kv:     kv,
		logger: logger,
	}
}

func resultCacheKey(flowID int64, accountID string) string {
	return fmt.Sprintf("payroll:report:result:%d:%s", flowID, accountID)
}

// Put stores the validation outcome for one account.
func (c *ResultCache) Put(ctx context.Context, flowID int64, accountID string, result ValidationResult) error {
	key := resultCacheKey(flowID, accountID)

	jsonData, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal validation result: %w", err)
	}

	if err := c.kv.Set(ctx, key, string(jsonData), resultCacheTTL); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}

	c.logger.Debug("Cached validation result",
		zap.String("account_id", accountID),
		zap.String("key", key),
	)

	return nil
}

// Get returns the cached outcome, or redisx.ErrCacheMiss when absent or
// expired.
func (c *ResultCache) Get(ctx context.Context, flowID int64, accountID string) (ValidationResult, error) {
	var result ValidationResult

	raw, err := c.kv.Get(ctx, resultCacheKey(flowID, accountID))
	if err != nil {
		return result, err
	}
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		return result, fmt.Errorf("failed to unmarshal cached result: %w", err)
	}
	return result, nil
}
