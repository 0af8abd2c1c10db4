package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"payroll-report-aggregator/internal/models"
	"payroll-report-aggregator/internal/redisx"
	"payroll-report-aggregator/internal/service"
)

// fakeKVStore is an in-memory KVStore with TTL for unit tests.
type fakeKVStore struct {
	data map[string]fakeKVItem
}

type fakeKVItem struct {
	value   string
	expires time.Time // zero = no ttl
}

func newFakeKVStore() *fakeKVStore {
	return &fakeKVStore{
		data: make(map[string]fakeKVItem),
	}
}

func (f *fakeKVStore) Get(_ context.Context, key string) (string, error) {
	item, ok := f.data[key]
	if !ok {
		return "", redisx.ErrCacheMiss
	}
	if !item.expires.IsZero() && time.Now().After(item.expires) {
		delete(f.data, key)
		return "", redisx.ErrCacheMiss
	}
	return item.value, nil
}

func (f *fakeKVStore) Set(_ context.Context, key string, value string, ttl time.Duration) error {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	f.data[key] = fakeKVItem{value: value, expires: exp}
	return nil
}

func TestResultCache_RoundTrip(t *testing.T) {
	cache := service.NewResultCache(newFakeKVStore(), zap.NewNop())
	ctx := context.Background()

	employer := "Whole Foods"
	result := service.ValidationResult{
		AccountReport: models.AccountReport{
			AccountID: "acct-1",
			Employment: &models.Employment{
				AccountID:      "acct-1",
				EmployerName:   employer,
				EmploymentType: models.EmploymentTypeW2,
			},
		},
		Valid: true,
	}

	require.NoError(t, cache.Put(ctx, 42, "acct-1", result))

	got, err := cache.Get(ctx, 42, "acct-1")
	require.NoError(t, err)
	assert.True(t, got.Valid)
	require.NotNil(t, got.AccountReport.Employment)
	assert.Equal(t, employer, got.AccountReport.Employment.EmployerName)
}

func TestResultCache_Miss(t *testing.T) {
	cache := service.NewResultCache(newFakeKVStore(), zap.NewNop())

	_, err := cache.Get(context.Background(), 42, "acct-unknown")
	assert.Equal(t, redisx.ErrCacheMiss, err)
}

func TestResultCache_KeyedPerFlowAndAccount(t *testing.T) {
	cache := service.NewResultCache(newFakeKVStore(), zap.NewNop())
	ctx := context.Background()

	require.NoError(t, cache.Put(ctx, 42, "acct-1", service.ValidationResult{Valid: true}))
	require.NoError(t, cache.Put(ctx, 42, "acct-2", service.ValidationResult{Valid: false}))

	first, err := cache.Get(ctx, 42, "acct-1")
	require.NoError(t, err)
	assert.True(t, first.Valid)

	second, err := cache.Get(ctx, 42, "acct-2")
	require.NoError(t, err)
	assert.False(t, second.Valid)

	_, err = cache.Get(ctx, 43, "acct-1")
	assert.Equal(t, redisx.ErrCacheMiss, err)
}
