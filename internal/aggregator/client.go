package aggregator

import (
	"context"
	"time"

	"payroll-report-aggregator/internal/models"
)

// Client abstracts one payroll aggregator's API. Implementations return
// parsed JSON objects; the report pipeline never sees transport details.
//
// Each method may fail with a fetch error (network/auth). Retry policy
// belongs to the implementation, not the caller: the report treats any
// returned error as fatal for that account's aggregation pass.
type Client interface {
	// Source identifies which aggregator this client talks to; transformers
	// dispatch on it.
	Source() models.SourceAggregator

	// FetchIdentities returns the identity records for a linked account.
	FetchIdentities(ctx context.Context, accountID string) ([]map[string]any, error)

	// FetchAccount returns the account metadata object.
	FetchAccount(ctx context.Context, accountID string) (map[string]any, error)

	// FetchPaystubs returns the paystubs issued inside [from, to].
	FetchPaystubs(ctx context.Context, accountID string, from, to time.Time) ([]map[string]any, error)

	// FetchGigs returns the gig work records inside [from, to].
	FetchGigs(ctx context.Context, accountID string, from, to time.Time) ([]map[string]any, error)
}
