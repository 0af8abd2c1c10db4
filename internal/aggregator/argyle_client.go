package aggregator

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"payroll-report-aggregator/internal/models"
)

// argyleEnvelope is the list envelope Argyle wraps around collection
// responses.
type argyleEnvelope struct {
	Results []map[string]any `json:"results"`
}

// ArgyleClient talks to the Argyle API. Argyle authenticates with HTTP basic
// auth over an API key pair.
type ArgyleClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewArgyleClient creates an Argyle API client.
func NewArgyleClient(baseURL, apiKeyID, apiKeySecret string, logger *zap.Logger) *ArgyleClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetBasicAuth(apiKeyID, apiKeySecret).
		SetTimeout(30*time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1*time.Second).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader("Accept", "application/json")

	return &ArgyleClient{
		httpClient: client,
		logger:     logger,
	}
}

func (c *ArgyleClient) Source() models.SourceAggregator {
	return models.SourceArgyle
}

func (c *ArgyleClient) FetchIdentities(ctx context.Context, accountID string) ([]map[string]any, error) {
	var envelope argyleEnvelope
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParam("account", accountID).
		SetResult(&envelope).
		Get("/v2/identities")
	if err != nil {
		return nil, fmt.Errorf("failed to call Argyle identities API: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("Argyle identities API error: %s", resp.Status())
	}
	return envelope.Results, nil
}

func (c *ArgyleClient) FetchAccount(ctx context.Context, accountID string) (map[string]any, error) {
	var account map[string]any
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&account).
		Get("/v2/accounts/" + accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to call Argyle accounts API: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("Argyle accounts API error: %s", resp.Status())
	}
	return account, nil
}

func (c *ArgyleClient) FetchPaystubs(ctx context.Context, accountID string, from, to time.Time) ([]map[string]any, error) {
	var envelope argyleEnvelope
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"account":         accountID,
			"from_start_date": from.Format("2006-01-02"),
			"to_start_date":   to.Format("2006-01-02"),
			"limit":           "200",
		}).
		SetResult(&envelope).
		Get("/v2/paystubs")
	if err != nil {
		return nil, fmt.Errorf("failed to call Argyle paystubs API: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("Argyle paystubs API error: %s", resp.Status())
	}
	return envelope.Results, nil
}

func (c *ArgyleClient) FetchGigs(ctx context.Context, accountID string, from, to time.Time) ([]map[string]any, error) {
	var envelope argyleEnvelope
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"account":             accountID,
			"from_start_datetime": from.Format(time.RFC3339),
			"to_start_datetime":   to.Format(time.RFC3339),
			"limit":               "200",
		}).
		SetResult(&envelope).
		Get("/v2/gigs")
	if err != nil {
		return nil, fmt.Errorf("failed to call Argyle gigs API: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("Argyle gigs API error: %s", resp.Status())
	}
	return envelope.Results, nil
}
