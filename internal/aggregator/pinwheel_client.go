package aggregator

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"payroll-report-aggregator/internal/models"
)

// pinwheelListEnvelope wraps Pinwheel collection responses.
type pinwheelListEnvelope struct {
	Data []map[string]any `json:"data"`
}

// pinwheelObjectEnvelope wraps Pinwheel single-object responses.
type pinwheelObjectEnvelope struct {
	Data map[string]any `json:"data"`
}

// PinwheelClient talks to the Pinwheel API. Pinwheel splits identity,
// employment and income across separate per-account endpoints; the client
// merges them into unified identity objects so the report pipeline can treat
// both aggregators the same way.
type PinwheelClient struct {
	httpClient *resty.Client
	logger     *zap.Logger
}

// NewPinwheelClient creates a Pinwheel API client.
func NewPinwheelClient(baseURL, apiSecret string, logger *zap.Logger) *PinwheelClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("X-Pinwheel-Api-Secret", apiSecret).
		SetTimeout(30*time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1*time.Second).
		SetRetryMaxWaitTime(5*time.Second).
		SetHeader("Accept", "application/json")

	return &PinwheelClient{
		httpClient: client,
		logger:     logger,
	}
}

func (c *PinwheelClient) Source() models.SourceAggregator {
	return models.SourcePinwheel
}

// FetchIdentities merges the identity, employment and income endpoints into
// one object per account. Employment or income being unavailable is not
// fatal; the merged object just omits those fields.
func (c *PinwheelClient) FetchIdentities(ctx context.Context, accountID string) ([]map[string]any, error) {
	identity, err := c.fetchObject(ctx, accountID, "identity")
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, nil
	}

	merged := map[string]any{"account_id": accountID}
	for k, v := range identity {
		merged[k] = v
	}

	for _, endpoint := range []string{"employment", "income"} {
		obj, err := c.fetchObject(ctx, accountID, endpoint)
		if err != nil {
			c.logger.Warn("Pinwheel endpoint unavailable",
				zap.String("endpoint", endpoint),
				zap.String("account_id", accountID),
				zap.Error(err),
			)
			continue
		}
		for k, v := range obj {
			if _, exists := merged[k]; !exists {
				merged[k] = v
			}
		}
	}
	merged["account_id"] = accountID

	return []map[string]any{merged}, nil
}

func (c *PinwheelClient) FetchAccount(ctx context.Context, accountID string) (map[string]any, error) {
	var envelope pinwheelObjectEnvelope
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&envelope).
		Get("/v1/accounts/" + accountID)
	if err != nil {
		return nil, fmt.Errorf("failed to call Pinwheel accounts API: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("Pinwheel accounts API error: %s", resp.Status())
	}
	return envelope.Data, nil
}

func (c *PinwheelClient) FetchPaystubs(ctx context.Context, accountID string, from, to time.Time) ([]map[string]any, error) {
	var envelope pinwheelListEnvelope
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"from_pay_date": from.Format("2006-01-02"),
			"to_pay_date":   to.Format("2006-01-02"),
		}).
		SetResult(&envelope).
		Get("/v1/accounts/" + accountID + "/paystubs")
	if err != nil {
		return nil, fmt.Errorf("failed to call Pinwheel paystubs API: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("Pinwheel paystubs API error: %s", resp.Status())
	}
	return envelope.Data, nil
}

// FetchGigs returns Pinwheel shift records, its closest equivalent to gig
// work records.
func (c *PinwheelClient) FetchGigs(ctx context.Context, accountID string, from, to time.Time) ([]map[string]any, error) {
	var envelope pinwheelListEnvelope
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"from_start_date": from.Format("2006-01-02"),
			"to_start_date":   to.Format("2006-01-02"),
		}).
		SetResult(&envelope).
		Get("/v1/accounts/" + accountID + "/shifts")
	if err != nil {
		return nil, fmt.Errorf("failed to call Pinwheel shifts API: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("Pinwheel shifts API error: %s", resp.Status())
	}
	return envelope.Data, nil
}

func (c *PinwheelClient) fetchObject(ctx context.Context, accountID, endpoint string) (map[string]any, error) {
	var envelope pinwheelObjectEnvelope
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetResult(&envelope).
		Get("/v1/accounts/" + accountID + "/" + endpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to call Pinwheel %s API: %w", endpoint, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("Pinwheel %s API error: %s", endpoint, resp.Status())
	}
	return envelope.Data, nil
}
