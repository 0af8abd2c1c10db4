package aggregator_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payroll-report-aggregator/internal/aggregator"
	"payroll-report-aggregator/internal/models"
)

var fetchTime = time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return fetchTime }

// fakeClient serves canned aggregator responses keyed by account id and
// records the date ranges each fetch was called with.
type fakeClient struct {
	source     models.SourceAggregator
	identities map[string][]map[string]any
	accounts   map[string]map[string]any
	paystubs   map[string][]map[string]any
	gigs       map[string][]map[string]any

	identitiesErr error
	paystubsErr   error

	mu         sync.Mutex
	dateRanges map[string][2]time.Time
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		source:     models.SourceArgyle,
		identities: map[string][]map[string]any{},
		accounts:   map[string]map[string]any{},
		paystubs:   map[string][]map[string]any{},
		gigs:       map[string][]map[string]any{},
		dateRanges: map[string][2]time.Time{},
	}
}

func (c *fakeClient) Source() models.SourceAggregator { return c.source }

func (c *fakeClient) FetchIdentities(_ context.Context, accountID string) ([]map[string]any, error) {
	if c.identitiesErr != nil {
		return nil, c.identitiesErr
	}
	return c.identities[accountID], nil
}

func (c *fakeClient) FetchAccount(_ context.Context, accountID string) (map[string]any, error) {
	return c.accounts[accountID], nil
}

func (c *fakeClient) FetchPaystubs(_ context.Context, accountID string, from, to time.Time) ([]map[string]any, error) {
	if c.paystubsErr != nil {
		return nil, c.paystubsErr
	}
	c.mu.Lock()
	c.dateRanges[accountID] = [2]time.Time{from, to}
	c.mu.Unlock()
	return c.paystubs[accountID], nil
}

func (c *fakeClient) FetchGigs(_ context.Context, accountID string, from, to time.Time) ([]map[string]any, error) {
	return c.gigs[accountID], nil
}

func (c *fakeClient) paystubRange(accountID string) (time.Time, time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := c.dateRanges[accountID]
	return r[0], r[1]
}

type recordedEvent struct {
	name       string
	attributes map[string]any
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *fakeRecorder) RecordEvent(_ context.Context, name string, attributes map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{name: name, attributes: attributes})
}

func (r *fakeRecorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.events))
	for i, ev := range r.events {
		names[i] = ev.name
	}
	return names
}

func sarahIdentity(accountID string) map[string]any {
	return map[string]any{
		"account":         accountID,
		"full_name":       "Sarah X",
		"birth_date":      "1992-04-11",
		"employer":        "Whole Foods",
		"employment_type": "fulltime",
		"hire_date":       "2021-03-15",
		"pay_cycle":       "biweekly",
		"base_pay": map[string]any{
			"amount":   "21.50",
			"period":   "hourly",
			"currency": "USD",
		},
	}
}

func sarahPaystub(accountID string) map[string]any {
	return map[string]any{
		"id":            "paystub-1",
		"account":       accountID,
		"gross_pay":     "1087.50",
		"net_pay":       "812.23",
		"gross_pay_ytd": "15230.00",
		"paystub_date":  "2026-08-15",
		"hours":         "32.5",
		"paystub_period": map[string]any{
			"start_date": "2026-08-01",
			"end_date":   "2026-08-14",
		},
		"gross_pay_list": []any{
			map[string]any{"type": "base", "hours": "30", "amount": "945.00"},
			map[string]any{"type": "overtime", "hours": "2.5", "amount": "142.50"},
		},
	}
}

func buildReport(client *fakeClient, recorder *fakeRecorder, accountIDs ...string) *aggregator.Report {
	return aggregator.NewReport(aggregator.ReportConfig{
		Client:     client,
		AccountIDs: accountIDs,
		Recorder:   recorder,
		Now:        fixedNow,
	})
}

func TestFetch_PopulatesAccountReport(t *testing.T) {
	client := newFakeClient()
	client.identities["acct-1"] = []map[string]any{sarahIdentity("acct-1")}
	client.accounts["acct-1"] = map[string]any{
		"connection": map[string]any{"status": "connected"},
	}
	client.paystubs["acct-1"] = []map[string]any{sarahPaystub("acct-1")}

	report := buildReport(client, &fakeRecorder{}, "acct-1")
	require.Equal(t, aggregator.StatusUnfetched, report.Status())

	warnings, err := report.Fetch(context.Background())
	require.NoError(t, err)
	assert.False(t, warnings.Any())
	assert.Equal(t, aggregator.StatusFetched, report.Status())

	account := report.FindAccountReport("acct-1")
	require.NotNil(t, account.Identity)
	assert.Equal(t, "Sarah X", account.Identity.FullName)
	require.NotNil(t, account.Employment)
	assert.Equal(t, "Whole Foods", account.Employment.EmployerName)
	assert.Equal(t, models.EmploymentTypeW2, account.Employment.EmploymentType)
	require.NotNil(t, account.Employment.Status)
	assert.Equal(t, "connected", *account.Employment.Status)
	require.NotNil(t, account.Income)
	require.NotNil(t, account.Income.CompensationAmount)
	assert.Equal(t, 21.50, *account.Income.CompensationAmount)
	require.Len(t, account.Paystubs, 1)
	assert.Equal(t, 1087.50, *account.Paystubs[0].GrossPayAmount)
	assert.Empty(t, account.Gigs)
}

func TestFetch_W2DateRange(t *testing.T) {
	client := newFakeClient()
	client.identities["acct-1"] = []map[string]any{sarahIdentity("acct-1")}

	report := buildReport(client, &fakeRecorder{}, "acct-1")
	_, err := report.Fetch(context.Background())
	require.NoError(t, err)

	from, to := client.paystubRange("acct-1")
	assert.Equal(t, fetchTime, to)
	assert.Equal(t, fetchTime.AddDate(0, 0, -90), from)
}

func TestFetch_GigJobWidensDateRange(t *testing.T) {
	identity := sarahIdentity("acct-1")
	identity["employment_type"] = "contractor"

	client := newFakeClient()
	client.identities["acct-1"] = []map[string]any{identity}

	report := buildReport(client, &fakeRecorder{}, "acct-1")
	_, err := report.Fetch(context.Background())
	require.NoError(t, err)

	from, to := client.paystubRange("acct-1")
	assert.Equal(t, fetchTime, to)
	assert.Equal(t, fetchTime.AddDate(0, 0, -182), from)
}

func TestFindAccountReport_UnknownAccount(t *testing.T) {
	client := newFakeClient()
	client.identities["acct-1"] = []map[string]any{sarahIdentity("acct-1")}

	report := buildReport(client, &fakeRecorder{}, "acct-1")
	_, err := report.Fetch(context.Background())
	require.NoError(t, err)

	account := report.FindAccountReport("acct-unknown")
	assert.Equal(t, "acct-unknown", account.AccountID)
	assert.Nil(t, account.Identity)
	assert.Nil(t, account.Employment)
	assert.Empty(t, account.Paystubs)
}

func TestFindAccountReport_BeforeFetch(t *testing.T) {
	report := buildReport(newFakeClient(), &fakeRecorder{}, "acct-1")

	account := report.FindAccountReport("acct-1")
	assert.Equal(t, "acct-1", account.AccountID)
	assert.Nil(t, account.Identity)
}

func TestFetch_IdentitiesErrorFailsReport(t *testing.T) {
	client := newFakeClient()
	client.identitiesErr = errors.New("upstream unavailable")

	report := buildReport(client, &fakeRecorder{}, "acct-1")
	_, err := report.Fetch(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to fetch account acct-1")
	assert.Equal(t, aggregator.StatusFetchFailed, report.Status())
}

func TestFetch_PaystubsErrorFailsReport(t *testing.T) {
	client := newFakeClient()
	client.identities["acct-1"] = []map[string]any{sarahIdentity("acct-1")}
	client.paystubsErr = errors.New("timeout")

	report := buildReport(client, &fakeRecorder{}, "acct-1")
	_, err := report.Fetch(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch paystubs")
	assert.Equal(t, aggregator.StatusFetchFailed, report.Status())
}

func TestFetch_InvalidHoursReturnsWarningsAndRecordsEvent(t *testing.T) {
	paystub := sarahPaystub("acct-1")
	paystub["hours"] = "999999"

	client := newFakeClient()
	client.identities["acct-1"] = []map[string]any{sarahIdentity("acct-1")}
	client.paystubs["acct-1"] = []map[string]any{paystub}

	recorder := &fakeRecorder{}
	report := buildReport(client, recorder, "acct-1")
	warnings, err := report.Fetch(context.Background())

	require.NoError(t, err)
	require.True(t, warnings.Any())
	assert.Equal(t, "Hours Invalid value received for hours.", warnings.Join())

	require.Len(t, recorder.events, 1)
	event := recorder.events[0]
	assert.Equal(t, "AggregatorDataUnexpectedHours", event.name)
	assert.Equal(t, "acct-1", event.attributes["account_id"])
	assert.Equal(t, "argyle", event.attributes["aggregator"])
	assert.Equal(t, "Hours Invalid value received for hours.", event.attributes["warnings"])
}

func TestFetch_MultipleAccounts(t *testing.T) {
	client := newFakeClient()
	client.identities["acct-1"] = []map[string]any{sarahIdentity("acct-1")}
	client.identities["acct-2"] = []map[string]any{sarahIdentity("acct-2")}
	client.paystubs["acct-1"] = []map[string]any{sarahPaystub("acct-1")}

	report := buildReport(client, &fakeRecorder{}, "acct-1", "acct-2")
	_, err := report.Fetch(context.Background())
	require.NoError(t, err)

	first := report.FindAccountReport("acct-1")
	second := report.FindAccountReport("acct-2")
	assert.Len(t, first.Paystubs, 1)
	assert.Empty(t, second.Paystubs)
	require.NotNil(t, second.Identity)
	assert.Equal(t, "acct-2", second.Identity.AccountID)
}

func TestFetch_RefetchClearsPreviousResults(t *testing.T) {
	client := newFakeClient()
	client.identities["acct-1"] = []map[string]any{sarahIdentity("acct-1")}
	client.paystubs["acct-1"] = []map[string]any{sarahPaystub("acct-1")}

	recorder := &fakeRecorder{}
	report := buildReport(client, recorder, "acct-1")
	_, err := report.Fetch(context.Background())
	require.NoError(t, err)
	_, err = report.Fetch(context.Background())
	require.NoError(t, err)

	account := report.FindAccountReport("acct-1")
	assert.Len(t, account.Paystubs, 1)
	assert.Empty(t, recorder.names())
}
