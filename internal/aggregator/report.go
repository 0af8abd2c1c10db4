// Package aggregator fetches raw payroll data from an aggregator API and
// assembles it into normalized per-account reports.
package aggregator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"payroll-report-aggregator/internal/models"
	"payroll-report-aggregator/internal/observability"
	"payroll-report-aggregator/internal/transformer"
)

// Status tracks a report's fetch lifecycle.
type Status string

const (
	StatusUnfetched   Status = "unfetched"
	StatusFetching    Status = "fetching"
	StatusFetched     Status = "fetched"
	StatusFetchFailed Status = "fetch_failed"
)

// DateRangePolicy controls how far back paystub and gig data is fetched.
// Gig income history needs a longer lookback than W-2 paystubs to find
// meaningful data.
type DateRangePolicy struct {
	W2Days  int
	GigDays int
}

// DefaultDateRangePolicy is the standard fetch window: 90 days for W-2
// accounts, 182 days when a gig job is detected.
var DefaultDateRangePolicy = DateRangePolicy{W2Days: 90, GigDays: 182}

// ReportConfig carries the collaborators for one Report.
// Now is the evaluation clock for fetch date ranges; nil means time.Now.
type ReportConfig struct {
	Client     Client
	AccountIDs []string
	Policy     DateRangePolicy
	Recorder   observability.EventRecorder
	Logger     *zap.Logger
	Now        func() time.Time
}

// Report accumulates normalized records across the payroll accounts of one
// verification flow (a multi-job applicant links several accounts). It is
// built per review request, populated by one Fetch pass, then discarded;
// the assembled report itself is never persisted.
type Report struct {
	client   Client
	source   models.SourceAggregator
	accounts []string
	policy   DateRangePolicy
	recorder observability.EventRecorder
	logger   *zap.Logger
	now      func() time.Time

	mu          sync.Mutex
	status      Status
	identities  []models.Identity
	employments []models.Employment
	incomes     []models.Income
	paystubs    []models.Paystub
	gigs        []models.Gig
}

// NewReport creates an unfetched report.
func NewReport(cfg ReportConfig) *Report {
	policy := cfg.Policy
	if policy.W2Days <= 0 {
		policy.W2Days = DefaultDateRangePolicy.W2Days
	}
	if policy.GigDays <= 0 {
		policy.GigDays = DefaultDateRangePolicy.GigDays
	}
	recorder := cfg.Recorder
	if recorder == nil {
		recorder = observability.NopRecorder{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Report{
		client:   cfg.Client,
		source:   cfg.Client.Source(),
		accounts: cfg.AccountIDs,
		policy:   policy,
		recorder: recorder,
		logger:   logger,
		now:      now,
		status:   StatusUnfetched,
	}
}

// Status returns the current fetch state.
func (r *Report) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Fetch retrieves and normalizes data for every configured account.
// Data-quality warnings are returned explicitly rather than held as shared
// state; previous results are cleared so re-fetching cannot contaminate a
// new pass. Any fetch error aborts the pass and propagates.
func (r *Report) Fetch(ctx context.Context) (models.FieldErrors, error) {
	r.mu.Lock()
	r.status = StatusFetching
	r.identities = nil
	r.employments = nil
	r.incomes = nil
	r.paystubs = nil
	r.gigs = nil
	r.mu.Unlock()

	var warnings models.FieldErrors
	for _, accountID := range r.accounts {
		accountWarnings, err := r.fetchAccount(ctx, accountID)
		if err != nil {
			r.mu.Lock()
			r.status = StatusFetchFailed
			r.mu.Unlock()
			return warnings, fmt.Errorf("failed to fetch account %s: %w", accountID, err)
		}
		warnings = append(warnings, accountWarnings...)
	}

	r.mu.Lock()
	r.status = StatusFetched
	r.mu.Unlock()
	return warnings, nil
}

// fetchAccount runs one per-account pass: identities first (the gig
// classification decides the date range), then account metadata, paystubs
// and gigs concurrently.
func (r *Report) fetchAccount(ctx context.Context, accountID string) (models.FieldErrors, error) {
	identitiesRaw, err := r.client.FetchIdentities(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("fetch identities: %w", err)
	}

	identities := make([]models.Identity, 0, len(identitiesRaw))
	employments := make([]models.Employment, 0, len(identitiesRaw))
	incomes := make([]models.Income, 0, len(identitiesRaw))
	hasGigJob := false
	for _, raw := range identitiesRaw {
		identity, err := transformer.TransformIdentity(r.source, raw)
		if err != nil {
			return nil, err
		}
		employment, err := transformer.TransformEmployment(r.source, raw)
		if err != nil {
			return nil, err
		}
		income, err := transformer.TransformIncome(r.source, raw)
		if err != nil {
			return nil, err
		}
		identities = append(identities, identity)
		employments = append(employments, employment)
		incomes = append(incomes, income)
		if employment.EmploymentType == models.EmploymentTypeGig {
			hasGigJob = true
		}
	}

	// Override the date range when fetching a gig job.
	days := r.policy.W2Days
	if hasGigJob {
		days = r.policy.GigDays
	}
	to := r.now()
	from := to.AddDate(0, 0, -days)

	// Independent reads, fanned out; all must succeed before transformation
	// proceeds.
	var (
		wg          sync.WaitGroup
		accountRaw  map[string]any
		paystubsRaw []map[string]any
		gigsRaw     []map[string]any
		accountErr  error
		paystubsErr error
		gigsErr     error
	)
	wg.Add(3)
	go func() {
		defer wg.Done()
		accountRaw, accountErr = r.client.FetchAccount(ctx, accountID)
	}()
	go func() {
		defer wg.Done()
		paystubsRaw, paystubsErr = r.client.FetchPaystubs(ctx, accountID, from, to)
	}()
	go func() {
		defer wg.Done()
		gigsRaw, gigsErr = r.client.FetchGigs(ctx, accountID, from, to)
	}()
	wg.Wait()

	if accountErr != nil {
		return nil, fmt.Errorf("fetch account metadata: %w", accountErr)
	}
	if paystubsErr != nil {
		return nil, fmt.Errorf("fetch paystubs: %w", paystubsErr)
	}
	if gigsErr != nil {
		return nil, fmt.Errorf("fetch gigs: %w", gigsErr)
	}

	// Account metadata carries the connection status for the employment
	// records of this account.
	if status := connectionStatus(accountRaw); status != nil {
		for i := range employments {
			if employments[i].Status == nil {
				employments[i].Status = status
			}
		}
	}

	paystubs := make([]models.Paystub, 0, len(paystubsRaw))
	for _, raw := range paystubsRaw {
		paystub, err := transformer.TransformPaystub(r.source, raw)
		if err != nil {
			return nil, err
		}
		paystubs = append(paystubs, paystub)
	}
	gigs := make([]models.Gig, 0, len(gigsRaw))
	for _, raw := range gigsRaw {
		gig, err := transformer.TransformGig(r.source, raw)
		if err != nil {
			return nil, err
		}
		gigs = append(gigs, gig)
	}

	warnings := transformer.CheckHours(r.source, paystubsRaw)

	r.mu.Lock()
	r.identities = append(r.identities, identities...)
	r.employments = append(r.employments, employments...)
	r.incomes = append(r.incomes, incomes...)
	r.paystubs = append(r.paystubs, paystubs...)
	r.gigs = append(r.gigs, gigs...)
	r.mu.Unlock()

	if warnings.Any() {
		r.logger.Warn("Unexpected hours values in fetched paystubs",
			zap.String("account_id", accountID),
			zap.Int("warning_count", len(warnings)),
		)
		r.recorder.RecordEvent(ctx, observability.EventDataUnexpectedHours, map[string]any{
			"time":       r.now().Unix(),
			"account_id": accountID,
			"aggregator": string(r.source),
			"warnings":   warnings.Join(),
		})
	}

	return warnings, nil
}

// FindAccountReport assembles the read-only slice for one payroll account.
// An unknown account id yields an empty report, never an error, so callers
// can probe safely while synchronization is still in progress.
func (r *Report) FindAccountReport(accountID string) models.AccountReport {
	r.mu.Lock()
	defer r.mu.Unlock()

	report := models.AccountReport{AccountID: accountID}
	for i := range r.identities {
		if r.identities[i].AccountID == accountID {
			identity := r.identities[i]
			report.Identity = &identity
			break
		}
	}
	for i := range r.employments {
		if r.employments[i].AccountID == accountID {
			employment := r.employments[i]
			report.Employment = &employment
			break
		}
	}
	for i := range r.incomes {
		if r.incomes[i].AccountID == accountID {
			income := r.incomes[i]
			report.Income = &income
			break
		}
	}
	for _, paystub := range r.paystubs {
		if paystub.AccountID == accountID {
			report.Paystubs = append(report.Paystubs, paystub)
		}
	}
	for _, gig := range r.gigs {
		if gig.AccountID == accountID {
			report.Gigs = append(report.Gigs, gig)
		}
	}
	return report
}

func connectionStatus(accountRaw map[string]any) *string {
	connection, _ := accountRaw["connection"].(map[string]any)
	status, _ := connection["status"].(string)
	if status == "" {
		return nil
	}
	return &status
}
