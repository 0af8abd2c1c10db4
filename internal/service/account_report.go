package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"payroll-report-aggregator/internal/aggregator"
	"payroll-report-aggregator/internal/models"
	"payroll-report-aggregator/internal/observability"
	"payroll-report-aggregator/internal/validator"
)

// ValidationResult is the outcome of validating one account report.
type ValidationResult struct {
	AccountReport models.AccountReport
	Valid         bool
	Errors        models.FieldErrors
}

// ErrorMessages joins all error messages into one comma-separated string for
// logging and telemetry.
func (r ValidationResult) ErrorMessages() string {
	return r.Errors.Join()
}

// AccountReportService ties a payroll account to its slice of a fetched
// report and the useful-report validator, and emits telemetry around the
// decision. The validator itself stays pure; all event recording lives here.
type AccountReportService struct {
	report    *aggregator.Report
	account   models.PayrollAccount
	validator *validator.UsefulReportValidator
	recorder  observability.EventRecorder
	logger    *zap.Logger
}

// NewAccountReportService creates the validation facade for one payroll
// account against an already-fetched report.
func NewAccountReportService(
	report *aggregator.Report,
	account models.PayrollAccount,
	v *validator.UsefulReportValidator,
	recorder observability.EventRecorder,
	logger *zap.Logger,
) *AccountReportService {
	if v == nil {
		v = validator.NewUsefulReportValidator(nil)
	}
	if recorder == nil {
		recorder = observability.NopRecorder{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AccountReportService{
		report:    report,
		account:   account,
		validator: v,
		recorder:  recorder,
		logger:    logger,
	}
}

// Validate looks up the account's report slice and runs the useful-report
// rules against it. An "attempted" event is recorded before validating and a
// "failed" event, carrying the joined error messages, only on failure.
// Recording is best-effort and never affects the result. Validate does not
// mutate the underlying report, so repeated calls on an unchanged report
// yield identical results.
func (s *AccountReportService) Validate(ctx context.Context) ValidationResult {
	accountReport := s.report.FindAccountReport(s.account.AggregatorAccountID)

	s.recorder.RecordEvent(ctx, observability.EventReportAttemptedUsefulRequirements, map[string]any{
		"time":       time.Now().Unix(),
		"flow_id":    s.account.FlowID,
		"account_id": s.account.AggregatorAccountID,
		"aggregator": string(s.account.Aggregator),
	})

	valid, errs := s.validator.Validate(accountReport)

	if !valid {
		s.logger.Info("Account report failed useful-report validation",
			zap.String("account_id", s.account.AggregatorAccountID),
			zap.String("errors", errs.Join()),
		)
		s.recorder.RecordEvent(ctx, observability.EventReportFailedUsefulRequirements, map[string]any{
			"time":       time.Now().Unix(),
			"flow_id":    s.account.FlowID,
			"account_id": s.account.AggregatorAccountID,
			"aggregator": string(s.account.Aggregator),
			"errors":     errs.Join(),
		})
	}

	return ValidationResult{
		AccountReport: accountReport,
		Valid:         valid,
		Errors:        errs,
	}
}
