// Package validator decides whether an account report contains enough data
// for a caseworker to make an eligibility determination.
package validator

import (
	"fmt"
	"time"

	"payroll-report-aggregator/internal/models"
)

const (
	// terminationLookbackMonths: an employment terminated at least this long
	// ago explains why no paystubs fall inside the retrieval window.
	terminationLookbackMonths = 18

	// startDateLeadDays: an employment started at or before this many days
	// ago satisfies the new-employee escape hatch. Only the lower bound is
	// checked; any older start date also passes.
	startDateLeadDays = 46
)

// UsefulReportValidator checks for presence of the fields we've determined
// are necessary for a report to be useful to eligibility workers.
//
// Now supplies the evaluation time for the termination/start-date heuristics
// so boundary behavior is testable; it defaults to time.Now.
type UsefulReportValidator struct {
	Now func() time.Time
}

// NewUsefulReportValidator returns a validator using the given clock.
// A nil clock means the system clock.
func NewUsefulReportValidator(now func() time.Time) *UsefulReportValidator {
	if now == nil {
		now = time.Now
	}
	return &UsefulReportValidator{Now: now}
}

// Validate runs the useful-report rules against one account report.
// Validation failure is a value, not an error: the returned FieldErrors
// explain the failure, keyed by field.
func (v *UsefulReportValidator) Validate(report models.AccountReport) (bool, models.FieldErrors) {
	var errs models.FieldErrors

	identities := report.Identities()
	if len(identities) == 0 {
		errs.Add("identities", "No identities present")
	}
	for _, identity := range identities {
		if identity.FullName == "" {
			errs.Add("identities", "Identity has no full_name")
		}
	}

	employments := report.Employments()
	if len(employments) == 0 {
		errs.Add("employments", "No employments present")
	}
	for _, employment := range employments {
		if employment.EmployerName == "" {
			errs.Add("employments", "Employment has no employer_name")
		}
	}

	// Structural failures stop here; the paystub heuristics only make sense
	// on a structurally complete report.
	if errs.Any() {
		return false, errs
	}

	// Gig workers are exempt: their income verification uses the gig records
	// instead of paystubs.
	for _, employment := range employments {
		if employment.EmploymentType == models.EmploymentTypeGig {
			return true, nil
		}
	}

	// W-2 case: one valid paystub is sufficient.
	validCount := 0
	for _, paystub := range report.Paystubs {
		if validPaystub(paystub) {
			validCount++
		}
	}
	if validCount > 0 {
		return true, nil
	}

	// No valid paystubs. Two escape hatches distinguish "wrong account" from
	// "legitimately no data yet": the applicant left this job long enough ago
	// that paystubs rolled off the retrieval window, or started recently
	// enough that none has been issued.
	now := v.Now()
	if v.hasOldTerminationDate(employments, now) {
		return true, nil
	}
	if v.hasOldStartDate(employments, now) {
		return true, nil
	}

	errs.Add("base", "Invalid report: probably had no valid paystubs for the linked account. Look at Report.FindAccountReport where paystubs get filtered.")
	errs.Add("base", fmt.Sprintf("# of paystubs: %d, # of valid paystubs: %d", len(report.Paystubs), validCount))
	return false, errs
}

// validPaystub: a paystub counts when it has a pay date and either a positive
// gross pay amount or positive hours.
func validPaystub(paystub models.Paystub) bool {
	if paystub.PayDate == nil {
		return false
	}
	if paystub.GrossPayAmount != nil && *paystub.GrossPayAmount > 0 {
		return true
	}
	return paystub.Hours != nil && *paystub.Hours > 0
}

func (v *UsefulReportValidator) hasOldTerminationDate(employments []models.Employment, now time.Time) bool {
	cutoff := now.AddDate(0, -terminationLookbackMonths, 0)
	for _, employment := range employments {
		if d := safeParseDate(employment.TerminationDate); d != nil && beforeOrEqual(*d, cutoff) {
			return true
		}
	}
	return false
}

func (v *UsefulReportValidator) hasOldStartDate(employments []models.Employment, now time.Time) bool {
	cutoff := now.AddDate(0, 0, -startDateLeadDays)
	for _, employment := range employments {
		if d := safeParseDate(employment.StartDate); d != nil && beforeOrEqual(*d, cutoff) {
			return true
		}
	}
	return false
}

// safeParseDate fails soft: an unparsable date string behaves as absent and
// never satisfies a heuristic on its own.
func safeParseDate(s *string) *time.Time {
	if s == nil {
		return nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil
	}
	return &t
}

func beforeOrEqual(d, cutoff time.Time) bool {
	return !d.After(cutoff)
}
