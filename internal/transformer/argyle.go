package transformer

import (
	"time"

	"payroll-report-aggregator/internal/models"
)

// Argyle sends currency amounts as decimal strings ("1087.50") and dates as
// either RFC 3339 timestamps or plain "2006-01-02" dates.

var argyleDateLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02",
}

// argyleCurrency normalizes an Argyle decimal amount. Absent or unparsable
// values stay nil.
func argyleCurrency(v any) *float64 {
	if v == nil {
		return nil
	}
	f, ok := parseFloat(v)
	if !ok {
		return nil
	}
	return &f
}

func argyleDate(v any) *string {
	return normalizeDate(v, argyleDateLayouts...)
}

func identityFromArgyle(raw map[string]any) models.Identity {
	return models.Identity{
		AccountID:   stringValue(raw["account"]),
		FullName:    stringValue(raw["full_name"]),
		DateOfBirth: argyleDate(raw["birth_date"]),
	}
}

// employmentFromArgyle builds an employment record from an Argyle identity
// object, which carries the employer and hire/termination fields.
func employmentFromArgyle(raw map[string]any) models.Employment {
	return models.Employment{
		AccountID:       stringValue(raw["account"]),
		EmployerName:    stringValue(raw["employer"]),
		EmploymentType:  ClassifyEmploymentType(raw["employment_type"]),
		StartDate:       argyleDate(raw["hire_date"]),
		TerminationDate: argyleDate(raw["termination_date"]),
		Status:          stringField(raw, "employment_status"),
	}
}

func incomeFromArgyle(raw map[string]any) models.Income {
	basePay := mapField(raw, "base_pay")
	return models.Income{
		AccountID:          stringValue(raw["account"]),
		CompensationAmount: argyleCurrency(basePay["amount"]),
		CompensationUnit:   stringField(basePay, "period"),
		PayFrequency:       stringField(raw, "pay_cycle"),
		Currency:           stringField(basePay, "currency"),
	}
}

func paystubFromArgyle(raw map[string]any) models.Paystub {
	grossPayList := sliceField(raw, "gross_pay_list")
	period := mapField(raw, "paystub_period")

	earnings := make([]models.Earning, 0, len(grossPayList))
	for _, line := range grossPayList {
		earnings = append(earnings, earningFromArgyle(line))
	}

	deductionList := sliceField(raw, "deduction_list")
	deductions := make([]models.Deduction, 0, len(deductionList))
	for _, line := range deductionList {
		tax := stringValue(line["tax_classification"])
		if tax == "" {
			tax = "unknown"
		}
		deductions = append(deductions, models.Deduction{
			Category: stringValue(line["name"]),
			Tax:      tax,
			Amount:   argyleCurrency(line["amount"]),
		})
	}

	return models.Paystub{
		ID:                     stringField(raw, "id"),
		AccountID:              stringValue(raw["account"]),
		GrossPayAmount:         argyleCurrency(raw["gross_pay"]),
		NetPayAmount:           argyleCurrency(raw["net_pay"]),
		GrossPayYTD:            argyleCurrency(raw["gross_pay_ytd"]),
		PayPeriodStart:         argyleDate(period["start_date"]),
		PayPeriodEnd:           argyleDate(period["end_date"]),
		PayDate:                argyleDate(raw["paystub_date"]),
		Hours:                  computeHours(raw["hours"], grossPayList, "hours"),
		HoursByEarningCategory: hoursByCategory(grossPayList, "type", "hours"),
		Earnings:               earnings,
		Deductions:             deductions,
		EmploymentID:           stringField(raw, "employment"),
	}
}

func earningFromArgyle(line map[string]any) models.Earning {
	var hours *float64
	if f, ok := validHours(line["hours"]); ok {
		hours = &f
	}
	var rate *float64
	if f, ok := parseFloat(line["rate"]); ok {
		rate = &f
	}
	return models.Earning{
		Category: stringValue(line["type"]),
		Name:     stringField(line, "name"),
		Rate:     rate,
		Hours:    hours,
		Amount:   argyleCurrency(line["amount"]),
	}
}

func gigFromArgyle(raw map[string]any) models.Gig {
	income := mapField(raw, "income")

	// Argyle reports gig duration in seconds.
	var hours *float64
	if seconds, ok := parseFloat(raw["duration"]); ok && seconds >= 0 {
		h := seconds / 3600
		hours = &h
	}

	return models.Gig{
		AccountID: stringValue(raw["account"]),
		GigType:   stringField(raw, "type"),
		GigStatus: stringField(raw, "status"),
		StartDate: argyleDate(raw["start_datetime"]),
		EndDate:   argyleDate(raw["end_datetime"]),
		Hours:     hours,
		Amount:    argyleCurrency(income["pay"]),
	}
}

// argyleHoursOK checks the top-level hours figure and every gross pay line.
// A missing value counts as invalid; Argyle is expected to report hours on
// every paystub.
func argyleHoursOK(raw map[string]any) bool {
	if _, ok := validHours(raw["hours"]); !ok {
		return false
	}
	lines, ok := raw["gross_pay_list"].([]any)
	if !ok {
		return false
	}
	for _, entry := range lines {
		line, ok := entry.(map[string]any)
		if !ok {
			return false
		}
		if _, ok := validHours(line["hours"]); !ok {
			return false
		}
	}
	return true
}
