package transformer

import (
	"time"

	"payroll-report-aggregator/internal/models"
)

// Pinwheel sends currency amounts as integer minor units (cents) and dates as
// plain "2006-01-02" strings.

var pinwheelDateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
}

// pinwheelCurrency normalizes a cents amount to dollars. Absent or
// unparsable values stay nil.
func pinwheelCurrency(v any) *float64 {
	if v == nil {
		return nil
	}
	cents, ok := parseFloat(v)
	if !ok {
		return nil
	}
	dollars := cents / 100
	return &dollars
}

func pinwheelDate(v any) *string {
	return normalizeDate(v, pinwheelDateLayouts...)
}

func identityFromPinwheel(raw map[string]any) models.Identity {
	return models.Identity{
		AccountID:   stringValue(raw["account_id"]),
		FullName:    stringValue(raw["full_name"]),
		DateOfBirth: pinwheelDate(raw["date_of_birth"]),
	}
}

func employmentFromPinwheel(raw map[string]any) models.Employment {
	return models.Employment{
		AccountID:       stringValue(raw["account_id"]),
		EmployerName:    stringValue(raw["employer_name"]),
		EmploymentType:  ClassifyEmploymentType(raw["employment_type"]),
		StartDate:       pinwheelDate(raw["start_date"]),
		TerminationDate: pinwheelDate(raw["termination_date"]),
		Status:          stringField(raw, "status"),
	}
}

func incomeFromPinwheel(raw map[string]any) models.Income {
	return models.Income{
		AccountID:          stringValue(raw["account_id"]),
		CompensationAmount: pinwheelCurrency(raw["compensation_amount"]),
		CompensationUnit:   stringField(raw, "compensation_unit"),
		PayFrequency:       stringField(raw, "pay_frequency"),
		Currency:           stringField(raw, "currency"),
	}
}

func paystubFromPinwheel(raw map[string]any) models.Paystub {
	earningLines := sliceField(raw, "earnings")
	earnings := make([]models.Earning, 0, len(earningLines))
	for _, line := range earningLines {
		earnings = append(earnings, earningFromPinwheel(line))
	}

	deductionList := sliceField(raw, "deductions")
	deductions := make([]models.Deduction, 0, len(deductionList))
	for _, line := range deductionList {
		tax := stringValue(line["type"])
		if tax == "" {
			tax = "unknown"
		}
		deductions = append(deductions, models.Deduction{
			Category: stringValue(line["category"]),
			Tax:      tax,
			Amount:   pinwheelCurrency(line["amount"]),
		})
	}

	return models.Paystub{
		ID:             stringField(raw, "id"),
		AccountID:      stringValue(raw["account_id"]),
		GrossPayAmount: pinwheelCurrency(raw["gross_pay_amount"]),
		NetPayAmount:   pinwheelCurrency(raw["net_pay_amount"]),
		GrossPayYTD:    pinwheelCurrency(raw["gross_pay_ytd"]),
		PayPeriodStart: pinwheelDate(raw["pay_period_start"]),
		PayPeriodEnd:   pinwheelDate(raw["pay_period_end"]),
		PayDate:        pinwheelDate(raw["pay_date"]),
		// Pinwheel has no top-level hours figure, so this is always the
		// earnings-breakdown total.
		Hours:                  computeHours(raw["hours"], earningLines, "hours"),
		HoursByEarningCategory: hoursByCategory(earningLines, "category", "hours"),
		Earnings:               earnings,
		Deductions:             deductions,
		EmploymentID:           nil, // not provided
	}
}

func earningFromPinwheel(line map[string]any) models.Earning {
	var hours *float64
	if f, ok := validHours(line["hours"]); ok {
		hours = &f
	}
	var rate *float64
	if f, ok := parseFloat(line["rate"]); ok {
		rate = &f
	}
	return models.Earning{
		Category: stringValue(line["category"]),
		Name:     stringField(line, "name"),
		Rate:     rate,
		Hours:    hours,
		Amount:   pinwheelCurrency(line["amount"]),
	}
}

func gigFromPinwheel(raw map[string]any) models.Gig {
	var hours *float64
	if f, ok := validHours(raw["hours"]); ok {
		hours = &f
	}
	return models.Gig{
		AccountID: stringValue(raw["account_id"]),
		GigType:   stringField(raw, "type"),
		GigStatus: stringField(raw, "status"),
		StartDate: pinwheelDate(raw["start_date"]),
		EndDate:   pinwheelDate(raw["end_date"]),
		Hours:     hours,
		Amount:    pinwheelCurrency(raw["earnings"]),
	}
}

// pinwheelHoursOK warns only on hours values that are present but invalid;
// Pinwheel legitimately omits hours on non-hourly earnings.
func pinwheelHoursOK(raw map[string]any) bool {
	for _, line := range sliceField(raw, "earnings") {
		v, present := line["hours"]
		if !present || v == nil {
			continue
		}
		if _, ok := validHours(v); !ok {
			return false
		}
	}
	return true
}
