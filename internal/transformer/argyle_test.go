package transformer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"payroll-report-aggregator/internal/models"
	"payroll-report-aggregator/internal/transformer"
)

func argylePaystubFixture() map[string]any {
	return map[string]any{
		"id":            "paystub-1",
		"account":       "acct-1",
		"employment":    "employment-1",
		"gross_pay":     "1087.50",
		"net_pay":       "874.32",
		"gross_pay_ytd": "12050.00",
		"paystub_date":  "2026-08-14T00:00:00Z",
		"hours":         "32.5",
		"paystub_period": map[string]any{
			"start_date": "2026-08-01",
			"end_date":   "2026-08-14",
		},
		"gross_pay_list": []any{
			map[string]any{
				"type":   "base",
				"name":   "Regular",
				"rate":   "21.75",
				"hours":  "30",
				"amount": "652.50",
			},
			map[string]any{
				"type":   "overtime",
				"name":   "Overtime",
				"rate":   "32.63",
				"hours":  "2.5",
				"amount": "81.58",
			},
		},
		"deduction_list": []any{
			map[string]any{
				"name":               "401k",
				"tax_classification": "pre_tax",
				"amount":             "54.38",
			},
			map[string]any{
				"name":   "health",
				"amount": "25.00",
			},
		},
	}
}

func TestTransformPaystub_Argyle(t *testing.T) {
	paystub, err := transformer.TransformPaystub(models.SourceArgyle, argylePaystubFixture())
	require.NoError(t, err)

	require.NotNil(t, paystub.ID)
	assert.Equal(t, "paystub-1", *paystub.ID)
	assert.Equal(t, "acct-1", paystub.AccountID)
	require.NotNil(t, paystub.EmploymentID)
	assert.Equal(t, "employment-1", *paystub.EmploymentID)

	require.NotNil(t, paystub.GrossPayAmount)
	assert.Equal(t, 1087.50, *paystub.GrossPayAmount)
	require.NotNil(t, paystub.NetPayAmount)
	assert.Equal(t, 874.32, *paystub.NetPayAmount)
	require.NotNil(t, paystub.GrossPayYTD)
	assert.Equal(t, 12050.00, *paystub.GrossPayYTD)

	require.NotNil(t, paystub.PayDate)
	assert.Equal(t, "2026-08-14", *paystub.PayDate)
	require.NotNil(t, paystub.PayPeriodStart)
	assert.Equal(t, "2026-08-01", *paystub.PayPeriodStart)
	require.NotNil(t, paystub.PayPeriodEnd)
	assert.Equal(t, "2026-08-14", *paystub.PayPeriodEnd)

	// Top-level hours figure wins over the breakdown total.
	require.NotNil(t, paystub.Hours)
	assert.Equal(t, 32.5, *paystub.Hours)

	// The category mapping is always computed from the breakdown.
	assert.Equal(t, map[string]float64{"base": 30, "overtime": 2.5}, paystub.HoursByEarningCategory)

	require.Len(t, paystub.Earnings, 2)
	assert.Equal(t, "base", paystub.Earnings[0].Category)
	require.NotNil(t, paystub.Earnings[0].Amount)
	assert.Equal(t, 652.50, *paystub.Earnings[0].Amount)

	require.Len(t, paystub.Deductions, 2)
	assert.Equal(t, "401k", paystub.Deductions[0].Category)
	assert.Equal(t, "pre_tax", paystub.Deductions[0].Tax)
	require.NotNil(t, paystub.Deductions[0].Amount)
	assert.Equal(t, 54.38, *paystub.Deductions[0].Amount)

	// Missing tax classification defaults to "unknown".
	assert.Equal(t, "unknown", paystub.Deductions[1].Tax)
}

func TestTransformPaystub_Argyle_HoursFallback(t *testing.T) {
	fixture := argylePaystubFixture()
	delete(fixture, "hours")
	fixture["gross_pay_list"].([]any)[1].(map[string]any)["hours"] = "7.5"

	paystub, err := transformer.TransformPaystub(models.SourceArgyle, fixture)
	require.NoError(t, err)

	// Absent top-level hours: total recomputed from the breakdown.
	require.NotNil(t, paystub.Hours)
	assert.Equal(t, 37.5, *paystub.Hours)
}

func TestTransformPaystub_Argyle_InvalidHoursFallsBack(t *testing.T) {
	fixture := argylePaystubFixture()
	fixture["hours"] = "999999"

	paystub, err := transformer.TransformPaystub(models.SourceArgyle, fixture)
	require.NoError(t, err)

	require.NotNil(t, paystub.Hours)
	assert.Equal(t, 32.5, *paystub.Hours)
}

func TestTransformPaystub_Argyle_NoHoursAnywhere(t *testing.T) {
	paystub, err := transformer.TransformPaystub(models.SourceArgyle, map[string]any{
		"account":   "acct-1",
		"gross_pay": "100.00",
	})
	require.NoError(t, err)

	// Absent stays nil, never zero.
	assert.Nil(t, paystub.Hours)
	assert.Empty(t, paystub.HoursByEarningCategory)
}

func TestTransformPaystub_Argyle_MalformedRecord(t *testing.T) {
	paystub, err := transformer.TransformPaystub(models.SourceArgyle, map[string]any{})
	require.NoError(t, err)

	assert.Nil(t, paystub.GrossPayAmount)
	assert.Nil(t, paystub.NetPayAmount)
	assert.Nil(t, paystub.PayDate)
	assert.Nil(t, paystub.Hours)
	assert.Empty(t, paystub.Earnings)
	assert.Empty(t, paystub.Deductions)
}

func TestTransformIdentity_Argyle(t *testing.T) {
	identity, err := transformer.TransformIdentity(models.SourceArgyle, map[string]any{
		"account":    "acct-1",
		"full_name":  "Sarah X",
		"birth_date": "1990-04-01",
	})
	require.NoError(t, err)

	assert.Equal(t, "acct-1", identity.AccountID)
	assert.Equal(t, "Sarah X", identity.FullName)
	require.NotNil(t, identity.DateOfBirth)
	assert.Equal(t, "1990-04-01", *identity.DateOfBirth)
}

func TestTransformIdentity_Argyle_UnparsableBirthDate(t *testing.T) {
	identity, err := transformer.TransformIdentity(models.SourceArgyle, map[string]any{
		"account":    "acct-1",
		"full_name":  "Sarah X",
		"birth_date": "not-a-date",
	})
	require.NoError(t, err)

	assert.Nil(t, identity.DateOfBirth)
}

func TestTransformEmployment_Argyle(t *testing.T) {
	employment, err := transformer.TransformEmployment(models.SourceArgyle, map[string]any{
		"account":          "acct-1",
		"employer":         "Whole Foods",
		"employment_type":  "full-time",
		"hire_date":        "2024-02-15",
		"termination_date": "2025-11-17T00:00:00Z",
	})
	require.NoError(t, err)

	assert.Equal(t, "Whole Foods", employment.EmployerName)
	assert.Equal(t, models.EmploymentTypeW2, employment.EmploymentType)
	require.NotNil(t, employment.StartDate)
	assert.Equal(t, "2024-02-15", *employment.StartDate)
	require.NotNil(t, employment.TerminationDate)
	assert.Equal(t, "2025-11-17", *employment.TerminationDate)
}

func TestTransformIncome_Argyle(t *testing.T) {
	income, err := transformer.TransformIncome(models.SourceArgyle, map[string]any{
		"account":   "acct-1",
		"pay_cycle": "biweekly",
		"base_pay": map[string]any{
			"amount":   "21.75",
			"period":   "hourly",
			"currency": "USD",
		},
	})
	require.NoError(t, err)

	require.NotNil(t, income.CompensationAmount)
	assert.Equal(t, 21.75, *income.CompensationAmount)
	require.NotNil(t, income.CompensationUnit)
	assert.Equal(t, "hourly", *income.CompensationUnit)
	require.NotNil(t, income.PayFrequency)
	assert.Equal(t, "biweekly", *income.PayFrequency)
}

func TestTransformGig_Argyle(t *testing.T) {
	gig, err := transformer.TransformGig(models.SourceArgyle, map[string]any{
		"account":        "acct-1",
		"type":           "delivery",
		"status":         "completed",
		"start_datetime": "2026-08-10T09:00:00Z",
		"end_datetime":   "2026-08-10T12:30:00Z",
		"duration":       float64(12600),
		"income": map[string]any{
			"pay": "41.25",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "acct-1", gig.AccountID)
	require.NotNil(t, gig.GigType)
	assert.Equal(t, "delivery", *gig.GigType)
	require.NotNil(t, gig.StartDate)
	assert.Equal(t, "2026-08-10", *gig.StartDate)
	require.NotNil(t, gig.Hours)
	assert.Equal(t, 3.5, *gig.Hours)
	require.NotNil(t, gig.Amount)
	assert.Equal(t, 41.25, *gig.Amount)
}

func TestClassifyEmploymentType(t *testing.T) {
	cases := []struct {
		raw  any
		want models.EmploymentType
	}{
		{"contractor", models.EmploymentTypeGig},
		{"freelance", models.EmploymentTypeGig},
		{"gig", models.EmploymentTypeGig},
		{"full-time", models.EmploymentTypeW2},
		{"part-time", models.EmploymentTypeW2},
		{"seasonal", models.EmploymentTypeW2},
		{nil, models.EmploymentTypeUnknown},
		{"", models.EmploymentTypeUnknown},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, transformer.ClassifyEmploymentType(tc.raw), "raw=%v", tc.raw)
	}
}

func TestCheckHours_Argyle(t *testing.T) {
	valid := argylePaystubFixture()
	warnings := transformer.CheckHours(models.SourceArgyle, []map[string]any{valid})
	assert.False(t, warnings.Any())

	outOfRange := argylePaystubFixture()
	outOfRange["hours"] = "999999"
	warnings = transformer.CheckHours(models.SourceArgyle, []map[string]any{outOfRange})
	require.Len(t, warnings, 1)
	assert.Equal(t, "hours", warnings[0].Field)
	assert.Equal(t, "Invalid value received for hours.", warnings[0].Message)
	assert.Equal(t, "Hours Invalid value received for hours.", warnings.Join())

	badLine := argylePaystubFixture()
	badLine["gross_pay_list"] = []any{
		map[string]any{"type": "base", "hours": "abc", "amount": "100.00"},
	}
	warnings = transformer.CheckHours(models.SourceArgyle, []map[string]any{badLine})
	require.Len(t, warnings, 1)

	// One warning per offending paystub.
	warnings = transformer.CheckHours(models.SourceArgyle, []map[string]any{outOfRange, badLine, valid})
	assert.Len(t, warnings, 2)
}

func TestTransform_UnknownAggregator(t *testing.T) {
	_, err := transformer.TransformPaystub(models.SourceAggregator("adp"), map[string]any{})
	require.Error(t, err)
	assert.ErrorIs(t, err, transformer.ErrUnknownAggregator)
}
