package models

// SourceAggregator identifies which payroll aggregator produced a raw payload.
// Transformers dispatch on this value.
type SourceAggregator string

const (
	SourceArgyle   SourceAggregator = "argyle"
	SourcePinwheel SourceAggregator = "pinwheel"
)

// Valid reports whether s names a supported aggregator.
func (s SourceAggregator) Valid() bool {
	return s == SourceArgyle || s == SourcePinwheel
}

// EmploymentType classifies a job for retrieval-window and validation purposes.
type EmploymentType string

const (
	EmploymentTypeW2      EmploymentType = "w2"
	EmploymentTypeGig     EmploymentType = "gig"
	EmploymentTypeUnknown EmploymentType = "unknown"
)

// Identity is the applicant identity reported by an aggregator for one
// payroll account.
type Identity struct {
	AccountID   string
	FullName    string
	DateOfBirth *string // "2006-01-02", nil when absent or unparsable
}

// Employment is one job attached to a payroll account.
// Dates are normalized "2006-01-02" strings; nil when the source omitted the
// value or sent something unparsable.
type Employment struct {
	AccountID       string
	EmployerName    string
	EmploymentType  EmploymentType
	StartDate       *string
	TerminationDate *string
	Status          *string
}

// Income holds the normalized compensation figures tied to an identity.
type Income struct {
	AccountID          string
	CompensationAmount *float64
	CompensationUnit   *string
	PayFrequency       *string
	Currency           *string
}

// Earning is one line item on a paystub.
type Earning struct {
	Category string
	Name     *string
	Rate     *float64
	Hours    *float64
	Amount   *float64
}

// Deduction is one deduction line on a paystub.
// Tax is the tax classification, "unknown" when the source omitted it.
type Deduction struct {
	Category string
	Tax      string
	Amount   *float64
}

// Paystub is a normalized paystub from either aggregator.
// Amounts are dollars regardless of the source's minor-unit convention.
type Paystub struct {
	ID                     *string
	AccountID              string
	GrossPayAmount         *float64
	NetPayAmount           *float64
	GrossPayYTD            *float64
	PayPeriodStart         *string
	PayPeriodEnd           *string
	PayDate                *string
	Hours                  *float64
	HoursByEarningCategory map[string]float64
	Earnings               []Earning
	Deductions             []Deduction
	EmploymentID           *string // not provided by all sources
}

// Gig is a single gig-platform work record (non-W2 work).
type Gig struct {
	AccountID string
	GigType   *string
	GigStatus *string
	StartDate *string
	EndDate   *string
	Hours     *float64
	Amount    *float64
}

// AccountReport is the aggregated payroll data for a single employer account.
// It is a read-only slice assembled by Report.FindAccountReport and is the
// unit validated by the useful-report validator.
type AccountReport struct {
	AccountID  string
	Identity   *Identity
	Employment *Employment
	Income     *Income
	Paystubs   []Paystub
	Gigs       []Gig
}

// Identities returns the identity as a slice (empty when absent).
func (r AccountReport) Identities() []Identity {
	if r.Identity == nil {
		return nil
	}
	return []Identity{*r.Identity}
}

// Employments returns the employment as a slice (empty when absent).
func (r AccountReport) Employments() []Employment {
	if r.Employment == nil {
		return nil
	}
	return []Employment{*r.Employment}
}

// Incomes returns the income as a slice (empty when absent).
func (r AccountReport) Incomes() []Income {
	if r.Income == nil {
		return nil
	}
	return []Income{*r.Income}
}

// PayrollAccount is a read-only reference to a linked payroll account.
// FlowID attributes telemetry to the owning verification flow.
type PayrollAccount struct {
	ID                    int64
	FlowID                int64
	AggregatorAccountID   string
	Aggregator            SourceAggregator
	SynchronizationStatus string
}
