// Package transformer converts raw aggregator API payloads into normalized
// domain records.
//
// Each record type has one conversion entry point dispatched on the source
// aggregator. The per-source mapping rules live in argyle.go and pinwheel.go:
//   - Currency: Argyle decimal strings and Pinwheel cents both normalize to
//     dollar amounts; absent values stay nil, never zero.
//   - Dates: per-source formats normalize to "2006-01-02"; unparsable values
//     stay nil rather than failing.
//   - Hours: the reported top-level figure wins when it is a finite number in
//     [0, 10000], otherwise the total is recomputed from the earnings
//     breakdown. Out-of-range or non-numeric hours are reported as non-fatal
//     warnings via CheckHours.
//
// Malformed individual records never abort a batch: missing sub-objects
// null-fill the affected fields and conversion continues.
package transformer

import (
	"errors"
	"fmt"

	"payroll-report-aggregator/internal/models"
)

// ErrUnknownAggregator indicates a payload tagged with an unsupported source.
var ErrUnknownAggregator = errors.New("unknown source aggregator")

// MaxReasonableHours is the upper bound of the valid hours range. Values
// above it (a known upstream data-quality issue) are treated as invalid.
const MaxReasonableHours = 10000

// TransformIdentity converts one raw identity object.
func TransformIdentity(source models.SourceAggregator, raw map[string]any) (models.Identity, error) {
	switch source {
	case models.SourceArgyle:
		return identityFromArgyle(raw), nil
	case models.SourcePinwheel:
		return identityFromPinwheel(raw), nil
	default:
		return models.Identity{}, fmt.Errorf("%w: %q", ErrUnknownAggregator, source)
	}
}

// TransformEmployment converts one raw object into an employment record.
// For Argyle the employment fields ride on the identity object; for Pinwheel
// the client merges its identity/employment endpoints into one object.
func TransformEmployment(source models.SourceAggregator, raw map[string]any) (models.Employment, error) {
	switch source {
	case models.SourceArgyle:
		return employmentFromArgyle(raw), nil
	case models.SourcePinwheel:
		return employmentFromPinwheel(raw), nil
	default:
		return models.Employment{}, fmt.Errorf("%w: %q", ErrUnknownAggregator, source)
	}
}

// TransformIncome converts one raw object into an income record.
func TransformIncome(source models.SourceAggregator, raw map[string]any) (models.Income, error) {
	switch source {
	case models.SourceArgyle:
		return incomeFromArgyle(raw), nil
	case models.SourcePinwheel:
		return incomeFromPinwheel(raw), nil
	default:
		return models.Income{}, fmt.Errorf("%w: %q", ErrUnknownAggregator, source)
	}
}

// TransformPaystub converts one raw paystub object.
func TransformPaystub(source models.SourceAggregator, raw map[string]any) (models.Paystub, error) {
	switch source {
	case models.SourceArgyle:
		return paystubFromArgyle(raw), nil
	case models.SourcePinwheel:
		return paystubFromPinwheel(raw), nil
	default:
		return models.Paystub{}, fmt.Errorf("%w: %q", ErrUnknownAggregator, source)
	}
}

// TransformGig converts one raw gig work record.
func TransformGig(source models.SourceAggregator, raw map[string]any) (models.Gig, error) {
	switch source {
	case models.SourceArgyle:
		return gigFromArgyle(raw), nil
	case models.SourcePinwheel:
		return gigFromPinwheel(raw), nil
	default:
		return models.Gig{}, fmt.Errorf("%w: %q", ErrUnknownAggregator, source)
	}
}

// ClassifyEmploymentType maps a source employment-type string onto the
// normalized enum. Contract work classifies as gig; an absent value is
// unknown; everything else is treated as W-2 payroll employment.
func ClassifyEmploymentType(raw any) models.EmploymentType {
	value := stringValue(raw)
	switch value {
	case "contractor", "freelance", "gig":
		return models.EmploymentTypeGig
	case "":
		return models.EmploymentTypeUnknown
	default:
		return models.EmploymentTypeW2
	}
}

// CheckHours scans raw paystub payloads for invalid hours values and returns
// one warning per offending paystub. Warnings are telemetry, not errors: they
// never block report construction.
func CheckHours(source models.SourceAggregator, rawPaystubs []map[string]any) models.FieldErrors {
	var warnings models.FieldErrors
	for _, raw := range rawPaystubs {
		switch source {
		case models.SourceArgyle:
			if !argyleHoursOK(raw) {
				warnings.Add("hours", "Invalid value received for hours.")
			}
		case models.SourcePinwheel:
			if !pinwheelHoursOK(raw) {
				warnings.Add("hours", "Invalid value received for hours.")
			}
		}
	}
	return warnings
}
