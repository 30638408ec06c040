/*
Package factory provides JSON to Go rate-policy conversion.

PURPOSE:
  Converts JSON rate-policy definitions into billing.RatePolicy values.
  This enables tuning the reconciliation arithmetic without code changes -
  the billing desk can adjust shares and floors in a config file, and the
  factory creates the proper Go struct.

WHY JSON?
  - Non-developers can adjust rates
  - Version control for policy definitions
  - Per-deployment overrides without rebuilds

JSON SCHEMA:
  {
    "days_per_month": 30,
    "patient_share": 0.2,
    "min_gap_daily_rate": 1,
    "open_ended_horizon_days": 30
  }

  Every field is optional; omitted fields take the engine defaults.

USAGE:
  policy, err := factory.ParsePolicy(jsonString)
  // or from a file
  policy, err := factory.LoadPolicyFile("policy.json")

SEE ALSO:
  - billing/policy.go: RatePolicy definition and defaults
  - cmd/server/main.go: -policy flag
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/shopspring/decimal"

	"github.com/medrent/billing-engine/billing"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// PolicyJSON is the JSON representation of a rate policy.
type PolicyJSON struct {
	DaysPerMonth         *int     `json:"days_per_month,omitempty"`
	PatientShare         *float64 `json:"patient_share,omitempty"`
	MinGapDailyRate      *float64 `json:"min_gap_daily_rate,omitempty"`
	OpenEndedHorizonDays *int     `json:"open_ended_horizon_days,omitempty"`
}

// =============================================================================
// PARSING
// =============================================================================

// ParsePolicy converts a JSON string into a RatePolicy, applying defaults
// for omitted fields.
func ParsePolicy(jsonStr string) (billing.RatePolicy, error) {
	var pj PolicyJSON
	if err := json.Unmarshal([]byte(jsonStr), &pj); err != nil {
		return billing.RatePolicy{}, fmt.Errorf("invalid policy JSON: %w", err)
	}
	return FromJSON(pj)
}

// FromJSON builds a RatePolicy from its JSON schema form.
func FromJSON(pj PolicyJSON) (billing.RatePolicy, error) {
	policy := billing.DefaultRatePolicy()

	if pj.DaysPerMonth != nil {
		if *pj.DaysPerMonth <= 0 {
			return billing.RatePolicy{}, fmt.Errorf("days_per_month must be positive, got %d", *pj.DaysPerMonth)
		}
		policy.DaysPerMonth = decimal.NewFromInt(int64(*pj.DaysPerMonth))
	}
	if pj.PatientShare != nil {
		if *pj.PatientShare < 0 || *pj.PatientShare > 1 {
			return billing.RatePolicy{}, fmt.Errorf("patient_share must be in [0, 1], got %v", *pj.PatientShare)
		}
		policy.PatientShare = decimal.NewFromFloat(*pj.PatientShare)
	}
	if pj.MinGapDailyRate != nil {
		if *pj.MinGapDailyRate < 0 {
			return billing.RatePolicy{}, fmt.Errorf("min_gap_daily_rate cannot be negative, got %v", *pj.MinGapDailyRate)
		}
		policy.MinGapDailyRate = decimal.NewFromFloat(*pj.MinGapDailyRate)
	}
	if pj.OpenEndedHorizonDays != nil {
		if *pj.OpenEndedHorizonDays <= 0 {
			return billing.RatePolicy{}, fmt.Errorf("open_ended_horizon_days must be positive, got %d", *pj.OpenEndedHorizonDays)
		}
		policy.OpenEndedHorizonDays = *pj.OpenEndedHorizonDays
	}

	return policy, nil
}

// LoadPolicyFile reads and parses a rate policy from a JSON file.
func LoadPolicyFile(path string) (billing.RatePolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return billing.RatePolicy{}, fmt.Errorf("failed to read policy file: %w", err)
	}
	return ParsePolicy(string(data))
}

// ToJSON converts a RatePolicy back to its JSON schema form.
func ToJSON(policy billing.RatePolicy) PolicyJSON {
	days := int(policy.DaysPerMonth.IntPart())
	share, _ := policy.PatientShare.Float64()
	floor, _ := policy.MinGapDailyRate.Float64()
	return PolicyJSON{
		DaysPerMonth:         &days,
		PatientShare:         &share,
		MinGapDailyRate:      &floor,
		OpenEndedHorizonDays: &policy.OpenEndedHorizonDays,
	}
}
