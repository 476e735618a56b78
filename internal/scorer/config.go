// Package scorer computes lead scores from enriched lead attributes.
package scorer

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-api/internal/config"
)

// DefaultScoringConfig returns a config.ScoringConfig with sensible defaults.
// The weights add up to 110 before the 100 cap so a lead does not need every
// signal to reach the top of the range.
func DefaultScoringConfig() config.ScoringConfig {
	return config.ScoringConfig{
		CorporateEmailWeight: 20,
		PhoneWeight:          10,
		SeniorityWeight:      25,
		CompanySizeWeight:    15,
		BudgetWeight:         15,
		IntentWeight:         5,
		IntentCap:            3,
		SourceWeight:         10,

		HotThreshold:  70,
		WarmThreshold: 40,
	}
}

// MaxRawScore returns the uncapped maximum a lead can reach under c.
func MaxRawScore(c config.ScoringConfig) int {
	return c.CorporateEmailWeight + c.PhoneWeight + c.SeniorityWeight +
		c.CompanySizeWeight + c.BudgetWeight + c.IntentWeight*c.IntentCap + c.SourceWeight
}

// ValidateConfig checks that a ScoringConfig is internally consistent.
func ValidateConfig(c config.ScoringConfig) error {
	var errs []string

	weights := map[string]int{
		"corporate_email_weight": c.CorporateEmailWeight,
		"phone_weight":           c.PhoneWeight,
		"seniority_weight":       c.SeniorityWeight,
		"company_size_weight":    c.CompanySizeWeight,
		"budget_weight":          c.BudgetWeight,
		"intent_weight":          c.IntentWeight,
		"intent_cap":             c.IntentCap,
		"source_weight":          c.SourceWeight,
	}
	for name, w := range weights {
		if w < 0 {
			errs = append(errs, fmt.Sprintf("%s must be >= 0", name))
		}
	}

	if MaxRawScore(c) <= 0 {
		errs = append(errs, "weight sum must be > 0")
	}

	if c.WarmThreshold < 0 || c.HotThreshold > 100 {
		errs = append(errs, "thresholds must be between 0 and 100")
	}
	if c.HotThreshold < c.WarmThreshold {
		errs = append(errs, "hot_threshold must be >= warm_threshold")
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
