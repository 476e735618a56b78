package scorer

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-api/internal/config"
	"github.com/sells-group/lead-api/internal/model"
)

// ErrNotEnriched is returned when scoring a lead that skipped enrichment.
var ErrNotEnriched = eris.New("lead is not enriched")

var seniorityFactor = map[model.Seniority]float64{
	model.SeniorityCLevel:     1.0,
	model.SeniorityDirector:   0.8,
	model.SeniorityManager:    0.5,
	model.SeniorityIndividual: 0.2,
}

var sizeFactor = map[model.SizeBucket]float64{
	model.SizeEnterprise: 1.0,
	model.SizeLarge:      0.8,
	model.SizeMedium:     0.6,
	model.SizeSmall:      0.4,
	model.SizeMicro:      0.2,
}

var budgetFactor = map[model.BudgetTier]float64{
	model.BudgetHigh: 1.0,
	model.BudgetMid:  0.6,
	model.BudgetLow:  0.3,
}

var sourceFactor = map[model.SourceChannel]float64{
	model.SourceReferral: 1.0,
	model.SourceEvent:    0.7,
	model.SourceOrganic:  0.6,
	model.SourcePaid:     0.4,
	model.SourceOther:    0.2,
}

// Breakdown holds the points each signal contributed to a score.
type Breakdown struct {
	CorporateEmail float64 `json:"corporate_email"`
	Phone          float64 `json:"phone"`
	Seniority      float64 `json:"seniority"`
	CompanySize    float64 `json:"company_size"`
	Budget         float64 `json:"budget"`
	Intent         float64 `json:"intent"`
	Source         float64 `json:"source"`
	Final          int     `json:"final"`
}

// LeadScorer scores enriched leads with configurable weights. It holds no
// mutable state and is safe for concurrent use.
type LeadScorer struct {
	cfg config.ScoringConfig
}

// New validates cfg and returns a LeadScorer.
func New(cfg config.ScoringConfig) (*LeadScorer, error) {
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return &LeadScorer{cfg: cfg}, nil
}

// Score returns the lead's score in [0, 100].
func (s *LeadScorer) Score(lead *model.EnrichedLead) (int, error) {
	b, err := s.Breakdown(lead)
	if err != nil {
		return 0, err
	}
	return b.Final, nil
}

// Breakdown returns per-signal points and the capped final score.
func (s *LeadScorer) Breakdown(lead *model.EnrichedLead) (Breakdown, error) {
	if lead == nil || lead.EnrichedAt.IsZero() {
		return Breakdown{}, eris.Wrap(ErrNotEnriched, "scorer: score lead")
	}

	c := s.cfg
	var b Breakdown
	if lead.CorporateEmail {
		b.CorporateEmail = float64(c.CorporateEmailWeight)
	}
	if lead.HasPhone {
		b.Phone = float64(c.PhoneWeight)
	}
	b.Seniority = seniorityFactor[lead.Seniority] * float64(c.SeniorityWeight)
	b.CompanySize = sizeFactor[lead.CompanySizeBucket] * float64(c.CompanySizeWeight)
	b.Budget = budgetFactor[lead.BudgetTier] * float64(c.BudgetWeight)
	b.Intent = float64(min(len(lead.IntentSignals), c.IntentCap) * c.IntentWeight)
	b.Source = sourceFactor[lead.SourceChannel] * float64(c.SourceWeight)

	total := b.CorporateEmail + b.Phone + b.Seniority + b.CompanySize + b.Budget + b.Intent + b.Source
	b.Final = max(0, min(100, int(math.Round(total))))
	return b, nil
}

// Category maps a score onto hot, warm or cold.
func (s *LeadScorer) Category(score int) model.Category {
	switch {
	case score >= s.cfg.HotThreshold:
		return model.CategoryHot
	case score >= s.cfg.WarmThreshold:
		return model.CategoryWarm
	default:
		return model.CategoryCold
	}
}
