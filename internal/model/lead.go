package model

import "time"

// Lead is a raw sales contact as submitted by a form, file or CRM queue.
type Lead struct {
	Name        string   `json:"name"`
	Email       string   `json:"email,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	Company     string   `json:"company,omitempty"`
	JobTitle    string   `json:"job_title,omitempty"`
	Industry    string   `json:"industry,omitempty"`
	Country     string   `json:"country,omitempty"`
	City        string   `json:"city,omitempty"`
	Source      string   `json:"source,omitempty"`
	Budget      float64  `json:"budget,omitempty"`
	CompanySize int      `json:"company_size,omitempty"` // employees
	Message     string   `json:"message,omitempty"`
	Interests   []string `json:"interests,omitempty"`
}

// Seniority is the decision-making level inferred from a job title.
type Seniority string

const (
	SeniorityCLevel     Seniority = "c_level"
	SeniorityDirector   Seniority = "director"
	SeniorityManager    Seniority = "manager"
	SeniorityIndividual Seniority = "individual"
	SeniorityUnknown    Seniority = "unknown"
)

// SizeBucket groups companies by headcount.
type SizeBucket string

const (
	SizeUnknown    SizeBucket = "unknown"
	SizeMicro      SizeBucket = "micro"      // 1-9
	SizeSmall      SizeBucket = "small"      // 10-49
	SizeMedium     SizeBucket = "medium"     // 50-249
	SizeLarge      SizeBucket = "large"      // 250-999
	SizeEnterprise SizeBucket = "enterprise" // 1000+
)

// BudgetTier groups declared budgets.
type BudgetTier string

const (
	BudgetNone BudgetTier = "none"
	BudgetLow  BudgetTier = "low"
	BudgetMid  BudgetTier = "mid"
	BudgetHigh BudgetTier = "high"
)

// SourceChannel is the normalized acquisition channel of a lead.
type SourceChannel string

const (
	SourceReferral SourceChannel = "referral"
	SourceOrganic  SourceChannel = "organic"
	SourcePaid     SourceChannel = "paid"
	SourceEvent    SourceChannel = "event"
	SourceOther    SourceChannel = "other"
)

// Category is the sales temperature derived from the score.
type Category string

const (
	CategoryHot  Category = "hot"
	CategoryWarm Category = "warm"
	CategoryCold Category = "cold"
)

// EnrichedLead is a Lead plus derived fields, score and explanation.
// A single worker owns an EnrichedLead for its whole lifetime.
type EnrichedLead struct {
	Lead

	ID                string        `json:"id"`
	EmailDomain       string        `json:"email_domain,omitempty"`
	CorporateEmail    bool          `json:"corporate_email"`
	PhoneDigits       string        `json:"phone_digits,omitempty"`
	HasPhone          bool          `json:"has_phone"`
	Seniority         Seniority     `json:"seniority"`
	CompanySizeBucket SizeBucket    `json:"company_size_bucket"`
	BudgetTier        BudgetTier    `json:"budget_tier"`
	IntentSignals     []string      `json:"intent_signals"`
	SourceChannel     SourceChannel `json:"source_channel"`
	EnrichedAt        time.Time     `json:"enriched_at"`

	Score       int      `json:"score"`
	Category    Category `json:"category,omitempty"`
	Explanation string   `json:"explanation"`

	CreatedAt time.Time `json:"created_at,omitzero"`
}
