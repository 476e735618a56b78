package model

// AdObjective is the campaign goal.
type AdObjective string

const (
	ObjectiveAwareness AdObjective = "awareness"
	ObjectiveTraffic   AdObjective = "traffic"
	ObjectiveLeads     AdObjective = "leads"
	ObjectiveSales     AdObjective = "sales"
)

// AdCampaignRequest describes the campaign to segment.
type AdCampaignRequest struct {
	Product      string      `json:"product"`
	Objective    AdObjective `json:"objective"`
	TotalBudget  float64     `json:"total_budget"`
	DurationDays int         `json:"duration_days"`
	Locations    []string    `json:"locations,omitempty"`
	AgeMin       int         `json:"age_min,omitempty"`
	AgeMax       int         `json:"age_max,omitempty"`
	Interests    []string    `json:"interests,omitempty"`
	Channels     []string    `json:"channels,omitempty"`
	Language     string      `json:"language,omitempty"`
}

// AdSegment is one targetable audience on one channel.
type AdSegment struct {
	Name        string   `json:"name"`
	Channel     string   `json:"channel"`
	Audience    string   `json:"audience"`
	Locations   []string `json:"locations"`
	AgeMin      int      `json:"age_min"`
	AgeMax      int      `json:"age_max"`
	Interests   []string `json:"interests"`
	BudgetShare float64  `json:"budget_share"`
	DailyBudget float64  `json:"daily_budget"`
	TotalBudget float64  `json:"total_budget"`
	BidStrategy string   `json:"bid_strategy"`
	KPI         string   `json:"kpi"`
}

// AdPlan is the budgeted set of segments for a campaign.
type AdPlan struct {
	Product      string      `json:"product"`
	Objective    AdObjective `json:"objective"`
	TotalBudget  float64     `json:"total_budget"`
	DurationDays int         `json:"duration_days"`
	DailyBudget  float64     `json:"daily_budget"`
	Segments     []AdSegment `json:"segments"`
}

// AdPreview is sample creative copy for a segment.
type AdPreview struct {
	Segment  string `json:"segment"`
	Channel  string `json:"channel"`
	Headline string `json:"headline"`
	Body     string `json:"body"`
	CTA      string `json:"cta"`
}

// AdSegmentResponse is returned by the segment planning endpoint.
type AdSegmentResponse struct {
	Plan    *AdPlan     `json:"plan"`
	Preview []AdPreview `json:"preview"`
}
