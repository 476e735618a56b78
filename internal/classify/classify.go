// Package classify asks Claude for a short sales-facing explanation of a
// scored lead.
package classify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/lead-api/internal/config"
	"github.com/sells-group/lead-api/internal/model"
	"github.com/sells-group/lead-api/internal/resilience"
	"github.com/sells-group/lead-api/pkg/anthropic"
)

const systemPrompt = `You are a B2B sales analyst. Given a lead that has already been scored from 0 to 100 and categorized as hot, warm or cold, explain in two or three sentences why it received that score and what the sales team should do next. Reply in the language of the lead's message when there is one, otherwise in English. Reply with plain text only.`

// leadSummary is the subset of an enriched lead sent to the model.
type leadSummary struct {
	Name           string   `json:"name"`
	Company        string   `json:"company,omitempty"`
	JobTitle       string   `json:"job_title,omitempty"`
	Industry       string   `json:"industry,omitempty"`
	Country        string   `json:"country,omitempty"`
	Seniority      string   `json:"seniority"`
	CompanySize    string   `json:"company_size"`
	BudgetTier     string   `json:"budget_tier"`
	CorporateEmail bool     `json:"corporate_email"`
	HasPhone       bool     `json:"has_phone"`
	Source         string   `json:"source_channel"`
	IntentSignals  []string `json:"intent_signals,omitempty"`
	Message        string   `json:"message,omitempty"`
	Score          int      `json:"score"`
	Category       string   `json:"category"`
}

// Classifier produces AI explanations. A single Classifier is shared by all
// bulk import workers; its limiter bounds the request rate across them.
type Classifier struct {
	client  anthropic.Client
	cfg     config.AnthropicConfig
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// New creates a Classifier. A non-positive RateLimitRPS disables throttling.
func New(client anthropic.Client, cfg config.AnthropicConfig) *Classifier {
	limit := rate.Inf
	if cfg.RateLimitRPS > 0 {
		limit = rate.Limit(cfg.RateLimitRPS)
	}
	retry := resilience.DefaultRetryConfig().WithMaxAttempts(cfg.MaxRetries)
	retry.OnRetry = resilience.RetryLogger("anthropic", "explain_lead")

	return &Classifier{
		client:  client,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		retry:   retry,
	}
}

// Explain returns the model's explanation for an already scored lead.
func (c *Classifier) Explain(ctx context.Context, lead *model.EnrichedLead) (string, error) {
	if lead == nil {
		return "", eris.New("classify: nil lead")
	}

	prompt, err := buildPrompt(lead)
	if err != nil {
		return "", err
	}

	temp := 0.0
	req := anthropic.MessageRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		System:      systemPrompt,
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
		Temperature: &temp,
	}

	resp, err := resilience.DoVal(ctx, c.retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "classify: rate limit wait")
		}
		return c.client.CreateMessage(ctx, req)
	})
	if err != nil {
		return "", eris.Wrap(err, "classify: explain lead")
	}

	resp.Usage.LogCost(c.cfg.Model, "explain_lead")

	text := resp.Text()
	if text == "" {
		return "", eris.Errorf("classify: empty response (stop_reason=%s)", resp.StopReason)
	}

	zap.L().Debug("classify: explained lead",
		zap.String("lead_id", lead.ID),
		zap.Int("score", lead.Score),
		zap.Int64("output_tokens", resp.Usage.OutputTokens),
	)
	return text, nil
}

func buildPrompt(lead *model.EnrichedLead) (string, error) {
	summary := leadSummary{
		Name:           lead.Name,
		Company:        lead.Company,
		JobTitle:       lead.JobTitle,
		Industry:       lead.Industry,
		Country:        lead.Country,
		Seniority:      string(lead.Seniority),
		CompanySize:    string(lead.CompanySizeBucket),
		BudgetTier:     string(lead.BudgetTier),
		CorporateEmail: lead.CorporateEmail,
		HasPhone:       lead.HasPhone,
		Source:         string(lead.SourceChannel),
		IntentSignals:  lead.IntentSignals,
		Message:        lead.Message,
		Score:          lead.Score,
		Category:       string(lead.Category),
	}
	b, err := json.MarshalIndent(summary, "", "  ")
	if err != nil {
		return "", eris.Wrap(err, "classify: marshal lead summary")
	}
	return fmt.Sprintf("Lead:\n%s", b), nil
}

// Fallback is the explanation used when a lead is processed without AI.
func Fallback(score int) string {
	return fmt.Sprintf("Processed in batch without AI. Score: %d.", score)
}
