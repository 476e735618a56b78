// Package ads splits a campaign budget into channel audience segments and
// renders preview copy for each segment.
package ads

import (
	"math"
	"slices"
	"sort"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/lead-api/internal/model"
)

// ErrInvalidRequest is wrapped by every request validation failure.
var ErrInvalidRequest = eris.New("invalid ad campaign request")

const (
	defaultLanguage = "en"
	defaultAgeMin   = 18
	defaultAgeMax   = 65
	minAge          = 13
	maxAge          = 65
	maxDuration     = 365
	// maxBudget keeps budget*100 well inside int64 cents.
	maxBudget       = 1e12
)

// Planner builds ad plans from channel templates. Safe for concurrent use.
type Planner struct {
	tmpl *Templates
}

// NewPlanner loads templates from path, or the embedded set when path is empty.
func NewPlanner(path string) (*Planner, error) {
	t, err := LoadTemplates(path)
	if err != nil {
		return nil, err
	}
	return &Planner{tmpl: t}, nil
}

// Channels returns the configured channel names, sorted.
func (p *Planner) Channels() []string {
	names := make([]string, 0, len(p.tmpl.Channels))
	for name := range p.tmpl.Channels {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BuildPlan validates req and splits its budget across one segment per
// channel audience. Shares sum to 1 and segment daily budgets, in cents, sum
// to the plan's daily budget.
func (p *Planner) BuildPlan(req model.AdCampaignRequest) (*model.AdPlan, error) {
	req, channels, err := p.normalize(req)
	if err != nil {
		return nil, err
	}

	var weightSum float64
	for _, name := range channels {
		weightSum += p.tmpl.Channels[name].Weight[req.Objective]
	}

	var segments []model.AdSegment
	var shares []float64
	for _, name := range channels {
		ch := p.tmpl.Channels[name]
		channelShare := ch.Weight[req.Objective] / weightSum
		for _, aud := range ch.Audiences {
			share := channelShare * aud.Share
			shares = append(shares, share)
			segments = append(segments, model.AdSegment{
				Name:        name + "_" + aud.Key,
				Channel:     name,
				Audience:    aud.Label,
				Locations:   slices.Clone(req.Locations),
				AgeMin:      req.AgeMin,
				AgeMax:      req.AgeMax,
				Interests:   slices.Clone(req.Interests),
				BudgetShare: round(share, 4),
				BidStrategy: ch.BidStrategy[req.Objective],
				KPI:         ch.KPI[req.Objective],
			})
		}
	}

	dailyCents := int64(math.Round(req.TotalBudget * 100 / float64(req.DurationDays)))
	totalCents := int64(math.Round(req.TotalBudget * 100))
	daily := allocateCents(dailyCents, shares)
	total := allocateCents(totalCents, shares)
	for i := range segments {
		segments[i].DailyBudget = float64(daily[i]) / 100
		segments[i].TotalBudget = float64(total[i]) / 100
	}
	fixShares(segments)

	return &model.AdPlan{
		Product:      req.Product,
		Objective:    req.Objective,
		TotalBudget:  req.TotalBudget,
		DurationDays: req.DurationDays,
		DailyBudget:  float64(dailyCents) / 100,
		Segments:     segments,
	}, nil
}

// BuildPreviews renders one preview per plan segment in req.Language,
// falling back to English copy.
func (p *Planner) BuildPreviews(plan *model.AdPlan, req model.AdCampaignRequest) []model.AdPreview {
	if plan == nil {
		return []model.AdPreview{}
	}
	lang := strings.ToLower(strings.TrimSpace(req.Language))

	previews := make([]model.AdPreview, 0, len(plan.Segments))
	for _, seg := range plan.Segments {
		ch, ok := p.tmpl.Channels[seg.Channel]
		if !ok {
			continue
		}
		copyTmpl, ok := ch.Copy[lang]
		if !ok {
			copyTmpl = ch.Copy[defaultLanguage]
		}

		interest := plan.Product
		if len(seg.Interests) > 0 {
			interest = seg.Interests[0]
		}
		r := strings.NewReplacer(
			"{product}", plan.Product,
			"{interest}", interest,
			"{audience}", seg.Audience,
			"{audience_lower}", strings.ToLower(seg.Audience),
		)
		previews = append(previews, model.AdPreview{
			Segment:  seg.Name,
			Channel:  seg.Channel,
			Headline: r.Replace(copyTmpl.Headline),
			Body:     r.Replace(copyTmpl.Body),
			CTA:      r.Replace(copyTmpl.CTA),
		})
	}
	return previews
}

// normalize applies defaults, validates and returns the selected channels.
func (p *Planner) normalize(req model.AdCampaignRequest) (model.AdCampaignRequest, []string, error) {
	req.Product = strings.TrimSpace(req.Product)
	req.Objective = model.AdObjective(strings.ToLower(strings.TrimSpace(string(req.Objective))))
	if req.AgeMin == 0 && req.AgeMax == 0 {
		req.AgeMin, req.AgeMax = defaultAgeMin, defaultAgeMax
	}
	req.Locations = cleanList(req.Locations)
	req.Interests = cleanList(req.Interests)

	var errs []string
	if req.Product == "" {
		errs = append(errs, "product is required")
	}
	if !slices.Contains(Objectives, req.Objective) {
		errs = append(errs, "unknown objective "+string(req.Objective))
	}
	if req.TotalBudget <= 0 || math.IsNaN(req.TotalBudget) || math.IsInf(req.TotalBudget, 0) {
		errs = append(errs, "total_budget must be > 0")
	} else if req.TotalBudget > maxBudget {
		errs = append(errs, "total_budget must be at most 1000000000000")
	}
	if req.DurationDays < 1 || req.DurationDays > maxDuration {
		errs = append(errs, "duration_days must be between 1 and 365")
	}
	if req.AgeMin < minAge || req.AgeMax > maxAge || req.AgeMin > req.AgeMax {
		errs = append(errs, "ages must satisfy 13 <= age_min <= age_max <= 65")
	}

	channels := cleanList(req.Channels)
	for i := range channels {
		channels[i] = strings.ToLower(channels[i])
	}
	channels = dedupe(channels)
	if len(channels) == 0 {
		channels = slices.Clone(p.tmpl.DefaultChannels)
	}
	for _, c := range channels {
		if _, ok := p.tmpl.Channels[c]; !ok {
			errs = append(errs, "unknown channel "+c)
		}
	}
	req.Channels = channels

	if len(errs) > 0 {
		return req, nil, eris.Wrap(ErrInvalidRequest, strings.Join(errs, "; "))
	}
	return req, channels, nil
}

// allocateCents splits total across shares by the largest remainder method,
// so the parts always sum to total.
func allocateCents(total int64, shares []float64) []int64 {
	out := make([]int64, len(shares))
	if len(shares) == 0 {
		return out
	}

	type rem struct {
		idx  int
		frac float64
	}
	rems := make([]rem, len(shares))
	var assigned int64
	for i, s := range shares {
		exact := float64(total) * s
		out[i] = int64(math.Floor(exact))
		assigned += out[i]
		rems[i] = rem{idx: i, frac: exact - math.Floor(exact)}
	}

	sort.SliceStable(rems, func(a, b int) bool { return rems[a].frac > rems[b].frac })
	for i := int64(0); i < total-assigned; i++ {
		out[rems[i%int64(len(rems))].idx]++
	}
	return out
}

// fixShares makes the rounded shares sum to exactly 1 by adjusting the
// largest segment.
func fixShares(segments []model.AdSegment) {
	if len(segments) == 0 {
		return
	}
	var sum float64
	largest := 0
	for i, s := range segments {
		sum += s.BudgetShare
		if s.BudgetShare > segments[largest].BudgetShare {
			largest = i
		}
	}
	segments[largest].BudgetShare = round(segments[largest].BudgetShare+1-sum, 4)
}

func round(v float64, places int) float64 {
	p := math.Pow10(places)
	return math.Round(v*p) / p
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func dedupe(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := in[:0]
	for _, s := range in {
		if !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}
