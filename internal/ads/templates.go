package ads

import (
	_ "embed"
	"math"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/lead-api/internal/model"
)

//go:embed templates.yaml
var defaultTemplates []byte

// Objectives lists the campaign objectives every channel must configure.
var Objectives = []model.AdObjective{
	model.ObjectiveAwareness,
	model.ObjectiveTraffic,
	model.ObjectiveLeads,
	model.ObjectiveSales,
}

// Templates is the channel catalog loaded from YAML.
type Templates struct {
	DefaultChannels []string                   `yaml:"default_channels"`
	Channels        map[string]ChannelTemplate `yaml:"channels"`
}

// ChannelTemplate configures one ad channel.
type ChannelTemplate struct {
	DisplayName string                        `yaml:"display_name"`
	BidStrategy map[model.AdObjective]string  `yaml:"bid_strategy"`
	KPI         map[model.AdObjective]string  `yaml:"kpi"`
	Weight      map[model.AdObjective]float64 `yaml:"weight"`
	Audiences   []AudienceTemplate            `yaml:"audiences"`
	Copy        map[string]CopyTemplate       `yaml:"copy"`
}

// AudienceTemplate is one audience split within a channel.
type AudienceTemplate struct {
	Key   string  `yaml:"key"`
	Label string  `yaml:"label"`
	Share float64 `yaml:"share"`
}

// CopyTemplate holds ad copy with {product}, {interest}, {audience} and
// {audience_lower} placeholders.
type CopyTemplate struct {
	Headline string `yaml:"headline"`
	Body     string `yaml:"body"`
	CTA      string `yaml:"cta"`
}

// LoadTemplates reads templates from path, or the embedded defaults when
// path is empty.
func LoadTemplates(path string) (*Templates, error) {
	data := defaultTemplates
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, eris.Wrapf(err, "ads: read templates %s", path)
		}
		data = b
	}

	var t Templates
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, eris.Wrap(err, "ads: parse templates")
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *Templates) validate() error {
	if len(t.Channels) == 0 {
		return eris.New("ads: templates define no channels")
	}
	for _, name := range t.DefaultChannels {
		if _, ok := t.Channels[name]; !ok {
			return eris.Errorf("ads: default channel %q is not defined", name)
		}
	}
	for name, ch := range t.Channels {
		for _, obj := range Objectives {
			if ch.BidStrategy[obj] == "" || ch.KPI[obj] == "" {
				return eris.Errorf("ads: channel %s missing bid_strategy or kpi for %s", name, obj)
			}
			if ch.Weight[obj] <= 0 {
				return eris.Errorf("ads: channel %s weight for %s must be > 0", name, obj)
			}
		}
		if len(ch.Audiences) == 0 {
			return eris.Errorf("ads: channel %s has no audiences", name)
		}
		var sum float64
		for _, a := range ch.Audiences {
			if a.Key == "" || a.Share <= 0 {
				return eris.Errorf("ads: channel %s has an audience without key or positive share", name)
			}
			sum += a.Share
		}
		if math.Abs(sum-1) > 1e-6 {
			return eris.Errorf("ads: channel %s audience shares sum to %.4f, want 1", name, sum)
		}
		if _, ok := ch.Copy[defaultLanguage]; !ok {
			return eris.Errorf("ads: channel %s has no %q copy", name, defaultLanguage)
		}
	}
	return nil
}
