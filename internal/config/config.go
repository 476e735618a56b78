package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Notion    NotionConfig    `yaml:"notion" mapstructure:"notion"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Bulk      BulkConfig      `yaml:"bulk" mapstructure:"bulk"`
	Scoring   ScoringConfig   `yaml:"scoring" mapstructure:"scoring"`
	Ads       AdsConfig       `yaml:"ads" mapstructure:"ads"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// AnthropicConfig holds Anthropic API settings used for lead explanations.
type AnthropicConfig struct {
	Key          string  `yaml:"key" mapstructure:"key"`
	Model        string  `yaml:"model" mapstructure:"model"`
	MaxTokens    int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
	RateLimitRPS float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
	MaxRetries   int     `yaml:"max_retries" mapstructure:"max_retries"`
}

// NotionConfig holds Notion API credentials for the lead queue.
type NotionConfig struct {
	Token  string `yaml:"token" mapstructure:"token"`
	LeadDB string `yaml:"lead_db" mapstructure:"lead_db"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port             int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins   []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	ReadTimeoutSecs  int      `yaml:"read_timeout_secs" mapstructure:"read_timeout_secs"`
	WriteTimeoutSecs int      `yaml:"write_timeout_secs" mapstructure:"write_timeout_secs"`
}

// BulkConfig configures the bulk importer worker pool.
type BulkConfig struct {
	MaxWorkers      int `yaml:"max_workers" mapstructure:"max_workers"`
	ItemTimeoutSecs int `yaml:"item_timeout_secs" mapstructure:"item_timeout_secs"`
	MaxBatchSize    int `yaml:"max_batch_size" mapstructure:"max_batch_size"`
}

// ScoringConfig holds lead scoring weights and category thresholds.
type ScoringConfig struct {
	CorporateEmailWeight int `yaml:"corporate_email_weight" mapstructure:"corporate_email_weight"`
	PhoneWeight          int `yaml:"phone_weight" mapstructure:"phone_weight"`
	SeniorityWeight      int `yaml:"seniority_weight" mapstructure:"seniority_weight"`
	CompanySizeWeight    int `yaml:"company_size_weight" mapstructure:"company_size_weight"`
	BudgetWeight         int `yaml:"budget_weight" mapstructure:"budget_weight"`
	IntentWeight         int `yaml:"intent_weight" mapstructure:"intent_weight"`
	IntentCap            int `yaml:"intent_cap" mapstructure:"intent_cap"`
	SourceWeight         int `yaml:"source_weight" mapstructure:"source_weight"`

	HotThreshold  int `yaml:"hot_threshold" mapstructure:"hot_threshold"`
	WarmThreshold int `yaml:"warm_threshold" mapstructure:"warm_threshold"`
}

// AdsConfig configures ad segment planning.
type AdsConfig struct {
	TemplatesPath string `yaml:"templates_path" mapstructure:"templates_path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// DefaultAllowedOrigins are the browser front-ends allowed by CORS.
var DefaultAllowedOrigins = []string{
	"http://localhost:5173",
	"https://crm-ia-eight.vercel.app",
	"https://crm-ia-laueltoro-lautoros-projects.vercel.app",
	"https://nexentrix-ia.netlify.app",
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 400)
	v.SetDefault("anthropic.rate_limit_rps", 5)
	v.SetDefault("anthropic.max_retries", 3)
	v.SetDefault("notion.token", "")
	v.SetDefault("notion.lead_db", "")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", DefaultAllowedOrigins)
	v.SetDefault("server.read_timeout_secs", 30)
	v.SetDefault("server.write_timeout_secs", 300)
	v.SetDefault("bulk.max_workers", 4)
	v.SetDefault("bulk.item_timeout_secs", 60)
	v.SetDefault("bulk.max_batch_size", 5000)
	v.SetDefault("scoring.corporate_email_weight", 20)
	v.SetDefault("scoring.phone_weight", 10)
	v.SetDefault("scoring.seniority_weight", 25)
	v.SetDefault("scoring.company_size_weight", 15)
	v.SetDefault("scoring.budget_weight", 15)
	v.SetDefault("scoring.intent_weight", 5)
	v.SetDefault("scoring.intent_cap", 3)
	v.SetDefault("scoring.source_weight", 10)
	v.SetDefault("scoring.hot_threshold", 70)
	v.SetDefault("scoring.warm_threshold", 40)
	v.SetDefault("ads.templates_path", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the settings a command needs before it starts.
// Modes: "store" (database access), "ai" (Anthropic calls), "notion" (lead
// queue) and "serve" (HTTP listener).
func (c *Config) Validate(modes ...string) error {
	var errs []string
	for _, mode := range modes {
		switch mode {
		case "store":
			switch c.Store.Driver {
			case "postgres":
				if c.Store.DatabaseURL == "" {
					errs = append(errs, "store.database_url is required for postgres (LEADS_STORE_DATABASE_URL)")
				}
			case "sqlite":
			default:
				errs = append(errs, "store.driver must be postgres or sqlite")
			}
		case "ai":
			if c.Anthropic.Key == "" {
				errs = append(errs, "anthropic.key is required (LEADS_ANTHROPIC_KEY)")
			}
		case "notion":
			if c.Notion.Token == "" {
				errs = append(errs, "notion.token is required (LEADS_NOTION_TOKEN)")
			}
			if c.Notion.LeadDB == "" {
				errs = append(errs, "notion.lead_db is required (LEADS_NOTION_LEAD_DB)")
			}
		case "serve":
			if c.Server.Port <= 0 {
				errs = append(errs, "server.port must be > 0")
			}
		default:
			errs = append(errs, "unknown mode "+mode)
		}
	}
	if c.Bulk.MaxWorkers < 1 || c.Bulk.MaxWorkers > 64 {
		errs = append(errs, "bulk.max_workers must be between 1 and 64")
	}
	if c.Bulk.ItemTimeoutSecs < 0 {
		errs = append(errs, "bulk.item_timeout_secs must be >= 0")
	}
	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
