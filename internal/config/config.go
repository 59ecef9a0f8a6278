package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration. It is loaded once at
// process start and passed to every component that needs it.
type Config struct {
	LeadStore  LeadStoreConfig  `yaml:"leadstore" mapstructure:"leadstore"`
	Google     GoogleConfig     `yaml:"google" mapstructure:"google"`
	Notion     NotionConfig     `yaml:"notion" mapstructure:"notion"`
	Twilio     TwilioConfig     `yaml:"twilio" mapstructure:"twilio"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Outreach   OutreachConfig   `yaml:"outreach" mapstructure:"outreach"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Retry      RetryConfig      `yaml:"retry" mapstructure:"retry"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// LeadStoreConfig selects and configures the tabular lead store.
type LeadStoreConfig struct {
	Driver          string  `yaml:"driver" mapstructure:"driver"` // sheets, xlsx or notion
	CredentialsJSON string  `yaml:"credentials_json" mapstructure:"credentials_json"`
	CredentialsFile string  `yaml:"credentials_file" mapstructure:"credentials_file"`
	SheetName       string  `yaml:"sheet_name" mapstructure:"sheet_name"`
	Worksheet       string  `yaml:"worksheet" mapstructure:"worksheet"`
	XLSXPath        string  `yaml:"xlsx_path" mapstructure:"xlsx_path"`
	RateLimit       float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// GoogleConfig holds Google Places API settings used by the scraper.
type GoogleConfig struct {
	Key      string `yaml:"key" mapstructure:"key"`
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
	Language string `yaml:"language" mapstructure:"language"`
	MaxLimit int    `yaml:"max_limit" mapstructure:"max_limit"`
}

// NotionConfig holds Notion API credentials for the notion lead store driver.
type NotionConfig struct {
	Token     string  `yaml:"token" mapstructure:"token"`
	LeadDB    string  `yaml:"lead_db" mapstructure:"lead_db"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// TwilioConfig holds messaging credentials and webhook validation settings.
type TwilioConfig struct {
	AccountSID        string `yaml:"account_sid" mapstructure:"account_sid"`
	AuthToken         string `yaml:"auth_token" mapstructure:"auth_token"`
	From              string `yaml:"from" mapstructure:"from"`
	BaseURL           string `yaml:"base_url" mapstructure:"base_url"`
	ValidateSignature bool   `yaml:"validate_signature" mapstructure:"validate_signature"`
	WebhookURL        string `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// AnthropicConfig holds Anthropic API settings for message personalization.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// OutreachConfig configures the outreach identity and daily schedule.
type OutreachConfig struct {
	AgentName       string `yaml:"agent_name" mapstructure:"agent_name"`
	CompanyName     string `yaml:"company_name" mapstructure:"company_name"`
	Niche           string `yaml:"niche" mapstructure:"niche"`
	Template        string `yaml:"template" mapstructure:"template"`
	Schedule        bool   `yaml:"schedule" mapstructure:"schedule"`
	Hour            int    `yaml:"hour" mapstructure:"hour"`
	Minute          int    `yaml:"minute" mapstructure:"minute"`
	BatchLimit      int    `yaml:"batch_limit" mapstructure:"batch_limit"`
	ContactedStatus string `yaml:"contacted_status" mapstructure:"contacted_status"`
	ReplyStatus     string `yaml:"reply_status" mapstructure:"reply_status"`
}

// StoreConfig configures the run history database.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"` // sqlite, postgres or none
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	APIKey         string   `yaml:"api_key" mapstructure:"api_key"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// MonitoringConfig configures failure alerts.
type MonitoringConfig struct {
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	LookbackWindowHours  int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
	CheckIntervalSecs    int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
}

// RetryConfig configures retries and the messaging circuit breaker.
type RetryConfig struct {
	MaxAttempts             int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs        int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs            int `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	CircuitFailureThreshold int `yaml:"circuit_failure_threshold" mapstructure:"circuit_failure_threshold"`
	CircuitResetSecs        int `yaml:"circuit_reset_secs" mapstructure:"circuit_reset_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// legacyEnv maps config keys to the unprefixed variable names used by
// existing deployments. The prefixed LEADGEN_ name always wins.
var legacyEnv = map[string]string{
	"leadstore.credentials_json": "GOOGLE_CREDENTIALS_JSON",
	"leadstore.credentials_file": "GOOGLE_CREDENTIALS_FILE",
	"leadstore.sheet_name":       "GOOGLE_SHEET_NAME",
	"twilio.account_sid":         "TWILIO_ACCOUNT_SID",
	"twilio.auth_token":          "TWILIO_AUTH_TOKEN",
	"twilio.from":                "TWILIO_PHONE_NUMBER",
	"monitoring.webhook_url":     "SLACK_WEBHOOK_URL",
	"outreach.agent_name":        "AGENT_NAME",
	"outreach.company_name":      "COMPANY_NAME",
	"outreach.niche":             "NICHE",
}

// Load reads configuration from .env, config.yaml and the environment.
func Load() (*Config, error) {
	// .env is optional and never overrides variables already set.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, eris.Wrap(err, "config: load .env")
	}

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEADGEN")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for key, legacy := range legacyEnv {
		prefixed := "LEADGEN_" + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
		if err := v.BindEnv(key, prefixed, legacy); err != nil {
			return nil, eris.Wrapf(err, "config: bind env %s", key)
		}
	}

	setDefaults(v)

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

// setDefaults registers every key so AutomaticEnv can resolve it on Unmarshal.
func setDefaults(v *viper.Viper) {
	v.SetDefault("leadstore.driver", "sheets")
	v.SetDefault("leadstore.credentials_json", "")
	v.SetDefault("leadstore.credentials_file", "google_credentials.json")
	v.SetDefault("leadstore.sheet_name", "")
	v.SetDefault("leadstore.worksheet", "")
	v.SetDefault("leadstore.xlsx_path", "leads.xlsx")
	v.SetDefault("leadstore.rate_limit", 1.0)
	v.SetDefault("google.key", "")
	v.SetDefault("google.base_url", "https://places.googleapis.com/v1")
	v.SetDefault("google.language", "es")
	v.SetDefault("google.max_limit", 60)
	v.SetDefault("notion.token", "")
	v.SetDefault("notion.lead_db", "")
	v.SetDefault("notion.rate_limit", 3.0)
	v.SetDefault("twilio.account_sid", "")
	v.SetDefault("twilio.auth_token", "")
	v.SetDefault("twilio.from", "")
	v.SetDefault("twilio.base_url", "https://api.twilio.com")
	v.SetDefault("twilio.validate_signature", false)
	v.SetDefault("twilio.webhook_url", "")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 300)
	v.SetDefault("outreach.agent_name", "Pedro")
	v.SetDefault("outreach.company_name", "Violet Wave")
	v.SetDefault("outreach.niche", "Odontólogos y Clínicas Dentales")
	v.SetDefault("outreach.template", "")
	v.SetDefault("outreach.schedule", true)
	v.SetDefault("outreach.hour", 10)
	v.SetDefault("outreach.minute", 0)
	v.SetDefault("outreach.batch_limit", 50)
	v.SetDefault("outreach.contacted_status", "Contacted")
	v.SetDefault("outreach.reply_status", "Replied")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "leadgen.db")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.api_key", "")
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("monitoring.webhook_url", "")
	v.SetDefault("monitoring.failure_rate_threshold", 0.5)
	v.SetDefault("monitoring.lookback_window_hours", 24)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 500)
	v.SetDefault("retry.max_backoff_ms", 10000)
	v.SetDefault("retry.circuit_failure_threshold", 5)
	v.SetDefault("retry.circuit_reset_secs", 60)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
}

// Validate checks the keys required by the given command mode. Modes:
// "leadstore", "scrape", "outreach", "serve".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "leadstore":
		errs = c.validateLeadStore()
	case "scrape":
		errs = c.validateLeadStore()
		if c.Google.Key == "" {
			errs = append(errs, "google.key is required")
		}
	case "outreach":
		errs = c.validateLeadStore()
		errs = append(errs, c.validateTwilio()...)
		errs = append(errs, c.validateSchedule()...)
	case "serve":
		errs = c.validateLeadStore()
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Twilio.ValidateSignature && c.Twilio.AuthToken == "" {
			errs = append(errs, "twilio.auth_token is required when twilio.validate_signature is set")
		}
		errs = append(errs, c.validateSchedule()...)
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateLeadStore() []string {
	var errs []string
	switch c.LeadStore.Driver {
	case "sheets":
		if c.LeadStore.CredentialsJSON == "" && c.LeadStore.CredentialsFile == "" {
			errs = append(errs, "leadstore.credentials_json or leadstore.credentials_file is required")
		}
	case "xlsx":
		if c.LeadStore.XLSXPath == "" {
			errs = append(errs, "leadstore.xlsx_path is required")
		}
	case "notion":
		if c.Notion.Token == "" {
			errs = append(errs, "notion.token is required")
		}
		if c.Notion.LeadDB == "" {
			errs = append(errs, "notion.lead_db is required")
		}
	default:
		errs = append(errs, "leadstore.driver must be one of sheets, xlsx, notion")
	}
	return errs
}

func (c *Config) validateTwilio() []string {
	var errs []string
	if c.Twilio.AccountSID == "" {
		errs = append(errs, "twilio.account_sid is required")
	}
	if c.Twilio.AuthToken == "" {
		errs = append(errs, "twilio.auth_token is required")
	}
	if c.Twilio.From == "" {
		errs = append(errs, "twilio.from is required")
	}
	return errs
}

func (c *Config) validateSchedule() []string {
	var errs []string
	if c.Outreach.Hour < 0 || c.Outreach.Hour > 23 {
		errs = append(errs, "outreach.hour must be between 0 and 23")
	}
	if c.Outreach.Minute < 0 || c.Outreach.Minute > 59 {
		errs = append(errs, "outreach.minute must be between 0 and 59")
	}
	return errs
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
