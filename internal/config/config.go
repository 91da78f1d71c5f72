package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/shehryarbajwa/courtscout/internal/locator"
)

// Engine modes
const (
	EngineLocal  = "local"
	EngineRemote = "remote"
	EngineDocker = "docker"
)

// Config holds all runtime settings.
type Config struct {
	Port     string `mapstructure:"PORT"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`
	Timezone string `mapstructure:"TZ"`
	BaseURL  string `mapstructure:"BASE_URL"`

	EngineMode  string `mapstructure:"ENGINE_MODE"`
	EngineURL   string `mapstructure:"ENGINE_URL"`
	ChromePath  string `mapstructure:"CHROME_PATH"`
	EngineImage string `mapstructure:"ENGINE_IMAGE"`
	DebugPort   int    `mapstructure:"DEBUG_PORT"`
	MaxSessions int64  `mapstructure:"MAX_SESSIONS"`

	RateLimitPerHour int `mapstructure:"RATE_LIMIT_PER_HOUR"`
	RateLimitBurst   int `mapstructure:"RATE_LIMIT_BURST"`

	AvailabilityPattern string        `mapstructure:"AVAILABILITY_PATTERN"`
	NavigateTimeout     time.Duration `mapstructure:"NAVIGATE_TIMEOUT"`
	HydrateTimeout      time.Duration `mapstructure:"HYDRATE_TIMEOUT"`
	CommitTimeout       time.Duration `mapstructure:"COMMIT_TIMEOUT"`
	CaptureSettle       time.Duration `mapstructure:"CAPTURE_SETTLE"`
	BlocksTimeout       time.Duration `mapstructure:"BLOCKS_TIMEOUT"`
	VerifyDeadline      time.Duration `mapstructure:"VERIFY_DEADLINE"`
	PopoverTimeout      time.Duration `mapstructure:"POPOVER_TIMEOUT"`
	MaxScrollSweeps     int           `mapstructure:"MAX_SCROLL_SWEEPS"`
	ProbeTemplates      []string      `mapstructure:"PROBE_TEMPLATES"`

	Locators locator.Set `mapstructure:"-"`
}

// DefaultProbeTemplates are the availability endpoint variants tried, in
// order, when no availability response was observed or replayable.
var DefaultProbeTemplates = []string{
	"{base}/api/clubs/availability?tenant_id={tenant}&date={date}&sport_id=PADEL",
	"{base}/api/clubs/availability?tenant_id={tenant}&date={date}",
	"{base}/api/v1/availability?tenant_id={tenant}&local_start_min={date}T00:00:00&local_start_max={date}T23:59:59&sport_id=PADEL",
	"{base}/api/v1/availability?tenant_id={tenant}&local_start_min={date}T00:00:00&local_start_max={date}T23:59:59",
}

// Load reads .env, then an optional config.yaml, then the environment.
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	return decode(v)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("TZ", "Europe/Tallinn")
	v.SetDefault("BASE_URL", "https://playtomic.com")
	v.SetDefault("ENGINE_MODE", EngineLocal)
	v.SetDefault("ENGINE_URL", "")
	v.SetDefault("CHROME_PATH", "")
	v.SetDefault("ENGINE_IMAGE", "browserless/chrome:latest")
	v.SetDefault("DEBUG_PORT", 9222)
	v.SetDefault("MAX_SESSIONS", 4)
	v.SetDefault("RATE_LIMIT_PER_HOUR", 100)
	v.SetDefault("RATE_LIMIT_BURST", 10)
	v.SetDefault("AVAILABILITY_PATTERN", "/api/clubs/availability")
	v.SetDefault("NAVIGATE_TIMEOUT", "60s")
	v.SetDefault("HYDRATE_TIMEOUT", "15s")
	v.SetDefault("COMMIT_TIMEOUT", "8s")
	v.SetDefault("CAPTURE_SETTLE", "2500ms")
	v.SetDefault("BLOCKS_TIMEOUT", "8s")
	v.SetDefault("VERIFY_DEADLINE", "25s")
	v.SetDefault("POPOVER_TIMEOUT", "4500ms")
	v.SetDefault("MAX_SCROLL_SWEEPS", 24)
	v.SetDefault("PROBE_TEMPLATES", DefaultProbeTemplates)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	// PROBE_TEMPLATES from the environment arrives as one string
	if raw := v.GetString("PROBE_TEMPLATES"); len(cfg.ProbeTemplates) <= 1 && strings.Contains(raw, ";") {
		cfg.ProbeTemplates = splitTemplates(raw)
	}

	cfg.Locators = locator.Default()
	if v.IsSet("locators") {
		if err := v.UnmarshalKey("locators", &cfg.Locators); err != nil {
			return nil, fmt.Errorf("failed to decode locators: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func splitTemplates(raw string) []string {
	var out []string
	for _, t := range strings.Split(raw, ";") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Validate checks the settings that would otherwise fail late.
func (c *Config) Validate() error {
	switch c.EngineMode {
	case EngineLocal, EngineDocker:
	case EngineRemote:
		if c.EngineURL == "" {
			return fmt.Errorf("ENGINE_URL is required when ENGINE_MODE=remote")
		}
	default:
		return fmt.Errorf("unknown ENGINE_MODE %q", c.EngineMode)
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TZ %q: %w", c.Timezone, err)
	}
	if c.MaxSessions < 1 {
		return fmt.Errorf("MAX_SESSIONS must be at least 1")
	}
	if len(c.ProbeTemplates) == 0 {
		c.ProbeTemplates = DefaultProbeTemplates
	}
	return nil
}

// Location returns the configured timezone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsProduction reports whether ENV=production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
