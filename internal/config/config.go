// File: internal/config/config.go
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/xkilldash9x/tubepilot/internal/timings"
	"github.com/xkilldash9x/tubepilot/pkg/browser"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Browser() BrowserConfig
	Session() SessionConfig
	Account() AccountConfig
	Metrics() MetricsConfig
	Timings() timings.Timings

	// Browser Setters
	SetBrowserHeadless(bool)
	SetBrowserUserDataDir(string)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg  LoggerConfig    `mapstructure:"logger" yaml:"logger"`
	BrowserCfg BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	SessionCfg SessionConfig   `mapstructure:"session" yaml:"session"`
	AccountCfg AccountConfig   `mapstructure:"account" yaml:"account"`
	MetricsCfg MetricsConfig   `mapstructure:"metrics" yaml:"metrics"`
	TimingsCfg timings.Timings `mapstructure:"timings" yaml:"timings"`
}

var _ Interface = (*Config)(nil)

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig     { return c.LoggerCfg }
func (c *Config) Browser() BrowserConfig   { return c.BrowserCfg }
func (c *Config) Session() SessionConfig   { return c.SessionCfg }
func (c *Config) Account() AccountConfig   { return c.AccountCfg }
func (c *Config) Metrics() MetricsConfig   { return c.MetricsCfg }
func (c *Config) Timings() timings.Timings { return c.TimingsCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetBrowserHeadless(b bool)          { c.BrowserCfg.Headless = b }
func (c *Config) SetBrowserUserDataDir(path string) { c.BrowserCfg.UserDataDir = path }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig holds settings for the browser process.
type BrowserConfig struct {
	Headless       bool           `mapstructure:"headless" yaml:"headless"`
	UserDataDir    string         `mapstructure:"user_data_dir" yaml:"user_data_dir"`
	Proxy          string         `mapstructure:"proxy" yaml:"proxy"`
	ExecPath       string         `mapstructure:"exec_path" yaml:"exec_path"`
	Args           []string       `mapstructure:"args" yaml:"args"`
	Viewport       map[string]int `mapstructure:"viewport" yaml:"viewport"`
	DefaultTimeout time.Duration  `mapstructure:"default_timeout" yaml:"default_timeout"`
}

// LaunchOptions converts the browser section into launch options.
func (b BrowserConfig) LaunchOptions() browser.LaunchOptions {
	return browser.LaunchOptions{
		Headless:       b.Headless,
		UserDataDir:    b.UserDataDir,
		Proxy:          b.Proxy,
		ExecPath:       b.ExecPath,
		Args:           b.Args,
		WindowWidth:    b.Viewport["width"],
		WindowHeight:   b.Viewport["height"],
		DefaultTimeout: b.DefaultTimeout,
	}
}

// Session store backends.
const (
	StoreFile     = "file"
	StorePostgres = "postgres"
	StoreNone     = "none"
)

// SessionConfig selects where authenticated cookies are kept between runs.
type SessionConfig struct {
	Store    string         `mapstructure:"store" yaml:"store"`
	Dir      string         `mapstructure:"dir" yaml:"dir"`
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
}

// DatabaseConfig holds the database connection details.
type DatabaseConfig struct {
	URL string `mapstructure:"url" yaml:"url"`
}

// AccountConfig holds the default credentials. The password is normally
// supplied through TUBEPILOT_ACCOUNT_PASSWORD rather than the file.
type AccountConfig struct {
	Email         string `mapstructure:"email" yaml:"email"`
	Password      string `mapstructure:"password" yaml:"password"`
	RecoveryEmail string `mapstructure:"recovery_email" yaml:"recovery_email"`
}

// MetricsConfig controls the prometheus counters. When Textfile is set the
// registry is written there after each batch, for the node exporter's
// textfile collector.
type MetricsConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Textfile string `mapstructure:"textfile" yaml:"textfile"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "tubepilot")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.viewport", map[string]int{"width": 900, "height": 900})
	v.SetDefault("browser.default_timeout", "60s")

	// -- Session --
	v.SetDefault("session.store", StoreFile)
	v.SetDefault("session.dir", "./yt-auth")

	// -- Metrics --
	v.SetDefault("metrics.enabled", false)

	// -- Timings --
	setTimingDefaults(v)
}

// setTimingDefaults mirrors timings.Default so every key is visible to viper.
func setTimingDefaults(v *viper.Viper) {
	d := timings.Default()
	durations := map[string]time.Duration{
		"default":           d.Default,
		"probe":             d.Probe,
		"challenge_detect":  d.ChallengeDetect,
		"second_challenge":  d.SecondChallenge,
		"liveness":          d.Liveness,
		"recovery":          d.Recovery,
		"avatar":            d.Avatar,
		"playlist":          d.Playlist,
		"optional_dialog":   d.OptionalDialog,
		"edit_entry":        d.EditEntry,
		"edit_form":         d.EditForm,
		"publish_backoff":   d.PublishBackoff,
		"progress_interval": d.ProgressInterval,
		"link_poll":         d.LinkPoll,
		"skip_processing":   d.SkipProcessing,
		"settle":            d.Settle,
		"page_settle":       d.PageSettle,
		"pin":               d.Pin,
		"key_delay":         d.KeyDelay,
		"chat_send":         d.ChatSend,
	}
	for k, val := range durations {
		v.SetDefault("timings."+k, val)
	}
	counts := map[string]int{
		"publish_attempts":   d.PublishAttempts,
		"composer_attempts":  d.ComposerAttempts,
		"playlist_attempts":  d.PlaylistAttempts,
		"login_attempts":     d.LoginAttempts,
		"max_scrolls":        d.MaxScrolls,
		"show_more_attempts": d.ShowMoreAttempts,
		"link_poll_attempts": d.LinkPollAttempts,
		"language_rounds":    d.LanguageRounds,
	}
	for k, val := range counts {
		v.SetDefault("timings."+k, val)
	}
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Bind environment variables for sensitive data
	_ = v.BindEnv("account.password", "TUBEPILOT_ACCOUNT_PASSWORD")
	_ = v.BindEnv("session.database.url", "TUBEPILOT_DATABASE_URL")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	switch strings.ToLower(c.SessionCfg.Store) {
	case StoreFile, StoreNone:
	case StorePostgres:
		if c.SessionCfg.Database.URL == "" {
			return fmt.Errorf("session.database.url is required when session.store is %q", StorePostgres)
		}
	default:
		return fmt.Errorf("session.store must be one of %q, %q or %q, got %q", StoreFile, StorePostgres, StoreNone, c.SessionCfg.Store)
	}
	if c.TimingsCfg.LoginAttempts <= 0 {
		return fmt.Errorf("timings.login_attempts must be a positive integer")
	}
	if c.TimingsCfg.PublishAttempts <= 0 {
		return fmt.Errorf("timings.publish_attempts must be a positive integer")
	}
	if c.TimingsCfg.ProgressInterval <= 0 {
		return fmt.Errorf("timings.progress_interval must be a positive duration")
	}
	if c.MetricsCfg.Textfile != "" && !c.MetricsCfg.Enabled {
		return fmt.Errorf("metrics.textfile requires metrics.enabled")
	}
	return nil
}
