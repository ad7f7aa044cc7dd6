package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the full application configuration. It is populated from
// defaults, an optional yaml file, and REDNOTE_* environment variables.
type Config struct {
	Logger  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	Browser BrowserConfig `mapstructure:"browser" yaml:"browser"`
	Cookies CookiesConfig `mapstructure:"cookies" yaml:"cookies"`
	Publish PublishConfig `mapstructure:"publish" yaml:"publish"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server"`
}

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

// ColorConfig defines the terminal color names for each log level.
type ColorConfig struct {
	Debug string `mapstructure:"debug" yaml:"debug"`
	Info  string `mapstructure:"info" yaml:"info"`
	Warn  string `mapstructure:"warn" yaml:"warn"`
	Error string `mapstructure:"error" yaml:"error"`
	Fatal string `mapstructure:"fatal" yaml:"fatal"`
}

// BrowserConfig controls how the Chromium instance is launched.
type BrowserConfig struct {
	// Headless defaults to false: the QR login handshake needs a window
	// the user can actually scan.
	Headless bool `mapstructure:"headless" yaml:"headless"`
	// ExecutablePath overrides the browser binary Playwright launches.
	ExecutablePath string `mapstructure:"executable_path" yaml:"executable_path"`
	// Args are extra flags appended after the built-in hardening flags.
	Args []string `mapstructure:"args" yaml:"args"`
	// UserAgent is applied to the browser context.
	UserAgent string `mapstructure:"user_agent" yaml:"user_agent"`
	// LaunchTimeout bounds the browser launch itself.
	LaunchTimeout time.Duration `mapstructure:"launch_timeout" yaml:"launch_timeout"`
}

// CookiesConfig controls cookie persistence.
type CookiesConfig struct {
	// File is the cookie file path. Empty means the per-user default
	// (~/.rednote-cli/cookies.json).
	File string `mapstructure:"file" yaml:"file"`
}

// PublishConfig holds tunables for the publish workflow.
type PublishConfig struct {
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	UploadWait        time.Duration `mapstructure:"upload_wait" yaml:"upload_wait"`
	SubmitWait        time.Duration `mapstructure:"submit_wait" yaml:"submit_wait"`
}

// ServerConfig holds the HTTP tool server settings.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr" yaml:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
}

// DefaultUserAgent is the fixed desktop user agent presented to the site.
// Matching a mainstream Chrome build keeps the login widget behavior
// consistent between headed and headless runs.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) " +
	"Chrome/120.0.0.0 Safari/537.36"

// SetDefaults initializes default values for all configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "rednote-cli")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Browser --
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.executable_path", "")
	v.SetDefault("browser.args", []string{})
	v.SetDefault("browser.user_agent", DefaultUserAgent)
	v.SetDefault("browser.launch_timeout", "60s")

	// -- Cookies --
	v.SetDefault("cookies.file", "")

	// -- Publish --
	v.SetDefault("publish.navigation_timeout", "60s")
	v.SetDefault("publish.upload_wait", "10s")
	v.SetDefault("publish.submit_wait", "3s")

	// -- Server --
	v.SetDefault("server.addr", ":18060")
	v.SetDefault("server.shutdown_timeout", "15s")
}

// NewDefaultConfig returns a configuration populated with defaults only.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// Cannot happen with defaults only.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// NewConfigFromViper builds and validates a Config from a viper instance
// that has already read its sources.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for sane values.
func (c *Config) Validate() error {
	if c.Browser.UserAgent == "" {
		return fmt.Errorf("browser.user_agent must not be empty")
	}
	if c.Browser.LaunchTimeout <= 0 {
		return fmt.Errorf("browser.launch_timeout must be positive")
	}
	if c.Publish.NavigationTimeout <= 0 {
		return fmt.Errorf("publish.navigation_timeout must be positive")
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr must not be empty")
	}
	return nil
}
