// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds the entire application configuration.
type Config struct {
	Logger        LoggerConfig        `mapstructure:"logger" yaml:"logger"`
	Typing        TypingConfig        `mapstructure:"typing" yaml:"typing"`
	Imperfections ImperfectionsConfig `mapstructure:"imperfections" yaml:"imperfections"`
	Injection     InjectionConfig     `mapstructure:"injection" yaml:"injection"`
	Session       SessionConfig       `mapstructure:"session" yaml:"session"`
	Remote        RemoteConfig        `mapstructure:"remote" yaml:"remote"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int    `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int    `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool   `mapstructure:"compress" yaml:"compress"`
}

// TypingConfig selects the timing profile and the knobs the engine consumes.
type TypingConfig struct {
	Profile    string `mapstructure:"profile" yaml:"profile"`
	Layout     string `mapstructure:"layout" yaml:"layout"`
	MinDelayMs int    `mapstructure:"min_delay_ms" yaml:"min_delay_ms"`
	MaxDelayMs int    `mapstructure:"max_delay_ms" yaml:"max_delay_ms"`
	// Seed pins the random source for reproducible sessions; 0 means
	// time-seeded.
	Seed        int64 `mapstructure:"seed" yaml:"seed"`
	MouseJitter bool  `mapstructure:"mouse_jitter" yaml:"mouse_jitter"`
	IdleScroll  bool  `mapstructure:"idle_scroll" yaml:"idle_scroll"`
}

// ImperfectionsConfig tunes the typo and double-key generators. Intervals are
// in characters; correction probability is a percentage.
type ImperfectionsConfig struct {
	EnableTypos           bool `mapstructure:"enable_typos" yaml:"enable_typos"`
	TypoMin               int  `mapstructure:"typo_min" yaml:"typo_min"`
	TypoMax               int  `mapstructure:"typo_max" yaml:"typo_max"`
	EnableDoubleKeys      bool `mapstructure:"enable_double_keys" yaml:"enable_double_keys"`
	DoubleMin             int  `mapstructure:"double_min" yaml:"double_min"`
	DoubleMax             int  `mapstructure:"double_max" yaml:"double_max"`
	EnableAutoCorrection  bool `mapstructure:"enable_auto_correction" yaml:"enable_auto_correction"`
	CorrectionProbability int  `mapstructure:"correction_probability" yaml:"correction_probability"`
}

// InjectionConfig selects where keystrokes go.
type InjectionConfig struct {
	// Backend is one of desktop, browser, capture.
	Backend          string `mapstructure:"backend" yaml:"backend"`
	CountdownSeconds int    `mapstructure:"countdown_seconds" yaml:"countdown_seconds"`
}

// SessionConfig tunes the session supervisor.
type SessionConfig struct {
	WatchdogTimeout time.Duration `mapstructure:"watchdog_timeout" yaml:"watchdog_timeout"`
	IdleScrollAfter time.Duration `mapstructure:"idle_scroll_after" yaml:"idle_scroll_after"`
}

// RemoteConfig holds the controller/agent networking settings.
type RemoteConfig struct {
	// Listen is the controller bind address for `keyflow serve`.
	Listen string `mapstructure:"listen" yaml:"listen"`
	// Server is the controller URL an agent dials, e.g. ws://host:8077/ws.
	Server         string        `mapstructure:"server" yaml:"server"`
	ReconnectDelay time.Duration `mapstructure:"reconnect_delay" yaml:"reconnect_delay"`
	PingInterval   time.Duration `mapstructure:"ping_interval" yaml:"ping_interval"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	// MinDelayMs/MaxDelayMs defaults sent to agents with start commands.
	MinDelayMs int `mapstructure:"min_delay_ms" yaml:"min_delay_ms"`
	MaxDelayMs int `mapstructure:"max_delay_ms" yaml:"max_delay_ms"`
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
	v.SetDefault("logger.service_name", "keyflow")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 100)
	v.SetDefault("logger.max_backups", 5)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)

	// -- Typing --
	v.SetDefault("typing.profile", "human-advanced")
	v.SetDefault("typing.layout", "qwerty-us")
	v.SetDefault("typing.min_delay_ms", 80)
	v.SetDefault("typing.max_delay_ms", 180)
	v.SetDefault("typing.seed", 0)
	v.SetDefault("typing.mouse_jitter", false)
	v.SetDefault("typing.idle_scroll", false)

	// -- Imperfections --
	v.SetDefault("imperfections.enable_typos", true)
	v.SetDefault("imperfections.typo_min", 300)
	v.SetDefault("imperfections.typo_max", 500)
	v.SetDefault("imperfections.enable_double_keys", true)
	v.SetDefault("imperfections.double_min", 250)
	v.SetDefault("imperfections.double_max", 400)
	v.SetDefault("imperfections.enable_auto_correction", true)
	v.SetDefault("imperfections.correction_probability", 15)

	// -- Injection --
	v.SetDefault("injection.backend", "desktop")
	v.SetDefault("injection.countdown_seconds", 5)

	// -- Session --
	v.SetDefault("session.watchdog_timeout", "10s")
	v.SetDefault("session.idle_scroll_after", "30s")

	// -- Remote --
	v.SetDefault("remote.listen", ":8077")
	v.SetDefault("remote.server", "ws://127.0.0.1:8077/ws")
	v.SetDefault("remote.reconnect_delay", "5s")
	v.SetDefault("remote.ping_interval", "30s")
	v.SetDefault("remote.write_timeout", "10s")
	v.SetDefault("remote.min_delay_ms", 120)
	v.SetDefault("remote.max_delay_ms", 2000)
}

// NewConfigFromViper creates a new configuration instance from a viper object.
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

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if c.Typing.MinDelayMs < 0 || c.Typing.MaxDelayMs < 0 {
		return fmt.Errorf("typing delays must be non-negative")
	}
	if c.Typing.MinDelayMs > c.Typing.MaxDelayMs {
		return fmt.Errorf("typing.min_delay_ms must not exceed typing.max_delay_ms")
	}
	if err := c.Imperfections.Validate(); err != nil {
		return fmt.Errorf("imperfections configuration invalid: %w", err)
	}
	switch c.Injection.Backend {
	case "desktop", "browser", "capture", "":
	default:
		return fmt.Errorf("injection.backend must be desktop, browser, or capture")
	}
	if c.Injection.CountdownSeconds < 0 {
		return fmt.Errorf("injection.countdown_seconds must be non-negative")
	}
	if c.Session.WatchdogTimeout <= 0 {
		return fmt.Errorf("session.watchdog_timeout must be a positive duration")
	}
	if c.Session.IdleScrollAfter <= 0 {
		return fmt.Errorf("session.idle_scroll_after must be a positive duration")
	}
	return nil
}

// Validate checks the imperfection intervals.
func (ic *ImperfectionsConfig) Validate() error {
	if ic.EnableTypos && (ic.TypoMin <= 0 || ic.TypoMin > ic.TypoMax) {
		return fmt.Errorf("typo interval [%d,%d] is invalid", ic.TypoMin, ic.TypoMax)
	}
	if ic.EnableDoubleKeys && (ic.DoubleMin <= 0 || ic.DoubleMin > ic.DoubleMax) {
		return fmt.Errorf("double-key interval [%d,%d] is invalid", ic.DoubleMin, ic.DoubleMax)
	}
	if ic.CorrectionProbability < 0 || ic.CorrectionProbability > 100 {
		return fmt.Errorf("correction_probability must be within [0,100]")
	}
	return nil
}
