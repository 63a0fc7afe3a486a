// Package config loads and validates gaeta configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. GAETA_SERVER_ADDR.
const EnvPrefix = "GAETA"

// Supported output formats.
const (
	OutputTable = "table"
	OutputJSON  = "json"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Logging  LoggingConfig  `mapstructure:"logging"`
	Clock    ClockConfig    `mapstructure:"clock"`
	Server   ServerConfig   `mapstructure:"server"`
	Progress ProgressConfig `mapstructure:"progress"`
	Simulate SimulateConfig `mapstructure:"simulate"`
	Output   OutputConfig   `mapstructure:"output"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// ClockConfig sets the tracker time unit.
type ClockConfig struct {
	Unit time.Duration `mapstructure:"unit"`
}

// ServerConfig controls the optional HTTP status server. An empty Addr
// disables it.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// ProgressConfig tunes the event hub.
type ProgressConfig struct {
	BufferSize     int           `mapstructure:"buffer_size"`
	MaxBatchEvents int           `mapstructure:"max_batch_events"`
	MaxBatchWait   time.Duration `mapstructure:"max_batch_wait"`
	SinkTimeout    time.Duration `mapstructure:"sink_timeout"`
}

// SimulateConfig describes the synthetic workload.
type SimulateConfig struct {
	Total    uint64        `mapstructure:"total"`
	Step     uint64        `mapstructure:"step"`
	Interval time.Duration `mapstructure:"interval"`
	Jitter   float64       `mapstructure:"jitter"`
	Seed     uint64        `mapstructure:"seed"`
}

// OutputConfig selects how progress and summaries are printed.
type OutputConfig struct {
	Format string        `mapstructure:"format"`
	Every  time.Duration `mapstructure:"every"`
	Quiet  bool          `mapstructure:"quiet"`
}

// FlagBinding maps a command-line flag onto a config key. The flag wins only
// when it was set explicitly.
type FlagBinding struct {
	Key  string
	Flag *pflag.Flag
}

// Load builds a Config from defaults, an optional file, the environment and
// bound flags, in increasing precedence.
func Load(path string, flags ...FlagBinding) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	for _, b := range flags {
		if b.Flag == nil {
			continue
		}
		if err := v.BindPFlag(b.Key, b.Flag); err != nil {
			return Config{}, fmt.Errorf("bind flag %s: %w", b.Flag.Name, err)
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
	v.SetDefault("clock.unit", time.Millisecond)
	v.SetDefault("server.addr", "")
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("progress.buffer_size", 256)
	v.SetDefault("progress.max_batch_events", 64)
	v.SetDefault("progress.max_batch_wait", 250*time.Millisecond)
	v.SetDefault("progress.sink_timeout", 5*time.Second)
	v.SetDefault("simulate.total", 1000)
	v.SetDefault("simulate.step", 25)
	v.SetDefault("simulate.interval", 100*time.Millisecond)
	v.SetDefault("simulate.jitter", 0.0)
	v.SetDefault("simulate.seed", 1)
	v.SetDefault("output.format", OutputTable)
	v.SetDefault("output.every", time.Duration(0))
	v.SetDefault("output.quiet", false)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Clock.Unit <= 0 {
		return errors.New("clock.unit must be > 0")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("server.shutdown_timeout must be > 0")
	}
	if c.Progress.BufferSize <= 0 {
		return errors.New("progress.buffer_size must be > 0")
	}
	if c.Progress.MaxBatchEvents <= 0 {
		return errors.New("progress.max_batch_events must be > 0")
	}
	if c.Progress.MaxBatchWait <= 0 {
		return errors.New("progress.max_batch_wait must be > 0")
	}
	if c.Progress.SinkTimeout <= 0 {
		return errors.New("progress.sink_timeout must be > 0")
	}
	if c.Output.Every < 0 {
		return errors.New("output.every must be >= 0")
	}
	switch strings.ToLower(c.Output.Format) {
	case OutputTable, OutputJSON:
	default:
		return fmt.Errorf("output.format must be %q or %q", OutputTable, OutputJSON)
	}
	return nil
}
