package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Edge      EdgeConfig      `mapstructure:"edge"`
	Device    DeviceConfig    `mapstructure:"device"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Faults    FaultsConfig    `mapstructure:"faults"`
	Retry     RetryConfig     `mapstructure:"retry"`
	Events    EventsConfig    `mapstructure:"events"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

type EdgeConfig struct {
	URL       string        `mapstructure:"url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	AuthToken string        `mapstructure:"auth_token"`
}

type DeviceConfig struct {
	IDPrefix string `mapstructure:"id_prefix"`
	Count    int    `mapstructure:"count"`
	Seed     int64  `mapstructure:"seed"`
}

type TelemetryConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

type FaultsConfig struct {
	DropProbability      float64       `mapstructure:"drop_probability"`
	JitterProbability    float64       `mapstructure:"jitter_probability"`
	DuplicateProbability float64       `mapstructure:"duplicate_probability"`
	MaxJitter            time.Duration `mapstructure:"max_jitter"`
}

type RetryConfig struct {
	MaxRetries     int           `mapstructure:"max_retries"`
	BaseBackoff    time.Duration `mapstructure:"base_backoff"`
	MaxBackoff     time.Duration `mapstructure:"max_backoff"`
	JitterRange    float64       `mapstructure:"jitter_range"`
	DuplicatePause time.Duration `mapstructure:"duplicate_pause"`
}

type EventsConfig struct {
	NATSEnabled bool   `mapstructure:"nats_enabled"`
	NATSURL     string `mapstructure:"nats_url"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("edge.url", "http://localhost:8000")
	v.SetDefault("edge.timeout", "5s")
	v.SetDefault("edge.auth_token", "")
	v.SetDefault("device.id_prefix", "device")
	v.SetDefault("device.count", 1)
	v.SetDefault("device.seed", 0)
	v.SetDefault("telemetry.interval", "3s")
	v.SetDefault("faults.drop_probability", 0.15)
	v.SetDefault("faults.jitter_probability", 0.20)
	v.SetDefault("faults.duplicate_probability", 0.10)
	v.SetDefault("faults.max_jitter", "2s")
	v.SetDefault("retry.max_retries", 5)
	v.SetDefault("retry.base_backoff", "1s")
	v.SetDefault("retry.max_backoff", "30s")
	v.SetDefault("retry.jitter_range", 0.5)
	v.SetDefault("retry.duplicate_pause", "500ms")
	v.SetDefault("events.nats_enabled", false)
	v.SetDefault("events.nats_url", "nats://localhost:4222")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Read config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/telhawk/device")
	}

	// Environment variables override
	v.SetEnvPrefix("DEVICE")
	v.AutomaticEnv()

	// Read config
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found; use defaults
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	for name, p := range map[string]float64{
		"faults.drop_probability":      c.Faults.DropProbability,
		"faults.jitter_probability":    c.Faults.JitterProbability,
		"faults.duplicate_probability": c.Faults.DuplicateProbability,
	} {
		if p < 0 || p > 1 {
			return fmt.Errorf("%s must be in [0,1], got %v", name, p)
		}
	}
	if c.Device.Count < 1 {
		return fmt.Errorf("device.count must be >= 1, got %d", c.Device.Count)
	}
	if c.Retry.MaxRetries < 0 {
		return fmt.Errorf("retry.max_retries must be >= 0, got %d", c.Retry.MaxRetries)
	}
	return nil
}
