package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root service configuration
type Config struct {
	Server ServerConfig `yaml:"server"`
	Engine EngineConfig `yaml:"engine"`
	Cache  CacheConfig  `yaml:"cache"`
	Drift  DriftConfig  `yaml:"drift"`
	Models ModelsConfig `yaml:"models"`
}

type ServerConfig struct {
	MetricsPort     int           `yaml:"metrics_port"`
	LogLevel        string        `yaml:"log_level"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type EngineConfig struct {
	BatchWorkers int `yaml:"batch_workers"`
	BatchQueue   int `yaml:"batch_queue"`
}

type CacheConfig struct {
	TTL           time.Duration `yaml:"ttl"`
	Retention     time.Duration `yaml:"retention"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

type DriftConfig struct {
	Interval       time.Duration `yaml:"interval"`
	WindowSize     int           `yaml:"window_size"`
	MinWindow      int           `yaml:"min_window"`
	Threshold      float64       `yaml:"threshold"`
	KSThreshold    float64       `yaml:"ks_threshold"`
	HighStreak     int           `yaml:"high_streak"`
	AlertCooldown  time.Duration `yaml:"alert_cooldown"`
	RetrainPerHour float64       `yaml:"retrain_per_hour"`
}

type ModelsConfig struct {
	// WeightsFile points at a model-weights manifest that is watched
	// for changes so new versions roll out without a restart.
	WeightsFile string `yaml:"weights_file"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			MetricsPort:     9090,
			LogLevel:        "info",
			ShutdownTimeout: 30 * time.Second,
		},
		Engine: EngineConfig{
			BatchWorkers: 16,
			BatchQueue:   1024,
		},
		Cache: CacheConfig{
			TTL:           5 * time.Minute,
			Retention:     30 * time.Minute,
			SweepInterval: time.Minute,
		},
		Drift: DriftConfig{
			Interval:       time.Minute,
			WindowSize:     1000,
			MinWindow:      20,
			Threshold:      0.05,
			KSThreshold:    0.15,
			HighStreak:     3,
			AlertCooldown:  time.Minute,
			RetrainPerHour: 4,
		},
	}
}

// Load reads a YAML config file over the defaults, then applies
// environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}
	LoadFromEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the engine cannot run with
func (c *Config) Validate() error {
	if c.Server.MetricsPort <= 0 || c.Server.MetricsPort > 65535 {
		return fmt.Errorf("config: metrics_port %d out of range", c.Server.MetricsPort)
	}
	if c.Engine.BatchWorkers <= 0 {
		return fmt.Errorf("config: batch_workers must be positive, got %d", c.Engine.BatchWorkers)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("config: cache ttl must be positive, got %s", c.Cache.TTL)
	}
	if c.Drift.Threshold <= 0 || c.Drift.Threshold >= 1 {
		return fmt.Errorf("config: drift threshold %.3f outside (0, 1)", c.Drift.Threshold)
	}
	if c.Drift.HighStreak <= 0 {
		return fmt.Errorf("config: drift high_streak must be positive, got %d", c.Drift.HighStreak)
	}
	return nil
}
