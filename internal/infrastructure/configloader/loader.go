package configloader

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds server-specific configurations.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// LoggingConfig holds logging-specific configurations.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// PricingConfig holds pricing/indexing service specific configurations.
type PricingConfig struct {
	BaseURL                  string `yaml:"baseURL"`
	RequestTimeoutMillis     int64  `yaml:"requestTimeoutMillis"`
	MaxTokensPerBatchRequest int    `yaml:"maxTokensPerBatchRequest"`
	HistoryPriceCacheTTLMin  int    `yaml:"historyPriceCacheTtlMinutes"`
}

// PerformanceConfig holds performance-related configurations for the fetch
// pipeline.
type PerformanceConfig struct {
	MaxConcurrentRequests int     `yaml:"max_concurrent_requests"`
	RequestsPerSecond     float64 `yaml:"requests_per_second"`
	RequestBurst          int     `yaml:"request_burst"`
}

// ThresholdsConfig holds display-layer tunables.
type ThresholdsConfig struct {
	AmountChangeNoiseFloorUSD float64 `yaml:"amountChangeNoiseFloorUsd"`
}

// FilesConfig holds paths to locally maintained data files.
type FilesConfig struct {
	TokenFilter string `yaml:"tokenFilter"`
}

// Config is the top-level configuration structure.
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Logging     LoggingConfig     `yaml:"logging"`
	Pricing     PricingConfig     `yaml:"pricing"`
	Performance PerformanceConfig `yaml:"performance"`
	Thresholds  ThresholdsConfig  `yaml:"thresholds"`
	Files       FilesConfig       `yaml:"files"`
}

// Load reads the YAML configuration file from the given path and unmarshals
// it, filling in defaults for absent values.
func Load(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	if cfg.Server.Port == "" {
		cfg.Server.Port = "8080"
		logrus.Infof("Server port not set, defaulting to %s", cfg.Server.Port)
	}
	if cfg.Pricing.BaseURL == "" {
		cfg.Pricing.BaseURL = "https://pro-openapi.debank.com"
		logrus.Infof("Pricing.BaseURL not set, defaulting to %s", cfg.Pricing.BaseURL)
	}
	if cfg.Pricing.RequestTimeoutMillis <= 0 {
		cfg.Pricing.RequestTimeoutMillis = 10000
		logrus.Infof("Pricing.RequestTimeoutMillis not set, defaulting to %d ms", cfg.Pricing.RequestTimeoutMillis)
	}
	if cfg.Pricing.MaxTokensPerBatchRequest <= 0 {
		cfg.Pricing.MaxTokensPerBatchRequest = 100
		logrus.Infof("Pricing.MaxTokensPerBatchRequest not set, defaulting to %d", cfg.Pricing.MaxTokensPerBatchRequest)
	}
	if cfg.Pricing.HistoryPriceCacheTTLMin <= 0 {
		cfg.Pricing.HistoryPriceCacheTTLMin = 30
		logrus.Infof("Pricing.HistoryPriceCacheTtlMinutes not set, defaulting to %d minutes", cfg.Pricing.HistoryPriceCacheTTLMin)
	}
	if cfg.Performance.MaxConcurrentRequests <= 0 {
		cfg.Performance.MaxConcurrentRequests = 10
		logrus.Infof("Performance.MaxConcurrentRequests not set, defaulting to %d", cfg.Performance.MaxConcurrentRequests)
	}
	if cfg.Performance.RequestsPerSecond <= 0 {
		cfg.Performance.RequestsPerSecond = 20
		logrus.Infof("Performance.RequestsPerSecond not set, defaulting to %.0f", cfg.Performance.RequestsPerSecond)
	}
	if cfg.Performance.RequestBurst <= 0 {
		cfg.Performance.RequestBurst = 5
		logrus.Infof("Performance.RequestBurst not set, defaulting to %d", cfg.Performance.RequestBurst)
	}
	if cfg.Thresholds.AmountChangeNoiseFloorUSD <= 0 {
		cfg.Thresholds.AmountChangeNoiseFloorUSD = 0.01
		logrus.Infof("Thresholds.AmountChangeNoiseFloorUsd not set, defaulting to %.2f", cfg.Thresholds.AmountChangeNoiseFloorUSD)
	}

	return &cfg, nil
}
