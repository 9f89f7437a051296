// internal/common/config/config.go
package config

import (
	"fmt"
	"time"
)

// Config is the main application configuration struct.
type Config struct {
	App      AppConfig               `mapstructure:"app"`
	Camunda  CamundaConfig           `mapstructure:"camunda"`
	Sidecar  SidecarConfig           `mapstructure:"sidecar"`
	Database DatabaseConfig          `mapstructure:"database"`
	Workers  map[string]WorkerConfig `mapstructure:"workers"`
	Engines  map[string]EngineConfig `mapstructure:"engines"`
	Manifest ManifestConfig          `mapstructure:"manifest"`
	Pipeline PipelineConfig          `mapstructure:"pipeline"`
	Logging  LoggingConfig           `mapstructure:"logging"`
	Metrics  MetricsConfig           `mapstructure:"metrics"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type CamundaConfig struct {
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
}

// SidecarConfig points at the 4get scraping sidecar.
type SidecarConfig struct {
	BaseURL    string `mapstructure:"base_url"`
	Timeout    int    `mapstructure:"timeout"`     // milliseconds
	FiltersTTL int    `mapstructure:"filters_ttl"` // seconds
	UserAgent  string `mapstructure:"user_agent"`  // sent when fetching engine HTML for the bridge
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Enabled  bool   `mapstructure:"enabled"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// EngineConfig holds per-engine overrides.
type EngineConfig struct {
	// ParamMap copies job params onto 4get params: 4get name -> job param name.
	ParamMap map[string]string `mapstructure:"param_map"`
	// FixedParams are always sent to the sidecar.
	FixedParams map[string]string `mapstructure:"fixed_params"`

	// HTML bridge settings. TargetURL contains a {query} placeholder and
	// SafeParam is appended when safe search is on.
	TargetURL string `mapstructure:"target_url"`
	SafeParam string `mapstructure:"safe_param"`
}

type ManifestConfig struct {
	Path string `mapstructure:"path"`
}

// PipelineConfig tunes the result normalizer.
type PipelineConfig struct {
	Timezone              string `mapstructure:"timezone"`
	PlaceholderYearWindow *int   `mapstructure:"placeholder_year_window"`
}

// Location resolves the configured time zone, defaulting to the process zone.
func (p PipelineConfig) Location() (*time.Location, error) {
	if p.Timezone == "" || p.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(p.Timezone)
	if err != nil {
		return nil, fmt.Errorf("pipeline.timezone: %w", err)
	}
	return loc, nil
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

type MetricsConfig struct {
	Address string `mapstructure:"address"`
}
