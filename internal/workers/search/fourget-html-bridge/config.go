// internal/workers/search/fourget-html-bridge/config.go
package fourgethtmlbridge

import (
	"fmt"
	"time"

	"fourget-bridge/internal/common/config"
)

type Config struct {
	Enabled       bool          `mapstructure:"enabled"`
	MaxJobsActive int           `mapstructure:"max_jobs_active"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxRetries    int           `mapstructure:"max_retries"`
	// UserAgent is sent to the engine when fetching its result page.
	UserAgent string `mapstructure:"user_agent"`
}

func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		MaxJobsActive: 5,
		Timeout:       30 * time.Second,
		MaxRetries:    2,
		UserAgent:     config.DefaultBridgeUserAgent,
	}
}

func FromWorkerConfig(wc config.WorkerConfig, userAgent string) *Config {
	if userAgent == "" {
		userAgent = config.DefaultBridgeUserAgent
	}
	return &Config{
		Enabled:       wc.Enabled,
		MaxJobsActive: wc.MaxJobsActive,
		Timeout:       config.GetDuration(wc.Timeout),
		MaxRetries:    wc.MaxRetries,
		UserAgent:     userAgent,
	}
}

func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxJobsActive <= 0 {
		return fmt.Errorf("max_jobs_active must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries cannot be negative")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user_agent is required")
	}
	return nil
}
