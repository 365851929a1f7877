// internal/workers/assistant/process-turn/config.go
package processturn

import (
	"time"

	"raphael-assistant/internal/common/config"
)

type Config struct {
	Timeout       time.Duration
	MaxJobsActive int
}

func LoadConfig(cfg config.WorkerConfig) *Config {
	c := &Config{
		Timeout:       time.Duration(cfg.Timeout) * time.Millisecond,
		MaxJobsActive: cfg.MaxJobsActive,
	}
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxJobsActive <= 0 {
		c.MaxJobsActive = 5
	}
	return c
}
