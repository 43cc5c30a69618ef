package registernondefaulter

import (
	"time"

	"score-handler/internal/common/config"
)

type Config struct {
	Timeout time.Duration
}

// LoadConfig reads the worker section; the timeout defaults to 30s.
func LoadConfig(wcfg config.WorkerConfig) *Config {
	cfg := &Config{Timeout: 30 * time.Second}
	if wcfg.Timeout > 0 {
		cfg.Timeout = time.Duration(wcfg.Timeout) * time.Millisecond
	}
	return cfg
}
