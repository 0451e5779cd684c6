package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// parseEnv overlays cfg with TRACKER_* environment variables. Unset
// variables leave the current value alone. Durations use Go syntax ("15s").
func parseEnv(cfg *Config) {
	if err := env.Parse(cfg); err != nil {
		panic(fmt.Errorf("config: failed to parse environment variables: %w", err))
	}
}
