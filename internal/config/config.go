// Package config loads application configuration from environment variables.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Config holds the application configuration loaded from PRWATCH_ environment
// variables. The GitHub token is optional: without one the app polls
// unauthenticated at the anonymous rate limit, and a token stored in the
// state file takes priority over the environment.
type Config struct {
	GitHubToken     string `env:"PRWATCH_GITHUB_TOKEN"`
	ListenAddr      string `env:"PRWATCH_LISTEN_ADDR" envDefault:"127.0.0.1:8080"`
	StatePath       string `env:"PRWATCH_STATE_PATH" envDefault:"prwatch_state.json"`
	IntervalSeconds int    `env:"PRWATCH_INTERVAL_SECONDS" envDefault:"30"`
	Debug           bool   `env:"PRWATCH_DEBUG" envDefault:"false"`
}

// Load reads configuration from environment variables and returns a Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	return cfg, nil
}
