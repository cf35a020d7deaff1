// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

var (
	ErrMaxRounds      = errors.New("max rounds must be at least 1")
	ErrSimplifyTarget = errors.New("simplify target must be 0 or at least 2")
	ErrWorkers        = errors.New("workers must be at least 1")
)

// Config is shared by the combatcalc CLI and the calcserver.
type Config struct {
	LogLevel       string `env:"COMBATCALC_LOG_LEVEL" envDefault:"info"`
	MaxRounds      int    `env:"COMBATCALC_MAX_ROUNDS" envDefault:"25"`
	SimplifyTarget int    `env:"COMBATCALC_SIMPLIFY_TARGET" envDefault:"0"`
	Workers        int    `env:"COMBATCALC_WORKERS" envDefault:"4"`
	HTTPAddr       string `env:"COMBATCALC_HTTP_ADDR" envDefault:":8080"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses and validates Config.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	if c.MaxRounds < 1 {
		return fmt.Errorf("%w: %d", ErrMaxRounds, c.MaxRounds)
	}
	if c.SimplifyTarget < 0 || c.SimplifyTarget == 1 {
		return fmt.Errorf("%w: %d", ErrSimplifyTarget, c.SimplifyTarget)
	}
	if c.Workers < 1 {
		return fmt.Errorf("%w: %d", ErrWorkers, c.Workers)
	}
	return nil
}
