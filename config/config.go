// Package config loads sandbox configuration from environment variables.
// Command-line flags override anything set here.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds the environment-settable options of the safari binary.
type Config struct {
	// StoragePath points at the SQLite database file. Empty means the
	// in-memory store.
	StoragePath string `env:"SAFARI_DB"`
	// GuildDir is the directory of Lua guild configuration files.
	GuildDir string `env:"SAFARI_GUILD_DIR"`
	// PlayerID is the player the sandbox impersonates at startup.
	PlayerID string `env:"SAFARI_PLAYER" envDefault:"player-1"`
}

// FromEnv parses configuration from the process environment.
func FromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
