// Package config loads ledgerkit settings from LEDGERKIT_* environment
// variables. Command-line flags override what is loaded here.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// StoreDir is the localfs block store directory.
	StoreDir string `env:"LEDGERKIT_STORE_DIR"`

	// MirrorDirs are extra localfs directories every block is also written
	// to and read back from when StoreDir's copy is missing or damaged.
	MirrorDirs []string `env:"LEDGERKIT_MIRROR_DIRS" envSeparator:","`

	// KeyDir holds agent keys; empty means ~/.ledgerkit/keys.
	KeyDir string `env:"LEDGERKIT_KEY_DIR"`

	// GRPCTarget, when set, reads records from a remote RecordStore instead
	// of StoreDir.
	GRPCTarget  string        `env:"LEDGERKIT_GRPC_TARGET"`
	DialTimeout time.Duration `env:"LEDGERKIT_DIAL_TIMEOUT" envDefault:"5s"`
	RPCTimeout  time.Duration `env:"LEDGERKIT_RPC_TIMEOUT" envDefault:"10s"`
	MaxMsgBytes int           `env:"LEDGERKIT_MAX_MSG_BYTES" envDefault:"4194304"`

	MaxChainDepth int        `env:"LEDGERKIT_MAX_CHAIN_DEPTH" envDefault:"4096"`
	LogLevel      slog.Level `env:"LEDGERKIT_LOG_LEVEL" envDefault:"WARN"`

	// Listen is the address ledgerd serves on.
	Listen string `env:"LEDGERKIT_LISTEN" envDefault:"127.0.0.1:7777"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load returns the configuration from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.MaxChainDepth <= 0 {
		return Config{}, fmt.Errorf("config: LEDGERKIT_MAX_CHAIN_DEPTH must be positive, got %d", cfg.MaxChainDepth)
	}
	return cfg, nil
}

// StoreDirs returns StoreDir followed by MirrorDirs, or nil when no store
// directory is configured.
func (c Config) StoreDirs() []string {
	if c.StoreDir == "" {
		return nil
	}
	return append([]string{c.StoreDir}, c.MirrorDirs...)
}

// Logger builds a text logger on w at the configured level.
func (c Config) Logger(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: c.LogLevel}))
}
