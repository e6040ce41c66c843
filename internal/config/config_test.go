package config

import (
	"bytes"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 5*time.Second, cfg.DialTimeout)
	require.Equal(t, 4096, cfg.MaxChainDepth)
	require.Equal(t, slog.LevelWarn, cfg.LogLevel)
	require.Equal(t, "127.0.0.1:7777", cfg.Listen)
	require.Empty(t, cfg.GRPCTarget)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("LEDGERKIT_STORE_DIR", "/var/lib/ledgerkit")
	t.Setenv("LEDGERKIT_RPC_TIMEOUT", "250ms")
	t.Setenv("LEDGERKIT_MAX_CHAIN_DEPTH", "16")
	t.Setenv("LEDGERKIT_LOG_LEVEL", "debug")
	t.Setenv("LEDGERKIT_MIRROR_DIRS", "/mnt/a,/mnt/b")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "/var/lib/ledgerkit", cfg.StoreDir)
	require.Equal(t, 250*time.Millisecond, cfg.RPCTimeout)
	require.Equal(t, 16, cfg.MaxChainDepth)
	require.Equal(t, slog.LevelDebug, cfg.LogLevel)
	require.Equal(t, []string{"/var/lib/ledgerkit", "/mnt/a", "/mnt/b"}, cfg.StoreDirs())
}

func TestLoadErrors(t *testing.T) {
	t.Setenv("LEDGERKIT_DIAL_TIMEOUT", "soon")
	_, err := Load()
	require.ErrorContains(t, err, "parse env:")

	t.Setenv("LEDGERKIT_DIAL_TIMEOUT", "1s")
	t.Setenv("LEDGERKIT_MAX_CHAIN_DEPTH", "0")
	_, err = Load()
	require.ErrorContains(t, err, "MAX_CHAIN_DEPTH")
}

func TestLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	log := Config{LogLevel: slog.LevelWarn}.Logger(&buf)
	log.Info("hidden")
	log.Warn("shown")
	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), "shown")
}
