package testsupport

import (
	"path/filepath"
	"testing"

	"clipflow/internal/config"
)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...func(*config.Config)) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.WorkDir = filepath.Join(base, "clips")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Twitch.ClientID = "test-client"
	cfg.Twitch.ClientSecret = "test-secret"

	for _, opt := range opts {
		opt(&cfg)
	}

	return &cfg
}
