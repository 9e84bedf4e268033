package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/bibhubhatta/wecare/internal/inventory"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	err := os.WriteFile(path, []byte(`{
		// comments are allowed
		pantry: {
			base_url: "https://pantry.example.com",
			username: "volunteer",
			page_size: 25,
		},
		session: { driver: "rod" },
		worker: { poll_interval_ms: 250 },
	}`), 0600)
	require.NoError(t, err)
	err = os.WriteFile(filepath.Join(dir, "config.local.json5"), []byte(`{
		pantry: { username: "operator" },
	}`), 0600)
	require.NoError(t, err)

	t.Setenv("PANTRYSOFT_PASSWORD", "hunter2")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "https://pantry.example.com", cfg.Pantry.BaseUrl)
	require.Equal(t, "operator", cfg.Pantry.Username)
	require.Equal(t, "hunter2", cfg.Pantry.Password)
	require.Equal(t, 25, cfg.Pantry.PageSize)
	require.Equal(t, "rod", cfg.Session.Driver)
	require.Equal(t, "sqlite", cfg.Session.Store)
	require.Equal(t, "pantry.db", cfg.Database)
	require.Equal(t, int64(250), cfg.Worker.PollInterval().Milliseconds())
}

func TestLoadMissingFileUsesEnvironment(t *testing.T) {
	t.Setenv("PANTRYSOFT_USERNAME", "volunteer")
	t.Setenv("PANTRYSOFT_PASSWORD", "hunter2")

	cfg, err := Load(filepath.Join(t.TempDir(), "config.json5"))
	require.NoError(t, err)
	require.Equal(t, "volunteer", cfg.Pantry.Username)
	require.Equal(t, "chromedp", cfg.Session.Driver)
}

func TestValidate(t *testing.T) {
	cfg := Config{
		Session: SessionConfig{Driver: "selenium", Store: "redis"},
		Alert:   AlertConfig{To: []string{"a@example.com"}},
	}
	err := cfg.Validate()
	require.Error(t, err)
	for _, part := range []string{
		"pantry.username",
		"pantry.password",
		"session.driver",
		"session.redis_url",
		"alert.smtp.server",
	} {
		require.ErrorContains(t, err, part)
	}
}

func TestReadMalformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{ pantry: [`), 0600))

	_, err := Read(path)
	require.ErrorIs(t, err, inventory.ErrInvalid)
}
