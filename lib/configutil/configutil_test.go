package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Url      string `json:"url" env:"WECARE_TEST_URL"`
	Username string `json:"username" env:"WECARE_TEST_USERNAME"`
	Password string `json:"password" env:"WECARE_TEST_PASSWORD"`
	PageSize int    `json:"page_size"`
}

func TestReadConfigMergesLocal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json5"), []byte(`{
		// comments are allowed
		url: "https://app.pantrysoft.com",
		username: "default",
		page_size: 50,
	}`), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.local.json5"), []byte(`{
		username: "override",
	}`), 0600))

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, testConfig{
		Url:      "https://app.pantrysoft.com",
		Username: "override",
		PageSize: 50,
	}, cfg)
}

func TestReadConfigMissing(t *testing.T) {
	_, err := ReadConfig[testConfig](filepath.Join(t.TempDir(), "config.json5"))
	require.True(t, os.IsNotExist(err))
}

func TestLoadEnvOverlay(t *testing.T) {
	dir := t.TempDir()
	dotenv := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(dotenv, []byte("WECARE_TEST_PASSWORD=from-dotenv\n"), 0600))
	t.Setenv("WECARE_TEST_USERNAME", "from-env")
	t.Cleanup(func() { os.Unsetenv("WECARE_TEST_PASSWORD") })

	cfg := testConfig{Url: "https://example.com", Username: "from-file"}
	err := LoadEnv(&cfg, dotenv, filepath.Join(dir, "missing.env"))
	require.NoError(t, err)

	require.Equal(t, "https://example.com", cfg.Url)
	require.Equal(t, "from-env", cfg.Username)
	require.Equal(t, "from-dotenv", cfg.Password)
}

func TestReadConfigMalformed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json5")
	require.NoError(t, os.WriteFile(path, []byte(`{ url: `), 0600))

	_, err := ReadConfig[testConfig](path)
	require.ErrorIs(t, err, ErrMalformed)
	require.ErrorContains(t, err, path)
}

func TestReadConfigOnlyLocal(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.local.json5"), []byte(`{ page_size: 10 }`), 0600))

	cfg, err := ReadConfig[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, 10, cfg.PageSize)
}

func TestLoadReadsDotenvBesideConfig(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json5"), []byte(`{ username: "from-file" }`), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("WECARE_TEST_URL=https://from-dotenv\n"), 0600))
	t.Cleanup(func() { os.Unsetenv("WECARE_TEST_URL") })

	cfg, err := Load[testConfig](filepath.Join(dir, "config.json5"))
	require.NoError(t, err)
	require.Equal(t, "from-file", cfg.Username)
	require.Equal(t, "https://from-dotenv", cfg.Url)
}

func TestLoadMissingConfig(t *testing.T) {
	t.Setenv("WECARE_TEST_USERNAME", "from-env")

	cfg, err := Load[testConfig](filepath.Join(t.TempDir(), "config.json5"))
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.Username)
}

func TestReadRecursively(t *testing.T) {
	root := t.TempDir()
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0700))
	require.NoError(t, os.WriteFile(filepath.Join(root, "telemetry.json5"), []byte(`{ page_size: 7 }`), 0600))
	t.Chdir(nested)

	cfg, err := ReadRecursively[testConfig]("telemetry.json5")
	require.NoError(t, err)
	require.Equal(t, 7, cfg.PageSize)
}
