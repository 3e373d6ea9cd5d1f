package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envOf(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

func TestLoad_Defaults(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load([]string{"-config-dir", dir, "-env-file", filepath.Join(dir, "missing.env")}, nil, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultPageSize, cfg.PageSize)
	assert.Equal(t, DefaultTimeout, cfg.Timeout)
	assert.Equal(t, "auto", cfg.Theme)
	assert.Empty(t, cfg.Resources)
	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(
		"base_url: https://file.example.com/\npage_size: 20\ntheme: light\ntimeout: 5s\nresources: [contests, users]\n"), 0o644))
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("ADMIN_PAGE_SIZE=30\nADMIN_TOKEN=from-dotenv\nADMIN_LOG_LEVEL=debug\n"), 0o644))

	env := envOf(map[string]string{
		"ADMIN_CONFIG_DIR": dir,
		"ADMIN_TOKEN":      "from-env",
	})
	cfg, err := Load([]string{"-env-file", envFile, "-limit", "100"}, env, io.Discard)
	require.NoError(t, err)

	assert.Equal(t, dir, cfg.ConfigDir)
	assert.Equal(t, "https://file.example.com", cfg.BaseURL, "file beats default, trailing slash trimmed")
	assert.Equal(t, "light", cfg.Theme)
	assert.Equal(t, 5*time.Second, cfg.Timeout)
	assert.Equal(t, []string{"contests", "users"}, cfg.Resources)
	assert.Equal(t, "from-env", cfg.Token, "process env beats .env")
	assert.Equal(t, "debug", cfg.LogLevel, ".env beats file and default")
	assert.Equal(t, 100, cfg.PageSize, "flag beats everything")
}

func TestLoad_ResourcesFlag(t *testing.T) {
	dir := t.TempDir()
	cfg, err := Load([]string{"-config-dir", dir, "-resources", "orders, subjects,,"}, envOf(map[string]string{"ADMIN_RESOURCES": "users"}), io.Discard)
	require.NoError(t, err)
	assert.Equal(t, []string{"orders", "subjects"}, cfg.Resources)
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		args []string
		env  map[string]string
		want error
	}{
		{"relative url", []string{"-api", "localhost:3000"}, nil, ErrBaseURL},
		{"page size", []string{"-limit", "0"}, nil, ErrPageSize},
		{"too large", []string{"-limit", "501"}, nil, ErrPageSize},
		{"theme", []string{"-theme", "neon"}, nil, ErrTheme},
		{"timeout", []string{"-timeout", "-1s"}, nil, ErrTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"-config-dir", dir}, tt.args...)
			_, err := Load(args, envOf(tt.env), io.Discard)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	_, err := Load([]string{"-config-dir", dir}, envOf(map[string]string{"ADMIN_PAGE_SIZE": "many"}), io.Discard)
	assert.ErrorContains(t, err, "ADMIN_PAGE_SIZE")

	_, err = Load([]string{"-config-dir", dir, "-log-level", "loud"}, nil, io.Discard)
	assert.ErrorContains(t, err, "log level")

	_, err = Load([]string{"-unknown"}, nil, io.Discard)
	assert.Error(t, err)
}

func TestLoad_MalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("page_size: [oops"), 0o644))
	_, err := Load([]string{"-config-dir", dir}, nil, io.Discard)
	assert.ErrorContains(t, err, "parsing")
}

func TestSave_OmitsToken(t *testing.T) {
	dir := t.TempDir()
	cfg := Defaults()
	cfg.ConfigDir = dir
	cfg.Token = "secret"
	cfg.PageSize = 20
	require.NoError(t, cfg.Save())

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.NotContains(t, string(data), "secret")

	loaded, err := Load([]string{"-config-dir", dir}, nil, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, 20, loaded.PageSize)
}
