package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goto/changelogger/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadServerConfig(t *testing.T) {
	t.Run("applies defaults for missing keys", func(t *testing.T) {
		path := writeConfig(t, `
git:
  token: secret
`)

		conf, err := config.LoadServerConfig(path)

		require.NoError(t, err)
		assert.Equal(t, config.LogLevelInfo, conf.Log.Level)
		assert.Equal(t, 8080, conf.Serve.Port)
		assert.Equal(t, 2*time.Minute, conf.Serve.RequestTimeout)
		assert.Equal(t, config.ProviderGithub, conf.Git.Provider)
		assert.Equal(t, "secret", conf.Git.Token)
		assert.Equal(t, 10*time.Minute, conf.Git.CacheTTL)
		assert.Equal(t, config.GeneratorGemini, conf.Generator.Provider)
		assert.Equal(t, 12000, conf.Summary.MaxChars)
		assert.Equal(t, 3, conf.Compare.ContextRadius)
		assert.Equal(t, 10, conf.Compare.Concurrency)
	})
	t.Run("reads values from file", func(t *testing.T) {
		path := writeConfig(t, `
log:
  level: debug
serve:
  port: 9000
  request_timeout: 30s
  db:
    dsn: postgres://localhost:5432/changelogger
git:
  provider: gitlab
  base_url: https://gitlab.example.com
generator:
  provider: openai
  model: gpt-4o
  temperature: 0.5
summary:
  max_chars: 500
compare:
  concurrency: 4
  context_radius: 1
`)

		conf, err := config.LoadServerConfig(path)

		require.NoError(t, err)
		assert.Equal(t, "DEBUG", conf.Log.Level.String())
		assert.Equal(t, 9000, conf.Serve.Port)
		assert.Equal(t, 30*time.Second, conf.Serve.RequestTimeout)
		assert.Equal(t, "postgres://localhost:5432/changelogger", conf.Serve.DB.DSN)
		assert.Equal(t, config.ProviderGitlab, conf.Git.Provider)
		assert.Equal(t, "https://gitlab.example.com", conf.Git.BaseURL)
		assert.Equal(t, config.GeneratorOpenAI, conf.Generator.Provider)
		assert.Equal(t, "gpt-4o", conf.Generator.Model)
		assert.InDelta(t, 0.5, conf.Generator.Temperature, 0.0001)
		assert.Equal(t, 500, conf.Summary.MaxChars)
		assert.Equal(t, 4, conf.Compare.Concurrency)
		assert.Equal(t, 1, conf.Compare.ContextRadius)
		assert.NoError(t, conf.RequireDB())
	})
	t.Run("environment overrides file", func(t *testing.T) {
		path := writeConfig(t, `
git:
  token: from-file
`)
		t.Setenv("CHANGELOGGER_GIT_TOKEN", "from-env")
		t.Setenv("CHANGELOGGER_SUMMARY_MAX_CHARS", "42")

		conf, err := config.LoadServerConfig(path)

		require.NoError(t, err)
		assert.Equal(t, "from-env", conf.Git.Token)
		assert.Equal(t, 42, conf.Summary.MaxChars)
	})
	t.Run("returns error when file does not exist", func(t *testing.T) {
		_, err := config.LoadServerConfig(filepath.Join(t.TempDir(), "missing.yaml"))

		assert.Error(t, err)
	})
	t.Run("returns error for unknown provider", func(t *testing.T) {
		path := writeConfig(t, `
git:
  provider: bitbucket
`)

		_, err := config.LoadServerConfig(path)

		assert.ErrorContains(t, err, "git")
	})
	t.Run("requires dsn for database commands", func(t *testing.T) {
		path := writeConfig(t, `
log:
  level: info
`)

		conf, err := config.LoadServerConfig(path)

		require.NoError(t, err)
		assert.Error(t, conf.RequireDB())
	})
}
