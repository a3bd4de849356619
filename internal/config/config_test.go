package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "routecheck.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// chdir changes the working directory for the duration of the test
// (equivalent of testing.T.Chdir, which requires Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "claude", cfg.Agent.Binary)
	assert.Equal(t, 10, cfg.Agent.MaxTurns)
	assert.Equal(t, 300*time.Second, cfg.Timeout())
	assert.Equal(t, []string{"CLAUDECODE"}, cfg.Agent.UnsetEnv)
	require.NoError(t, cfg.Validate())
}

func TestLoad_Full(t *testing.T) {
	t.Setenv("ROUTECHECK_TEST_TOKEN", "secret")

	cfg, err := Load("testdata/full.toml")
	require.NoError(t, err)

	assert.Equal(t, "testdata/full.toml", cfg.Path)
	assert.Equal(t, "/opt/claude/bin/claude", cfg.Agent.Binary)
	assert.Equal(t, 4, cfg.Agent.MaxTurns)
	assert.Equal(t, time.Minute, cfg.Timeout())
	assert.Equal(t, []string{"--plugin-dir", "./plugin"}, cfg.Agent.ExtraArgs)
	assert.Equal(t, []string{"CLAUDECODE", "CLAUDE_CODE_ENTRYPOINT"}, cfg.Agent.UnsetEnv)
	assert.Equal(t, "https://proxy.example/v1", cfg.Provider.BaseURL)
	assert.Equal(t, "secret", cfg.Provider.AuthToken)
	assert.Equal(t, map[string]string{"ANTHROPIC_SMALL_FAST_MODEL": "haiku"}, cfg.Provider.Env)
	assert.Equal(t, RunConfig{
		Settings: "settings.json",
		Database: "runs.db",
		Report:   "report.md",
		OutDir:   "results",
	}, cfg.Run)

	dir, err := cfg.Workdir()
	require.NoError(t, err)
	want, err := filepath.Abs("testdata/sandbox")
	require.NoError(t, err)
	assert.Equal(t, want, dir)
}

func TestLoad_PartialKeepsDefaults(t *testing.T) {
	path := writeConfig(t, "[agent]\nmax_turns = 3\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Agent.MaxTurns)
	assert.Equal(t, "claude", cfg.Agent.Binary)
	assert.Equal(t, 300, cfg.Agent.TimeoutSeconds)
}

func TestLoad_MissingDefaultFile(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, cfg.Path)
	assert.Equal(t, Default().Agent, cfg.Agent)
}

func TestLoad_DefaultFileInWorkingDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, DefaultFile), []byte("[agent]\nbinary = \"my-claude\"\n"), 0o644))
	chdir(t, dir)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "my-claude", cfg.Agent.Binary)
	assert.Equal(t, DefaultFile, cfg.Path)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorContains(t, err, "failed to load config")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"unknown key", "[agent]\nbinnary = \"x\"\n", "unknown keys: agent.binnary"},
		{"unknown table", "[agents]\nbinary = \"x\"\n", "unknown keys"},
		{"bad syntax", "[agent\n", "failed to load config"},
		{"wrong type", "[agent]\nmax_turns = \"ten\"\n", "failed to load config"},
		{"zero turns", "[agent]\nmax_turns = 0\n", "max_turns must be positive"},
		{"negative timeout", "[agent]\ntimeout_seconds = -1\n", "timeout_seconds must be positive"},
		{"empty binary", "[agent]\nbinary = \"\"\n", "binary must not be empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAgentConfig(t *testing.T) {
	path := writeConfig(t, `
[agent]
binary = "cc"
max_turns = 2
timeout_seconds = 5
workdir = "/abs/work"

[provider]
base_url = "http://localhost:4000"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	ac, err := cfg.AgentConfig()
	require.NoError(t, err)
	assert.Equal(t, "cc", ac.Binary)
	assert.Equal(t, 2, ac.MaxTurns)
	assert.Equal(t, 5*time.Second, ac.Timeout)
	assert.Equal(t, "/abs/work", ac.Dir)
	assert.Equal(t, "http://localhost:4000", ac.Provider.BaseURL)
}
