package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/routecheck/internal/harness"
	"github.com/roach88/routecheck/internal/store"
)

func executeRun(t *testing.T, opts *RunOptions, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd := newRunCommand(opts)
	cmd.SetOut(buf)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRunCommandMissingArgs(t *testing.T) {
	_, err := executeRun(t, testRunOptions("text", newScripted()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires at least 1 arg")
}

func TestRunCommand_AllPass(t *testing.T) {
	dir := t.TempDir()
	manifest := writeFile(t, filepath.Join(dir, "demo.yaml"), demoManifest)
	exec := newScripted()

	out, err := executeRun(t, testRunOptions("text", exec), manifest)
	require.NoError(t, err)

	assert.Equal(t, []string{"use the foo skill", "say hello"}, exec.prompts)
	assert.Equal(t, []string{"sonnet", "sonnet"}, exec.models)
	assert.Contains(t, out, "pos")
	assert.Contains(t, out, "neg")
	assert.Contains(t, out, "(1.2s)")
	assert.Contains(t, out, "Routing Summary: 2 passed, 0 failed, 2 total (100.0%)")
	assert.Contains(t, out, "All tests passed")
}

func TestRunCommand_FailureExitCode(t *testing.T) {
	dir := t.TempDir()
	manifest := writeFile(t, filepath.Join(dir, "demo.yaml"), demoManifest)
	exec := newScripted()
	exec.streams["say hello"] = skillStream

	out, err := executeRun(t, testRunOptions("text", exec), manifest)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "1 test(s) failed")
	assert.Contains(t, out, "expected skill demo:foo not to trigger, it did")
	assert.Contains(t, out, "Routing Summary: 1 passed, 1 failed, 2 total (50.0%)")
	assert.NotContains(t, out, "All tests passed")
}

func TestRunCommand_MissingToolsReported(t *testing.T) {
	dir := t.TempDir()
	manifest := writeFile(t, filepath.Join(dir, "demo.yaml"), demoManifest)
	exec := newScripted()
	exec.streams["use the foo skill"] = `{"type":"assistant","message":{"content":[{"type":"tool_use","name":"Skill","input":{"skill":"demo:foo"}}]}}`

	out, err := executeRun(t, testRunOptions("text", exec), manifest)
	require.Error(t, err)
	assert.Contains(t, out, "missing tools: Read")
}

func TestRunCommand_JSON(t *testing.T) {
	dir := t.TempDir()
	manifest := writeFile(t, filepath.Join(dir, "demo.yaml"), demoManifest)

	out, err := executeRun(t, testRunOptions("json", newScripted()), manifest)
	require.NoError(t, err)

	// Transcript entries are encode-only, so decode just the summary.
	var resp struct {
		Status string `json:"status"`
		Data   struct {
			Summary harness.Summary `json:"summary"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp), out)
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, harness.Summary{Manifests: 1, Total: 2, Passed: 2, PassRate: 1}, resp.Data.Summary)
	assert.NotContains(t, out, "Routing Summary", "JSON output has no text lines")
}

func TestRunCommand_JSONFailure(t *testing.T) {
	dir := t.TempDir()
	manifest := writeFile(t, filepath.Join(dir, "demo.yaml"), demoManifest)
	exec := newScripted()
	exec.streams["use the foo skill"] = quietStream

	out, err := executeRun(t, testRunOptions("json", exec), manifest)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp["status"])
	assert.Equal(t, "E_TESTS_FAILED", resp["error"].(map[string]any)["code"])
	assert.NotNil(t, resp["data"])
}

func TestRunCommand_FilterAndModel(t *testing.T) {
	dir := t.TempDir()
	manifest := writeFile(t, filepath.Join(dir, "demo.yaml"), demoManifest)
	exec := newScripted()

	_, err := executeRun(t, testRunOptions("text", exec), manifest, "--filter", "po*", "--model", "opus")
	require.NoError(t, err)
	assert.Equal(t, []string{"use the foo skill"}, exec.prompts)
	assert.Equal(t, []string{"opus"}, exec.models)
}

func TestRunCommand_NoManifests(t *testing.T) {
	out, err := executeRun(t, testRunOptions("text", newScripted()), filepath.Join(t.TempDir(), "*.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "E_NO_MANIFESTS")
}

func TestRunCommand_InvalidManifestAbortsBeforeRunning(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.yaml"), demoManifest)
	writeFile(t, filepath.Join(dir, "b.yaml"), "skill: x\ntests: []\n")
	exec := newScripted()

	out, err := executeRun(t, testRunOptions("text", exec), filepath.Join(dir, "*.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "E_INVALID_MANIFEST")
	assert.Empty(t, exec.prompts, "no test runs when a manifest is invalid")
}

func TestRunCommand_Artifacts(t *testing.T) {
	dir := t.TempDir()
	manifest := writeFile(t, filepath.Join(dir, "skills", "demo.yaml"), demoManifest)
	outDir := filepath.Join(dir, "results")
	reportPath := filepath.Join(dir, "reports", "report.md")
	dbPath := filepath.Join(dir, "runs.db")

	_, err := executeRun(t, testRunOptions("text", newScripted()), manifest,
		"--out", outDir, "--report", reportPath, "--db", dbPath)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(outDir, "demo.results.json"))
	require.NoError(t, err)
	var mr map[string]any
	require.NoError(t, json.Unmarshal(data, &mr))
	assert.Equal(t, "demo:foo", mr["skill"])
	assert.Equal(t, "sonnet", mr["model"])
	assert.Len(t, mr["results"], 2)

	md, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "- Run: `run-1`")
	assert.Contains(t, string(md), "| pos | use the foo skill | trigger | skill triggered | ok | PASS |")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()
	runs, err := st.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, 2, runs[0].Summary.Passed)
}

func TestRunCommand_SettingsMerged(t *testing.T) {
	dir := t.TempDir()
	manifest := writeFile(t, filepath.Join(dir, "demo.yaml"), demoManifest)
	work := filepath.Join(dir, "work")
	writeFile(t, filepath.Join(work, ".claude", "settings.json"), `{"permissions":{"deny":["Bash"]}}`)

	_, err := executeRun(t, testRunOptions("text", newScripted()), manifest,
		"--workdir", work, "--settings", `{"permissions":{"allow":["Read"]}}`)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(work, ".claude", "settings.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"permissions":{"deny":["Bash"],"allow":["Read"]}}`, string(data))
}

func TestRunCommand_SettingsInvalid(t *testing.T) {
	dir := t.TempDir()
	manifest := writeFile(t, filepath.Join(dir, "demo.yaml"), demoManifest)
	exec := newScripted()

	out, err := executeRun(t, testRunOptions("text", exec), manifest,
		"--workdir", dir, "--settings", `{"broken":`)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "E_SETTINGS")
	assert.Empty(t, exec.prompts)
}

func TestRunCommand_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	manifest := writeFile(t, filepath.Join(dir, "demo.yaml"), demoManifest)
	cfg := writeFile(t, filepath.Join(dir, "routecheck.toml"), `
[run]
report = "`+filepath.ToSlash(filepath.Join(dir, "from-config.md"))+`"
`)

	opts := testRunOptions("text", newScripted())
	opts.Config = cfg
	_, err := executeRun(t, opts, manifest)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "from-config.md"))
	assert.NoError(t, err, "report path from config file should be used")
}

func TestRunCommand_BadConfig(t *testing.T) {
	dir := t.TempDir()
	manifest := writeFile(t, filepath.Join(dir, "demo.yaml"), demoManifest)
	cfg := writeFile(t, filepath.Join(dir, "routecheck.toml"), "[agent]\nmax_turnz = 3\n")

	opts := testRunOptions("text", newScripted())
	opts.Config = cfg
	out, err := executeRun(t, opts, manifest)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "E_CONFIG")
}

func TestWriteResultFiles_DuplicateBaseNames(t *testing.T) {
	dir := t.TempDir()
	paths, err := writeResultFiles(dir, []harness.ManifestResult{
		{Manifest: "a/demo.yaml", Model: "sonnet", Results: []harness.TestResult{}},
		{Manifest: "b/demo.yml", Model: "sonnet", Results: []harness.TestResult{}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "demo.results.json"),
		filepath.Join(dir, "demo-2.results.json"),
	}, paths)
}

func TestAxisNote(t *testing.T) {
	assert.Equal(t, "expected agent reviewer to trigger, it did not", axisNote("agent", "reviewer", true))
	assert.Equal(t, "expected skill s not to trigger, it did", axisNote("skill", "s", false))
}
