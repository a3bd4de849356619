package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/routecheck/internal/agent"
	"github.com/roach88/routecheck/internal/config"
	"github.com/roach88/routecheck/internal/harness"
	"github.com/roach88/routecheck/internal/report"
	"github.com/roach88/routecheck/internal/settings"
	"github.com/roach88/routecheck/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions

	Filter   string
	Model    string
	Binary   string
	MaxTurns int
	Timeout  time.Duration
	Workdir  string
	Settings string
	Database string
	Report   string
	OutDir   string

	// Executor overrides the agent CLI (for testing).
	// If nil, an agent.Agent is built from config and flags.
	Executor harness.Executor

	// Clock and IDs override run stamping (for testing).
	Clock harness.Clock
	IDs   harness.IDGenerator
}

// RunOutput is the JSON payload of a run.
type RunOutput struct {
	Run     *harness.RunResult `json:"run"`
	Summary harness.Summary    `json:"summary"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <manifest-glob>...",
		Short: "Run routing tests against the agent",
		Long: `Run every test in the matching manifests, one agent process at a time.

Globs support ** for recursive matching. Manifests are validated before
anything runs; an invalid manifest aborts the run.

Exit codes:
  0 - All tests passed
  1 - One or more tests failed
  2 - Command error (bad config, no manifests, database unavailable)

Examples:
  routecheck run 'tests/**/*.yaml'
  routecheck run skills/commit.yaml --filter 'neg-*' --model haiku
  routecheck run 'tests/*.yaml' --settings '{"permissions":{"deny":["Bash"]}}'
  routecheck run 'tests/*.yaml' --out results --report report.md --db runs.db`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runManifests(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "", "only run tests whose id matches this glob")
	cmd.Flags().StringVar(&opts.Model, "model", "", "override every manifest's model")
	cmd.Flags().StringVar(&opts.Binary, "agent-bin", "", "agent CLI executable (default from config, then \"claude\")")
	cmd.Flags().IntVar(&opts.MaxTurns, "max-turns", 0, "agent turn limit per test (default from config, then 10)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "wall-clock limit per test (default from config, then 5m)")
	cmd.Flags().StringVar(&opts.Workdir, "workdir", "", "directory the agent runs in")
	cmd.Flags().StringVar(&opts.Settings, "settings", "", "JSON object or file merged into <workdir>/.claude/settings.json")
	cmd.Flags().StringVar(&opts.Database, "db", "", "SQLite database to record the run in")
	cmd.Flags().StringVar(&opts.Report, "report", "", "write a Markdown report to this file")
	cmd.Flags().StringVar(&opts.OutDir, "out", "", "write <manifest>.results.json files to this directory")

	return cmd
}

func runManifests(opts *RunOptions, patterns []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}
	if cfg.Path != "" {
		formatter.VerboseLog("Using config %s", cfg.Path)
	}
	applyRunFlags(opts, cfg)
	if err := cfg.Validate(); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "invalid options", err)
	}

	manifests, err := harness.LoadManifests(patterns)
	if err != nil {
		var me *harness.ManifestError
		if errors.As(err, &me) {
			return formatter.Fail(ExitFailure, ErrCodeManifest, "invalid manifest", err)
		}
		return formatter.Fail(ExitCommandError, ErrCodeNoManifests, "failed to resolve manifests", err)
	}
	formatter.VerboseLog("Loaded %d manifest(s)", len(manifests))

	agentCfg, err := cfg.AgentConfig()
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeConfig, "invalid agent configuration", err)
	}
	agentCfg.Logger = logger
	if opts.Timeout > 0 {
		agentCfg.Timeout = opts.Timeout
	}

	if cfg.Run.Settings != "" {
		path := settings.ProjectPath(agentCfg.Dir)
		if err := mergeSettings(path, cfg.Run.Settings); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeSettings, "failed to apply settings", err)
		}
		formatter.VerboseLog("Merged settings into %s", path)
	}

	exec := opts.Executor
	if exec == nil {
		a, err := agent.New(agentCfg)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeAgent, "invalid agent configuration", err)
		}
		exec = a
	}

	ctx, stop := signalContext(cmd.Context(), logger)
	defer stop()

	st := newStyles(cmd.OutOrStdout())
	runner := harness.NewRunner(exec, harness.Options{
		Logger: logger,
		Clock:  opts.Clock,
		IDs:    opts.IDs,
		Filter: opts.Filter,
		Model:  opts.Model,
		OnResult: func(m *harness.Manifest, r harness.TestResult) {
			if opts.Format != "json" {
				fmt.Fprintln(cmd.OutOrStdout(), formatResultLine(st, m, r))
			}
		},
	})

	run := runner.Run(ctx, manifests)
	interrupted := ctx.Err() != nil

	if err := writeRunArtifacts(cfg.Run, run, formatter); err != nil {
		return err
	}

	return outputRun(formatter, st, run, interrupted)
}

// applyRunFlags lets explicit flags override config file values.
func applyRunFlags(opts *RunOptions, cfg *config.Config) {
	if opts.Binary != "" {
		cfg.Agent.Binary = opts.Binary
	}
	if opts.MaxTurns != 0 {
		cfg.Agent.MaxTurns = opts.MaxTurns
	}
	if opts.Workdir != "" {
		// Flags resolve against the current directory, not the config file.
		abs, err := filepath.Abs(opts.Workdir)
		if err == nil {
			cfg.Agent.Workdir = abs
		}
	}
	if opts.Settings != "" {
		cfg.Run.Settings = opts.Settings
	}
	if opts.Database != "" {
		cfg.Run.Database = opts.Database
	}
	if opts.Report != "" {
		cfg.Run.Report = opts.Report
	}
	if opts.OutDir != "" {
		cfg.Run.OutDir = opts.OutDir
	}
}

// mergeSettings accepts inline JSON or a path to a JSON file.
func mergeSettings(path, value string) error {
	var (
		overlay map[string]any
		err     error
	)
	if strings.HasPrefix(strings.TrimSpace(value), "{") {
		overlay, err = settings.ParseOverlay([]byte(value))
	} else {
		overlay, err = settings.LoadOverlay(value)
	}
	if err != nil {
		return err
	}
	_, err = settings.Merge(path, overlay)
	return err
}

// signalContext cancels on SIGINT/SIGTERM. The in-flight test finishes
// its kill-and-reap before the run stops.
func signalContext(parent context.Context, logger *slog.Logger) (context.Context, func()) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancel(parent)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-sigChan:
			logger.Warn("received signal, stopping run", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	return ctx, func() {
		signal.Stop(sigChan)
		cancel()
	}
}

// writeRunArtifacts writes result files, the report and the history row.
func writeRunArtifacts(rc config.RunConfig, run *harness.RunResult, formatter *OutputFormatter) error {
	if rc.OutDir != "" {
		paths, err := writeResultFiles(rc.OutDir, run.Manifests)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeOutput, "failed to write result files", err)
		}
		for _, p := range paths {
			formatter.VerboseLog("Wrote %s", p)
		}
	}

	if rc.Report != "" {
		if err := writeReport(rc.Report, run); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeOutput, "failed to write report", err)
		}
		formatter.VerboseLog("Wrote report %s", rc.Report)
	}

	if rc.Database != "" {
		if err := saveRun(rc.Database, run); err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to record run", err)
		}
		formatter.VerboseLog("Recorded run %s in %s", run.ID, rc.Database)
	}
	return nil
}

// writeResultFiles writes one <base>.results.json per manifest. Manifests
// sharing a base name get a numeric suffix.
func writeResultFiles(dir string, results []harness.ManifestResult) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}

	used := make(map[string]int)
	paths := make([]string, 0, len(results))
	for _, mr := range results {
		base := strings.TrimSuffix(filepath.Base(mr.Manifest), filepath.Ext(mr.Manifest))
		if base == "" || base == "." {
			base = "manifest"
		}
		used[base]++
		if n := used[base]; n > 1 {
			base = fmt.Sprintf("%s-%d", base, n)
		}

		data, err := json.MarshalIndent(mr, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", mr.Manifest, err)
		}
		path := filepath.Join(dir, base+".results.json")
		if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeReport(path string, run *harness.RunResult) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.Markdown(f, run); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func saveRun(path string, run *harness.RunResult) error {
	st, err := store.Open(path)
	if err != nil {
		return err
	}
	defer st.Close()
	return st.SaveRun(context.Background(), run)
}

// formatResultLine renders one finished test for text output.
func formatResultLine(st styles, m *harness.Manifest, r harness.TestResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s", st.mark(r.Pass), m.Path, st.bold.Render(r.ID))
	fmt.Fprintf(&b, " %s", st.muted.Render(fmt.Sprintf("(%.1fs)", float64(r.DurationMS)/1000)))

	var notes []string
	if !r.SkillPass {
		notes = append(notes, axisNote("skill", m.Skill, r.ShouldTrigger))
	}
	if !r.AgentPass {
		notes = append(notes, axisNote("agent", m.Agent, r.ShouldTrigger))
	}
	if !r.ToolsPass {
		notes = append(notes, "missing tools: "+strings.Join(r.MissingTools, ", "))
	}
	for _, n := range notes {
		fmt.Fprintf(&b, "\n    %s", n)
	}
	if r.Error != "" {
		fmt.Fprintf(&b, "\n    %s", st.warn.Render("agent error: "+r.Error))
	}
	return b.String()
}

func axisNote(axis, name string, shouldTrigger bool) string {
	if shouldTrigger {
		return fmt.Sprintf("expected %s %s to trigger, it did not", axis, name)
	}
	return fmt.Sprintf("expected %s %s not to trigger, it did", axis, name)
}

// outputRun prints the summary and maps the outcome to an exit code.
func outputRun(formatter *OutputFormatter, st styles, run *harness.RunResult, interrupted bool) error {
	sum := run.Summary()

	var failure *ExitError
	switch {
	case interrupted:
		failure = NewExitError(ExitCommandError, "run interrupted")
	case sum.Failed > 0:
		failure = NewExitError(ExitFailure, fmt.Sprintf("%d test(s) failed", sum.Failed))
	}

	if formatter.Format == "json" {
		resp := CLIResponse{Status: "ok", Data: RunOutput{Run: run, Summary: sum}}
		if failure != nil {
			code := ErrCodeTestsFailed
			if interrupted {
				code = ErrCodeInterrupted
			}
			resp.Status = "error"
			resp.Error = &CLIError{Code: code, Message: failure.Message}
		}
		if err := formatter.Respond(resp); err != nil {
			return err
		}
		if failure != nil {
			return failure
		}
		return nil
	}

	w := formatter.Writer
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Routing Summary: %d passed, %d failed, %d total (%.1f%%)\n",
		sum.Passed, sum.Failed, sum.Total, sum.PassRate*100)
	if sum.Errored > 0 {
		fmt.Fprintln(w, st.warn.Render(fmt.Sprintf("%d test(s) hit agent errors", sum.Errored)))
	}

	if failure != nil {
		return failure
	}
	if sum.Total == 0 {
		fmt.Fprintln(w, st.warn.Render("No tests ran"))
		return nil
	}
	fmt.Fprintln(w, st.pass.Render("✓ All tests passed"))
	return nil
}
