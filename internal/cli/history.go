package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/routecheck/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Limit    int
	RunID    string
}

// RunDetail is the JSON payload of history --run.
type RunDetail struct {
	Run   store.RunRecord    `json:"run"`
	Tests []store.TestRecord `json:"tests"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Long: `List runs recorded with run --db, newest first.

With --run, show the per-test results of one run instead.

Examples:
  routecheck history --db runs.db
  routecheck history --db runs.db --limit 5 --format json
  routecheck history --db runs.db --run 0192f3c4-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "maximum runs to list (0 for all)")
	cmd.Flags().StringVar(&opts.RunID, "run", "", "show test results for this run id")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	// Opening would create an empty database; a typo should fail instead.
	if _, err := os.Stat(opts.Database); err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "database not found", err)
	}
	st, err := store.Open(opts.Database)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if opts.RunID != "" {
		run, err := st.GetRun(ctx, opts.RunID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return formatter.Fail(ExitFailure, ErrCodeStore, "run not found", err)
			}
			return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to read run", err)
		}
		tests, err := st.RunResults(ctx, opts.RunID)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to read run", err)
		}
		return outputRunDetail(formatter, RunDetail{Run: run, Tests: tests})
	}

	runs, err := st.ListRuns(ctx, opts.Limit)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeStore, "failed to list runs", err)
	}
	return outputRunList(formatter, runs)
}

func outputRunList(formatter *OutputFormatter, runs []store.RunRecord) error {
	if formatter.Format == "json" {
		return formatter.Success(runs)
	}

	w := formatter.Writer
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	st := newStyles(w)
	for _, r := range runs {
		fmt.Fprintf(w, "%s %s  %s  %d/%d passed (%.1f%%)",
			st.mark(r.Summary.Failed == 0),
			r.ID,
			r.StartedAt.UTC().Format("2006-01-02 15:04:05"),
			r.Summary.Passed, r.Summary.Total, r.Summary.PassRate*100,
		)
		if r.Summary.Errored > 0 {
			fmt.Fprintf(w, "  %s", st.warn.Render(fmt.Sprintf("%d error(s)", r.Summary.Errored)))
		}
		fmt.Fprintln(w)
	}
	return nil
}

func outputRunDetail(formatter *OutputFormatter, detail RunDetail) error {
	if formatter.Format == "json" {
		return formatter.Success(detail)
	}

	w := formatter.Writer
	st := newStyles(w)
	s := detail.Run.Summary
	fmt.Fprintf(w, "Run %s  %s  %d/%d passed\n\n",
		detail.Run.ID, detail.Run.StartedAt.UTC().Format("2006-01-02 15:04:05"), s.Passed, s.Total)
	for _, t := range detail.Tests {
		fmt.Fprintf(w, "%s %s %s  %s\n", st.mark(t.Pass), t.Manifest, t.TestID, st.muted.Render(t.Model))
		if t.Error != "" {
			fmt.Fprintf(w, "    %s\n", st.warn.Render("agent error: "+t.Error))
		}
	}
	return nil
}
