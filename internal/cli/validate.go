package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/routecheck/internal/harness"
)

// ManifestSummary describes one valid manifest.
type ManifestSummary struct {
	Path     string `json:"path"`
	Skill    string `json:"skill,omitempty"`
	Agent    string `json:"agent,omitempty"`
	Model    string `json:"model"`
	Tests    int    `json:"tests"`
	Positive int    `json:"positive"`
	Negative int    `json:"negative"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool              `json:"valid"`
	Manifests []ManifestSummary `json:"manifests"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <manifest-glob>...",
		Short: "Validate test manifests without running them",
		Long: `Load and validate test manifests without starting the agent.

Checks YAML syntax, unknown fields, the manifest schema and duplicate test
ids. Faster than run for development feedback.

Exit codes:
  0 - All manifests valid
  1 - A manifest is invalid
  2 - No manifests matched`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, patterns []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	manifests, err := harness.LoadManifests(patterns)
	if err != nil {
		var me *harness.ManifestError
		if errors.As(err, &me) {
			return outputValidationError(formatter, me)
		}
		return formatter.Fail(ExitCommandError, ErrCodeNoManifests, "failed to resolve manifests", err)
	}

	result := ValidationResult{Valid: true, Manifests: make([]ManifestSummary, 0, len(manifests))}
	for _, m := range manifests {
		result.Manifests = append(result.Manifests, summarize(m))
	}

	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	st := newStyles(formatter.Writer)
	for _, s := range result.Manifests {
		fmt.Fprintf(formatter.Writer, "%s %s: %s, %d test(s) (%d positive, %d negative)\n",
			st.mark(true), s.Path, describeTarget(s.Skill, s.Agent), s.Tests, s.Positive, s.Negative)
		if s.Skill == "" && s.Agent == "" {
			fmt.Fprintf(formatter.Writer, "  %s\n", st.warn.Render("no skill or agent named; only expected_tools will be checked"))
		}
	}
	fmt.Fprintf(formatter.Writer, "%s All %d manifest(s) valid\n", st.mark(true), len(result.Manifests))
	return nil
}

func summarize(m *harness.Manifest) ManifestSummary {
	s := ManifestSummary{
		Path:  m.Path,
		Skill: m.Skill,
		Agent: m.Agent,
		Model: m.Model,
		Tests: len(m.Tests),
	}
	for _, tc := range m.Tests {
		if tc.ShouldTrigger {
			s.Positive++
		} else {
			s.Negative++
		}
	}
	return s
}

func describeTarget(skill, agent string) string {
	var parts []string
	if skill != "" {
		parts = append(parts, "skill "+skill)
	}
	if agent != "" {
		parts = append(parts, "agent "+agent)
	}
	if len(parts) == 0 {
		return "no target"
	}
	return strings.Join(parts, ", ")
}

// outputValidationError reports an invalid manifest.
func outputValidationError(formatter *OutputFormatter, err *harness.ManifestError) error {
	details := map[string]string{"path": err.Path, "error": err.Err.Error()}

	if formatter.Format == "json" {
		if rerr := formatter.Respond(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Manifests: []ManifestSummary{}},
			Error: &CLIError{
				Code:    ErrCodeManifest,
				Message: err.Error(),
				Details: details,
			},
		}); rerr != nil {
			return rerr
		}
		// Validation failures = exit code 1 (test/validation failure)
		return WrapExitError(ExitFailure, "validation failed", err)
	}

	st := newStyles(formatter.Writer)
	fmt.Fprintf(formatter.Writer, "%s Validation failed\n\n", st.mark(false))
	fmt.Fprintf(formatter.Writer, "  %s: %s\n", ErrCodeManifest, err)

	// Validation failures = exit code 1 (test/validation failure)
	return WrapExitError(ExitFailure, "validation failed", err)
}
