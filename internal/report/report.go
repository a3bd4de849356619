// Package report renders run results as a Markdown document.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/roach88/routecheck/internal/harness"
	"github.com/roach88/routecheck/internal/transcript"
)

// MaxPromptRunes bounds the prompt column.
const MaxPromptRunes = 60

// Markdown writes a report for run: a heading with totals, then one table
// per manifest and a list of process errors when there were any.
func Markdown(w io.Writer, run *harness.RunResult) error {
	var b strings.Builder

	sum := run.Summary()
	b.WriteString("# Routing report\n\n")
	fmt.Fprintf(&b, "- Run: `%s`\n", run.ID)
	fmt.Fprintf(&b, "- Started: %s\n", run.StartedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "- Duration: %s\n", run.FinishedAt.Sub(run.StartedAt).Round(time.Second))
	fmt.Fprintf(&b, "- Passed: %d/%d (%.1f%%)\n", sum.Passed, sum.Total, sum.PassRate*100)
	if sum.Errored > 0 {
		fmt.Fprintf(&b, "- Process errors: %d\n", sum.Errored)
	}

	for _, m := range run.Manifests {
		b.WriteString("\n")
		writeManifest(&b, m)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeManifest(b *strings.Builder, m harness.ManifestResult) {
	fmt.Fprintf(b, "## %s\n\n", m.Manifest)
	fmt.Fprintf(b, "Target: %s, model `%s`, %d/%d passed\n\n", target(m), m.Model, m.Passed(), len(m.Results))

	b.WriteString("| Test | Prompt | Expected | Actual | Tools | Result |\n")
	b.WriteString("|------|--------|----------|--------|-------|--------|\n")
	for _, r := range m.Results {
		fmt.Fprintf(b, "| %s | %s | %s | %s | %s | %s |\n",
			cell(r.ID),
			cell(transcript.Truncate(r.Prompt, MaxPromptRunes)),
			expected(r),
			actual(m, r),
			tools(r),
			verdict(r),
		)
	}

	var errs []harness.TestResult
	for _, r := range m.Results {
		if r.Error != "" {
			errs = append(errs, r)
		}
	}
	if len(errs) > 0 {
		b.WriteString("\nErrors:\n\n")
		for _, r := range errs {
			fmt.Fprintf(b, "- `%s`: %s\n", r.ID, oneLine(r.Error))
		}
	}
}

func target(m harness.ManifestResult) string {
	var parts []string
	if m.Skill != "" {
		parts = append(parts, fmt.Sprintf("skill `%s`", m.Skill))
	}
	if m.Agent != "" {
		parts = append(parts, fmt.Sprintf("agent `%s`", m.Agent))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " and ")
}

func expected(r harness.TestResult) string {
	if r.ShouldTrigger {
		return "trigger"
	}
	return "no trigger"
}

func actual(m harness.ManifestResult, r harness.TestResult) string {
	var hit []string
	if m.Skill != "" && r.Triggered {
		hit = append(hit, "skill")
	}
	if m.Agent != "" && r.AgentTriggered {
		hit = append(hit, "agent")
	}
	switch {
	case m.Skill == "" && m.Agent == "":
		return "n/a"
	case len(hit) == 0:
		return "not triggered"
	default:
		return strings.Join(hit, "+") + " triggered"
	}
}

func tools(r harness.TestResult) string {
	switch {
	case !r.ShouldTrigger || len(r.ExpectedTools) == 0:
		return "-"
	case r.ToolsPass:
		return "ok"
	default:
		return cell("missing " + strings.Join(r.MissingTools, ", "))
	}
}

func verdict(r harness.TestResult) string {
	if r.Pass {
		return "PASS"
	}
	return "**FAIL**"
}

// cell makes s safe inside a table cell.
func cell(s string) string {
	return strings.ReplaceAll(oneLine(s), "|", `\|`)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
