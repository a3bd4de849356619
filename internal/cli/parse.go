package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/routecheck/internal/invocation"
	"github.com/roach88/routecheck/internal/stream"
	"github.com/roach88/routecheck/internal/transcript"
)

// ParseOutput is the JSON payload of the parse command.
type ParseOutput struct {
	Events     int                `json:"events"`
	Tools      []string           `json:"tools"`
	Skills     []string           `json:"skills"`
	Agents     []string           `json:"agents"`
	Transcript []transcript.Entry `json:"transcript"`
}

// NewParseCommand creates the parse command.
func NewParseCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "parse <stream-file|->",
		Short: "Decode a captured agent stream",
		Long: `Decode a captured stream-json transcript and show what it invoked.

Reads newline-delimited JSON from a file, or stdin when the argument is "-".
Lines that are not JSON are skipped, as during a run.

Example:
  claude -p "commit my work" --output-format stream-json --verbose > session.jsonl
  routecheck parse session.jsonl`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runParse(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runParse(opts *RootOptions, source string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	var r io.Reader
	if source == "-" {
		r = cmd.InOrStdin()
	} else {
		f, err := os.Open(source)
		if err != nil {
			return formatter.Fail(ExitCommandError, ErrCodeInput, "failed to open stream", err)
		}
		defer f.Close()
		r = f
	}

	values, err := stream.DecodeReader(r)
	if err != nil {
		return formatter.Fail(ExitCommandError, ErrCodeInput, "failed to read stream", err)
	}
	formatter.VerboseLog("Decoded %d event(s)", len(values))

	inv := invocation.Extract(values)
	out := ParseOutput{
		Events:     len(values),
		Tools:      inv.Tools.Names(),
		Skills:     inv.Skills.Names(),
		Agents:     inv.Subagents.Names(),
		Transcript: transcript.Build(values),
	}

	if formatter.Format == "json" {
		return formatter.Success(out)
	}

	w := formatter.Writer
	if err := transcript.Render(w, out.Transcript); err != nil {
		return err
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "tools:  %s\n", listOrNone(out.Tools))
	fmt.Fprintf(w, "skills: %s\n", listOrNone(out.Skills))
	fmt.Fprintf(w, "agents: %s\n", listOrNone(out.Agents))
	return nil
}

func listOrNone(names []string) string {
	if len(names) == 0 {
		return "(none)"
	}
	return strings.Join(names, ", ")
}
