package transcript

import (
	"fmt"
	"io"
	"strings"

	"github.com/roach88/routecheck/internal/ir"
)

// Display limits used by Render.
const (
	MaxListedNames  = 10
	MaxDisplayText  = 300
	MaxDisplayInput = 200
)

// Render writes a human-readable transcript, one entry per line.
// Long text is truncated and Init lists are capped at MaxListedNames.
func Render(w io.Writer, entries []Entry) error {
	for _, entry := range entries {
		if _, err := io.WriteString(w, renderEntry(entry)); err != nil {
			return err
		}
	}
	return nil
}

func renderEntry(entry Entry) string {
	var b strings.Builder
	switch e := entry.(type) {
	case Init:
		fmt.Fprintf(&b, "[init] model=%s tools=%d skills=%d\n", e.Model, e.ToolCount, e.SkillCount)
		if len(e.Skills) > 0 {
			fmt.Fprintf(&b, "       skills: %s\n", capList(e.Skills))
		}
		if len(e.Tools) > 0 {
			fmt.Fprintf(&b, "       tools: %s\n", capList(e.Tools))
		}
	case Text:
		fmt.Fprintf(&b, "[text] %s\n", oneLine(Truncate(e.Content, MaxDisplayText)))
	case ToolUse:
		fmt.Fprintf(&b, "[tool_use] %s %s\n", e.Name, Truncate(ir.Text(e.Input), MaxDisplayInput))
	case ToolResult:
		fmt.Fprintf(&b, "[tool_result] %s\n", oneLine(Truncate(e.Content, MaxDisplayText)))
	case Result:
		fmt.Fprintf(&b, "[result] cost=$%.4f turns=%d stop=%s\n", e.Cost, e.Turns, e.StopReason)
		if e.Text != "" {
			fmt.Fprintf(&b, "         %s\n", oneLine(Truncate(e.Text, MaxDisplayText)))
		}
	case Error:
		fmt.Fprintf(&b, "[error] %s\n", oneLine(e.Message))
	}
	return b.String()
}

func capList(names []string) string {
	if len(names) <= MaxListedNames {
		return strings.Join(names, ", ")
	}
	return fmt.Sprintf("%s (+%d more)", strings.Join(names[:MaxListedNames], ", "), len(names)-MaxListedNames)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
