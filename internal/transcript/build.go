package transcript

import (
	"github.com/roach88/routecheck/internal/ir"
	"github.com/roach88/routecheck/internal/stream"
)

// MaxResultText is the rune limit for Result.Text.
const MaxResultText = 500

// Build converts decoded top-level events into transcript entries.
// Entry order follows event order, and block order within an assistant
// event. Events of any other shape produce no entry.
func Build(values []ir.Value) []Entry {
	entries := []Entry{}
	for _, v := range values {
		entries = appendEvent(entries, stream.Classify(v))
	}
	return entries
}

func appendEvent(entries []Entry, ev stream.Event) []Entry {
	switch e := ev.(type) {
	case stream.InitEvent:
		return append(entries, Init{
			Model:      e.Model,
			ToolCount:  len(e.Tools),
			SkillCount: len(e.Skills),
			Skills:     e.Skills,
			Tools:      e.Tools,
		})

	case stream.AssistantEvent:
		for _, block := range e.Blocks {
			switch b := block.(type) {
			case stream.TextBlock:
				if b.Text != "" {
					entries = append(entries, Text{Content: b.Text})
				}
			case stream.ToolUseBlock:
				entries = append(entries, ToolUse{Name: b.Name, Input: b.Input})
			case stream.ToolResultBlock:
				entries = append(entries, ToolResult{Content: contentText(b.Content)})
			}
		}
		if e.Error != nil {
			entries = append(entries, Error{Message: ir.Text(e.Error)})
		}
		return entries

	case stream.ResultEvent:
		r := Result{
			Cost:       e.CostUSD,
			Turns:      e.NumTurns,
			StopReason: e.StopReason,
		}
		if e.HasText {
			r.Text = Truncate(e.Text, MaxResultText)
		}
		return append(entries, r)
	}
	return entries
}

// contentText coerces a tool_result content value to a string.
// A missing content field yields "".
func contentText(v ir.Value) string {
	if v == nil {
		return ""
	}
	return ir.Text(v)
}
