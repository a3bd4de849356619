// Package transcript reconstructs an ordered, human-readable record of one
// agent session from its decoded event stream.
package transcript

import (
	"encoding/json"

	"github.com/roach88/routecheck/internal/ir"
)

// Kind identifies a transcript entry variant. It is the "type" tag in JSON.
type Kind string

// Entry kinds.
const (
	KindInit       Kind = "init"
	KindText       Kind = "text"
	KindToolUse    Kind = "tool_use"
	KindToolResult Kind = "tool_result"
	KindResult     Kind = "result"
	KindError      Kind = "error"
)

// Entry is one transcript line.
// Implemented by Init, Text, ToolUse, ToolResult, Result and Error.
type Entry interface {
	Kind() Kind
}

// Init records the session init event.
// Skills and Tools hold the full lists; display code caps them.
type Init struct {
	Model      string   `json:"model"`
	ToolCount  int      `json:"toolCount"`
	SkillCount int      `json:"skillCount"`
	Skills     []string `json:"skills"`
	Tools      []string `json:"tools"`
}

// Text is assistant prose.
type Text struct {
	Content string `json:"content"`
}

// ToolUse is a tool call with its input kept as-is.
type ToolUse struct {
	Name  string   `json:"name"`
	Input ir.Value `json:"input"`
}

// ToolResult is a tool result coerced to text.
type ToolResult struct {
	Content string `json:"content"`
}

// Result summarizes the terminal result event.
type Result struct {
	Cost       float64 `json:"cost"`
	Turns      int     `json:"turns"`
	StopReason string  `json:"stopReason"`
	Text       string  `json:"result,omitempty"`
}

// Error is an error attached to an assistant event.
type Error struct {
	Message string `json:"message"`
}

func (Init) Kind() Kind       { return KindInit }
func (Text) Kind() Kind       { return KindText }
func (ToolUse) Kind() Kind    { return KindToolUse }
func (ToolResult) Kind() Kind { return KindToolResult }
func (Result) Kind() Kind     { return KindResult }
func (Error) Kind() Kind      { return KindError }

func (e Init) MarshalJSON() ([]byte, error) {
	type plain Init
	return marshalTagged(e.Kind(), plain(e))
}

func (e Text) MarshalJSON() ([]byte, error) {
	type plain Text
	return marshalTagged(e.Kind(), plain(e))
}

func (e ToolUse) MarshalJSON() ([]byte, error) {
	type plain ToolUse
	return marshalTagged(e.Kind(), plain(e))
}

func (e ToolResult) MarshalJSON() ([]byte, error) {
	type plain ToolResult
	return marshalTagged(e.Kind(), plain(e))
}

func (e Result) MarshalJSON() ([]byte, error) {
	type plain Result
	return marshalTagged(e.Kind(), plain(e))
}

func (e Error) MarshalJSON() ([]byte, error) {
	type plain Error
	return marshalTagged(e.Kind(), plain(e))
}

// marshalTagged encodes v as a JSON object with "type" as its first member.
func marshalTagged(kind Kind, v any) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	tag, err := json.Marshal(string(kind))
	if err != nil {
		return nil, err
	}

	out := make([]byte, 0, len(body)+len(tag)+8)
	out = append(out, `{"type":`...)
	out = append(out, tag...)
	if len(body) > 2 {
		out = append(out, ',')
		out = append(out, body[1:]...)
		return out, nil
	}
	return append(out, '}'), nil
}
