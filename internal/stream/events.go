package stream

import (
	"github.com/roach88/routecheck/internal/ir"
)

// Event type discriminators recognized at the top level.
const (
	TypeSystem    = "system"
	TypeAssistant = "assistant"
	TypeResult    = "result"

	SubtypeInit = "init"
)

// Content block discriminators inside assistant messages.
const (
	BlockText       = "text"
	BlockToolUse    = "tool_use"
	BlockToolResult = "tool_result"
)

// Event is a classified top-level event.
// Implemented by InitEvent, AssistantEvent, ResultEvent and UnknownEvent.
type Event interface {
	eventMarker()
}

// InitEvent is the session initialization event (type=system, subtype=init).
type InitEvent struct {
	Model  string
	Tools  []string
	Skills []string
}

// AssistantEvent is an assistant message carrying a content array.
type AssistantEvent struct {
	Blocks []Block

	// Error is the event's top-level "error" field, nil when absent, null,
	// false or "".
	Error ir.Value
}

// ResultEvent is the terminal result event.
type ResultEvent struct {
	CostUSD    float64
	NumTurns   int
	StopReason string

	// Text is the "result" field when it is a string.
	Text    string
	HasText bool
}

// UnknownEvent is any top-level value that matched no known shape.
// Type holds the "type" discriminator if there was one.
type UnknownEvent struct {
	Type string
}

func (InitEvent) eventMarker()      {}
func (AssistantEvent) eventMarker() {}
func (ResultEvent) eventMarker()    {}
func (UnknownEvent) eventMarker()   {}

// Block is a single element of an assistant message's content array.
// Implemented by TextBlock, ToolUseBlock, ToolResultBlock and UnknownBlock.
type Block interface {
	blockMarker()
}

// TextBlock is a text content block.
type TextBlock struct {
	Text string
}

// ToolUseBlock is a tool invocation content block. Input is kept as-is.
type ToolUseBlock struct {
	Name  string
	Input ir.Value
}

// ToolResultBlock is a tool result content block. Content is kept as-is.
type ToolResultBlock struct {
	Content ir.Value
}

// UnknownBlock is a content element that matched no known shape.
type UnknownBlock struct{}

func (TextBlock) blockMarker()       {}
func (ToolUseBlock) blockMarker()    {}
func (ToolResultBlock) blockMarker() {}
func (UnknownBlock) blockMarker()    {}

// Classify maps a decoded top-level value to its event shape.
// Anything that does not match a known shape is returned as UnknownEvent.
func Classify(v ir.Value) Event {
	obj, ok := v.(ir.Object)
	if !ok {
		return UnknownEvent{}
	}

	typ := obj.Type()
	switch typ {
	case TypeSystem:
		if sub, _ := obj.GetString("subtype"); sub == SubtypeInit {
			return classifyInit(obj)
		}
	case TypeAssistant:
		if ev, ok := classifyAssistant(obj); ok {
			return ev
		}
	case TypeResult:
		return classifyResult(obj)
	}
	return UnknownEvent{Type: typ}
}

func classifyInit(obj ir.Object) InitEvent {
	model, _ := obj.GetString("model")
	tools, _ := obj.GetArray("tools")
	skills, _ := obj.GetArray("skills")
	return InitEvent{
		Model:  model,
		Tools:  textList(tools),
		Skills: textList(skills),
	}
}

func classifyAssistant(obj ir.Object) (AssistantEvent, bool) {
	message, ok := obj.GetObject("message")
	if !ok {
		return AssistantEvent{}, false
	}
	content, ok := message.GetArray("content")
	if !ok {
		return AssistantEvent{}, false
	}

	ev := AssistantEvent{Blocks: make([]Block, 0, len(content))}
	for _, elem := range content {
		ev.Blocks = append(ev.Blocks, classifyBlock(elem))
	}
	if errVal, ok := obj.Get("error"); ok && isSet(errVal) {
		ev.Error = errVal
	}
	return ev, true
}

// isSet reports whether an error field carries anything. null, false and
// the empty string mean no error.
func isSet(v ir.Value) bool {
	switch v := v.(type) {
	case ir.Null:
		return false
	case ir.Bool:
		return bool(v)
	case ir.String:
		return v != ""
	}
	return true
}

func classifyBlock(v ir.Value) Block {
	obj, ok := v.(ir.Object)
	if !ok {
		return UnknownBlock{}
	}

	switch obj.Type() {
	case BlockText:
		text, _ := obj.GetString("text")
		return TextBlock{Text: text}
	case BlockToolUse:
		name, _ := obj.GetString("name")
		input, _ := obj.Get("input")
		return ToolUseBlock{Name: name, Input: input}
	case BlockToolResult:
		content, _ := obj.Get("content")
		return ToolResultBlock{Content: content}
	default:
		return UnknownBlock{}
	}
}

func classifyResult(obj ir.Object) ResultEvent {
	ev := ResultEvent{}
	if v, ok := obj.Get("total_cost_usd"); ok {
		if n, ok := v.(ir.Number); ok {
			ev.CostUSD, _ = n.Float64()
		}
	}
	if v, ok := obj.Get("num_turns"); ok {
		if n, ok := v.(ir.Number); ok {
			turns, _ := n.Int64()
			ev.NumTurns = int(turns)
		}
	}
	ev.StopReason, _ = obj.GetString("stop_reason")
	ev.Text, ev.HasText = obj.GetString("result")
	return ev
}

// textList converts array elements to display strings.
// Non-string elements are serialized so the element count is preserved.
func textList(arr ir.Array) []string {
	out := make([]string, 0, len(arr))
	for _, elem := range arr {
		out = append(out, ir.Text(elem))
	}
	return out
}
