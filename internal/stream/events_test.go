package stream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/routecheck/internal/ir"
)

func mustParse(t *testing.T, s string) ir.Value {
	t.Helper()
	v, err := ir.Parse([]byte(s))
	require.NoError(t, err)
	return v
}

func TestClassifyInit(t *testing.T) {
	ev := Classify(mustParse(t, `{"type":"system","subtype":"init","model":"sonnet","tools":["Read","Skill"],"skills":["demo:foo"]}`))

	init, ok := ev.(InitEvent)
	require.True(t, ok)
	assert.Equal(t, "sonnet", init.Model)
	assert.Equal(t, []string{"Read", "Skill"}, init.Tools)
	assert.Equal(t, []string{"demo:foo"}, init.Skills)
}

func TestClassifyInitMissingArrays(t *testing.T) {
	ev := Classify(mustParse(t, `{"type":"system","subtype":"init"}`))

	init, ok := ev.(InitEvent)
	require.True(t, ok)
	assert.Empty(t, init.Model)
	assert.Empty(t, init.Tools)
	assert.Empty(t, init.Skills)
}

func TestClassifyInitNonStringElementsAreCounted(t *testing.T) {
	ev := Classify(mustParse(t, `{"type":"system","subtype":"init","tools":["Read",{"name":"mcp"}]}`))

	init := ev.(InitEvent)
	assert.Equal(t, []string{"Read", `{"name":"mcp"}`}, init.Tools)
}

func TestClassifySystemOtherSubtype(t *testing.T) {
	ev := Classify(mustParse(t, `{"type":"system","subtype":"compact_boundary"}`))
	assert.Equal(t, UnknownEvent{Type: "system"}, ev)
}

func TestClassifyAssistantBlocks(t *testing.T) {
	ev := Classify(mustParse(t, `{"type":"assistant","message":{"content":[
		{"type":"text","text":"hello"},
		{"type":"tool_use","name":"Read","input":{"file_path":"/a"}},
		{"type":"tool_result","content":[{"type":"text","text":"ok"}]},
		{"type":"thinking","thinking":"hmm"},
		"stray"
	]}}`))

	a, ok := ev.(AssistantEvent)
	require.True(t, ok)
	require.Len(t, a.Blocks, 5)

	assert.Equal(t, TextBlock{Text: "hello"}, a.Blocks[0])

	tu := a.Blocks[1].(ToolUseBlock)
	assert.Equal(t, "Read", tu.Name)
	assert.Equal(t, ir.Object{{Key: "file_path", Value: ir.String("/a")}}, tu.Input)

	tr := a.Blocks[2].(ToolResultBlock)
	assert.IsType(t, ir.Array{}, tr.Content)

	assert.Equal(t, UnknownBlock{}, a.Blocks[3])
	assert.Equal(t, UnknownBlock{}, a.Blocks[4])
	assert.Nil(t, a.Error)
}

func TestClassifyAssistantWithError(t *testing.T) {
	ev := Classify(mustParse(t, `{"type":"assistant","message":{"content":[]},"error":"rate_limit"}`))

	a := ev.(AssistantEvent)
	assert.Empty(t, a.Blocks)
	assert.Equal(t, ir.String("rate_limit"), a.Error)
}

func TestClassifyAssistantEmptyErrorIgnored(t *testing.T) {
	for _, errJSON := range []string{`null`, `false`, `""`} {
		t.Run(errJSON, func(t *testing.T) {
			ev := Classify(mustParse(t, `{"type":"assistant","message":{"content":[{"type":"text","text":"hi"}]},"error":`+errJSON+`}`))

			a := ev.(AssistantEvent)
			require.Len(t, a.Blocks, 1)
			assert.Nil(t, a.Error)
		})
	}
}

func TestClassifyAssistantStructuredError(t *testing.T) {
	ev := Classify(mustParse(t, `{"type":"assistant","message":{"content":[]},"error":{"type":"overloaded"}}`))

	a := ev.(AssistantEvent)
	assert.IsType(t, ir.Object{}, a.Error)
}

func TestClassifyAssistantWithoutContentArray(t *testing.T) {
	for _, input := range []string{
		`{"type":"assistant"}`,
		`{"type":"assistant","message":"text"}`,
		`{"type":"assistant","message":{"content":"text"}}`,
	} {
		t.Run(input, func(t *testing.T) {
			assert.Equal(t, UnknownEvent{Type: "assistant"}, Classify(mustParse(t, input)))
		})
	}
}

func TestClassifyResult(t *testing.T) {
	ev := Classify(mustParse(t, `{"type":"result","total_cost_usd":0.25,"num_turns":4,"stop_reason":"end_turn","result":"All done"}`))

	r, ok := ev.(ResultEvent)
	require.True(t, ok)
	assert.InDelta(t, 0.25, r.CostUSD, 1e-9)
	assert.Equal(t, 4, r.NumTurns)
	assert.Equal(t, "end_turn", r.StopReason)
	assert.True(t, r.HasText)
	assert.Equal(t, "All done", r.Text)
}

func TestClassifyResultTolerantOfWrongTypes(t *testing.T) {
	ev := Classify(mustParse(t, `{"type":"result","total_cost_usd":"free","num_turns":null,"stop_reason":null,"result":{"x":1}}`))

	r := ev.(ResultEvent)
	assert.Zero(t, r.CostUSD)
	assert.Zero(t, r.NumTurns)
	assert.Empty(t, r.StopReason)
	assert.False(t, r.HasText)
}

func TestClassifyUnknown(t *testing.T) {
	assert.Equal(t, UnknownEvent{Type: "user"}, Classify(mustParse(t, `{"type":"user"}`)))
	assert.Equal(t, UnknownEvent{}, Classify(mustParse(t, `{"no_type":true}`)))
	assert.Equal(t, UnknownEvent{}, Classify(mustParse(t, `[1,2,3]`)))
	assert.Equal(t, UnknownEvent{}, Classify(ir.String("x")))
}
