package stream

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/routecheck/internal/ir"
)

func TestDecodeSkipsBlankAndMalformedLines(t *testing.T) {
	text := strings.Join([]string{
		`{"type":"system","subtype":"init"}`,
		``,
		`   `,
		`{not json`,
		`plain diagnostic text`,
		`{"type":"result"}`,
	}, "\n")

	values := Decode(text)
	require.Len(t, values, 2)
	assert.Equal(t, "system", values[0].(ir.Object).Type())
	assert.Equal(t, "result", values[1].(ir.Object).Type())
}

func TestDecodeTrimsWhitespaceAndCRLF(t *testing.T) {
	values := Decode("  {\"type\":\"a\"}  \r\n\t{\"type\":\"b\"}\r\n")
	require.Len(t, values, 2)
	assert.Equal(t, "a", values[0].(ir.Object).Type())
	assert.Equal(t, "b", values[1].(ir.Object).Type())
}

func TestDecodeEmptyInput(t *testing.T) {
	assert.Empty(t, Decode(""))
	assert.Empty(t, Decode("\n\n\n"))
}

func TestDecodeKeepsNonObjectValues(t *testing.T) {
	values := Decode("[1,2]\n\"text\"\n42")
	require.Len(t, values, 3)
	assert.IsType(t, ir.Array{}, values[0])
	assert.Equal(t, ir.String("text"), values[1])
	assert.Equal(t, ir.Number("42"), values[2])
}

func TestDecodeNoTrailingNewline(t *testing.T) {
	values := Decode(`{"type":"result"}`)
	require.Len(t, values, 1)
}

func TestDecodeReaderMatchesDecode(t *testing.T) {
	data, err := os.ReadFile("testdata/session.jsonl")
	require.NoError(t, err)

	fromString := Decode(string(data))

	f, err := os.Open("testdata/session.jsonl")
	require.NoError(t, err)
	defer f.Close()

	fromReader, err := DecodeReader(f)
	require.NoError(t, err)

	assert.Equal(t, fromString, fromReader)
	assert.Len(t, fromReader, 5)
}

func TestDecodeReaderLongLine(t *testing.T) {
	// Larger than bufio.Scanner's default 64KiB token limit.
	long := strings.Repeat("x", 256*1024)
	input := `{"type":"assistant","message":{"content":[{"type":"text","text":"` + long + `"}]}}` + "\n"

	values, err := DecodeReader(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, values, 1)

	ev := Classify(values[0]).(AssistantEvent)
	require.Len(t, ev.Blocks, 1)
	assert.Len(t, ev.Blocks[0].(TextBlock).Text, len(long))
}
