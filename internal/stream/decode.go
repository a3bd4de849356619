package stream

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/roach88/routecheck/internal/ir"
)

// Decode splits text into newline-separated records and returns every record
// that parses as JSON, in line order. Blank and malformed lines are skipped.
func Decode(text string) []ir.Value {
	var values []ir.Value
	for _, line := range strings.Split(text, "\n") {
		if v, ok := decodeLine(line); ok {
			values = append(values, v)
		}
	}
	return values
}

// DecodeReader is Decode over an io.Reader. Lines of any length are accepted.
// Only read errors are returned; malformed lines are skipped.
func DecodeReader(r io.Reader) ([]ir.Value, error) {
	br := bufio.NewReader(r)
	var values []ir.Value
	for {
		line, err := br.ReadString('\n')
		if v, ok := decodeLine(line); ok {
			values = append(values, v)
		}
		if errors.Is(err, io.EOF) {
			return values, nil
		}
		if err != nil {
			return values, fmt.Errorf("read event stream: %w", err)
		}
	}
}

func decodeLine(line string) (ir.Value, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, false
	}
	v, err := ir.Parse([]byte(line))
	if err != nil {
		return nil, false
	}
	return v, true
}
