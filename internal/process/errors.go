package process

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// maxStderrInError bounds how much stderr is quoted in ExitError.Error.
const maxStderrInError = 500

// StartError is returned when the command could not be started
// (binary missing, permission denied, bad working directory).
type StartError struct {
	Binary string
	Err    error
}

func (e *StartError) Error() string {
	return fmt.Sprintf("failed to start %s: %v", e.Binary, e.Err)
}

func (e *StartError) Unwrap() error {
	return e.Err
}

// ExitError is returned when the command exits with a non-zero status.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	tail := strings.TrimSpace(e.Stderr)
	if tail == "" {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	if len(tail) > maxStderrInError {
		cut := len(tail) - maxStderrInError
		for cut < len(tail) && !utf8.RuneStart(tail[cut]) {
			cut++
		}
		tail = "..." + tail[cut:]
	}
	return fmt.Sprintf("exit status %d: %s", e.Code, tail)
}

// TimeoutError is returned when the command ran past its timeout and was killed.
type TimeoutError struct {
	After time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("timed out after %s", e.After)
}
