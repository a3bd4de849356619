// Package process runs one external command with a wall-clock bound and
// always returns whatever output it produced.
//
// Run has exactly one terminal outcome per call. The child's exit and the
// timeout timer race; whichever fires first decides the outcome, and the
// other is cleaned up: the timer is stopped on normal exit, and the child is
// killed and reaped on timeout. Output is accumulated as it arrives, so a
// killed child still yields its partial stdout.
//
// Failures are reported as distinct error types:
//
//   - *StartError: the command could not be started at all
//   - *ExitError: the command exited with a non-zero status
//   - *TimeoutError: the timeout elapsed and the command was killed
//
// Standard input is always the null device, so a child can never block
// waiting for an operator.
package process
