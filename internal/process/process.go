package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"time"
)

// waitDelay bounds how long Run waits for output pipes to drain after the
// child exits. A background grandchild that inherits the pipes would
// otherwise hold Wait open indefinitely.
const waitDelay = 2 * time.Second

// Config describes one command invocation.
type Config struct {
	Binary string
	Args   []string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Timeout bounds wall-clock run time. Zero means no timeout.
	Timeout time.Duration

	// UnsetEnv names inherited variables to remove from the child's environment.
	UnsetEnv []string

	// Env holds variables to set in the child's environment.
	Env map[string]string

	// Logger receives child stderr lines at debug level. Nil uses slog.Default().
	Logger *slog.Logger
}

// Outcome is the terminal result of Run.
// Stdout and Stderr hold everything captured, even when Err is set.
type Outcome struct {
	Stdout   string
	Stderr   string
	Duration time.Duration

	// Err is nil on a zero exit status. Otherwise it is a *StartError,
	// *ExitError, *TimeoutError, or the context's error.
	Err error
}

// OK reports whether the command exited with status 0.
func (o *Outcome) OK() bool {
	return o.Err == nil
}

// TimedOut reports whether the command was killed by the timeout.
func (o *Outcome) TimedOut() bool {
	var te *TimeoutError
	return errors.As(o.Err, &te)
}

// Run starts the command, waits for exactly one terminal outcome and
// returns it. Run never returns nil.
func Run(ctx context.Context, cfg Config) *Outcome {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	stdout := &syncBuffer{}
	stderr := &syncBuffer{}
	stderrLog := &lineLogger{logger: logger, stream: "stderr"}

	cmd := exec.Command(cfg.Binary, cfg.Args...)
	cmd.Dir = cfg.Dir
	cmd.Env = BuildEnv(os.Environ(), cfg.UnsetEnv, cfg.Env)
	cmd.Stdin = nil // null device
	cmd.Stdout = stdout
	cmd.Stderr = io.MultiWriter(stderr, stderrLog)
	cmd.WaitDelay = waitDelay
	setProcessGroup(cmd)

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return &Outcome{
			Duration: time.Since(start),
			Err:      &StartError{Binary: cfg.Binary, Err: err},
		}
	}
	logger.Debug("process started", "binary", cfg.Binary, "pid", cmd.Process.Pid, "timeout", cfg.Timeout)

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	var timeout <-chan time.Time
	if cfg.Timeout > 0 {
		timer := time.NewTimer(cfg.Timeout)
		defer timer.Stop()
		timeout = timer.C
	}

	var err error
	select {
	case waitErr := <-done:
		err = exitError(waitErr, stderr)
		// Background children may outlive a clean exit.
		kill(cmd, logger)
	case <-timeout:
		logger.Warn("process timed out, killing", "binary", cfg.Binary, "timeout", cfg.Timeout)
		kill(cmd, logger)
		<-done
		err = &TimeoutError{After: cfg.Timeout}
	case <-ctx.Done():
		logger.Warn("process cancelled, killing", "binary", cfg.Binary)
		kill(cmd, logger)
		<-done
		err = fmt.Errorf("process cancelled: %w", ctx.Err())
	}
	stderrLog.Flush()

	outcome := &Outcome{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		Duration: time.Since(start),
		Err:      err,
	}
	logger.Debug("process finished",
		"binary", cfg.Binary,
		"duration", outcome.Duration,
		"stdout_bytes", len(outcome.Stdout),
		"error", err,
	)
	return outcome
}

// exitError converts cmd.Wait's result into the package's error taxonomy.
func exitError(waitErr error, stderr *syncBuffer) error {
	if waitErr == nil {
		return nil
	}
	// The child exited cleanly but a grandchild held the pipes open.
	if errors.Is(waitErr, exec.ErrWaitDelay) {
		return nil
	}
	var ee *exec.ExitError
	if errors.As(waitErr, &ee) {
		return &ExitError{Code: ee.ExitCode(), Stderr: stderr.String()}
	}
	return fmt.Errorf("wait: %w", waitErr)
}

// kill stops the child and every process it started.
func kill(cmd *exec.Cmd, logger *slog.Logger) {
	if err := killProcessGroup(cmd); err != nil {
		logger.Warn("failed to kill process group", "pid", cmd.Process.Pid, "error", err)
	}
}
