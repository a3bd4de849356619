// Package agent drives the coding agent CLI under test.
//
// An Agent turns a prompt and model into one process invocation with a
// fixed argument contract and a provider-specific environment. It
// implements harness.Executor.
package agent

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"maps"
	"strconv"
	"time"

	"github.com/roach88/routecheck/internal/process"
)

// OutputFormat is the transcript format requested from the CLI.
const OutputFormat = "stream-json"

const (
	DefaultBinary   = "claude"
	DefaultMaxTurns = 10
	DefaultTimeout  = 300 * time.Second
)

// DefaultUnsetEnv lists variables removed from the child environment by
// default. A nested agent refuses to start when it sees CLAUDECODE set.
var DefaultUnsetEnv = []string{"CLAUDECODE"}

// Environment variable names the CLI reads for provider routing.
const (
	EnvBaseURL   = "ANTHROPIC_BASE_URL"
	EnvAuthToken = "ANTHROPIC_AUTH_TOKEN"
)

// Provider routes the agent to a non-default API endpoint.
type Provider struct {
	BaseURL   string
	AuthToken string

	// Env holds extra variables for the child process.
	Env map[string]string
}

// Environment returns the variables the provider contributes to the child
// process. Explicit BaseURL and AuthToken take precedence over Env.
func (p Provider) Environment() map[string]string {
	env := make(map[string]string, len(p.Env)+2)
	maps.Copy(env, p.Env)
	if p.BaseURL != "" {
		env[EnvBaseURL] = p.BaseURL
	}
	if p.AuthToken != "" {
		env[EnvAuthToken] = p.AuthToken
	}
	return env
}

// Config configures an Agent. Zero values select the defaults.
type Config struct {
	Binary    string
	MaxTurns  int
	Timeout   time.Duration
	ExtraArgs []string

	// UnsetEnv replaces DefaultUnsetEnv when non-nil.
	UnsetEnv []string

	// Dir is the working directory the agent runs in.
	Dir string

	Provider Provider
	Logger   *slog.Logger
}

// runFunc matches process.Run; tests substitute it.
type runFunc func(ctx context.Context, cfg process.Config) *process.Outcome

// Agent executes prompts against the configured CLI.
type Agent struct {
	cfg Config
	run runFunc
}

// New validates cfg, applies defaults and returns an Agent.
func New(cfg Config) (*Agent, error) {
	if cfg.Binary == "" {
		cfg.Binary = DefaultBinary
	}
	if cfg.MaxTurns == 0 {
		cfg.MaxTurns = DefaultMaxTurns
	}
	if cfg.MaxTurns < 0 {
		return nil, errors.New("max turns must be positive")
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Timeout < 0 {
		return nil, errors.New("timeout must be positive")
	}
	if cfg.UnsetEnv == nil {
		cfg.UnsetEnv = DefaultUnsetEnv
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Agent{cfg: cfg, run: process.Run}, nil
}

// Config returns the effective configuration after defaults.
func (a *Agent) Config() Config {
	return a.cfg
}

// Args builds the CLI argument list for one prompt.
func Args(prompt, model string, maxTurns int, extra []string) []string {
	args := []string{
		"-p", prompt,
		"--output-format", OutputFormat,
		"--verbose",
		"--max-turns", strconv.Itoa(maxTurns),
		"--model", model,
		"--dangerously-skip-permissions",
	}
	return append(args, extra...)
}

// Execute runs the agent once and returns its outcome. It never returns nil.
func (a *Agent) Execute(ctx context.Context, prompt, model string) *process.Outcome {
	return a.run(ctx, process.Config{
		Binary:   a.cfg.Binary,
		Args:     Args(prompt, model, a.cfg.MaxTurns, a.cfg.ExtraArgs),
		Dir:      a.cfg.Dir,
		Timeout:  a.cfg.Timeout,
		UnsetEnv: a.cfg.UnsetEnv,
		Env:      a.cfg.Provider.Environment(),
		Logger:   a.cfg.Logger.With("model", model),
	})
}
