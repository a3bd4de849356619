// Package config loads the optional routecheck.toml file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/roach88/routecheck/internal/agent"
)

// DefaultFile is looked up in the working directory when no path is given.
const DefaultFile = "routecheck.toml"

// Config mirrors routecheck.toml.
type Config struct {
	Agent    AgentConfig    `toml:"agent"`
	Provider ProviderConfig `toml:"provider"`
	Run      RunConfig      `toml:"run"`

	// Path is the file the config was read from, empty for defaults.
	Path string `toml:"-"`
}

type AgentConfig struct {
	Binary         string   `toml:"binary"`
	MaxTurns       int      `toml:"max_turns"`
	TimeoutSeconds int      `toml:"timeout_seconds"`
	ExtraArgs      []string `toml:"extra_args"`
	UnsetEnv       []string `toml:"unset_env"`
	Workdir        string   `toml:"workdir"`
}

// ProviderConfig values may reference environment variables as $VAR or
// ${VAR}; they are expanded at load time.
type ProviderConfig struct {
	BaseURL   string            `toml:"base_url"`
	AuthToken string            `toml:"auth_token"`
	Env       map[string]string `toml:"env"`
}

type RunConfig struct {
	Settings string `toml:"settings"`
	Database string `toml:"database"`
	Report   string `toml:"report"`
	OutDir   string `toml:"out_dir"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Agent: AgentConfig{
			Binary:         agent.DefaultBinary,
			MaxTurns:       agent.DefaultMaxTurns,
			TimeoutSeconds: int(agent.DefaultTimeout / time.Second),
			UnsetEnv:       append([]string(nil), agent.DefaultUnsetEnv...),
			Workdir:        ".",
		},
	}
}

// Load reads path over the defaults. An empty path tries DefaultFile and
// falls back to the defaults when it does not exist; an explicit path
// must exist. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("config %s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	cfg.Path = path
	cfg.expand()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.Agent.Binary == "" {
		return errors.New("agent.binary must not be empty")
	}
	if c.Agent.MaxTurns <= 0 {
		return fmt.Errorf("agent.max_turns must be positive, got %d", c.Agent.MaxTurns)
	}
	if c.Agent.TimeoutSeconds <= 0 {
		return fmt.Errorf("agent.timeout_seconds must be positive, got %d", c.Agent.TimeoutSeconds)
	}
	return nil
}

func (c *Config) expand() {
	c.Provider.BaseURL = os.ExpandEnv(c.Provider.BaseURL)
	c.Provider.AuthToken = os.ExpandEnv(c.Provider.AuthToken)
	for k, v := range c.Provider.Env {
		c.Provider.Env[k] = os.ExpandEnv(v)
	}
}

// Timeout returns the agent timeout as a duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.Agent.TimeoutSeconds) * time.Second
}

// Workdir returns the agent working directory as an absolute path.
// Relative paths resolve against the config file's directory, or the
// current directory when no file was loaded.
func (c *Config) Workdir() (string, error) {
	dir := c.Agent.Workdir
	if dir == "" {
		dir = "."
	}
	if !filepath.IsAbs(dir) && c.Path != "" {
		dir = filepath.Join(filepath.Dir(c.Path), dir)
	}
	return filepath.Abs(dir)
}

// AgentConfig converts the file settings into an agent configuration.
func (c *Config) AgentConfig() (agent.Config, error) {
	dir, err := c.Workdir()
	if err != nil {
		return agent.Config{}, fmt.Errorf("failed to resolve workdir: %w", err)
	}
	return agent.Config{
		Binary:    c.Agent.Binary,
		MaxTurns:  c.Agent.MaxTurns,
		Timeout:   c.Timeout(),
		ExtraArgs: c.Agent.ExtraArgs,
		UnsetEnv:  c.Agent.UnsetEnv,
		Dir:       dir,
		Provider: agent.Provider{
			BaseURL:   c.Provider.BaseURL,
			AuthToken: c.Provider.AuthToken,
			Env:       c.Provider.Env,
		},
	}, nil
}
