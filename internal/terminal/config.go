package terminal

import (
	"fmt"
	"os"
	"runtime"
	"slices"
	"strings"
)

// Config describes how a session's shell is launched. Geometry is the only
// part that changes after creation.
type Config struct {
	Shell      string            `json:"shell"`
	Env        map[string]string `json:"env"`
	WorkingDir string            `json:"working_dir,omitempty"`
	Cols       int               `json:"cols"`
	Rows       int               `json:"rows"`
}

// DefaultConfig returns the process environment plus terminal capability
// variables, the user's shell, the current directory and 80x24.
func DefaultConfig() Config {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok && k != "" {
			env[k] = v
		}
	}
	env["TERM"] = "xterm-256color"
	env["COLORTERM"] = "truecolor"

	wd, _ := os.Getwd()

	return Config{
		Shell:      DefaultShell(),
		Env:        env,
		WorkingDir: wd,
		Cols:       80,
		Rows:       24,
	}
}

// DefaultShell returns the user's login shell.
func DefaultShell() string {
	if runtime.GOOS == "windows" {
		if shell := os.Getenv("COMSPEC"); shell != "" {
			return shell
		}
		return "cmd.exe"
	}
	if shell := os.Getenv("SHELL"); shell != "" {
		return shell
	}
	return "/bin/bash"
}

// Validate checks the config can be used to open a session.
func (c Config) Validate() error {
	if c.Shell == "" {
		return fmt.Errorf("shell must not be empty")
	}
	return validateSize(c.Cols, c.Rows)
}

// Environ renders Env as KEY=VALUE pairs in stable order.
func (c Config) Environ() []string {
	keys := make([]string, 0, len(c.Env))
	for k := range c.Env {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, k+"="+c.Env[k])
	}
	return out
}

// Overlay returns c with every non-zero field of o applied on top. Env
// entries are merged, o winning.
func (c Config) Overlay(o Config) Config {
	c = c.clone()
	if o.Shell != "" {
		c.Shell = o.Shell
	}
	if o.WorkingDir != "" {
		c.WorkingDir = o.WorkingDir
	}
	if o.Cols != 0 {
		c.Cols = o.Cols
	}
	if o.Rows != 0 {
		c.Rows = o.Rows
	}
	for k, v := range o.Env {
		c.Env[k] = v
	}
	return c
}

func (c Config) clone() Config {
	env := make(map[string]string, len(c.Env))
	for k, v := range c.Env {
		env[k] = v
	}
	c.Env = env
	return c
}

func validateSize(cols, rows int) error {
	if cols <= 0 || rows <= 0 || cols > 0xFFFF || rows > 0xFFFF {
		return fmt.Errorf("%w: %dx%d", ErrInvalidSize, cols, rows)
	}
	return nil
}
