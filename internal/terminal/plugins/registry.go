package plugins

import (
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/dogeterm/internal/terminal"
)

// Deps are the shared collaborators handed to plugin constructors.
type Deps struct {
	Logger     *zap.Logger
	Aliases    *AliasTable
	Themes     map[string]Theme
	WorkingDir WorkingDirFunc
	Monitor    bool
}

type constructor func(Deps) terminal.Plugin

var registry = map[string]constructor{
	"history":      func(Deps) terminal.Plugin { return NewHistory() },
	"color":        func(Deps) terminal.Plugin { return NewColor() },
	"timing":       func(d Deps) terminal.Plugin { return NewTiming(d.Logger) },
	"git":          func(d Deps) terminal.Plugin { return NewGit(d.Logger, d.WorkingDir) },
	"autocomplete": func(Deps) terminal.Plugin { return NewAutocomplete() },
	"alias":        func(d Deps) terminal.Plugin { return NewAlias(d.Logger, d.Aliases) },
	"theme":        func(d Deps) terminal.Plugin { return NewTheme(d.Logger, d.Themes) },
	"monitor":      func(d Deps) terminal.Plugin { return NewMonitor(d.Logger, d.Monitor) },
}

// Names returns the registered plugin names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Build creates fresh plugins for names, in order.
func Build(names []string, deps Deps) ([]terminal.Plugin, error) {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	out := make([]terminal.Plugin, 0, len(names))
	for _, name := range names {
		ctor, ok := registry[name]
		if !ok {
			return nil, fmt.Errorf("unknown plugin %q", name)
		}
		out = append(out, ctor(deps))
	}
	return out, nil
}

// NewChainFactory validates names and returns a factory building a fresh
// chain per session.
func NewChainFactory(names []string, deps Deps) (terminal.ChainFactory, error) {
	if _, err := Build(names, deps); err != nil {
		return nil, err
	}
	names = slices.Clone(names)
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return func(string) []terminal.Plugin {
		chain, _ := Build(names, deps)
		return chain
	}, nil
}

// Find returns the first plugin of type T in chain.
func Find[T terminal.Plugin](chain terminal.Chain) (T, bool) {
	for _, p := range chain {
		if v, ok := p.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}
