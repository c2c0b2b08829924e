package plugins

import (
	"fmt"
	"maps"
	"os"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/dogeterm/internal/infrastructure/logging"
	"github.com/GriffinCanCode/dogeterm/internal/terminal"
)

// DefaultAliases returns the built-in alias table.
func DefaultAliases() map[string]string {
	return map[string]string{
		"ll":  "ls -la",
		"la":  "ls -A",
		"l":   "ls -CF",
		"..":  "cd ..",
		"...": "cd ../..",
		"gs":  "git status",
		"ga":  "git add",
		"gc":  "git commit",
		"gp":  "git push",
		"gl":  "git pull",
	}
}

// aliasFile is the on-disk alias format:
//
//	aliases:
//	  k: kubectl
//	  gco: git checkout
type aliasFile struct {
	Aliases map[string]string `yaml:"aliases"`
}

// AliasTable maps an alias to its replacement command. It is safe for
// concurrent use and may be shared by every session.
type AliasTable struct {
	mu      sync.RWMutex
	aliases map[string]string
}

// NewAliasTable creates a table holding the defaults plus extra.
func NewAliasTable(extra map[string]string) *AliasTable {
	t := &AliasTable{aliases: DefaultAliases()}
	maps.Copy(t.aliases, extra)
	return t
}

// LoadAliases reads a YAML alias file.
func LoadAliases(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read alias file: %w", err)
	}
	var f aliasFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse alias file %s: %w", path, err)
	}
	for name := range f.Aliases {
		if name == "" || strings.ContainsAny(name, " \t") {
			return nil, fmt.Errorf("parse alias file %s: invalid alias name %q", path, name)
		}
	}
	return f.Aliases, nil
}

// Reload replaces the table with the defaults plus the aliases in path.
func (t *AliasTable) Reload(path string) error {
	extra, err := LoadAliases(path)
	if err != nil {
		return err
	}
	next := DefaultAliases()
	maps.Copy(next, extra)

	t.mu.Lock()
	t.aliases = next
	t.mu.Unlock()
	return nil
}

// Set adds or replaces one alias.
func (t *AliasTable) Set(name, command string) {
	t.mu.Lock()
	t.aliases[name] = command
	t.mu.Unlock()
}

// Lookup returns the replacement for name.
func (t *AliasTable) Lookup(name string) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	cmd, ok := t.aliases[name]
	return cmd, ok
}

// All returns a copy of the table.
func (t *AliasTable) All() map[string]string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return maps.Clone(t.aliases)
}

// Expand replaces the first word of command when it is an alias. Remaining
// words are kept, joined by single spaces. Other commands come back as is.
func (t *AliasTable) Expand(command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return command
	}
	expanded, ok := t.Lookup(fields[0])
	if !ok {
		return command
	}
	if len(fields) == 1 {
		return expanded
	}
	return expanded + " " + strings.Join(fields[1:], " ")
}

// Alias reports alias expansions of submitted commands. It does not change
// what is written to the shell.
type Alias struct {
	terminal.BasePlugin
	logger *zap.Logger
	table  *AliasTable
}

// NewAlias creates an alias plugin over table, or a private default table.
func NewAlias(logger *zap.Logger, table *AliasTable) *Alias {
	if table == nil {
		table = NewAliasTable(nil)
	}
	return &Alias{logger: logger, table: table}
}

func (a *Alias) Name() string { return "alias" }

// Table returns the alias table the plugin reads.
func (a *Alias) Table() *AliasTable { return a.table }

func (a *Alias) OnCommandStart(command, sessionID string) {
	expanded := a.table.Expand(command)
	if expanded == command {
		return
	}
	a.logger.Info("Alias expanded",
		zap.String(logging.SessionKey, sessionID),
		zap.String("alias", command),
		zap.String("command", expanded),
	)
}
