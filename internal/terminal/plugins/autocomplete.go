package plugins

import (
	"strings"

	"github.com/GriffinCanCode/dogeterm/internal/terminal"
)

// DefaultSuggestions are offered by a new autocomplete plugin.
var DefaultSuggestions = []string{
	"ls", "cd", "pwd", "cat", "grep", "find",
	"git status", "git add", "git commit", "git push", "git pull",
	"npm install", "npm run",
	"go build", "go run", "go test",
}

// Autocomplete offers command completions from a fixed list.
type Autocomplete struct {
	terminal.BasePlugin
	suggestions []string
}

// NewAutocomplete creates a plugin over suggestions, or the defaults if none.
func NewAutocomplete(suggestions ...string) *Autocomplete {
	if len(suggestions) == 0 {
		suggestions = DefaultSuggestions
	}
	return &Autocomplete{suggestions: append([]string(nil), suggestions...)}
}

func (a *Autocomplete) Name() string { return "autocomplete" }

// Suggestions returns entries starting with prefix, in list order.
func (a *Autocomplete) Suggestions(prefix string) []string {
	var out []string
	for _, s := range a.suggestions {
		if strings.HasPrefix(s, prefix) {
			out = append(out, s)
		}
	}
	return out
}
