// Package plugins provides the built-in terminal plugins and the registry
// that builds a session's chain from configured names.
//
// Every plugin embeds terminal.BasePlugin and overrides only the hooks it
// uses. Plugins that expose query methods guard their state with their own
// mutex since queries come from outside the session's hook lock.
//
// Built-ins:
//   - history: records submitted commands
//   - color: output pass-through
//   - timing: command durations with running statistics
//   - git: logs the branch for git commands inside a repository
//   - autocomplete: static command suggestions
//   - alias: alias table shared across sessions, optionally file backed
//   - theme: named color themes, switched with "doge theme <name>"
//   - monitor: load and memory summary, toggled with "doge monitor on|off"
package plugins
