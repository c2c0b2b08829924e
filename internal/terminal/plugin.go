package terminal

// Plugin observes a session's lifecycle and may rewrite its output.
//
// Hooks for one session never run concurrently; hooks for different
// sessions do, so a plugin instance must not be shared between sessions
// unless its state is synchronized.
type Plugin interface {
	Name() string
	OnSessionStart(sessionID string)
	OnSessionEnd(sessionID string)
	// OnCommandStart runs before the command line is written to the PTY.
	// It cannot change the command.
	OnCommandStart(command, sessionID string)
	// OnCommandEnd receives nil when the exit status is unknown.
	OnCommandEnd(exitCode *int, sessionID string)
	// OnOutput returns the chunk handed to the next plugin. Chunks are not
	// aligned to lines.
	OnOutput(chunk, sessionID string) string
}

// BasePlugin provides no-op hooks and the identity output transform.
// Embed it and override what you need.
type BasePlugin struct{}

func (BasePlugin) OnSessionStart(string)          {}
func (BasePlugin) OnSessionEnd(string)            {}
func (BasePlugin) OnCommandStart(string, string)  {}
func (BasePlugin) OnCommandEnd(*int, string)      {}
func (BasePlugin) OnOutput(chunk, _ string) string { return chunk }

// ChainFactory builds a fresh plugin chain for a new session.
type ChainFactory func(sessionID string) []Plugin

// Chain is an ordered plugin list; order is invocation order for every hook.
type Chain []Plugin

// Names returns plugin names in chain order.
func (c Chain) Names() []string {
	names := make([]string, len(c))
	for i, p := range c {
		names[i] = p.Name()
	}
	return names
}

func (c Chain) sessionStart(sessionID string) {
	for _, p := range c {
		p.OnSessionStart(sessionID)
	}
}

func (c Chain) sessionEnd(sessionID string) {
	for _, p := range c {
		p.OnSessionEnd(sessionID)
	}
}

func (c Chain) commandStart(command, sessionID string) {
	for _, p := range c {
		p.OnCommandStart(command, sessionID)
	}
}

func (c Chain) commandEnd(exitCode *int, sessionID string) {
	for _, p := range c {
		p.OnCommandEnd(exitCode, sessionID)
	}
}

// output threads chunk through every plugin left to right.
func (c Chain) output(chunk, sessionID string) string {
	for _, p := range c {
		chunk = p.OnOutput(chunk, sessionID)
	}
	return chunk
}

// OutputSink receives processed session output, e.g. a UI event channel.
// Output is called from the session's listener goroutine in read order and
// must not block or close the session it is called for.
type OutputSink interface {
	Output(sessionID, chunk string)
	// Closed is called once when the listener stops; err is nil on a clean
	// end of stream.
	Closed(sessionID string, err error)
}

// SinkFunc adapts a function to an OutputSink that ignores Closed.
type SinkFunc func(sessionID, chunk string)

func (f SinkFunc) Output(sessionID, chunk string) { f(sessionID, chunk) }
func (f SinkFunc) Closed(string, error)           {}

type discardSink struct{}

func (discardSink) Output(string, string) {}
func (discardSink) Closed(string, error)  {}
