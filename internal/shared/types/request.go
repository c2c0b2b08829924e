package types

// ExecuteRequest represents a service execution request
type ExecuteRequest struct {
	ToolID   string                 `json:"tool_id" binding:"required"`
	Params   map[string]interface{} `json:"params"`
	ClientID *string                `json:"client_id,omitempty"`
}

// DiscoverRequest represents a service discovery request
type DiscoverRequest struct {
	Intent string `json:"intent" binding:"required"`
	Limit  int    `json:"limit"`
}

// CreateSessionRequest is the body of a terminal creation request. Zero
// fields take the server defaults.
type CreateSessionRequest struct {
	Shell      string            `json:"shell"`
	WorkingDir string            `json:"working_dir"`
	Cols       int               `json:"cols"`
	Rows       int               `json:"rows"`
	Env        map[string]string `json:"env"`
	Activate   *bool             `json:"activate,omitempty"`
}

// CommandRequest submits a command line.
type CommandRequest struct {
	Command string `json:"command" binding:"required"`
}

// InputRequest carries raw keystrokes.
type InputRequest struct {
	Input string `json:"input"`
}

// ResizeRequest changes terminal geometry.
type ResizeRequest struct {
	Cols int `json:"cols" binding:"required"`
	Rows int `json:"rows" binding:"required"`
}

// CommandEndRequest reports a finished command. A missing exit code means
// the status is unknown.
type CommandEndRequest struct {
	ExitCode *int `json:"exit_code"`
}

// WSMessage represents an inbound WebSocket message
type WSMessage struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id,omitempty"`
	Command   string `json:"command,omitempty"`
	Input     string `json:"input,omitempty"`
	Cols      int    `json:"cols,omitempty"`
	Rows      int    `json:"rows,omitempty"`
}
