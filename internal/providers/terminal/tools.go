package terminal

import "github.com/GriffinCanCode/dogeterm/internal/shared/types"

var sessionIDParam = types.Parameter{
	Name:        "session_id",
	Type:        "string",
	Description: "Terminal session ID. Defaults to the active session",
	Required:    false,
}

func (p *Provider) getTools() []types.Tool {
	return []types.Tool{
		{
			ID:          "terminal.create_session",
			Name:        "Create Terminal Session",
			Description: "Create a new interactive shell session and make it active",
			Parameters: []types.Parameter{
				{Name: "shell", Type: "string", Description: "Shell to use (e.g., /bin/bash, /bin/zsh). Defaults to the user's shell"},
				{Name: "working_dir", Type: "string", Description: "Initial working directory. Defaults to the server's"},
				{Name: "cols", Type: "number", Description: "Terminal width in columns. Defaults to 80"},
				{Name: "rows", Type: "number", Description: "Terminal height in rows. Defaults to 24"},
				{Name: "env", Type: "object", Description: "Environment variables to add"},
			},
			Returns: "session_info",
		},
		{
			ID:          "terminal.run_command",
			Name:        "Run Command",
			Description: "Submit a command line; plugins see it before it is written with a trailing newline",
			Parameters: []types.Parameter{
				{Name: "command", Type: "string", Description: "Command line to run", Required: true},
				sessionIDParam,
			},
			Returns: "success",
		},
		{
			ID:          "terminal.send_input",
			Name:        "Send Input",
			Description: "Send raw keystrokes (no newline added, no plugin hooks)",
			Parameters: []types.Parameter{
				{Name: "input", Type: "string", Description: "Bytes to write", Required: true},
				sessionIDParam,
			},
			Returns: "success",
		},
		{
			ID:          "terminal.read",
			Name:        "Read Output",
			Description: "Read the retained recent output of a session",
			Parameters: []types.Parameter{
				sessionIDParam,
				{Name: "plain", Type: "boolean", Description: "Strip terminal escape sequences from output", Required: false},
			},
			Returns:     "output_data",
		},
		{
			ID:          "terminal.resize",
			Name:        "Resize Terminal",
			Description: "Change terminal dimensions",
			Parameters: []types.Parameter{
				{Name: "cols", Type: "number", Description: "New width in columns", Required: true},
				{Name: "rows", Type: "number", Description: "New height in rows", Required: true},
				sessionIDParam,
			},
			Returns: "success",
		},
		{
			ID:          "terminal.list_sessions",
			Name:        "List Terminal Sessions",
			Description: "List all terminal sessions, oldest first",
			Parameters:  []types.Parameter{},
			Returns:     "sessions_list",
		},
		{
			ID:          "terminal.get_session",
			Name:        "Get Session Info",
			Description: "Get information about a terminal session",
			Parameters:  []types.Parameter{sessionIDParam},
			Returns:     "session_info",
		},
		{
			ID:          "terminal.set_active",
			Name:        "Activate Session",
			Description: "Make a session the target of active-session operations",
			Parameters: []types.Parameter{
				{Name: "session_id", Type: "string", Description: "Terminal session ID", Required: true},
			},
			Returns: "success",
		},
		{
			ID:          "terminal.command_end",
			Name:        "Report Command End",
			Description: "Report that the last command finished",
			Parameters: []types.Parameter{
				{Name: "exit_code", Type: "number", Description: "Exit status, omitted when unknown"},
				sessionIDParam,
			},
			Returns: "success",
		},
		{
			ID:          "terminal.cwd",
			Name:        "Working Directory",
			Description: "Get the shell's current working directory",
			Parameters:  []types.Parameter{sessionIDParam},
			Returns:     "working_dir",
		},
		{
			ID:          "terminal.info",
			Name:        "Terminal Info",
			Description: "Get the active session, session count and default shell",
			Parameters:  []types.Parameter{},
			Returns:     "manager_info",
		},
		{
			ID:          "terminal.list_plugins",
			Name:        "List Plugins",
			Description: "List the active session's plugins in chain order",
			Parameters:  []types.Parameter{},
			Returns:     "plugin_names",
		},
		{
			ID:          "terminal.kill",
			Name:        "Kill Terminal Session",
			Description: "Terminate a terminal session",
			Parameters: []types.Parameter{
				{Name: "session_id", Type: "string", Description: "Terminal session ID", Required: true},
			},
			Returns: "success",
		},
	}
}
