// Package terminal exposes terminal sessions as service tools for the
// assistant.
//
// Every tool that takes a session_id falls back to the active session when
// it is omitted, so an assistant can drive "the terminal" without tracking
// ids.
//
// Example Usage:
//
//	terminal.create_session(shell: "/bin/zsh", working_dir: "/home/user")
//	terminal.run_command(command: "ls -la")
//	terminal.read()
//	// → recent output, plain and base64
//	terminal.cwd()
//	terminal.kill(session_id: "term_01J...")
//
// Tools:
//   - terminal.create_session: Create a shell session and make it active
//   - terminal.run_command: Submit a command line through the plugin hooks
//   - terminal.send_input: Write raw keystrokes
//   - terminal.read: Read retained output
//   - terminal.resize: Resize terminal dimensions
//   - terminal.list_sessions / terminal.get_session: Inspect sessions
//   - terminal.set_active: Switch the active session
//   - terminal.command_end: Report a finished command
//   - terminal.cwd: Shell working directory
//   - terminal.info / terminal.list_plugins: Registry summary
//   - terminal.kill: Terminate a session
package terminal
