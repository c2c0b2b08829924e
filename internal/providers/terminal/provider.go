package terminal

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/GriffinCanCode/dogeterm/internal/shared/types"
	term "github.com/GriffinCanCode/dogeterm/internal/terminal"
)

// Provider exposes terminal sessions as service tools
type Provider struct {
	manager  *term.Manager
	defaults func() term.Config
	sink     term.OutputSink
}

// NewProvider creates a terminal provider over manager. Sessions it creates
// start from defaults and stream to sink.
func NewProvider(manager *term.Manager, defaults func() term.Config, sink term.OutputSink) *Provider {
	if defaults == nil {
		defaults = term.DefaultConfig
	}
	return &Provider{manager: manager, defaults: defaults, sink: sink}
}

// Definition returns service metadata
func (p *Provider) Definition() types.Service {
	return types.Service{
		ID:          "terminal",
		Name:        "Terminal Service",
		Description: "Interactive shell sessions with PTY support, command execution and output history",
		Category:    types.CategoryTerminal,
		Capabilities: []string{
			"pty",
			"shell",
			"interactive",
			"sessions",
			"resize",
			"plugins",
		},
		Tools: p.getTools(),
	}
}

// Execute routes to appropriate operation
func (p *Provider) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch toolID {
	case "terminal.create_session":
		return p.createSession(params)
	case "terminal.run_command":
		return p.runCommand(params)
	case "terminal.send_input":
		return p.sendInput(params)
	case "terminal.read":
		return p.read(params)
	case "terminal.resize":
		return p.resize(params)
	case "terminal.list_sessions":
		return p.listSessions()
	case "terminal.get_session":
		return p.getSession(params)
	case "terminal.set_active":
		return p.setActive(params)
	case "terminal.command_end":
		return p.commandEnd(params)
	case "terminal.cwd":
		return p.cwd(params)
	case "terminal.info":
		return p.info()
	case "terminal.list_plugins":
		return p.listPlugins()
	case "terminal.kill":
		return p.kill(params)
	default:
		return nil, fmt.Errorf("unknown tool: %s", toolID)
	}
}

func (p *Provider) createSession(params map[string]interface{}) (*types.Result, error) {
	override := term.Config{Env: make(map[string]string)}
	override.Shell, _ = params["shell"].(string)
	override.WorkingDir, _ = params["working_dir"].(string)
	override.Cols = intParam(params, "cols")
	override.Rows = intParam(params, "rows")
	if envMap, ok := params["env"].(map[string]interface{}); ok {
		for k, v := range envMap {
			if str, ok := v.(string); ok {
				override.Env[k] = str
			}
		}
	}

	sessionID, err := p.manager.CreateSession(p.defaults().Overlay(override), p.sink)
	if err != nil {
		return nil, err
	}
	info, err := p.manager.Session(sessionID)
	if err != nil {
		return nil, err
	}

	return success(sessionData(info)), nil
}

func (p *Provider) runCommand(params map[string]interface{}) (*types.Result, error) {
	command, ok := params["command"].(string)
	if !ok || command == "" {
		return nil, fmt.Errorf("command is required")
	}
	sessionID, err := p.sessionID(params)
	if err != nil {
		return nil, err
	}
	if err := p.manager.RunCommand(sessionID, command); err != nil {
		return nil, err
	}
	return success(map[string]interface{}{"session_id": sessionID, "command": command}), nil
}

func (p *Provider) sendInput(params map[string]interface{}) (*types.Result, error) {
	input, ok := params["input"].(string)
	if !ok {
		return nil, fmt.Errorf("input is required")
	}
	sessionID, err := p.sessionID(params)
	if err != nil {
		return nil, err
	}
	if err := p.manager.Write(sessionID, []byte(input)); err != nil {
		return nil, err
	}
	return success(map[string]interface{}{"session_id": sessionID, "length": len(input)}), nil
}

func (p *Provider) read(params map[string]interface{}) (*types.Result, error) {
	sessionID, err := p.sessionID(params)
	if err != nil {
		return nil, err
	}
	output, err := p.manager.Scrollback(sessionID)
	if err != nil {
		return nil, err
	}

	text := string(output)
	if plain, _ := params["plain"].(bool); plain {
		text = term.PlainText(output)
	}

	return success(map[string]interface{}{
		"session_id":    sessionID,
		"output":        text,
		"output_base64": base64.StdEncoding.EncodeToString(output),
		"length":        len(output),
	}), nil
}

func (p *Provider) resize(params map[string]interface{}) (*types.Result, error) {
	cols, ok := params["cols"].(float64)
	if !ok {
		return nil, fmt.Errorf("cols is required")
	}
	rows, ok := params["rows"].(float64)
	if !ok {
		return nil, fmt.Errorf("rows is required")
	}
	sessionID, err := p.sessionID(params)
	if err != nil {
		return nil, err
	}
	if err := p.manager.Resize(sessionID, int(cols), int(rows)); err != nil {
		return nil, err
	}
	return success(map[string]interface{}{"session_id": sessionID, "cols": int(cols), "rows": int(rows)}), nil
}

func (p *Provider) listSessions() (*types.Result, error) {
	sessions := p.manager.Sessions()
	list := make([]map[string]interface{}, 0, len(sessions))
	for _, info := range sessions {
		list = append(list, sessionData(info))
	}
	return success(map[string]interface{}{"sessions": list, "count": len(list)}), nil
}

func (p *Provider) getSession(params map[string]interface{}) (*types.Result, error) {
	sessionID, err := p.sessionID(params)
	if err != nil {
		return nil, err
	}
	info, err := p.manager.Session(sessionID)
	if err != nil {
		return nil, err
	}
	return success(sessionData(info)), nil
}

func (p *Provider) setActive(params map[string]interface{}) (*types.Result, error) {
	sessionID, ok := params["session_id"].(string)
	if !ok || sessionID == "" {
		return nil, fmt.Errorf("session_id is required")
	}
	if err := p.manager.SetActive(sessionID); err != nil {
		return nil, err
	}
	return success(map[string]interface{}{"active_session": sessionID}), nil
}

func (p *Provider) commandEnd(params map[string]interface{}) (*types.Result, error) {
	sessionID, err := p.sessionID(params)
	if err != nil {
		return nil, err
	}
	var exitCode *int
	if v, ok := params["exit_code"].(float64); ok {
		code := int(v)
		exitCode = &code
	}
	if err := p.manager.DispatchCommandEnd(sessionID, exitCode); err != nil {
		return nil, err
	}
	return success(map[string]interface{}{"session_id": sessionID}), nil
}

func (p *Provider) cwd(params map[string]interface{}) (*types.Result, error) {
	sessionID, err := p.sessionID(params)
	if err != nil {
		return nil, err
	}
	dir, err := p.manager.WorkingDir(sessionID)
	if err != nil {
		return nil, err
	}
	return success(map[string]interface{}{"session_id": sessionID, "working_dir": dir}), nil
}

func (p *Provider) info() (*types.Result, error) {
	info := p.manager.Info()
	data := map[string]interface{}{
		"active_session": nil,
		"total_sessions": info.TotalSessions,
		"default_shell":  info.DefaultShell,
	}
	if info.ActiveSession != nil {
		data["active_session"] = *info.ActiveSession
	}
	return success(data), nil
}

func (p *Provider) listPlugins() (*types.Result, error) {
	names, err := p.manager.ListPlugins()
	if err != nil {
		return nil, err
	}
	return success(map[string]interface{}{"plugins": names}), nil
}

func (p *Provider) kill(params map[string]interface{}) (*types.Result, error) {
	sessionID, ok := params["session_id"].(string)
	if !ok || sessionID == "" {
		return nil, fmt.Errorf("session_id is required")
	}
	if err := p.manager.Close(sessionID); err != nil {
		return nil, err
	}
	return success(map[string]interface{}{"session_id": sessionID, "closed": true}), nil
}

// sessionID returns params["session_id"], or the active session when absent.
func (p *Provider) sessionID(params map[string]interface{}) (string, error) {
	if sessionID, ok := params["session_id"].(string); ok && sessionID != "" {
		return sessionID, nil
	}
	if active, ok := p.manager.Active(); ok {
		return active, nil
	}
	return "", term.ErrNoActiveSession
}

func intParam(params map[string]interface{}, key string) int {
	if v, ok := params[key].(float64); ok {
		return int(v)
	}
	return 0
}

func sessionData(info term.Info) map[string]interface{} {
	return map[string]interface{}{
		"id":          info.ID,
		"shell":       info.Shell,
		"working_dir": info.WorkingDir,
		"cols":        info.Cols,
		"rows":        info.Rows,
		"started_at":  info.StartedAt,
		"listener":    info.Listener,
		"active":      info.Active,
		"plugins":     info.Plugins,
	}
}

func success(data map[string]interface{}) *types.Result {
	return &types.Result{Success: true, Data: data}
}
