package ws

import (
	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/dogeterm/internal/shared/types"
	"github.com/GriffinCanCode/dogeterm/internal/terminal"
)

// Inbound message types.
const (
	MsgCreate  = "create"
	MsgCommand = "command"
	MsgInput   = "input"
	MsgResize  = "resize"
	MsgClose   = "close"
	MsgPing    = "ping"
)

// handleMessage maps one client message onto the manager. Messages without
// a session_id target the active session.
func (h *Hub) handleMessage(client *Client, raw []byte) {
	var msg types.WSMessage
	if err := sonic.Unmarshal(raw, &msg); err != nil {
		h.SendToClient(client, ReplyEvent{Type: EventError, Message: "invalid message"})
		return
	}
	h.metrics.RecordWSMessage("in", messageLabel(msg.Type))

	var err error
	switch msg.Type {
	case MsgCreate:
		var sessionID string
		sessionID, err = h.manager.CreateSession(h.defaults().Overlay(terminal.Config{Cols: msg.Cols, Rows: msg.Rows}), h)
		if err == nil {
			h.SendToClient(client, ReplyEvent{Type: EventCreated, SessionID: sessionID})
		}

	case MsgCommand:
		if msg.SessionID != "" {
			err = h.manager.RunCommand(msg.SessionID, msg.Command)
		} else {
			err = h.manager.SubmitCommand(msg.Command)
		}

	case MsgInput:
		if msg.SessionID != "" {
			err = h.manager.Write(msg.SessionID, []byte(msg.Input))
		} else {
			err = h.manager.SendInput([]byte(msg.Input))
		}

	case MsgResize:
		if msg.SessionID != "" {
			err = h.manager.Resize(msg.SessionID, msg.Cols, msg.Rows)
		} else {
			err = h.manager.ResizeActive(msg.Cols, msg.Rows)
		}

	case MsgClose:
		if msg.SessionID != "" {
			err = h.manager.Close(msg.SessionID)
		} else {
			err = h.manager.CloseActive()
		}

	case MsgPing:
		h.SendToClient(client, ReplyEvent{Type: EventPong})

	default:
		h.SendToClient(client, ReplyEvent{Type: EventError, Message: "unknown message type: " + msg.Type})
		return
	}

	if err != nil {
		h.logger.Debug("WebSocket message failed",
			zap.String("client_id", client.id),
			zap.String("type", msg.Type),
			zap.Error(err),
		)
		h.SendToClient(client, ReplyEvent{Type: EventError, SessionID: msg.SessionID, Message: err.Error()})
	}
}

// messageLabel bounds the metric label set to the known message types.
func messageLabel(msgType string) string {
	switch msgType {
	case MsgCreate, MsgCommand, MsgInput, MsgResize, MsgClose, MsgPing:
		return msgType
	}
	return "unknown"
}
