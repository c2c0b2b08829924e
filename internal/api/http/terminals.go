package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/dogeterm/internal/shared/types"
	"github.com/GriffinCanCode/dogeterm/internal/terminal"
)

// CreateSession opens a new session from the server defaults overlaid with
// the request body. The new session becomes active.
func (h *Handlers) CreateSession(c *gin.Context) {
	var req types.CreateSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.Cols < 0 || req.Rows < 0 {
		h.fail(c, terminal.ErrInvalidSize)
		return
	}

	cfg := h.defaults().Overlay(terminal.Config{
		Shell:      req.Shell,
		WorkingDir: req.WorkingDir,
		Cols:       req.Cols,
		Rows:       req.Rows,
		Env:        req.Env,
	})

	sessionID, err := h.manager.CreateSession(cfg, h.sink)
	if err != nil {
		h.fail(c, err)
		return
	}
	info, err := h.manager.Session(sessionID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, info)
}

// ListSessions returns every session, oldest first.
func (h *Handlers) ListSessions(c *gin.Context) {
	sessions := h.manager.Sessions()
	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

// Info returns the active session, session count and default shell.
func (h *Handlers) Info(c *gin.Context) {
	c.JSON(http.StatusOK, h.manager.Info())
}

// ListPlugins returns the active session's plugin names.
func (h *Handlers) ListPlugins(c *gin.Context) {
	names, err := h.manager.ListPlugins()
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"plugins": names})
}

// GetSession returns one session.
func (h *Handlers) GetSession(c *gin.Context) {
	info, err := h.manager.Session(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// SetActive switches the active session.
func (h *Handlers) SetActive(c *gin.Context) {
	sessionID := c.Param("id")
	if err := h.manager.SetActive(sessionID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"active_session": sessionID})
}

// SubmitCommand runs a command line on the active session.
func (h *Handlers) SubmitCommand(c *gin.Context) {
	var req types.CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.manager.SubmitCommand(req.Command); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// RunCommand runs a command line on one session.
func (h *Handlers) RunCommand(c *gin.Context) {
	var req types.CommandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.manager.RunCommand(c.Param("id"), req.Command); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SendInput writes raw keystrokes to the active session.
func (h *Handlers) SendInput(c *gin.Context) {
	var req types.InputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.manager.SendInput([]byte(req.Input)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Write writes raw keystrokes to one session.
func (h *Handlers) Write(c *gin.Context) {
	var req types.InputRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.manager.Write(c.Param("id"), []byte(req.Input)); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ResizeActive resizes the active session.
func (h *Handlers) ResizeActive(c *gin.Context) {
	var req types.ResizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.manager.ResizeActive(req.Cols, req.Rows); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Resize resizes one session.
func (h *Handlers) Resize(c *gin.Context) {
	var req types.ResizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.manager.Resize(c.Param("id"), req.Cols, req.Rows); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CommandEnd reports that the session's last command finished.
func (h *Handlers) CommandEnd(c *gin.Context) {
	var req types.CommandEndRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if err := h.manager.DispatchCommandEnd(c.Param("id"), req.ExitCode); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// WorkingDir returns the shell's current directory.
func (h *Handlers) WorkingDir(c *gin.Context) {
	dir, err := h.manager.WorkingDir(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"working_dir": dir})
}

// Scrollback returns recent output as text, gzip-compressed when the client
// accepts it. plain=true strips escape sequences.
func (h *Handlers) Scrollback(c *gin.Context) {
	data, err := h.manager.Scrollback(c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}

	if c.Query("plain") == "true" {
		data = []byte(terminal.PlainText(data))
	}

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Vary", "Accept-Encoding")
	if !strings.Contains(c.GetHeader("Accept-Encoding"), "gzip") {
		c.Data(http.StatusOK, "text/plain; charset=utf-8", data)
		return
	}

	c.Header("Content-Encoding", "gzip")
	c.Status(http.StatusOK)
	gz := gzip.NewWriter(c.Writer)
	if _, err := gz.Write(data); err != nil {
		h.logger.Debug("Scrollback write failed", zap.Error(err))
	}
	_ = gz.Close()
}

// CloseSession closes one session.
func (h *Handlers) CloseSession(c *gin.Context) {
	if err := h.manager.Close(c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// CloseActive closes the active session.
func (h *Handlers) CloseActive(c *gin.Context) {
	if err := h.manager.CloseActive(); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
