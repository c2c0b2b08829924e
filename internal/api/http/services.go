package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/dogeterm/internal/shared/id"
	"github.com/GriffinCanCode/dogeterm/internal/shared/types"
	"github.com/GriffinCanCode/dogeterm/internal/terminal"
)

// ListServices lists registered services, optionally by category.
func (h *Handlers) ListServices(c *gin.Context) {
	var category *types.Category
	if raw := c.Query("category"); raw != "" {
		cat := types.Category(raw)
		category = &cat
	}

	services := h.registry.List(category)
	c.JSON(http.StatusOK, gin.H{
		"services": services,
		"stats":    h.registry.Stats(),
	})
}

// DiscoverServices ranks services against an intent.
func (h *Handlers) DiscoverServices(c *gin.Context) {
	var req types.DiscoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Limit <= 0 {
		req.Limit = 5
	}
	c.JSON(http.StatusOK, gin.H{"services": h.registry.Discover(req.Intent, req.Limit)})
}

// isTerminalFault reports whether err came from a PTY rather than from the
// tool call itself.
func isTerminalFault(err error) bool {
	var ptyErr *terminal.PtyError
	var ioErr *terminal.IoError
	return errors.As(err, &ptyErr) || errors.As(err, &ioErr)
}

// ExecuteService runs a service tool. Tool failures are reported in the
// result body with their terminal status code.
func (h *Handlers) ExecuteService(c *gin.Context) {
	var req types.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Params == nil {
		req.Params = map[string]interface{}{}
	}

	requestID := id.NewRequestID().String()
	appCtx := &types.Context{ClientID: req.ClientID, RequestID: &requestID}

	result, err := h.registry.Execute(c.Request.Context(), req.ToolID, req.Params, appCtx)
	if err != nil {
		h.logger.Debug("Tool failed",
			zap.String("tool_id", req.ToolID),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		status := statusFor(err)
		if status == http.StatusInternalServerError && !isTerminalFault(err) {
			status = http.StatusBadRequest
		}
		c.JSON(status, types.Failure(err.Error()))
		return
	}
	c.JSON(http.StatusOK, result)
}
