package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/dogeterm/internal/service"
	"github.com/GriffinCanCode/dogeterm/internal/terminal"
	"github.com/GriffinCanCode/dogeterm/internal/terminal/plugins"
)

// Handlers serves the terminal REST API.
type Handlers struct {
	manager   *terminal.Manager
	registry  *service.Registry
	sink      terminal.OutputSink
	defaults  func() terminal.Config
	aliases   *plugins.AliasTable
	logger    *zap.Logger
	startTime time.Time
}

// Options are the collaborators of Handlers. Manager is required.
type Options struct {
	Manager  *terminal.Manager
	Registry *service.Registry
	Sink     terminal.OutputSink
	Defaults func() terminal.Config
	Aliases  *plugins.AliasTable
	Logger   *zap.Logger
}

// NewHandlers creates the HTTP handlers.
func NewHandlers(opts Options) *Handlers {
	h := &Handlers{
		manager:   opts.Manager,
		registry:  opts.Registry,
		sink:      opts.Sink,
		defaults:  opts.Defaults,
		aliases:   opts.Aliases,
		logger:    opts.Logger,
		startTime: time.Now(),
	}
	if h.registry == nil {
		h.registry = service.NewRegistry()
	}
	if h.defaults == nil {
		h.defaults = terminal.DefaultConfig
	}
	if h.aliases == nil {
		h.aliases = plugins.NewAliasTable(nil)
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	return h
}

// Register mounts every route on router.
func (h *Handlers) Register(router gin.IRouter) {
	router.GET("/", h.Root)
	router.GET("/health", h.Health)

	terminals := router.Group("/terminals")
	terminals.POST("", h.CreateSession)
	terminals.GET("", h.ListSessions)
	terminals.GET("/info", h.Info)
	terminals.GET("/plugins", h.ListPlugins)
	terminals.POST("/command", h.SubmitCommand)
	terminals.POST("/input", h.SendInput)
	terminals.POST("/resize", h.ResizeActive)
	terminals.DELETE("/active", h.CloseActive)

	terminals.GET("/:id", h.GetSession)
	terminals.PUT("/:id/active", h.SetActive)
	terminals.POST("/:id/command", h.RunCommand)
	terminals.POST("/:id/input", h.Write)
	terminals.POST("/:id/resize", h.Resize)
	terminals.POST("/:id/command-end", h.CommandEnd)
	terminals.GET("/:id/cwd", h.WorkingDir)
	terminals.GET("/:id/scrollback", h.Scrollback)
	terminals.DELETE("/:id", h.CloseSession)

	terminals.GET("/:id/history", h.History)
	terminals.GET("/:id/timing", h.Timing)
	terminals.GET("/:id/suggestions", h.Suggestions)
	terminals.GET("/:id/theme", h.GetTheme)
	terminals.PUT("/:id/theme", h.SetTheme)

	router.GET("/aliases", h.ListAliases)
	router.GET("/aliases/expand", h.ExpandAlias)

	router.GET("/services", h.ListServices)
	router.POST("/services/discover", h.DiscoverServices)
	router.POST("/services/execute", h.ExecuteService)
}

// Root returns service identification.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "dogeterm",
		"status":  "running",
	})
}

// Health reports liveness and registry size.
func (h *Handlers) Health(c *gin.Context) {
	info := h.manager.Info()
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"uptime_seconds": int(time.Since(h.startTime).Seconds()),
		"sessions":       info.TotalSessions,
		"active_session": info.ActiveSession,
	})
}

// statusFor maps terminal errors to HTTP status codes.
func statusFor(err error) int {
	var spawnErr *terminal.SpawnError
	switch {
	case errors.Is(err, terminal.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, terminal.ErrNoActiveSession):
		return http.StatusConflict
	case errors.Is(err, terminal.ErrInvalidSize):
		return http.StatusBadRequest
	case errors.Is(err, terminal.ErrSessionClosed):
		return http.StatusGone
	case errors.As(err, &spawnErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
