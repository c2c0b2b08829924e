package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/dogeterm/internal/providers/terminal"
	"github.com/GriffinCanCode/dogeterm/internal/service"
	term "github.com/GriffinCanCode/dogeterm/internal/terminal"
	"github.com/GriffinCanCode/dogeterm/internal/terminal/plugins"
	"github.com/GriffinCanCode/dogeterm/internal/terminal/terminaltest"
)

type harness struct {
	router  *gin.Engine
	manager *term.Manager
	opener  *terminaltest.Opener
	sink    *terminaltest.Sink
}

func newHarness(t *testing.T, pluginNames ...string) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	aliases := plugins.NewAliasTable(map[string]string{"gs": "git status"})
	factory, err := plugins.NewChainFactory(pluginNames, plugins.Deps{Aliases: aliases})
	require.NoError(t, err)

	opener := &terminaltest.Opener{}
	manager := term.NewManager(term.WithOpener(opener), term.WithPlugins(factory))
	t.Cleanup(manager.CloseAll)

	defaults := func() term.Config {
		return term.Config{Shell: "/bin/sh", Env: map[string]string{}, Cols: 80, Rows: 24}
	}
	sink := terminaltest.NewSink()

	registry := service.NewRegistry()
	require.NoError(t, registry.Register(terminal.NewProvider(manager, defaults, sink)))

	h := NewHandlers(Options{
		Manager:  manager,
		Registry: registry,
		Sink:     sink,
		Defaults: defaults,
		Aliases:  aliases,
	})
	router := gin.New()
	h.Register(router)

	return &harness{router: router, manager: manager, opener: opener, sink: sink}
}

func (h *harness) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func (h *harness) create(t *testing.T) string {
	t.Helper()
	w := h.do(t, http.MethodPost, "/terminals", nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)["id"].(string)
}

func TestHealth(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.EqualValues(t, 0, body["sessions"])
}

func TestCreateSessionOverlaysDefaults(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodPost, "/terminals", map[string]interface{}{
		"cols": 132,
		"env":  map[string]string{"FOO": "bar"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decode(t, w)
	assert.EqualValues(t, 132, body["cols"])
	assert.EqualValues(t, 24, body["rows"])
	assert.Equal(t, "/bin/sh", body["shell"])
	assert.Equal(t, true, body["active"])
	assert.Equal(t, "bar", h.opener.Last().Config.Env["FOO"])
}

func TestCreateSessionRejectsNegativeSize(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodPost, "/terminals", map[string]interface{}{"cols": -1})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 0, h.opener.Opened())
}

func TestUnknownSession(t *testing.T) {
	h := newHarness(t)

	for _, tc := range []struct {
		method, path string
		body         interface{}
	}{
		{http.MethodGet, "/terminals/nope", nil},
		{http.MethodPost, "/terminals/nope/command", map[string]string{"command": "ls"}},
		{http.MethodPost, "/terminals/nope/input", map[string]string{"input": "x"}},
		{http.MethodPost, "/terminals/nope/resize", map[string]int{"cols": 10, "rows": 10}},
		{http.MethodGet, "/terminals/nope/scrollback", nil},
		{http.MethodDelete, "/terminals/nope", nil},
	} {
		w := h.do(t, tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusNotFound, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestActiveRoutesWithoutSession(t *testing.T) {
	h := newHarness(t)

	w := h.do(t, http.MethodPost, "/terminals/command", map[string]string{"command": "ls"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = h.do(t, http.MethodDelete, "/terminals/active", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCommandAndInput(t *testing.T) {
	h := newHarness(t)
	id := h.create(t)

	w := h.do(t, http.MethodPost, "/terminals/"+id+"/command", map[string]string{"command": "ls -la"})
	require.Equal(t, http.StatusOK, w.Code)

	w = h.do(t, http.MethodPost, "/terminals/input", map[string]string{"input": "\x03"})
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, "ls -la\n\x03", h.opener.Last().Written())
}

func TestCommandRequiresBody(t *testing.T) {
	h := newHarness(t)
	h.create(t)

	w := h.do(t, http.MethodPost, "/terminals/command", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResize(t *testing.T) {
	h := newHarness(t)
	id := h.create(t)

	w := h.do(t, http.MethodPost, "/terminals/"+id+"/resize", map[string]int{"cols": 100, "rows": 30})
	require.Equal(t, http.StatusOK, w.Code)

	cols, rows := h.opener.Last().Size()
	assert.Equal(t, 100, cols)
	assert.Equal(t, 30, rows)

	info := decode(t, h.do(t, http.MethodGet, "/terminals/"+id, nil))
	assert.EqualValues(t, 100, info["cols"])
}

func TestSetActiveAndList(t *testing.T) {
	h := newHarness(t)
	first := h.create(t)
	second := h.create(t)

	active, _ := h.manager.Active()
	assert.Equal(t, second, active)

	w := h.do(t, http.MethodPut, "/terminals/"+first+"/active", nil)
	require.Equal(t, http.StatusOK, w.Code)
	active, _ = h.manager.Active()
	assert.Equal(t, first, active)

	body := decode(t, h.do(t, http.MethodGet, "/terminals", nil))
	assert.EqualValues(t, 2, body["count"])
	sessions := body["sessions"].([]interface{})
	assert.Equal(t, first, sessions[0].(map[string]interface{})["id"])
}

func TestCloseSession(t *testing.T) {
	h := newHarness(t)
	id := h.create(t)

	w := h.do(t, http.MethodDelete, "/terminals/"+id, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, h.opener.Last().Closed())

	w = h.do(t, http.MethodDelete, "/terminals/"+id, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	info := decode(t, h.do(t, http.MethodGet, "/terminals/info", nil))
	assert.Nil(t, info["active_session"])
}

func TestScrollback(t *testing.T) {
	h := newHarness(t)
	id := h.create(t)
	require.NoError(t, h.opener.Last().Emit("hello scrollback"))

	require.Eventually(t, func() bool {
		return h.sink.Text(id) == "hello scrollback"
	}, 2*time.Second, 10*time.Millisecond)

	w := h.do(t, http.MethodGet, "/terminals/"+id+"/scrollback", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello scrollback", w.Body.String())
	assert.Empty(t, w.Header().Get("Content-Encoding"))

	req := httptest.NewRequest(http.MethodGet, "/terminals/"+id+"/scrollback", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	plain, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, "hello scrollback", string(plain))
}

func TestScrollbackPlain(t *testing.T) {
	h := newHarness(t)
	id := h.create(t)
	require.NoError(t, h.opener.Last().Emit("\x1b[31mred\x1b[0m"))

	require.Eventually(t, func() bool {
		return h.sink.Text(id) != ""
	}, 2*time.Second, 10*time.Millisecond)

	w := h.do(t, http.MethodGet, "/terminals/"+id+"/scrollback?plain=true", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "red", w.Body.String())
}

func TestPluginQueries(t *testing.T) {
	h := newHarness(t, "history", "timing", "autocomplete", "theme")
	id := h.create(t)

	w := h.do(t, http.MethodGet, "/terminals/"+id+"/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode(t, w)["history"])

	h.do(t, http.MethodPost, "/terminals/"+id+"/command", map[string]string{"command": "make build"})
	h.do(t, http.MethodPost, "/terminals/"+id+"/command-end", map[string]int{"exit_code": 0})

	history := decode(t, h.do(t, http.MethodGet, "/terminals/"+id+"/history", nil))["history"]
	assert.Equal(t, []interface{}{"make build"}, history)

	timing := decode(t, h.do(t, http.MethodGet, "/terminals/"+id+"/timing", nil))
	assert.EqualValues(t, 1, timing["count"])

	suggestions := decode(t, h.do(t, http.MethodGet, "/terminals/"+id+"/suggestions?prefix=gi", nil))
	assert.Contains(t, suggestions["suggestions"], "git status")

	w = h.do(t, http.MethodPut, "/terminals/"+id+"/theme", map[string]string{"name": "dracula"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	theme := decode(t, h.do(t, http.MethodGet, "/terminals/"+id+"/theme", nil))
	assert.Equal(t, "dracula", theme["name"])

	w = h.do(t, http.MethodPut, "/terminals/"+id+"/theme", map[string]string{"name": "nope"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPluginMissingFromChain(t *testing.T) {
	h := newHarness(t, "color")
	id := h.create(t)

	w := h.do(t, http.MethodGet, "/terminals/"+id+"/history", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, decode(t, w)["error"], "history")
}

func TestAliases(t *testing.T) {
	h := newHarness(t)

	body := decode(t, h.do(t, http.MethodGet, "/aliases", nil))
	aliases := body["aliases"].(map[string]interface{})
	assert.Equal(t, "git status", aliases["gs"])

	body = decode(t, h.do(t, http.MethodGet, "/aliases/expand?command=gs%20-s", nil))
	assert.Equal(t, "git status -s", body["expanded"])
}

func TestServices(t *testing.T) {
	h := newHarness(t)

	body := decode(t, h.do(t, http.MethodGet, "/services?category=terminal", nil))
	assert.Len(t, body["services"], 1)

	body = decode(t, h.do(t, http.MethodPost, "/services/discover", map[string]interface{}{"intent": "run a shell command"}))
	assert.Len(t, body["services"], 1)

	w := h.do(t, http.MethodPost, "/services/execute", map[string]interface{}{
		"tool_id": "terminal.create_session",
		"params":  map[string]interface{}{"cols": 90},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decode(t, w)["success"])
	assert.Equal(t, 1, h.manager.Count())

	w = h.do(t, http.MethodPost, "/services/execute", map[string]interface{}{
		"tool_id": "terminal.get_session",
		"params":  map[string]interface{}{"session_id": "nope"},
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, false, decode(t, w)["success"])

	w = h.do(t, http.MethodPost, "/services/execute", map[string]interface{}{"tool_id": "bogus"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, statusFor(term.ErrSessionNotFound))
	assert.Equal(t, http.StatusConflict, statusFor(term.ErrNoActiveSession))
	assert.Equal(t, http.StatusBadRequest, statusFor(term.ErrInvalidSize))
	assert.Equal(t, http.StatusGone, statusFor(term.ErrSessionClosed))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(&term.SpawnError{Shell: "/nope"}))
	assert.Equal(t, http.StatusInternalServerError, statusFor(&term.IoError{Op: "read"}))
}
