package terminal_test

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/dogeterm/internal/terminal"
	"github.com/GriffinCanCode/dogeterm/internal/terminal/terminaltest"
)

const waitFor = 2 * time.Second
const tick = 5 * time.Millisecond

func testConfig() terminal.Config {
	return terminal.Config{
		Shell: "/bin/sh",
		Env:   map[string]string{"TERM": "xterm-256color"},
		Cols:  80,
		Rows:  24,
	}
}

func newManager(t *testing.T, opts ...terminal.Option) (*terminal.Manager, *terminaltest.Opener) {
	t.Helper()
	opener := &terminaltest.Opener{}
	m := terminal.NewManager(append([]terminal.Option{terminal.WithOpener(opener)}, opts...)...)
	t.Cleanup(m.CloseAll)
	return m, opener
}

func TestCreateSessionBecomesActive(t *testing.T) {
	m, _ := newManager(t)

	first, err := m.CreateSession(testConfig(), nil)
	require.NoError(t, err)
	active, ok := m.Active()
	require.True(t, ok)
	assert.Equal(t, first, active)

	second, err := m.CreateSession(testConfig(), nil)
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	active, _ = m.Active()
	assert.Equal(t, second, active)
	assert.Equal(t, 2, m.Count())
}

func TestCreateSessionRejectsInvalidConfig(t *testing.T) {
	m, opener := newManager(t)

	cfg := testConfig()
	cfg.Cols = 0
	_, err := m.CreateSession(cfg, nil)
	assert.ErrorIs(t, err, terminal.ErrInvalidSize)

	cfg = testConfig()
	cfg.Shell = ""
	_, err = m.CreateSession(cfg, nil)
	assert.Error(t, err)

	assert.Zero(t, opener.Opened())
	assert.Zero(t, m.Count())
}

func TestCreateSessionPropagatesOpenErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"spawn", &terminal.SpawnError{Shell: "/no/such/shell", Err: errors.New("not found")}},
		{"pty", &terminal.PtyError{Op: "open", Err: errors.New("no devices")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, opener := newManager(t)
			opener.Err = tt.err

			_, err := m.CreateSession(testConfig(), nil)
			require.Error(t, err)
			assert.Equal(t, tt.err, err)

			_, ok := m.Active()
			assert.False(t, ok)
			assert.Zero(t, m.Count())
		})
	}
}

func TestUnknownSessionID(t *testing.T) {
	m, _ := newManager(t)
	const missing = "term_missing"

	assert.ErrorIs(t, m.Write(missing, []byte("x")), terminal.ErrSessionNotFound)
	assert.ErrorIs(t, m.Resize(missing, 100, 30), terminal.ErrSessionNotFound)
	assert.ErrorIs(t, m.Close(missing), terminal.ErrSessionNotFound)
	assert.ErrorIs(t, m.SetActive(missing), terminal.ErrSessionNotFound)
	assert.ErrorIs(t, m.DispatchCommandStart(missing, "ls"), terminal.ErrSessionNotFound)
	assert.ErrorIs(t, m.DispatchCommandEnd(missing, nil), terminal.ErrSessionNotFound)
	assert.ErrorIs(t, m.RunCommand(missing, "ls"), terminal.ErrSessionNotFound)

	assert.ErrorIs(t, m.Resize(missing, 0, 0), terminal.ErrSessionNotFound)

	_, err := m.Session(missing)
	assert.ErrorIs(t, err, terminal.ErrSessionNotFound)
	_, err = m.WorkingDir(missing)
	assert.ErrorIs(t, err, terminal.ErrSessionNotFound)
	_, err = m.Scrollback(missing)
	assert.ErrorIs(t, err, terminal.ErrSessionNotFound)
}

func TestNoActiveSession(t *testing.T) {
	m, _ := newManager(t)

	assert.ErrorIs(t, m.SubmitCommand("ls"), terminal.ErrNoActiveSession)
	assert.ErrorIs(t, m.SendInput([]byte("x")), terminal.ErrNoActiveSession)
	assert.ErrorIs(t, m.ResizeActive(100, 30), terminal.ErrNoActiveSession)
	assert.ErrorIs(t, m.CloseActive(), terminal.ErrNoActiveSession)

	_, err := m.ListPlugins()
	assert.ErrorIs(t, err, terminal.ErrNoActiveSession)
	_, err = m.ActiveWorkingDir()
	assert.ErrorIs(t, err, terminal.ErrNoActiveSession)

	info := m.Info()
	assert.Nil(t, info.ActiveSession)
	assert.Zero(t, info.TotalSessions)
	assert.NotEmpty(t, info.DefaultShell)
}

func TestOutputReachesSinkUnchangedWithIdentityChain(t *testing.T) {
	m, opener := newManager(t)
	sink := terminaltest.NewSink()

	sid, err := m.CreateSession(testConfig(), sink)
	require.NoError(t, err)

	require.NoError(t, opener.Last().Emit("hello\r\n"))
	require.NoError(t, opener.Last().Emit("world\r\n"))

	require.Eventually(t, func() bool { return sink.Text(sid) == "hello\r\nworld\r\n" }, waitFor, tick)

	scroll, err := m.Scrollback(sid)
	require.NoError(t, err)
	assert.Equal(t, "hello\r\nworld\r\n", string(scroll))
}

func TestOutputTransformComposesLeftToRight(t *testing.T) {
	log := &terminaltest.Log{}
	factory := func(string) []terminal.Plugin {
		return []terminal.Plugin{
			&terminaltest.RecordingPlugin{PluginName: "upper", Log: log, Transform: strings.ToUpper},
			&terminaltest.RecordingPlugin{PluginName: "star", Log: log, Transform: func(s string) string { return "*" + s }},
		}
	}
	m, opener := newManager(t, terminal.WithPlugins(factory))
	sink := terminaltest.NewSink()

	sid, err := m.CreateSession(testConfig(), sink)
	require.NoError(t, err)
	require.NoError(t, opener.Last().Emit("ok"))

	require.Eventually(t, func() bool { return sink.Text(sid) == "*OK" }, waitFor, tick)
}

func TestHooksRunInChainOrder(t *testing.T) {
	log := &terminaltest.Log{}
	factory := func(string) []terminal.Plugin {
		return []terminal.Plugin{
			&terminaltest.RecordingPlugin{PluginName: "P1", Log: log},
			&terminaltest.RecordingPlugin{PluginName: "P2", Log: log},
		}
	}
	m, opener := newManager(t, terminal.WithPlugins(factory))

	sid, err := m.CreateSession(testConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"P1:session_start", "P2:session_start"}, log.Entries())

	require.NoError(t, m.SubmitCommand("ls"))
	assert.Equal(t, []string{"P1:command_start:ls", "P2:command_start:ls"}, log.Filter("command_start"))
	assert.Equal(t, "ls\n", opener.Last().Written())

	code := 0
	require.NoError(t, m.DispatchCommandEnd(sid, &code))
	assert.Equal(t, []string{"P1:command_end", "P2:command_end"}, log.Filter("command_end"))

	names, err := m.ListPlugins()
	require.NoError(t, err)
	assert.Equal(t, []string{"P1", "P2"}, names)

	require.NoError(t, m.Close(sid))
	assert.Equal(t, []string{"P1:session_end", "P2:session_end"}, log.Filter("session_end"))
}

func TestEachSessionGetsFreshChain(t *testing.T) {
	var mu sync.Mutex
	built := map[string]int{}
	factory := func(sessionID string) []terminal.Plugin {
		mu.Lock()
		built[sessionID]++
		mu.Unlock()
		return []terminal.Plugin{&terminaltest.RecordingPlugin{PluginName: "p", Log: &terminaltest.Log{}}}
	}
	m, _ := newManager(t, terminal.WithPlugins(factory))

	a, err := m.CreateSession(testConfig(), nil)
	require.NoError(t, err)
	b, err := m.CreateSession(testConfig(), nil)
	require.NoError(t, err)

	ca, err := m.Plugins(a)
	require.NoError(t, err)
	cb, err := m.Plugins(b)
	require.NoError(t, err)
	assert.NotSame(t, ca[0], cb[0])

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, map[string]int{a: 1, b: 1}, built)
}

func TestWriteIsRawAndHookFree(t *testing.T) {
	log := &terminaltest.Log{}
	factory := func(string) []terminal.Plugin {
		return []terminal.Plugin{&terminaltest.RecordingPlugin{PluginName: "P1", Log: log}}
	}
	m, opener := newManager(t, terminal.WithPlugins(factory))

	sid, err := m.CreateSession(testConfig(), nil)
	require.NoError(t, err)

	require.NoError(t, m.Write(sid, []byte{0x03}))
	require.NoError(t, m.SendInput([]byte("abc")))

	assert.Equal(t, "\x03abc", opener.Last().Written())
	assert.Empty(t, log.Filter("command"))
}

func TestResizeAffectsOnlyTargetSession(t *testing.T) {
	m, opener := newManager(t)

	a, err := m.CreateSession(testConfig(), nil)
	require.NoError(t, err)
	ptyA := opener.Last()
	_, err = m.CreateSession(testConfig(), nil)
	require.NoError(t, err)
	ptyB := opener.Last()

	require.NoError(t, m.Resize(a, 120, 40))

	cols, rows := ptyA.Size()
	assert.Equal(t, 120, cols)
	assert.Equal(t, 40, rows)
	cols, rows = ptyB.Size()
	assert.Equal(t, 80, cols)
	assert.Equal(t, 24, rows)

	info, err := m.Session(a)
	require.NoError(t, err)
	assert.Equal(t, 120, info.Cols)
	assert.Equal(t, 40, info.Rows)

	assert.ErrorIs(t, m.Resize(a, 0, 40), terminal.ErrInvalidSize)
	assert.ErrorIs(t, m.Resize(a, -1, -1), terminal.ErrInvalidSize)
}

func TestResizeFailureIsPtyError(t *testing.T) {
	m, opener := newManager(t)
	sid, err := m.CreateSession(testConfig(), nil)
	require.NoError(t, err)

	opener.Last().ResizeErr = errors.New("ioctl failed")
	err = m.Resize(sid, 100, 30)

	var ptyErr *terminal.PtyError
	require.ErrorAs(t, err, &ptyErr)
	assert.Equal(t, "resize", ptyErr.Op)

	info, err := m.Session(sid)
	require.NoError(t, err)
	assert.Equal(t, 80, info.Cols)
}

func TestWriteFailureIsIoError(t *testing.T) {
	m, opener := newManager(t)
	sid, err := m.CreateSession(testConfig(), nil)
	require.NoError(t, err)

	opener.Last().WriteErr = errors.New("broken pipe")
	var ioErr *terminal.IoError
	require.ErrorAs(t, m.Write(sid, []byte("x")), &ioErr)
	assert.Equal(t, "write", ioErr.Op)
}

func TestCloseActiveClearsPointer(t *testing.T) {
	m, opener := newManager(t)
	sink := terminaltest.NewSink()

	sid, err := m.CreateSession(testConfig(), sink)
	require.NoError(t, err)
	pty := opener.Last()

	require.NoError(t, m.Close(sid))

	_, ok := m.Active()
	assert.False(t, ok)
	assert.True(t, pty.Closed())
	assert.ErrorIs(t, m.Close(sid), terminal.ErrSessionNotFound)

	_, stopped := sink.ClosedWith(sid)
	assert.True(t, stopped)
}

func TestCloseNonActiveKeepsPointer(t *testing.T) {
	m, _ := newManager(t)

	a, err := m.CreateSession(testConfig(), nil)
	require.NoError(t, err)
	b, err := m.CreateSession(testConfig(), nil)
	require.NoError(t, err)

	require.NoError(t, m.Close(a))

	active, ok := m.Active()
	require.True(t, ok)
	assert.Equal(t, b, active)
	assert.Equal(t, 1, m.Count())
}

func TestSetActiveRoutesActiveOperations(t *testing.T) {
	m, opener := newManager(t)

	a, err := m.CreateSession(testConfig(), nil)
	require.NoError(t, err)
	ptyA := opener.Last()
	_, err = m.CreateSession(testConfig(), nil)
	require.NoError(t, err)
	ptyB := opener.Last()

	require.NoError(t, m.SetActive(a))
	require.NoError(t, m.SubmitCommand("pwd"))

	assert.Equal(t, "pwd\n", ptyA.Written())
	assert.Empty(t, ptyB.Written())

	require.NoError(t, m.CloseActive())
	_, ok := m.Active()
	assert.False(t, ok)
}

func TestConcurrentWritesAreNotInterleaved(t *testing.T) {
	m, opener := newManager(t)
	sid, err := m.CreateSession(testConfig(), nil)
	require.NoError(t, err)

	const writers = 20
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			msg := fmt.Sprintf("<%02d%s>", i, strings.Repeat("x", 64))
			assert.NoError(t, m.Write(sid, []byte(msg)))
		}(i)
	}
	wg.Wait()

	written := opener.Last().Written()
	for i := 0; i < writers; i++ {
		assert.Contains(t, written, fmt.Sprintf("<%02d%s>", i, strings.Repeat("x", 64)))
	}
}

func TestConcurrentSessionsAreIndependent(t *testing.T) {
	m, _ := newManager(t)

	var wg sync.WaitGroup
	ids := make(chan string, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sid, err := m.CreateSession(testConfig(), nil)
			if assert.NoError(t, err) {
				ids <- sid
			}
		}()
	}
	wg.Wait()
	close(ids)

	for sid := range ids {
		wg.Add(1)
		go func(sid string) {
			defer wg.Done()
			assert.NoError(t, m.Resize(sid, 100, 50))
			assert.NoError(t, m.Close(sid))
		}(sid)
	}
	wg.Wait()
	assert.Zero(t, m.Count())
}

func TestReadErrorStopsListenerButKeepsSession(t *testing.T) {
	m, opener := newManager(t)
	sink := terminaltest.NewSink()

	sid, err := m.CreateSession(testConfig(), sink)
	require.NoError(t, err)

	opener.Last().Fail(errors.New("device gone"))

	require.Eventually(t, func() bool {
		_, stopped := sink.ClosedWith(sid)
		return stopped
	}, waitFor, tick)

	stopErr, _ := sink.ClosedWith(sid)
	var ioErr *terminal.IoError
	require.ErrorAs(t, stopErr, &ioErr)
	assert.Equal(t, "read", ioErr.Op)

	info, err := m.Session(sid)
	require.NoError(t, err)
	assert.Equal(t, terminal.ListenerStopped.String(), info.Listener)

	require.NoError(t, m.Close(sid))
}

func TestEndOfStreamStopsListenerCleanly(t *testing.T) {
	m, opener := newManager(t)
	sink := terminaltest.NewSink()

	sid, err := m.CreateSession(testConfig(), sink)
	require.NoError(t, err)

	require.NoError(t, opener.Last().Emit("bye"))
	require.NoError(t, opener.Last().Close())

	require.Eventually(t, func() bool {
		_, stopped := sink.ClosedWith(sid)
		return stopped
	}, waitFor, tick)

	stopErr, _ := sink.ClosedWith(sid)
	assert.NoError(t, stopErr)
	assert.Equal(t, "bye", sink.Text(sid))
}

func TestSplitMultibyteOutputIsReassembled(t *testing.T) {
	m, opener := newManager(t)
	sink := terminaltest.NewSink()

	sid, err := m.CreateSession(testConfig(), sink)
	require.NoError(t, err)

	euro := []byte("€") // e2 82 ac
	require.NoError(t, opener.Last().EmitBytes(append([]byte("a"), euro[:2]...)))
	require.NoError(t, opener.Last().EmitBytes(append(euro[2:], 'b')))

	require.Eventually(t, func() bool { return sink.Text(sid) == "a€b" }, waitFor, tick)
	assert.NotContains(t, sink.Text(sid), "�")
}

type panicPlugin struct {
	terminal.BasePlugin
}

func (panicPlugin) Name() string { return "panic" }

func (panicPlugin) OnCommandStart(string, string) {
	panic("boom")
}

func (panicPlugin) OnOutput(string, string) string {
	panic("boom")
}

func TestPanickingPluginDoesNotKillSession(t *testing.T) {
	factory := func(string) []terminal.Plugin { return []terminal.Plugin{panicPlugin{}} }
	m, opener := newManager(t, terminal.WithPlugins(factory))
	sink := terminaltest.NewSink()

	sid, err := m.CreateSession(testConfig(), sink)
	require.NoError(t, err)

	require.NoError(t, m.RunCommand(sid, "ls"))
	assert.Equal(t, "ls\n", opener.Last().Written())

	require.NoError(t, opener.Last().Emit("raw"))
	require.Eventually(t, func() bool { return sink.Text(sid) == "raw" }, waitFor, tick)
}

// gatePlugin holds each output chunk until release is closed.
type gatePlugin struct {
	terminal.BasePlugin
	entered chan struct{}
	release chan struct{}
}

func (gatePlugin) Name() string { return "gate" }

func (p gatePlugin) OnOutput(chunk, _ string) string {
	p.entered <- struct{}{}
	<-p.release
	return chunk
}

func TestCloseDropsChunkInsidePluginChain(t *testing.T) {
	gate := gatePlugin{entered: make(chan struct{}, 1), release: make(chan struct{})}
	factory := func(string) []terminal.Plugin { return []terminal.Plugin{gate} }
	m, opener := newManager(t, terminal.WithPlugins(factory))
	sink := terminaltest.NewSink()

	sid, err := m.CreateSession(testConfig(), sink)
	require.NoError(t, err)
	pty := opener.Last()

	require.NoError(t, pty.Emit("late output"))
	select {
	case <-gate.entered:
	case <-time.After(waitFor):
		t.Fatal("output never reached the plugin chain")
	}

	closed := make(chan error, 1)
	go func() { closed <- m.Close(sid) }()
	require.Eventually(t, func() bool { return m.Count() == 0 }, waitFor, tick)

	close(gate.release)
	select {
	case err := <-closed:
		require.NoError(t, err)
	case <-time.After(waitFor):
		t.Fatal("close did not return")
	}

	assert.Empty(t, sink.Text(sid))
	assert.True(t, pty.Closed())
}

func TestResizeUnknownSessionBeforeSizeCheck(t *testing.T) {
	m, _ := newManager(t)

	err := m.Resize("term_missing", 0, -1)
	assert.ErrorIs(t, err, terminal.ErrSessionNotFound)
	assert.NotErrorIs(t, err, terminal.ErrInvalidSize)
}

func TestSessionsListedOldestFirst(t *testing.T) {
	m, _ := newManager(t)

	var created []string
	for i := 0; i < 3; i++ {
		sid, err := m.CreateSession(testConfig(), nil)
		require.NoError(t, err)
		created = append(created, sid)
	}

	infos := m.Sessions()
	require.Len(t, infos, 3)
	for i, info := range infos {
		assert.Equal(t, created[i], info.ID)
		assert.Equal(t, i == 2, info.Active)
		assert.Equal(t, "/bin/sh", info.Shell)
	}
}

func TestWorkingDirFallsBackToConfig(t *testing.T) {
	m, _ := newManager(t)

	cfg := testConfig()
	cfg.WorkingDir = "/tmp"
	sid, err := m.CreateSession(cfg, nil)
	require.NoError(t, err)

	dir, err := m.WorkingDir(sid)
	require.NoError(t, err)
	assert.Equal(t, "/tmp", dir)

	dir, err = m.ActiveWorkingDir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp", dir)
}

func TestWorkingDirReadsProcessDirectory(t *testing.T) {
	procRoot := t.TempDir()
	shellDir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(procRoot, "4242"), 0o755))
	require.NoError(t, os.Symlink(shellDir, filepath.Join(procRoot, "4242", "cwd")))

	m, opener := newManager(t, terminal.WithProcRoot(procRoot))
	opener.Pid = 4242

	cfg := testConfig()
	cfg.WorkingDir = "/tmp"
	sid, err := m.CreateSession(cfg, nil)
	require.NoError(t, err)

	dir, err := m.WorkingDir(sid)
	require.NoError(t, err)
	assert.Equal(t, shellDir, dir)

	// A process that is gone falls back to the configured directory.
	opener.Pid = 9999
	sid, err = m.CreateSession(cfg, nil)
	require.NoError(t, err)
	dir, err = m.WorkingDir(sid)
	require.NoError(t, err)
	assert.Equal(t, "/tmp", dir)
}

func TestScrollbackKeepsMostRecentOutput(t *testing.T) {
	m, opener := newManager(t, terminal.WithScrollback(8))
	sink := terminaltest.NewSink()

	sid, err := m.CreateSession(testConfig(), sink)
	require.NoError(t, err)

	require.NoError(t, opener.Last().Emit("0123456789abcdef"))
	require.Eventually(t, func() bool { return sink.Text(sid) == "0123456789abcdef" }, waitFor, tick)

	scroll, err := m.Scrollback(sid)
	require.NoError(t, err)
	assert.Equal(t, "89abcdef", string(scroll))
}

func TestCreateSessionDoesNotShareConfig(t *testing.T) {
	m, opener := newManager(t)

	cfg := testConfig()
	_, err := m.CreateSession(cfg, nil)
	require.NoError(t, err)

	cfg.Env["TERM"] = "dumb"
	assert.Equal(t, "xterm-256color", opener.Last().Config.Env["TERM"])
}
