package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/backdrop/internal/background"
	"github.com/jmylchreest/backdrop/internal/config"
	"github.com/jmylchreest/backdrop/internal/prefs"
	"github.com/jmylchreest/backdrop/internal/signal"
	"github.com/jmylchreest/backdrop/internal/theme"
)

func keyMsg(k string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm
}

func newTestModel(t *testing.T, reduced bool) (Model, *signal.Override) {
	t.Helper()

	motion := signal.NewOverride(signal.NewValue(reduced), signal.ModeAuto)
	store := theme.NewStore(nil, signal.NewValue(false))
	m := New(Options{Config: config.DefaultConfig(), Store: store, ReducedMotion: motion})
	t.Cleanup(func() {
		if m.renderer != nil {
			m.renderer.Stop()
		}
		store.Close()
	})
	return m, motion
}

func TestModel_InitializingUntilSized(t *testing.T) {
	m, _ := newTestModel(t, true)
	assert.Equal(t, "Initializing...", m.View())
	assert.False(t, m.store.Initialized())

	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	assert.True(t, m.store.Initialized())
	assert.Contains(t, m.View(), "Theme: System (light)")
}

func TestModel_ReducedMotionStaysStill(t *testing.T) {
	m, _ := newTestModel(t, true)
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})

	assert.Equal(t, background.Idle, m.renderer.State())
	assert.Zero(t, m.loop.pendingFrames())
	assert.Contains(t, m.View(), "still")
}

func TestModel_AnimatesAndAdvancesOnFrames(t *testing.T) {
	m, _ := newTestModel(t, false)
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})

	require.Equal(t, background.Running, m.renderer.State())
	assert.Equal(t, uint64(1), m.renderer.Frames())
	assert.Equal(t, 1, m.loop.pendingFrames())

	m = update(t, m, frameMsg{id: 1})
	assert.Equal(t, uint64(2), m.renderer.Frames())
	assert.Equal(t, 1, m.loop.pendingFrames())

	m = update(t, m, frameMsg{id: 1})
	assert.Equal(t, uint64(2), m.renderer.Frames(), "stale frame ignored")
	assert.Contains(t, m.View(), "animating")
}

func TestModel_CanvasFillsBelowHeader(t *testing.T) {
	m, _ := newTestModel(t, false)
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})

	cols, rows := m.canvas.Grid()
	assert.Equal(t, 80, cols)
	assert.Equal(t, 24-2, rows)

	w, h := m.view.Size()
	assert.Equal(t, 80*config.DefaultCellWidth, w)
	assert.Equal(t, 22*config.DefaultCellHeight, h)
}

func TestModel_ToggleThemeKey(t *testing.T) {
	m, _ := newTestModel(t, true)
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})

	m = update(t, m, keyMsg("t"))
	assert.Equal(t, theme.Light, m.store.Preference())
	m = update(t, m, keyMsg("t"))
	assert.Equal(t, theme.Dark, m.store.Preference())
	assert.Contains(t, m.View(), "Theme: Dark (dark)")
	m = update(t, m, keyMsg("t"))
	assert.Equal(t, theme.System, m.store.Preference())
}

func TestModel_ThemeKeyIgnoredBeforeSized(t *testing.T) {
	storage := prefs.NewMemoryStorage()
	require.NoError(t, storage.Set(theme.DefaultKey, string(theme.Dark)))
	store := theme.NewStore(storage, signal.NewValue(false))
	defer store.Close()

	m := New(Options{Config: config.DefaultConfig(), Store: store})
	m = update(t, m, keyMsg("t"))

	v, ok, err := storage.Get(theme.DefaultKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, string(theme.Dark), v, "stored preference untouched")

	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	t.Cleanup(m.renderer.Stop)
	assert.Equal(t, theme.Dark, m.store.Preference())
}

func TestModel_ToggleMotionKey(t *testing.T) {
	m, motion := newTestModel(t, true)
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	require.Equal(t, background.Idle, m.renderer.State())

	m = update(t, m, keyMsg("m"))
	assert.Equal(t, signal.ModeOff, motion.Mode())

	// The change reaches the renderer through the loop queue.
	m = update(t, m, wakeMsg{})
	assert.Equal(t, background.Running, m.renderer.State())

	m = update(t, m, keyMsg("m"))
	m = update(t, m, wakeMsg{})
	assert.Equal(t, signal.ModeOn, motion.Mode())
	assert.Equal(t, background.Idle, m.renderer.State())
	assert.Zero(t, m.loop.pendingFrames())
}

func TestModel_HelpShrinksCanvas(t *testing.T) {
	m, _ := newTestModel(t, true)
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	rows := m.view.rows

	m = update(t, m, keyMsg("?"))
	assert.True(t, m.showHelp)
	assert.Less(t, m.view.rows, rows)
}

func TestModel_DisabledBackground(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Background.Enabled = false

	m := New(Options{Config: cfg})
	m = update(t, m, tea.WindowSizeMsg{Width: 40, Height: 10})

	assert.Nil(t, m.renderer)
	assert.Contains(t, m.View(), "still")
}

func TestModel_Quit(t *testing.T) {
	m, _ := newTestModel(t, true)
	_, cmd := m.Update(keyMsg("q"))
	require.NotNil(t, cmd)
}

func TestApplySignals(t *testing.T) {
	scheme := signal.NewOverride(signal.NewValue(false), signal.ModeAuto)
	motion := signal.NewOverride(signal.NewValue(false), signal.ModeAuto)

	cfg := config.DefaultConfig()
	cfg.Signals.ColorScheme = "dark"
	cfg.Signals.ReducedMotion = "on"
	applySignals(cfg, scheme, motion)

	assert.Equal(t, signal.ModeOn, scheme.Mode())
	assert.Equal(t, signal.ModeOn, motion.Mode())
	assert.NotPanics(t, func() { applySignals(cfg, nil, nil) })
}

func TestLoop_Timers(t *testing.T) {
	l := newLoop(time.Millisecond)

	fired := 0
	l.AfterFunc(time.Second, func() { fired++ })
	stopped := l.AfterFunc(time.Second, func() { fired += 10 })
	assert.NotNil(t, l.flush())
	assert.Nil(t, l.flush(), "commands are handed out once")

	assert.True(t, stopped.Stop())
	assert.False(t, stopped.Stop())

	assert.True(t, l.handle(timerMsg{id: 1}))
	assert.True(t, l.handle(timerMsg{id: 2}))
	assert.True(t, l.handle(timerMsg{id: 1}))
	assert.Equal(t, 1, fired)
	assert.False(t, l.handle(tea.WindowSizeMsg{}))
}

func TestLoop_PostWakesOnce(t *testing.T) {
	l := newLoop(time.Millisecond)
	woke := make(chan tea.Msg, 4)
	l.attach(func(msg tea.Msg) { woke <- msg })

	ran := 0
	l.post(func() { ran++ })
	l.post(func() { ran++ })

	select {
	case msg := <-woke:
		assert.IsType(t, wakeMsg{}, msg)
	case <-time.After(time.Second):
		t.Fatal("no wake sent")
	}
	l.handle(wakeMsg{})
	assert.Equal(t, 2, ran)
	assert.Empty(t, woke, "one wake per batch")
}
