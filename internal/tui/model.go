// Package tui provides the BubbleTea-based terminal user interface.
package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/sync/errgroup"

	"github.com/jmylchreest/backdrop/internal/background"
	"github.com/jmylchreest/backdrop/internal/config"
	"github.com/jmylchreest/backdrop/internal/signal"
	"github.com/jmylchreest/backdrop/internal/theme"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1).
			Foreground(lipgloss.AdaptiveColor{Light: "#1e3a8a", Dark: "#dbeafe"}).
			Background(lipgloss.AdaptiveColor{Light: "#e2e8f0", Dark: "#1e293b"})

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.AdaptiveColor{Light: "#475569", Dark: "#94a3b8"})
)

// Annotator marks the terminal root with the resolved theme so adaptive
// lipgloss colours follow it.
var Annotator = theme.AnnotatorFunc(func(r theme.Resolved) {
	lipgloss.SetHasDarkBackground(r.IsDark())
})

// Model is the main TUI model.
type Model struct {
	cfg    *config.Config
	store  *theme.Store
	motion *signal.Override
	logger *slog.Logger

	loop     *loop
	view     *cellViewport
	canvas   *background.Canvas
	renderer *background.Renderer

	help     help.Model
	keys     KeyMap
	showHelp bool

	width  int
	height int
	ready  bool

	statusMsg string
}

// Options configures the TUI model.
type Options struct {
	Config *config.Config
	Store  *theme.Store

	// ReducedMotion is toggled by the motion key. Nil leaves the
	// background idle.
	ReducedMotion *signal.Override

	Logger *slog.Logger
}

// New creates a new TUI model.
func New(opts Options) Model {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	store := opts.Store
	if store == nil {
		store = theme.NewStore(nil, nil, theme.WithLogger(logger))
	}

	l := newLoop(cfg.FrameInterval())
	view := newCellViewport(cfg.Background.CellWidth, cfg.Background.CellHeight)
	canvas := background.NewCanvas(cfg.Background.CellWidth, cfg.Background.CellHeight)

	m := Model{
		cfg:    cfg,
		store:  store,
		motion: opts.ReducedMotion,
		logger: logger,
		loop:   l,
		view:   view,
		canvas: canvas,
		help:   help.New(),
		keys:   DefaultKeyMap(),
	}

	if cfg.Background.Enabled {
		var motion signal.Signal = signal.Unavailable{}
		if opts.ReducedMotion != nil {
			motion = loopSignal{base: opts.ReducedMotion, loop: l}
		}
		m.renderer = background.New(
			func() (background.Surface, error) { return canvas, nil },
			view, l, l, motion, store,
			background.WithLogger(logger),
			background.WithField(cfg.ParticleConfig(), nil),
			background.WithResizeDebounce(cfg.Background.ResizeDebounce.Duration()),
		)
	}

	return m
}

// Init initializes the TUI.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		m, cmd = m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.layout()

		if !m.ready {
			m.ready = true
			m.store.Initialize()
			if m.renderer != nil {
				m.renderer.Start()
			}
		}

	default:
		m.loop.handle(msg)
	}

	return m, tea.Batch(cmd, m.loop.flush())
}

// layout sizes the canvas to everything below the header and above the
// help footer.
func (m *Model) layout() {
	footer := lipgloss.Height(m.viewFooter())
	m.view.setCells(m.width, m.height-1-footer)
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp
		m.layout()
		return m, nil

	case key.Matches(msg, m.keys.ToggleTheme) && m.ready:
		p := m.store.Toggle()
		m.statusMsg = fmt.Sprintf("Theme set to %s", p.Label())
		return m, nil

	case key.Matches(msg, m.keys.ToggleMotion):
		if m.motion == nil {
			m.statusMsg = "Reduced motion cannot be changed"
			return m, nil
		}
		reduced, err := m.motion.Current()
		if err != nil || reduced {
			m.motion.SetMode(signal.ModeOff)
			m.statusMsg = "Animation on"
		} else {
			m.motion.SetMode(signal.ModeOn)
			m.statusMsg = "Reduced motion on"
		}
		return m, nil
	}

	return m, nil
}

// View renders the TUI.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}

	dark := m.store.Current().Resolved.IsDark()

	cols, rows := m.view.cols, m.view.rows
	body := m.canvas.Render(dark)
	if c, r := m.canvas.Grid(); c != cols || r != rows {
		// A resize is still settling; draw what fits.
		body = lipgloss.NewStyle().
			MaxWidth(cols).
			MaxHeight(rows).
			Render(body)
	}
	if lipgloss.Height(body) < rows || body == "" {
		bg := background.LightBackground
		if dark {
			bg = background.DarkBackground
		}
		body = lipgloss.Place(cols, rows, lipgloss.Left, lipgloss.Top, body,
			lipgloss.WithWhitespaceBackground(lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", bg.R, bg.G, bg.B))))
	}

	return m.viewHeader() + "\n" + body + "\n" + m.viewFooter()
}

// viewHeader renders the title and the toggle label.
func (m Model) viewHeader() string {
	cur := m.store.Current()
	label := fmt.Sprintf("Theme: %s (%s)", cur.Preference.Label(), cur.Resolved)

	state := "still"
	if m.renderer != nil && m.renderer.State() == background.Running {
		state = "animating"
	}

	right := labelStyle.Render(state) + "  " + label
	left := "backdrop"
	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return headerStyle.Width(m.width).MaxWidth(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) viewFooter() string {
	footer := m.help.View(m.keys)
	if m.statusMsg != "" && !m.showHelp {
		footer = labelStyle.Render(m.statusMsg) + "  " + footer
	}
	return footer
}

// RunOptions configures the TUI.
type RunOptions struct {
	Config *config.Config
	Store  *theme.Store

	// ColorScheme and ReducedMotion receive [signals] changes from the
	// config watcher.
	ColorScheme   *signal.Override
	ReducedMotion *signal.Override

	// ConfigPath is watched for changes (empty = no watching).
	ConfigPath string

	Logger *slog.Logger
}

// Run starts the TUI with the given options and blocks until it exits.
func Run(ctx context.Context, opts RunOptions) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m := New(Options{
		Config:        opts.Config,
		Store:         opts.Store,
		ReducedMotion: opts.ReducedMotion,
		Logger:        logger,
	})
	defer func() {
		if m.renderer != nil {
			m.renderer.Stop()
		}
	}()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	m.loop.attach(p.Send)

	// Wake the program when the theme changes off the update goroutine,
	// e.g. when the desktop colour scheme flips.
	unsub := m.store.Subscribe(func(theme.Change) { m.loop.post(nil) })
	defer unsub()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	if opts.ConfigPath != "" {
		watcher, err := config.NewWatcher(opts.ConfigPath, func(cfg *config.Config) {
			m.loop.post(func() { applySignals(cfg, opts.ColorScheme, opts.ReducedMotion) })
		}, logger)
		if err != nil {
			logger.Warn("config hot reload disabled", "error", err)
		} else {
			g.Go(func() error {
				if err := watcher.Run(gctx); err != nil {
					logger.Warn("config hot reload disabled", "path", opts.ConfigPath, "error", err)
				}
				return nil
			})
		}
	}

	g.Go(func() error {
		defer cancel()
		_, err := p.Run()
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	})

	return g.Wait()
}

// applySignals pushes reloaded [signals] modes into the override signals.
func applySignals(cfg *config.Config, colorScheme, reducedMotion *signal.Override) {
	if colorScheme != nil {
		colorScheme.SetMode(cfg.ColorSchemeMode())
	}
	if reducedMotion != nil {
		reducedMotion.SetMode(cfg.ReducedMotionMode())
	}
}
