package main

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"

	"github.com/jmylchreest/backdrop/internal/config"
	"github.com/jmylchreest/backdrop/internal/prefs"
	"github.com/jmylchreest/backdrop/internal/signal"
	"github.com/jmylchreest/backdrop/internal/theme"
)

// session holds the theme store and the OS preference signals behind it.
type session struct {
	store         *theme.Store
	storage       prefs.Storage
	colorScheme   *signal.Override
	reducedMotion *signal.Override
	portal        *signal.Portal
}

// openSession wires storage, desktop signals and the theme store from cfg.
// Missing desktop integration degrades to terminal detection.
func openSession(cfg *config.Config, opts ...theme.Option) (*session, error) {
	storage, err := prefs.Open(cfg.Theme.Storage, cfg.PrefsPath(), prefs.DefaultService)
	if err != nil {
		return nil, err
	}

	s := &session{storage: storage}

	var scheme, motion signal.Signal = signal.Unavailable{}, signal.Unavailable{}
	portal, err := signal.NewPortal(logger)
	if err != nil {
		logger.Debug("desktop portal unavailable, using terminal background", "error", err)
		// Only ask the terminal when the user has not forced a scheme.
		if cfg.ColorSchemeMode() == signal.ModeAuto && term.IsTerminal(int(os.Stdout.Fd())) {
			scheme = signal.NewValue(lipgloss.HasDarkBackground())
		}
	} else {
		s.portal = portal
		scheme = portal.ColorScheme()
		motion = portal.ReducedMotion()
	}

	s.colorScheme = signal.NewOverride(scheme, cfg.ColorSchemeMode())
	s.reducedMotion = signal.NewOverride(signal.RequireTerminal(int(os.Stdout.Fd()), motion), cfg.ReducedMotionMode())

	opts = append([]theme.Option{theme.WithLogger(logger), theme.WithKey(cfg.Theme.Key)}, opts...)
	s.store = theme.NewStore(storage, s.colorScheme, opts...)
	return s, nil
}

// Close tears down the store, the overrides and the bus connection.
func (s *session) Close() {
	s.store.Close()
	s.colorScheme.Close()
	s.reducedMotion.Close()
	if s.portal != nil {
		if err := s.portal.Close(); err != nil {
			logger.Debug("failed to close portal connection", "error", err)
		}
	}
}
