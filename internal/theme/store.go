package theme

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/jmylchreest/backdrop/internal/prefs"
	"github.com/jmylchreest/backdrop/internal/signal"
)

// DefaultKey is the storage key holding the preference.
const DefaultKey = "theme"

// Annotator applies the resolved theme to the UI root.
type Annotator interface {
	ApplyTheme(r Resolved)
}

// AnnotatorFunc adapts a function to Annotator.
type AnnotatorFunc func(r Resolved)

// ApplyTheme implements Annotator.
func (f AnnotatorFunc) ApplyTheme(r Resolved) { f(r) }

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithAnnotator sets the annotator run on every resolved theme change.
func WithAnnotator(a Annotator) Option {
	return func(s *Store) { s.annotator = a }
}

// WithKey overrides the storage key.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// Store owns the theme preference. It persists the preference, resolves
// it against the OS colour scheme and tells observers when either changes.
//
// Observers and the annotator run synchronously on the goroutine that
// caused the change. They must not call SetPreference or Toggle.
type Store struct {
	mu          sync.Mutex
	logger      *slog.Logger
	storage     prefs.Storage
	key         string
	colorScheme signal.Signal
	annotator   Annotator

	pref        Preference
	initialized bool
	closed      bool

	// last is what observers last saw; published is false until the first
	// recompute after Initialize.
	last      Change
	published bool

	systemSub func()

	nextID    int
	observers map[int]func(Change)

	// pubMu serialises recompute so the annotator and observers see
	// changes in order.
	pubMu sync.Mutex
}

// NewStore creates a Store. A nil storage keeps the preference in memory;
// a nil colorScheme behaves as an unavailable signal (light).
func NewStore(storage prefs.Storage, colorScheme signal.Signal, opts ...Option) *Store {
	if storage == nil {
		storage = prefs.NewMemoryStorage()
	}
	if colorScheme == nil {
		colorScheme = signal.Unavailable{}
	}

	s := &Store{
		logger:      slog.Default(),
		storage:     storage,
		key:         DefaultKey,
		colorScheme: colorScheme,
		pref:        System,
		observers:   make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize reads the stored preference. Absent, invalid and unreadable
// values all yield System; storage errors are logged, never returned.
// Only the first call has any effect.
func (s *Store) Initialize() {
	s.mu.Lock()
	if s.initialized || s.closed {
		s.mu.Unlock()
		return
	}

	pref := System
	stored, ok, err := s.storage.Get(s.key)
	switch {
	case err != nil:
		s.logger.Warn("failed to read theme preference", "key", s.key, "error", err)
	case ok:
		if p, perr := ParsePreference(stored); perr == nil {
			pref = p
		} else {
			s.logger.Debug("ignoring invalid stored theme preference", "value", stored)
		}
	}

	s.pref = pref
	s.initialized = true
	s.mu.Unlock()

	s.logger.Debug("theme store initialized", "preference", pref)

	s.syncSystemSubscription()
	s.Recompute()
}

// Initialized reports whether Initialize has completed.
func (s *Store) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// Preference returns the current preference.
func (s *Store) Preference() Preference {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pref
}

// Resolved returns the theme to apply now. System queries the colour
// scheme signal synchronously; a failed query resolves to light.
func (s *Store) Resolved() Resolved {
	return s.resolve(s.Preference())
}

// Current returns the last state delivered to observers without querying
// the colour scheme signal. Before initialization it reports system/light.
func (s *Store) Current() Change {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.published {
		return Change{Preference: System, Resolved: ResolvedLight}
	}
	return s.last
}

// SetPreference changes the preference, persists it and recomputes the
// resolved theme. A persistence failure is logged and the new preference
// still applies for the rest of the session. Only an invalid preference
// returns an error.
func (s *Store) SetPreference(p Preference) error {
	if !p.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidPreference, string(p))
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.logger.Debug("ignoring theme change on closed store", "preference", p)
		return nil
	}
	s.pref = p
	s.mu.Unlock()

	if err := s.storage.Set(s.key, string(p)); err != nil {
		s.logger.Warn("failed to save theme preference", "key", s.key, "preference", p, "error", err)
	}

	s.syncSystemSubscription()
	s.Recompute()
	return nil
}

// Toggle advances the preference one step through light, dark, system and
// returns the new preference.
func (s *Store) Toggle() Preference {
	next := Next(s.Preference())
	_ = s.SetPreference(next)
	return next
}

// Recompute re-evaluates the resolved theme. The annotator runs when the
// resolved theme changed; observers run when the preference or the
// resolved theme changed. It does nothing before Initialize.
func (s *Store) Recompute() {
	s.pubMu.Lock()
	defer s.pubMu.Unlock()

	s.mu.Lock()
	if !s.initialized || s.closed {
		s.mu.Unlock()
		return
	}
	pref := s.pref
	s.mu.Unlock()

	resolved := s.resolve(pref)
	next := Change{Preference: pref, Resolved: resolved}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	resolvedChanged := !s.published || s.last.Resolved != resolved
	changed := resolvedChanged || s.last.Preference != pref
	s.last = next
	s.published = true
	annotator := s.annotator
	observers := s.snapshotObservers()
	s.mu.Unlock()

	if resolvedChanged {
		s.logger.Debug("resolved theme changed", "preference", pref, "resolved", resolved)
		if annotator != nil {
			annotator.ApplyTheme(resolved)
		}
	}
	if changed {
		for _, fn := range observers {
			fn(next)
		}
	}
}

// Subscribe registers fn for changes and returns a function removing it.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.observers[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.observers, id)
			s.mu.Unlock()
		})
	}
}

// Close tears down the system colour scheme subscription and drops all
// observers. Later SetPreference calls are ignored.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.observers = make(map[int]func(Change))
	s.mu.Unlock()

	s.syncSystemSubscription()
}

// syncSystemSubscription holds a colour scheme subscription exactly while
// the store is live and the preference is System.
func (s *Store) syncSystemSubscription() {
	s.mu.Lock()
	want := s.initialized && !s.closed && s.pref == System

	if want && s.systemSub == nil {
		unsub, err := s.colorScheme.Subscribe(func(bool) { s.Recompute() })
		if err != nil {
			s.mu.Unlock()
			s.logger.Debug("system colour scheme changes unavailable", "error", err)
			return
		}
		s.systemSub = unsub
		s.mu.Unlock()
		s.logger.Debug("following system colour scheme")
		return
	}

	var unsub func()
	if !want && s.systemSub != nil {
		unsub = s.systemSub
		s.systemSub = nil
	}
	s.mu.Unlock()

	if unsub != nil {
		unsub()
		s.logger.Debug("stopped following system colour scheme")
	}
}

func (s *Store) resolve(p Preference) Resolved {
	switch p {
	case Light:
		return ResolvedLight
	case Dark:
		return ResolvedDark
	}

	dark, err := s.colorScheme.Current()
	if err != nil {
		return ResolvedLight
	}
	if dark {
		return ResolvedDark
	}
	return ResolvedLight
}

// snapshotObservers must be called with mu held.
func (s *Store) snapshotObservers() []func(Change) {
	fns := make([]func(Change), 0, len(s.observers))
	for _, id := range slices.Sorted(maps.Keys(s.observers)) {
		fns = append(fns, s.observers[id])
	}
	return fns
}
