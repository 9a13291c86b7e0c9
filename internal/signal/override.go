package signal

import (
	"fmt"
	"sync"
)

// Mode selects where an Override takes its value from.
type Mode string

const (
	ModeAuto Mode = "auto" // follow the underlying signal
	ModeOn   Mode = "on"   // force true
	ModeOff  Mode = "off"  // force false
)

// ParseMode parses a config value. Colour scheme configs spell the modes
// "dark" and "light"; those are accepted as on and off.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "auto", "system":
		return ModeAuto, nil
	case "on", "true", "dark":
		return ModeOn, nil
	case "off", "false", "light":
		return ModeOff, nil
	default:
		return "", fmt.Errorf("invalid signal mode %q", s)
	}
}

// Override wraps a Signal with a user-controlled forced value. Subscribers
// see a change whenever the effective value or its availability changes,
// whether the cause is the underlying signal or SetMode.
type Override struct {
	mu      sync.Mutex
	base    Signal
	mode    Mode
	last    bool
	lastOK  bool
	baseSub func()
	obs     observers
}

// NewOverride creates an Override in the given mode.
func NewOverride(base Signal, mode Mode) *Override {
	if base == nil {
		base = Unavailable{}
	}
	o := &Override{base: base, mode: mode}
	o.last, o.lastOK = o.effective()
	return o
}

// Mode returns the current mode.
func (o *Override) Mode() Mode {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.mode
}

// Current implements Signal.
func (o *Override) Current() (bool, error) {
	o.mu.Lock()
	mode := o.mode
	o.mu.Unlock()

	switch mode {
	case ModeOn:
		return true, nil
	case ModeOff:
		return false, nil
	default:
		return o.base.Current()
	}
}

// Subscribe implements Signal. The underlying signal is subscribed lazily
// on first use; if that fails the override still reports SetMode changes.
func (o *Override) Subscribe(fn func(bool)) (func(), error) {
	o.mu.Lock()
	if o.baseSub == nil {
		unsub, err := o.base.Subscribe(o.baseChanged)
		if err != nil {
			unsub = func() {}
		}
		o.baseSub = unsub
	}
	o.mu.Unlock()

	return o.obs.add(fn), nil
}

// SetMode changes the mode and notifies subscribers if the effective value
// changed.
func (o *Override) SetMode(mode Mode) {
	o.mu.Lock()
	if o.mode == mode {
		o.mu.Unlock()
		return
	}
	o.mode = mode
	o.mu.Unlock()

	o.publish()
}

// Close releases the underlying subscription.
func (o *Override) Close() {
	o.mu.Lock()
	unsub := o.baseSub
	o.baseSub = nil
	o.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}

func (o *Override) baseChanged(bool) {
	if o.Mode() != ModeAuto {
		return
	}
	o.publish()
}

// publish notifies on any change of the effective value, including a
// change into or out of the unavailable state. Subscribers that care about
// availability re-query Current.
func (o *Override) publish() {
	v, ok := o.effective()

	o.mu.Lock()
	changed := ok != o.lastOK || (ok && v != o.last)
	o.last, o.lastOK = v, ok
	o.mu.Unlock()

	if changed {
		o.obs.notify(v)
	}
}

func (o *Override) effective() (bool, bool) {
	v, err := o.Current()
	return v, err == nil
}
