package theme

import (
	"errors"
	"fmt"
)

// ErrInvalidPreference is returned for values outside light, dark and system.
var ErrInvalidPreference = errors.New("invalid theme preference")

// Preference is the user's chosen theme setting.
type Preference string

const (
	Light  Preference = "light"
	Dark   Preference = "dark"
	System Preference = "system"
)

// Preferences lists every valid preference in toggle order.
var Preferences = []Preference{Light, Dark, System}

// ParsePreference accepts exactly "light", "dark" or "system".
func ParsePreference(s string) (Preference, error) {
	p := Preference(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPreference, s)
	}
	return p, nil
}

// Valid reports whether p is one of the three preferences.
func (p Preference) Valid() bool {
	switch p {
	case Light, Dark, System:
		return true
	}
	return false
}

// Label is the capitalised name shown on the toggle control.
func (p Preference) Label() string {
	switch p {
	case Light:
		return "Light"
	case Dark:
		return "Dark"
	case System:
		return "System"
	default:
		return string(p)
	}
}

// Next returns the preference after p in the cycle light, dark, system.
// Unknown values restart the cycle at light.
func Next(p Preference) Preference {
	switch p {
	case Light:
		return Dark
	case Dark:
		return System
	default:
		return Light
	}
}

// Resolved is the concrete theme actually applied.
type Resolved string

const (
	ResolvedLight Resolved = "light"
	ResolvedDark  Resolved = "dark"
)

// IsDark reports whether r is the dark theme.
func (r Resolved) IsDark() bool {
	return r == ResolvedDark
}

// Change describes the store state delivered to observers.
type Change struct {
	Preference Preference
	Resolved   Resolved
}
