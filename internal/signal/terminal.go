package signal

import (
	"golang.org/x/term"
)

// RequireTerminal returns s when fd is an interactive terminal and
// Unavailable otherwise. Output piped to a file or run under CI has no
// meaningful motion preference, so consumers fall back to their safe
// default.
func RequireTerminal(fd int, s Signal) Signal {
	if !term.IsTerminal(fd) {
		return Unavailable{}
	}
	return s
}
