// Package particle holds the motion and proximity math for the animated
// background. It has no knowledge of terminals, timers or themes: callers
// own the random source and decide when to step the field.
package particle
