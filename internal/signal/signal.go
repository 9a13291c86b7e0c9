// Package signal models boolean OS preferences (dark colour scheme,
// reduced motion) as a queryable current value plus a change subscription.
package signal

import (
	"errors"
	"maps"
	"slices"
	"sync"
)

// ErrUnavailable is returned when a preference cannot be queried in the
// current environment.
var ErrUnavailable = errors.New("signal unavailable")

// Signal is a read-only boolean preference.
type Signal interface {
	// Current returns the present value.
	Current() (bool, error)

	// Subscribe registers fn for value changes and returns a function that
	// removes it. The returned function is never nil and is safe to call
	// more than once.
	Subscribe(fn func(bool)) (unsubscribe func(), err error)
}

// observers is a registry of change callbacks keyed by id so that
// unsubscribing never disturbs the order of the others.
type observers struct {
	mu     sync.Mutex
	nextID int
	fns    map[int]func(bool)
}

func (o *observers) add(fn func(bool)) func() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.fns == nil {
		o.fns = make(map[int]func(bool))
	}
	id := o.nextID
	o.nextID++
	o.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.fns, id)
			o.mu.Unlock()
		})
	}
}

func (o *observers) len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.fns)
}

// notify calls every observer outside the lock, in registration order.
func (o *observers) notify(v bool) {
	o.mu.Lock()
	fns := make([]func(bool), 0, len(o.fns))
	for _, id := range slices.Sorted(maps.Keys(o.fns)) {
		fns = append(fns, o.fns[id])
	}
	o.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Value is a Signal whose value is set in-process. It backs config
// overrides and tests.
type Value struct {
	mu  sync.Mutex
	val bool
	obs observers
}

// NewValue creates a Value holding v.
func NewValue(v bool) *Value {
	return &Value{val: v}
}

// Current implements Signal.
func (v *Value) Current() (bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.val, nil
}

// Subscribe implements Signal.
func (v *Value) Subscribe(fn func(bool)) (func(), error) {
	return v.obs.add(fn), nil
}

// Set changes the value and notifies subscribers if it differs.
func (v *Value) Set(val bool) {
	v.mu.Lock()
	if v.val == val {
		v.mu.Unlock()
		return
	}
	v.val = val
	v.mu.Unlock()

	v.obs.notify(val)
}

// Subscribers returns the number of live subscriptions.
func (v *Value) Subscribers() int {
	return v.obs.len()
}

// Unavailable is a Signal that can never be queried.
type Unavailable struct{}

// Current implements Signal.
func (Unavailable) Current() (bool, error) {
	return false, ErrUnavailable
}

// Subscribe implements Signal.
func (Unavailable) Subscribe(func(bool)) (func(), error) {
	return func() {}, ErrUnavailable
}
