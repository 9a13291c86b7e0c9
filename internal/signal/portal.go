package signal

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/godbus/dbus/v5"
)

// XDG desktop portal settings interface.
const (
	PortalDest      = "org.freedesktop.portal.Desktop"
	PortalPath      = "/org/freedesktop/portal/desktop"
	SettingsIface   = "org.freedesktop.portal.Settings"
	settingChanged  = SettingsIface + ".SettingChanged"
	AppearanceNS    = "org.freedesktop.appearance"
	ColorSchemeKey  = "color-scheme"
	InterfaceNS     = "org.gnome.desktop.interface"
	AnimationsKey   = "enable-animations"
	colorSchemeDark = uint32(1)
)

// Portal reads desktop appearance settings from the XDG desktop portal
// over the session bus.
type Portal struct {
	conn   *dbus.Conn
	logger *slog.Logger
}

// NewPortal opens a private session bus connection.
func NewPortal(logger *slog.Logger) (*Portal, error) {
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to session bus: %v", ErrUnavailable, err)
	}

	return &Portal{conn: conn, logger: logger}, nil
}

// ColorScheme reports true when the desktop prefers a dark colour scheme.
func (p *Portal) ColorScheme() Signal {
	return &portalSetting{portal: p, namespace: AppearanceNS, key: ColorSchemeKey, decode: DecodeColorScheme}
}

// ReducedMotion reports true when desktop animations are disabled.
func (p *Portal) ReducedMotion() Signal {
	return &portalSetting{portal: p, namespace: InterfaceNS, key: AnimationsKey, decode: DecodeReducedMotion}
}

// Close closes the bus connection. Subscriptions stop delivering.
func (p *Portal) Close() error {
	if p.conn != nil {
		return p.conn.Close()
	}
	return nil
}

// DecodeColorScheme maps the portal color-scheme value (0 no preference,
// 1 prefer dark, 2 prefer light) to "prefers dark".
func DecodeColorScheme(v dbus.Variant) (bool, error) {
	switch n := v.Value().(type) {
	case uint32:
		return n == colorSchemeDark, nil
	case int32:
		return uint32(n) == colorSchemeDark, nil
	default:
		return false, fmt.Errorf("unexpected color-scheme type %s", v.Signature())
	}
}

// DecodeReducedMotion maps enable-animations to "prefers reduced motion".
func DecodeReducedMotion(v dbus.Variant) (bool, error) {
	enabled, ok := v.Value().(bool)
	if !ok {
		return false, fmt.Errorf("unexpected enable-animations type %s", v.Signature())
	}
	return !enabled, nil
}

type portalSetting struct {
	portal    *Portal
	namespace string
	key       string
	decode    func(dbus.Variant) (bool, error)
}

// Current implements Signal.
func (s *portalSetting) Current() (bool, error) {
	obj := s.portal.conn.Object(PortalDest, PortalPath)

	var v dbus.Variant
	err := obj.Call(SettingsIface+".ReadOne", 0, s.namespace, s.key).Store(&v)
	if err != nil {
		// ReadOne is portal v2; the older Read wraps the value in a second variant.
		var outer dbus.Variant
		if readErr := obj.Call(SettingsIface+".Read", 0, s.namespace, s.key).Store(&outer); readErr != nil {
			return false, fmt.Errorf("%w: read %s %s: %v", ErrUnavailable, s.namespace, s.key, readErr)
		}
		v = outer
		if inner, ok := outer.Value().(dbus.Variant); ok {
			v = inner
		}
	}

	val, err := s.decode(v)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return val, nil
}

// Subscribe implements Signal.
func (s *portalSetting) Subscribe(fn func(bool)) (func(), error) {
	conn := s.portal.conn
	logger := s.portal.logger

	opts := []dbus.MatchOption{
		dbus.WithMatchObjectPath(PortalPath),
		dbus.WithMatchInterface(SettingsIface),
		dbus.WithMatchMember("SettingChanged"),
		dbus.WithMatchArg(0, s.namespace),
		dbus.WithMatchArg(1, s.key),
	}
	if err := conn.AddMatchSignal(opts...); err != nil {
		return func() {}, fmt.Errorf("%w: failed to add match rule: %v", ErrUnavailable, err)
	}

	ch := make(chan *dbus.Signal, 8)
	conn.Signal(ch)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case sig, ok := <-ch:
				if !ok {
					return
				}
				if val, ok := s.match(sig); ok {
					fn(val)
				}
			case <-done:
				return
			}
		}
	}()

	logger.Debug("subscribed to portal setting", "namespace", s.namespace, "key", s.key)

	var once sync.Once
	return func() {
		once.Do(func() {
			close(done)
			conn.RemoveSignal(ch)
			if err := conn.RemoveMatchSignal(opts...); err != nil {
				logger.Debug("failed to remove match rule", "error", err)
			}
		})
	}, nil
}

// match filters SettingChanged(namespace, key, value) for this setting.
func (s *portalSetting) match(sig *dbus.Signal) (bool, bool) {
	if sig.Name != settingChanged || len(sig.Body) < 3 {
		return false, false
	}
	ns, _ := sig.Body[0].(string)
	key, _ := sig.Body[1].(string)
	if ns != s.namespace || key != s.key {
		return false, false
	}
	v, ok := sig.Body[2].(dbus.Variant)
	if !ok {
		return false, false
	}
	val, err := s.decode(v)
	if err != nil {
		s.portal.logger.Warn("ignoring malformed portal setting", "namespace", ns, "key", key, "error", err)
		return false, false
	}
	return val, true
}
