// Package output provides output formatters for theme status.
package output

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jmylchreest/backdrop/internal/theme"
)

// Status is the theme state reported by the CLI.
type Status struct {
	Preference theme.Preference `json:"preference" yaml:"preference"`
	Resolved   theme.Resolved   `json:"resolved" yaml:"resolved"`
	Storage    string           `json:"storage" yaml:"storage"`
	Path       string           `json:"path,omitempty" yaml:"path,omitempty"`
	StoredAt   *time.Time       `json:"stored_at,omitempty" yaml:"stored_at,omitempty"`
}

// Label is the toggle label, e.g. "Dark".
func (s Status) Label() string {
	return s.Preference.Label()
}

// Formatter formats a theme status for output.
type Formatter interface {
	Format(w io.Writer, s Status) error
}

// FormatType represents an output format type.
type FormatType string

const (
	FormatText FormatType = "text"
	FormatJSON FormatType = "json"
	FormatYAML FormatType = "yaml"
)

// ParseFormat accepts text, json and yaml in any case.
func ParseFormat(s string) (FormatType, error) {
	switch f := FormatType(strings.ToLower(s)); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
	}
}

// FormatterOptions configures formatter behavior.
type FormatterOptions struct {
	Template string // Custom Go template for text format
}

// NewFormatter creates a formatter for the specified format type.
func NewFormatter(format FormatType, opts FormatterOptions) (Formatter, error) {
	switch format {
	case FormatJSON:
		return NewJSONFormatter(), nil
	case FormatYAML:
		return NewYAMLFormatter(), nil
	default:
		return NewTextFormatter(opts)
	}
}
