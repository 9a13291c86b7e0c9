package output

import (
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"
)

// TextFormatter formats status as human-readable lines, or through a
// custom template.
type TextFormatter struct {
	template *template.Template
}

// NewTextFormatter creates a text formatter. An unparsable template is an
// error.
func NewTextFormatter(opts FormatterOptions) (*TextFormatter, error) {
	f := &TextFormatter{}
	if opts.Template != "" {
		tmpl, err := template.New("text").Funcs(templateFuncs()).Parse(opts.Template)
		if err != nil {
			return nil, fmt.Errorf("invalid template: %w", err)
		}
		f.template = tmpl
	}
	return f, nil
}

// Format writes s to w.
func (f *TextFormatter) Format(w io.Writer, s Status) error {
	if f.template != nil {
		var buf strings.Builder
		if err := f.template.Execute(&buf, s); err != nil {
			return err
		}
		_, err := fmt.Fprintln(w, strings.TrimRight(buf.String(), "\n"))
		return err
	}

	storage := s.Storage
	if s.Path != "" {
		storage += " " + s.Path
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Theme: %s (%s)\n", s.Label(), s.Resolved)
	fmt.Fprintf(&b, "Storage: %s\n", storage)
	if s.StoredAt != nil {
		fmt.Fprintf(&b, "Stored: %s\n", relativeTime(*s.StoredAt))
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// templateFuncs returns template helper functions.
func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"relative": relativeTime,
		"upper":    strings.ToUpper,
		"lower":    strings.ToLower,
	}
}

func relativeTime(t time.Time) string {
	return humanize.Time(t)
}
