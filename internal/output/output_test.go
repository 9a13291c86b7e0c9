package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/jmylchreest/backdrop/internal/theme"
)

func testStatus() Status {
	stored := time.Now().Add(-5 * time.Minute)
	return Status{
		Preference: theme.System,
		Resolved:   theme.ResolvedDark,
		Storage:    "file",
		Path:       "/tmp/prefs.toml",
		StoredAt:   &stored,
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    FormatType
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTextFormatter_Format(t *testing.T) {
	var buf bytes.Buffer

	f, err := NewTextFormatter(FormatterOptions{})
	require.NoError(t, err)
	require.NoError(t, f.Format(&buf, testStatus()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "Theme: System (dark)", lines[0])
	assert.Equal(t, "Storage: file /tmp/prefs.toml", lines[1])
	assert.Equal(t, "Stored: 5 minutes ago", lines[2])
}

func TestTextFormatter_NeverStored(t *testing.T) {
	var buf bytes.Buffer

	st := Status{Preference: theme.Light, Resolved: theme.ResolvedLight, Storage: "memory"}
	f, err := NewTextFormatter(FormatterOptions{})
	require.NoError(t, err)
	require.NoError(t, f.Format(&buf, st))

	assert.Equal(t, "Theme: Light (light)\nStorage: memory\n", buf.String())
}

func TestTextFormatter_Template(t *testing.T) {
	var buf bytes.Buffer

	f, err := NewTextFormatter(FormatterOptions{Template: "{{.Resolved | upper}} {{.Label}}"})
	require.NoError(t, err)
	require.NoError(t, f.Format(&buf, testStatus()))

	assert.Equal(t, "DARK System\n", buf.String())
}

func TestTextFormatter_BadTemplate(t *testing.T) {
	_, err := NewTextFormatter(FormatterOptions{Template: "{{.Resolved"})
	assert.Error(t, err)
}

func TestJSONFormatter_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewJSONFormatter().Format(&buf, testStatus()))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "system", got["preference"])
	assert.Equal(t, "dark", got["resolved"])
	assert.Equal(t, "file", got["storage"])
	assert.Contains(t, got, "stored_at")
}

func TestYAMLFormatter_Format(t *testing.T) {
	var buf bytes.Buffer

	st := testStatus()
	st.StoredAt = nil
	st.Path = ""
	require.NoError(t, NewYAMLFormatter().Format(&buf, st))

	var got map[string]string
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, map[string]string{
		"preference": "system",
		"resolved":   "dark",
		"storage":    "file",
	}, got)
}

func TestNewFormatter(t *testing.T) {
	f, err := NewFormatter(FormatJSON, FormatterOptions{})
	require.NoError(t, err)
	assert.IsType(t, &JSONFormatter{}, f)

	f, err = NewFormatter(FormatYAML, FormatterOptions{})
	require.NoError(t, err)
	assert.IsType(t, &YAMLFormatter{}, f)

	f, err = NewFormatter(FormatText, FormatterOptions{})
	require.NoError(t, err)
	assert.IsType(t, &TextFormatter{}, f)
}
