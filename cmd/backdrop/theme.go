package main

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/backdrop/internal/output"
	"github.com/jmylchreest/backdrop/internal/prefs"
	"github.com/jmylchreest/backdrop/internal/theme"
)

var themeOpts struct {
	output   string
	template string
}

var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "Show or change the theme preference",
	Long: `Show or change the stored theme preference.

The preference is one of light, dark or system. System follows the
desktop colour scheme and falls back to light when it cannot be read.`,
	RunE: runThemeShow,
}

var themeShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the preference and the theme it resolves to",
	Example: `  backdrop theme show
  backdrop theme show -o json`,
	Args: cobra.NoArgs,
	RunE: runThemeShow,
}

var themeSetCmd = &cobra.Command{
	Use:       "set <light|dark|system>",
	Short:     "Store a theme preference",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(theme.Light), string(theme.Dark), string(theme.System)},
	RunE:      runThemeSet,
}

var themeToggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Advance the preference: light, dark, system",
	Args:  cobra.NoArgs,
	RunE:  runThemeToggle,
}

func init() {
	rootCmd.AddCommand(themeCmd)
	themeCmd.AddCommand(themeShowCmd, themeSetCmd, themeToggleCmd)

	themeCmd.PersistentFlags().StringVarP(&themeOpts.output, "output", "o", "text",
		"Output format (text, json, yaml)")
	themeCmd.PersistentFlags().StringVar(&themeOpts.template, "template", "",
		"Custom Go template for text output (e.g. '{{.Resolved}}')")
}

func runThemeShow(cmd *cobra.Command, args []string) error {
	return withStore(cmd, nil)
}

func runThemeSet(cmd *cobra.Command, args []string) error {
	p, err := theme.ParsePreference(strings.ToLower(args[0]))
	if err != nil {
		return err
	}
	return withStore(cmd, func(s *session) error {
		return s.store.SetPreference(p)
	})
}

func runThemeToggle(cmd *cobra.Command, args []string) error {
	return withStore(cmd, func(s *session) error {
		s.store.Toggle()
		return nil
	})
}

// withStore opens and initializes the theme store, runs fn and prints the
// resulting status.
func withStore(cmd *cobra.Command, fn func(*session) error) error {
	formatter, err := createFormatter()
	if err != nil {
		return err
	}

	s, err := openSession(getConfig())
	if err != nil {
		return err
	}
	defer s.Close()

	s.store.Initialize()
	if fn != nil {
		if err := fn(s); err != nil {
			return err
		}
	}

	return formatter.Format(cmd.OutOrStdout(), statusOf(s))
}

func statusOf(s *session) output.Status {
	st := output.Status{
		Preference: s.store.Preference(),
		Resolved:   s.store.Resolved(),
		Storage:    getConfig().Theme.Storage,
	}

	if fs, ok := s.storage.(*prefs.FileStorage); ok {
		st.Path = fs.Path()
		if mt, err := fs.ModTime(); err != nil {
			logger.Debug("failed to stat preferences file", "path", fs.Path(), "error", err)
		} else if !mt.IsZero() {
			st.StoredAt = &mt
		}
	}
	return st
}

// createFormatter creates the output formatter based on options.
func createFormatter() (output.Formatter, error) {
	format, err := output.ParseFormat(themeOpts.output)
	if err != nil {
		return nil, err
	}
	return output.NewFormatter(format, output.FormatterOptions{Template: themeOpts.template})
}
