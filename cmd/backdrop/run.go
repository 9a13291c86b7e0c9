package main

import (
	"github.com/spf13/cobra"

	"github.com/jmylchreest/backdrop/internal/config"
	"github.com/jmylchreest/backdrop/internal/theme"
	"github.com/jmylchreest/backdrop/internal/tui"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Launch the interactive TUI",
	Long: `Launch the themed terminal UI with the animated particle background.

The background stays still while the desktop requests reduced motion, and
the theme follows the stored preference. Changes to the [signals] section
of the config file apply without restarting.

Key bindings:
  t           Cycle theme (light, dark, system)
  m           Toggle reduced motion
  ?           Show help
  q           Quit`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	c := getConfig()

	s, err := openSession(c, theme.WithAnnotator(tui.Annotator))
	if err != nil {
		return err
	}
	defer s.Close()

	configPath := globalOpts.configPath
	if configPath == "" {
		configPath = config.ConfigPath()
	}

	return tui.Run(cmd.Context(), tui.RunOptions{
		Config:        c,
		Store:         s.store,
		ColorScheme:   s.colorScheme,
		ReducedMotion: s.reducedMotion,
		ConfigPath:    configPath,
		Logger:        logger,
	})
}
