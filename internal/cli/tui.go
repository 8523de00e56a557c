package cli

import (
	"github.com/spf13/cobra"

	"github.com/tessro/encore/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:     "ui",
	Aliases: []string{"tui"},
	Short:   "Launch interactive dashboard",
	Long: `Launch the interactive terminal dashboard.

The dashboard provides a live view with:
  • Library pages - songs, artists, albums and the library manager
  • Now Playing - current song with a smoothly advancing progress bar
  • History - songs played this session

Keyboard shortcuts:
  q, Ctrl+C    Quit
  ?            Help
  /            Search
  1-6          Switch page
  Esc          Back
  Enter        Play or open
  Space        Play/Pause
  n / p        Next / previous song
  ←/→          Seek 5s
  +/-          Volume up/down
  s / r        Shuffle / repeat`,
	RunE: runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, args []string) error {
	return tui.Run(cmd.Context(), tui.Options{
		Authority: newClient(),
		Config:    cfg,
		Logger:    logger,
		Version:   Version,
	})
}
