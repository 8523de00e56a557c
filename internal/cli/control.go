package cli

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tessro/encore/internal/core"
	"github.com/tessro/encore/internal/tail"
	"github.com/tessro/encore/internal/transport"
)

var pauseCmd = &cobra.Command{
	Use:   "pause",
	Short: "Pause playback",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setPaused(cmd, true)
	},
}

var resumeCmd = &cobra.Command{
	Use:   "resume",
	Short: "Resume playback",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return setPaused(cmd, false)
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Toggle play/pause",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := newClient().CurrentSong(cmd.Context())
		if err != nil {
			return err
		}
		return setPaused(cmd, !snap.IsPaused())
	},
}

var nextCmd = &cobra.Command{
	Use:   "next",
	Short: "Skip to next song",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := newClient().NextSong(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to skip: %w", err)
		}
		return reportSong(cmd, "⏭", snap)
	},
}

var prevCmd = &cobra.Command{
	Use:     "prev",
	Aliases: []string{"previous"},
	Short:   "Go to previous song",
	Long:    `Goes back one song, or restarts the current one if it has played for a while.`,
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		snap, err := goBack(cmd.Context(), newClient(), time.Now(), cfg.Player.RestartThresholdDuration())
		if err != nil {
			return err
		}
		return reportSong(cmd, "⏮", snap)
	},
}

var seekCmd = &cobra.Command{
	Use:   "seek <position>",
	Short: "Seek within the current song",
	Long: `Seek to a position in the current song.

Positions may be m:ss, h:mm:ss, a Go duration, or plain seconds.

Examples:
  encore seek 1:30
  encore seek 90s
  encore seek 90`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pos, err := parsePosition(args[0])
		if err != nil {
			return err
		}
		if err := newClient().Seek(cmd.Context(), pos.Milliseconds()); err != nil {
			return fmt.Errorf("failed to seek: %w", err)
		}
		if JSONOutput() {
			return printJSON(map[string]any{"position_ms": pos.Milliseconds()})
		}
		fmt.Printf("⏩ Seeked to %s\n", tail.FormatDuration(pos))
		return nil
	},
}

var volumeCmd = &cobra.Command{
	Use:   "volume [level]",
	Short: "Get or set volume",
	Long: `Get or set the player volume as a percentage.

Examples:
  encore volume       # Show current volume
  encore volume 50    # Set to 50%
  encore volume +10   # Up 10%
  encore volume -10   # Down 10%`,
	Args: cobra.MaximumNArgs(1),
	RunE: runVolume,
}

var shuffleCmd = &cobra.Command{
	Use:   "shuffle",
	Short: "Toggle shuffle",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		on, err := newClient().ToggleShuffle(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to toggle shuffle: %w", err)
		}
		if JSONOutput() {
			return printJSON(map[string]bool{"shuffle": on})
		}
		state := "off"
		if on {
			state = "on"
		}
		fmt.Printf("🔀 Shuffle: %s\n", state)
		return nil
	},
}

var repeatCmd = &cobra.Command{
	Use:   "repeat",
	Short: "Cycle repeat mode (None, All, One)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := newClient().ToggleRepeat(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to toggle repeat: %w", err)
		}
		if JSONOutput() {
			return printJSON(map[string]string{"repeat": mode.String()})
		}
		fmt.Printf("🔁 Repeat: %s\n", mode)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pauseCmd, resumeCmd, toggleCmd, nextCmd, prevCmd, seekCmd, volumeCmd, shuffleCmd, repeatCmd)
}

func setPaused(cmd *cobra.Command, paused bool) error {
	if err := newClient().SetPaused(cmd.Context(), paused); err != nil {
		return fmt.Errorf("failed to set paused: %w", err)
	}
	if JSONOutput() {
		return printJSON(map[string]bool{"paused": paused})
	}
	if paused {
		fmt.Println("⏸ Paused")
	} else {
		fmt.Println("▶ Resumed")
	}
	return nil
}

// goBack restarts the current song once it has played past threshold and
// otherwise asks the player for the previous one.
func goBack(ctx context.Context, auth core.Authority, now time.Time, threshold time.Duration) (core.Snapshot, error) {
	snap, err := auth.CurrentSong(ctx)
	if err != nil {
		return core.Snapshot{}, err
	}
	if !transport.RestartsOnPrevious(snap, now, threshold) {
		snap, err = auth.PreviousSong(ctx)
		if err != nil {
			return core.Snapshot{}, fmt.Errorf("failed to go back: %w", err)
		}
		return snap, nil
	}

	if err := auth.Seek(ctx, 0); err != nil {
		return core.Snapshot{}, fmt.Errorf("failed to restart: %w", err)
	}
	snap.StartedAt = now
	if snap.IsPaused() {
		snap.PausedAt = now
	}
	return snap, nil
}

// reportSong prints the song the player moved to.
func reportSong(cmd *cobra.Command, icon string, snap core.Snapshot) error {
	if JSONOutput() {
		return printJSON(describeStatus(snap, nil, time.Now()))
	}
	if !snap.HasTrack() {
		fmt.Println("⏹ Stopped")
		return nil
	}
	name := snap.TrackID
	if lib, err := newClient().Library(cmd.Context()); err == nil {
		if song, ok := lib.Song(snap.TrackID); ok {
			name = song.Title
			if a, ok := lib.ArtistOf(snap.TrackID); ok {
				name = a.Name + " - " + song.Title
			}
		}
	}
	fmt.Printf("%s %s\n", icon, name)
	return nil
}

func runVolume(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client := newClient()

	snap, err := client.CurrentSong(ctx)
	if err != nil {
		return err
	}
	current := int(snap.Volume*100 + 0.5)

	if len(args) == 0 {
		if JSONOutput() {
			return printJSON(map[string]int{"volume": current})
		}
		fmt.Printf("🔊 Volume: %d%%\n", current)
		return nil
	}

	target, err := parseVolume(args[0], current)
	if err != nil {
		return err
	}
	got, err := client.SetVolume(ctx, float64(target)/100)
	if err != nil {
		return fmt.Errorf("failed to set volume: %w", err)
	}
	applied := int(got*100 + 0.5)

	if JSONOutput() {
		return printJSON(map[string]int{"volume": applied, "previous": current})
	}
	fmt.Printf("🔊 Volume: %d%% (was %d%%)\n", applied, current)
	return nil
}

// parseVolume reads an absolute percentage or a +/- change from current,
// clamped to 0-100.
func parseVolume(arg string, current int) (int, error) {
	n, err := strconv.Atoi(strings.TrimPrefix(arg, "+"))
	if err != nil {
		return 0, fmt.Errorf("invalid volume %q: use 0-100, +N or -N", arg)
	}
	target := n
	if strings.HasPrefix(arg, "+") || strings.HasPrefix(arg, "-") {
		target = current + n
	}
	return max(0, min(100, target)), nil
}

// parsePosition reads m:ss, h:mm:ss, a Go duration, or whole seconds.
func parsePosition(arg string) (time.Duration, error) {
	invalid := fmt.Errorf("invalid position %q: use m:ss, h:mm:ss, 90s or 90", arg)

	if strings.Contains(arg, ":") {
		parts := strings.Split(arg, ":")
		if len(parts) > 3 {
			return 0, invalid
		}
		var total time.Duration
		for _, p := range parts {
			n, err := strconv.Atoi(p)
			if err != nil || n < 0 {
				return 0, invalid
			}
			total = total*60 + time.Duration(n)
		}
		return total * time.Second, nil
	}
	if n, err := strconv.Atoi(arg); err == nil && n >= 0 {
		return time.Duration(n) * time.Second, nil
	}
	if d, err := time.ParseDuration(arg); err == nil && d >= 0 {
		return d, nil
	}
	return 0, invalid
}
