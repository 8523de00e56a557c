package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tessro/encore/internal/clock"
	"github.com/tessro/encore/internal/core"
	"github.com/tessro/encore/internal/tail"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show current playback status",
	Long:  `Shows the song the player is on, its position, and the playback settings.`,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client := newClient()

	snap, err := client.CurrentSong(ctx)
	if err != nil {
		return err
	}
	lib, err := client.Library(ctx)
	if err != nil {
		logger.Warn("library unavailable, showing ids", "err", err)
	}

	info := describeStatus(snap, lib, time.Now())
	if JSONOutput() {
		return printJSON(info)
	}
	writeStatus(os.Stdout, info)
	return nil
}

type statusInfo struct {
	Playing    bool    `json:"playing"`
	Paused     bool    `json:"paused"`
	SongID     string  `json:"song_id,omitempty"`
	Title      string  `json:"title,omitempty"`
	Artist     string  `json:"artist,omitempty"`
	Album      string  `json:"album,omitempty"`
	PositionMs int64   `json:"position_ms"`
	DurationMs int64   `json:"duration_ms"`
	Progress   float64 `json:"progress"`
	PausedFor  string  `json:"paused_for,omitempty"`
	Volume     int     `json:"volume"`
	Shuffle    bool    `json:"shuffle"`
	Repeat     string  `json:"repeat"`
}

// describeStatus resolves snap against lib as of now.
func describeStatus(snap core.Snapshot, lib *core.Library, now time.Time) statusInfo {
	info := statusInfo{
		Playing: snap.HasTrack(),
		Paused:  snap.IsPaused(),
		SongID:  snap.TrackID,
		Volume:  int(snap.Volume*100 + 0.5),
		Shuffle: snap.Shuffled,
		Repeat:  snap.Repeat.String(),
	}
	if !snap.HasTrack() {
		return info
	}

	pos := clock.Interpolate(snap, now).Elapsed
	if song, ok := lib.Song(snap.TrackID); ok {
		info.Title = song.Title
		info.Album = lib.Albums[song.Album].Name
		info.DurationMs = song.Duration.Milliseconds()
		if song.Duration > 0 {
			pos = min(pos, song.Duration)
			info.Progress = float64(pos) / float64(song.Duration)
		}
	}
	if a, ok := lib.ArtistOf(snap.TrackID); ok {
		info.Artist = a.Name
	}
	info.PositionMs = pos.Milliseconds()
	if snap.IsPaused() {
		info.PausedFor = strings.TrimSpace(humanize.RelTime(snap.PausedAt, now, "", ""))
	}
	return info
}

func writeStatus(w io.Writer, info statusInfo) {
	if !info.Playing {
		_, _ = fmt.Fprintln(w, "Nothing playing")
		return
	}

	icon := "▶"
	if info.Paused {
		icon = "⏸"
	}
	title := info.Title
	if title == "" {
		title = info.SongID
	}
	_, _ = fmt.Fprintf(w, "%s %s\n", icon, title)
	if info.Artist != "" || info.Album != "" {
		_, _ = fmt.Fprintf(w, "  %s — %s\n", info.Artist, info.Album)
	}

	pos := time.Duration(info.PositionMs) * time.Millisecond
	dur := time.Duration(info.DurationMs) * time.Millisecond
	_, _ = fmt.Fprintf(w, "  %s %s / %s\n", FormatProgress(info.Progress, 30), tail.FormatDuration(pos), tail.FormatDuration(dur))
	if info.Paused && info.PausedFor != "" {
		_, _ = fmt.Fprintf(w, "  Paused for %s\n", info.PausedFor)
	}

	shuffle := "off"
	if info.Shuffle {
		shuffle = "on"
	}
	_, _ = fmt.Fprintf(w, "  🔊 %d%%  🔀 %s  🔁 %s\n", info.Volume, shuffle, info.Repeat)
}
