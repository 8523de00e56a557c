package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/tessro/encore/internal/core"
	"github.com/tessro/encore/internal/tail"
	"github.com/tessro/encore/internal/transport"
	"github.com/tessro/encore/internal/tui/styles"
)

// NowPlaying displays the currently playing track
type NowPlaying struct {
	library *core.Library
}

// NewNowPlaying creates a new NowPlaying component. lib names albums and
// artists and may be nil.
func NewNowPlaying(lib *core.Library) *NowPlaying {
	return &NowPlaying{library: lib}
}

// Render renders the now playing panel
func (n *NowPlaying) Render(d transport.Display, width, height int, focused bool) string {
	title := styles.PanelTitle("Now Playing", focused)

	var content string
	if !d.HasTrack() {
		if d.Loading {
			content = styles.Muted.Render("Loading...")
		} else {
			content = styles.Muted.Render("Nothing playing")
		}
	} else {
		content = n.renderTrack(d, width-4)
	}

	panel := styles.Panel(focused).
		Width(width).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		content,
	))
}

func (n *NowPlaying) renderTrack(d transport.Display, width int) string {
	name := d.TrackID
	var album, artist string
	if d.Song != nil {
		name = d.Song.Title
		if n.library != nil {
			album = n.library.Albums[d.Song.Album].Name
		}
	}
	if a, ok := n.library.ArtistOf(d.TrackID); ok {
		artist = a.Name
	}

	icon := styles.StatusIcon(d.Paused)
	title := styles.Title.Width(width - 4).Render(Truncate(name, width-4))

	// Progress bar
	progressWidth := width - 14 // Account for times on either side
	if progressWidth < 10 {
		progressWidth = 10
	}
	progress := fmt.Sprintf("%s %s %s",
		tail.FormatDuration(d.Elapsed),
		styles.ProgressBar(d.Progress(), progressWidth),
		tail.FormatDuration(d.Duration))

	status := fmt.Sprintf("%s %s  🔊 %d%%",
		styles.ShuffleIcon(d.Shuffled),
		styles.RepeatIcon(d.Repeat),
		int(d.Volume*100+0.5))
	if d.Loading {
		status += styles.Dim.Render("  loading...")
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		icon+" "+title,
		"  "+styles.Subtitle.Render(artist),
		"  "+styles.Dim.Render(album),
		"",
		progress,
		"",
		status,
	)
}
