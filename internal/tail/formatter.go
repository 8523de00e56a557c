package tail

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/tessro/encore/internal/clock"
	"github.com/tessro/encore/internal/core"
)

// Formatter formats events for output.
type Formatter struct {
	showEmoji     bool
	showTimestamp bool
	template      *template.Template
	library       *core.Library
}

// FormatterOption configures a Formatter.
type FormatterOption func(*Formatter)

// WithEmoji enables emoji output.
func WithEmoji(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.showEmoji = enabled
	}
}

// WithTimestamp enables timestamp output.
func WithTimestamp(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.showTimestamp = enabled
	}
}

// WithTemplate sets a custom format template.
func WithTemplate(tmpl string) FormatterOption {
	return func(f *Formatter) {
		if tmpl != "" {
			t, err := template.New("format").Parse(tmpl)
			if err == nil {
				f.template = t
			}
		}
	}
}

// WithLibrary names songs from lib instead of printing their ids.
func WithLibrary(lib *core.Library) FormatterOption {
	return func(f *Formatter) {
		f.library = lib
	}
}

// NewFormatter creates a new formatter with the given options.
func NewFormatter(opts ...FormatterOption) *Formatter {
	f := &Formatter{
		showEmoji:     true,
		showTimestamp: false,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format formats an event as a string.
func (f *Formatter) Format(e Event) string {
	if f.template != nil {
		return f.formatTemplate(e)
	}
	return f.formatLine(e)
}

// formatLine formats an event as a simple line.
func (f *Formatter) formatLine(e Event) string {
	var parts []string

	if f.showTimestamp {
		parts = append(parts, e.Timestamp.Format("15:04:05"))
	}
	if f.showEmoji {
		parts = append(parts, eventEmoji(e.Type))
	}
	parts = append(parts, f.eventDescription(e))

	return strings.Join(parts, " ")
}

// formatTemplate formats an event using a custom template.
func (f *Formatter) formatTemplate(e Event) string {
	data := templateData{
		Type:      eventTypeName(e.Type),
		Emoji:     eventEmoji(e.Type),
		Timestamp: e.Timestamp,
		Time:      e.Timestamp.Format("15:04:05"),
		SongID:    e.Current.TrackID,
		Position:  FormatDuration(e.Position),
		Volume:    int(e.Current.Volume*100 + 0.5),
		Shuffled:  e.Current.Shuffled,
		Repeat:    e.Current.Repeat.String(),
	}
	data.Title, data.Album, data.Artist = f.describe(e.Current.TrackID)

	var buf bytes.Buffer
	if err := f.template.Execute(&buf, data); err != nil {
		return f.formatLine(e)
	}
	return buf.String()
}

type templateData struct {
	Type      string
	Emoji     string
	Timestamp time.Time
	Time      string
	SongID    string
	Title     string
	Artist    string
	Album     string
	Position  string
	Volume    int
	Shuffled  bool
	Repeat    string
}

// describe returns title, album and artist names for a song id, falling
// back to the id when the library does not know it.
func (f *Formatter) describe(songID string) (title, album, artist string) {
	song, ok := f.library.Song(songID)
	if !ok {
		return songID, "", ""
	}
	title = song.Title
	if a, ok := f.library.Albums[song.Album]; ok {
		album = a.Name
	}
	if a, ok := f.library.ArtistOf(songID); ok {
		artist = a.Name
	}
	return title, album, artist
}

func (f *Formatter) songLine(songID string) string {
	title, _, artist := f.describe(songID)
	if artist == "" {
		return title
	}
	return artist + " - " + title
}

// eventDescription returns a human-readable description of the event.
func (f *Formatter) eventDescription(e Event) string {
	switch e.Type {
	case EventTrackChange:
		if e.Current.HasTrack() {
			return "Now playing: " + f.songLine(e.Current.TrackID)
		}
		return "Track changed"

	case EventTrackComplete:
		if e.Previous.HasTrack() {
			return "Finished: " + f.songLine(e.Previous.TrackID)
		}
		return "Track completed"

	case EventTrackSkip:
		if e.Previous.HasTrack() {
			return fmt.Sprintf("Skipped: %s at %s", f.songLine(e.Previous.TrackID), FormatDuration(e.Position))
		}
		return "Track skipped"

	case EventStop:
		return "Stopped"

	case EventPause:
		return "Paused at " + FormatDuration(e.Position)

	case EventResume:
		if e.Previous.IsPaused() {
			away := strings.TrimSpace(humanize.RelTime(e.Previous.PausedAt, e.Timestamp, "", ""))
			return "Resumed after " + away
		}
		return "Resumed"

	case EventSeek:
		return fmt.Sprintf("Seek: %s → %s", FormatDuration(e.Position), FormatDuration(clock.Interpolate(e.Current, e.Timestamp).Elapsed))

	case EventVolumeChange:
		return fmt.Sprintf("Volume: %d%%", int(e.Current.Volume*100+0.5))

	case EventShuffleChange:
		if e.Current.Shuffled {
			return "Shuffle: on"
		}
		return "Shuffle: off"

	case EventRepeatChange:
		return "Repeat: " + e.Current.Repeat.String()

	default:
		return "Unknown event"
	}
}

// FormatDuration renders d as m:ss, or h:mm:ss past an hour.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d / time.Second)
	h, m, s := total/3600, (total/60)%60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// eventEmoji returns an emoji for the event type.
func eventEmoji(t EventType) string {
	switch t {
	case EventTrackChange:
		return "🎵"
	case EventTrackComplete:
		return "✅"
	case EventTrackSkip:
		return "⏭️"
	case EventStop:
		return "⏹️"
	case EventPause:
		return "⏸️"
	case EventResume:
		return "▶️"
	case EventSeek:
		return "⏩"
	case EventVolumeChange:
		return "🔊"
	case EventShuffleChange:
		return "🔀"
	case EventRepeatChange:
		return "🔁"
	default:
		return "❓"
	}
}

// eventTypeName returns the name of the event type.
func eventTypeName(t EventType) string {
	switch t {
	case EventTrackChange:
		return "track_change"
	case EventTrackComplete:
		return "track_complete"
	case EventTrackSkip:
		return "track_skip"
	case EventStop:
		return "stop"
	case EventPause:
		return "pause"
	case EventResume:
		return "resume"
	case EventSeek:
		return "seek"
	case EventVolumeChange:
		return "volume_change"
	case EventShuffleChange:
		return "shuffle_change"
	case EventRepeatChange:
		return "repeat_change"
	default:
		return "unknown"
	}
}
