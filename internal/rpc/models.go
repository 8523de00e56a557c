package rpc

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/tessro/encore/internal/core"
)

// Snapshot is the wire form of core.Snapshot. Instants are Unix milliseconds.
type Snapshot struct {
	CurrentSong   *string         `json:"current_song"`
	SongStartedAt int64           `json:"song_started_at"`
	PausedAt      *int64          `json:"paused_at"`
	Volume        float64         `json:"volume"`
	Shuffled      bool            `json:"shuffled"`
	Repeat        core.RepeatMode `json:"repeat"`
}

// Song is the wire form of core.Song. Duration is in milliseconds.
type Song struct {
	Title    string `json:"title"`
	Path     string `json:"path"`
	Duration int64  `json:"duration"`
	Album    string `json:"album"`
}

// Album is the wire form of core.Album.
type Album struct {
	Name     string  `json:"name"`
	CoverArt *string `json:"cover_art"`
	Artist   string  `json:"artist"`
}

// Artist is the wire form of core.Artist.
type Artist struct {
	Name string `json:"name"`
}

// Library is the wire form of core.Library.
type Library struct {
	Artists map[string]Artist `json:"artists"`
	Albums  map[string]Album  `json:"albums"`
	Songs   map[string]Song   `json:"songs"`
}

// SearchResults is the wire form of core.SearchResults. Artists and Albums
// are null for song-only searches.
type SearchResults struct {
	Artists []string `json:"artists"`
	Albums  []string `json:"albums"`
	Songs   []string `json:"songs"`
}

// SearchMode is "Library" or "Songs" on the wire.
type SearchMode core.SearchMode

// MarshalText implements encoding.TextMarshaler.
func (m SearchMode) MarshalText() ([]byte, error) {
	if core.SearchMode(m) == core.SearchSongs {
		return []byte("Songs"), nil
	}
	return []byte("Library"), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *SearchMode) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Library":
		*m = SearchMode(core.SearchLibrary)
	case "Songs":
		*m = SearchMode(core.SearchSongs)
	default:
		return fmt.Errorf("invalid search mode: %q", text)
	}
	return nil
}

// Scope is core.PlayerScope on the wire: the string "Library", or an object
// {"Album": id} or {"Artist": id}.
type Scope core.PlayerScope

// MarshalJSON implements json.Marshaler.
func (s Scope) MarshalJSON() ([]byte, error) {
	switch s.Kind {
	case core.ScopeAlbum:
		return json.Marshal(map[string]string{"Album": s.ID})
	case core.ScopeArtist:
		return json.Marshal(map[string]string{"Artist": s.ID})
	default:
		return json.Marshal("Library")
	}
}

// UnmarshalJSON implements json.Unmarshaler.
func (s *Scope) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		if name != "Library" {
			return fmt.Errorf("invalid scope: %q", name)
		}
		*s = Scope(core.LibraryScope())
		return nil
	}

	var obj map[string]string
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid scope: %w", err)
	}
	if id, ok := obj["Album"]; ok && len(obj) == 1 {
		*s = Scope(core.AlbumScope(id))
		return nil
	}
	if id, ok := obj["Artist"]; ok && len(obj) == 1 {
		*s = Scope(core.ArtistScope(id))
		return nil
	}
	return fmt.Errorf("invalid scope: %s", data)
}

// convertSnapshot converts a wire snapshot to a core snapshot.
func convertSnapshot(s Snapshot) core.Snapshot {
	out := core.Snapshot{
		Volume:   s.Volume,
		Shuffled: s.Shuffled,
		Repeat:   s.Repeat,
	}
	if s.CurrentSong != nil {
		out.TrackID = *s.CurrentSong
		out.StartedAt = time.UnixMilli(s.SongStartedAt)
	}
	if s.PausedAt != nil {
		out.PausedAt = time.UnixMilli(*s.PausedAt)
	}
	return out
}

// wireSnapshot converts a core snapshot to its wire form.
func wireSnapshot(s core.Snapshot) Snapshot {
	out := Snapshot{
		Volume:   s.Volume,
		Shuffled: s.Shuffled,
		Repeat:   s.Repeat,
	}
	if s.HasTrack() {
		id := s.TrackID
		out.CurrentSong = &id
		out.SongStartedAt = s.StartedAt.UnixMilli()
	}
	if s.IsPaused() {
		ms := s.PausedAt.UnixMilli()
		out.PausedAt = &ms
	}
	return out
}

// convertLibrary converts a wire library to a core library.
func convertLibrary(l Library) *core.Library {
	out := &core.Library{
		Songs:   make(map[string]core.Song, len(l.Songs)),
		Albums:  make(map[string]core.Album, len(l.Albums)),
		Artists: make(map[string]core.Artist, len(l.Artists)),
	}
	for id, s := range l.Songs {
		out.Songs[id] = core.Song{
			Title:    s.Title,
			Path:     s.Path,
			Duration: time.Duration(s.Duration) * time.Millisecond,
			Album:    s.Album,
		}
	}
	for id, a := range l.Albums {
		album := core.Album{Name: a.Name, Artist: a.Artist}
		if a.CoverArt != nil {
			album.CoverArt = *a.CoverArt
		}
		out.Albums[id] = album
	}
	for id, a := range l.Artists {
		out.Artists[id] = core.Artist{Name: a.Name}
	}
	return out
}

// wireLibrary converts a core library to its wire form.
func wireLibrary(l *core.Library) Library {
	out := Library{
		Songs:   make(map[string]Song),
		Albums:  make(map[string]Album),
		Artists: make(map[string]Artist),
	}
	if l == nil {
		return out
	}
	for id, s := range l.Songs {
		out.Songs[id] = Song{
			Title:    s.Title,
			Path:     s.Path,
			Duration: s.Duration.Milliseconds(),
			Album:    s.Album,
		}
	}
	for id, a := range l.Albums {
		album := Album{Name: a.Name, Artist: a.Artist}
		if a.CoverArt != "" {
			cover := a.CoverArt
			album.CoverArt = &cover
		}
		out.Albums[id] = album
	}
	for id, a := range l.Artists {
		out.Artists[id] = Artist{Name: a.Name}
	}
	return out
}
