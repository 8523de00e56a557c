package core

import (
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
)

// Song is a track in the player's library.
type Song struct {
	Title    string
	Path     string
	Duration time.Duration
	Album    string
}

// Album groups songs by one artist.
type Album struct {
	Name     string
	CoverArt string
	Artist   string
}

// Artist is a library artist.
type Artist struct {
	Name string
}

// Library is the read-only catalog the player serves, keyed by id.
type Library struct {
	Songs   map[string]Song
	Albums  map[string]Album
	Artists map[string]Artist
}

// Catalog looks up songs by id.
type Catalog interface {
	Song(id string) (Song, bool)
}

// Song returns the song with the given id.
func (l *Library) Song(id string) (Song, bool) {
	if l == nil || id == "" {
		return Song{}, false
	}
	s, ok := l.Songs[id]
	return s, ok
}

// ArtistOf returns the artist of a song, following its album.
func (l *Library) ArtistOf(songID string) (Artist, bool) {
	song, ok := l.Song(songID)
	if !ok {
		return Artist{}, false
	}
	album, ok := l.Albums[song.Album]
	if !ok {
		return Artist{}, false
	}
	artist, ok := l.Artists[album.Artist]
	return artist, ok
}

// SongIDs returns song ids ordered by artist, album, then title.
func (l *Library) SongIDs() []string {
	if l == nil {
		return nil
	}
	ids := lo.Keys(l.Songs)
	sort.Slice(ids, func(i, j int) bool {
		return l.sortKey(ids[i]) < l.sortKey(ids[j])
	})
	return ids
}

// AlbumSongIDs returns the songs of one album in library order.
func (l *Library) AlbumSongIDs(albumID string) []string {
	return lo.Filter(l.SongIDs(), func(id string, _ int) bool {
		return l.Songs[id].Album == albumID
	})
}

// ArtistSongIDs returns the songs of one artist in library order.
func (l *Library) ArtistSongIDs(artistID string) []string {
	return lo.Filter(l.SongIDs(), func(id string, _ int) bool {
		return l.Albums[l.Songs[id].Album].Artist == artistID
	})
}

// AlbumIDs returns album ids sorted by name.
func (l *Library) AlbumIDs() []string {
	if l == nil {
		return nil
	}
	ids := lo.Keys(l.Albums)
	sort.Slice(ids, func(i, j int) bool {
		return strings.ToLower(l.Albums[ids[i]].Name) < strings.ToLower(l.Albums[ids[j]].Name)
	})
	return ids
}

// ArtistIDs returns artist ids sorted by name.
func (l *Library) ArtistIDs() []string {
	if l == nil {
		return nil
	}
	ids := lo.Keys(l.Artists)
	sort.Slice(ids, func(i, j int) bool {
		return strings.ToLower(l.Artists[ids[i]].Name) < strings.ToLower(l.Artists[ids[j]].Name)
	})
	return ids
}

func (l *Library) sortKey(songID string) string {
	song := l.Songs[songID]
	album := l.Albums[song.Album]
	artist := l.Artists[album.Artist]
	return strings.ToLower(artist.Name + "\x00" + album.Name + "\x00" + song.Title + "\x00" + songID)
}

// SearchMode selects what a library search returns.
type SearchMode int

const (
	// SearchLibrary matches artists, albums and songs.
	SearchLibrary SearchMode = iota
	// SearchSongs matches songs only.
	SearchSongs
)

// SearchResults holds the ids matched by a search. Artists and Albums are nil
// in SearchSongs mode.
type SearchResults struct {
	Artists []string
	Albums  []string
	Songs   []string
}

// Search does a case-insensitive substring match over the library.
func (l *Library) Search(query string, mode SearchMode) SearchResults {
	q := strings.ToLower(strings.TrimSpace(query))
	matches := func(s string) bool { return strings.Contains(strings.ToLower(s), q) }

	res := SearchResults{
		Songs: lo.Filter(l.SongIDs(), func(id string, _ int) bool {
			return matches(l.Songs[id].Title)
		}),
	}
	if mode == SearchSongs {
		return res
	}
	res.Albums = lo.Filter(l.AlbumIDs(), func(id string, _ int) bool {
		return matches(l.Albums[id].Name)
	})
	res.Artists = lo.Filter(l.ArtistIDs(), func(id string, _ int) bool {
		return matches(l.Artists[id].Name)
	})
	return res
}
