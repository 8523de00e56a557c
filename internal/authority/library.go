package authority

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/tessro/encore/internal/core"
)

// libraryFile is the on-disk catalog format. Durations are milliseconds.
//
//	[artists.a1]
//	name = "Nina Simone"
//
//	[albums.al1]
//	name = "Pastel Blues"
//	artist = "a1"
//
//	[songs.s1]
//	title = "Sinnerman"
//	path = "/music/sinnerman.flac"
//	album = "al1"
//	duration = 622000
type libraryFile struct {
	Artists map[string]struct {
		Name string `toml:"name"`
	} `toml:"artists"`
	Albums map[string]struct {
		Name     string `toml:"name"`
		Artist   string `toml:"artist"`
		CoverArt string `toml:"cover_art"`
	} `toml:"albums"`
	Songs map[string]struct {
		Title    string `toml:"title"`
		Path     string `toml:"path"`
		Album    string `toml:"album"`
		Duration int64  `toml:"duration"`
	} `toml:"songs"`
}

// LoadLibrary reads a catalog file.
func LoadLibrary(path string) (*core.Library, error) {
	var f libraryFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return nil, fmt.Errorf("failed to read library %s: %w", path, err)
	}
	return f.library()
}

// DecodeLibrary parses a catalog from TOML text.
func DecodeLibrary(data string) (*core.Library, error) {
	var f libraryFile
	if _, err := toml.Decode(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse library: %w", err)
	}
	return f.library()
}

func (f libraryFile) library() (*core.Library, error) {
	lib := &core.Library{
		Songs:   make(map[string]core.Song, len(f.Songs)),
		Albums:  make(map[string]core.Album, len(f.Albums)),
		Artists: make(map[string]core.Artist, len(f.Artists)),
	}
	for id, a := range f.Artists {
		lib.Artists[id] = core.Artist{Name: a.Name}
	}
	for id, a := range f.Albums {
		if _, ok := lib.Artists[a.Artist]; !ok {
			return nil, fmt.Errorf("album %s: unknown artist %q", id, a.Artist)
		}
		lib.Albums[id] = core.Album{Name: a.Name, Artist: a.Artist, CoverArt: a.CoverArt}
	}
	for id, s := range f.Songs {
		if _, ok := lib.Albums[s.Album]; !ok {
			return nil, fmt.Errorf("song %s: unknown album %q", id, s.Album)
		}
		if s.Duration <= 0 {
			return nil, fmt.Errorf("song %s: duration must be positive", id)
		}
		lib.Songs[id] = core.Song{
			Title:    s.Title,
			Path:     s.Path,
			Album:    s.Album,
			Duration: time.Duration(s.Duration) * time.Millisecond,
		}
	}
	return lib, nil
}
