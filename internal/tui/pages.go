package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"

	"github.com/tessro/encore/internal/config"
	"github.com/tessro/encore/internal/core"
	"github.com/tessro/encore/internal/nav"
	"github.com/tessro/encore/internal/tail"
	"github.com/tessro/encore/internal/tui/components"
)

type itemKind int

const (
	itemSong itemKind = iota
	itemAlbum
	itemArtist
)

// item is a selectable row of a browser page.
type item struct {
	kind itemKind
	id   string
	row  components.Row
}

// searchState holds the results of the last search page shown.
type searchState struct {
	page    nav.Page
	results core.SearchResults
	err     error
	pending bool
}

func (s searchState) matches(p nav.Page) bool {
	return s.page == p
}

// pageItems lists the rows of page p. playing is the song to mark active.
func pageItems(p nav.Page, lib *core.Library, search searchState, playing string) []item {
	if lib == nil {
		return nil
	}
	switch p.Kind {
	case nav.KindSongs:
		return songItems(lib, lib.SongIDs(), playing, artistDetail)
	case nav.KindArtists:
		return artistItems(lib, lib.ArtistIDs())
	case nav.KindAlbums:
		return albumItems(lib, lib.AlbumIDs())
	case nav.KindArtist:
		albums := lo.Filter(lib.AlbumIDs(), func(id string, _ int) bool {
			return lib.Albums[id].Artist == p.ID
		})
		return append(albumItems(lib, albums), songItems(lib, lib.ArtistSongIDs(p.ID), playing, albumDetail)...)
	case nav.KindAlbum:
		return songItems(lib, lib.AlbumSongIDs(p.ID), playing, durationDetail)
	case nav.KindLibraryManager:
		return songItems(lib, lib.SongIDs(), playing, pathDetail)
	case nav.KindSearch:
		if !search.matches(p) {
			return nil
		}
		res := search.results
		items := artistItems(lib, res.Artists)
		items = append(items, albumItems(lib, res.Albums)...)
		return append(items, songItems(lib, res.Songs, playing, artistDetail)...)
	}
	return nil
}

func songItems(lib *core.Library, ids []string, playing string, detail func(*core.Library, string) string) []item {
	return lo.Map(ids, func(id string, _ int) item {
		return item{
			kind: itemSong,
			id:   id,
			row: components.Row{
				Title:  lib.Songs[id].Title,
				Detail: detail(lib, id),
				Active: id == playing,
			},
		}
	})
}

func albumItems(lib *core.Library, ids []string) []item {
	return lo.Map(ids, func(id string, _ int) item {
		album := lib.Albums[id]
		return item{
			kind: itemAlbum,
			id:   id,
			row:  components.Row{Title: album.Name, Detail: "Album · " + lib.Artists[album.Artist].Name},
		}
	})
}

func artistItems(lib *core.Library, ids []string) []item {
	return lo.Map(ids, func(id string, _ int) item {
		n := len(lib.ArtistSongIDs(id))
		return item{
			kind: itemArtist,
			id:   id,
			row:  components.Row{Title: lib.Artists[id].Name, Detail: humanize.Comma(int64(n)) + " " + plural(n, "song")},
		}
	})
}

func artistDetail(lib *core.Library, id string) string {
	a, _ := lib.ArtistOf(id)
	return a.Name
}

func albumDetail(lib *core.Library, id string) string {
	return lib.Albums[lib.Songs[id].Album].Name
}

func durationDetail(lib *core.Library, id string) string {
	return tail.FormatDuration(lib.Songs[id].Duration)
}

func pathDetail(lib *core.Library, id string) string {
	return lib.Songs[id].Path
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}

// scopeFor is the queue a song started from page p plays through.
func scopeFor(p nav.Page) core.PlayerScope {
	switch p.Kind {
	case nav.KindAlbum:
		return core.AlbumScope(p.ID)
	case nav.KindArtist:
		return core.ArtistScope(p.ID)
	default:
		return core.LibraryScope()
	}
}

// settingsText renders the loaded configuration.
func settingsText(cfg *config.Config) string {
	if cfg == nil {
		return "No configuration loaded"
	}
	ms := func(v int) string { return (time.Duration(v) * time.Millisecond).String() }
	lines := []string{
		"Player",
		"  authority          " + cfg.Authority.Addr,
		"  frame interval     " + ms(cfg.Player.FrameInterval),
		"  restart threshold  " + ms(cfg.Player.RestartThreshold),
		"  play tolerance     " + ms(cfg.Player.PlayTolerance),
		"",
		"Search",
		"  debounce           " + ms(cfg.Search.Debounce),
		"",
		"Interface",
		"  theme              " + cfg.TUI.Theme,
		"  refresh interval   " + ms(cfg.TUI.RefreshInterval),
		"",
		"Change these with 'encore config set <key> <value>'",
	}
	return strings.Join(lines, "\n")
}

// aboutText describes the program and the loaded library.
func aboutText(version string, lib *core.Library) string {
	var total time.Duration
	var songs, albums, artists int
	if lib != nil {
		songs, albums, artists = len(lib.Songs), len(lib.Albums), len(lib.Artists)
		for _, s := range lib.Songs {
			total += s.Duration
		}
	}
	return fmt.Sprintf("Encore %s\n\n%s %s · %s %s · %s %s\n%s of music",
		version,
		humanize.Comma(int64(songs)), plural(songs, "song"),
		humanize.Comma(int64(albums)), plural(albums, "album"),
		humanize.Comma(int64(artists)), plural(artists, "artist"),
		tail.FormatDuration(total))
}
