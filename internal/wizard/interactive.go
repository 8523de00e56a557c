package wizard

import (
	"os"
	"time"

	"golang.org/x/term"

	"github.com/tessro/encore/internal/core"
)

// Interactive provides interactive fallback functionality.
type Interactive struct {
	enabled  bool
	search   SearchFunc
	library  *core.Library
	debounce time.Duration
}

// NewInteractive creates a new interactive handler searching with search
// and naming results from lib.
func NewInteractive(search SearchFunc, lib *core.Library, debounce time.Duration) *Interactive {
	return &Interactive{
		enabled:  true,
		search:   search,
		library:  lib,
		debounce: debounce,
	}
}

// SetEnabled enables or disables interactive mode.
func (i *Interactive) SetEnabled(enabled bool) {
	i.enabled = enabled
}

// IsTerminal returns true if stdout is a terminal.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// CanInteract returns true if interactive mode is available.
func (i *Interactive) CanInteract() bool {
	return i.enabled && i.search != nil && IsTerminal()
}

// PromptSearch launches the search wizard if interactive mode is available.
// Returns the selected result, or nil if cancelled or not interactive.
func (i *Interactive) PromptSearch() (*Result, error) {
	if !i.CanInteract() {
		return nil, nil
	}
	return RunSearch(i.search, i.library, i.debounce)
}

// NeedsTrack returns true if a track argument is required but missing.
func NeedsTrack(args []string) bool {
	return len(args) == 0
}

// Play resolves a picked result to the song and scope to start: a song
// plays through the library, an album or artist from its first song.
func Play(lib *core.Library, r Result) (songID string, scope core.PlayerScope, ok bool) {
	switch r.Kind {
	case ResultSong:
		return r.ID, core.LibraryScope(), true
	case ResultAlbum:
		ids := lib.AlbumSongIDs(r.ID)
		if len(ids) == 0 {
			return "", core.PlayerScope{}, false
		}
		return ids[0], core.AlbumScope(r.ID), true
	case ResultArtist:
		ids := lib.ArtistSongIDs(r.ID)
		if len(ids) == 0 {
			return "", core.PlayerScope{}, false
		}
		return ids[0], core.ArtistScope(r.ID), true
	}
	return "", core.PlayerScope{}, false
}
