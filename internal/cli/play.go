package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tessro/encore/internal/core"
	encerrors "github.com/tessro/encore/internal/errors"
	"github.com/tessro/encore/internal/wizard"
)

var (
	playAlbum  string
	playArtist string
	playNoTTY  bool
)

var playCmd = &cobra.Command{
	Use:   "play [song-id | query]",
	Short: "Start or resume playback",
	Long: `Start a song, album or artist. Without arguments on a terminal, opens a
search picker; otherwise resumes playback.

A song id plays that song; any other text plays the first song whose title
matches.

Examples:
  encore play                     # Pick interactively, or resume
  encore play s42                 # Play a song by id
  encore play "so what"           # Search and play a song
  encore play --album kind-of-blue
  encore play s42 --artist miles  # Play s42, then the rest of the artist`,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&playAlbum, "album", "", "play through this album")
	playCmd.Flags().StringVar(&playArtist, "artist", "", "play through this artist")
	playCmd.Flags().BoolVar(&playNoTTY, "no-interactive", false, "never open the search picker")
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client := newClient()

	if playAlbum != "" && playArtist != "" {
		return fmt.Errorf("use only one of --album and --artist")
	}

	if wizard.NeedsTrack(args) && playAlbum == "" && playArtist == "" {
		lib, err := client.Library(ctx)
		if err != nil {
			return err
		}
		interactive := wizard.NewInteractive(client.Search, lib, cfg.Search.DebounceDuration())
		interactive.SetEnabled(!playNoTTY && !JSONOutput())
		if !interactive.CanInteract() {
			return setPaused(cmd, false)
		}

		picked, err := interactive.PromptSearch()
		if err != nil {
			return err
		}
		if picked == nil {
			return nil
		}
		songID, scope, ok := wizard.Play(lib, *picked)
		if !ok {
			return fmt.Errorf("%s has no songs", picked.Title)
		}
		return playSong(cmd, songID, scope)
	}

	lib, err := client.Library(ctx)
	if err != nil {
		return err
	}
	songID, scope, err := resolvePlay(lib, strings.Join(args, " "), playAlbum, playArtist)
	if err != nil {
		return err
	}
	return playSong(cmd, songID, scope)
}

// resolvePlay picks the song and scope for a play request. arg is a song id
// or a title query and may be empty when album or artist is set.
func resolvePlay(lib *core.Library, arg, album, artist string) (string, core.PlayerScope, error) {
	scope := core.LibraryScope()
	var candidates []string
	switch {
	case album != "":
		if _, ok := lib.Albums[album]; !ok {
			return "", scope, fmt.Errorf("unknown album %q", album)
		}
		scope = core.AlbumScope(album)
		candidates = lib.AlbumSongIDs(album)
	case artist != "":
		if _, ok := lib.Artists[artist]; !ok {
			return "", scope, fmt.Errorf("unknown artist %q", artist)
		}
		scope = core.ArtistScope(artist)
		candidates = lib.ArtistSongIDs(artist)
	}

	if arg == "" {
		if len(candidates) == 0 {
			return "", scope, fmt.Errorf("nothing to play")
		}
		return candidates[0], scope, nil
	}
	if _, ok := lib.Song(arg); ok {
		return arg, scope, nil
	}

	matches := lib.Search(arg, core.SearchSongs).Songs
	if len(matches) == 0 {
		return "", scope, encerrors.WithSuggestion(
			fmt.Errorf("%w: no song matches %q", encerrors.ErrTrackNotFound, arg),
			"Run 'encore search "+arg+"' to see what the library holds")
	}
	return matches[0], scope, nil
}

func playSong(cmd *cobra.Command, songID string, scope core.PlayerScope) error {
	snap, err := newClient().PlaySong(cmd.Context(), songID, scope)
	if err != nil {
		return fmt.Errorf("failed to play %s: %w", songID, err)
	}
	return reportSong(cmd, "▶", snap)
}
