package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/tessro/encore/internal/core"
	"github.com/tessro/encore/internal/tail"
)

var (
	libraryAlbum  string
	libraryArtist string
)

var libraryCmd = &cobra.Command{
	Use:     "library",
	Aliases: []string{"songs"},
	Short:   "List the songs in the player's library",
	Long: `List songs sorted by artist, album and title.

Examples:
  encore library
  encore library --album kind-of-blue`,
	Args: cobra.NoArgs,
	RunE: runLibrary,
}

func init() {
	libraryCmd.Flags().StringVar(&libraryAlbum, "album", "", "only songs on this album")
	libraryCmd.Flags().StringVar(&libraryArtist, "artist", "", "only songs by this artist")
	rootCmd.AddCommand(libraryCmd)
}

// libraryRow is one song in library output.
type libraryRow struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Artist     string `json:"artist"`
	Album      string `json:"album"`
	DurationMs int64  `json:"duration_ms"`
	Path       string `json:"path,omitempty"`
}

func runLibrary(cmd *cobra.Command, args []string) error {
	lib, err := newClient().Library(cmd.Context())
	if err != nil {
		return err
	}

	ids := lib.SongIDs()
	switch {
	case libraryAlbum != "":
		ids = lib.AlbumSongIDs(libraryAlbum)
	case libraryArtist != "":
		ids = lib.ArtistSongIDs(libraryArtist)
	}
	rows := libraryRows(lib, ids)

	if JSONOutput() {
		return printJSON(rows)
	}

	table := NewTableWriter(cmd.OutOrStdout(), "ID", "TITLE", "ARTIST", "ALBUM", "LENGTH")
	for _, r := range rows {
		table.Row(r.ID,
			TruncateString(r.Title, 32),
			TruncateString(r.Artist, 24),
			TruncateString(r.Album, 24),
			tail.FormatDuration(time.Duration(r.DurationMs)*time.Millisecond))
	}
	table.Flush()
	fmt.Fprintln(cmd.OutOrStdout(), librarySummary(rows))
	return nil
}

func libraryRows(lib *core.Library, ids []string) []libraryRow {
	return lo.Map(ids, func(id string, _ int) libraryRow {
		song, _ := lib.Song(id)
		artist, _ := lib.ArtistOf(id)
		return libraryRow{
			ID:         id,
			Title:      song.Title,
			Artist:     artist.Name,
			Album:      lib.Albums[song.Album].Name,
			DurationMs: song.Duration.Milliseconds(),
			Path:       song.Path,
		}
	})
}

// librarySummary reports the song count and total playing time.
func librarySummary(rows []libraryRow) string {
	total := lo.SumBy(rows, func(r libraryRow) int64 { return r.DurationMs })
	noun := "songs"
	if len(rows) == 1 {
		noun = "song"
	}
	return fmt.Sprintf("%s %s, %s", humanize.Comma(int64(len(rows))), noun,
		tail.FormatDuration(time.Duration(total)*time.Millisecond))
}
