package cli

import (
	"fmt"
	"strings"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/tessro/encore/internal/core"
	"github.com/tessro/encore/internal/tail"
)

var searchSongsOnly bool

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the player's library",
	Long: `Search artists, albums and songs by name. Matching is case-insensitive.

Examples:
  encore search blue
  encore search --songs "so what"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().BoolVarP(&searchSongsOnly, "songs", "s", false, "match song titles only")
	rootCmd.AddCommand(searchCmd)
}

// searchRow is one line of search output.
type searchRow struct {
	Kind   string `json:"kind"`
	ID     string `json:"id"`
	Name   string `json:"name"`
	Detail string `json:"detail,omitempty"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	client := newClient()

	mode := core.SearchLibrary
	if searchSongsOnly {
		mode = core.SearchSongs
	}
	res, err := client.Search(ctx, strings.Join(args, " "), mode)
	if err != nil {
		return err
	}
	lib, err := client.Library(ctx)
	if err != nil {
		return err
	}

	rows := searchRows(lib, res)
	if JSONOutput() {
		return printJSON(rows)
	}
	if len(rows) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No matches")
		return nil
	}

	table := NewTableWriter(cmd.OutOrStdout(), "KIND", "ID", "NAME", "DETAIL")
	for _, r := range rows {
		table.Row(r.Kind, r.ID, TruncateString(r.Name, 40), TruncateString(r.Detail, 40))
	}
	table.Flush()
	return nil
}

// searchRows lists artists, then albums, then songs.
func searchRows(lib *core.Library, res core.SearchResults) []searchRow {
	rows := lo.Map(res.Artists, func(id string, _ int) searchRow {
		return searchRow{Kind: "artist", ID: id, Name: lib.Artists[id].Name}
	})
	rows = append(rows, lo.Map(res.Albums, func(id string, _ int) searchRow {
		album := lib.Albums[id]
		return searchRow{Kind: "album", ID: id, Name: album.Name, Detail: lib.Artists[album.Artist].Name}
	})...)
	rows = append(rows, lo.Map(res.Songs, func(id string, _ int) searchRow {
		song, _ := lib.Song(id)
		artist, _ := lib.ArtistOf(id)
		return searchRow{
			Kind:   "song",
			ID:     id,
			Name:   song.Title,
			Detail: artist.Name + " · " + tail.FormatDuration(song.Duration),
		}
	})...)
	return rows
}
