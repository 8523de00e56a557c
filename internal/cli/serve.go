package cli

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/tessro/encore/internal/authority"
	encerrors "github.com/tessro/encore/internal/errors"
	"github.com/tessro/encore/internal/rpc"
)

var (
	serveLibrary string
	serveAddr    string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run a player",
	Long: `Run a player that owns the playback clock for a library file and serves
it to other encore commands over RPC.

The library is a TOML file of [artists.<id>], [albums.<id>] and [songs.<id>]
tables. Song durations are in milliseconds.

Examples:
  encore serve --library ~/music/library.toml
  encore serve --addr 127.0.0.1:7700`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveLibrary, "library", "l", "", "library file (default from config)")
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	path := serveLibrary
	if path == "" {
		path = cfg.Library.File
	}
	if path == "" {
		return encerrors.WithSuggestion(
			fmt.Errorf("no library file given"),
			"Pass --library or set library.file with 'encore config set library.file <path>'")
	}

	lib, err := authority.LoadLibrary(path)
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = cfg.Authority.Addr
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	player := authority.New(lib,
		authority.WithLogger(logger),
		authority.WithRestartThreshold(cfg.Player.RestartThresholdDuration()),
	)
	defer func() { _ = player.Close() }()

	if !JSONOutput() {
		fmt.Printf("Serving %s songs on %s\n", humanize.Comma(int64(len(lib.Songs))), addr)
	}
	logger.Info("library loaded", "path", path,
		"songs", len(lib.Songs), "albums", len(lib.Albums), "artists", len(lib.Artists))

	return rpc.NewServer(player, logger).ListenAndServe(ctx, addr)
}
