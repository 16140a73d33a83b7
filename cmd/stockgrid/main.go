package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/five82/stockgrid/internal/app"
)

var errNoTerminal = errors.New("the grid needs an interactive terminal; use `stockgrid serve` for headless runs")

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "stockgrid: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var opts app.Options

	root := &cobra.Command{
		Use:   "stockgrid",
		Short: "Browse and edit a product catalog in the terminal",
		Long: `stockgrid shows a product catalog as a paged, sortable grid with
inline add, edit and remove. Products come from a JSON or YAML file, a
stockgrid HTTP server, or a MongoDB collection.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd()) {
				return errNoTerminal
			}
			return app.Run(cmd.Context(), opts)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", "", "config file path (default ~/.config/stockgrid/config.toml)")
	flags.StringVar(&opts.EnvFile, "env-file", "", "dotenv file read before the config (default ./.env)")
	flags.StringVar(&opts.PrefsPath, "prefs", "", "preferences file path (default ~/.config/stockgrid/prefs.toml)")
	flags.StringVar(&opts.Source, "source", "", "product source: file, http or mongo")
	flags.IntVar(&opts.PageSize, "page-size", 0, "rows per page (overrides config and preferences)")
	flags.StringVar(&opts.LogLevel, "log-level", "info", "log level: debug, info, warn or error")

	root.AddCommand(newServeCmd(&opts))
	return root
}

func newServeCmd(base *app.Options) *cobra.Command {
	var listen string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Expose the configured product source over HTTP",
		Long: `serve runs the product REST API on top of the configured source so
other stockgrid instances can use it with --source http.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.Serve(cmd.Context(), app.ServeOptions{Options: *base, Listen: listen})
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default from config, 127.0.0.1:7600)")
	return cmd
}
