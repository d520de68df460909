package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/five82/logdeck/internal/app"
	"github.com/five82/logdeck/internal/config"
	"github.com/five82/logdeck/internal/prefs"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "logdeck: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	var opts app.Options

	root := &cobra.Command{
		Use:   "logdeck",
		Short: "In-app debug console for terminal programs",
		Long: `logdeck layers a debug console over a terminal application. The console
collects log lines, filters them, and exports them to a file.

Press the toggle key (ctrl+t by default) to show or hide it.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return app.Run(cmd.Context(), opts)
		},
	}
	root.SetVersionTemplate(`{{printf "logdeck version %s\n" .Version}}`)

	flags := root.PersistentFlags()
	flags.StringVar(&opts.ConfigPath, "config", "", "config path (default "+config.DefaultPath()+")")
	flags.StringVar(&opts.FollowPath, "follow", "", "log file to load into the console")
	flags.IntVar(&opts.Tail, "tail", 0, "lines of the followed file to load up front")

	root.Flags().StringVar(&opts.PrefsPath, "prefs", "", "prefs path (default "+prefs.DefaultPath()+")")
	root.Flags().IntVar(&opts.PollEvery, "poll", 0, "heartbeat interval in seconds (optional, defaults to 2s)")

	root.AddCommand(newVersionCmd(), newExportCmd(&opts))
	return root
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of logdeck",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "logdeck version %s\n", version)
		},
	}
}

func newExportCmd(opts *app.Options) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Export a log file without starting the UI",
		Long: `export reads the file given with --follow through the same parser the
console uses and writes it to the configured export directory.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			exportOpts := *opts
			exportOpts.Output = cmd.ErrOrStderr()
			path, err := app.ExportFile(cmd.Context(), exportOpts)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	}
}
