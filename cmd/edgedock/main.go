package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/1broseidon/edgedock/internal/daemon"
	"github.com/1broseidon/edgedock/internal/ipc"
)

type globalFlags struct {
	configPath string
	socketPath string
	verbose    bool
}

var flags globalFlags

func main() {
	log.SetFlags(0)
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "edgedock",
		Short: "Dock X11 windows to screen edges",
		Long: `edgedock slides windows off a screen edge, leaving a thin strip visible.
Hovering the strip brings the window back; moving away hides it again.

Run 'edgedock daemon' once per session, then dock windows with the
configured hotkeys or the dock/undock commands.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "config file path (default: ~/.config/edgedock/config.yaml)")
	root.PersistentFlags().StringVar(&flags.socketPath, "socket", "", "daemon socket path (default: $XDG_RUNTIME_DIR/edgedock.sock)")
	root.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newDaemonCmd())
	root.AddCommand(newDockCmd())
	root.AddCommand(newUndockCmd())
	root.AddCommand(newPauseCmd())
	root.AddCommand(newResumeCmd())
	root.AddCommand(newListCmd())
	root.AddCommand(newStatusCmd())
	root.AddCommand(newReloadCmd())
	root.AddCommand(newConfigCmd())
	root.AddCommand(newMCPCmd())
	return root
}

func newDaemonCmd() *cobra.Command {
	var noHotkeys, noWatch bool
	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run the docking daemon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, level := newLogger()
			opts := daemon.Options{
				ConfigPath:     flags.configPath,
				SocketPath:     flags.socketPath,
				DisableHotkeys: noHotkeys,
				DisableWatch:   noWatch,
				Logger:         logger,
			}
			// --verbose pins the level; otherwise log_level drives it.
			if !flags.verbose {
				opts.Level = level
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return daemon.Run(ctx, opts)
		},
	}
	cmd.Flags().BoolVar(&noHotkeys, "no-hotkeys", false, "do not grab hotkeys or the drag button")
	cmd.Flags().BoolVar(&noWatch, "no-watch", false, "do not reload when config files change")
	return cmd
}

func newLogger() (*slog.Logger, *slog.LevelVar) {
	level := new(slog.LevelVar)
	if flags.verbose {
		level.Set(slog.LevelDebug)
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler), level
}

func newClient() *ipc.Client {
	if flags.socketPath != "" {
		return ipc.NewClientAt(flags.socketPath)
	}
	return ipc.NewClient()
}
