package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/1broseidon/edgedock/internal/dock"
	"github.com/1broseidon/edgedock/internal/ipc"
)

// parseWindowID accepts decimal or 0x-prefixed hex, as printed by xwininfo.
// An empty string selects the window under the cursor.
func parseWindowID(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid window id %q", s)
	}
	return uint32(id), nil
}

func newDockCmd() *cobra.Command {
	var window string
	cmd := &cobra.Command{
		Use:       "dock <up|down|left|right>",
		Short:     "Dock a window to a screen edge",
		Long:      "Dock a window to a screen edge. Without --window the window under the cursor is docked.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"up", "down", "left", "right"},
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := dock.ParseDirection(args[0])
			if err != nil {
				return err
			}
			id, err := parseWindowID(window)
			if err != nil {
				return err
			}
			docked, err := newClient().Dock(id, dir.String())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "docked 0x%x %s\n", docked, dir)
			return nil
		},
	}
	cmd.Flags().StringVarP(&window, "window", "w", "", "window id (default: window under cursor)")
	return cmd
}

func newUndockCmd() *cobra.Command {
	var (
		window string
		reset  bool
	)
	cmd := &cobra.Command{
		Use:   "undock",
		Short: "Undock a window",
		Long:  "Undock a window. With --reset the window returns to where it was before docking.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseWindowID(window)
			if err != nil {
				return err
			}
			undocked, err := newClient().Undock(id, reset)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "undocked 0x%x\n", undocked)
			return nil
		},
	}
	cmd.Flags().StringVarP(&window, "window", "w", "", "window id (default: window under cursor)")
	cmd.Flags().BoolVar(&reset, "reset", false, "restore the pre-dock position")
	return cmd
}

func newPauseCmd() *cobra.Command {
	return newToggleCmd("pause", "Stop hiding and showing a docked window", func(c *ipc.Client, id uint32) error {
		return c.Pause(id)
	})
}

func newResumeCmd() *cobra.Command {
	return newToggleCmd("resume", "Resume a paused docked window", func(c *ipc.Client, id uint32) error {
		return c.Resume(id)
	})
}

func newToggleCmd(use, short string, do func(*ipc.Client, uint32) error) *cobra.Command {
	var window string
	cmd := &cobra.Command{
		Use:   use + " --window ID",
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseWindowID(window)
			if err != nil {
				return err
			}
			if id == 0 {
				return fmt.Errorf("%s requires --window", use)
			}
			if err := do(newClient(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%sd 0x%x\n", use, id)
			return nil
		},
	}
	cmd.Flags().StringVarP(&window, "window", "w", "", "window id")
	return cmd
}

func newListCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List docked windows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := newClient().ListDocks()
			if err != nil {
				return err
			}
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(data.Docks)
			}
			printDocks(cmd.OutOrStdout(), data.Docks)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func printDocks(w io.Writer, docks []dock.Info) {
	if len(docks) == 0 {
		fmt.Fprintln(w, "no docked windows")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WINDOW\tEDGE\tSTATE\tPAUSED\tTITLE")
	for _, d := range docks {
		fmt.Fprintf(tw, "0x%x\t%s\t%s\t%v\t%s\n", uint32(d.WindowID), d.Direction, d.State, d.Paused, d.Title)
	}
	tw.Flush()
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status, err := newClient().GetStatus()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "daemon_running: %v\n", status.DaemonRunning)
			fmt.Fprintf(out, "pid:            %d\n", status.PID)
			fmt.Fprintf(out, "dock_count:     %d\n", status.DockCount)
			fmt.Fprintf(out, "paused_count:   %d\n", status.PausedCount)
			fmt.Fprintf(out, "uptime_seconds: %d\n", status.UptimeSeconds)
			return nil
		},
	}
}

func newReloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reload",
		Short: "Ask the daemon to re-read its configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := newClient().Reload(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "config reloaded")
			return nil
		},
	}
}
