package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"cubby/internal/daemonctl"
	"cubby/internal/ipc"
)

func newDaemonLifecycleCommands(ctx *commandContext) []*cobra.Command {
	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start the cubby daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.EnsureStarted(
				ctx.socketPath(),
				exe,
				daemonLaunchOptions(ctx),
				10*time.Second,
			)
			if err != nil {
				return err
			}

			switch result.State {
			case daemonctl.StartStateStarted:
				if result.PID > 0 {
					fmt.Fprintf(stdout, "Daemon started (pid %d)\n", result.PID)
				} else {
					fmt.Fprintln(stdout, "Daemon started")
				}
			case daemonctl.StartStateAlreadyRunning:
				fmt.Fprintln(stdout, "Daemon already running")
			}
			return nil
		},
	}

	stopDaemonCmd := &cobra.Command{
		Use:   "stop-daemon",
		Short: "Stop the cubby daemon (completely terminates the process)",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			result, err := daemonctl.StopAndTerminate(ctx.configValue(), 5*time.Second)
			if errors.Is(err, daemonctl.ErrDaemonNotRunning) {
				fmt.Fprintln(stdout, "Daemon is not running")
				return nil
			}
			if err != nil {
				return err
			}
			if result.ForcedKill && result.PID > 0 {
				fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", result.PID)
			}
			fmt.Fprintln(stdout, "Daemon stopped")
			return nil
		},
	}

	restartCmd := &cobra.Command{
		Use:   "restart",
		Short: "Restart the cubby daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			exe, err := daemonExecutable()
			if err != nil {
				return err
			}

			result, err := daemonctl.Restart(
				ctx.configValue(),
				exe,
				daemonLaunchOptions(ctx),
				5*time.Second,
				10*time.Second,
			)
			if err != nil {
				return err
			}

			if result.WasRunning {
				if result.Stop.ForcedKill && result.Stop.PID > 0 {
					fmt.Fprintf(stdout, "Stopping daemon process (pid %d)...\n", result.Stop.PID)
				}
				fmt.Fprintln(stdout, "Daemon stopped")
			}
			fmt.Fprintln(stdout, "Daemon restarted")
			return nil
		},
	}

	return []*cobra.Command{startCmd, stopDaemonCmd, restartCmd}
}

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and run status",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			colorize := shouldColorize(stdout)

			for _, line := range renderSectionHeader("Daemon Status", colorize) {
				fmt.Fprintln(stdout, line)
			}

			client, err := ctx.dialClient()
			if err != nil {
				fmt.Fprintln(stdout, renderStatusLine("Cubby", statusWarn, "Not running (run `cubby start`)", colorize))
				return nil
			}
			defer client.Close()

			status, err := client.Status()
			if err != nil {
				return err
			}
			for _, line := range statusLines(status, colorize) {
				fmt.Fprintln(stdout, line)
			}
			return nil
		},
	}
}

func newStopCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Stop the active organization run",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.StopRun()
				if err != nil {
					return err
				}
				stdout := cmd.OutOrStdout()
				if resp.Stopped {
					fmt.Fprintln(stdout, "Stop requested; the run will finish its current file and abort")
				} else {
					fmt.Fprintln(stdout, "No active run to stop")
				}
				return nil
			})
		},
	}
}

func statusLines(status *ipc.StatusResponse, colorize bool) []string {
	lines := make([]string, 0, 8)
	detail := "Running"
	if status.PID > 0 {
		detail = fmt.Sprintf("Running (pid %d, since %s)", status.PID, status.StartedAt.Local().Format("15:04:05"))
	}
	lines = append(lines, renderStatusLine("Cubby", statusOK, detail, colorize))

	if status.WatchActive {
		lines = append(lines, renderStatusLine("Watch", statusOK, "Active", colorize))
	} else {
		lines = append(lines, renderStatusLine("Watch", statusInfo, "Disabled", colorize))
	}
	if status.ScheduleActive {
		lines = append(lines, renderStatusLine("Schedule", statusOK, "Active", colorize))
	} else {
		lines = append(lines, renderStatusLine("Schedule", statusInfo, "Disabled", colorize))
	}

	if strings.TrimSpace(status.DatabasePath) != "" {
		lines = append(lines, renderStatusLine("History", statusOK, status.DatabasePath, colorize))
	} else {
		lines = append(lines, renderStatusLine("History", statusInfo, "Disabled", colorize))
	}

	if status.Run != nil {
		mode := "execute"
		if status.Run.DryRun {
			mode = "dry-run"
		}
		lines = append(lines, renderStatusLine("Run", statusOK,
			fmt.Sprintf("%s %s %d%% (%s)", shortRunID(status.Run.ID), status.Run.Phase, status.Run.Progress, mode),
			colorize))
	} else {
		lines = append(lines, renderStatusLine("Run", statusInfo, "Idle", colorize))
	}
	return lines
}

func daemonExecutable() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("resolve executable: %w", err)
	}
	return exe, nil
}

func daemonLaunchOptions(ctx *commandContext) daemonctl.LaunchOptions {
	opts := daemonctl.LaunchOptions{}
	if ctx.configFlag != nil {
		if configPath := strings.TrimSpace(*ctx.configFlag); configPath != "" {
			opts.ConfigPath = configPath
		}
	}
	return opts
}
