package main

import (
	"fmt"
	"io"
	"os/signal"
	"sort"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"cubby/internal/category"
	"cubby/internal/history"
	"cubby/internal/logging"
	"cubby/internal/organize"
	"cubby/internal/preflight"
)

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "organize [SOURCE] [DESTINATION]",
		Short: "Organize files from SOURCE into category folders",
		Long: "Organize scans SOURCE and moves each file into a category folder under " +
			"DESTINATION. SOURCE defaults to the configured source directory and " +
			"DESTINATION to SOURCE/Organized. Files with no matching category go to " +
			"Uncategorized.",
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrganize(ctx, cmd, args, dryRun)
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Log planned moves without touching files")
	return cmd
}

func newPreviewCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "preview [SOURCE] [DESTINATION]",
		Short: "Show what organize would do without moving files",
		Args:  cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOrganize(ctx, cmd, args, true)
		},
	}
}

func runOrganize(ctx *commandContext, cmd *cobra.Command, args []string, dryRun bool) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	stdout := cmd.OutOrStdout()

	req := organize.Request{DryRun: dryRun || cfg.Organize.DryRunDefault}
	if len(args) > 0 {
		req.SourceRoot = args[0]
	} else {
		req.SourceRoot = cfg.Paths.SourceDir
	}
	if len(args) > 1 {
		req.DestinationRoot = args[1]
	} else if len(args) == 0 {
		req.DestinationRoot = cfg.Paths.DestinationDir
	}

	if !req.DryRun {
		results := preflight.RunAll(req.SourceRoot, req.DestinationRoot)
		if !preflight.AllPassed(results) {
			colorize := shouldColorize(stdout)
			for _, result := range results {
				kind := statusOK
				if !result.Passed {
					kind = statusError
				}
				fmt.Fprintln(stdout, renderStatusLine(result.Name, kind, result.Detail, colorize))
			}
			return fmt.Errorf("preflight checks failed")
		}
	}

	registry, err := category.FromConfig(cfg.Categories)
	if err != nil {
		return err
	}

	var opts []organize.RunnerOption
	if cfg.History.Enabled {
		if store, openErr := history.Open(cfg); openErr == nil {
			defer store.Close()
			opts = append(opts, organize.WithHistory(store))
		}
	}
	runner := organize.NewRunner(registry, logging.NewNop(), opts...)

	runCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	run, err := runner.Start(runCtx, req, printObserver(stdout))
	if err != nil {
		return err
	}
	<-run.Done()

	if err := run.Err(); err != nil {
		return err
	}
	if run.Phase() == organize.PhaseAborted {
		fmt.Fprintln(stdout, "Run stopped before completion")
	}
	return nil
}

func printObserver(out io.Writer) organize.Observer {
	return organize.ObserverFunc(func(event organize.Event) {
		switch event.Kind {
		case organize.EventLog:
			fmt.Fprintln(out, event.Text)
		case organize.EventStatus:
			fmt.Fprintln(out, event.Text)
		case organize.EventSummary:
			if event.Summary != nil {
				printSummaryTable(out, *event.Summary)
			}
		case organize.EventError:
			fmt.Fprintf(out, "Error: %s\n", event.Text)
		}
	})
}

func printSummaryTable(out io.Writer, summary organize.Summary) {
	names := make([]string, 0, len(summary.Categories))
	for name := range summary.Categories {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([][]string, 0, len(names)+2)
	for _, name := range names {
		rows = append(rows, []string{name, strconv.Itoa(summary.Categories[name])})
	}
	if summary.Uncategorized > 0 {
		rows = append(rows, []string{"Uncategorized", strconv.Itoa(summary.Uncategorized)})
	}
	rows = append(rows, []string{"Total", strconv.Itoa(summary.TotalFiles)})

	fmt.Fprintln(out, renderTable(
		[]string{"Category", "Files"},
		rows,
		[]columnAlignment{alignLeft, alignRight},
	))
}
