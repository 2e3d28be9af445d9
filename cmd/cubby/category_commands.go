package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"cubby/internal/category"
	"cubby/internal/ipc"
)

func newCategoriesCommand(ctx *commandContext) *cobra.Command {
	categoriesCmd := &cobra.Command{
		Use:   "categories",
		Short: "List category rules and per-category move counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()

			// Prefer the daemon registry: it carries live counts and any
			// categories added over IPC. Fall back to the config-derived
			// table when the daemon is down.
			err := ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Categories()
				if err != nil {
					return err
				}
				printCategoryTable(stdout, resp.Categories)
				return nil
			})
			if err == nil {
				return nil
			}

			cfg, cfgErr := ctx.ensureConfig()
			if cfgErr != nil {
				return cfgErr
			}
			registry, regErr := category.FromConfig(cfg.Categories)
			if regErr != nil {
				return regErr
			}
			snapshot := registry.Snapshot()
			infos := make([]ipc.CategoryInfo, 0, len(snapshot))
			for _, cat := range snapshot {
				infos = append(infos, ipc.CategoryInfo{
					Name:       cat.Name,
					Folder:     cat.Folder,
					Extensions: cat.Extensions,
					Enabled:    cat.Enabled,
					Count:      cat.Count,
				})
			}
			printCategoryTable(stdout, infos)
			fmt.Fprintln(stdout, "Daemon not running; showing configured categories")
			return nil
		},
	}

	categoriesCmd.AddCommand(newCategoriesAddCommand(ctx))
	categoriesCmd.AddCommand(newCategoriesToggleCommand(ctx, "enable", true))
	categoriesCmd.AddCommand(newCategoriesToggleCommand(ctx, "disable", false))

	return categoriesCmd
}

func newCategoriesAddCommand(ctx *commandContext) *cobra.Command {
	var folder string
	cmd := &cobra.Command{
		Use:   "add NAME EXTENSIONS",
		Short: "Add a category rule (extensions comma-separated, e.g. \"pdf,docx\")",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if err := client.AddCategory(args[0], args[1], folder); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added category %q\n", strings.TrimSpace(args[0]))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&folder, "folder", "", "Destination folder name (derived from NAME when omitted)")
	return cmd
}

func newCategoriesToggleCommand(ctx *commandContext, verb string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   verb + " NAME",
		Short: strings.ToUpper(verb[:1]) + verb[1:] + " a category rule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withClient(func(client *ipc.Client) error {
				if err := client.SetCategoryEnabled(args[0], enabled); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Category %q %sd\n", args[0], verb)
				return nil
			})
		},
	}
}

func printCategoryTable(out io.Writer, categories []ipc.CategoryInfo) {
	if len(categories) == 0 {
		fmt.Fprintln(out, "No categories configured")
		return
	}
	rows := make([][]string, 0, len(categories))
	for _, cat := range categories {
		rows = append(rows, []string{
			cat.Name,
			cat.Folder,
			strings.Join(cat.Extensions, " "),
			yesNo(cat.Enabled),
			strconv.Itoa(cat.Count),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"Name", "Folder", "Extensions", "Enabled", "Moved"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignRight},
	))
}
