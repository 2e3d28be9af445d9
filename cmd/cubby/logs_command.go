package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"cubby/internal/ipc"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var follow bool
	var limit int
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent daemon log output",
		RunE: func(cmd *cobra.Command, args []string) error {
			stdout := cmd.OutOrStdout()
			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.TailLogs(ipc.TailLogsRequest{Limit: limit})
				if err != nil {
					return err
				}
				printLogLines(stdout, resp.Events)
				if !follow {
					return nil
				}

				cursor := resp.Cursor
				for {
					select {
					case <-cmd.Context().Done():
						return nil
					default:
					}
					batch, err := client.TailLogs(ipc.TailLogsRequest{
						Cursor:     cursor,
						Limit:      limit,
						WaitMillis: 5000,
					})
					if err != nil {
						return err
					}
					printLogLines(stdout, batch.Events)
					cursor = batch.Cursor
				}
			})
		},
	}
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep streaming new log events")
	cmd.Flags().IntVar(&limit, "limit", 100, "Maximum events per fetch")
	return cmd
}

func printLogLines(out io.Writer, events []ipc.LogLine) {
	for _, event := range events {
		var b strings.Builder
		b.WriteString(event.Timestamp.Local().Format("15:04:05.000"))
		b.WriteString(" ")
		b.WriteString(strings.ToUpper(event.Level))
		if event.Component != "" {
			b.WriteString(" [")
			b.WriteString(event.Component)
			b.WriteString("]")
		}
		b.WriteString(" ")
		b.WriteString(event.Message)
		if event.RunID != "" {
			b.WriteString(" run=")
			b.WriteString(shortRunID(event.RunID))
		}
		if len(event.Fields) > 0 {
			keys := make([]string, 0, len(event.Fields))
			for key := range event.Fields {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				b.WriteString(" ")
				b.WriteString(key)
				b.WriteString("=")
				b.WriteString(event.Fields[key])
			}
		}
		fmt.Fprintln(out, b.String())
	}
}
