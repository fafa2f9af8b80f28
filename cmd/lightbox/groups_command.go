package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"lightbox/internal/queueaccess"
)

func newGroupsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "groups <itemID>",
		Short: "Show the stack plan recorded for a queue item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid item id %q", args[0])
			}
			return ctx.withQueue(func(qa queueaccess.Access) error {
				report, err := qa.Groups(cmd.Context(), id)
				if err != nil {
					return err
				}
				if report == nil {
					return fmt.Errorf("item %d not found", id)
				}
				if ctx.JSONMode() {
					return writeJSON(cmd, report)
				}

				out := cmd.OutOrStdout()
				if len(report.Stacks) == 0 {
					fmt.Fprintln(out, "No stacks recorded yet; the item may still be waiting for grouping")
					return nil
				}
				if session := strings.TrimSpace(report.Session); session != "" {
					fmt.Fprintf(out, "Session: %s\n", session)
				}
				fmt.Fprint(out, renderStackTable(report.Stacks))
				return nil
			})
		},
	}
}
