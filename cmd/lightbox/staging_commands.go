package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"lightbox/internal/api"
	"lightbox/internal/logging"
	"lightbox/internal/queueaccess"
	"lightbox/internal/staging"
)

func newStagingCommand(ctx *commandContext) *cobra.Command {
	stagingCmd := &cobra.Command{
		Use:   "staging",
		Short: "Manage staging directories",
	}

	stagingCmd.AddCommand(newStagingListCommand(ctx))
	stagingCmd.AddCommand(newStagingCleanCommand(ctx))

	return stagingCmd
}

func newStagingListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List staging directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			stagingDir := strings.TrimSpace(cfg.Paths.StagingDir)
			if stagingDir == "" {
				if ctx.JSONMode() {
					return writeJSON(cmd, map[string]any{
						"staging_dir":      "",
						"directories":      []any{},
						"total_size_bytes": 0,
					})
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Staging directory not configured")
				return nil
			}

			dirs, err := staging.ListDirectories(stagingDir)
			if err != nil {
				return fmt.Errorf("list staging directories: %w", err)
			}

			if ctx.JSONMode() {
				if dirs == nil {
					dirs = []staging.DirInfo{}
				}
				var totalSize int64
				for _, dir := range dirs {
					totalSize += dir.Size
				}
				return writeJSON(cmd, map[string]any{
					"staging_dir":      stagingDir,
					"directories":      dirs,
					"total_size_bytes": totalSize,
				})
			}

			if len(dirs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No staging directories found")
				return nil
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Staging directory: %s\n\n", stagingDir)

			var totalSize int64
			rows := make([][]string, 0, len(dirs))
			for _, dir := range dirs {
				age := time.Since(dir.ModTime).Truncate(time.Minute)
				totalSize += dir.Size
				rows = append(rows, []string{truncateDirName(dir.Name), formatAge(age), logging.FormatBytes(dir.Size)})
			}

			table := renderTable(
				[]string{"Directory", "Age", "Size"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight},
			)
			fmt.Fprint(out, table)
			fmt.Fprintf(out, "\nTotal: %d directories, %s\n", len(dirs), logging.FormatBytes(totalSize))
			return nil
		},
	}
}

func newStagingCleanCommand(ctx *commandContext) *cobra.Command {
	var cleanAll bool

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove orphaned staging directories",
		Long: `Remove staging directories not associated with any queue item.

By default, only directories left behind by cleared or deleted queue entries
are removed. Use --all to remove every staging directory regardless of queue
status.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			req := api.CleanStagingRequest{
				StagingDir: cfg.Paths.StagingDir,
				CleanAll:   cleanAll,
			}
			if cleanAll {
				// Removing everything needs no fingerprint set, so skip
				// the queue entirely.
				result, err := api.CleanStagingDirectories(cmd.Context(), req)
				if err != nil {
					return err
				}
				return renderStagingClean(cmd, ctx, result)
			}
			return ctx.withQueue(func(qa queueaccess.Access) error {
				req.Fingerprints = qa
				result, err := api.CleanStagingDirectories(cmd.Context(), req)
				if err != nil {
					return err
				}
				return renderStagingClean(cmd, ctx, result)
			})
		},
	}

	cmd.Flags().BoolVar(&cleanAll, "all", false, "Remove all staging directories (including active)")

	return cmd
}

func renderStagingClean(cmd *cobra.Command, ctx *commandContext, result api.CleanStagingResult) error {
	if !result.Configured {
		if ctx.JSONMode() {
			return writeJSON(cmd, map[string]any{"removed": 0, "errors": []any{}})
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Staging directory not configured")
		return nil
	}
	if ctx.JSONMode() {
		errs := make([]string, 0, len(result.Cleanup.Errors))
		for _, failure := range result.Cleanup.Errors {
			errs = append(errs, fmt.Sprintf("%s: %v", failure.Path, failure.Err))
		}
		return writeJSON(cmd, map[string]any{
			"removed": len(result.Cleanup.Removed),
			"errors":  errs,
		})
	}
	return printStagingClean(cmd, result.Cleanup, result.Scope)
}

func printStagingClean(cmd *cobra.Command, result staging.Result, label string) error {
	out := cmd.OutOrStdout()
	if len(result.Removed) == 0 && len(result.Errors) == 0 {
		fmt.Fprintf(out, "No %s directories to clean\n", label)
		return nil
	}
	if len(result.Errors) > 0 {
		fmt.Fprintf(out, "Removed %d %s directories, %d errors\n", len(result.Removed), label, len(result.Errors))
		for _, failure := range result.Errors {
			fmt.Fprintf(out, "  Error: %s: %v\n", failure.Path, failure.Err)
		}
		return nil
	}
	fmt.Fprintf(out, "Removed %d %s directories\n", len(result.Removed), label)
	return nil
}

func truncateDirName(name string) string {
	if len(name) > 12 {
		return name[:12]
	}
	return name
}

func formatAge(d time.Duration) string {
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dd", int(d.Hours()/24))
}
