package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"lightbox/internal/api"
	"lightbox/internal/confidence"
	"lightbox/internal/exposure"
	"lightbox/internal/grouper"
	"lightbox/internal/grouping"
	"lightbox/internal/organizer"
	"lightbox/internal/queueaccess"
	"lightbox/internal/scanner"
	"lightbox/internal/services/exiftool"
	"lightbox/internal/stackplan"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "run <directory>",
		Short: "Group a directory in one pass and print the stack plan",
		Long: "Scans and groups a directory inline, without the daemon or queue. " +
			"Nothing is written to staging or the library; use `lightbox add` to ingest for real.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			absPath, err := filepath.Abs(strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			info, err := os.Stat(absPath)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("directory does not exist: %s", absPath)
				}
				return fmt.Errorf("stat %s: %w", absPath, err)
			}
			if !info.IsDir() {
				return fmt.Errorf("%s is not a directory", absPath)
			}

			frames, err := scanner.CollectFrames(absPath, cfg.Exiftool.IncludeJPEG)
			if err != nil {
				return fmt.Errorf("list source files: %w", err)
			}
			if len(frames) == 0 {
				return fmt.Errorf("no camera files found under %s", absPath)
			}

			client, err := exiftool.New(cfg.ExiftoolBinary(), cfg.Exiftool.BatchSize, cfg.Exiftool.ExtractTimeout)
			if err != nil {
				return fmt.Errorf("exiftool unavailable: %w", err)
			}
			entries, err := client.Extract(cmd.Context(), frames)
			if err != nil {
				return fmt.Errorf("extract metadata: %w", err)
			}

			records := make([]exposure.Record, 0, len(entries))
			dropped := 0
			for _, fields := range entries {
				record, ok := exposure.BuildRecord(fields)
				if !ok {
					dropped++
					continue
				}
				records = append(records, record)
			}
			if len(records) == 0 {
				return fmt.Errorf("no files carried usable capture timestamps under %s", absPath)
			}

			groups := grouping.Pipeline(records, grouper.GroupingParams(cfg))
			scoreParams := grouper.ConfidenceParams(cfg)
			env := stackplan.Envelope{
				Session: scanner.DeriveSessionLabel(absPath),
				Groups:  make([]stackplan.Group, 0, len(groups)),
			}
			for idx, members := range groups {
				group := stackplan.Group{
					Index:      idx + 1,
					Records:    members,
					Confidence: confidence.Score(members, scoreParams),
				}
				group.FolderName = organizer.GroupFolderName(group.Index, members)
				env.Groups = append(env.Groups, group)
			}

			stacks := api.StacksFromPlan(env)
			if ctx.JSONMode() {
				return writeJSON(cmd, queueaccess.GroupReport{Session: env.Session, Stacks: stacks})
			}

			out := cmd.OutOrStdout()
			summary := env.Counts()
			fmt.Fprintf(out, "Session: %s\n", env.Session)
			if dropped > 0 {
				fmt.Fprintf(out, "Skipped %d files without usable timestamps\n", dropped)
			}
			fmt.Fprintf(out, "%d shots in %d stacks (%d approved, %d review, %d hold)\n",
				len(records), summary.Groups, summary.Approved, summary.Review, summary.Hold)
			fmt.Fprint(out, renderStackTable(stacks))
			return nil
		},
	}
}
