package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"lightbox/internal/queue"
	"lightbox/internal/scanner"
)

func newAddCommand(ctx *commandContext) *cobra.Command {
	var label string

	cmd := &cobra.Command{
		Use:   "add <directory>",
		Short: "Add a card or session directory to the ingest queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			absPath, err := filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}

			info, err := os.Stat(absPath)
			if err != nil {
				if errors.Is(err, os.ErrNotExist) {
					return fmt.Errorf("directory does not exist: %s", absPath)
				}
				return fmt.Errorf("inspect directory: %w", err)
			}
			if !info.IsDir() {
				return fmt.Errorf("%s is not a directory", absPath)
			}

			out := cmd.OutOrStdout()

			// The daemon path keeps dedup and notifications in one place;
			// the offline path enqueues directly so ingest can be staged
			// before the daemon comes up.
			if client, dialErr := ctx.dialClient(); dialErr == nil {
				defer client.Close()
				resp, err := client.AddSource(absPath, label)
				if err != nil {
					return err
				}
				if resp == nil {
					return errors.New("empty response from daemon")
				}
				if resp.Created {
					fmt.Fprintf(out, "Queued source as item #%d (%s)\n", resp.Item.ID, resp.Item.SessionLabel)
				} else {
					fmt.Fprintf(out, "Source already queued as item #%d\n", resp.Item.ID)
				}
				return nil
			}

			return addSourceOffline(cmd, ctx, absPath, label)
		},
	}

	cmd.Flags().StringVarP(&label, "label", "l", "", "Session label for the queued source")
	return cmd
}

func addSourceOffline(cmd *cobra.Command, ctx *commandContext, absPath, label string) error {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return err
	}
	store, err := queue.Open(cfg)
	if err != nil {
		return fmt.Errorf("open queue store: %w", err)
	}
	defer store.Close()

	fingerprint, frames, err := scanner.FingerprintSource(absPath, cfg.Exiftool.IncludeJPEG)
	if err != nil {
		return fmt.Errorf("fingerprint source: %w", err)
	}
	if frames == 0 {
		return fmt.Errorf("no camera files found under %s", absPath)
	}

	existing, err := store.FindByFingerprint(cmd.Context(), fingerprint)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if existing != nil {
		fmt.Fprintf(out, "Source already queued as item #%d\n", existing.ID)
		return nil
	}

	if strings.TrimSpace(label) == "" {
		label = filepath.Base(absPath)
	}
	item, err := store.NewSource(cmd.Context(), absPath, label, fingerprint)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Queued source as item #%d (%s)\n", item.ID, item.SessionLabel)
	return nil
}
