package preflight

import (
	"context"
	"strings"

	"lightbox/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Directory checks cover every path the pipeline touches; the exiftool
// probe confirms the scanner can actually spawn its extractor.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result

	// Staging directory (always checked)
	results = append(results, CheckDirectoryAccess("Staging directory", cfg.Paths.StagingDir))

	// Library directory (when configured)
	if cfg.Paths.LibraryDir != "" {
		results = append(results, CheckDirectoryAccess("Library directory", cfg.Paths.LibraryDir))
	}

	// Log directory (when configured)
	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	// Watch directories only need read access; card mounts are often read-only.
	for _, dir := range cfg.Paths.WatchDirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		results = append(results, CheckDirectoryReadable("Watch directory", dir))
	}

	results = append(results, CheckExiftool(ctx, cfg.ExiftoolBinary()))

	return results
}
