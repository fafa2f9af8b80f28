// Package staging maintains the on-disk staging area where pipeline stages
// park per-item artifacts (shots.json, groups.json). Directories are keyed by
// the item's uppercase source fingerprint, with queue-<id> as the fallback for
// items that never produced one. Items removed from the queue leave their
// directories behind; the cleanup helpers reclaim that space.
package staging

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"lightbox/internal/logging"
)

// Result reports the outcome of one cleanup pass.
type Result struct {
	Removed []string
	Errors  []Failure
}

// Failure pairs a directory with the error that kept it in place.
type Failure struct {
	Path string
	Err  error
}

// CleanStale removes staging directories whose contents have not changed for
// maxAge. A zero maxAge removes every directory.
func CleanStale(ctx context.Context, root string, maxAge time.Duration, logger *slog.Logger) Result {
	var result Result

	root, entries, ok := readRoot(root, &result)
	if !ok {
		return result
	}

	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if ctx.Err() != nil {
			return result
		}
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(root, entry.Name())
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, Failure{Path: path, Err: err})
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		removeDir(&result, path, logger, logging.Duration("age", time.Since(info.ModTime())))
	}
	return result
}

// CleanOrphaned removes fingerprint-keyed directories that no queue item
// claims. Directories using the queue-<id> fallback name cannot be matched by
// fingerprint and are left for the age-based pass.
func CleanOrphaned(ctx context.Context, root string, active map[string]struct{}, logger *slog.Logger) Result {
	var result Result

	root, entries, ok := readRoot(root, &result)
	if !ok {
		return result
	}

	for _, entry := range entries {
		if ctx.Err() != nil {
			return result
		}
		if !entry.IsDir() {
			continue
		}
		if strings.HasPrefix(strings.ToLower(entry.Name()), "queue-") {
			continue
		}
		if _, claimed := active[strings.ToUpper(entry.Name())]; claimed {
			continue
		}
		removeDir(&result, filepath.Join(root, entry.Name()), logger)
	}
	return result
}

func readRoot(root string, result *Result) (string, []os.DirEntry, bool) {
	root = strings.TrimSpace(root)
	if root == "" {
		return "", nil, false
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, Failure{Path: root, Err: err})
		}
		return root, nil, false
	}
	return root, entries, true
}

func removeDir(result *Result, path string, logger *slog.Logger, attrs ...logging.Attr) {
	if err := os.RemoveAll(path); err != nil {
		result.Errors = append(result.Errors, Failure{Path: path, Err: err})
		logging.WarnWithContext(logger, "staging directory not removed", "staging_cleanup_failed",
			append(attrs,
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check staging_dir permissions"),
				logging.String(logging.FieldImpact, "disk space not reclaimed"),
			)...,
		)
		return
	}
	result.Removed = append(result.Removed, path)
	if logger != nil {
		logger.Info("removed staging directory",
			logging.Args(append(attrs,
				logging.String("path", path),
				logging.String(logging.FieldEventType, "staging_cleanup"),
			)...)...,
		)
	}
}

// DirInfo describes one staging directory.
type DirInfo struct {
	Name    string
	Path    string
	ModTime time.Time
	Size    int64
}

// ListDirectories returns every staging directory with its age and size.
func ListDirectories(root string) ([]DirInfo, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var dirs []DirInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		path := filepath.Join(root, entry.Name())
		size, _ := dirSize(path)
		dirs = append(dirs, DirInfo{Name: entry.Name(), Path: path, ModTime: info.ModTime(), Size: size})
	}
	return dirs, nil
}

func dirSize(path string) (int64, error) {
	var total int64
	err := filepath.Walk(path, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	return total, err
}
