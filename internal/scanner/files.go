package scanner

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// rawExtensions covers the RAW container formats lightbox ingests.
var rawExtensions = map[string]struct{}{
	".arw": {},
	".cr2": {},
	".cr3": {},
	".nef": {},
	".dng": {},
	".rw2": {},
	".orf": {},
	".raf": {},
}

// CollectFrames walks root and returns the sorted absolute paths of every
// capture eligible for scanning. JPEGs join the set only when includeJPEG
// is enabled.
func CollectFrames(root string, includeJPEG bool) ([]string, error) {
	var frames []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if _, ok := rawExtensions[ext]; ok {
			frames = append(frames, path)
			return nil
		}
		if includeJPEG && (ext == ".jpg" || ext == ".jpeg") {
			frames = append(frames, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	sort.Strings(frames)
	return frames, nil
}

// Fingerprint hashes the relative names and sizes of frames under root.
// Two cards with identical contents produce identical fingerprints, so a
// re-inserted card is recognized without reading any image data.
func Fingerprint(root string, frames []string) (string, error) {
	hasher := sha256.New()
	for _, frame := range frames {
		rel, err := filepath.Rel(root, frame)
		if err != nil {
			rel = filepath.Base(frame)
		}
		info, err := os.Stat(frame)
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", frame, err)
		}
		fmt.Fprintf(hasher, "%s\x00%d\x00", filepath.ToSlash(rel), info.Size())
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// FingerprintSource is the one-call form used when enqueueing: it collects
// the eligible frames under root and fingerprints them. The frame count is
// returned so callers can skip empty sources.
func FingerprintSource(root string, includeJPEG bool) (string, int, error) {
	frames, err := CollectFrames(root, includeJPEG)
	if err != nil {
		return "", 0, err
	}
	fingerprint, err := Fingerprint(root, frames)
	if err != nil {
		return "", 0, err
	}
	return fingerprint, len(frames), nil
}
