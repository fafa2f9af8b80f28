package api

import (
	"context"
	"errors"
	"strings"

	"lightbox/internal/staging"
)

// ActiveFingerprintProvider surfaces the queue fingerprints that still claim
// a staging directory.
type ActiveFingerprintProvider interface {
	ActiveFingerprints(ctx context.Context) (map[string]struct{}, error)
}

// CleanStagingRequest selects which staging directories to remove.
type CleanStagingRequest struct {
	StagingDir   string
	CleanAll     bool
	Fingerprints ActiveFingerprintProvider
}

// CleanStagingResult reports what a cleanup pass removed.
type CleanStagingResult struct {
	Configured bool
	Scope      string
	Cleanup    staging.Result
}

// CleanStagingDirectories applies the staging cleanup policy shared by the
// CLI: CleanAll removes every directory, the default removes only the
// directories no queue item claims.
func CleanStagingDirectories(ctx context.Context, req CleanStagingRequest) (CleanStagingResult, error) {
	root := strings.TrimSpace(req.StagingDir)
	if root == "" {
		return CleanStagingResult{}, nil
	}

	if req.CleanAll {
		return CleanStagingResult{
			Configured: true,
			Scope:      "staging",
			Cleanup:    staging.CleanStale(ctx, root, 0, nil),
		}, nil
	}

	if req.Fingerprints == nil {
		return CleanStagingResult{}, errors.New("active fingerprint provider is required for orphan cleanup")
	}
	fingerprints, err := req.Fingerprints.ActiveFingerprints(ctx)
	if err != nil {
		return CleanStagingResult{}, err
	}
	return CleanStagingResult{
		Configured: true,
		Scope:      "orphaned staging",
		Cleanup:    staging.CleanOrphaned(ctx, root, fingerprints, nil),
	}, nil
}
