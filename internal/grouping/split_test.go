package grouping_test

import (
	"fmt"
	"testing"

	"lightbox/internal/exposure"
	"lightbox/internal/grouping"
)

func bracketRun(evs []*float64) []exposure.Record {
	records := make([]exposure.Record, len(evs))
	for i, value := range evs {
		record := shot(fmt.Sprintf("s%02d", i), float64(i), fnum(8), focal(35))
		record.EV = value
		records[i] = record
	}
	return records
}

func evRun(values ...float64) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		out[i] = exposure.Float(v)
	}
	return out
}

func TestSplitPassesThroughSmallClusters(t *testing.T) {
	cluster := bracketRun(evRun(-2, -1, 0, 1, 2, 1, 0))
	groups := grouping.Split(cluster, grouping.DefaultParams())
	if len(groups) != 1 || len(groups[0]) != 7 {
		t.Fatalf("expected 7-shot cluster to pass through, got sizes %v", clusterSizes(groups))
	}
}

func TestSplitOnDirectionReversal(t *testing.T) {
	// Rises -2..+2 then falls back toward the start: two stacks shot
	// back-to-back.
	cluster := bracketRun(evRun(-2, -1, 0, 1, 2, 1, 0, -1, -2))
	groups := grouping.Split(cluster, grouping.DefaultParams())
	if !sizesEqual(clusterSizes(groups), 5, 4) {
		t.Fatalf("expected reversal split into 5+4, got %v", clusterSizes(groups))
	}
	if groups[0][0].Path != "s00" || groups[1][0].Path != "s05" {
		t.Fatalf("expected reversal point to start the second group, got %q and %q",
			groups[0][0].Path, groups[1][0].Path)
	}
}

func TestSplitHardCapsStackSize(t *testing.T) {
	evs := make([]*float64, 16)
	for i := range evs {
		evs[i] = exposure.Float(0)
	}
	groups := grouping.Split(bracketRun(evs), grouping.DefaultParams())
	if !sizesEqual(clusterSizes(groups), 7, 7, 2) {
		t.Fatalf("expected hard cap split into 7+7+2, got %v", clusterSizes(groups))
	}
}

func TestSplitDirectionIsSticky(t *testing.T) {
	// The -0.5 dip at s03 opposes the ascending direction but stays under
	// the reversal threshold, so only the hard cap splits.
	cluster := bracketRun(evRun(0, 0.5, 1.0, 0.5, 1.0, 1.5, 2.0, 2.5, 3.0))
	groups := grouping.Split(cluster, grouping.DefaultParams())
	if !sizesEqual(clusterSizes(groups), 7, 2) {
		t.Fatalf("expected only the hard cap to split, got %v", clusterSizes(groups))
	}
}

func TestSplitBackToStartWithNarrowRange(t *testing.T) {
	// The flip at s02 returns within 0.4 stops of the start while the
	// running range is still under a full bracket.
	cluster := bracketRun(evRun(0, 0.5, -0.2, 0, 0.1, 0, 0.1, 0))
	groups := grouping.Split(cluster, grouping.DefaultParams())
	if !sizesEqual(clusterSizes(groups), 2, 6) {
		t.Fatalf("expected back-to-start split into 2+6, got %v", clusterSizes(groups))
	}
}

func TestSplitUndefinedExposuresAccumulate(t *testing.T) {
	evs := append(evRun(-2, -1, 0, 1, 2), nil, nil, nil, nil)
	groups := grouping.Split(bracketRun(evs), grouping.DefaultParams())
	if !sizesEqual(clusterSizes(groups), 7, 2) {
		t.Fatalf("expected undefined exposures to join without triggering, got %v", clusterSizes(groups))
	}
}

func TestSplitOnGapOrSetupFailure(t *testing.T) {
	records := bracketRun(evRun(0, 0, 0, 0, 0, 0, 0, 0))
	// Push the back half far past the allowed gap.
	for i := 4; i < len(records); i++ {
		records[i] = shot(records[i].Path, float64(100+i), fnum(8), focal(35))
		records[i].EV = exposure.Float(0)
	}
	groups := grouping.Split(records, grouping.DefaultParams())
	if !sizesEqual(clusterSizes(groups), 4, 4) {
		t.Fatalf("expected gap failure to split into 4+4, got %v", clusterSizes(groups))
	}
}
