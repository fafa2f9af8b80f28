package confidence_test

import (
	"fmt"
	"reflect"
	"testing"
	"time"

	"lightbox/internal/confidence"
	"lightbox/internal/exposure"
)

var baseTime = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func shot(offsetSec float64, mods ...func(*exposure.Record)) exposure.Record {
	record := exposure.Record{
		Path: fmt.Sprintf("shot_%05.1f", offsetSec),
		Time: baseTime.Add(time.Duration(offsetSec * float64(time.Second))),
	}
	for _, mod := range mods {
		mod(&record)
	}
	return record
}

func ev(v float64) func(*exposure.Record) {
	return func(r *exposure.Record) { r.EV = exposure.Float(v) }
}

func shutter(v float64) func(*exposure.Record) {
	return func(r *exposure.Record) { r.Shutter = exposure.Float(v) }
}

func fnum(v float64) func(*exposure.Record) {
	return func(r *exposure.Record) { r.FNumber = exposure.Float(v) }
}

func focal(v float64) func(*exposure.Record) {
	return func(r *exposure.Record) { r.Focal = exposure.Float(v) }
}

func TestScoreFullBracketAutoApproves(t *testing.T) {
	var records []exposure.Record
	for i, bias := range []float64{-2, -1, 0, 1, 2} {
		records = append(records, shot(float64(i), ev(bias), fnum(8), focal(35)))
	}

	result := confidence.Score(records, confidence.DefaultParams())
	if result.Score != 1.0 {
		t.Fatalf("expected full score, got %v", result.Score)
	}
	if !result.AutoApproved || result.NeedsReview || result.AutoHold {
		t.Fatalf("expected auto approval, got %+v", result)
	}
	if !result.IsHDRCandidate {
		t.Fatal("expected HDR candidate flag")
	}
	want := []string{"ev_range_ok", "shot_count_5", "time_gap_ok", "same_aperture", "same_focal_length"}
	if !reflect.DeepEqual(result.Reasons, want) {
		t.Fatalf("unexpected reasons: got %v want %v", result.Reasons, want)
	}
}

func TestScoreSingletonHolds(t *testing.T) {
	result := confidence.Score([]exposure.Record{shot(0)}, confidence.DefaultParams())
	if result.Score != 0 {
		t.Fatalf("expected zero score, got %v", result.Score)
	}
	if !result.AutoHold {
		t.Fatalf("expected auto hold, got %+v", result)
	}
	want := []string{"shot_count_out_of_range", "time_gap_ok"}
	if !reflect.DeepEqual(result.Reasons, want) {
		t.Fatalf("unexpected reasons: %v", result.Reasons)
	}
}

func TestScoreMissingApertureNeverBreaksStability(t *testing.T) {
	records := []exposure.Record{
		shot(0),
		shot(1, fnum(5.6)),
		shot(2, fnum(5.6)),
	}
	result := confidence.Score(records, confidence.DefaultParams())
	want := []string{"shot_count_3", "time_gap_ok", "same_aperture"}
	if !reflect.DeepEqual(result.Reasons, want) {
		t.Fatalf("unexpected reasons: %v", result.Reasons)
	}
	if result.Score != 0.55 {
		t.Fatalf("unexpected score: %v", result.Score)
	}
	if !result.AutoHold {
		t.Fatalf("expected auto hold below review threshold, got %+v", result)
	}
}

func TestScoreTimeGapUsesDynamicRule(t *testing.T) {
	apart := []exposure.Record{shot(0), shot(600)}
	result := confidence.Score(apart, confidence.DefaultParams())
	if len(result.Reasons) != 0 {
		t.Fatalf("expected no rules to apply, got %v", result.Reasons)
	}
	if result.Score != 0 || !result.AutoHold {
		t.Fatalf("expected zero hold, got %+v", result)
	}

	// A 2s exposure stretches the allowed spacing past 5s.
	long := []exposure.Record{shot(0, shutter(2.0)), shot(5, shutter(2.0))}
	result = confidence.Score(long, confidence.DefaultParams())
	want := []string{"time_gap_ok"}
	if !reflect.DeepEqual(result.Reasons, want) {
		t.Fatalf("expected dynamic gap bonus, got %v", result.Reasons)
	}
}

func TestScoreHDRCandidateRequiresTwoReportedBiases(t *testing.T) {
	records := []exposure.Record{
		shot(0, ev(-2)),
		shot(1),
		shot(2),
	}
	result := confidence.Score(records, confidence.DefaultParams())
	if result.IsHDRCandidate {
		t.Fatal("expected no HDR flag with a single reported bias")
	}

	narrow := []exposure.Record{shot(0, ev(0)), shot(1, ev(0.5))}
	if confidence.Score(narrow, confidence.DefaultParams()).IsHDRCandidate {
		t.Fatal("expected 0.5 stop spread to stay under the HDR threshold")
	}

	exact := []exposure.Record{shot(0, ev(0)), shot(1, ev(0.6))}
	if !confidence.Score(exact, confidence.DefaultParams()).IsHDRCandidate {
		t.Fatal("expected 0.6 stop spread to reach the HDR threshold")
	}
}

func TestScoreReviewBoundary(t *testing.T) {
	records := []exposure.Record{
		shot(0, fnum(8), focal(35)),
		shot(1, fnum(8), focal(35)),
		shot(2, fnum(8), focal(35)),
	}
	result := confidence.Score(records, confidence.DefaultParams())
	if result.Score != 0.65 {
		t.Fatalf("unexpected score: %v", result.Score)
	}
	if !result.NeedsReview || result.AutoApproved || result.AutoHold {
		t.Fatalf("expected review classification at the boundary, got %+v", result)
	}
}

func TestScoreRoundsSerializedScore(t *testing.T) {
	records := []exposure.Record{
		shot(0, ev(-1), fnum(8)),
		shot(1, ev(0), fnum(8)),
		shot(2, ev(1), fnum(8)),
	}
	result := confidence.Score(records, confidence.DefaultParams())
	if result.Score != 0.9 {
		t.Fatalf("expected rounded score 0.9, got %v", result.Score)
	}
	if !result.AutoApproved {
		t.Fatalf("expected auto approval, got %+v", result)
	}
}

func TestScoreCountBoundFollowsMaxStackSize(t *testing.T) {
	var records []exposure.Record
	for i := 0; i < 8; i++ {
		records = append(records, shot(float64(i)))
	}

	penalized := confidence.Score(records, confidence.DefaultParams())
	if !contains(penalized.Reasons, "shot_count_out_of_range") {
		t.Fatalf("expected out-of-range penalty for 8 shots, got %v", penalized.Reasons)
	}

	params := confidence.DefaultParams()
	params.Gap.MaxStackSize = 9
	relaxed := confidence.Score(records, params)
	if contains(relaxed.Reasons, "shot_count_out_of_range") {
		t.Fatalf("expected raised stack bound to clear the penalty, got %v", relaxed.Reasons)
	}
}

func TestScoreBoundsAndExclusiveClassification(t *testing.T) {
	groups := [][]exposure.Record{
		nil,
		{shot(0)},
		{shot(0), shot(600)},
		{shot(0, ev(-2), fnum(8), focal(35)), shot(1, ev(0), fnum(8), focal(35)), shot(2, ev(2), fnum(8), focal(35))},
		{shot(0), shot(1), shot(2), shot(3), shot(4), shot(5), shot(6), shot(7)},
	}
	for i, group := range groups {
		result := confidence.Score(group, confidence.DefaultParams())
		if result.Score < 0 || result.Score > 1 {
			t.Fatalf("group %d score out of bounds: %v", i, result.Score)
		}
		flags := 0
		for _, set := range []bool{result.AutoApproved, result.NeedsReview, result.AutoHold} {
			if set {
				flags++
			}
		}
		if flags != 1 {
			t.Fatalf("group %d classification not exclusive: %+v", i, result)
		}
		if result.Reasons == nil {
			t.Fatalf("group %d reasons must serialize as an array", i)
		}
	}
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}
