package confidence

import (
	"fmt"
	"math"

	"lightbox/internal/exposure"
	"lightbox/internal/grouping"
)

// Classification thresholds on the raw score.
const (
	autoApproveThreshold = 0.85
	reviewThreshold      = 0.65
)

// Per-rule score contributions.
const (
	evRangeBonus     = 0.35
	shotCountBonus   = 0.25
	shotCountPenalty = 0.20
	timeGapBonus     = 0.20
	apertureBonus    = 0.10
	focalBonus       = 0.10
)

// Setup-stability bounds on the sample standard deviation.
const (
	apertureStdMax = 0.1
	focalStdMaxMM  = 1.0
)

// Params carries the scoring thresholds.
type Params struct {
	// HDREVRange is the minimum spread of reported exposure bias, in stops,
	// for a group to count as an HDR bracket candidate.
	HDREVRange float64
	// Gap supplies the dynamic gap rule for the time-spacing bonus and the
	// stack size bound for the shot-count rules.
	Gap grouping.Params
}

// DefaultParams returns the repository default thresholds.
func DefaultParams() Params {
	return Params{
		HDREVRange: 0.6,
		Gap:        grouping.DefaultParams(),
	}
}

// Result is the confidence annotation attached to one group. Field order
// matches the serialized form written next to organized groups.
type Result struct {
	Score          float64  `json:"confidence_score"`
	AutoApproved   bool     `json:"auto_approved"`
	NeedsReview    bool     `json:"needs_review"`
	AutoHold       bool     `json:"auto_hold"`
	IsHDRCandidate bool     `json:"is_hdr_candidate"`
	Reasons        []string `json:"reason"`
}

// Score rates one group of time-ordered records. Rules apply at most once
// each, in a fixed order, and their tags accumulate in Reasons. Any internal
// failure degrades to a zero score held for review; one malformed group never
// blocks the rest of a batch.
func Score(records []exposure.Record, params Params) (result Result) {
	defer func() {
		if r := recover(); r != nil {
			result = Result{AutoHold: true, Reasons: []string{"confidence_error"}}
		}
	}()

	score := 0.0
	reasons := []string{}
	hdrCandidate := false

	if evSpan(records) >= params.HDREVRange {
		score += evRangeBonus
		reasons = append(reasons, "ev_range_ok")
		hdrCandidate = true
	}

	count := len(records)
	if count == 3 || count == 5 {
		score += shotCountBonus
		reasons = append(reasons, fmt.Sprintf("shot_count_%d", count))
	}
	if count < 2 || count > params.Gap.MaxStackSize {
		score -= shotCountPenalty
		reasons = append(reasons, "shot_count_out_of_range")
	}

	if withinAllGaps(records, params.Gap) {
		score += timeGapBonus
		reasons = append(reasons, "time_gap_ok")
	}

	if std, ok := sampleStd(definedValues(records, func(r exposure.Record) *float64 { return r.FNumber })); ok && std < apertureStdMax {
		score += apertureBonus
		reasons = append(reasons, "same_aperture")
	}
	if std, ok := sampleStd(definedValues(records, func(r exposure.Record) *float64 { return r.Focal })); ok && std < focalStdMaxMM {
		score += focalBonus
		reasons = append(reasons, "same_focal_length")
	}

	if score < 0 {
		score = 0
	}
	score = math.Min(score, 1.0)

	return Result{
		Score:          math.Round(score*1000) / 1000,
		AutoApproved:   score >= autoApproveThreshold,
		NeedsReview:    score >= reviewThreshold && score < autoApproveThreshold,
		AutoHold:       score < reviewThreshold,
		IsHDRCandidate: hdrCandidate,
		Reasons:        reasons,
	}
}

// evSpan is the spread of reported exposure bias values; it needs at least
// two reported values to be meaningful.
func evSpan(records []exposure.Record) float64 {
	evs := definedValues(records, func(r exposure.Record) *float64 { return r.EV })
	if len(evs) < 2 {
		return 0
	}
	low, high := evs[0], evs[0]
	for _, v := range evs[1:] {
		if v < low {
			low = v
		}
		if v > high {
			high = v
		}
	}
	return high - low
}

func withinAllGaps(records []exposure.Record, gap grouping.Params) bool {
	for i := 1; i < len(records); i++ {
		if !grouping.WithinGap(records[i-1], records[i], gap) {
			return false
		}
	}
	return true
}

func definedValues(records []exposure.Record, pick func(exposure.Record) *float64) []float64 {
	values := make([]float64, 0, len(records))
	for _, record := range records {
		if v := pick(record); v != nil {
			values = append(values, *v)
		}
	}
	return values
}

// sampleStd is the n-1 standard deviation; it is undefined for fewer than two
// values.
func sampleStd(values []float64) (float64, bool) {
	if len(values) < 2 {
		return 0, false
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var squares float64
	for _, v := range values {
		d := v - mean
		squares += d * d
	}
	return math.Sqrt(squares / float64(len(values)-1)), true
}
