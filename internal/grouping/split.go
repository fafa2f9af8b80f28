package grouping

import (
	"math"

	"lightbox/internal/exposure"
)

// splitState tracks the sub-group under construction during one cluster scan:
// its records, the fixed sweep direction, the starting exposure, and the
// running exposure range.
type splitState struct {
	current   []exposure.Record
	direction int // 0 unset, +1 ascending, -1 descending
	startExp  float64
	startSet  bool
	minExp    float64
	maxExp    float64
	rangeSet  bool
}

// restart begins a fresh sub-group seeded with record.
func (s *splitState) restart(record exposure.Record) {
	s.current = []exposure.Record{record}
	s.direction = 0
	s.startSet = false
	s.rangeSet = false
	if exp, ok := exposure.Value(record); ok {
		s.startExp = exp
		s.startSet = true
		s.observe(exp)
	}
}

func (s *splitState) append(record exposure.Record, exp float64, defined bool) {
	s.current = append(s.current, record)
	if defined {
		s.observe(exp)
	}
}

func (s *splitState) observe(exp float64) {
	if !s.rangeSet {
		s.minExp, s.maxExp = exp, exp
		s.rangeSet = true
		return
	}
	if exp < s.minExp {
		s.minExp = exp
	}
	if exp > s.maxExp {
		s.maxExp = exp
	}
}

func (s *splitState) exposureRange() float64 {
	if !s.rangeSet {
		return 0
	}
	return s.maxExp - s.minExp
}

// Split cuts one coarse cluster into bracket stacks whose concatenation, in
// order, reproduces the input. Clusters no longer than MaxStackSize pass
// through unchanged; legitimate stacks rarely run longer, so no split is
// attempted below that.
//
// A longer cluster is re-scanned in time order. A new sub-group starts when
// the gap or setup rule fails against the preceding record, when the
// sub-group hits MaxStackSize, or when the exposure sweep reverses: once a
// consecutive delta of at least DirectionThresholdEV has fixed the sweep
// direction, a delta opposing it by more than ReversalThresholdEV forces a
// cut, provided the exposure lands back within RestartThresholdEV of the
// sub-group's start or the sub-group's range already spans a full bracket.
// Direction is sticky: smaller counter-fluctuations never count as reversals.
// Records with an undefined exposure value accumulate without ever triggering
// a cut.
func Split(cluster []exposure.Record, params Params) [][]exposure.Record {
	if len(cluster) <= params.MaxStackSize {
		return [][]exposure.Record{cluster}
	}

	var groups [][]exposure.Record
	var state splitState
	flush := func() {
		if len(state.current) > 0 {
			groups = append(groups, state.current)
		}
	}

	for _, record := range cluster {
		if len(state.current) == 0 {
			state.restart(record)
			continue
		}

		prev := state.current[len(state.current)-1]
		if !WithinGap(prev, record, params) || !SameSetup(prev, record, params) {
			flush()
			state.restart(record)
			continue
		}
		if len(state.current) >= params.MaxStackSize {
			flush()
			state.restart(record)
			continue
		}

		exp, defined := exposure.Value(record)
		if defined {
			if prevExp, prevDefined := exposure.Value(prev); prevDefined {
				delta := exp - prevExp
				if state.direction == 0 && math.Abs(delta) >= params.DirectionThresholdEV {
					if delta > 0 {
						state.direction = 1
					} else {
						state.direction = -1
					}
				}

				signFlip := state.direction != 0 &&
					((state.direction > 0 && delta < -params.ReversalThresholdEV) ||
						(state.direction < 0 && delta > params.ReversalThresholdEV))
				backToStart := state.startSet && math.Abs(exp-state.startExp) <= params.RestartThresholdEV

				if len(state.current) >= 2 && signFlip && (backToStart || state.exposureRange() >= params.ReversalThresholdEV) {
					flush()
					state.restart(record)
					continue
				}
			}
		}

		state.append(record, exp, defined)
	}
	flush()
	return groups
}
