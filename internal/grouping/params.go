package grouping

// Params carries every grouping tunable so parameter sweeps stay
// deterministic and nothing hides in package state.
type Params struct {
	// GapFloorSeconds is the hard floor on the allowed gap between
	// consecutive shots.
	GapFloorSeconds float64
	// GapBaseSeconds and GapShutterFactor widen the allowed gap for long
	// exposures: a 1s exposure legitimately spaces shots further apart than
	// a 1/500s one.
	GapBaseSeconds   float64
	GapShutterFactor float64
	// ApertureTolerance and FocalToleranceMM bound setup drift between
	// consecutive shots; values reported by only one side never veto.
	ApertureTolerance float64
	FocalToleranceMM  float64
	// MaxStackSize is the largest cluster the splitter passes through
	// untouched and the hard cap on any sub-group it emits.
	MaxStackSize int
	// DirectionThresholdEV is the consecutive delta, in stops, that fixes
	// the sweep direction of a sub-group.
	DirectionThresholdEV float64
	// ReversalThresholdEV is how far a delta must oppose the fixed
	// direction before it counts as a sign flip.
	ReversalThresholdEV float64
	// RestartThresholdEV is how close a flipped exposure must return to the
	// sub-group's starting exposure to read as a fresh stack.
	RestartThresholdEV float64
}

// DefaultParams returns the repository default thresholds.
func DefaultParams() Params {
	return Params{
		GapFloorSeconds:      3.0,
		GapBaseSeconds:       1.2,
		GapShutterFactor:     2.5,
		ApertureTolerance:    0.2,
		FocalToleranceMM:     2.0,
		MaxStackSize:         7,
		DirectionThresholdEV: 0.4,
		ReversalThresholdEV:  0.6,
		RestartThresholdEV:   0.4,
	}
}
