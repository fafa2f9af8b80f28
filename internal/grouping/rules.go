package grouping

import (
	"math"

	"lightbox/internal/exposure"
)

// AllowedGapSeconds returns the maximum time gap, in seconds, under which two
// consecutive shots still belong to one stack. Longer exposures stretch the
// bound; a missing shutter contributes zero.
func AllowedGapSeconds(a, b exposure.Record, params Params) float64 {
	shutter := math.Max(shutterOrZero(a), shutterOrZero(b))
	dynamic := params.GapBaseSeconds + params.GapShutterFactor*shutter
	return math.Max(params.GapFloorSeconds, dynamic)
}

// WithinGap reports whether b follows a closely enough under the dynamic gap
// rule. Records must be given in time order.
func WithinGap(a, b exposure.Record, params Params) bool {
	return b.Time.Sub(a.Time).Seconds() <= AllowedGapSeconds(a, b, params)
}

// SameSetup reports whether two shots share a camera setup. The veto fires
// only when both sides report a usable value; missing or zero readings are
// treated as compatible so metadata omission never breaks a valid stack.
func SameSetup(a, b exposure.Record, params Params) bool {
	if reported(a.FNumber) && reported(b.FNumber) && math.Abs(*a.FNumber-*b.FNumber) > params.ApertureTolerance {
		return false
	}
	if reported(a.Focal) && reported(b.Focal) && math.Abs(*a.Focal-*b.Focal) > params.FocalToleranceMM {
		return false
	}
	return true
}

func reported(v *float64) bool {
	return v != nil && *v != 0
}

func shutterOrZero(r exposure.Record) float64 {
	if r.Shutter == nil {
		return 0
	}
	return *r.Shutter
}
