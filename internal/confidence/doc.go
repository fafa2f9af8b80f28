// Package confidence rates how likely a group of exposures is one
// intentional bracket stack and classifies it for automation.
//
// Scoring is additive over independent heuristics (exposure spread, shot
// count, time spacing, setup stability), clamped to [0,1], and mapped to
// exactly one of auto-approved, needs-review, or auto-hold. Every applied
// rule leaves a tag so operators can see why a group landed where it did.
// The scorer is pure and never fails; a malformed group degrades to a zero
// score held for review instead of aborting the batch.
package confidence
