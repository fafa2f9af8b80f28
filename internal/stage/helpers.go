package stage

import (
	"lightbox/internal/services"
	"lightbox/internal/stackplan"
)

// ParseGroupPlan parses a group plan string and returns the envelope.
// On failure it returns a services.ErrValidation suitable for stage Execute methods.
func ParseGroupPlan(raw string) (stackplan.Envelope, error) {
	env, err := stackplan.Parse(raw)
	if err != nil {
		return stackplan.Envelope{}, services.Wrap(
			services.ErrValidation, "stage", "parse group plan",
			"Group plan missing or invalid; rerun grouping", err)
	}
	return env, nil
}
