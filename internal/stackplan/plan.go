package stackplan

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"lightbox/internal/confidence"
	"lightbox/internal/exposure"
)

// Envelope captures the structured payload shared between the grouping and
// organizing stages.
type Envelope struct {
	Fingerprint string  `json:"fingerprint"`
	Session     string  `json:"session"`
	Groups      []Group `json:"groups,omitempty"`
}

// Group records one bracket stack or burst together with its confidence
// result. Records keep capture order; Index is 1-based and stable across
// stages.
type Group struct {
	Index      int               `json:"index"`
	Records    []exposure.Record `json:"records"`
	Confidence confidence.Result `json:"confidence"`
	FolderName string            `json:"folder_name,omitempty"`
}

// Summary aggregates per-classification totals across an envelope.
type Summary struct {
	Groups   int
	Shots    int
	Approved int
	Review   int
	Hold     int
	HDR      int
}

// Parse loads a group plan from JSON, returning an empty envelope on blank input.
func Parse(raw string) (Envelope, error) {
	var env Envelope
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return env, nil
	}
	if err := json.Unmarshal([]byte(raw), &env); err != nil {
		return Envelope{}, err
	}
	env.Groups = slices.Clone(env.Groups)
	return env, nil
}

// Encode serialises the envelope to JSON.
func (e Envelope) Encode() (string, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// GroupKey formats a deterministic key for a group index.
func GroupKey(index int) string {
	if index <= 0 {
		return ""
	}
	return fmt.Sprintf("group_%04d", index)
}

// GroupByIndex returns a pointer to the group with the supplied index.
func (e *Envelope) GroupByIndex(index int) *Group {
	if e == nil {
		return nil
	}
	for idx := range e.Groups {
		if e.Groups[idx].Index == index {
			return &e.Groups[idx]
		}
	}
	return nil
}

// SetFolderName records the realised library folder for a group.
func (e *Envelope) SetFolderName(index int, name string) {
	if group := e.GroupByIndex(index); group != nil {
		group.FolderName = name
	}
}

// Counts aggregates classification totals across all groups.
func (e Envelope) Counts() Summary {
	var sum Summary
	sum.Groups = len(e.Groups)
	for _, group := range e.Groups {
		sum.Shots += len(group.Records)
		switch {
		case group.Confidence.AutoApproved:
			sum.Approved++
		case group.Confidence.NeedsReview:
			sum.Review++
		default:
			sum.Hold++
		}
		if group.Confidence.IsHDRCandidate {
			sum.HDR++
		}
	}
	return sum
}
