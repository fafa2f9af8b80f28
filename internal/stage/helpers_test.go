package stage

import (
	"testing"
)

func TestParseGroupPlan_Valid(t *testing.T) {
	raw := `{"fingerprint":"fp-1","session":"Desert Shoot","groups":[{"index":1,"records":[{"path":"DSC00001.ARW","time":"2025-06-01T10:00:00Z"}],"confidence":{"confidence_score":0,"auto_approved":false,"needs_review":false,"auto_hold":true,"is_hdr_candidate":false,"reason":[]}}]}`
	env, err := ParseGroupPlan(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if env.Fingerprint != "fp-1" {
		t.Fatalf("unexpected fingerprint: %q", env.Fingerprint)
	}
	if len(env.Groups) != 1 || env.Groups[0].Index != 1 {
		t.Fatalf("unexpected groups: %+v", env.Groups)
	}
}

func TestParseGroupPlan_Empty(t *testing.T) {
	env, err := ParseGroupPlan("")
	if err != nil {
		t.Fatalf("unexpected error for empty input: %v", err)
	}
	if env.Fingerprint != "" {
		t.Fatalf("expected empty envelope for empty input")
	}
}

func TestParseGroupPlan_Invalid(t *testing.T) {
	_, err := ParseGroupPlan("{invalid json")
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}
