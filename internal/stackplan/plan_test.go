package stackplan

import (
	"testing"
	"time"

	"lightbox/internal/confidence"
	"lightbox/internal/exposure"
)

func TestParseEncodeRoundTrip(t *testing.T) {
	captured := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	env := Envelope{
		Fingerprint: "fp-1",
		Session:     "Desert Shoot",
		Groups: []Group{{
			Index: 1,
			Records: []exposure.Record{
				{Path: "DSC00001.ARW", Time: captured, EV: exposure.Float(-2)},
				{Path: "DSC00002.ARW", Time: captured.Add(time.Second), EV: exposure.Float(0)},
				{Path: "DSC00003.ARW", Time: captured.Add(2 * time.Second), EV: exposure.Float(2)},
			},
			Confidence: confidence.Result{
				Score:          0.9,
				AutoApproved:   true,
				IsHDRCandidate: true,
				Reasons:        []string{"ev_range_ok", "shot_count_3"},
			},
		}},
	}
	encoded, err := env.Encode()
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	decoded, err := Parse(encoded)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if decoded.Fingerprint != env.Fingerprint || decoded.Session != env.Session {
		t.Fatalf("unexpected decoded envelope: %+v", decoded)
	}
	if len(decoded.Groups) != 1 || len(decoded.Groups[0].Records) != 3 {
		t.Fatalf("unexpected decoded sizes: %+v", decoded)
	}
	group := decoded.Groups[0]
	if group.Records[0].EV == nil || *group.Records[0].EV != -2 {
		t.Fatalf("unexpected first record: %+v", group.Records[0])
	}
	if !group.Records[1].Time.Equal(captured.Add(time.Second)) {
		t.Fatalf("unexpected second record time: %v", group.Records[1].Time)
	}
	if !group.Confidence.AutoApproved || group.Confidence.Score != 0.9 {
		t.Fatalf("unexpected decoded confidence: %+v", group.Confidence)
	}
}

func TestParseBlankReturnsEmptyEnvelope(t *testing.T) {
	for _, raw := range []string{"", "   ", "\n"} {
		env, err := Parse(raw)
		if err != nil {
			t.Fatalf("Parse(%q) failed: %v", raw, err)
		}
		if env.Fingerprint != "" || len(env.Groups) != 0 {
			t.Fatalf("Parse(%q) = %+v, want empty envelope", raw, env)
		}
	}
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	if _, err := Parse("{not json"); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestGroupKey(t *testing.T) {
	if GroupKey(0) != "" {
		t.Fatalf("expected empty key for zero index")
	}
	if GroupKey(3) != "group_0003" {
		t.Fatalf("unexpected group key: %s", GroupKey(3))
	}
	if GroupKey(12) != "group_0012" {
		t.Fatalf("unexpected group key: %s", GroupKey(12))
	}
}

func TestSetFolderName(t *testing.T) {
	env := Envelope{
		Groups: []Group{{Index: 1}, {Index: 2}},
	}
	env.SetFolderName(2, "group_0002_20250601_100005_3raws")
	if env.Groups[1].FolderName != "group_0002_20250601_100005_3raws" {
		t.Fatalf("expected folder name on second group, got %+v", env.Groups)
	}
	if env.Groups[0].FolderName != "" {
		t.Fatalf("expected first group untouched, got %+v", env.Groups[0])
	}
	env.SetFolderName(9, "missing")
	if group := env.GroupByIndex(9); group != nil {
		t.Fatalf("expected no group for unknown index, got %+v", group)
	}
}

func TestCounts(t *testing.T) {
	env := Envelope{
		Groups: []Group{
			{
				Index:      1,
				Records:    make([]exposure.Record, 5),
				Confidence: confidence.Result{AutoApproved: true, IsHDRCandidate: true},
			},
			{
				Index:      2,
				Records:    make([]exposure.Record, 3),
				Confidence: confidence.Result{NeedsReview: true},
			},
			{
				Index:      3,
				Records:    make([]exposure.Record, 1),
				Confidence: confidence.Result{AutoHold: true},
			},
		},
	}
	sum := env.Counts()
	if sum.Groups != 3 || sum.Shots != 9 {
		t.Fatalf("unexpected totals: %+v", sum)
	}
	if sum.Approved != 1 || sum.Review != 1 || sum.Hold != 1 {
		t.Fatalf("unexpected classification counts: %+v", sum)
	}
	if sum.HDR != 1 {
		t.Fatalf("unexpected HDR count: %+v", sum)
	}
}
