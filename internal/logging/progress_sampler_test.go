package logging

import "testing"

func TestNewProgressSampler(t *testing.T) {
	tests := []struct {
		name       string
		bucketSize float64
		wantSize   float64
	}{
		{"default bucket size for zero", 0, 5},
		{"default bucket size for negative", -1, 5},
		{"custom bucket size", 10, 10},
		{"small bucket size", 1, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewProgressSampler(tt.bucketSize)
			if s.bucketSize != tt.wantSize {
				t.Errorf("bucketSize = %v, want %v", s.bucketSize, tt.wantSize)
			}
			if s.lastBucket != -1 {
				t.Errorf("lastBucket = %d, want -1", s.lastBucket)
			}
		})
	}
}

func TestProgressSamplerNil(t *testing.T) {
	var s *ProgressSampler
	if !s.ShouldLog(50, "extract") {
		t.Error("ShouldLog on nil sampler should always return true")
	}
	s.Reset() // should not panic
}

func TestProgressSamplerStageChange(t *testing.T) {
	s := NewProgressSampler(5)

	if !s.ShouldLog(0, "extract") {
		t.Error("first stage should log")
	}
	if s.ShouldLog(0, "extract") {
		t.Error("same stage and percent should not log again")
	}
	if !s.ShouldLog(0, "copy") {
		t.Error("different stage should log")
	}
	if s.lastStage != "copy" {
		t.Errorf("lastStage = %q, want copy", s.lastStage)
	}
}

func TestProgressSamplerBuckets(t *testing.T) {
	s := NewProgressSampler(5)

	if !s.ShouldLog(0, "copy") {
		t.Error("first event should log")
	}
	if s.ShouldLog(3, "copy") {
		t.Error("same bucket should not log")
	}
	if !s.ShouldLog(5, "copy") {
		t.Error("next bucket should log")
	}
	if !s.ShouldLog(100, "copy") {
		t.Error("completion should log")
	}
	if s.ShouldLog(100, "copy") {
		t.Error("repeated completion should not log")
	}

	s.Reset()
	if !s.ShouldLog(0, "copy") {
		t.Error("after reset first event should log again")
	}
}
