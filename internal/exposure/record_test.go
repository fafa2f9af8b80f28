package exposure_test

import (
	"testing"
	"time"

	"lightbox/internal/exposure"
)

func TestValuePrefersExposureBias(t *testing.T) {
	rec := exposure.Record{
		Time:    time.Now(),
		EV:      exposure.Float(-1.3),
		Shutter: exposure.Float(2.0),
	}
	got, ok := exposure.Value(rec)
	if !ok || got != -1.3 {
		t.Fatalf("Value = %v (ok=%v), want -1.3", got, ok)
	}
}

func TestValueDerivesFromShutter(t *testing.T) {
	rec := exposure.Record{Time: time.Now(), Shutter: exposure.Float(2.0)}
	got, ok := exposure.Value(rec)
	if !ok || got != 1.0 {
		t.Fatalf("Value = %v (ok=%v), want 1.0 from log2(shutter)", got, ok)
	}

	rec.Shutter = exposure.Float(0.25)
	got, ok = exposure.Value(rec)
	if !ok || got != -2.0 {
		t.Fatalf("Value = %v (ok=%v), want -2.0", got, ok)
	}
}

func TestValueUndefined(t *testing.T) {
	if _, ok := exposure.Value(exposure.Record{Time: time.Now()}); ok {
		t.Fatal("expected undefined exposure value without ev or shutter")
	}
	rec := exposure.Record{Time: time.Now(), Shutter: exposure.Float(0)}
	if _, ok := exposure.Value(rec); ok {
		t.Fatal("expected undefined exposure value for zero shutter")
	}
}
