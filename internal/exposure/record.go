package exposure

import (
	"math"
	"time"
)

// Record is one normalized exposure. Optional numeric fields are nil when the
// camera did not report them; Time is always present.
type Record struct {
	Path         string    `json:"path"`
	Time         time.Time `json:"time"`
	EV           *float64  `json:"ev,omitempty"`
	Shutter      *float64  `json:"shutter,omitempty"`
	ISO          *float64  `json:"iso,omitempty"`
	FNumber      *float64  `json:"fnum,omitempty"`
	Focal        *float64  `json:"focal,omitempty"`
	CameraModel  string    `json:"camera_model,omitempty"`
	CameraSerial string    `json:"camera_serial,omitempty"`
	LensModel    string    `json:"lens_model,omitempty"`
	Seq          string    `json:"seq,omitempty"`
	Burst        string    `json:"burst,omitempty"`
	BracketSeq   string    `json:"bracket_seq,omitempty"`
	BracketShot  string    `json:"bracket_shot,omitempty"`
}

// Float returns a pointer to v for populating optional Record fields.
func Float(v float64) *float64 {
	return &v
}

// Value returns the exposure value of a record in stops: the exposure bias
// when reported, otherwise log2 of the shutter time as a brightness proxy.
// The second return is false when neither source is available.
func Value(r Record) (float64, bool) {
	if r.EV != nil {
		return *r.EV, true
	}
	if r.Shutter != nil && *r.Shutter > 0 {
		return math.Log2(*r.Shutter), true
	}
	return 0, false
}
