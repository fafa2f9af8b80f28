package organizer

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"lightbox/internal/confidence"
	"lightbox/internal/exposure"
	"lightbox/internal/stackplan"
)

const (
	manifestFileName   = "_manifest.csv"
	confidenceFileName = "_confidence.json"
)

var manifestColumns = []string{
	"path", "time", "ev", "shutter", "iso", "fnum", "focal",
	"seq", "burst", "bracket_seq", "bracket_shot",
}

// GroupFolderName builds the library folder for one stack from its 1-based
// index, the earliest capture time, and the shot count, e.g.
// group_0003_20250601_083015_5raws.
func GroupFolderName(index int, records []exposure.Record) string {
	stamp := "00000000_000000"
	if len(records) > 0 {
		earliest := records[0].Time
		for _, record := range records[1:] {
			if record.Time.Before(earliest) {
				earliest = record.Time
			}
		}
		stamp = earliest.Format("20060102_150405")
	}
	return fmt.Sprintf("group_%04d_%s_%draws", index, stamp, len(records))
}

// presentationOrder returns a stack's records in display order: by exposure
// bias when any shot reports one, else by shutter time, else capture order.
// Shots missing the chosen key keep capture order after those that have it.
func presentationOrder(records []exposure.Record) []exposure.Record {
	ordered := make([]exposure.Record, len(records))
	copy(ordered, records)

	var key func(exposure.Record) *float64
	switch {
	case anyValue(ordered, recordEV):
		key = recordEV
	case anyValue(ordered, recordShutter):
		key = recordShutter
	default:
		return ordered
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		a, b := key(ordered[i]), key(ordered[j])
		if a == nil || b == nil {
			return a != nil && b == nil
		}
		return *a < *b
	})
	return ordered
}

func recordEV(r exposure.Record) *float64      { return r.EV }
func recordShutter(r exposure.Record) *float64 { return r.Shutter }

func anyValue(records []exposure.Record, key func(exposure.Record) *float64) bool {
	for _, record := range records {
		if key(record) != nil {
			return true
		}
	}
	return false
}

// writeManifest emits one CSV row per shot in presentation order. Times use
// the same RFC 3339 form as the JSON sidecars; absent values become empty
// cells.
func writeManifest(path string, records []exposure.Record) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		_ = file.Close()
	}()

	writer := csv.NewWriter(file)
	if err := writer.Write(manifestColumns); err != nil {
		return err
	}
	for _, record := range records {
		if err := writer.Write(manifestRow(record)); err != nil {
			return err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return err
	}
	return file.Close()
}

func manifestRow(r exposure.Record) []string {
	return []string{
		r.Path,
		r.Time.Format(time.RFC3339Nano),
		formatOptional(r.EV),
		formatOptional(r.Shutter),
		formatOptional(r.ISO),
		formatOptional(r.FNumber),
		formatOptional(r.Focal),
		r.Seq,
		r.Burst,
		r.BracketSeq,
		r.BracketShot,
	}
}

func formatOptional(value *float64) string {
	if value == nil {
		return ""
	}
	return strconv.FormatFloat(*value, 'g', -1, 64)
}

func writeConfidence(path string, result confidence.Result) error {
	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}

// planBytes sums the on-disk sizes of every shot in the plan so copy progress
// can be reported in bytes.
func planBytes(groups []stackplan.Group) (int64, error) {
	var total int64
	for _, group := range groups {
		for _, record := range group.Records {
			info, err := os.Stat(record.Path)
			if err != nil {
				return 0, fmt.Errorf("stat %s: %w", record.Path, err)
			}
			total += info.Size()
		}
	}
	return total, nil
}
