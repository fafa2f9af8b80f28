package exposure

import (
	"fmt"
	"math"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Timestamp candidates in priority order: the sub-second field is the most
// precise, the whole-second fields cover cameras that omit it.
var timestampFields = []string{"SubSecDateTimeOriginal", "DateTimeOriginal", "CreateDate"}

var timestampLayouts = []string{
	"2006:01:02 15:04:05.999",
	"2006:01:02 15:04:05",
}

var numberPattern = regexp.MustCompile(`[-+]?\d+(?:\.\d+)?`)

// BuildRecord normalizes one loose exiftool entry into a Record. The second
// return is false when no timestamp is derivable, which marks the entry
// unusable.
func BuildRecord(fields map[string]any) (Record, bool) {
	ts, ok := Timestamp(fields)
	if !ok {
		return Record{}, false
	}
	return Record{
		Path:         filepath.Join(stringField(fields, "Directory"), stringField(fields, "FileName")),
		Time:         ts,
		EV:           numberField(fields, "ExposureBiasValue", "ExposureCompensation"),
		Shutter:      numberField(fields, "ExposureTime", "ShutterSpeed"),
		ISO:          numberField(fields, "ISO"),
		FNumber:      numberField(fields, "FNumber", "Aperture"),
		Focal:        numberField(fields, "FocalLength"),
		CameraModel:  stringField(fields, "Model"),
		CameraSerial: stringField(fields, "SerialNumber"),
		LensModel:    stringField(fields, "LensModel"),
		Seq:          stringField(fields, "SequenceNumber"),
		Burst:        stringField(fields, "BurstUUID"),
		BracketSeq:   stringField(fields, "BracketSequence"),
		BracketShot:  stringField(fields, "BracketShotNumber"),
	}, true
}

// Timestamp derives the capture time from the first candidate field that
// parses under a sub-second or whole-second pattern. Values carrying a
// timezone suffix fail both layouts and fall through to the next candidate.
func Timestamp(fields map[string]any) (time.Time, bool) {
	for _, key := range timestampFields {
		value, ok := fields[key]
		if !ok || value == nil {
			continue
		}
		s := strings.TrimSpace(stringValue(value))
		if s == "" {
			continue
		}
		for _, layout := range timestampLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, true
			}
		}
	}
	return time.Time{}, false
}

// ParseNumber converts a loose metadata value into a float. It accepts plain
// decimals, "numerator/denominator" ratio strings, and values with trailing
// units such as "24.0 mm"; anything unparsable is absent, never an error.
func ParseNumber(value any) (float64, bool) {
	switch v := value.(type) {
	case nil:
		return 0, false
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		return parseNumericString(v)
	default:
		return parseNumericString(fmt.Sprint(v))
	}
}

func parseNumericString(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if idx := strings.IndexByte(s, '/'); idx >= 0 {
		num, err := strconv.ParseFloat(strings.TrimSpace(s[:idx]), 64)
		if err != nil {
			return 0, false
		}
		den, err := strconv.ParseFloat(strings.TrimSpace(s[idx+1:]), 64)
		if err != nil || den == 0 {
			return 0, false
		}
		return num / den, true
	}
	match := numberPattern.FindString(strings.ReplaceAll(s, "+", ""))
	if match == "" {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}
	return parsed, true
}

// numberField parses the first candidate key that carries a value. A present
// but unparsable value stays absent rather than falling through, so garbage
// in a primary field never resurrects a stale fallback.
func numberField(fields map[string]any, keys ...string) *float64 {
	for _, key := range keys {
		value, ok := fields[key]
		if !ok || value == nil {
			continue
		}
		if s, isString := value.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		if parsed, ok := ParseNumber(value); ok {
			return Float(parsed)
		}
		return nil
	}
	return nil
}

func stringField(fields map[string]any, key string) string {
	value, ok := fields[key]
	if !ok || value == nil {
		return ""
	}
	return stringValue(value)
}

func stringValue(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		// JSON numbers decode as float64; an integral serial number must not
		// come back with an exponent.
		if v == math.Trunc(v) && math.Abs(v) < 1e15 {
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
		return strconv.FormatFloat(v, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}
