package repository

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/noah-isme/mis-educa-api/internal/models"
)

// docDate is a calendar date stored as "YYYY-MM-DD". Reading also accepts "DD/MM/YYYY",
// RFC 3339 strings, {"seconds": n} timestamp objects and unix numbers.
type docDate struct{ time.Time }

func (d docDate) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(models.ISODate))
}

func (d *docDate) UnmarshalJSON(raw []byte) error {
	t, err := parseDocTime(raw)
	if err != nil {
		return err
	}
	d.Time = time.Time{}
	if !t.IsZero() {
		d.Time = civilDate(t)
	}
	return nil
}

// docTimestamp is an instant stored as RFC 3339 and read with the same leniency as docDate.
type docTimestamp struct{ time.Time }

func (d docTimestamp) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.UTC().Format(time.RFC3339Nano))
}

func (d *docTimestamp) UnmarshalJSON(raw []byte) error {
	t, err := parseDocTime(raw)
	if err != nil {
		return err
	}
	d.Time = time.Time{}
	if !t.IsZero() {
		d.Time = t.UTC()
	}
	return nil
}

type timestampObject struct {
	Seconds       *int64 `json:"seconds"`
	Nanoseconds   int64  `json:"nanoseconds"`
	ExportSeconds *int64 `json:"_seconds"`
	ExportNanos   int64  `json:"_nanoseconds"`
}

// parseDocTime returns the zero time for null or unparseable values; only malformed JSON is an error.
func parseDocTime(raw []byte) (time.Time, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}, nil
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return time.Time{}, err
		}
		return parseDateString(s), nil
	case '{':
		var obj timestampObject
		if err := json.Unmarshal(raw, &obj); err != nil {
			return time.Time{}, err
		}
		switch {
		case obj.Seconds != nil:
			return time.Unix(*obj.Seconds, obj.Nanoseconds).UTC(), nil
		case obj.ExportSeconds != nil:
			return time.Unix(*obj.ExportSeconds, obj.ExportNanos).UTC(), nil
		}
		return time.Time{}, nil
	default:
		var n float64
		if err := json.Unmarshal(raw, &n); err != nil {
			return time.Time{}, err
		}
		// Larger values are milliseconds.
		if n > 1e11 {
			return time.UnixMilli(int64(n)).UTC(), nil
		}
		return time.Unix(int64(n), 0).UTC(), nil
	}
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	models.ISODate,
	models.DisplayDate,
}

func parseDateString(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
