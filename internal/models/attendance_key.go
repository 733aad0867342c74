package models

import (
	"strings"
	"time"
)

// ISODate is the layout of dates inside attendance keys.
const ISODate = "2006-01-02"

// DisplayDate is the layout shown to users and printed on sheets.
const DisplayDate = "02/01/2006"

// SanitizeActivity makes an activity name safe for document keys by replacing slashes.
func SanitizeActivity(activity string) string {
	return strings.ReplaceAll(strings.TrimSpace(activity), "/", "_")
}

// AttendanceKey derives the document key of a roll call: date_activity, plus _district when given.
func AttendanceKey(date time.Time, activity string, district *string) string {
	key := date.Format(ISODate) + "_" + SanitizeActivity(activity)
	if district != nil && *district != "" {
		key += "_" + *district
	}
	return key
}

// SessionKey identifies every record of an activity on a date regardless of district.
func SessionKey(date time.Time, activity string) string {
	return AttendanceKey(date, activity, nil)
}
