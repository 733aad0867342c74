package models

import "time"

// AttendanceStatus is the mark a student received in a roll call. Values match the stored documents.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "presente"
	AttendanceStatusAbsent  AttendanceStatus = "falta"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	return s == AttendanceStatusPresent || s == AttendanceStatusAbsent
}

// AttendanceEntry is one student's mark inside a record.
type AttendanceEntry struct {
	StudentID string           `json:"student_id"`
	Name      string           `json:"name"`
	Status    AttendanceStatus `json:"status"`
}

// AttendanceRecord is one stored roll call, keyed by date, activity and optional district.
type AttendanceRecord struct {
	ID       string            `json:"id"`
	Date     time.Time         `json:"date"`
	Activity string            `json:"activity"`
	District *string           `json:"district"`
	Teacher  string            `json:"teacher"`
	Students []AttendanceEntry `json:"students"`
	SavedAt  time.Time         `json:"saved_at"`

	// Legacy marks records read from an older document shape.
	Legacy bool `json:"-"`
}

// RosterEntry is a student offered for marking in a roll call.
type RosterEntry struct {
	StudentID     string           `json:"student_id"`
	Name          string           `json:"name"`
	Neighborhood  string           `json:"neighborhood,omitempty"`
	DefaultStatus AttendanceStatus `json:"default_status"`
}

// RollCall is the state of the recording form for an activity, date and district.
type RollCall struct {
	Key             string        `json:"key"`
	Date            time.Time     `json:"date"`
	Activity        string        `json:"activity"`
	District        *string       `json:"district"`
	AlreadyRecorded bool          `json:"already_recorded"`
	CanSave         bool          `json:"can_save"`
	Message         string        `json:"message,omitempty"`
	Students        []RosterEntry `json:"students"`
}

// AttendanceSession groups every record of one activity on one date.
type AttendanceSession struct {
	ID          string            `json:"id"`
	Date        time.Time         `json:"date"`
	DateLabel   string            `json:"date_label"`
	Activity    string            `json:"activity"`
	Teacher     string            `json:"teacher"`
	Districts   []string          `json:"districts,omitempty"`
	Present     int               `json:"present"`
	Absent      int               `json:"absent"`
	Students    []AttendanceEntry `json:"students,omitempty"`
	DocumentIDs []string          `json:"document_ids"`
}

// AttendanceSessionFilter narrows the session list.
type AttendanceSessionFilter struct {
	Date     *time.Time
	Activity string
	Teacher  string
}
