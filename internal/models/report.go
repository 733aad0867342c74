package models

import "time"

// AttendanceBand classifies a student's attendance rate.
type AttendanceBand string

const (
	AttendanceBandHigh   AttendanceBand = "alta"
	AttendanceBandMedium AttendanceBand = "media"
	AttendanceBandLow    AttendanceBand = "baixa"
)

// BandFor maps a percentage rate to its band (>= 80 high, >= 60 medium).
func BandFor(rate float64) AttendanceBand {
	switch {
	case rate >= 80:
		return AttendanceBandHigh
	case rate >= 60:
		return AttendanceBandMedium
	default:
		return AttendanceBandLow
	}
}

// StudentAttendanceStats is one row of the monthly report.
type StudentAttendanceStats struct {
	StudentID string         `json:"student_id"`
	Name      string         `json:"name"`
	Presences int            `json:"presences"`
	Absences  int            `json:"absences"`
	Total     int            `json:"total"`
	Rate      float64        `json:"rate"`
	Band      AttendanceBand `json:"band"`
}

// MonthlyAttendanceReport summarises one activity's month.
type MonthlyAttendanceReport struct {
	Activity      string                   `json:"activity"`
	District      *string                  `json:"district,omitempty"`
	Month         int                      `json:"month"`
	Year          int                      `json:"year"`
	TotalStudents int                      `json:"total_students"`
	TotalLessons  int                      `json:"total_lessons"`
	SessionCount  int                      `json:"session_count"`
	AverageRate   float64                  `json:"average_rate"`
	Students      []StudentAttendanceStats `json:"students"`
	Lessons       []LessonPlan             `json:"lessons"`
	GeneratedAt   time.Time                `json:"generated_at"`
}

// AttendanceSheet is the printable official attendance sheet of a session.
type AttendanceSheet struct {
	SessionID        string               `json:"session_id"`
	Institution      string               `json:"institution"`
	Project          string               `json:"project"`
	Course           string               `json:"course"`
	Workload         string               `json:"workload"`
	ArtisticLanguage string               `json:"artistic_language"`
	Schedule         string               `json:"schedule"`
	Modality         string               `json:"modality"`
	Teacher          string               `json:"teacher"`
	Date             time.Time            `json:"date"`
	MonthYear        string               `json:"month_year"`
	Rows             []AttendanceSheetRow `json:"rows"`
}

// AttendanceSheetRow is a numbered line of the sheet; blank rows pad the table.
type AttendanceSheetRow struct {
	Number    int    `json:"number"`
	Name      string `json:"name,omitempty"`
	MonthYear string `json:"month_year,omitempty"`
	Age       string `json:"age,omitempty"`
	Content   string `json:"content,omitempty"`
	Blank     bool   `json:"blank"`
}
