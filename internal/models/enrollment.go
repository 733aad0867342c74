package models

import "time"

// Enrollment captures a student's registration in one or more activities.
type Enrollment struct {
	ID            string     `json:"id"`
	Number        string     `json:"number,omitempty"`
	Name          string     `json:"name"`
	CPF           string     `json:"cpf,omitempty"`
	Neighborhood  string     `json:"neighborhood"`
	School        string     `json:"school,omitempty"`
	BirthDate     *time.Time `json:"birth_date,omitempty"`
	GuardianName  string     `json:"guardian_name,omitempty"`
	GuardianPhone string     `json:"guardian_phone,omitempty"`
	GuardianEmail string     `json:"guardian_email,omitempty"`
	Activities    []string   `json:"activities"`
	CreatedAt     time.Time  `json:"created_at"`
}

// HasActivity reports whether the student is enrolled in the activity.
func (e Enrollment) HasActivity(activity string) bool {
	for _, a := range e.Activities {
		if a == activity {
			return true
		}
	}
	return false
}

// AgeAt returns the student's age in whole years at the given date, or false when unknown.
func (e Enrollment) AgeAt(at time.Time) (int, bool) {
	if e.BirthDate == nil || e.BirthDate.IsZero() {
		return 0, false
	}
	b := *e.BirthDate
	age := at.Year() - b.Year()
	if at.Month() < b.Month() || (at.Month() == b.Month() && at.Day() < b.Day()) {
		age--
	}
	if age < 0 {
		return 0, false
	}
	return age, true
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	Activity string
	District string
	Search   string
	Page     int
	PageSize int
}
