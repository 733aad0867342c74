package models

import "time"

// LessonPlan is a teacher's plan for one class of an activity.
type LessonPlan struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Activity     string    `json:"activity"`
	District     *string   `json:"district,omitempty"`
	Teacher      string    `json:"teacher"`
	TeacherEmail string    `json:"teacher_email,omitempty"`
	Date         time.Time `json:"date"`
	Objectives   string    `json:"objectives"`
	Materials    string    `json:"materials,omitempty"`
	Development  string    `json:"development"`
	Evaluation   string    `json:"evaluation"`
	CreatedAt    time.Time `json:"created_at"`
}

// LessonPlanFilter narrows lesson plan listings. Zero values are ignored.
type LessonPlanFilter struct {
	Activity string
	District string
	Teacher  string
	Month    int
	Year     int
}
