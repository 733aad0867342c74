package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnrollmentAgeAt(t *testing.T) {
	birth := time.Date(2010, 5, 20, 0, 0, 0, 0, time.UTC)
	e := Enrollment{BirthDate: &birth}

	age, ok := e.AgeAt(time.Date(2024, 5, 19, 0, 0, 0, 0, time.UTC))
	assert.True(t, ok)
	assert.Equal(t, 13, age)

	age, ok = e.AgeAt(time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC))
	assert.True(t, ok)
	assert.Equal(t, 14, age)

	_, ok = Enrollment{}.AgeAt(time.Now())
	assert.False(t, ok)
}

func TestBandFor(t *testing.T) {
	assert.Equal(t, AttendanceBandHigh, BandFor(80))
	assert.Equal(t, AttendanceBandMedium, BandFor(79.9))
	assert.Equal(t, AttendanceBandMedium, BandFor(60))
	assert.Equal(t, AttendanceBandLow, BandFor(59.9))
}

func TestEnrollmentHasActivity(t *testing.T) {
	e := Enrollment{Activities: []string{"Violão", "Percussão/Fanfarra"}}
	assert.True(t, e.HasActivity("Percussão/Fanfarra"))
	assert.False(t, e.HasActivity("Canto"))
}

func TestAttendanceKey(t *testing.T) {
	date := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	district := "Macaoca"

	assert.Equal(t, "2024-03-01_Violão", AttendanceKey(date, "Violão", nil))
	assert.Equal(t, "2024-03-01_Percussão_Fanfarra_Macaoca", AttendanceKey(date, "Percussão/Fanfarra", &district))
	assert.Equal(t, "2024-03-01_Percussão_Fanfarra", SessionKey(date, "Percussão/Fanfarra"))
	empty := ""
	assert.Equal(t, "2024-03-01_Canto", AttendanceKey(date, " Canto ", &empty))
}
