package service

import (
	"strings"
	"time"

	"github.com/noah-isme/mis-educa-api/internal/models"
	"github.com/noah-isme/mis-educa-api/pkg/config"
	"github.com/noah-isme/mis-educa-api/pkg/textnorm"
)

// AttendanceRules holds the activity and district conventions used to key roll calls.
type AttendanceRules struct {
	GroupedActivity string
	Districts       []string
	DefaultDistrict string
	UnknownTeacher  string
}

// NewAttendanceRules builds the rules from configuration, filling the standard values for blanks.
func NewAttendanceRules(cfg config.AttendanceConfig) AttendanceRules {
	rules := AttendanceRules{
		GroupedActivity: strings.TrimSpace(cfg.GroupedActivity),
		Districts:       cfg.Districts,
		DefaultDistrict: strings.TrimSpace(cfg.DefaultDistrict),
		UnknownTeacher:  strings.TrimSpace(cfg.UnknownTeacher),
	}
	if rules.GroupedActivity == "" {
		rules.GroupedActivity = "Percussão/Fanfarra"
	}
	if len(rules.Districts) == 0 {
		rules.Districts = []string{"Macaoca", "Cajazeiras", "União", "Cacimba Nova", "Paus Branco"}
	}
	if rules.DefaultDistrict == "" {
		rules.DefaultDistrict = "Sede"
	}
	if rules.UnknownTeacher == "" {
		rules.UnknownTeacher = "Não identificado"
	}
	return rules
}

// RequiresDistrict reports whether roll calls of the activity are split by district. The key-safe
// spelling of the grouped activity counts as the activity itself.
func (r AttendanceRules) RequiresDistrict(activity string) bool {
	return models.SanitizeActivity(activity) == models.SanitizeActivity(r.GroupedActivity)
}

// CanonicalActivity maps the key spelling of the grouped activity back to its display name.
func (r AttendanceRules) CanonicalActivity(activity string) string {
	trimmed := strings.TrimSpace(activity)
	if trimmed != r.GroupedActivity && r.RequiresDistrict(trimmed) {
		return r.GroupedActivity
	}
	return trimmed
}

// KeyedActivities lists activity names whose key spelling differs from the display name.
func (r AttendanceRules) KeyedActivities() []string {
	return []string{r.GroupedActivity}
}

// ListDistricts returns the named districts followed by the default district.
func (r AttendanceRules) ListDistricts() []string {
	out := make([]string, 0, len(r.Districts)+1)
	out = append(out, r.Districts...)
	return append(out, r.DefaultDistrict)
}

// DistrictFor maps a neighborhood to its district; unknown neighborhoods belong to the default district.
func (r AttendanceRules) DistrictFor(neighborhood string) string {
	trimmed := strings.TrimSpace(neighborhood)
	for _, district := range r.Districts {
		if strings.EqualFold(trimmed, district) {
			return district
		}
	}
	return r.DefaultDistrict
}

// canonicalDistrict resolves user input to a known district name.
func (r AttendanceRules) canonicalDistrict(input string) (string, bool) {
	trimmed := strings.TrimSpace(input)
	for _, district := range r.ListDistricts() {
		if strings.EqualFold(trimmed, district) {
			return district, true
		}
	}
	return "", false
}

// Key derives the record key. The district only takes part for the grouped activity.
func (r AttendanceRules) Key(date time.Time, activity string, district *string) string {
	if !r.RequiresDistrict(activity) {
		district = nil
	}
	return models.AttendanceKey(date, activity, district)
}

// TeacherName uppercases the teacher's display name, falling back to the unknown-teacher label.
func (r AttendanceRules) TeacherName(name string) string {
	if strings.TrimSpace(name) == "" {
		name = r.UnknownTeacher
	}
	return textnorm.Upper(name)
}
