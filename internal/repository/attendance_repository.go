package repository

import (
	"context"
	"errors"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/mis-educa-api/internal/models"
	"github.com/noah-isme/mis-educa-api/pkg/docstore"
)

// CollectionAttendance stores one document per roll call.
const CollectionAttendance = "frequencias"

// ErrAttendanceExists is returned by Create when the key already holds a record.
var ErrAttendanceExists = errors.New("attendance already recorded")

type attendanceStudentDocument struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"nome"`
	Status string `json:"status"`
}

// attendanceDocument is the stored shape. The trailing fields only appear in legacy documents.
type attendanceDocument struct {
	Date     docDate                     `json:"data"`
	Activity string                      `json:"oficina"`
	District *string                     `json:"distrito"`
	Teacher  string                      `json:"professor"`
	Students []attendanceStudentDocument `json:"alunos"`
	SavedAt  docTimestamp                `json:"salvoEm"`

	Presences   map[string]bool `json:"presencas,omitempty"`
	StudentName string          `json:"alunoNome,omitempty"`
	Status      string          `json:"status,omitempty"`
}

var keyDatePrefix = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)

// AttendanceRepository persists attendance records in the document store.
type AttendanceRepository struct {
	store      *docstore.Store
	activities []string
	districts  []string
}

// NewAttendanceRepository constructs the repository. activities are canonical names whose sanitized
// form may appear in legacy keys; districts are the names that may appear as a key suffix.
func NewAttendanceRepository(store *docstore.Store, activities, districts []string) *AttendanceRepository {
	return &AttendanceRepository{store: store, activities: activities, districts: districts}
}

// Exists reports whether a record is stored under the key.
func (r *AttendanceRepository) Exists(ctx context.Context, key string) (bool, error) {
	return r.store.Exists(ctx, CollectionAttendance, key)
}

// Create stores the record under its key only if the key is free.
func (r *AttendanceRepository) Create(ctx context.Context, record *models.AttendanceRecord) error {
	err := r.store.Create(ctx, CollectionAttendance, record.ID, toAttendanceDocument(record))
	if errors.Is(err, docstore.ErrExists) {
		return ErrAttendanceExists
	}
	return err
}

// Put writes the record in canonical form, replacing whatever the key held.
func (r *AttendanceRepository) Put(ctx context.Context, record *models.AttendanceRecord) error {
	return r.store.Put(ctx, CollectionAttendance, record.ID, toAttendanceDocument(record))
}

// Delete removes one record.
func (r *AttendanceRepository) Delete(ctx context.Context, key string) error {
	return r.store.Delete(ctx, CollectionAttendance, key)
}

// DeleteMany removes the listed records atomically and reports how many existed.
func (r *AttendanceRepository) DeleteMany(ctx context.Context, keys []string) (int64, error) {
	return r.store.DeleteMany(ctx, CollectionAttendance, keys)
}

// List returns every record that has a resolvable date and activity, normalized to the canonical shape.
// The second result counts skipped documents.
func (r *AttendanceRepository) List(ctx context.Context) ([]models.AttendanceRecord, int, error) {
	docs, err := r.store.List(ctx, CollectionAttendance)
	if err != nil {
		return nil, 0, err
	}
	records := make([]models.AttendanceRecord, 0, len(docs))
	skipped := 0
	for _, raw := range docs {
		var doc attendanceDocument
		if err := raw.Decode(&doc); err != nil {
			skipped++
			continue
		}
		record, ok := r.normalize(raw.ID, doc)
		if !ok {
			skipped++
			continue
		}
		records = append(records, record)
	}
	return records, skipped, nil
}

// normalize maps any stored shape to a canonical record. Missing fields are recovered from the key
// ("YYYY-MM-DD_activity[_district]"). Records without a date or activity are rejected.
func (r *AttendanceRepository) normalize(key string, doc attendanceDocument) (models.AttendanceRecord, bool) {
	record := models.AttendanceRecord{
		ID:       key,
		Date:     doc.Date.Time,
		Activity: strings.TrimSpace(doc.Activity),
		District: nonEmpty(doc.District),
		Teacher:  strings.TrimSpace(doc.Teacher),
		SavedAt:  doc.SavedAt.Time,
	}

	rest := key
	if m := keyDatePrefix.FindStringSubmatch(key); m != nil {
		if record.Date.IsZero() {
			if t, err := time.Parse(models.ISODate, m[0]); err == nil {
				record.Date = t
			}
		}
		rest = strings.TrimPrefix(strings.TrimPrefix(key, m[0]), "_")
	}
	if record.District == nil {
		for _, district := range r.districts {
			if strings.HasSuffix(rest, "_"+district) {
				d := district
				record.District = &d
				record.Legacy = true
				break
			}
		}
	}
	if record.Activity == "" {
		activity := rest
		if record.District != nil {
			activity = strings.TrimSuffix(activity, "_"+*record.District)
		}
		record.Activity = activity
		record.Legacy = true
	}
	if record.Date.IsZero() || record.Activity == "" {
		return models.AttendanceRecord{}, false
	}
	record.Activity = r.canonicalActivity(record.Activity)

	record.Students = normalizeEntries(doc)
	if doc.Students == nil {
		record.Legacy = true
	}
	return record, true
}

// canonicalActivity restores slashes that key sanitization replaced, e.g. "Percussão_Fanfarra".
func (r *AttendanceRepository) canonicalActivity(activity string) string {
	for _, known := range r.activities {
		if activity != known && models.SanitizeActivity(known) == activity {
			return known
		}
	}
	return activity
}

func normalizeEntries(doc attendanceDocument) []models.AttendanceEntry {
	switch {
	case doc.Students != nil:
		entries := make([]models.AttendanceEntry, 0, len(doc.Students))
		for _, s := range doc.Students {
			entries = append(entries, models.AttendanceEntry{
				StudentID: s.ID,
				Name:      strings.TrimSpace(s.Name),
				Status:    normalizeStatus(s.Status),
			})
		}
		return entries
	case doc.Presences != nil:
		names := make([]string, 0, len(doc.Presences))
		for name := range doc.Presences {
			names = append(names, name)
		}
		sort.Strings(names)
		entries := make([]models.AttendanceEntry, 0, len(names))
		for _, name := range names {
			status := models.AttendanceStatusAbsent
			if doc.Presences[name] {
				status = models.AttendanceStatusPresent
			}
			entries = append(entries, models.AttendanceEntry{Name: strings.TrimSpace(name), Status: status})
		}
		return entries
	case doc.StudentName != "" && doc.Status != "":
		return []models.AttendanceEntry{{Name: strings.TrimSpace(doc.StudentName), Status: normalizeStatus(doc.Status)}}
	}
	return []models.AttendanceEntry{}
}

// normalizeStatus treats anything but "presente" (any case) as an absence.
func normalizeStatus(raw string) models.AttendanceStatus {
	if strings.EqualFold(strings.TrimSpace(raw), string(models.AttendanceStatusPresent)) {
		return models.AttendanceStatusPresent
	}
	return models.AttendanceStatusAbsent
}

func toAttendanceDocument(record *models.AttendanceRecord) attendanceDocument {
	students := make([]attendanceStudentDocument, 0, len(record.Students))
	for _, s := range record.Students {
		students = append(students, attendanceStudentDocument{ID: s.StudentID, Name: s.Name, Status: string(s.Status)})
	}
	return attendanceDocument{
		Date:     docDate{record.Date},
		Activity: record.Activity,
		District: nonEmpty(record.District),
		Teacher:  record.Teacher,
		Students: students,
		SavedAt:  docTimestamp{record.SavedAt},
	}
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
