package repository

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/mis-educa-api/internal/models"
	"github.com/noah-isme/mis-educa-api/pkg/docstore"
)

// CollectionEnrollments stores one document per student registration.
const CollectionEnrollments = "matriculas"

type guardianDocument struct {
	Name  string `json:"nome,omitempty"`
	Phone string `json:"telefone,omitempty"`
	Email string `json:"email,omitempty"`
}

// UnmarshalJSON accepts the guardian either as an object or as a bare name.
func (g *guardianDocument) UnmarshalJSON(raw []byte) error {
	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		g.Name = name
		return nil
	}
	type plain guardianDocument
	var p plain
	if err := json.Unmarshal(raw, &p); err != nil {
		return err
	}
	*g = guardianDocument(p)
	return nil
}

type enrollmentDocument struct {
	Number       string            `json:"numeroMatricula,omitempty"`
	Name         string            `json:"nome"`
	CPF          string            `json:"cpf,omitempty"`
	School       string            `json:"escola,omitempty"`
	Neighborhood string            `json:"bairro,omitempty"`
	BirthDate    *docDate          `json:"dataNascimento,omitempty"`
	Guardian     *guardianDocument `json:"responsavel,omitempty"`
	Activities   []string          `json:"oficinas"`
	CreatedAt    docTimestamp      `json:"criadoEm"`
}

// EnrollmentRepository reads and writes enrollments in the document store.
type EnrollmentRepository struct {
	store *docstore.Store
	now   func() time.Time
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(store *docstore.Store) *EnrollmentRepository {
	return &EnrollmentRepository{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// List returns every enrollment.
func (r *EnrollmentRepository) List(ctx context.Context) ([]models.Enrollment, error) {
	docs, err := r.store.List(ctx, CollectionEnrollments)
	if err != nil {
		return nil, err
	}
	return decodeEnrollments(docs)
}

// ListByActivity returns the enrollments whose activity list contains activity.
func (r *EnrollmentRepository) ListByActivity(ctx context.Context, activity string) ([]models.Enrollment, error) {
	docs, err := r.store.ListContaining(ctx, CollectionEnrollments, map[string][]string{"oficinas": {activity}})
	if err != nil {
		return nil, err
	}
	return decodeEnrollments(docs)
}

// FindByID loads a single enrollment.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	var doc enrollmentDocument
	if err := r.store.Get(ctx, CollectionEnrollments, id, &doc); err != nil {
		return nil, err
	}
	enrollment := doc.toModel(id, time.Time{})
	return &enrollment, nil
}

// Create stores a new enrollment, assigning an id and creation time when missing.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = r.now()
	}
	return r.store.Create(ctx, CollectionEnrollments, enrollment.ID, fromEnrollment(enrollment))
}

func decodeEnrollments(docs []docstore.Document) ([]models.Enrollment, error) {
	result := make([]models.Enrollment, 0, len(docs))
	for _, raw := range docs {
		var doc enrollmentDocument
		if err := raw.Decode(&doc); err != nil {
			return nil, err
		}
		result = append(result, doc.toModel(raw.ID, raw.CreatedAt))
	}
	return result, nil
}

// toModel converts the stored shape. fallbackCreated is used for legacy documents without criadoEm.
func (d enrollmentDocument) toModel(id string, fallbackCreated time.Time) models.Enrollment {
	enrollment := models.Enrollment{
		ID:           id,
		Number:       d.Number,
		Name:         strings.TrimSpace(d.Name),
		CPF:          d.CPF,
		School:       d.School,
		Neighborhood: strings.TrimSpace(d.Neighborhood),
		Activities:   make([]string, 0, len(d.Activities)),
		CreatedAt:    d.CreatedAt.Time,
	}
	for _, activity := range d.Activities {
		if trimmed := strings.TrimSpace(activity); trimmed != "" {
			enrollment.Activities = append(enrollment.Activities, trimmed)
		}
	}
	if d.BirthDate != nil && !d.BirthDate.IsZero() {
		birth := d.BirthDate.Time
		enrollment.BirthDate = &birth
	}
	if d.Guardian != nil {
		enrollment.GuardianName = d.Guardian.Name
		enrollment.GuardianPhone = d.Guardian.Phone
		enrollment.GuardianEmail = d.Guardian.Email
	}
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = fallbackCreated
	}
	return enrollment
}

func fromEnrollment(e *models.Enrollment) enrollmentDocument {
	doc := enrollmentDocument{
		Number:       e.Number,
		Name:         e.Name,
		CPF:          e.CPF,
		School:       e.School,
		Neighborhood: e.Neighborhood,
		Activities:   e.Activities,
		CreatedAt:    docTimestamp{e.CreatedAt},
	}
	if e.BirthDate != nil {
		doc.BirthDate = &docDate{*e.BirthDate}
	}
	if e.GuardianName != "" || e.GuardianPhone != "" || e.GuardianEmail != "" {
		doc.Guardian = &guardianDocument{Name: e.GuardianName, Phone: e.GuardianPhone, Email: e.GuardianEmail}
	}
	return doc
}
