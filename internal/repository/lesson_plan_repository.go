package repository

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/mis-educa-api/internal/models"
	"github.com/noah-isme/mis-educa-api/pkg/docstore"
)

// CollectionLessonPlans stores teachers' lesson plans.
const CollectionLessonPlans = "planosDeAula"

type lessonPlanDocument struct {
	Title        string       `json:"titulo"`
	Activity     string       `json:"oficina"`
	District     *string      `json:"distrito,omitempty"`
	Teacher      string       `json:"professor"`
	TeacherName  string       `json:"nomeProfessor,omitempty"`
	TeacherEmail string       `json:"professorEmail,omitempty"`
	Date         docDate      `json:"data"`
	Objectives   string       `json:"objetivos"`
	Materials    string       `json:"materiais,omitempty"`
	Development  string       `json:"desenvolvimento"`
	Evaluation   string       `json:"avaliacao"`
	CreatedAt    docTimestamp `json:"criadoEm"`
}

// LessonPlanRepository persists lesson plans in the document store.
type LessonPlanRepository struct {
	store *docstore.Store
	now   func() time.Time
}

// NewLessonPlanRepository constructs the repository.
func NewLessonPlanRepository(store *docstore.Store) *LessonPlanRepository {
	return &LessonPlanRepository{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// List returns lesson plans, narrowed to one activity when given.
func (r *LessonPlanRepository) List(ctx context.Context, activity string) ([]models.LessonPlan, error) {
	var (
		docs []docstore.Document
		err  error
	)
	if activity != "" {
		docs, err = r.store.ListContaining(ctx, CollectionLessonPlans, map[string]string{"oficina": activity})
	} else {
		docs, err = r.store.List(ctx, CollectionLessonPlans)
	}
	if err != nil {
		return nil, err
	}
	plans := make([]models.LessonPlan, 0, len(docs))
	for _, raw := range docs {
		var doc lessonPlanDocument
		if err := raw.Decode(&doc); err != nil {
			return nil, err
		}
		plans = append(plans, doc.toModel(raw.ID, raw.CreatedAt))
	}
	return plans, nil
}

// FindByID loads one lesson plan.
func (r *LessonPlanRepository) FindByID(ctx context.Context, id string) (*models.LessonPlan, error) {
	var doc lessonPlanDocument
	if err := r.store.Get(ctx, CollectionLessonPlans, id, &doc); err != nil {
		return nil, err
	}
	plan := doc.toModel(id, time.Time{})
	return &plan, nil
}

// Create stores a new lesson plan.
func (r *LessonPlanRepository) Create(ctx context.Context, plan *models.LessonPlan) error {
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = r.now()
	}
	return r.store.Create(ctx, CollectionLessonPlans, plan.ID, lessonPlanDocument{
		Title:        plan.Title,
		Activity:     plan.Activity,
		District:     nonEmpty(plan.District),
		Teacher:      plan.Teacher,
		TeacherEmail: plan.TeacherEmail,
		Date:         docDate{plan.Date},
		Objectives:   plan.Objectives,
		Materials:    plan.Materials,
		Development:  plan.Development,
		Evaluation:   plan.Evaluation,
		CreatedAt:    docTimestamp{plan.CreatedAt},
	})
}

// Delete removes a lesson plan.
func (r *LessonPlanRepository) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, CollectionLessonPlans, id)
}

func (d lessonPlanDocument) toModel(id string, fallbackCreated time.Time) models.LessonPlan {
	teacher := strings.TrimSpace(d.Teacher)
	if teacher == "" {
		teacher = strings.TrimSpace(d.TeacherName)
	}
	plan := models.LessonPlan{
		ID:           id,
		Title:        d.Title,
		Activity:     strings.TrimSpace(d.Activity),
		District:     nonEmpty(d.District),
		Teacher:      teacher,
		TeacherEmail: d.TeacherEmail,
		Date:         d.Date.Time,
		Objectives:   d.Objectives,
		Materials:    d.Materials,
		Development:  d.Development,
		Evaluation:   d.Evaluation,
		CreatedAt:    d.CreatedAt.Time,
	}
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = fallbackCreated
	}
	return plan
}
