package repository

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/mis-educa-api/internal/models"
	"github.com/noah-isme/mis-educa-api/pkg/docstore"
)

// CollectionReportJobs stores export job metadata.
const CollectionReportJobs = "exportacoes"

// ReportRepository persists report job metadata.
type ReportRepository struct {
	store *docstore.Store
	now   func() time.Time
}

// NewReportRepository constructs the repository.
func NewReportRepository(store *docstore.Store) *ReportRepository {
	return &ReportRepository{store: store, now: func() time.Time { return time.Now().UTC() }}
}

// Create stores a new job with generated defaults.
func (r *ReportRepository) Create(ctx context.Context, job *models.ReportJob) error {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Status == "" {
		job.Status = models.ReportStatusQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = r.now()
	}
	return r.store.Create(ctx, CollectionReportJobs, job.ID, job)
}

// GetByID returns a job by its identifier.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*models.ReportJob, error) {
	var job models.ReportJob
	if err := r.store.Get(ctx, CollectionReportJobs, id, &job); err != nil {
		return nil, err
	}
	job.ID = id
	return &job, nil
}

// UpdateReportJobParams defines the mutable fields.
type UpdateReportJobParams struct {
	Status       *models.ReportStatus
	Progress     *int
	ResultURL    *string
	ErrorMessage *string
	FinishedAt   *time.Time
}

// Update applies the provided changes. Jobs are only mutated by the worker that owns them,
// so a read-modify-write is sufficient.
func (r *ReportRepository) Update(ctx context.Context, id string, params UpdateReportJobParams) error {
	job, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Progress != nil {
		job.Progress = *params.Progress
	}
	if params.ResultURL != nil {
		job.ResultURL = params.ResultURL
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return r.store.Put(ctx, CollectionReportJobs, id, job)
}

// ListQueued fetches queued jobs oldest first, used to resume work after a restart.
func (r *ReportRepository) ListQueued(ctx context.Context, limit int) ([]models.ReportJob, error) {
	if limit <= 0 {
		limit = 20
	}
	jobs, err := r.listByStatus(ctx, models.ReportStatusQueued)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(jobs, func(i, j int) bool { return jobs[i].CreatedAt.Before(jobs[j].CreatedAt) })
	if len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

// ListFinishedBefore retrieves completed jobs finished before cutoff, for cleanup.
func (r *ReportRepository) ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ReportJob, error) {
	if limit <= 0 {
		limit = 50
	}
	jobs, err := r.listByStatus(ctx, models.ReportStatusFinished)
	if err != nil {
		return nil, err
	}
	result := make([]models.ReportJob, 0, len(jobs))
	for _, job := range jobs {
		if job.FinishedAt != nil && job.FinishedAt.Before(cutoff) {
			result = append(result, job)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].FinishedAt.Before(*result[j].FinishedAt) })
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *ReportRepository) listByStatus(ctx context.Context, status models.ReportStatus) ([]models.ReportJob, error) {
	docs, err := r.store.ListContaining(ctx, CollectionReportJobs, map[string]models.ReportStatus{"status": status})
	if err != nil {
		return nil, err
	}
	jobs := make([]models.ReportJob, 0, len(docs))
	for _, raw := range docs {
		var job models.ReportJob
		if err := raw.Decode(&job); err != nil {
			return nil, err
		}
		job.ID = raw.ID
		jobs = append(jobs, job)
	}
	return jobs, nil
}
