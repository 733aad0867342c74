package dto

import "github.com/noah-isme/mis-educa-api/internal/models"

// ExportRequest captures the POST /exports payload.
type ExportRequest struct {
	Activity string              `json:"activity" validate:"required"`
	Month    int                 `json:"month" validate:"required,min=1,max=12"`
	Year     int                 `json:"year" validate:"required,min=2000,max=2100"`
	District *string             `json:"district,omitempty"`
	Format   models.ReportFormat `json:"format" validate:"required,oneof=csv pdf"`
}

// ExportJobResponse is returned after enqueueing an export.
type ExportJobResponse struct {
	ID       string              `json:"id"`
	Status   models.ReportStatus `json:"status"`
	Progress int                 `json:"progress"`
}

// ExportStatusResponse exposes job progress metadata.
type ExportStatusResponse struct {
	ID        string                 `json:"id"`
	Status    models.ReportStatus    `json:"status"`
	Progress  int                    `json:"progress"`
	Params    models.ReportJobParams `json:"params"`
	ResultURL *string                `json:"resultUrl,omitempty"`
	Error     *string                `json:"error,omitempty"`
}
