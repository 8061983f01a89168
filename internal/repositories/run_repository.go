package repositories

import (
	"context"

	"github.com/SAP-F-2025/difficulty-export/internal/models"
)

// RunRepository stores the audit trail of export runs
type RunRepository interface {
	Create(ctx context.Context, run *models.ExportRun) error
	GetByRunID(ctx context.Context, runID string) (*models.ExportRun, error)
	ListRecent(ctx context.Context, limit int) ([]*models.ExportRun, error)
}

// NopRunRepository is used when no audit database is configured
type NopRunRepository struct{}

func (NopRunRepository) Create(ctx context.Context, run *models.ExportRun) error {
	return nil
}

func (NopRunRepository) GetByRunID(ctx context.Context, runID string) (*models.ExportRun, error) {
	return nil, nil
}

func (NopRunRepository) ListRecent(ctx context.Context, limit int) ([]*models.ExportRun, error) {
	return nil, nil
}
