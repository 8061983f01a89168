package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/difficulty-export/internal/models"
)

// ExportRunPostgreSQL implements repositories.RunRepository with gorm
type ExportRunPostgreSQL struct {
	db *gorm.DB
}

func NewExportRunPostgreSQL(db *gorm.DB) *ExportRunPostgreSQL {
	return &ExportRunPostgreSQL{db: db}
}

// Migrate creates or updates the export_runs table
func (e *ExportRunPostgreSQL) Migrate(ctx context.Context) error {
	return e.db.WithContext(ctx).AutoMigrate(&models.ExportRun{})
}

func (e *ExportRunPostgreSQL) Create(ctx context.Context, run *models.ExportRun) error {
	return e.db.WithContext(ctx).Create(run).Error
}

func (e *ExportRunPostgreSQL) GetByRunID(ctx context.Context, runID string) (*models.ExportRun, error) {
	var run models.ExportRun
	err := e.db.WithContext(ctx).Where("run_id = ?", runID).First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (e *ExportRunPostgreSQL) ListRecent(ctx context.Context, limit int) ([]*models.ExportRun, error) {
	if limit <= 0 {
		limit = 20
	}
	var runs []*models.ExportRun
	if err := e.db.WithContext(ctx).Order("started_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, err
	}
	return runs, nil
}
