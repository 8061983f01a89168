package models

import (
	"time"

	"gorm.io/datatypes"
)

type ExportRunStatus string

const (
	ExportRunCompleted ExportRunStatus = "completed"
	ExportRunFailed    ExportRunStatus = "failed"
)

// ExportRun is the audit row written for each engine invocation.
type ExportRun struct {
	ID       uint   `json:"id" gorm:"primaryKey"`
	RunID    string `json:"run_id" gorm:"not null;uniqueIndex;size:36"` // UUID
	ReadOnly bool   `json:"read_only" gorm:"not null;default:false"`

	Status ExportRunStatus `json:"status" gorm:"not null;size:20;index"`
	Error  string          `json:"error,omitempty" gorm:"type:text"`

	// Counts
	RecordsScanned  int `json:"records_scanned"`
	RecordsSkipped  int `json:"records_skipped"`
	DatasetsUpdated int `json:"datasets_updated"`

	Scales  datatypes.JSON `json:"scales" gorm:"type:jsonb"`  // dataset -> scale
	Written datatypes.JSON `json:"written" gorm:"type:jsonb"` // dataset -> export path

	StartedAt  time.Time `json:"started_at" gorm:"index"`
	FinishedAt time.Time `json:"finished_at"`
	CreatedAt  time.Time `json:"created_at"`
}

func (ExportRun) TableName() string {
	return "export_runs"
}
