package services

import (
	"github.com/SAP-F-2025/difficulty-export/internal/models"
)

// ExportMerger reconciles freshly observed records with a dataset's
// existing export entries.
type ExportMerger struct {
	policy *MergePolicy
}

func NewExportMerger(policy *MergePolicy) *ExportMerger {
	if policy == nil {
		policy = DefaultMergePolicy()
	}
	return &ExportMerger{policy: policy}
}

// MergeEntry merges one incoming record into an existing entry field by
// field. The result always carries the current dataset and scale, and keeps
// the respondent and question ids when either side has them. Neither input
// is modified.
func (m *ExportMerger) MergeEntry(existing, incoming models.AnswerRecord, dataset string, scale models.DifficultyScale) models.AnswerRecord {
	merged := existing.Clone()

	for field, value := range incoming {
		current, present := merged[field]
		switch m.policy.For(field) {
		case PreferExisting:
			if !models.IsMeaningful(current) && (models.IsMeaningful(value) || !present) {
				merged[field] = value
			}
		default:
			if models.IsMeaningful(value) || !present {
				merged[field] = value
			}
		}
	}

	merged[models.FieldDataset] = dataset
	for _, field := range []string{models.FieldPID, models.FieldUID} {
		if merged.String(field) == "" {
			if v := incoming.String(field); v != "" {
				merged[field] = v
			}
		}
	}
	if scale != "" {
		merged[models.FieldDifficultyScale] = string(scale)
	}

	return merged
}

// MergeDataset merges every key present on either side. Keys only in the
// existing export are re-merged against themselves so derived fields are
// refreshed; nothing is dropped.
func (m *ExportMerger) MergeDataset(existing, incoming map[string]models.AnswerRecord, dataset string, scale models.DifficultyScale) map[string]models.AnswerRecord {
	merged := make(map[string]models.AnswerRecord, len(existing)+len(incoming))

	for key, old := range existing {
		next, ok := incoming[key]
		if !ok {
			next = old
		}
		merged[key] = m.MergeEntry(old, next, dataset, scale)
	}
	for key, rec := range incoming {
		if _, done := merged[key]; done {
			continue
		}
		merged[key] = m.MergeEntry(models.AnswerRecord{}, rec, dataset, scale)
	}

	return merged
}
