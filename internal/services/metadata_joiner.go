package services

import (
	"context"
	"fmt"

	"github.com/SAP-F-2025/difficulty-export/internal/cache"
	"github.com/SAP-F-2025/difficulty-export/internal/models"
	"github.com/SAP-F-2025/difficulty-export/internal/store"
)

// MetadataJoiner attaches question and dataset metadata to answer records.
type MetadataJoiner struct {
	cache cache.MetadataCache
}

func NewMetadataJoiner(c cache.MetadataCache) *MetadataJoiner {
	return &MetadataJoiner{cache: c}
}

// Enrich resolves the record's identity and joins its metadata in place.
// Payload ids win over the ids implied by the storage key. Human-readable
// question fields are only filled when absent; the metadata blobs and the
// identity fields are always overwritten.
func (j *MetadataJoiner) Enrich(ctx context.Context, key store.AnswerKey, record models.AnswerRecord) (string, error) {
	dataset := firstNonEmpty(record[models.FieldDataset], key.Dataset)
	uid := firstNonEmpty(record[models.FieldUID], key.UID)
	pid := firstNonEmpty(record[models.FieldPID], key.PID)

	question, err := j.cache.Question(ctx, dataset, uid)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(question) > 0 {
		record.SetDefault(models.FieldQuestion, either(question, "Question", "question"))
		record.SetDefault(models.FieldLabel, question["Label"])
		record.SetDefault(models.FieldMap, either(question, "Map", "map"))
		record[models.FieldQuestionData] = question
	}

	meta, err := j.cache.Dataset(ctx, dataset)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	if len(meta) > 0 {
		record[models.FieldDatasetMeta] = meta
	}

	record[models.FieldPID] = pid
	record[models.FieldDataset] = dataset
	record[models.FieldUID] = uid

	return dataset, nil
}

func firstNonEmpty(payload any, fallback string) string {
	if s := models.AsString(payload); s != "" && models.IsMeaningful(payload) {
		return s
	}
	return fallback
}

// either returns m[primary] when it is meaningful, else m[secondary].
func either(m map[string]any, primary, secondary string) any {
	if v := m[primary]; models.IsMeaningful(v) {
		return v
	}
	return m[secondary]
}
