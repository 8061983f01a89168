package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/difficulty-export/internal/models"
	"github.com/SAP-F-2025/difficulty-export/internal/store"
)

var testKeys = store.NewKeys("v1")

// seedAnswer stores an answer under its canonical key and registers the
// respondent.
func seedAnswer(t *testing.T, s *store.MemoryStore, pid, dataset, uid string, payload map[string]any) {
	t.Helper()
	ctx := context.Background()

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, testKeys.Answer(pid, dataset, uid), raw))
	require.NoError(t, s.AddMembers(ctx, testKeys.Respondents(), pid))
}

func seedJSON(t *testing.T, s *store.MemoryStore, key string, payload map[string]any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, s.Set(context.Background(), key, raw))
}

// record builds a labelled DifficultyRecord for timeline and classifier
// tests.
func record(dataset, pid, uid string, difficulty any, ts any, scale models.DifficultyScale) *DifficultyRecord {
	payload := models.AnswerRecord{
		models.FieldPID:     pid,
		models.FieldDataset: dataset,
		models.FieldUID:     uid,
	}
	if difficulty != nil {
		payload[models.FieldDifficulty] = difficulty
	}
	if ts != nil {
		payload[models.FieldTimestamp] = ts
	}
	if scale != "" {
		payload[models.FieldDifficultyScale] = string(scale)
	}
	return NewDifficultyRecord(dataset, payload)
}
