package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/SAP-F-2025/difficulty-export/internal/models"
	"github.com/SAP-F-2025/difficulty-export/internal/store"
)

// decodeMetadata adapts DecodeRecord for the metadata cache.
func decodeMetadata(raw []byte) map[string]any {
	return models.DecodeRecord(raw)
}

// LoadRecord fetches and decodes one key. A missing or malformed value is
// (nil, nil); only store failures are returned as errors.
func LoadRecord(ctx context.Context, s store.Store, key string) (models.AnswerRecord, error) {
	raw, err := s.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return models.DecodeRecord(raw), nil
}
