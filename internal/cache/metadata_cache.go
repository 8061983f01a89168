package cache

import (
	"context"
	"errors"
	"fmt"

	"github.com/SAP-F-2025/difficulty-export/internal/store"
)

// Metadata is a decoded reference-data object (question or dataset).
type Metadata = map[string]any

// Decoder turns a raw stored value into an object, or nil when the value is
// empty or malformed.
type Decoder func(raw []byte) map[string]any

// MetadataCache serves question and dataset metadata for one run. A nil
// result means the metadata does not exist.
type MetadataCache interface {
	Question(ctx context.Context, dataset, uid string) (Metadata, error)
	Dataset(ctx context.Context, dataset string) (Metadata, error)
	Stats() CacheStats
}

type CacheStats struct {
	Hits   int `json:"hits"`
	Misses int `json:"misses"`
}

type questionKey struct {
	dataset string
	uid     string
}

// storeMetadataCache memoises lookups against the store, including misses.
// It is not safe for concurrent use; each run owns its own instance.
type storeMetadataCache struct {
	store    store.Store
	keys     store.Keys
	decode   Decoder
	question map[questionKey]Metadata
	dataset  map[string]Metadata
	stats    CacheStats
}

func NewMetadataCache(s store.Store, keys store.Keys, decode Decoder) MetadataCache {
	return &storeMetadataCache{
		store:    s,
		keys:     keys,
		decode:   decode,
		question: make(map[questionKey]Metadata),
		dataset:  make(map[string]Metadata),
	}
}

func (c *storeMetadataCache) Question(ctx context.Context, dataset, uid string) (Metadata, error) {
	k := questionKey{dataset: dataset, uid: uid}
	if m, ok := c.question[k]; ok {
		c.stats.Hits++
		return m, nil
	}
	c.stats.Misses++

	m, err := c.load(ctx, c.keys.Question(dataset, uid))
	if err != nil {
		return nil, err
	}
	c.question[k] = m
	return m, nil
}

func (c *storeMetadataCache) Dataset(ctx context.Context, dataset string) (Metadata, error) {
	if m, ok := c.dataset[dataset]; ok {
		c.stats.Hits++
		return m, nil
	}
	c.stats.Misses++

	m, err := c.load(ctx, c.keys.DatasetMeta(dataset))
	if err != nil {
		return nil, err
	}
	c.dataset[dataset] = m
	return m, nil
}

func (c *storeMetadataCache) Stats() CacheStats {
	return c.stats
}

func (c *storeMetadataCache) load(ctx context.Context, key string) (Metadata, error) {
	raw, err := c.store.Get(ctx, key)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load metadata %s: %w", key, err)
	}
	return c.decode(raw), nil
}

// StaticMetadataCache serves fixed metadata. Tests use it in place of the
// store-backed cache.
type StaticMetadataCache struct {
	Questions map[string]map[string]Metadata // dataset -> uid -> metadata
	Datasets  map[string]Metadata
}

func (c *StaticMetadataCache) Question(ctx context.Context, dataset, uid string) (Metadata, error) {
	return c.Questions[dataset][uid], nil
}

func (c *StaticMetadataCache) Dataset(ctx context.Context, dataset string) (Metadata, error) {
	return c.Datasets[dataset], nil
}

func (c *StaticMetadataCache) Stats() CacheStats {
	return CacheStats{}
}
