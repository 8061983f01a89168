package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/difficulty-export/internal/store"
)

// MockStore is a mock implementation of store.Store
type MockStore struct {
	mock.Mock
}

func (m *MockStore) Members(ctx context.Context, key string) ([]string, error) {
	args := m.Called(ctx, key)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockStore) Scan(ctx context.Context, pattern string, fn func(key string) error) error {
	args := m.Called(ctx, pattern, fn)
	return args.Error(0)
}

func (m *MockStore) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	raw, _ := args.Get(0).([]byte)
	return raw, args.Error(1)
}

func (m *MockStore) Set(ctx context.Context, key string, value []byte) error {
	return m.Called(ctx, key, value).Error(0)
}

func (m *MockStore) AddMembers(ctx context.Context, key string, members ...string) error {
	return m.Called(ctx, key, members).Error(0)
}

func (m *MockStore) RemoveMembers(ctx context.Context, key string, members ...string) error {
	return m.Called(ctx, key, members).Error(0)
}

func decodeObject(raw []byte) map[string]any {
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil
	}
	return out
}

func TestMetadataCache_Question(t *testing.T) {
	ctx := context.Background()
	keys := store.NewKeys("v1")

	t.Run("LoadsOnce", func(t *testing.T) {
		s := new(MockStore)
		s.On("Get", ctx, "v1:datasets:urban:q1").Return([]byte(`{"Question":"How far?"}`), nil).Once()

		c := NewMetadataCache(s, keys, decodeObject)
		for i := 0; i < 3; i++ {
			m, err := c.Question(ctx, "urban", "q1")
			require.NoError(t, err)
			assert.Equal(t, "How far?", m["Question"])
		}

		s.AssertExpectations(t)
		assert.Equal(t, CacheStats{Hits: 2, Misses: 1}, c.Stats())
	})

	t.Run("CachesMisses", func(t *testing.T) {
		s := new(MockStore)
		s.On("Get", ctx, "v1:datasets:urban:meta").Return(nil, store.ErrNotFound).Once()

		c := NewMetadataCache(s, keys, decodeObject)
		for i := 0; i < 2; i++ {
			m, err := c.Dataset(ctx, "urban")
			require.NoError(t, err)
			assert.Nil(t, m)
		}
		s.AssertExpectations(t)
	})

	t.Run("MalformedIsAbsent", func(t *testing.T) {
		s := new(MockStore)
		s.On("Get", ctx, "v1:datasets:urban:q2").Return([]byte(`{not json`), nil).Once()

		m, err := NewMetadataCache(s, keys, decodeObject).Question(ctx, "urban", "q2")
		require.NoError(t, err)
		assert.Nil(t, m)
	})

	t.Run("StoreErrorNotCached", func(t *testing.T) {
		down := errors.New("connection refused")
		s := new(MockStore)
		s.On("Get", ctx, "v1:datasets:urban:meta").Return(nil, down).Twice()

		c := NewMetadataCache(s, keys, decodeObject)
		_, err := c.Dataset(ctx, "urban")
		assert.ErrorIs(t, err, down)
		_, err = c.Dataset(ctx, "urban")
		assert.ErrorIs(t, err, down)
		s.AssertExpectations(t)
	})
}
