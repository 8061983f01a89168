package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/difficulty-export/internal/models"
	"github.com/SAP-F-2025/difficulty-export/internal/repositories"
	"github.com/SAP-F-2025/difficulty-export/internal/services"
	"github.com/SAP-F-2025/difficulty-export/internal/utils"
)

// MockExportService is a mock implementation of services.DifficultyExportService
type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) Run(ctx context.Context, opts services.ExportOptions) (*services.ExportResult, error) {
	args := m.Called(ctx, opts)
	result, _ := args.Get(0).(*services.ExportResult)
	return result, args.Error(1)
}

// MockRunRepository is a mock implementation of repositories.RunRepository
type MockRunRepository struct {
	mock.Mock
}

func (m *MockRunRepository) Create(ctx context.Context, run *models.ExportRun) error {
	return m.Called(ctx, run).Error(0)
}

func (m *MockRunRepository) GetByRunID(ctx context.Context, runID string) (*models.ExportRun, error) {
	args := m.Called(ctx, runID)
	run, _ := args.Get(0).(*models.ExportRun)
	return run, args.Error(1)
}

func (m *MockRunRepository) ListRecent(ctx context.Context, limit int) ([]*models.ExportRun, error) {
	args := m.Called(ctx, limit)
	runs, _ := args.Get(0).([]*models.ExportRun)
	return runs, args.Error(1)
}

func setupRouter(svc services.DifficultyExportService, runs *MockRunRepository) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	var repo repositories.RunRepository
	if runs != nil {
		repo = runs
	}
	NewHandlerManager(svc, repo, utils.NewDiscardLogger()).SetupRoutes(router)
	return router
}

func sampleResult() *services.ExportResult {
	return &services.ExportResult{
		RunID:    "run-1",
		Scales:   map[string]models.DifficultyScale{"ds": models.ScaleTen},
		Stats:    []models.DatasetStats{{Dataset: "ds", Scale: models.ScaleTen, Records: 2}},
		Written:  []services.WrittenExport{{Dataset: "ds", Path: "annotations/ds.jsonl", Scale: models.ScaleTen, Entries: 2}},
		Scanned:  2,
		Switches: services.BuildTimeline(nil).Reconstruct(),
	}
}

func decodeData(t *testing.T, w *httptest.ResponseRecorder, into any) {
	t.Helper()
	var resp struct {
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NoError(t, json.Unmarshal(resp.Data, into))
}

func TestHealth(t *testing.T) {
	router := setupRouter(&MockExportService{}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestExportHandler_GetScales(t *testing.T) {
	svc := &MockExportService{}
	svc.On("Run", mock.Anything, services.ExportOptions{ReadOnly: true}).Return(sampleResult(), nil)
	router := setupRouter(svc, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/scales", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var got ScalesResponse
	decodeData(t, w, &got)
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, models.ScaleTen, got.Scales["ds"])
	assert.Equal(t, []string{"0-10 → 0-5 switch not observed", "0-5 → time switch not observed"}, got.Switches)
	svc.AssertExpectations(t)
}

func TestExportHandler_RunExport(t *testing.T) {
	svc := &MockExportService{}
	svc.On("Run", mock.Anything, services.ExportOptions{}).Return(sampleResult(), nil)
	router := setupRouter(svc, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/exports", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var got ExportResponse
	decodeData(t, w, &got)
	assert.Equal(t, "graded/updated: 1 dataset (2 records scanned, 0 skipped)", got.Summary)
	require.Len(t, got.Written, 1)
	assert.Equal(t, "ds", got.Written[0].Dataset)
}

func TestExportHandler_RunExportErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"store down", services.ErrStoreUnavailable, http.StatusServiceUnavailable},
		{"bad policy", services.ValidationErrors{{Field: "merge_policy", Message: "conflict"}}, http.StatusBadRequest},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &MockExportService{}
			svc.On("Run", mock.Anything, mock.Anything).Return(nil, tt.err)
			router := setupRouter(svc, nil)

			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/exports", nil))
			assert.Equal(t, tt.code, w.Code)
		})
	}
}

// blockingService holds Run open until release is closed
type blockingService struct {
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (b *blockingService) Run(ctx context.Context, opts services.ExportOptions) (*services.ExportResult, error) {
	b.once.Do(func() { close(b.started) })
	<-b.release
	return sampleResult(), nil
}

func TestExportHandler_ConcurrentRunRejected(t *testing.T) {
	svc := &blockingService{started: make(chan struct{}), release: make(chan struct{})}
	router := setupRouter(svc, nil)

	first := httptest.NewRecorder()
	done := make(chan struct{})
	go func() {
		defer close(done)
		router.ServeHTTP(first, httptest.NewRequest(http.MethodPost, "/api/v1/exports", nil))
	}()
	<-svc.started

	second := httptest.NewRecorder()
	router.ServeHTTP(second, httptest.NewRequest(http.MethodPost, "/api/v1/exports", nil))
	assert.Equal(t, http.StatusConflict, second.Code)

	close(svc.release)
	<-done
	assert.Equal(t, http.StatusOK, first.Code)
}

func TestExportHandler_Runs(t *testing.T) {
	runs := &MockRunRepository{}
	runs.On("ListRecent", mock.Anything, 5).Return([]*models.ExportRun{{RunID: "run-1"}}, nil)
	runs.On("GetByRunID", mock.Anything, "run-1").Return(&models.ExportRun{RunID: "run-1", Status: models.ExportRunCompleted}, nil)
	runs.On("GetByRunID", mock.Anything, "missing").Return(nil, nil)
	router := setupRouter(&MockExportService{}, runs)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/runs?limit=5", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var list []models.ExportRun
	decodeData(t, w, &list)
	require.Len(t, list, 1)
	assert.Equal(t, "run-1", list[0].RunID)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/runs/run-1", nil))
	require.Equal(t, http.StatusOK, w.Code)
	var run models.ExportRun
	decodeData(t, w, &run)
	assert.Equal(t, models.ExportRunCompleted, run.Status)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/runs/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	runs.AssertExpectations(t)
}
