package handlers

import (
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/difficulty-export/internal/models"
	"github.com/SAP-F-2025/difficulty-export/internal/repositories"
	"github.com/SAP-F-2025/difficulty-export/internal/services"
	"github.com/SAP-F-2025/difficulty-export/internal/utils"
)

type ExportHandler struct {
	BaseHandler
	exportService services.DifficultyExportService
	runs          repositories.RunRepository

	// running serialises export runs; a second request is rejected
	running sync.Mutex
}

// ScalesResponse is the result of a read-only pass
type ScalesResponse struct {
	RunID          string                            `json:"run_id"`
	Scales         map[string]models.DifficultyScale `json:"scales"`
	Stats          []models.DatasetStats             `json:"stats"`
	Switches       []string                          `json:"switches"`
	FirstObserved  string                            `json:"first_observed"`
	RecordsScanned int                               `json:"records_scanned"`
	RecordsSkipped int                               `json:"records_skipped"`
}

// ExportResponse is the result of a full export run
type ExportResponse struct {
	ScalesResponse
	Written []services.WrittenExport `json:"written"`
	Summary string                   `json:"summary"`
}

func NewExportHandler(
	exportService services.DifficultyExportService,
	runs repositories.RunRepository,
	logger utils.Logger,
) *ExportHandler {
	if runs == nil {
		runs = repositories.NopRunRepository{}
	}
	return &ExportHandler{
		BaseHandler:   NewBaseHandler(logger),
		exportService: exportService,
		runs:          runs,
	}
}

// GetScales runs a read-only pass and returns the inferred scales
// @Summary Inspect difficulty scales
// @Tags exports
// @Produce json
// @Success 200 {object} SuccessResponse{data=ScalesResponse}
// @Failure 503 {object} ErrorResponse
// @Router /scales [get]
func (h *ExportHandler) GetScales(c *gin.Context) {
	h.LogRequest(c, "Inspecting difficulty scales")

	result, err := h.exportService.Run(c.Request.Context(), services.ExportOptions{ReadOnly: true})
	if err != nil {
		h.handleRunError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Difficulty scales computed", newScalesResponse(result))
}

// RunExport merges the store into the export files
// @Summary Run difficulty export
// @Tags exports
// @Produce json
// @Success 200 {object} SuccessResponse{data=ExportResponse}
// @Failure 409 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /exports [post]
func (h *ExportHandler) RunExport(c *gin.Context) {
	if !h.running.TryLock() {
		h.handleRunError(c, services.ErrRunInProgress)
		return
	}
	defer h.running.Unlock()

	h.LogRequest(c, "Running difficulty export")

	result, err := h.exportService.Run(c.Request.Context(), services.ExportOptions{})
	if err != nil {
		h.handleRunError(c, err)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Difficulty export completed", ExportResponse{
		ScalesResponse: newScalesResponse(result),
		Written:        result.Written,
		Summary:        services.CountsLine(result),
	})
}

// ListRuns returns the most recent export runs
// @Summary List export runs
// @Tags exports
// @Produce json
// @Param limit query int false "Maximum runs to return"
// @Success 200 {object} SuccessResponse{data=[]models.ExportRun}
// @Router /runs [get]
func (h *ExportHandler) ListRuns(c *gin.Context) {
	limit := ParseLimitQuery(c, 20, 100)

	runs, err := h.runs.ListRecent(c.Request.Context(), limit)
	if err != nil {
		h.RespondWithError(c, http.StatusInternalServerError, "Failed to list export runs", err)
		return
	}
	if runs == nil {
		runs = []*models.ExportRun{}
	}

	h.RespondWithSuccess(c, http.StatusOK, "Export runs retrieved", runs)
}

// GetRun returns one export run by its id
// @Summary Get export run
// @Tags exports
// @Produce json
// @Param run_id path string true "Run ID"
// @Success 200 {object} SuccessResponse{data=models.ExportRun}
// @Failure 404 {object} ErrorResponse
// @Router /runs/{run_id} [get]
func (h *ExportHandler) GetRun(c *gin.Context) {
	runID := ParseStringIDParam(c, "run_id")
	if runID == "" {
		return
	}

	run, err := h.runs.GetByRunID(c.Request.Context(), runID)
	if err != nil {
		h.RespondWithError(c, http.StatusInternalServerError, "Failed to get export run", err)
		return
	}
	if run == nil {
		h.RespondWithError(c, http.StatusNotFound, "Export run not found", nil, runID)
		return
	}

	h.RespondWithSuccess(c, http.StatusOK, "Export run retrieved", run)
}

func (h *ExportHandler) handleRunError(c *gin.Context, err error) {
	var ve services.ValidationErrors
	switch {
	case services.IsConflict(err):
		h.RespondWithError(c, http.StatusConflict, "Export run already in progress", nil)
	case errors.As(err, &ve):
		h.RespondWithError(c, http.StatusBadRequest, "Validation failed", err, ve)
	case services.IsConfiguration(err):
		h.RespondWithError(c, http.StatusServiceUnavailable, "Export backend unavailable", err, err.Error())
	default:
		h.RespondWithError(c, http.StatusInternalServerError, "Export run failed", err)
	}
}

func newScalesResponse(result *services.ExportResult) ScalesResponse {
	return ScalesResponse{
		RunID:          result.RunID,
		Scales:         result.Scales,
		Stats:          result.Stats,
		Switches:       result.Switches.Messages(),
		FirstObserved:  result.Switches.FirstSeenSummary(),
		RecordsScanned: result.Scanned,
		RecordsSkipped: result.Skipped,
	}
}
