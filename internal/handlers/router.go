package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/difficulty-export/internal/repositories"
	"github.com/SAP-F-2025/difficulty-export/internal/services"
	"github.com/SAP-F-2025/difficulty-export/internal/utils"
)

type HandlerManager struct {
	exportHandler *ExportHandler
}

func NewHandlerManager(
	exportService services.DifficultyExportService,
	runs repositories.RunRepository,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		exportHandler: NewExportHandler(exportService, runs, logger),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "difficulty-export",
		})
	})

	v1 := router.Group("/api/v1")
	{
		v1.GET("/scales", hm.exportHandler.GetScales)
		v1.POST("/exports", hm.exportHandler.RunExport)

		runs := v1.Group("/runs")
		{
			runs.GET("", hm.exportHandler.ListRuns)
			runs.GET("/:run_id", hm.exportHandler.GetRun)
		}
	}
}
