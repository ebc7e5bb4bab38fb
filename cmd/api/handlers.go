package main

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wms-platform/picking-orchestrator/internal/application"
	"github.com/wms-platform/picking-orchestrator/internal/domain"
	"github.com/wms-platform/picking-orchestrator/internal/workflows"
	"github.com/wms-platform/picking-orchestrator/pkg/errors"
	"github.com/wms-platform/picking-orchestrator/pkg/logging"
	"github.com/wms-platform/picking-orchestrator/pkg/middleware"
)

const defaultPerformanceWindow = 7 * 24 * time.Hour

// waveLauncher starts the wave picking workflow
type waveLauncher interface {
	LaunchWave(ctx context.Context, input workflows.WavePickingInput) (runID string, err error)
}

// services groups what the handlers need
type services struct {
	waves        *application.WaveService
	tasks        *application.TaskService
	productivity *application.ProductivityAnalyzer
	zones        *application.ZoneAnalyzer
	launcher     waveLauncher
}

type createWaveRequest struct {
	OrderIDs []string `json:"orderIds" binding:"required,min=1,dive,identifier"`
	Strategy string   `json:"strategy" binding:"required,strategy"`
	Zone     string   `json:"zone" binding:"omitempty,identifier"`
}

type cancelWaveRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

type startTaskRequest struct {
	PickerID string `json:"pickerId" binding:"required,identifier"`
}

type completeTaskRequest struct {
	PickedQuantity *int                  `json:"pickedQuantity" binding:"required,gte=0"`
	ActualTime     *int                  `json:"actualTime" binding:"omitempty,gte=0"`
	QualityChecks  []domain.QualityCheck `json:"qualityChecks"`
}

func respondError(c *gin.Context, logger *logging.Logger, err error) {
	middleware.NewErrorResponder(c, logger).RespondWithAppError(application.MapDomainError(err))
}

func bind(c *gin.Context, logger *logging.Logger, req interface{}) bool {
	if appErr := middleware.BindAndValidate(c, req); appErr != nil {
		middleware.NewErrorResponder(c, logger).RespondWithAppError(appErr)
		return false
	}
	return true
}

func createWaveHandler(svc *services, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createWaveRequest
		if !bind(c, logger, &req) {
			return
		}

		middleware.AddSpanAttributes(c,
			attribute.Int("wave.orders", len(req.OrderIDs)),
			attribute.String("wave.strategy", req.Strategy),
		)

		result, err := svc.waves.CreateWave(c.Request.Context(), application.CreateWaveCommand{
			OrderIDs: req.OrderIDs,
			Strategy: domain.Strategy(req.Strategy),
			Zone:     req.Zone,
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}

		status := http.StatusCreated
		if result.Partial() {
			status = http.StatusOK
		}
		c.JSON(status, result)
	}
}

func launchWaveHandler(svc *services, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if svc.launcher == nil {
			respondError(c, logger, errors.ErrServiceUnavailable("workflow engine"))
			return
		}

		var req createWaveRequest
		if !bind(c, logger, &req) {
			return
		}

		waveID := uuid.New().String()
		runID, err := svc.launcher.LaunchWave(c.Request.Context(), workflows.WavePickingInput{
			WaveID:   waveID,
			OrderIDs: req.OrderIDs,
			Strategy: req.Strategy,
			Zone:     req.Zone,
		})
		if err != nil {
			logger.WithError(err).Error("Failed to start wave workflow", "waveId", waveID)
			respondError(c, logger, err)
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"waveId":     waveID,
			"workflowId": workflows.WorkflowID(waveID),
			"runId":      runID,
		})
	}
}

func listWavesHandler(svc *services, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := application.ListWavesQuery{Status: domain.WaveStatus(c.Query("status"))}
		if raw := c.Query("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil || limit < 0 {
				respondError(c, logger, errors.ErrBadRequest("limit must be a non-negative integer"))
				return
			}
			query.Limit = limit
		}

		waves, err := svc.waves.ListWaves(c.Request.Context(), query)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"waves": waves, "count": len(waves)})
	}
}

func getWaveHandler(svc *services, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		wave, err := svc.waves.GetWave(c.Request.Context(), c.Param("waveId"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, wave)
	}
}

func getWaveTasksHandler(svc *services, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tasks, err := svc.waves.GetWaveTasks(c.Request.Context(), c.Param("waveId"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks)})
	}
}

func releaseWaveHandler(svc *services, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		waveID := c.Param("waveId")
		middleware.AddSpanAttributes(c, attribute.String("wave.id", waveID))

		wave, err := svc.waves.ReleaseWave(c.Request.Context(), waveID)
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, wave)
	}
}

func recordProgressHandler(svc *services, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		wave, err := svc.waves.RecordProgress(c.Request.Context(), c.Param("waveId"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, wave)
	}
}

func cancelWaveHandler(svc *services, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req cancelWaveRequest
		if !bind(c, logger, &req) {
			return
		}

		wave, err := svc.waves.CancelWave(c.Request.Context(), application.CancelWaveCommand{
			WaveID: c.Param("waveId"),
			Reason: req.Reason,
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, wave)
	}
}

func getTaskHandler(svc *services, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		task, err := svc.tasks.GetTask(c.Request.Context(), c.Param("taskId"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, task)
	}
}

func startTaskHandler(svc *services, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req startTaskRequest
		if !bind(c, logger, &req) {
			return
		}

		taskID := c.Param("taskId")
		middleware.AddSpanAttributes(c,
			attribute.String("task.id", taskID),
			attribute.String("picker.id", req.PickerID),
		)

		task, err := svc.tasks.StartTask(c.Request.Context(), application.StartTaskCommand{
			TaskID:   taskID,
			PickerID: req.PickerID,
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, task)
	}
}

func completeTaskHandler(svc *services, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req completeTaskRequest
		if !bind(c, logger, &req) {
			return
		}

		taskID := c.Param("taskId")
		middleware.AddSpanAttributes(c, attribute.String("task.id", taskID))

		task, err := svc.tasks.CompleteTask(c.Request.Context(), application.CompleteTaskCommand{
			TaskID:         taskID,
			PickedQuantity: *req.PickedQuantity,
			ActualTime:     req.ActualTime,
			QualityChecks:  req.QualityChecks,
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, task)
	}
}

func pickerTasksHandler(svc *services, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tasks, err := svc.tasks.ListTasksByPicker(c.Request.Context(), c.Param("pickerId"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"tasks": tasks, "count": len(tasks)})
	}
}

func pickerPerformanceHandler(svc *services, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		to := time.Now().UTC()
		from := to.Add(-defaultPerformanceWindow)

		var err error
		if raw := c.Query("to"); raw != "" {
			if to, err = time.Parse(time.RFC3339, raw); err != nil {
				respondError(c, logger, errors.ErrBadRequest("to must be an RFC3339 timestamp"))
				return
			}
			if c.Query("from") == "" {
				from = to.Add(-defaultPerformanceWindow)
			}
		}
		if raw := c.Query("from"); raw != "" {
			if from, err = time.Parse(time.RFC3339, raw); err != nil {
				respondError(c, logger, errors.ErrBadRequest("from must be an RFC3339 timestamp"))
				return
			}
		}

		perf, err := svc.productivity.ComputePickerPerformance(c.Request.Context(), application.PickerPerformanceQuery{
			PickerID: c.Param("pickerId"),
			From:     from,
			To:       to,
		})
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, perf)
	}
}

func zonePerformanceHandler(svc *services, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		perf, err := svc.zones.Analyze(c.Request.Context(), c.Param("zoneId"))
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, perf)
	}
}

func allZonesPerformanceHandler(svc *services, logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		zones, err := svc.zones.AnalyzeAll(c.Request.Context())
		if err != nil {
			respondError(c, logger, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"zones": zones, "count": len(zones)})
	}
}
