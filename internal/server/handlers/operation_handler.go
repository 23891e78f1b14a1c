package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/decapage/internal/domain/metrics"
	"github.com/mamadbah2/decapage/internal/domain/models"
	"github.com/mamadbah2/decapage/internal/service/operations"
)

// OperationService describes the operation use cases exposed over HTTP.
type OperationService interface {
	Preview(form models.OperationForm) metrics.Result
	Submit(ctx context.Context, form models.OperationForm) (models.Operation, error)
	Get(ctx context.Context, id string) (operations.View, error)
	List(ctx context.Context, filter models.OperationFilter) ([]operations.View, error)
}

// OperationHandler serves the entry form and the operation listings.
type OperationHandler struct {
	svc    OperationService
	logger *zap.Logger
}

// NewOperationHandler constructs the HTTP handler adapter.
func NewOperationHandler(svc OperationService, logger *zap.Logger) *OperationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OperationHandler{svc: svc, logger: logger}
}

// DisplayMetrics is a rendered copy of metrics.Result with two-decimal values
// and availability as a percentage.
type DisplayMetrics struct {
	LineMeters      string `json:"lineMeters"`
	YieldRate       string `json:"yieldRate"`
	ExcavatedVolume string `json:"excavatedVolume"`
	AvailabilityPct string `json:"availabilityPct"`
	WorkCycle       string `json:"workCycle"`
}

type previewResponse struct {
	Metrics metrics.Result `json:"metrics"`
	Display DisplayMetrics `json:"display"`
}

type operationResponse struct {
	operations.View
	Display DisplayMetrics `json:"display"`
}

// Preview returns the live metrics for a partially filled form.
func (h *OperationHandler) Preview(c *gin.Context) {
	var form models.OperationForm
	if err := c.ShouldBindJSON(&form); err != nil {
		h.logger.Debug("invalid preview payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	result := h.svc.Preview(form)
	c.JSON(http.StatusOK, previewResponse{
		Metrics: result,
		Display: display(form.Input(), result),
	})
}

// Create saves a submitted operation.
func (h *OperationHandler) Create(c *gin.Context) {
	var form models.OperationForm
	if err := c.ShouldBindJSON(&form); err != nil {
		h.logger.Warn("invalid operation payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	op, err := h.svc.Submit(c.Request.Context(), form)
	if err != nil {
		if errors.Is(err, operations.ErrInvalidOperation) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("failed saving operation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save operation"})
		return
	}

	view := operations.View{Operation: op, Computed: metrics.Compute(op.Input)}
	if op.Metrics != nil {
		view.Computed, view.FromSnapshot = op.Metrics.Result(), true
	}
	c.JSON(http.StatusCreated, newOperationResponse(view))
}

// Get returns one operation.
func (h *OperationHandler) Get(c *gin.Context) {
	view, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, operations.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "operation not found"})
			return
		}
		h.logger.Error("failed loading operation", zap.Error(err), zap.String("id", c.Param("id")))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load operation"})
		return
	}

	c.JSON(http.StatusOK, newOperationResponse(view))
}

// List returns operations filtered by period and machine.
func (h *OperationHandler) List(c *gin.Context) {
	from, to, err := parsePeriod(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	filter := models.OperationFilter{From: from, To: to, Machine: c.Query("machine")}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		filter.Limit = limit
	}

	views, err := h.svc.List(c.Request.Context(), filter)
	if err != nil {
		h.logger.Error("failed listing operations", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list operations"})
		return
	}

	resp := make([]operationResponse, 0, len(views))
	for _, v := range views {
		resp = append(resp, newOperationResponse(v))
	}
	c.JSON(http.StatusOK, gin.H{"operations": resp})
}

func newOperationResponse(v operations.View) operationResponse {
	return operationResponse{View: v, Display: display(v.Input, v.Computed)}
}

func display(in metrics.Input, r metrics.Result) DisplayMetrics {
	return DisplayMetrics{
		LineMeters:      formatFixed(r.LineMeters),
		YieldRate:       formatFixed(r.YieldRate),
		ExcavatedVolume: formatFixed(r.ExcavatedVolume),
		AvailabilityPct: formatFixed(r.Availability * 100),
		WorkCycle:       metrics.FormatWorkCycle(in.OperatingHours, in.Downtime, metrics.LabelVerbose),
	}
}

func formatFixed(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
