package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/decapage/internal/service/operations"
)

// Importer backfills operations from an external sheet.
type Importer interface {
	Import(ctx context.Context) (operations.ImportResult, error)
}

// ImportHandler triggers sheet imports.
type ImportHandler struct {
	importer Importer
	logger   *zap.Logger
}

// NewImportHandler constructs the HTTP handler adapter.
func NewImportHandler(importer Importer, logger *zap.Logger) *ImportHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportHandler{importer: importer, logger: logger}
}

// Run imports the configured sheet range.
func (h *ImportHandler) Run(c *gin.Context) {
	result, err := h.importer.Import(c.Request.Context())
	if err != nil {
		h.logger.Error("sheet import failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "sheet import failed", "imported": result.Imported})
		return
	}

	c.JSON(http.StatusOK, result)
}
