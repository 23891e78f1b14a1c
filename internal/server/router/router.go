package router

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mamadbah2/decapage/internal/server/handlers"
)

// Handlers groups the HTTP adapters mounted by the router. Import is optional.
type Handlers struct {
	Operations *handlers.OperationHandler
	Reports    *handlers.ReportHandler
	Import     *handlers.ImportHandler
}

// New wires the Gin engine with required routes and middlewares. When
// apiToken is non-empty every /api route requires it as a bearer token.
func New(h Handlers, apiToken string, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	if apiToken != "" {
		api.Use(bearerAuthMiddleware(apiToken))
	}

	ops := api.Group("/operations")
	ops.POST("/preview", h.Operations.Preview)
	ops.POST("", h.Operations.Create)
	ops.GET("", h.Operations.List)
	ops.GET("/:id", h.Operations.Get)
	if h.Import != nil {
		ops.POST("/import", h.Import.Run)
	}

	reports := api.Group("/reports")
	reports.GET("/summary", h.Reports.Summary)
	reports.GET("/operations.csv", h.Reports.ExportCSV)

	if logger != nil {
		logger.Info("router initialized", zap.Bool("auth", apiToken != ""), zap.Bool("import", h.Import != nil))
	}

	return r
}

func bearerAuthMiddleware(token string) gin.HandlerFunc {
	expected := []byte(token)
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		provided, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(strings.TrimSpace(provided)), expected) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}
