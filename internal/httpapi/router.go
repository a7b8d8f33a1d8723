package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"pagewatch.dev/core/internal/store"
)

type RouterConfig struct {
	OTelEnabled bool
	ServiceName string
}

// SetupRoutes wires the ordering OTel span creation → panic recovery →
// request logging, matching the ambient stack's span-then-recover-then-log
// sequencing elsewhere in this codebase.
func SetupRoutes(router *gin.Engine, processor TaskProcessor, tasks *store.TaskStore, cfg RouterConfig) {
	if cfg.OTelEnabled {
		router.Use(otelgin.Middleware(cfg.ServiceName))
	}
	router.Use(gin.Recovery())
	router.Use(RequestLogger())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	handler := NewInvokeHandler(processor, tasks)
	router.POST("/invoke", handler.Invoke)
	router.POST("/tasks/:id/run", handler.RunTask)
}
