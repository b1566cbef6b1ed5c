package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/feichai0017/doc-intelligence/api/handlers"
	"github.com/feichai0017/doc-intelligence/api/middleware"
	"github.com/feichai0017/doc-intelligence/pkg/logger"
)

// SetupRoutes registers health, document, and, when a queue exists, task routes.
func SetupRoutes(r *gin.Engine, h *handlers.Handlers, log logger.Logger) {
	r.Use(middleware.RequestID())
	r.Use(middleware.AccessLog(log))
	r.Use(middleware.CORS())

	r.GET("/health", h.Health.Health)
	r.GET("/", h.Health.Root)
	r.NoRoute(handlers.NotFound)

	v1 := r.Group("/api/v1")

	docs := v1.Group("/documents")
	{
		docs.POST("/process", h.Document.ProcessDocument)
		docs.POST("/analyze", h.Document.AnalyzeDocument)
		docs.POST("/classify", h.Document.ClassifyDocument)
		docs.POST("/entities", h.Document.ExtractEntities)
		docs.POST("/upload", h.Document.UploadDocument)
		docs.POST("/upload/batch", h.Document.UploadBatch)
	}

	if h.Task != nil {
		tasks := v1.Group("/tasks")
		{
			tasks.POST("", h.Task.CreateTask)
			tasks.GET("/:taskId", h.Task.GetStatus)
			tasks.DELETE("/:taskId", h.Task.CancelTask)
		}
	}
}
