package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	cfg "github.com/feichai0017/doc-intelligence/config"
)

// HealthHandler serves liveness and service info.
type HealthHandler struct {
	service     string
	version     string
	environment string
}

func NewHealthHandler(appConfig *cfg.AppConfig) *HealthHandler {
	return &HealthHandler{
		service:     appConfig.ServiceName,
		version:     appConfig.Version,
		environment: appConfig.Env,
	}
}

func (h *HealthHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "healthy",
		"service":     h.service,
		"environment": h.environment,
	})
}

func (h *HealthHandler) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":     "Doc Intelligence Service",
		"version":     h.version,
		"environment": h.environment,
	})
}

func NotFound(c *gin.Context) {
	c.String(http.StatusNotFound, "Not Found")
}
