package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/doc-intelligence/internal/models"
	"github.com/feichai0017/doc-intelligence/pkg/logger"
	"github.com/feichai0017/doc-intelligence/pkg/queue"
)

type TaskHandler struct {
	queue  queue.Queue
	logger logger.Logger
}

// TaskRequest submits one path, or several through Paths.
type TaskRequest struct {
	Path     string            `json:"path"`
	Paths    []string          `json:"paths"`
	Priority int               `json:"priority"`
	Metadata map[string]string `json:"metadata"`
}

type TaskResponse struct {
	TaskID string `json:"taskId,omitempty"`
	Path   string `json:"path"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func NewTaskHandler(q queue.Queue, log logger.Logger) *TaskHandler {
	return &TaskHandler{queue: q, logger: log}
}

func (h *TaskHandler) CreateTask(c *gin.Context) {
	var req TaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, h.logger, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	paths := req.Paths
	if req.Path != "" {
		paths = append([]string{req.Path}, paths...)
	}
	if len(paths) == 0 {
		handleError(c, h.logger, http.StatusBadRequest, "No document paths provided", nil)
		return
	}

	tasks := make([]*queue.Task, len(paths))
	for i, p := range paths {
		tasks[i] = &queue.Task{
			Type:     queue.TaskTypeDocumentAnalyze,
			Priority: req.Priority,
			Path:     p,
			Metadata: req.Metadata,
		}
	}

	errs, err := queue.EnqueueAll(c.Request.Context(), h.queue, tasks)

	queued := 0
	responses := make([]TaskResponse, len(tasks))
	for i, t := range tasks {
		responses[i] = TaskResponse{Path: t.Path, Status: string(models.StatusPending)}
		if errs[i] != nil {
			responses[i].Error = errs[i].Error()
		}
		if !queue.Queued(errs[i]) {
			responses[i].Status = string(models.StatusFailed)
			continue
		}
		responses[i].TaskID = t.ID
		queued++
	}

	status := http.StatusAccepted
	switch {
	case err == nil:
	case queued == 0:
		status = http.StatusInternalServerError
	default:
		status = http.StatusMultiStatus
	}
	if err != nil {
		h.logger.Error("Failed to enqueue some tasks",
			logger.Int("queued", queued),
			logger.Int("total", len(tasks)),
			logger.Error(err),
		)
	}
	c.JSON(status, gin.H{"tasks": responses})
}

func (h *TaskHandler) GetStatus(c *gin.Context) {
	status, err := h.queue.GetTaskStatus(c.Request.Context(), c.Param("taskId"))
	if err != nil {
		handleError(c, h.logger, statusFor(err), "Failed to get status", err)
		return
	}
	c.JSON(http.StatusOK, status)
}

func (h *TaskHandler) CancelTask(c *gin.Context) {
	taskID := c.Param("taskId")
	if err := h.queue.CancelTask(c.Request.Context(), taskID); err != nil {
		handleError(c, h.logger, statusFor(err), "Failed to cancel task", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Task cancelled successfully",
		"taskId":  taskID,
	})
}
