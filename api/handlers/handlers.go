package handlers

import (
	cfg "github.com/feichai0017/doc-intelligence/config"
	"github.com/feichai0017/doc-intelligence/internal/utils/validator"
	"github.com/feichai0017/doc-intelligence/pkg/logger"
	"github.com/feichai0017/doc-intelligence/pkg/queue"
	"github.com/feichai0017/doc-intelligence/pkg/storage"
)

type Handlers struct {
	Health   *HealthHandler
	Document *DocumentHandler
	// Task is nil when no queue is configured.
	Task *TaskHandler
}

func NewHandlers(
	appConfig *cfg.AppConfig,
	documentService DocumentService,
	uploads storage.Storage,
	taskQueue queue.Queue,
	log logger.Logger,
) *Handlers {
	h := &Handlers{
		Health: NewHealthHandler(appConfig),
		Document: NewDocumentHandler(
			documentService,
			validator.NewDocumentValidator(log.Named("validator"), nil),
			uploads,
			log.Named("documents"),
		),
	}
	if taskQueue != nil {
		h.Task = NewTaskHandler(taskQueue, log.Named("tasks"))
	}
	return h
}
