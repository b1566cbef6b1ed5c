package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/feichai0017/doc-intelligence/internal/models"
	"github.com/feichai0017/doc-intelligence/pkg/logger"
	"github.com/feichai0017/doc-intelligence/pkg/queue"
)

// Analyzer runs the document pipeline. *document.Pipeline satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, path string) (*models.Analysis, error)
}

type StatusSaver interface {
	SaveStatus(ctx context.Context, status *models.ProcessingTask) error
}

type DocumentWorker struct {
	*BaseWorker
	analyzer Analyzer
	statuses StatusSaver
}

func NewDocumentWorker(workerConfig *Config, analyzer Analyzer, statuses StatusSaver, log logger.Logger) *DocumentWorker {
	w := &DocumentWorker{
		BaseWorker: newBaseWorker(workerConfig, log),
		analyzer:   analyzer,
		statuses:   statuses,
	}
	w.mux.HandleFunc(queue.TaskTypeDocumentAnalyze, w.HandleAnalyze)
	return w
}

// HandleAnalyze runs one document:analyze task and records its progress.
// Missing or unsupported documents are not retried.
func (w *DocumentWorker) HandleAnalyze(ctx context.Context, t *asynq.Task) error {
	task, err := queue.DecodeTask(t.Payload())
	if err != nil {
		w.logger.Error("Invalid task payload",
			logger.String("payload", string(t.Payload())),
			logger.Error(err),
		)
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	log := w.logger.With(logger.String("taskId", task.ID), logger.String("path", task.Path))
	log.Info("Processing document task")

	status := queue.PendingStatus(task)
	status.Status = models.StatusRunning
	status.UpdatedAt = time.Now().UTC()
	w.save(ctx, status, log)

	analysis, err := w.analyzer.Analyze(ctx, task.Path)
	status.UpdatedAt = time.Now().UTC()
	if err != nil {
		status.Status = models.StatusFailed
		status.Error = err.Error()
		w.save(ctx, status, log)
		log.Error("Document task failed", logger.Error(err))

		if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrUnsupportedFormat) {
			return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
		}
		return err
	}

	status.Status = models.StatusCompleted
	status.Progress = 1.0
	status.Analysis = analysis
	w.save(ctx, status, log)

	log.Info("Document task completed",
		logger.String("category", analysis.Classification.Category),
	)
	return nil
}

func (w *DocumentWorker) save(ctx context.Context, status *models.ProcessingTask, log logger.Logger) {
	if err := w.statuses.SaveStatus(ctx, status); err != nil {
		log.Error("Failed to write task status",
			logger.String("status", string(status.Status)),
			logger.Error(err),
		)
	}
}
