package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	cfg "github.com/feichai0017/doc-intelligence/config"
	"github.com/feichai0017/doc-intelligence/internal/models"
)

const TaskTypeDocumentAnalyze = "document:analyze"

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"

	statusTTL = 24 * time.Hour
)

var (
	ErrTaskNotFound = errors.New("task not found")
	// ErrStatusNotSaved means the task was queued but its pending status
	// could not be recorded. The task still runs.
	ErrStatusNotSaved = errors.New("task queued without status")
)

// Queues maps queue names to their asynq weights.
var Queues = map[string]int{
	QueueCritical: 6,
	QueueDefault:  3,
	QueueLow:      1,
}

type Queue interface {
	Enqueue(ctx context.Context, task *Task) error
	GetTaskStatus(ctx context.Context, taskID string) (*models.ProcessingTask, error)
	CancelTask(ctx context.Context, taskID string) error
	SaveStatus(ctx context.Context, status *models.ProcessingTask) error
}

// Task is the payload of a document:analyze job.
type Task struct {
	ID        string            `json:"id"`
	Type      string            `json:"type"`
	Priority  int               `json:"priority"`
	Path      string            `json:"path"`
	Metadata  map[string]string `json:"metadata"`
	CreatedAt time.Time         `json:"createdAt"`
}

// DecodeTask reads a task payload and checks its required fields.
func DecodeTask(payload []byte) (*Task, error) {
	var task Task
	if err := json.Unmarshal(payload, &task); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task: %w", err)
	}
	if task.ID == "" || task.Path == "" {
		return nil, fmt.Errorf("invalid task data: missing id or path")
	}
	return &task, nil
}

type AsynqQueue struct {
	client    *asynq.Client
	inspector *asynq.Inspector
	redis     *redis.Client
}

type QueueConfig struct {
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	MaxRetries     int
	ProcessTimeout time.Duration
}

// RedisOpt converts the shared redis settings for asynq.
func RedisOpt(redisConfig *cfg.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     redisConfig.Addr,
		Password: redisConfig.Password,
		DB:       redisConfig.DB,
	}
}

func GetQueue() (*AsynqQueue, error) {
	redisConfig := cfg.GetRedisConfig()
	return NewAsynqQueue(&QueueConfig{
		RedisAddr:      redisConfig.Addr,
		RedisPassword:  redisConfig.Password,
		RedisDB:        redisConfig.DB,
		MaxRetries:     3,
		ProcessTimeout: 30 * time.Minute,
	})
}

func NewAsynqQueue(queueConfig *QueueConfig) (*AsynqQueue, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     queueConfig.RedisAddr,
		Password: queueConfig.RedisPassword,
		DB:       queueConfig.RedisDB,
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     queueConfig.RedisAddr,
		Password: queueConfig.RedisPassword,
		DB:       queueConfig.RedisDB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		redisClient.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return &AsynqQueue{
		client:    asynq.NewClient(redisOpt),
		inspector: asynq.NewInspector(redisOpt),
		redis:     redisClient,
	}, nil
}

// Enqueue submits task and records it as pending.
func (q *AsynqQueue) Enqueue(ctx context.Context, task *Task) error {
	t, err := NewAsynqTask(task)
	if err != nil {
		return err
	}

	info, err := q.client.EnqueueContext(ctx, t)
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	task.ID = info.ID

	if err := q.SaveStatus(ctx, PendingStatus(task)); err != nil {
		return fmt.Errorf("%w: %v", ErrStatusNotSaved, err)
	}
	return nil
}

// NewAsynqTask builds the asynq task for a document job.
func NewAsynqTask(task *Task) (*asynq.Task, error) {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Type == "" {
		task.Type = TaskTypeDocumentAnalyze
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(task)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task: %w", err)
	}

	return asynq.NewTask(task.Type, payload,
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Minute),
		asynq.TaskID(task.ID),
		asynq.Queue(QueueForPriority(task.Priority)),
	), nil
}

// QueueForPriority: 1 is critical, 2 default, anything else low.
func QueueForPriority(priority int) string {
	switch priority {
	case 1:
		return QueueCritical
	case 2:
		return QueueDefault
	default:
		return QueueLow
	}
}

func PendingStatus(task *Task) *models.ProcessingTask {
	return &models.ProcessingTask{
		ID:        task.ID,
		Status:    models.StatusPending,
		Type:      task.Type,
		Priority:  task.Priority,
		Metadata:  task.Metadata,
		CreatedAt: task.CreatedAt,
		UpdatedAt: task.CreatedAt,
	}
}

// EnqueueAll submits every task concurrently. One failure does not stop the
// others: errs[i] is the outcome for tasks[i], and err joins the failures.
func EnqueueAll(ctx context.Context, q Queue, tasks []*Task) (errs []error, err error) {
	errs = make([]error, len(tasks))
	var g errgroup.Group
	g.SetLimit(8)
	for i, task := range tasks {
		i, task := i, task
		g.Go(func() error {
			errs[i] = q.Enqueue(ctx, task)
			return nil
		})
	}
	_ = g.Wait()
	return errs, errors.Join(errs...)
}

// Queued reports whether an Enqueue outcome left the task in the queue.
func Queued(err error) bool {
	return err == nil || errors.Is(err, ErrStatusNotSaved)
}

// GetTaskStatus prefers the status the worker saved, then asks asynq.
func (q *AsynqQueue) GetTaskStatus(ctx context.Context, taskID string) (*models.ProcessingTask, error) {
	data, err := q.redis.Get(ctx, StatusKey(taskID)).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to get status from redis: %w", err)
	}
	if err == nil {
		var status models.ProcessingTask
		if err := json.Unmarshal(data, &status); err != nil {
			return nil, fmt.Errorf("failed to unmarshal status: %w", err)
		}
		return &status, nil
	}

	for queueName := range Queues {
		info, err := q.inspector.GetTaskInfo(queueName, taskID)
		if err == nil {
			return ConvertAsynqStatus(info), nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
}

// CancelTask deletes a task that has not finished and marks it cancelled.
func (q *AsynqQueue) CancelTask(ctx context.Context, taskID string) error {
	for queueName := range Queues {
		if err := q.inspector.DeleteTask(queueName, taskID); err == nil {
			now := time.Now().UTC()
			return q.SaveStatus(ctx, &models.ProcessingTask{
				ID:        taskID,
				Status:    models.StatusCancelled,
				Type:      TaskTypeDocumentAnalyze,
				UpdatedAt: now,
			})
		}
	}
	return fmt.Errorf("%w: %s", ErrTaskNotFound, taskID)
}

func (q *AsynqQueue) SaveStatus(ctx context.Context, status *models.ProcessingTask) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("failed to marshal status: %w", err)
	}
	if err := q.redis.Set(ctx, StatusKey(status.ID), data, statusTTL).Err(); err != nil {
		return fmt.Errorf("failed to save status: %w", err)
	}
	return nil
}

func (q *AsynqQueue) Close() error {
	return errors.Join(q.client.Close(), q.inspector.Close(), q.redis.Close())
}

func StatusKey(taskID string) string {
	return fmt.Sprintf("task_status:%s", taskID)
}

// ConvertAsynqStatus maps an asynq task state onto a task status.
func ConvertAsynqStatus(info *asynq.TaskInfo) *models.ProcessingTask {
	status := &models.ProcessingTask{
		ID:        info.ID,
		Type:      info.Type,
		UpdatedAt: time.Now().UTC(),
	}

	switch info.State {
	case asynq.TaskStateActive:
		status.Status = models.StatusRunning
		status.Progress = 0.5
	case asynq.TaskStateCompleted:
		status.Status = models.StatusCompleted
		status.Progress = 1.0
		status.UpdatedAt = info.CompletedAt
	case asynq.TaskStateRetry, asynq.TaskStateArchived:
		status.Status = models.StatusFailed
		status.Error = info.LastErr
	default:
		status.Status = models.StatusPending
	}

	if task, err := DecodeTask(info.Payload); err == nil {
		status.Priority = task.Priority
		status.Metadata = task.Metadata
		status.CreatedAt = task.CreatedAt
	}
	return status
}
