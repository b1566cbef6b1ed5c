package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	cfg "github.com/feichai0017/doc-intelligence/config"
	"github.com/feichai0017/doc-intelligence/internal/service/document"
	"github.com/feichai0017/doc-intelligence/pkg/logger"
	"github.com/feichai0017/doc-intelligence/pkg/queue"
	"github.com/feichai0017/doc-intelligence/pkg/worker"
)

func main() {
	appConfig := cfg.GetAppConfig()
	redisConfig := cfg.GetRedisConfig()

	outputs := []string{"stdout"}
	if appConfig.LogFile != "" {
		outputs = append(outputs, appConfig.LogFile)
	}
	log, err := logger.NewLogger(
		logger.WithLevel(appConfig.LogLevel),
		logger.WithEncoding("json"),
		logger.WithOutputPaths(outputs),
		logger.WithInitialFields(map[string]interface{}{"service": appConfig.ServiceName + "-worker"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pipeline, err := document.Build(ctx, appConfig, log)
	if err != nil {
		log.Error("Failed to build document pipeline", logger.Error(err))
		os.Exit(1)
	}

	statusQueue, err := queue.GetQueue()
	if err != nil {
		log.Error("Failed to connect task queue", logger.Error(err))
		os.Exit(1)
	}
	defer statusQueue.Close()

	documentWorker := worker.NewDocumentWorker(&worker.Config{
		Redis:       queue.RedisOpt(redisConfig),
		Concurrency: redisConfig.Concurrency,
		Queues:      queue.Queues,
	}, pipeline, statusQueue, log.Named("worker"))

	if err := documentWorker.Start(ctx); err != nil {
		log.Error("Failed to start worker", logger.Error(err))
		os.Exit(1)
	}
	log.Info("Worker started", logger.Int("concurrency", redisConfig.Concurrency))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down worker...")
	documentWorker.Stop()
	if err := pipeline.Close(); err != nil {
		log.Error("Failed to release pipeline resources", logger.Error(err))
	}
	log.Info("Worker stopped")
}
