package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/feichai0017/doc-intelligence/api/handlers"
	"github.com/feichai0017/doc-intelligence/api/routes"
	cfg "github.com/feichai0017/doc-intelligence/config"
	"github.com/feichai0017/doc-intelligence/internal/service/document"
	"github.com/feichai0017/doc-intelligence/pkg/logger"
	"github.com/feichai0017/doc-intelligence/pkg/queue"
	"github.com/feichai0017/doc-intelligence/pkg/storage/local"
)

func newLogger(appConfig *cfg.AppConfig) (logger.Logger, error) {
	outputs := []string{"stdout"}
	if appConfig.LogFile != "" {
		outputs = append(outputs, appConfig.LogFile)
	}
	encoding := "console"
	if appConfig.IsProduction() {
		encoding = "json"
	}
	return logger.NewLogger(
		logger.WithLevel(appConfig.LogLevel),
		logger.WithEncoding(encoding),
		logger.WithOutputPaths(outputs),
		logger.WithInitialFields(map[string]interface{}{
			"service": appConfig.ServiceName,
			"env":     appConfig.Env,
		}),
	)
}

func main() {
	appConfig := cfg.GetAppConfig()

	log, err := newLogger(appConfig)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if appConfig.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline, err := document.Build(ctx, appConfig, log)
	if err != nil {
		log.Fatal("Failed to build document pipeline", logger.Error(err))
	}

	var taskQueue queue.Queue
	if cfg.GetRedisConfig().Enabled {
		q, err := queue.GetQueue()
		if err != nil {
			log.Fatal("Failed to connect task queue", logger.Error(err))
		}
		defer q.Close()
		taskQueue = q
	}

	uploads := local.NewLocalStorage(filepath.Join(appConfig.StorageRoot, "uploads"), log.Named("uploads"))
	h := handlers.NewHandlers(appConfig, pipeline, uploads, taskQueue, log)

	r := gin.New()
	r.Use(gin.Recovery())
	routes.SetupRoutes(r, h, log.Named("http"))

	srv := &http.Server{
		Addr:              ":" + appConfig.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("HTTP server starting", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", logger.Error(err))
			stop()
		}
	}()

	grpcServer, healthServer := newGRPCServer()
	lis, err := net.Listen("tcp", ":"+appConfig.GRPCPort)
	if err != nil {
		log.Fatal("Failed to listen for gRPC", logger.Error(err))
	}
	go func() {
		log.Info("gRPC health server starting", logger.String("addr", lis.Addr().String()))
		if err := grpcServer.Serve(lis); err != nil {
			log.Error("gRPC server error", logger.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down server...")
	healthServer.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", logger.Error(err))
	}
	grpcServer.GracefulStop()
	if err := pipeline.Close(); err != nil {
		log.Error("Failed to release pipeline resources", logger.Error(err))
	}
	log.Info("Server stopped")
}
