package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wms-platform/picking-orchestrator/internal/activities"
	"github.com/wms-platform/picking-orchestrator/internal/bootstrap"
	"github.com/wms-platform/picking-orchestrator/internal/workflows"
	"github.com/wms-platform/picking-orchestrator/pkg/metrics"
	pkgtemporal "github.com/wms-platform/picking-orchestrator/pkg/temporal"
)

func main() {
	_ = godotenv.Load()

	logger := bootstrap.NewLogger()
	logger.Info("Starting picking-orchestrator worker")

	config := bootstrap.LoadConfig()
	ctx := context.Background()

	shutdownTracing := bootstrap.InitTracing(ctx, config.Tracing, logger)
	defer shutdownTracing()

	m := metrics.New(metrics.DefaultConfig(bootstrap.ServiceName))

	temporalClient, err := pkgtemporal.NewClient(ctx, config.Temporal, logger)
	if err != nil {
		logger.WithError(err).Error("Failed to connect to Temporal")
		os.Exit(1)
	}
	defer temporalClient.Close()
	logger.Info("Connected to Temporal", "hostPort", config.Temporal.HostPort, "namespace", config.Temporal.Namespace)

	components, err := bootstrap.Wire(ctx, config, logger, m, temporalClient)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize picking core")
		os.Exit(1)
	}
	defer components.Close()

	w := temporalClient.NewWorker(pkgtemporal.DefaultWorkerOptions())
	w.RegisterWorkflow(workflows.WavePickingWorkflow)

	pickingActivities := activities.NewPickingActivities(components.Waves, m, logger)
	w.RegisterActivity(pickingActivities)
	logger.Info("Registered activities", "activities", []string{
		"CreateWave",
		"ReleaseWave",
		"RefreshWave",
		"CancelWave",
	})

	metricsAddr := bootstrap.GetEnv("METRICS_ADDR", ":9090")
	metricsServer := &http.Server{Addr: metricsAddr, Handler: m.Handler(), ReadTimeout: 5 * time.Second}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Metrics server error")
		}
	}()

	if err := w.Start(); err != nil {
		logger.WithError(err).Error("Worker failed to start")
		os.Exit(1)
	}
	logger.Info("Worker started", "taskQueue", pkgtemporal.TaskQueue, "metricsAddr", metricsAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down worker...")

	w.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Metrics server forced to shutdown")
	}

	logger.Info("Worker stopped")
}
