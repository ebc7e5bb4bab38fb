package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wms-platform/picking-orchestrator/internal/bootstrap"
	"github.com/wms-platform/picking-orchestrator/internal/infrastructure/events"
	"github.com/wms-platform/picking-orchestrator/internal/workflows"
	"github.com/wms-platform/picking-orchestrator/pkg/logging"
	"github.com/wms-platform/picking-orchestrator/pkg/metrics"
	pkgtemporal "github.com/wms-platform/picking-orchestrator/pkg/temporal"
)

const serviceName = bootstrap.ServiceName

func main() {
	_ = godotenv.Load()

	logger := bootstrap.NewLogger()
	logger.Info("Starting picking-orchestrator API")

	config := bootstrap.LoadConfig()
	ctx := context.Background()

	shutdownTracing := bootstrap.InitTracing(ctx, config.Tracing, logger)
	defer shutdownTracing()

	m := metrics.New(metrics.DefaultConfig(serviceName))

	var (
		launcher waveLauncher
		signaler events.WorkflowSignaler
	)
	if config.TemporalEnabled {
		temporalClient, err := pkgtemporal.NewClient(ctx, config.Temporal, logger)
		if err != nil {
			logger.WithError(err).Error("Failed to connect to Temporal")
			os.Exit(1)
		}
		defer temporalClient.Close()
		launcher = &temporalLauncher{client: temporalClient, logger: logger}
		signaler = temporalClient
		logger.Info("Temporal client initialized", "hostPort", config.Temporal.HostPort)
	}

	components, err := bootstrap.Wire(ctx, config, logger, m, signaler)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize picking core")
		os.Exit(1)
	}
	defer components.Close()

	svc := &services{
		waves:        components.Waves,
		tasks:        components.Tasks,
		productivity: components.Productivity,
		zones:        components.Zones,
		launcher:     launcher,
	}
	router := newRouter(svc, logger, m, components.Ready)

	srv := &http.Server{
		Addr:         config.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.WithError(err).Error("Server error")
		}
	}()
	logger.Info("Server started", "addr", config.ServerAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server stopped")
}

// temporalLauncher starts wave workflows on the picking task queue
type temporalLauncher struct {
	client *pkgtemporal.Client
	logger *logging.Logger
}

func (l *temporalLauncher) LaunchWave(ctx context.Context, input workflows.WavePickingInput) (string, error) {
	workflowID := workflows.WorkflowID(input.WaveID)
	run, err := l.client.StartWorkflow(ctx, workflowID, workflows.WavePickingWorkflow, input)
	if err != nil {
		return "", err
	}
	l.logger.WorkflowStart(ctx, "WavePickingWorkflow", workflowID)
	return run.GetRunID(), nil
}
