package main

import (
	"fmt"
	"net/http"
	"os"

	temporalclient "go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/brplates/controller/internal/activity"
	"github.com/brplates/controller/internal/config"
	"github.com/brplates/controller/internal/logging"
	"github.com/brplates/controller/internal/metrics"
	"github.com/brplates/controller/internal/pipeline"
	"github.com/brplates/controller/internal/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate("worker"); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(cfg)

	tc, err := temporalclient.Dial(temporalclient.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to temporal")
	}
	defer tc.Close()

	pipe := pipeline.NewFromConfig(cfg, logger)

	w := worker.New(tc, workflow.TaskQueue, worker.Options{})
	w.RegisterActivity(activity.NewPlate(pipe))
	w.RegisterWorkflow(workflow.RecognizePlateWorkflow)

	metricsServer := metrics.NewServer(cfg.MetricsListenAddr)
	go func() {
		logger.Info().Str("addr", cfg.MetricsListenAddr).Msg("starting metrics server")
		if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("metrics server failed")
		}
	}()

	logger.Info().Str("task_queue", workflow.TaskQueue).Msg("starting recognition worker")
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Fatal().Err(err).Msg("worker failed")
	}
}
