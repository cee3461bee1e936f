// cmd/discovery-server/main.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"product-discovery/internal/bootstrap"
	"product-discovery/internal/common/camunda"
	"product-discovery/internal/common/config"
	"product-discovery/internal/common/logger"
	"product-discovery/internal/common/observability"
	transport "product-discovery/internal/transport/chi"
	extractintent "product-discovery/internal/workers/discovery/extract-intent"
	formatresponse "product-discovery/internal/workers/discovery/format-response"
	handlemessage "product-discovery/internal/workers/discovery/handle-message"
	normalizeintent "product-discovery/internal/workers/discovery/normalize-intent"
	parsequery "product-discovery/internal/workers/discovery/parse-query"
	querycatalog "product-discovery/internal/workers/discovery/query-catalog"
	"product-discovery/pkg/policy"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info", "console").Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.NewWithOutput(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync() //nolint:errcheck

	log := logger.NewZapAdapter(zapLog)
	zapLog.Info("Starting discovery server...",
		zap.String("environment", cfg.App.Environment),
		zap.String("catalog", cfg.Catalog.Driver),
	)

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	p, err := policy.Load(cfg.PolicyPath)
	if err != nil {
		zapLog.Fatal("policy load failed", zap.String("path", cfg.PolicyPath), zap.Error(err))
	}

	ctx := context.Background()

	res, err := bootstrap.Open(ctx, cfg, zapLog, log)
	if err != nil {
		zapLog.Fatal("backing services unavailable", zap.Error(err))
	}
	defer res.Close()

	service, err := handlemessage.NewService(handlemessage.ServiceDependencies{
		Policy:        p,
		Completer:     res.Completer,
		Store:         res.Store,
		Memory:        res.Memory,
		Observability: obs,
		Logger:        log,
	}, handlemessage.ConfigFromApp(cfg, p))
	if err != nil {
		zapLog.Fatal("failed to create discovery service", zap.Error(err))
	}

	// --- Camunda job workers ---
	var (
		zeebe   *camunda.Client
		workers []*camunda.Worker
	)
	if cfg.Camunda.Enabled {
		err = bootstrap.RetryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.Connect(cfg.Camunda)
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		zapLog.Info("Zeebe client connected successfully")
		res.Checks["zeebe"] = zeebe.HealthCheck

		workers = startWorkers(cfg, p, res, service, zeebe, log, zapLog)
	}

	// --- HTTP server ---
	checks := make(map[string]transport.Check, len(res.Checks))
	for name, check := range res.Checks {
		checks[name] = check
	}
	server := transport.NewServer(service, checks, cfg.App.Name, log)
	srv := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      transport.NewRouter(server, config.GetDuration(cfg.Server.RequestTimeout)),
		ReadTimeout:  config.GetDuration(cfg.Server.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.Server.WriteTimeout),
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, draining...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("HTTP server shutdown failed", zap.Error(err))
	}
	for _, w := range workers {
		w.Stop(shutdownCtx)
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}

	zapLog.Info("Discovery server stopped gracefully")
}

// startWorkers registers the composite handle-product-query job plus one job
// type per pipeline stage. The composite worker shares the HTTP service so
// both surfaces see the same conversation memory.
func startWorkers(
	cfg *config.Config,
	p *policy.Policy,
	res *bootstrap.Resources,
	service *handlemessage.Service,
	zeebe *camunda.Client,
	log logger.Logger,
	zapLog *zap.Logger,
) []*camunda.Worker {
	client := zeebe.GetClient()
	var workers []*camunda.Worker

	start := func(taskType string, handler camunda.JobHandler) {
		if w := camunda.StartWorker(client, taskType, config.GetWorkerConfig(cfg, taskType), handler, zapLog); w != nil {
			workers = append(workers, w)
		}
	}

	// Handle Product Query
	hm, err := handlemessage.NewHandler(handlemessage.HandlerOptions{
		CustomConfig: handlemessage.ConfigFromApp(cfg, p),
		Service:      service,
		Logger:       log,
	})
	if err != nil {
		zapLog.Fatal("failed to create handle-product-query handler", zap.Error(err))
	}
	start(handlemessage.TaskType, hm)

	// Extract Intent
	extractCfg := extractintent.LoadConfig()
	extractCfg.Enabled = cfg.LLM.Active()
	extractCfg.Timeout = config.GetDuration(cfg.LLM.Timeout)
	extractCfg.MinConfidence = cfg.LLM.MinConfidence
	extractCfg.SuggestionsEnabled = cfg.LLM.SuggestionsEnabled
	start(extractintent.TaskType, extractintent.NewHandler(extractCfg, res.Completer, &extractLoggerAdapter{log}))

	// Parse Query
	start(parsequery.TaskType, parsequery.NewHandler(parsequery.LoadConfig(), parsequery.NewParser(p), &parseLoggerAdapter{log}))

	// Normalize Intent
	start(normalizeintent.TaskType, normalizeintent.NewHandler(normalizeintent.LoadConfig(), p, &normalizeLoggerAdapter{log}))

	// Query Catalog
	catalogCfg := querycatalog.LoadConfig()
	catalogCfg.Timeout = config.GetDuration(cfg.Catalog.QueryTimeout)
	catalogCfg.MaxResults = cfg.Catalog.MaxResults
	catalogCfg.RelaxOnEmpty = p.RelaxOnEmpty
	catalogCfg.Index = cfg.Catalog.Index
	start(querycatalog.TaskType, querycatalog.NewHandler(catalogCfg, res.Store, handlemessage.CatalogLogger(log)))

	// Format Response
	formatCfg := formatresponse.LoadConfig()
	formatCfg.CurrencySymbol = p.Currency.Symbol
	start(formatresponse.TaskType, formatresponse.NewHandler(formatCfg, &formatLoggerAdapter{log}))

	zapLog.Info("job workers registered", zap.Int("count", len(workers)))
	return workers
}

// Logger adapters for workers that have their own Logger interfaces
type extractLoggerAdapter struct {
	logger.Logger
}

func (a *extractLoggerAdapter) With(fields map[string]interface{}) extractintent.Logger {
	return &extractLoggerAdapter{a.Logger.With(fields)}
}

type parseLoggerAdapter struct {
	logger.Logger
}

func (a *parseLoggerAdapter) With(fields map[string]interface{}) parsequery.Logger {
	return &parseLoggerAdapter{a.Logger.With(fields)}
}

type normalizeLoggerAdapter struct {
	logger.Logger
}

func (a *normalizeLoggerAdapter) With(fields map[string]interface{}) normalizeintent.Logger {
	return &normalizeLoggerAdapter{a.Logger.With(fields)}
}

type formatLoggerAdapter struct {
	logger.Logger
}

func (a *formatLoggerAdapter) With(fields map[string]interface{}) formatresponse.Logger {
	return &formatLoggerAdapter{a.Logger.With(fields)}
}
