// cmd/assistant-server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"raphael-assistant/internal/api"
	"raphael-assistant/internal/common/auth"
	"raphael-assistant/internal/common/camunda"
	"raphael-assistant/internal/common/config"
	"raphael-assistant/internal/common/logger"
	"raphael-assistant/internal/common/observability"
	"raphael-assistant/internal/pipeline"
	"raphael-assistant/internal/pipeline/classifier"
	"raphael-assistant/internal/pipeline/dispatcher"
	"raphael-assistant/internal/services/calendar"
	"raphael-assistant/internal/services/genai"
	"raphael-assistant/internal/services/storage"
	processturn "raphael-assistant/internal/workers/assistant/process-turn"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		boot := logger.New("info", "console", "")
		boot.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting assistant server...",
		zap.String("environment", cfg.App.Environment),
		zap.Bool("testMode", cfg.App.TestMode),
	)

	obs, err := observability.New(observability.Config{
		ServiceName:    cfg.Observability.ServiceName,
		JaegerEndpoint: cfg.Observability.JaegerEndpoint,
	})
	if err != nil {
		zapLog.Fatal("observability init failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Storage with retry ---
	var backend *storage.Backend
	err = retryWithBackoff(func() error {
		var err error
		backend, err = storage.Open(ctx, cfg, log)
		return err
	}, 10, 2*time.Second, zapLog, "Storage initialization")
	if err != nil {
		zapLog.Fatal("storage failed after retries", zap.Error(err))
	}
	defer backend.Close()

	repo := storage.NewRepository(backend.Store, nil)

	disp := dispatcher.New(repo, newCalendar(ctx, cfg, log), dispatcherConfig(cfg.Pipeline), log)
	p := pipeline.New(classifier.New(), disp, newGenerator(cfg, log), log,
		pipeline.WithReplyClassification(cfg.Pipeline.ClassifyReply),
		pipeline.WithObservability(obs),
	)
	svc := pipeline.NewService(p, repo, pipeline.ServiceConfig{
		HistoryTurns: cfg.Pipeline.HistoryTurns,
		MemoryLimit:  cfg.Pipeline.MemoryLimit,
		TaskLimit:    cfg.Pipeline.TaskLimit,
	}, log)

	// --- Optional Zeebe worker ---
	var zeebe *camunda.Client
	var turnWorker *camunda.CamundaWorker
	if cfg.Camunda.Enabled && config.IsWorkerEnabled(cfg, processturn.TaskType) {
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClientWithConfig(ctx, camunda.ConfigFrom(cfg.Camunda))
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}

		wcfg := processturn.LoadConfig(config.GetWorkerConfig(cfg, processturn.TaskType))
		handler := processturn.NewHandler(wcfg, svc, log)
		turnWorker = camunda.NewWorker(zeebe.GetClient(), processturn.TaskType, wcfg.MaxJobsActive, wcfg.Timeout, handler, log)
	}

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := api.NewRouter(api.Deps{
		Service:        svc,
		Verifier:       newVerifier(cfg),
		Health:         backend.Health,
		Logger:         log,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		RequestTimeout: config.GetDuration(cfg.Server.RequestTimeout),
	})
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zapLog.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLog.Error("HTTP server failed", zap.Error(err))
			stop()
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	zapLog.Info("Shutdown signal received, stopping server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.Server.ShutdownTimeout))
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error shutting down HTTP server", zap.Error(err))
	}
	if turnWorker != nil {
		turnWorker.Stop()
	}
	if zeebe != nil {
		if err := zeebe.Close(); err != nil {
			zapLog.Error("Error closing Zeebe client", zap.Error(err))
		}
	}
	if err := obs.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error flushing telemetry", zap.Error(err))
	}

	zapLog.Info("Assistant server stopped gracefully")
}

func dispatcherConfig(pc config.PipelineConfig) dispatcher.Config {
	dcfg := dispatcher.DefaultConfig()
	dcfg.BlockOnMissingFields = pc.BlockOnMissingFields
	if pc.TaskLimit > 0 {
		dcfg.TaskListLimit = pc.TaskLimit
	}
	return dcfg
}

func newCalendar(ctx context.Context, cfg *config.Config, log logger.Logger) calendar.Calendar {
	if cfg.App.TestMode || !cfg.Calendar.Enabled {
		return calendar.Unavailable{Reason: "calendar disabled"}
	}
	cal, err := calendar.NewGoogleCalendar(ctx, cfg.Calendar, log)
	if err != nil {
		log.Warn("calendar unavailable", map[string]interface{}{"error": err.Error()})
		return calendar.Unavailable{Reason: err.Error()}
	}
	return cal
}

func newGenerator(cfg *config.Config, log logger.Logger) genai.Generator {
	if cfg.App.TestMode || cfg.APIs.GenAI.APIKey == "" {
		log.Warn("generative replies disabled", map[string]interface{}{"testMode": cfg.App.TestMode})
		return genai.Unavailable{Reason: "no API key configured"}
	}
	return genai.NewGeminiClient(&cfg.APIs.GenAI, log)
}

func newVerifier(cfg *config.Config) auth.TokenVerifier {
	if cfg.App.TestMode || !cfg.Auth.Enabled {
		return auth.StaticVerifier{UserID: cfg.App.TestUserID}
	}
	kc := cfg.Auth.Keycloak
	return auth.NewKeycloakClient(kc.URL, kc.Realm, kc.ClientID, kc.ClientSecret)
}
