package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/pagelens/pagelens/internal/api/handler"
	"github.com/pagelens/pagelens/internal/api/router"
	"github.com/pagelens/pagelens/internal/audit/capture"
	"github.com/pagelens/pagelens/internal/audit/evaluator"
	"github.com/pagelens/pagelens/internal/audit/orchestrator"
	"github.com/pagelens/pagelens/internal/audit/storage"
	"github.com/pagelens/pagelens/internal/config"
	"github.com/pagelens/pagelens/shared/logger"
	"github.com/pagelens/pagelens/shared/postgresql"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	defaultConfigPath := os.Getenv("AUDIT_SERVICE_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/audit-service/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	appLogger.Info("Starting audit service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	// The durable backend is optional: with no database host, or with
	// the database down, audits live in the in-memory fallback.
	memory := storage.NewMemoryStore()
	var durable storage.Store
	var connected func(ctx context.Context) bool
	var dbClient *postgresql.Client

	if cfg.Database.Host != "" {
		dbClient, err = initPostgreSQL(&cfg.Database, appLogger.Logger)
		if err != nil {
			return fmt.Errorf("failed to initialize database client: %w", err)
		}
		durable = storage.NewPostgresStore(dbClient.GetDB(), appLogger.Logger)
		connected = dbClient.Available
	} else {
		appLogger.Warn("No database host configured, audits will not survive restarts")
	}

	store := storage.NewDualStore(durable, memory, connected, appLogger.Logger)

	engine := capture.NewEngine(cfg.Capture.Timeout, appLogger.Logger)

	eval := evaluator.New(evaluator.Config{
		BaseURL: cfg.Evaluator.BaseURL,
		Model:   cfg.Evaluator.Model,
		APIKey:  cfg.Evaluator.APIKey,
		Timeout: cfg.Evaluator.Timeout,
	}, appLogger.Logger)

	if eval.Configured() {
		appLogger.Info("Evaluator credential configured")
	} else {
		appLogger.Warn("No evaluator credential, running in demo mode")
	}

	orch := orchestrator.New(store, engine, eval, appLogger.Logger)

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	r := router.SetupRouter(&handler.Dependencies{
		Logger:        appLogger.Logger,
		Orchestrator:  orch,
		Store:         store,
		DatabaseUp:    connected,
		LLMConfigured: eval.Configured(),
		HistoryLimit:  cfg.History.Limit,
	})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed to start",
				slog.Any("error", err),
			)
			os.Exit(1)
		}
	}()

	appLogger.Info("Audit service is running",
		slog.String("address", addr),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown",
			slog.Any("error", err),
		)
		return err
	}

	// Give in-flight audits a chance to persist a terminal status.
	if err := orch.Drain(ctx); err != nil {
		appLogger.Warn("Shutdown with audits still in flight",
			slog.Any("error", err),
		)
	}

	if dbClient != nil {
		dbClient.Close()
	}

	appLogger.Info("Server shutdown complete")
	return nil
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	return logger.New(&logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	})
}

// initPostgreSQL initializes the PostgreSQL database client
func initPostgreSQL(cfg *config.DatabaseConfig, logger *slog.Logger) (*postgresql.Client, error) {
	return postgresql.NewClient(&postgresql.Config{
		Host:            cfg.Host,
		Port:            cfg.Port,
		User:            cfg.User,
		Password:        cfg.Password,
		Database:        cfg.Database,
		SSLMode:         cfg.SSLMode,
		MaxOpenConns:    cfg.MaxOpenConns,
		MaxIdleConns:    cfg.MaxIdleConns,
		ConnMaxLifetime: cfg.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.ConnMaxIdleTime,
	}, logger)
}
