package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/plastinin/jobwatch/internal/adapter/http/handler"
	"github.com/plastinin/jobwatch/internal/adapter/jobapi"
	"github.com/plastinin/jobwatch/internal/adapter/repository"
	"github.com/plastinin/jobwatch/internal/config"
	"github.com/plastinin/jobwatch/internal/telemetry"
	"github.com/plastinin/jobwatch/internal/usecase"
	"github.com/plastinin/jobwatch/internal/validation"
	"github.com/plastinin/jobwatch/pkg/logger"
	"go.uber.org/zap"

	apphttp "github.com/plastinin/jobwatch/internal/adapter/http"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	// Инициализируем логгер
	log := logger.Must(cfg.Log.Level, cfg.Log.Format)
	defer log.Sync()

	log.Info("Starting jobwatch API",
		zap.String("host", cfg.Server.Host),
		zap.Int("port", cfg.Server.Port),
		zap.String("job_api", cfg.JobAPI.BaseURL),
	)

	// Контекст живёт до остановки сервера, на нём работают все циклы опроса
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.Init(ctx, cfg.Telemetry)
		if err != nil {
			log.Warn("Telemetry disabled", zap.Error(err))
		} else {
			defer shutdown(context.WithoutCancel(ctx))
			log.Info("Telemetry enabled", zap.String("endpoint", cfg.Telemetry.OTLPEndpoint))
		}
	}

	// Клиент сервиса задач
	api := jobapi.NewClient(cfg.JobAPI, log)

	// Публикация итогов в очередь, если она включена
	opts, closeQueue := monitorOptions(cfg)
	defer closeQueue()
	if cfg.Outcomes.Enabled {
		log.Info("Outcome queue configured",
			zap.String("addr", cfg.Redis.Addr()),
		)
	}
	monitor := usecase.NewMonitor(api, usecase.NewScheduler(cfg.JobAPI.PollInterval), log, opts...)

	// Инициализируем handlers
	registry := handler.NewSessionRegistry(cfg.Server.SessionTTL)
	sessionHandler := handler.NewSessionHandler(ctx, registry, api, validation.MustSubmissionValidator(), monitor, log)
	healthHandler := handler.NewHealthHandler(registry, log)

	// История итогов читается из PostgreSQL, если она включена
	var outcomeHandler *handler.OutcomeHandler
	if cfg.Outcomes.Enabled {
		dbPool, err := repository.NewPostgresPool(ctx, cfg.Database)
		if err != nil {
			log.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer dbPool.Close()
		log.Info("Connected to PostgreSQL")

		outcomeUC := usecase.NewOutcomeUseCase(repository.NewOutcomeRepository(dbPool), nil, log)
		outcomeHandler = handler.NewOutcomeHandler(outcomeUC, log)
	}

	// Создаём роутер
	router := apphttp.NewRouter(sessionHandler, outcomeHandler, healthHandler, log)

	// Создаём HTTP сервер
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Запускаем сервер в горутине
	go func() {
		log.Info("HTTP server starting",
			zap.String("addr", cfg.Server.Addr()),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	// Останавливаем все открытые наблюдения
	sessions := registry.Drain()
	for _, s := range sessions {
		monitor.Leave(s)
	}
	log.Info("Sessions closed", zap.Int("count", len(sessions)))

	// Дожидаемся итогов, ушедших в очередь, до закрытия producer
	monitor.Wait()

	log.Info("Server stopped")
}
