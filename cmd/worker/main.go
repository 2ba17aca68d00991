package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/plastinin/jobwatch/internal/adapter/queue"
	"github.com/plastinin/jobwatch/internal/adapter/repository"
	"github.com/plastinin/jobwatch/internal/adapter/storage"
	"github.com/plastinin/jobwatch/internal/config"
	"github.com/plastinin/jobwatch/internal/usecase"
	"github.com/plastinin/jobwatch/pkg/logger"
	"go.uber.org/zap"
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

	log.Info("Starting jobwatch outcome worker",
		zap.String("redis", cfg.Redis.Addr()),
		zap.Bool("archive", cfg.S3.Enabled),
	)

	// Контекст для инициализации
	ctx := context.Background()

	// Инициализируем PostgreSQL
	dbPool, err := repository.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer dbPool.Close()

	if err := repository.EnsureSchema(ctx, dbPool); err != nil {
		log.Fatal("Failed to prepare database schema", zap.Error(err))
	}
	log.Info("Connected to PostgreSQL")

	// Архив снимков в S3 необязателен
	var archive usecase.SnapshotArchive
	if cfg.S3.Enabled {
		s3Archive, err := storage.NewS3Archive(ctx, cfg.S3)
		if err != nil {
			log.Fatal("Failed to connect to S3", zap.Error(err))
		}
		archive = s3Archive
		log.Info("Connected to S3",
			zap.String("endpoint", cfg.S3.Endpoint),
			zap.String("bucket", cfg.S3.Bucket),
		)
	}

	// Инициализируем use cases
	outcomeUC := usecase.NewOutcomeUseCase(repository.NewOutcomeRepository(dbPool), archive, log)

	// Инициализируем consumer
	consumer := queue.NewOutcomeConsumer(cfg.Redis, outcomeUC, log)

	// Запускаем consumer в горутине
	go func() {
		if err := consumer.Start(); err != nil {
			log.Fatal("Failed to start consumer", zap.Error(err))
		}
	}()

	log.Info("Worker started, waiting for outcomes...")

	// Ожидаем сигнал завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down worker...")

	// Останавливаем consumer
	consumer.Stop()

	log.Info("Worker stopped")
}
