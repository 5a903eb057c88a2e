// File Module — сервис хранения файлов TeamChat: приём и выдача
// файлов, дедупликация по содержимому, presigned-загрузки, события
// жизненного цикла в Kafka.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/bigkaa/teamchat/file-module/internal/api/handlers"
	"github.com/bigkaa/teamchat/file-module/internal/config"
	"github.com/bigkaa/teamchat/file-module/internal/events"
	"github.com/bigkaa/teamchat/file-module/internal/repository"
	"github.com/bigkaa/teamchat/file-module/internal/server"
	"github.com/bigkaa/teamchat/file-module/internal/service"
	"github.com/bigkaa/teamchat/file-module/internal/storage/objectstore"
	"github.com/bigkaa/teamchat/file-module/internal/storage/sessionstore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "file-module: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// 1. Переменные окружения из .env (если файл есть)
	_ = godotenv.Load()

	// 2. Конфигурация
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("конфигурация: %w", err)
	}

	// 3. Логгер
	logger := config.SetupLogger(cfg)
	logger.Info("Запуск File Module",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
		slog.String("storage_backend", cfg.StorageBackend))

	// 4. MongoDB: подключение и индексы
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return fmt.Errorf("подключение к MongoDB: %w", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logger.Error("Ошибка отключения от MongoDB", slog.String("error", err.Error()))
		}
	}()
	if err := mongoClient.Ping(ctx, nil); err != nil {
		return fmt.Errorf("ping MongoDB: %w", err)
	}

	repo := repository.NewMongoFileRepository(mongoClient.Database(cfg.MongoDatabase), logger)
	if err := repo.EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("индексы MongoDB: %w", err)
	}
	logger.Info("MongoDB подключена", slog.String("database", cfg.MongoDatabase))

	// 5. Redis: pending-сессии и кэш метаданных
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisClient.Close()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping Redis: %w", err)
	}
	logger.Info("Redis подключен", slog.String("addr", cfg.RedisAddr))

	sessions := sessionstore.New(redisClient, cfg.PendingSessionTTL)
	cache := service.NewRedisCache(redisClient, cfg.CacheTTL, logger)

	// 6. Kafka publisher
	publisher := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Error("Ошибка закрытия Kafka writer", slog.String("error", err.Error()))
		}
	}()
	logger.Info("Kafka publisher создан",
		slog.Any("brokers", cfg.KafkaBrokers),
		slog.String("topic", cfg.KafkaTopic))

	// 7. Storage backend
	var (
		backend        objectstore.Backend
		contentHandler *handlers.ContentHandler
	)
	switch cfg.StorageBackend {
	case config.BackendS3:
		backend, err = objectstore.NewS3Backend(ctx, cfg, logger)
		if err != nil {
			return fmt.Errorf("s3 backend: %w", err)
		}
	case config.BackendLocal:
		local, lerr := objectstore.NewLocalBackend(cfg.LocalDataDir, logger)
		if lerr != nil {
			return fmt.Errorf("local backend: %w", lerr)
		}
		backend = local
		contentHandler = handlers.NewContentHandler(local, logger)
	}

	// 8. Сервисы и обработчики
	fileService := service.NewFileService(repo, backend, sessions, cache, publisher, cfg, logger)
	fileHandler := handlers.NewFileHandler(fileService, cfg.MaxMultipartMemory, logger)

	healthHandler := handlers.NewHealthHandler()
	healthHandler.AddChecker("mongodb", repo)
	healthHandler.AddChecker("redis", handlers.ReadinessCheckerFunc(func(ctx context.Context) error {
		return redisClient.Ping(ctx).Err()
	}))

	// 9. Мониторинг зависимостей (topologymetrics)
	if cfg.S3HealthURL != "" {
		dephealthService, derr := service.NewDephealthService(
			cfg.ServiceID, cfg.DephealthGroup, cfg.S3HealthURL,
			cfg.DephealthCheckInterval, logger)
		if derr != nil {
			return fmt.Errorf("dephealth: %w", derr)
		}
		if err := dephealthService.Start(ctx); err != nil {
			return fmt.Errorf("запуск dephealth: %w", err)
		}
		defer dephealthService.Stop()
	} else {
		logger.Info("FM_S3_HEALTH_URL не задан, мониторинг зависимостей отключён")
	}

	// 10. HTTP-сервер
	srv := server.New(cfg, fileHandler, healthHandler, contentHandler, logger)
	return srv.Run(ctx)
}
