// Пакет config — загрузка и валидация конфигурации File Module
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Варианты storage backend.
const (
	BackendS3    = "s3"
	BackendLocal = "local"
)

// Config содержит все параметры конфигурации File Module.
type Config struct {
	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string

	// URI подключения к MongoDB (обязательный)
	MongoURI string
	// Имя базы данных MongoDB
	MongoDatabase string

	// Адрес Redis (обязательный)
	RedisAddr string
	// Пароль Redis (опционально)
	RedisPassword string
	// Номер БД Redis
	RedisDB int

	// Список брокеров Kafka через запятую (обязательный)
	KafkaBrokers []string
	// Топик событий файлов
	KafkaTopic string

	// Storage backend: s3 или local. Выбирается один раз при старте,
	// варианты никогда не смешиваются для одного scope.
	StorageBackend string
	// Имя S3 bucket (обязательный при backend=s3)
	S3Bucket string
	// Регион S3
	S3Region string
	// Кастомный endpoint S3 (MinIO и другие S3-совместимые, опционально)
	S3Endpoint string
	// Access key S3 (опционально, иначе — цепочка провайдеров AWS SDK)
	S3AccessKey string
	// Secret key S3
	S3SecretKey string
	// URL health endpoint объектного хранилища для dephealth (опционально)
	S3HealthURL string
	// Директория локального хранилища (обязательный при backend=local)
	LocalDataDir string

	// TTL presigned URL загрузки
	UploadURLTTL time.Duration
	// TTL presigned URL скачивания
	DownloadURLTTL time.Duration
	// TTL pending-сессии presigned загрузки (backstop в Redis)
	PendingSessionTTL time.Duration
	// TTL записи в кэше метаданных
	CacheTTL time.Duration

	// Лимит памяти для multipart-парсинга
	MaxMultipartMemory int64

	// HTTP таймауты сервера
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration

	// Интервал проверки зависимостей topologymetrics
	DephealthCheckInterval time.Duration
	// Имя группы в метриках topologymetrics
	DephealthGroup string
	// Имя вершины графа (идентификатор инстанса)
	ServiceID string
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}

	// FM_PORT — порт HTTP-сервера (по умолчанию 8020)
	port, err := getEnvInt("FM_PORT", 8020)
	if err != nil {
		return nil, fmt.Errorf("FM_PORT: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("FM_PORT: значение %d вне допустимого диапазона", port)
	}
	cfg.Port = port

	// FM_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("FM_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("FM_LOG_LEVEL: %w", err)
	}

	// FM_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("FM_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("FM_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// FM_MONGO_URI — обязательный
	cfg.MongoURI, err = getEnvRequired("FM_MONGO_URI")
	if err != nil {
		return nil, err
	}

	// FM_MONGO_DATABASE — имя БД (по умолчанию teamchat_files)
	cfg.MongoDatabase = getEnvDefault("FM_MONGO_DATABASE", "teamchat_files")

	// FM_REDIS_ADDR — обязательный
	cfg.RedisAddr, err = getEnvRequired("FM_REDIS_ADDR")
	if err != nil {
		return nil, err
	}

	// FM_REDIS_PASSWORD — опционально
	cfg.RedisPassword = getEnvDefault("FM_REDIS_PASSWORD", "")

	// FM_REDIS_DB — номер БД Redis (по умолчанию 0)
	cfg.RedisDB, err = getEnvInt("FM_REDIS_DB", 0)
	if err != nil {
		return nil, fmt.Errorf("FM_REDIS_DB: %w", err)
	}

	// FM_KAFKA_BROKERS — обязательный, список через запятую
	brokers, err := getEnvRequired("FM_KAFKA_BROKERS")
	if err != nil {
		return nil, err
	}
	for _, b := range strings.Split(brokers, ",") {
		if b = strings.TrimSpace(b); b != "" {
			cfg.KafkaBrokers = append(cfg.KafkaBrokers, b)
		}
	}
	if len(cfg.KafkaBrokers) == 0 {
		return nil, fmt.Errorf("FM_KAFKA_BROKERS: пустой список брокеров")
	}

	// FM_KAFKA_TOPIC — топик событий (по умолчанию file-events)
	cfg.KafkaTopic = getEnvDefault("FM_KAFKA_TOPIC", "file-events")

	// FM_STORAGE_BACKEND — s3 или local (по умолчанию s3)
	cfg.StorageBackend = getEnvDefault("FM_STORAGE_BACKEND", BackendS3)
	switch cfg.StorageBackend {
	case BackendS3:
		// FM_S3_BUCKET — обязательный для s3
		cfg.S3Bucket, err = getEnvRequired("FM_S3_BUCKET")
		if err != nil {
			return nil, err
		}
		cfg.S3Region = getEnvDefault("FM_S3_REGION", "us-east-1")
		cfg.S3Endpoint = getEnvDefault("FM_S3_ENDPOINT", "")
		cfg.S3AccessKey = getEnvDefault("FM_S3_ACCESS_KEY", "")
		cfg.S3SecretKey = getEnvDefault("FM_S3_SECRET_KEY", "")
		cfg.S3HealthURL = getEnvDefault("FM_S3_HEALTH_URL", "")
	case BackendLocal:
		// FM_LOCAL_DATA_DIR — обязательный для local
		cfg.LocalDataDir, err = getEnvRequired("FM_LOCAL_DATA_DIR")
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("FM_STORAGE_BACKEND: недопустимое значение %q, допустимые: s3, local", cfg.StorageBackend)
	}

	// FM_UPLOAD_URL_TTL — TTL presigned URL загрузки (по умолчанию 15m)
	cfg.UploadURLTTL, err = getEnvDuration("FM_UPLOAD_URL_TTL", 15*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("FM_UPLOAD_URL_TTL: %w", err)
	}

	// FM_DOWNLOAD_URL_TTL — TTL presigned URL скачивания (по умолчанию 1h)
	cfg.DownloadURLTTL, err = getEnvDuration("FM_DOWNLOAD_URL_TTL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("FM_DOWNLOAD_URL_TTL: %w", err)
	}

	// FM_PENDING_SESSION_TTL — TTL pending-сессии (по умолчанию 20m).
	// Должен быть >= FM_UPLOAD_URL_TTL, иначе сессия истечёт раньше URL.
	cfg.PendingSessionTTL, err = getEnvDuration("FM_PENDING_SESSION_TTL", 20*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("FM_PENDING_SESSION_TTL: %w", err)
	}
	if cfg.PendingSessionTTL < cfg.UploadURLTTL {
		return nil, fmt.Errorf("FM_PENDING_SESSION_TTL: значение %s должно быть >= FM_UPLOAD_URL_TTL (%s)",
			cfg.PendingSessionTTL, cfg.UploadURLTTL)
	}

	// FM_CACHE_TTL — TTL кэша метаданных (по умолчанию 1h)
	cfg.CacheTTL, err = getEnvDuration("FM_CACHE_TTL", time.Hour)
	if err != nil {
		return nil, fmt.Errorf("FM_CACHE_TTL: %w", err)
	}

	// FM_MAX_MULTIPART_MEMORY — буфер multipart-парсинга (по умолчанию 32 MB)
	cfg.MaxMultipartMemory, err = getEnvInt64("FM_MAX_MULTIPART_MEMORY", 32<<20)
	if err != nil {
		return nil, fmt.Errorf("FM_MAX_MULTIPART_MEMORY: %w", err)
	}
	if cfg.MaxMultipartMemory <= 0 {
		return nil, fmt.Errorf("FM_MAX_MULTIPART_MEMORY: значение должно быть положительным")
	}

	// HTTP таймауты
	cfg.HTTPReadTimeout, err = getEnvDuration("FM_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FM_HTTP_READ_TIMEOUT: %w", err)
	}
	cfg.HTTPWriteTimeout, err = getEnvDuration("FM_HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FM_HTTP_WRITE_TIMEOUT: %w", err)
	}
	cfg.HTTPIdleTimeout, err = getEnvDuration("FM_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FM_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// FM_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 10s)
	cfg.ShutdownTimeout, err = getEnvDuration("FM_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FM_SHUTDOWN_TIMEOUT: %w", err)
	}

	// FM_DEPHEALTH_CHECK_INTERVAL — интервал проверки зависимостей (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("FM_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("FM_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// FM_DEPHEALTH_GROUP — имя группы в метриках topologymetrics
	cfg.DephealthGroup = getEnvDefault("FM_DEPHEALTH_GROUP", "file-module")

	// FM_SERVICE_ID — идентификатор инстанса (по умолчанию file-module)
	cfg.ServiceID = getEnvDefault("FM_SERVICE_ID", "file-module")

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvInt64 возвращает int64 значение переменной окружения или значение по умолчанию.
func getEnvInt64(key string, defaultVal int64) (int64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 15m, 1h)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
