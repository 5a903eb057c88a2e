// dephealth.go — интеграция с topologymetrics SDK для мониторинга зависимостей.
//
// File Module мониторит объектное хранилище через HTTP checker:
// health endpoint задаётся FM_S3_HEALTH_URL (MinIO: /minio/health/live).
// MongoDB и Redis проверяются напрямую в /health/ready — их состояние
// и так видно readiness probe, а checker для них в SDK отсутствует.
//
// Метрики доступны на /metrics вместе с остальными Prometheus-метриками:
//   - app_dependency_health — состояние зависимости (1 = ok, 0 = fail)
//   - app_dependency_latency_seconds — задержка проверки
//   - app_dependency_status — категория статуса
//   - app_dependency_status_detail — детальный статус
package service

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/BigKAA/topologymetrics/sdk-go/dephealth"
	_ "github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/httpcheck" // регистрация HTTP checker factory
	"github.com/prometheus/client_golang/prometheus"
)

// DephealthService — сервис мониторинга зависимостей через topologymetrics.
type DephealthService struct {
	dh     *dephealth.DepHealth
	logger *slog.Logger
}

// NewDephealthService создаёт сервис мониторинга зависимостей.
// Метрики регистрируются в глобальном Prometheus registry.
//
// Параметры:
//   - serviceID — имя вершины графа текущего приложения (FM_SERVICE_ID)
//   - group — имя группы в метриках (FM_DEPHEALTH_GROUP)
//   - storageHealthURL — health endpoint объектного хранилища (FM_S3_HEALTH_URL)
//   - checkInterval — интервал проверки зависимостей (FM_DEPHEALTH_CHECK_INTERVAL)
func NewDephealthService(
	serviceID string,
	group string,
	storageHealthURL string,
	checkInterval time.Duration,
	logger *slog.Logger,
) (*DephealthService, error) {
	return newDephealthService(serviceID, group, storageHealthURL, checkInterval, logger)
}

// NewDephealthServiceWithRegisterer создаёт сервис с указанным Prometheus
// registerer. Используется в тестах для изоляции метрик.
func NewDephealthServiceWithRegisterer(
	serviceID string,
	group string,
	storageHealthURL string,
	checkInterval time.Duration,
	logger *slog.Logger,
	registerer prometheus.Registerer,
) (*DephealthService, error) {
	return newDephealthService(serviceID, group, storageHealthURL, checkInterval,
		logger, dephealth.WithRegisterer(registerer))
}

// newDephealthService — внутренний конструктор.
func newDephealthService(
	serviceID string,
	group string,
	storageHealthURL string,
	checkInterval time.Duration,
	logger *slog.Logger,
	extraOpts ...dephealth.Option,
) (*DephealthService, error) {
	depOpts := []dephealth.DependencyOption{
		dephealth.FromURL(storageHealthURL),
		dephealth.CheckInterval(checkInterval),
		dephealth.Critical(true),
	}
	if parsed, err := url.Parse(storageHealthURL); err == nil && parsed.Scheme == "https" {
		depOpts = append(depOpts, dephealth.WithHTTPTLSSkipVerify(false))
	}

	opts := make([]dephealth.Option, 0, 2+len(extraOpts))
	opts = append(opts,
		dephealth.WithLogger(logger),
		// Объектное хранилище — единственная зависимость с HTTP health
		// endpoint; без него модуль не может ни принимать, ни отдавать файлы.
		dephealth.HTTP("object-storage", depOpts...),
	)
	opts = append(opts, extraOpts...)

	dh, err := dephealth.New(serviceID, group, opts...)
	if err != nil {
		return nil, err
	}

	return &DephealthService{
		dh:     dh,
		logger: logger.With(slog.String("component", "dephealth")),
	}, nil
}

// Start запускает периодическую проверку зависимостей.
func (ds *DephealthService) Start(ctx context.Context) error {
	ds.logger.Info("Мониторинг зависимостей запущен (object-storage)")
	return ds.dh.Start(ctx)
}

// Stop останавливает мониторинг зависимостей.
func (ds *DephealthService) Stop() {
	ds.dh.Stop()
	ds.logger.Info("Мониторинг зависимостей остановлен")
}

// Health возвращает текущее состояние зависимостей.
// Ключ — имя зависимости, значение — true если ok.
func (ds *DephealthService) Health() map[string]bool {
	return ds.dh.Health()
}
