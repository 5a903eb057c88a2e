// metrics.go — бизнес-метрики Prometheus сервисного слоя.
package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// uploadsTotal — количество успешных загрузок по категориям и режимам
	// (direct, presigned).
	uploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fm_uploads_total",
			Help: "Количество успешно загруженных файлов",
		},
		[]string{"category", "mode"},
	)

	// uploadBytesTotal — суммарный объём загруженных байт по категориям.
	uploadBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fm_upload_bytes_total",
			Help: "Суммарный объём загруженных файлов в байтах",
		},
		[]string{"category"},
	)

	// duplicatesTotal — количество загрузок, схлопнутых дедупликацией.
	duplicatesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fm_duplicates_total",
			Help: "Количество загрузок, вернувших существующий файл по checksum",
		},
	)

	// deletesTotal — количество мягких удалений.
	deletesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fm_deletes_total",
			Help: "Количество мягко удалённых файлов",
		},
	)

	// rejectedTotal — количество отклонённых загрузок по причинам
	// (type, size).
	rejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fm_uploads_rejected_total",
			Help: "Количество отклонённых загрузок",
		},
		[]string{"reason"},
	)

	// cacheHits / cacheMisses — эффективность кэша метаданных.
	cacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fm_cache_hits_total",
			Help: "Количество попаданий в кэш метаданных",
		},
	)
	cacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fm_cache_misses_total",
			Help: "Количество промахов кэша метаданных",
		},
	)
)
