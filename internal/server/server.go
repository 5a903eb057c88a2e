// Пакет server — HTTP-сервер File Module: маршрутизация chi,
// middleware и graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bigkaa/teamchat/file-module/internal/api/handlers"
	"github.com/bigkaa/teamchat/file-module/internal/api/middleware"
	"github.com/bigkaa/teamchat/file-module/internal/config"
)

// Server — HTTP-сервер File Module.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// New создаёт сервер с полным набором маршрутов.
// contentHandler передаётся только при local backend (nil для S3).
func New(
	cfg *config.Config,
	fileHandler *handlers.FileHandler,
	healthHandler *handlers.HealthHandler,
	contentHandler *handlers.ContentHandler,
	logger *slog.Logger,
) *Server {
	router := chi.NewRouter()

	// Middleware: recovery → метрики → логирование
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.MetricsMiddleware())
	router.Use(middleware.RequestLogger(logger))

	// Health и метрики — вне /api/v1
	router.Get("/health/live", healthHandler.Live)
	router.Get("/health/ready", healthHandler.Ready)
	router.Handle("/metrics", promhttp.Handler())

	router.Route("/api/v1/files", func(r chi.Router) {
		// Загрузка
		r.Post("/upload", fileHandler.Upload)
		r.Post("/upload/presigned", fileHandler.CreatePresigned)
		r.Post("/upload/complete", fileHandler.CompletePresigned)

		// Batch-операции
		r.Post("/batch", fileHandler.BatchGet)
		r.Delete("/batch", fileHandler.BatchDelete)

		// Статистика
		r.Get("/stats", fileHandler.Stats)
		r.Get("/user/{userId}/stats", fileHandler.UserStats)

		// Листинги
		r.Get("/user/{userId}", fileHandler.ListByUser)
		r.Get("/workspace/{workspaceId}", fileHandler.ListByWorkspace)
		r.Get("/channel/{channelId}", fileHandler.ListByChannel)

		// Отдача содержимого (только local backend)
		if contentHandler != nil {
			r.Get("/content/*", contentHandler.Serve)
		}

		// Операции над одним файлом
		r.Get("/{id}", fileHandler.Get)
		r.Put("/{id}", fileHandler.Update)
		r.Patch("/{id}", fileHandler.Update)
		r.Delete("/{id}", fileHandler.Delete)
		r.Get("/{id}/download", fileHandler.Download)
		r.Post("/{id}/share", fileHandler.Share)
		r.Delete("/{id}/share/{userId}", fileHandler.Unshare)
	})

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Port),
			Handler:      router,
			ReadTimeout:  cfg.HTTPReadTimeout,
			WriteTimeout: cfg.HTTPWriteTimeout,
			IdleTimeout:  cfg.HTTPIdleTimeout,
		},
		logger: logger,
		cfg:    cfg,
	}
}

// Run запускает сервер и блокируется до SIGINT/SIGTERM или отказа
// listener. Завершение — graceful shutdown с таймаутом из конфигурации.
func (s *Server) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP-сервер запущен", slog.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP-сервер: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Получен сигнал завершения, останавливаем HTTP-сервер")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
