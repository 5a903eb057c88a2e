// logging.go — slog-логирование запросов файлового API.
package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// loggingResponseWriter фиксирует статус и объём тела ответа.
type loggingResponseWriter struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (lw *loggingResponseWriter) WriteHeader(code int) {
	lw.status = code
	lw.ResponseWriter.WriteHeader(code)
}

func (lw *loggingResponseWriter) Write(b []byte) (int, error) {
	n, err := lw.ResponseWriter.Write(b)
	lw.bytes += int64(n)
	return n, err
}

// Unwrap открывает исходный ResponseWriter для http.ResponseController.
func (lw *loggingResponseWriter) Unwrap() http.ResponseWriter {
	return lw.ResponseWriter
}

// RequestLogger возвращает middleware, логирующий каждый запрос после
// обработки: метод, путь, статус, длительность, объём ответа,
// remote_addr. Если внешний gateway передал X-User-ID, добавляется
// атрибут user_id. Уровень по классу статуса: 5xx — Error, 4xx — Warn,
// остальные — Info.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	log := logger.With(slog.String("component", "http"))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			lw := &loggingResponseWriter{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(lw, r)

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", lw.status),
				slog.Duration("duration", time.Since(start)),
				slog.Int64("bytes", lw.bytes),
				slog.String("remote_addr", r.RemoteAddr),
			}
			if uid := r.Header.Get("X-User-ID"); uid != "" {
				attrs = append(attrs, slog.String("user_id", uid))
			}

			var level slog.Level
			switch {
			case lw.status >= http.StatusInternalServerError:
				level = slog.LevelError
			case lw.status >= http.StatusBadRequest:
				level = slog.LevelWarn
			default:
				level = slog.LevelInfo
			}
			log.LogAttrs(r.Context(), level, "Запрос файлового API", attrs...)
		})
	}
}
