package httputil

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/careplace/chat-service/pkg/logger"

	"github.com/go-chi/chi/v5/middleware"
)

// Логирует метод, путь, статус, длительность и request id.
// Тела не пишем: содержимое переписки не должно попадать в логи.
func MiddlewareLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		lrw := &logResponseWriter{ResponseWriter: w}
		next.ServeHTTP(lrw, r)

		attrs := []slog.Attr{
			slog.String("req_id", middleware.GetReqID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", lrw.status),
			slog.Int("bytes", lrw.bytes),
			slog.String("duration", time.Since(start).String()),
		}
		// trace_id/span_id, если запрос пришёл с активным span-ом
		attrs = append(attrs, logger.AttrsFromCtx(r.Context())...)

		logger.L().LogAttrs(r.Context(), slog.LevelInfo, "http request", attrs...)
	})
}

type logResponseWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *logResponseWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *logResponseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n

	return n, err
}
