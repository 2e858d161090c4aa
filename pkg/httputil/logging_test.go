package httputil_test

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/careplace/chat-service/pkg/httputil"
	"github.com/careplace/chat-service/pkg/logger"

	"go.opentelemetry.io/otel/trace"
)

func captureStdOut(fn func()) string {
	orig := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w
	defer func() {
		os.Stdout = orig
	}()

	fn()

	_ = w.Close()
	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	_ = r.Close()
	return buf.String()
}

func serveLogged(req *http.Request) string {
	return captureStdOut(func() {
		logger.Init(logger.Config{
			Service: "chat-service",
			Env:     logger.EnvDev,
			Backend: logger.BackendStd,
		})
		h := httputil.MiddlewareLogging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))
		h.ServeHTTP(httptest.NewRecorder(), req)
	})
}

func TestMiddlewareLogging_RequestLine(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/conversations", nil)
	out := serveLogged(req)

	for _, want := range []string{"http request", "method=GET", "path=/conversations", "status=204"} {
		if !strings.Contains(out, want) {
			t.Fatalf("%q missing in log line: %s", want, out)
		}
	}
	if strings.Contains(out, "trace_id") {
		t.Fatalf("no span in context, but trace attrs present: %s", out)
	}
}

func TestMiddlewareLogging_TraceAttrs(t *testing.T) {
	var traceID trace.TraceID
	var spanID trace.SpanID
	copy(traceID[:], "0123456789abcdef")
	copy(spanID[:], "01234567")
	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})

	req := httptest.NewRequest(http.MethodGet, "/unread-count", nil)
	req = req.WithContext(trace.ContextWithSpanContext(req.Context(), sc))
	out := serveLogged(req)

	if !strings.Contains(out, "trace_id="+traceID.String()) {
		t.Fatalf("trace_id missing: %s", out)
	}
	if !strings.Contains(out, "span_id="+spanID.String()) {
		t.Fatalf("span_id missing: %s", out)
	}
}
