package logger_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/careplace/chat-service/pkg/logger"
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

func TestInit_DevStd_TextOutput(t *testing.T) {
	cfg := logger.Config{
		Service: "chat-service",
		Version: "v0.0.1",
		Env:     logger.EnvDev,
		Backend: logger.BackendStd,
		Level:   slog.LevelDebug,
	}

	out := captureStdOut(func() {
		logger.Init(cfg)
		slog.Info("hello")
	})

	if strings.Contains(out, "{") && strings.Contains(out, "}") {
		t.Fatalf("expected text output in dev/std, got JSON: %s", out)
	}
	if !strings.Contains(out, "hello") {
		t.Fatalf("message missing: %s", out)
	}
	if !strings.Contains(out, "service=chat-service") {
		t.Fatalf("service attr missing: %s", out)
	}
}

func TestInit_ProdZap_JSONOutput(t *testing.T) {
	cfg := logger.Config{
		Service:          "chat-service",
		Version:          "1.2.3",
		Env:              logger.EnvProd,
		Backend:          logger.BackendZap,
		Level:            slog.LevelInfo,
		SampleInitial:    100000,
		SampleThereafter: 100000,
	}

	out := captureStdOut(func() {
		logger.Init(cfg)
		slog.Info("booted", slog.String("k", "v"))
	})

	var m map[string]any
	if err := json.Unmarshal([]byte(out), &m); err != nil {
		t.Fatalf("expected JSON line, got %s, err=%v", out, err)
	}
	if m["msg"] != "booted" {
		t.Fatalf("msg mismatch: %v", m["msg"])
	}
	if m["service"] != "chat-service" || m["env"] != "prod" || m["version"] != "1.2.3" {
		t.Fatalf("attrs missing: %v", m)
	}
	if m["k"] != "v" {
		t.Fatalf("custom field missing: %v", m["k"])
	}
}
