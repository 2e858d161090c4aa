package logger

import (
	"log/slog"
	"os"
	"strings"
)

type Env string

const (
	EnvDev   Env = "dev"
	EnvStage Env = "stage"
	EnvProd  Env = "prod"
)

type Backend string

const (
	BackendStd Backend = "std" // text в dev
	BackendZap Backend = "zap" // JSON через slog-zap в stage/prod
)

type Config struct {
	// Метаданные для логгера
	Service    string
	Version    string
	InstanceID string

	// Управление выводом
	Level   slog.Level
	Env     Env
	Backend Backend // default: zap для stage/prod, std для dev
	Debug   bool

	// Zap sampling
	SampleInitial    int
	SampleThereafter int

	AddSource bool
}

func DetectEnv() Env {
	raw := strings.ToLower(strings.TrimSpace(os.Getenv("APP_ENV")))

	switch raw {
	case "prod", "production":
		return EnvProd
	case "stage", "staging":
		return EnvStage
	default:
		return EnvDev
	}
}
