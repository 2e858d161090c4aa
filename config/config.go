package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Addr string `yaml:"addr"`
}

type Auth struct {
	PublicKeyPath string        `yaml:"publicKeyPath"`
	Issuer        string        `yaml:"issuer"`
	Audience      string        `yaml:"audience"`
	ClockSkew     time.Duration `yaml:"clockSkew"`
}

type WS struct {
	PingInterval time.Duration `yaml:"pingInterval"`
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|prod
	Service   string `yaml:"service"`   // chat-service
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type Postgres struct {
	DSN      string `yaml:"dsn"`
	MaxConns int32  `yaml:"maxConns"`
	MinConns int32  `yaml:"minConns"`
}

type Config struct {
	HTTP     HTTP     `yaml:"http"`
	Auth     Auth     `yaml:"auth"`
	WS       WS       `yaml:"ws"`
	Logging  Logging  `yaml:"logging"`
	Postgres Postgres `yaml:"postgres"`
}

func LoadConfig() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "./config/config.yaml"
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.HTTP.Addr == "" {
		return errors.New("http.addr is required")
	}
	if c.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if c.Auth.PublicKeyPath == "" {
		return errors.New("auth.publicKeyPath is required")
	}
	// установка дефолтов, если значения не указаны
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "careplace-auth"
	}
	if c.Auth.Audience == "" {
		c.Auth.Audience = "careplace"
	}
	if c.Auth.ClockSkew <= 0 {
		c.Auth.ClockSkew = 30 * time.Second
	}
	if c.WS.PingInterval <= 0 {
		c.WS.PingInterval = 15 * time.Second
	}
	if c.Logging.Service == "" {
		c.Logging.Service = "chat-service"
	}
	if c.Logging.Env == "" {
		c.Logging.Env = "dev"
	}
	if c.Logging.Version == "" {
		c.Logging.Version = "v0.1.0"
	}
	if c.Logging.Backend == "" {
		c.Logging.Backend = "std"
	}
	return nil
}
