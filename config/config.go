package config

import (
	"errors"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type HTTP struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

type GRPC struct {
	Addr string `yaml:"addr"`
}

type Logging struct {
	Env       string `yaml:"env"`       // dev|prod
	Service   string `yaml:"service"`   // progress-service
	Version   string `yaml:"version"`   // v0.1.0
	Backend   string `yaml:"backend"`   // std|zap
	AddSource bool   `yaml:"addSource"` // false|true
	Debug     bool   `yaml:"debug"`     // false|true
}

type Postgres struct {
	DSN             string `yaml:"dsn"`
	MaxConns        int32  `yaml:"maxConns"`
	MinConns        int32  `yaml:"minConns"`
	MaxConnLifetime string `yaml:"maxConnLifetime"`
	MaxConnIdleTime string `yaml:"maxConnIdleTime"`
}

type Auth struct {
	PrivateKeyPath string `yaml:"privateKeyPath"`
	PublicKeyPath  string `yaml:"publicKeyPath"`
	Issuer         string `yaml:"issuer"`
	AccessTTL      string `yaml:"accessTTL"`
	ClockSkew      string `yaml:"clockSkew"`
	BcryptCost     int    `yaml:"bcryptCost"`
	MinPasswordLen int    `yaml:"minPasswordLen"`
}

type Progress struct {
	TotalModules int `yaml:"totalModules"`
}

type Config struct {
	HTTP     HTTP     `yaml:"http"`
	GRPC     GRPC     `yaml:"grpc"`
	Logging  Logging  `yaml:"logging"`
	Postgres Postgres `yaml:"postgres"`
	Auth     Auth     `yaml:"auth"`
	Progress Progress `yaml:"progress"`
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
	if c.GRPC.Addr == "" {
		return errors.New("grpc.addr is required")
	}
	if c.Postgres.DSN == "" {
		return errors.New("postgres.dsn is required")
	}
	if c.Auth.PrivateKeyPath == "" || c.Auth.PublicKeyPath == "" {
		return errors.New("auth.privateKeyPath and auth.publicKeyPath are required")
	}
	if len(c.HTTP.AllowedOrigins) == 0 {
		c.HTTP.AllowedOrigins = []string{"http://localhost:5173", "http://127.0.0.1:5173"}
	}
	if c.Logging.Service == "" {
		c.Logging.Service = "progress-service"
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
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "progress-service"
	}
	if c.Progress.TotalModules <= 0 {
		c.Progress.TotalModules = 6
	}
	return nil
}

func (c *Config) AccessTTL() time.Duration {
	return parseDurationOr(15*time.Minute, c.Auth.AccessTTL)
}

func (c *Config) ClockSkew() time.Duration {
	return parseDurationOr(30*time.Second, c.Auth.ClockSkew)
}

func (c *Config) MaxConnLifetime() time.Duration {
	return parseDurationOr(time.Hour, c.Postgres.MaxConnLifetime)
}

func (c *Config) MaxConnIdleTime() time.Duration {
	return parseDurationOr(30*time.Minute, c.Postgres.MaxConnIdleTime)
}

func parseDurationOr(def time.Duration, s string) time.Duration {
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return def
}
