package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("CONFIG_PATH", path)
}

func TestLoadConfig_Defaults(t *testing.T) {
	writeConfig(t, `
http:
  addr: ":8080"
grpc:
  addr: ":9090"
postgres:
  dsn: "postgres://localhost/test"
auth:
  privateKeyPath: "priv.pem"
  publicKeyPath: "pub.pem"
`)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, "progress-service", cfg.Logging.Service)
	require.Equal(t, "dev", cfg.Logging.Env)
	require.Equal(t, "progress-service", cfg.Auth.Issuer)
	require.Equal(t, 6, cfg.Progress.TotalModules)
	require.NotEmpty(t, cfg.HTTP.AllowedOrigins)

	require.Equal(t, 15*time.Minute, cfg.AccessTTL())
	require.Equal(t, 30*time.Second, cfg.ClockSkew())
	require.Equal(t, time.Hour, cfg.MaxConnLifetime())
}

func TestLoadConfig_Overrides(t *testing.T) {
	writeConfig(t, `
http:
  addr: ":8081"
  allowedOrigins: ["https://app.example.com"]
grpc:
  addr: ":9091"
postgres:
  dsn: "postgres://localhost/test"
  maxConns: 20
auth:
  privateKeyPath: "priv.pem"
  publicKeyPath: "pub.pem"
  accessTTL: "2h"
  clockSkew: "1m"
progress:
  totalModules: 8
`)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	require.Equal(t, []string{"https://app.example.com"}, cfg.HTTP.AllowedOrigins)
	require.Equal(t, int32(20), cfg.Postgres.MaxConns)
	require.Equal(t, 2*time.Hour, cfg.AccessTTL())
	require.Equal(t, time.Minute, cfg.ClockSkew())
	require.Equal(t, 8, cfg.Progress.TotalModules)
}

func TestLoadConfig_MissingRequired(t *testing.T) {
	for name, body := range map[string]string{
		"no http addr": `
grpc: {addr: ":9090"}
postgres: {dsn: "x"}
auth: {privateKeyPath: "a", publicKeyPath: "b"}
`,
		"no dsn": `
http: {addr: ":8080"}
grpc: {addr: ":9090"}
auth: {privateKeyPath: "a", publicKeyPath: "b"}
`,
		"no keys": `
http: {addr: ":8080"}
grpc: {addr: ":9090"}
postgres: {dsn: "x"}
`,
	} {
		t.Run(name, func(t *testing.T) {
			writeConfig(t, body)
			_, err := LoadConfig()
			require.Error(t, err)
		})
	}
}
