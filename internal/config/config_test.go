package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Brownie44l1/plant-predict-ui/internal/errors"
)

func TestLoader_Defaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := NewLoader().WithDotEnv(false).Load()
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:8000/predict", cfg.Predict.Endpoint)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 2*time.Minute, cfg.Predict.Timeout)
	assert.Equal(t, int64(10<<20), cfg.Upload.MaxBytes)
	assert.Equal(t, uint(512), cfg.Preview.MaxSide)
	assert.Equal(t, "0.0.0.0:3000", cfg.Addr())
}

func TestLoader_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 8081
predict:
  endpoint: "http://inference.local:9000/predict"
  timeout: 15s
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := NewLoader().WithDotEnv(false).WithPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, "http://inference.local:9000/predict", cfg.Predict.Endpoint)
	assert.Equal(t, 15*time.Second, cfg.Predict.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 30*time.Minute, cfg.Session.TTL)
}

func TestLoader_EnvOverride(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("PLANTUI_PREDICT_ENDPOINT", "http://10.0.0.5:8000/predict")
	t.Setenv("PLANTUI_SERVER_PORT", "9090")

	cfg, err := NewLoader().WithDotEnv(false).Load()
	require.NoError(t, err)

	assert.Equal(t, "http://10.0.0.5:8000/predict", cfg.Predict.Endpoint)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoader_MissingExplicitFile(t *testing.T) {
	_, err := NewLoader().WithDotEnv(false).WithPath(filepath.Join(t.TempDir(), "nope.yaml")).Load()
	require.Error(t, err)
	assert.True(t, errors.IsKind(err, errors.KindConfig))
}

func TestConfig_Validate(t *testing.T) {
	valid := func() Config {
		return Config{
			Server:  ServerConfig{Port: 3000},
			Predict: PredictConfig{Endpoint: "http://127.0.0.1:8000/predict"},
			Upload:  UploadConfig{MaxBytes: 1024},
			Preview: PreviewConfig{MaxSide: 256},
			Session: SessionConfig{TTL: time.Minute},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid config", mutate: func(*Config) {}},
		{name: "invalid port", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: true},
		{name: "relative endpoint", mutate: func(c *Config) { c.Predict.Endpoint = "/predict" }, wantErr: true},
		{name: "empty endpoint", mutate: func(c *Config) { c.Predict.Endpoint = "" }, wantErr: true},
		{name: "negative timeout", mutate: func(c *Config) { c.Predict.Timeout = -time.Second }, wantErr: true},
		{name: "zero timeout disables it", mutate: func(c *Config) { c.Predict.Timeout = 0 }},
		{name: "zero upload limit", mutate: func(c *Config) { c.Upload.MaxBytes = 0 }, wantErr: true},
		{name: "zero preview side", mutate: func(c *Config) { c.Preview.MaxSide = 0 }, wantErr: true},
		{name: "zero session ttl", mutate: func(c *Config) { c.Session.TTL = 0 }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

// chdir changes the working directory for the duration of the test,
// mirroring testing.T.Chdir (Go 1.24+) on older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(prev) })
}
