package config

import (
	stderrors "errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Brownie44l1/plant-predict-ui/internal/errors"
)

const EnvPrefix = "PLANTUI"

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

type PredictConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type UploadConfig struct {
	MaxBytes int64 `mapstructure:"max_bytes"`
}

type PreviewConfig struct {
	MaxSide uint `mapstructure:"max_side"`
}

type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Predict PredictConfig `mapstructure:"predict"`
	Upload  UploadConfig  `mapstructure:"upload"`
	Preview PreviewConfig `mapstructure:"preview"`
	Session SessionConfig `mapstructure:"session"`
	Log     LogConfig     `mapstructure:"log"`
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.mode", "release")
	v.SetDefault("predict.endpoint", "http://127.0.0.1:8000/predict")
	v.SetDefault("predict.timeout", 2*time.Minute)
	v.SetDefault("upload.max_bytes", int64(10<<20))
	v.SetDefault("preview.max_side", 512)
	v.SetDefault("session.ttl", 30*time.Minute)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Loader reads configuration from defaults, an optional YAML file and
// PLANTUI_* environment variables, in increasing precedence.
type Loader struct {
	useDotEnv bool
	path      string
}

func NewLoader() *Loader {
	return &Loader{useDotEnv: true}
}

// WithDotEnv toggles loading variables from a .env file before reading config.
func (l *Loader) WithDotEnv(enabled bool) *Loader {
	l.useDotEnv = enabled
	return l
}

// WithPath pins the config file instead of searching for config.yaml.
func (l *Loader) WithPath(path string) *Loader {
	l.path = path
	return l
}

func (l *Loader) Load() (*Config, error) {
	if l.useDotEnv {
		// a missing .env is normal outside development
		_ = godotenv.Load()
	}

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if l.path != "" {
		v.SetConfigFile(l.path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if l.path != "" || !stderrors.As(err, &notFound) {
			return nil, errors.Wrap(errors.KindConfig, "config.load", "failed to read config file", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(errors.KindConfig, "config.load", "failed to decode config", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return errors.New(errors.KindConfig, "config.validate", fmt.Sprintf("invalid server port %d", c.Server.Port))
	}
	u, err := url.Parse(c.Predict.Endpoint)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return errors.New(errors.KindConfig, "config.validate", fmt.Sprintf("invalid predict endpoint %q", c.Predict.Endpoint))
	}
	if c.Predict.Timeout < 0 {
		return errors.New(errors.KindConfig, "config.validate", "predict timeout must not be negative")
	}
	if c.Upload.MaxBytes <= 0 {
		return errors.New(errors.KindConfig, "config.validate", "upload max_bytes must be positive")
	}
	if c.Preview.MaxSide == 0 {
		return errors.New(errors.KindConfig, "config.validate", "preview max_side must be positive")
	}
	if c.Session.TTL <= 0 {
		return errors.New(errors.KindConfig, "config.validate", "session ttl must be positive")
	}
	return nil
}
