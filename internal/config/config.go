package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/yevheniigera/nlu-webhook-relay/internal/auth"
)

type Config struct {
	Host string
	Port int

	AuthScheme        auth.Scheme
	BasicAuthUsername string
	BasicAuthPassword string
	BearerToken       string

	CustomCodeTimeout time.Duration
	CORSAllowOrigins  string
	LogLevel          slog.Level
	TimingEnabled     bool

	OTLPEndpoint string
	OTLPInsecure bool
}

// LoadEnvFile loads variables from path into the environment without
// overriding ones already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// Option adjusts the loaded configuration before it is validated.
type Option func(*Config)

// WithHost overrides WEBHOOK_SERVER_HOST when host is not empty.
func WithHost(host string) Option {
	return func(c *Config) {
		if host != "" {
			c.Host = host
		}
	}
}

// WithPort overrides WEBHOOK_SERVER_PORT when port is not zero.
func WithPort(port int) Option {
	return func(c *Config) {
		if port != 0 {
			c.Port = port
		}
	}
}

func Load(opts ...Option) (Config, error) {
	scheme, err := auth.ParseScheme(getenvDefault("WEBHOOK_AUTH_SCHEME", string(auth.SchemeBasic)))
	if err != nil {
		return Config{}, err
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(getenvDefault("WEBHOOK_LOG_LEVEL", "info"))); err != nil {
		return Config{}, fmt.Errorf("WEBHOOK_LOG_LEVEL: %w", err)
	}

	port, err := getenvIntDefault("WEBHOOK_SERVER_PORT", 8000)
	if err != nil {
		return Config{}, err
	}
	timeoutSeconds, err := getenvIntDefault("WEBHOOK_CUSTOM_CODE_TIMEOUT_SECONDS", 30)
	if err != nil {
		return Config{}, err
	}
	timing, err := getenvBoolDefault("WEBHOOK_TIMING_ENABLED", true)
	if err != nil {
		return Config{}, err
	}
	otlpInsecure, err := getenvBoolDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		Host:              getenvDefault("WEBHOOK_SERVER_HOST", "0.0.0.0"),
		Port:              port,
		AuthScheme:        scheme,
		BasicAuthUsername: os.Getenv("WEBHOOK_HTTP_BASIC_AUTH_USERNAME"),
		BasicAuthPassword: os.Getenv("WEBHOOK_HTTP_BASIC_AUTH_PASSWORD"),
		BearerToken:       os.Getenv("WEBHOOK_BEARER_TOKEN"),
		CustomCodeTimeout: time.Duration(timeoutSeconds) * time.Second,
		CORSAllowOrigins:  getenvDefault("WEBHOOK_CORS_ALLOW_ORIGINS", "*"),
		LogLevel:          level,
		TimingEnabled:     timing,
		OTLPEndpoint:      os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTLPInsecure:      otlpInsecure,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("WEBHOOK_SERVER_PORT out of range: %d", c.Port)
	}
	if c.CustomCodeTimeout < 0 {
		return fmt.Errorf("WEBHOOK_CUSTOM_CODE_TIMEOUT_SECONDS must not be negative")
	}
	switch c.AuthScheme {
	case auth.SchemeBasic:
		if c.BasicAuthUsername == "" || c.BasicAuthPassword == "" {
			return fmt.Errorf("WEBHOOK_HTTP_BASIC_AUTH_USERNAME and WEBHOOK_HTTP_BASIC_AUTH_PASSWORD are required when WEBHOOK_AUTH_SCHEME=basic")
		}
	case auth.SchemeBearer:
		if c.BearerToken == "" {
			return fmt.Errorf("WEBHOOK_BEARER_TOKEN is required when WEBHOOK_AUTH_SCHEME=bearer")
		}
	}
	return nil
}

func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c Config) AuthSettings() auth.Settings {
	return auth.Settings{
		Scheme:   c.AuthScheme,
		Username: c.BasicAuthUsername,
		Password: c.BasicAuthPassword,
		Token:    c.BearerToken,
	}
}

// LogValue keeps secrets out of logs.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("addr", c.Addr()),
		slog.String("auth_scheme", string(c.AuthScheme)),
		slog.String("basic_auth_username", redact(c.BasicAuthUsername)),
		slog.String("basic_auth_password", redact(c.BasicAuthPassword)),
		slog.String("bearer_token", redact(c.BearerToken)),
		slog.Duration("custom_code_timeout", c.CustomCodeTimeout),
		slog.String("cors_allow_origins", c.CORSAllowOrigins),
		slog.String("log_level", c.LogLevel.String()),
		slog.Bool("timing_enabled", c.TimingEnabled),
		slog.String("otlp_endpoint", c.OTLPEndpoint),
	)
}

func redact(secret string) string {
	if secret == "" {
		return ""
	}
	return "***"
}

func getenvDefault(key, val string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return val
}

func getenvIntDefault(key string, val int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return val, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: not an integer: %q", key, v)
	}
	return n, nil
}

func getenvBoolDefault(key string, val bool) (bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return val, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: not a boolean: %q", key, v)
	}
	return b, nil
}
