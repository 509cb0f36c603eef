package utils

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultMaxCellCount is the largest dataset the explorer will open.
const DefaultMaxCellCount int64 = 4_000_000

type UpstreamConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

type FilterConfig struct {
	MaxCellCount int64 `yaml:"max_cell_count"`
}

type ServerConfig struct {
	HTTPAddr   string   `yaml:"http_addr"`
	GRPCAddr   string   `yaml:"grpc_addr"`
	SyncAddr   string   `yaml:"sync_addr"`
	NotifyAddr string   `yaml:"notify_addr"`
	Origins    []string `yaml:"cors_origins"`
}

type AuthConfig struct {
	JWTSecret   string        `yaml:"jwt_secret"`
	JWTIssuer   string        `yaml:"jwt_issuer"`
	JWTDuration time.Duration `yaml:"jwt_duration"`

	// OperatorUser and OperatorPasswordHash (bcrypt) guard the admin routes.
	// With no hash configured, token issuance is disabled.
	OperatorUser         string `yaml:"operator_user"`
	OperatorPasswordHash string `yaml:"operator_password_hash"`
}

type Config struct {
	Upstream UpstreamConfig `yaml:"upstream"`
	Filter   FilterConfig   `yaml:"filter"`
	Server   ServerConfig   `yaml:"server"`
	Auth     AuthConfig     `yaml:"auth"`
	LogLevel string         `yaml:"log_level"`
}

// Default returns the configuration used when nothing is overridden.
func Default() Config {
	return Config{
		Upstream: UpstreamConfig{
			BaseURL: "http://localhost:9000",
			Timeout: 15 * time.Second,
		},
		Filter: FilterConfig{MaxCellCount: DefaultMaxCellCount},
		Server: ServerConfig{
			HTTPAddr:   ":8080",
			GRPCAddr:   ":9090",
			SyncAddr:   ":7070",
			NotifyAddr: ":7071",
		},
		Auth: AuthConfig{
			JWTSecret:    "dev-secret-change-me",
			JWTIssuer:    "cellhub",
			JWTDuration:  24 * time.Hour,
			OperatorUser: "operator",
		},
		LogLevel: "info",
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// CELLHUB_CONFIG (if set), then CELLHUB_* environment variables.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("CELLHUB_CONFIG"); path != "" {
		if err := readFile(path, &cfg); err != nil {
			return cfg, err
		}
	}
	if err := applyEnv(&cfg, os.LookupEnv); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// MustLoad is Load for mains.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

func readFile(path string, cfg *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func applyEnv(cfg *Config, lookup lookupFunc) error {
	str := func(name string, dst *string) {
		if v, ok := lookup(name); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	str("CELLHUB_API_URL", &cfg.Upstream.BaseURL)
	str("CELLHUB_HTTP_ADDR", &cfg.Server.HTTPAddr)
	str("CELLHUB_GRPC_ADDR", &cfg.Server.GRPCAddr)
	str("CELLHUB_SYNC_ADDR", &cfg.Server.SyncAddr)
	str("CELLHUB_NOTIFY_ADDR", &cfg.Server.NotifyAddr)
	str("CELLHUB_JWT_SECRET", &cfg.Auth.JWTSecret)
	str("CELLHUB_JWT_ISSUER", &cfg.Auth.JWTIssuer)
	str("CELLHUB_OPERATOR_USER", &cfg.Auth.OperatorUser)
	str("CELLHUB_OPERATOR_PASSWORD_HASH", &cfg.Auth.OperatorPasswordHash)
	str("CELLHUB_LOG_LEVEL", &cfg.LogLevel)

	if v, ok := lookup("CELLHUB_CORS_ORIGINS"); ok && v != "" {
		cfg.Server.Origins = splitList(v)
	}
	if v, ok := lookup("CELLHUB_API_TIMEOUT"); ok && v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("CELLHUB_API_TIMEOUT: %w", err)
		}
		cfg.Upstream.Timeout = d
	}
	if v, ok := lookup("CELLHUB_JWT_TTL_HOURS"); ok && v != "" {
		h, err := strconv.Atoi(v)
		if err != nil || h <= 0 {
			return fmt.Errorf("CELLHUB_JWT_TTL_HOURS: invalid value %q", v)
		}
		cfg.Auth.JWTDuration = time.Duration(h) * time.Hour
	}
	if v, ok := lookup("CELLHUB_MAX_CELL_COUNT"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return fmt.Errorf("CELLHUB_MAX_CELL_COUNT: invalid value %q", v)
		}
		cfg.Filter.MaxCellCount = n
	}
	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
