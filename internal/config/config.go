// Package config loads rehab360 settings from defaults, an optional YAML
// file and REHAB360_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

const (
	EnvPrefix         = "REHAB360_"
	maxConfigFileSize = 1024 * 1024

	minSecretKeyLength  = 32
	insecureSecretValue = "change_me_in_production"
)

var (
	ErrInvalidConfig  = errors.New("invalid config")
	ErrInsecureSecret = errors.New("insecure auth secret key")
)

type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Auth     AuthConfig     `koanf:"auth"`
	Gateway  GatewayConfig  `koanf:"gateway"`
	Client   ClientConfig   `koanf:"client"`
	Store    StoreConfig    `koanf:"store"`
	Log      LogConfig      `koanf:"log"`
}

type ServerConfig struct {
	Addr          string        `koanf:"addr" validate:"required"`
	StreamTimeout time.Duration `koanf:"stream_timeout" validate:"gt=0"`
}

type DatabaseConfig struct {
	Path string `koanf:"path" validate:"required"`
}

type AuthConfig struct {
	SecretKey          string        `koanf:"secret_key"`
	TokenTTL           time.Duration `koanf:"token_ttl" validate:"gt=0"`
	LoginAttemptLimit  int           `koanf:"login_attempt_limit" validate:"gt=0"`
	LoginAttemptWindow time.Duration `koanf:"login_attempt_window" validate:"gt=0"`
}

type GatewayConfig struct {
	BaseURL           string        `koanf:"base_url" validate:"omitempty,url"`
	APIKey            string        `koanf:"api_key"`
	ChatModel         string        `koanf:"chat_model" validate:"required"`
	PredictModel      string        `koanf:"predict_model" validate:"required"`
	RequestsPerMinute int           `koanf:"requests_per_minute" validate:"gte=0"`
	Burst             int           `koanf:"burst" validate:"gte=0"`
	Timeout           time.Duration `koanf:"timeout" validate:"gte=0"`
}

type ClientConfig struct {
	BaseURL        string        `koanf:"base_url" validate:"required,url"`
	RequestTimeout time.Duration `koanf:"request_timeout" validate:"gt=0"`
	ChatTimeout    time.Duration `koanf:"chat_timeout" validate:"gt=0"`
}

type StoreConfig struct {
	Dir          string `koanf:"dir" validate:"required"`
	SeedDemoData bool   `koanf:"seed_demo_data"`
	InMemory     bool   `koanf:"in_memory"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
}

func Defaults() Config {
	return Config{
		Server:   ServerConfig{Addr: ":8080", StreamTimeout: 2 * time.Minute},
		Database: DatabaseConfig{Path: filepath.Join("data", "rehab360.db")},
		Auth: AuthConfig{
			TokenTTL:           7 * 24 * time.Hour,
			LoginAttemptLimit:  8,
			LoginAttemptWindow: 15 * time.Minute,
		},
		Gateway: GatewayConfig{
			BaseURL:           "https://api.openai.com/v1",
			ChatModel:         "gpt-4o-mini",
			PredictModel:      "gpt-4o-mini",
			RequestsPerMinute: 60,
			Burst:             5,
			Timeout:           90 * time.Second,
		},
		Client: ClientConfig{
			BaseURL:        "http://localhost:8080",
			RequestTimeout: 30 * time.Second,
			ChatTimeout:    2 * time.Minute,
		},
		Store: StoreConfig{Dir: defaultStoreDir(), SeedDemoData: true},
		Log:   LogConfig{Level: "info", Format: "console"},
	}
}

func defaultStoreDir() string {
	if dataDir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dataDir, "rehab360", "store")
	}
	return filepath.Join("data", "store")
}

// DefaultConfigPath is used by Load when no path is given. A missing file there is not an error.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "rehab360", "config.yaml")
}

// Load reads configPath (required to exist when non-empty), falls back to
// DefaultConfigPath, then applies REHAB360_* overrides.
// REHAB360_GATEWAY_API_KEY maps to gateway.api_key.
func Load(configPath string) (*Config, error) {
	cfg := Defaults()
	k := koanf.New(".")

	explicit := strings.TrimSpace(configPath) != ""
	if !explicit {
		configPath = DefaultConfigPath()
	}
	if configPath != "" {
		content, err := readConfigFile(configPath)
		switch {
		case err == nil:
			if err := k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
				return nil, fmt.Errorf("load config file %s: %w", configPath, err)
			}
		case errors.Is(err, os.ErrNotExist) && !explicit:
		default:
			return nil, err
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKeyToPath), nil); err != nil {
		return nil, fmt.Errorf("load environment variables: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// envKeyToPath splits on the first underscore only, so field names keep theirs.
func envKeyToPath(key string) string {
	lower := strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	parts := strings.SplitN(lower, "_", 2)
	if len(parts) == 1 {
		return lower
	}
	return parts[0] + "." + parts[1]
}

func readConfigFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat config file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("config path %s is a directory", path)
	}
	if info.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file %s exceeds %d bytes", path, maxConfigFileSize)
	}

	content, err := io.ReadAll(io.LimitReader(file, maxConfigFileSize))
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return content, nil
}

func (cfg Config) Validate() error {
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ServerSecret returns auth.secret_key once it is long enough to sign
// session tokens. Only the server needs it.
func (cfg Config) ServerSecret() (string, error) {
	secret := strings.TrimSpace(cfg.Auth.SecretKey)
	switch {
	case secret == "":
		return "", fmt.Errorf("%w: %sAUTH_SECRET_KEY is empty", ErrInsecureSecret, EnvPrefix)
	case secret == insecureSecretValue:
		return "", fmt.Errorf("%w: placeholder value", ErrInsecureSecret)
	case len(secret) < minSecretKeyLength:
		return "", fmt.Errorf("%w: need at least %d characters", ErrInsecureSecret, minSecretKeyLength)
	}
	return secret, nil
}
