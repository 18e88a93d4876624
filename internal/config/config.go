package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	toml "github.com/pelletier/go-toml/v2"
)

// Config is Lectern's runtime configuration.
type Config struct {
	APIURL         string        `toml:"api_url" validate:"required,http_url"`
	RequestTimeout time.Duration `toml:"request_timeout_seconds" validate:"gte=0"`
	PollInterval   time.Duration `toml:"poll_seconds" validate:"gte=0"`
	Cache          CacheConfig   `toml:"cache"`
	Log            LogConfig     `toml:"log"`
}

// CacheConfig selects where the progress snapshot is persisted.
type CacheConfig struct {
	Backend string `toml:"backend" validate:"oneof=file sqlite"`
	Path    string `toml:"path" validate:"required"`
}

// LogConfig controls the zap logger. An empty File logs to stderr.
type LogConfig struct {
	File  string `toml:"file"`
	Level string `toml:"level" validate:"oneof=debug info warn error"`
	Env   string `toml:"env" validate:"oneof=development production"`
}

const (
	defaultConfigPath     = "~/.config/lectern/config.toml"
	defaultAPIURL         = "http://127.0.0.1:5001"
	defaultRequestTimeout = 10 * time.Second
	defaultPollInterval   = 60 * time.Second
	defaultCacheBackend   = "file"
	defaultCacheDir       = "~/.local/share/lectern"
	defaultLogFile        = "~/.local/state/lectern/lectern.log"
	defaultLogLevel       = "info"
	defaultLogEnv         = "production"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "LECTERN_"
)

type rawConfig struct {
	APIURL                string `toml:"api_url"`
	RequestTimeoutSeconds *int   `toml:"request_timeout_seconds"`
	PollSeconds           *int   `toml:"poll_seconds"`
	Cache                 struct {
		Backend string `toml:"backend"`
		Path    string `toml:"path"`
	} `toml:"cache"`
	Log struct {
		File  *string `toml:"file"`
		Level string  `toml:"level"`
		Env   string  `toml:"env"`
	} `toml:"log"`
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIURL:         defaultAPIURL,
		RequestTimeout: defaultRequestTimeout,
		PollInterval:   defaultPollInterval,
		Cache: CacheConfig{
			Backend: defaultCacheBackend,
			Path:    mustExpand(defaultCachePath(defaultCacheBackend)),
		},
		Log: LogConfig{
			File:  mustExpand(defaultLogFile),
			Level: defaultLogLevel,
			Env:   defaultLogEnv,
		},
	}
}

// Load reads the config file at path (or the default location), applies
// LECTERN_* environment overrides and validates the result. A missing file
// is not an error.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	raw, err := readRaw(resolved)
	if err != nil {
		return Config{}, err
	}
	if err := applyEnv(&raw); err != nil {
		return Config{}, err
	}

	cfg, err := fromRaw(raw)
	if err != nil {
		return Config{}, err
	}
	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readRaw(path string) (rawConfig, error) {
	var raw rawConfig

	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return raw, nil
		}
		return raw, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return raw, fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return raw, fmt.Errorf("parse config: %w", err)
	}
	return raw, nil
}

func applyEnv(raw *rawConfig) error {
	if v, ok := lookupEnv("API_URL"); ok {
		raw.APIURL = v
	}
	if v, ok := lookupEnv("CACHE_BACKEND"); ok {
		raw.Cache.Backend = v
	}
	if v, ok := lookupEnv("CACHE_PATH"); ok {
		raw.Cache.Path = v
	}
	if v, ok := lookupEnv("LOG_LEVEL"); ok {
		raw.Log.Level = v
	}
	if v, ok := lookupEnv("POLL_SECONDS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("parse %sPOLL_SECONDS: %w", EnvPrefix, err)
		}
		raw.PollSeconds = &n
	}
	return nil
}

func lookupEnv(name string) (string, bool) {
	v, ok := os.LookupEnv(EnvPrefix + name)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func fromRaw(raw rawConfig) (Config, error) {
	cfg := Default()

	if v := strings.TrimSpace(raw.APIURL); v != "" {
		cfg.APIURL = strings.TrimRight(v, "/")
	}
	if raw.RequestTimeoutSeconds != nil {
		cfg.RequestTimeout = time.Duration(*raw.RequestTimeoutSeconds) * time.Second
	}
	if raw.PollSeconds != nil {
		cfg.PollInterval = time.Duration(*raw.PollSeconds) * time.Second
	}

	if v := strings.ToLower(strings.TrimSpace(raw.Cache.Backend)); v != "" {
		cfg.Cache.Backend = v
	}
	cachePath := strings.TrimSpace(raw.Cache.Path)
	if cachePath == "" {
		cachePath = defaultCachePath(cfg.Cache.Backend)
	}
	expanded, err := expandPath(cachePath)
	if err != nil {
		return Config{}, fmt.Errorf("expand cache path: %w", err)
	}
	cfg.Cache.Path = expanded

	if raw.Log.File != nil {
		cfg.Log.File = ""
		if v := strings.TrimSpace(*raw.Log.File); v != "" {
			expanded, err := expandPath(v)
			if err != nil {
				return Config{}, fmt.Errorf("expand log file: %w", err)
			}
			cfg.Log.File = expanded
		}
	}
	if v := strings.ToLower(strings.TrimSpace(raw.Log.Level)); v != "" {
		cfg.Log.Level = v
	}
	if v := strings.ToLower(strings.TrimSpace(raw.Log.Env)); v != "" {
		cfg.Log.Env = v
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("toml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate config: %w", err)
	}

	msg := make([]string, 0, len(verrs))
	for _, field := range verrs {
		namespace := field.Namespace()
		name := namespace[strings.IndexByte(namespace, '.')+1:]
		switch field.Tag() {
		case "required":
			msg = append(msg, fmt.Sprintf("%s is required", name))
		case "oneof":
			msg = append(msg, fmt.Sprintf("%s must be one of (%s)", name, field.Param()))
		case "http_url":
			msg = append(msg, fmt.Sprintf("%s must be an http(s) URL", name))
		case "gte":
			msg = append(msg, fmt.Sprintf("%s must not be negative", name))
		default:
			msg = append(msg, fmt.Sprintf("%s is invalid (%s)", name, field.Tag()))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msg, "; "))
}

func defaultCachePath(backend string) string {
	if backend == "sqlite" {
		return defaultCacheDir + "/progress.db"
	}
	return defaultCacheDir + "/progress.json"
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
