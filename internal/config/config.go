// Package config loads folio configuration from an optional YAML file with
// FOLIO_* environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Chat      ChatConfig      `koanf:"chat"`
	Gemini    GeminiConfig    `koanf:"gemini"`
	Knowledge KnowledgeConfig `koanf:"knowledge"`
	Storage   StorageConfig   `koanf:"storage"`
	Log       LogConfig       `koanf:"log"`
}

type ServerConfig struct {
	Port int `koanf:"port"`
}

type ChatConfig struct {
	// DefaultLang is used when a request carries no (or an unknown) language.
	DefaultLang string `koanf:"default_lang"`
	// ProxyBaseURL points at a first-party backend wrapping the generative
	// API. Empty disables the proxy stage.
	ProxyBaseURL string `koanf:"proxy_base_url"`
}

type GeminiConfig struct {
	APIKey string `koanf:"api_key"`
	Model  string `koanf:"model"`
}

type KnowledgeConfig struct {
	// Path overrides the embedded knowledge payload. Empty uses the
	// embedded default.
	Path string `koanf:"path"`
}

type StorageConfig struct {
	DataDir string `koanf:"data_dir"`
}

type LogConfig struct {
	Level string `koanf:"level"`
}

func defaults() Config {
	return Config{
		Server:  ServerConfig{Port: 5001},
		Chat:    ChatConfig{DefaultLang: "th"},
		Gemini:  GeminiConfig{Model: "gemini-flash-lite-latest"},
		Storage: StorageConfig{DataDir: defaultDataDir()},
		Log:     LogConfig{Level: "info"},
	}
}

func defaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ".folio"
	}
	return filepath.Join(base, "folio")
}

// envKeys maps FOLIO_* environment variables to config keys. An explicit
// table avoids guessing section boundaries in underscored names.
var envKeys = map[string]string{
	"FOLIO_SERVER_PORT":    "server.port",
	"FOLIO_DEFAULT_LANG":   "chat.default_lang",
	"FOLIO_PROXY_BASE_URL": "chat.proxy_base_url",
	"FOLIO_GEMINI_API_KEY": "gemini.api_key",
	"FOLIO_GEMINI_MODEL":   "gemini.model",
	"FOLIO_KNOWLEDGE_PATH": "knowledge.path",
	"FOLIO_DATA_DIR":       "storage.data_dir",
	"FOLIO_LOG_LEVEL":      "log.level",
}

// Load reads configuration from path (ignored when absent), then overlays
// FOLIO_* environment variables.
func Load(path string) (Config, error) {
	k := koanf.New(".")
	cfg := defaults()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("reading config %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("accessing config %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("FOLIO_", ".", func(s string) string {
		return envKeys[s]
	}), nil); err != nil {
		return Config{}, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	if c.Chat.DefaultLang == "" {
		return fmt.Errorf("chat.default_lang is required")
	}
	return nil
}
