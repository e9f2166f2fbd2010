// Package config provides application settings loaded from a TOML file and
// environment variables.
//
// Settings are created via Load() which handles:
// - Optional TOML file decoding
// - Environment variable parsing with validation (environment wins over file)
// - Default value application
// - Provider-specific configuration lookup

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Defaults applied before the file and environment are read.
const (
	DefaultProvider    = "gemini"
	DefaultOllamaHost  = "http://localhost:11434"
	DefaultTimeout     = 60 * time.Second
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2000
	DefaultDBPath      = "aide.db"
)

// Settings holds all application configuration.
type Settings struct {
	AI      AIConfig      `toml:"ai"`
	Chat    ChatConfig    `toml:"chat"`
	Storage StorageConfig `toml:"storage"`
}

// AIConfig holds provider selection and credentials.
// Maps are keyed by canonical provider name.
type AIConfig struct {
	DefaultProvider string            `toml:"default_provider"`
	Credentials     map[string]string `toml:"credentials"`
	Models          map[string]string `toml:"models"`
	BaseURLs        map[string]string `toml:"base_urls"`
	OllamaHost      string            `toml:"ollama_host"`
	Timeout         time.Duration     `toml:"timeout"`
}

// ChatConfig holds sampling parameters for open-ended chat.
type ChatConfig struct {
	Temperature float64 `toml:"temperature"`
	MaxTokens   uint32  `toml:"max_tokens"`
}

// StorageConfig holds persistence configuration.
type StorageConfig struct {
	DBPath string `toml:"db_path"`
}

// providerInfo holds configuration for a specific LLM provider.
type providerInfo struct {
	modelEnv   string
	apiKeyEnvs []string // first non-empty wins
	baseURLEnv string
}

// Supported providers and their configuration.
var providers = map[string]providerInfo{
	"openai":    {"OPENAI_MODEL", []string{"OPENAI_API_KEY"}, "OPENAI_BASE_URL"},
	"anthropic": {"ANTHROPIC_MODEL", []string{"ANTHROPIC_API_KEY"}, "ANTHROPIC_BASE_URL"},
	"gemini":    {"GEMINI_MODEL", []string{"GOOGLE_API_KEY", "GEMINI_API_KEY"}, ""},
	"ollama":    {"OLLAMA_MODEL", nil, ""},
}

// Provider aliases map to canonical names.
var providerAliases = map[string]string{
	"claude": "anthropic",
	"google": "gemini",
	"gpt":    "openai",
}

// Default returns settings with every default applied and no file or
// environment consulted.
func Default() Settings {
	return Settings{
		AI: AIConfig{
			DefaultProvider: DefaultProvider,
			Credentials:     map[string]string{},
			Models:          map[string]string{},
			BaseURLs:        map[string]string{},
			OllamaHost:      DefaultOllamaHost,
			Timeout:         DefaultTimeout,
		},
		Chat: ChatConfig{
			Temperature: DefaultTemperature,
			MaxTokens:   DefaultMaxTokens,
		},
		Storage: StorageConfig{
			DBPath: DefaultDBPath,
		},
	}
}

// Load reads settings from the TOML file at path, then applies environment
// overrides. A missing file is not an error; an empty path skips the file.
// Returns an error if the file is malformed or environment variables contain
// invalid values.
func Load(path string) (Settings, error) {
	settings := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &settings); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Settings{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := settings.applyEnv(); err != nil {
		return Settings{}, err
	}

	settings.normalize()
	return settings, nil
}

// MustLoad loads settings from path.
// Panics if the file or environment variables are invalid.
// Use this only when configuration errors should be fatal.
func MustLoad(path string) Settings {
	settings, err := Load(path)
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return settings
}

// DefaultPath returns the config file location: $AIDE_CONFIG if set,
// otherwise aide/config.toml under the user config directory.
func DefaultPath() string {
	if path := os.Getenv("AIDE_CONFIG"); path != "" {
		return path
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "aide", "config.toml")
}

func (s *Settings) applyEnv() error {
	if val := os.Getenv("DEFAULT_AI_PROVIDER"); val != "" {
		s.AI.DefaultProvider = val
	}
	if val := os.Getenv("OLLAMA_HOST"); val != "" {
		s.AI.OllamaHost = val
	}

	for name, info := range providers {
		for _, env := range info.apiKeyEnvs {
			if val := os.Getenv(env); val != "" {
				s.AI.Credentials[name] = val
				break
			}
		}
		if val := os.Getenv(info.modelEnv); val != "" {
			s.AI.Models[name] = val
		}
		if info.baseURLEnv != "" {
			if val := os.Getenv(info.baseURLEnv); val != "" {
				s.AI.BaseURLs[name] = val
			}
		}
	}

	timeout, err := getEnvDuration("LLM_TIMEOUT", s.AI.Timeout)
	if err != nil {
		return err
	}
	s.AI.Timeout = timeout

	temperature, err := getEnvFloat64("LLM_TEMPERATURE", s.Chat.Temperature)
	if err != nil {
		return err
	}
	s.Chat.Temperature = temperature

	maxTokens, err := getEnvUint32("LLM_MAX_TOKENS", s.Chat.MaxTokens)
	if err != nil {
		return err
	}
	s.Chat.MaxTokens = maxTokens

	if val := os.Getenv("AIDE_DB_PATH"); val != "" {
		s.Storage.DBPath = val
	}
	return nil
}

// normalize canonicalizes provider names used as map keys. The default
// provider is only lower-cased: an unknown name must fail at resolve time.
func (s *Settings) normalize() {
	s.AI.DefaultProvider = strings.ToLower(strings.TrimSpace(s.AI.DefaultProvider))
	s.AI.Credentials = normalizeKeys(s.AI.Credentials)
	s.AI.Models = normalizeKeys(s.AI.Models)
	s.AI.BaseURLs = normalizeKeys(s.AI.BaseURLs)
	if s.AI.Timeout <= 0 {
		s.AI.Timeout = DefaultTimeout
	}
}

func normalizeKeys(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[normalizeProvider(k)] = v
	}
	return out
}

// normalizeProvider converts provider aliases to canonical names.
func normalizeProvider(provider string) string {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if canonical, ok := providerAliases[provider]; ok {
		return canonical
	}
	return provider
}

// APIKeyFor returns the configured credential for a provider, or "".
func (c AIConfig) APIKeyFor(provider string) string {
	return c.Credentials[normalizeProvider(provider)]
}

// ModelFor returns the configured model for a provider, or "" to use the
// provider default.
func (c AIConfig) ModelFor(provider string) string {
	return c.Models[normalizeProvider(provider)]
}

// BaseURLFor returns the endpoint override for a provider. For ollama this
// is the server host.
func (c AIConfig) BaseURLFor(provider string) string {
	provider = normalizeProvider(provider)
	if provider == "ollama" {
		if c.OllamaHost == "" {
			return DefaultOllamaHost
		}
		return c.OllamaHost
	}
	return c.BaseURLs[provider]
}

// SupportedProviders returns the list of supported provider names.
func SupportedProviders() []string {
	result := make([]string, 0, len(providers))
	for name := range providers {
		result = append(result, name)
	}
	return result
}

// Environment variable helpers with proper error handling

func getEnvUint32(key string, defaultVal uint32) (uint32, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	i, err := strconv.ParseUint(val, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return uint32(i), nil
}

func getEnvFloat64(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	if f < 0 {
		return 0, fmt.Errorf("invalid value for %s: %q: must not be negative", key, val)
	}
	return f, nil
}

// getEnvDuration accepts a Go duration ("90s") or a number of seconds ("90").
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	if secs, err := strconv.Atoi(val); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q: %w", key, val, err)
	}
	return d, nil
}
