package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearEnv unsets every variable Load reads so the host environment
// cannot leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"DEFAULT_AI_PROVIDER", "OLLAMA_HOST", "LLM_TIMEOUT", "LLM_TEMPERATURE",
		"LLM_MAX_TOKENS", "AIDE_DB_PATH",
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GOOGLE_API_KEY", "GEMINI_API_KEY",
		"OPENAI_MODEL", "ANTHROPIC_MODEL", "GEMINI_MODEL", "OLLAMA_MODEL",
		"OPENAI_BASE_URL", "ANTHROPIC_BASE_URL",
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	settings, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.AI.DefaultProvider != "gemini" {
		t.Errorf("expected default provider 'gemini', got %q", settings.AI.DefaultProvider)
	}
	if settings.AI.OllamaHost != DefaultOllamaHost {
		t.Errorf("expected ollama host %q, got %q", DefaultOllamaHost, settings.AI.OllamaHost)
	}
	if settings.AI.Timeout != 60*time.Second {
		t.Errorf("expected 60s timeout, got %v", settings.AI.Timeout)
	}
	if settings.Chat.MaxTokens != 2000 {
		t.Errorf("expected 2000 max tokens, got %d", settings.Chat.MaxTokens)
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("missing config file should not be an error: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[ai]
default_provider = "Claude"
ollama_host = "http://gpu-box:11434"
timeout = "30s"

[ai.credentials]
anthropic = "file-key"

[ai.models]
gpt = "gpt-4o-mini"

[chat]
temperature = 0.2

[storage]
db_path = "/tmp/aide-test.db"
`)

	settings, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.AI.DefaultProvider != "claude" {
		t.Errorf("expected lower-cased default provider, got %q", settings.AI.DefaultProvider)
	}
	if got := settings.AI.APIKeyFor("anthropic"); got != "file-key" {
		t.Errorf("expected 'file-key', got %q", got)
	}
	if got := settings.AI.ModelFor("openai"); got != "gpt-4o-mini" {
		t.Errorf("expected alias key normalized to openai, got %q", got)
	}
	if got := settings.AI.BaseURLFor("ollama"); got != "http://gpu-box:11434" {
		t.Errorf("expected ollama host from file, got %q", got)
	}
	if settings.AI.Timeout != 30*time.Second {
		t.Errorf("expected 30s timeout, got %v", settings.AI.Timeout)
	}
	if settings.Chat.Temperature != 0.2 {
		t.Errorf("expected temperature 0.2, got %v", settings.Chat.Temperature)
	}
	if settings.Storage.DBPath != "/tmp/aide-test.db" {
		t.Errorf("unexpected db path %q", settings.Storage.DBPath)
	}
}

func TestLoadMalformedFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "[ai\ndefault_provider = ")

	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed config file")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[ai]
default_provider = "anthropic"
[ai.credentials]
openai = "file-key"
`)
	t.Setenv("DEFAULT_AI_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "env-key")

	settings, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.AI.DefaultProvider != "openai" {
		t.Errorf("expected env default provider, got %q", settings.AI.DefaultProvider)
	}
	if got := settings.AI.APIKeyFor("gpt"); got != "env-key" {
		t.Errorf("expected env key, got %q", got)
	}
}

func TestGeminiKeyFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "fallback")

	settings, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := settings.AI.APIKeyFor("gemini"); got != "fallback" {
		t.Errorf("expected GEMINI_API_KEY fallback, got %q", got)
	}

	t.Setenv("GOOGLE_API_KEY", "primary")
	settings, err = Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := settings.AI.APIKeyFor("google"); got != "primary" {
		t.Errorf("expected GOOGLE_API_KEY to win, got %q", got)
	}
}

func TestAPIKeyForMissing(t *testing.T) {
	clearEnv(t)

	settings, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if key := settings.AI.APIKeyFor("openai"); key != "" {
		t.Errorf("expected empty key, got %q", key)
	}
}

func TestTimeoutFormats(t *testing.T) {
	clearEnv(t)

	t.Setenv("LLM_TIMEOUT", "90")
	settings, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.AI.Timeout != 90*time.Second {
		t.Errorf("expected 90s from plain seconds, got %v", settings.AI.Timeout)
	}

	t.Setenv("LLM_TIMEOUT", "2m")
	settings, err = Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settings.AI.Timeout != 2*time.Minute {
		t.Errorf("expected 2m, got %v", settings.AI.Timeout)
	}
}

func TestLoadWithInvalidEnvVar(t *testing.T) {
	cases := map[string]string{
		"LLM_MAX_TOKENS":  "not-a-number",
		"LLM_TEMPERATURE": "-1",
		"LLM_TIMEOUT":     "soon",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, val)

			if _, err := Load(""); err == nil {
				t.Errorf("expected error for invalid %s", key)
			}
		})
	}
}

func TestMustLoadPanics(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_MAX_TOKENS", "not-a-number")

	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for invalid environment")
		}
	}()
	MustLoad("")
}

func TestSupportedProviders(t *testing.T) {
	providers := SupportedProviders()
	if len(providers) != 4 {
		t.Errorf("expected 4 supported providers, got %d", len(providers))
	}
}
