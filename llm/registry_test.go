package llm

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/richinex/aide/config"
)

// stubProvider is a distinct instance per construction.
type stubProvider struct {
	name  ProviderType
	model string
}

func (s *stubProvider) Name() ProviderType { return s.name }
func (s *stubProvider) Model() string      { return s.model }
func (s *stubProvider) Chat(ctx context.Context, messages []ChatMessage, params ChatParameters) (string, error) {
	return "", nil
}
func (s *stubProvider) StreamChat(ctx context.Context, messages []ChatMessage, params ChatParameters) (*Stream, error) {
	return nil, nil
}
func (s *stubProvider) AnalyzeDocument(ctx context.Context, text, prompt string) (string, error) {
	return "", nil
}
func (s *stubProvider) Summarize(ctx context.Context, text string, maxLength int) (string, error) {
	return "", nil
}

func countingBuilder(builds *atomic.Int32) BuildFunc {
	return func(p ProviderType, cfg config.AIConfig) (Provider, error) {
		builds.Add(1)
		return &stubProvider{name: p, model: cfg.ModelFor(p.String())}, nil
	}
}

func testAIConfig() config.AIConfig {
	cfg := config.Default().AI
	cfg.DefaultProvider = "anthropic"
	return cfg
}

func TestRegistryResolveCaches(t *testing.T) {
	var builds atomic.Int32
	registry := NewRegistry(testAIConfig(), WithBuilder(countingBuilder(&builds)))

	for _, p := range AllProviders {
		first, err := registry.Resolve(p.String())
		require.NoError(t, err)
		second, err := registry.Resolve(p.String())
		require.NoError(t, err)

		assert.Same(t, first, second, "%s should resolve to the cached instance", p)
		assert.Equal(t, p, first.Name())
	}
	assert.Equal(t, int32(len(AllProviders)), builds.Load())
}

func TestRegistryAliasesShareInstance(t *testing.T) {
	var builds atomic.Int32
	registry := NewRegistry(testAIConfig(), WithBuilder(countingBuilder(&builds)))

	claude, err := registry.Resolve("claude")
	require.NoError(t, err)
	anthropic, err := registry.Resolve("anthropic")
	require.NoError(t, err)

	assert.Same(t, claude, anthropic)
}

func TestRegistryEmptyNameUsesDefault(t *testing.T) {
	var builds atomic.Int32
	registry := NewRegistry(testAIConfig(), WithBuilder(countingBuilder(&builds)))

	byDefault, err := registry.Resolve("")
	require.NoError(t, err)
	explicit, err := registry.Resolve("anthropic")
	require.NoError(t, err)

	assert.Same(t, byDefault, explicit)
	assert.Equal(t, "anthropic", registry.DefaultProvider())
}

func TestRegistryUnknownProvider(t *testing.T) {
	var builds atomic.Int32
	registry := NewRegistry(testAIConfig(), WithBuilder(countingBuilder(&builds)))

	_, err := registry.Resolve("unknown")
	require.Error(t, err)

	var unsupported *UnsupportedProviderError
	assert.True(t, errors.As(err, &unsupported))
	assert.Equal(t, "unknown", unsupported.Name)
	assert.Zero(t, builds.Load(), "an unknown name must not fall back to any provider")
}

func TestRegistryUnknownDefault(t *testing.T) {
	cfg := testAIConfig()
	cfg.DefaultProvider = "mistral"
	registry := NewRegistry(cfg, WithBuilder(countingBuilder(new(atomic.Int32))))

	_, err := registry.Resolve("")
	assert.True(t, IsUnsupportedProvider(err))
	assert.Equal(t, "mistral", registry.DefaultProvider())
}

func TestRegistryClearCache(t *testing.T) {
	var builds atomic.Int32
	registry := NewRegistry(testAIConfig(), WithBuilder(countingBuilder(&builds)))

	before, err := registry.Resolve("gemini")
	require.NoError(t, err)

	registry.ClearCache()

	after, err := registry.Resolve("gemini")
	require.NoError(t, err)
	assert.NotSame(t, before, after)
	assert.Equal(t, int32(2), builds.Load())
}

func TestRegistryReload(t *testing.T) {
	var builds atomic.Int32
	registry := NewRegistry(testAIConfig(), WithBuilder(countingBuilder(&builds)))

	before, err := registry.Resolve("openai")
	require.NoError(t, err)
	assert.Empty(t, before.Model())

	cfg := testAIConfig()
	cfg.DefaultProvider = "openai"
	cfg.Models["openai"] = "gpt-4o-mini"
	registry.Reload(cfg)

	after, err := registry.Resolve("")
	require.NoError(t, err)
	assert.NotSame(t, before, after)
	assert.Equal(t, "gpt-4o-mini", after.Model())
}

func TestRegistryReloadDuringBuild(t *testing.T) {
	old := testAIConfig()
	old.Models["anthropic"] = "old-model"

	var builds atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	build := func(p ProviderType, cfg config.AIConfig) (Provider, error) {
		if builds.Add(1) == 1 {
			close(started)
			<-release
		}
		return &stubProvider{name: p, model: cfg.ModelFor(p.String())}, nil
	}
	registry := NewRegistry(old, WithBuilder(build))

	resolved := make(chan Provider, 1)
	go func() {
		p, err := registry.Resolve("anthropic")
		assert.NoError(t, err)
		resolved <- p
	}()

	<-started
	cfg := testAIConfig()
	cfg.Models["anthropic"] = "new-model"
	registry.Reload(cfg)
	close(release)

	first := <-resolved
	require.NotNil(t, first)
	assert.Equal(t, "new-model", first.Model(), "a build that overlapped the reload must not be returned")

	after, err := registry.Resolve("anthropic")
	require.NoError(t, err)
	assert.Equal(t, "new-model", after.Model())
	assert.Same(t, first, after)
	assert.Equal(t, int32(2), builds.Load())
}

func TestRegistryConcurrentResolve(t *testing.T) {
	var builds atomic.Int32
	registry := NewRegistry(testAIConfig(), WithBuilder(countingBuilder(&builds)))

	const callers = 32
	results := make([]Provider, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := registry.Resolve("ollama")
			assert.NoError(t, err)
			results[i] = p
		}(i)
	}
	wg.Wait()

	for _, p := range results[1:] {
		assert.Same(t, results[0], p, "every caller must end up with the retained instance")
	}
}

func TestRegistryBuildError(t *testing.T) {
	failing := func(p ProviderType, cfg config.AIConfig) (Provider, error) {
		return nil, &ProviderError{Kind: KindAuth, Provider: p, Message: "missing key"}
	}
	registry := NewRegistry(testAIConfig(), WithBuilder(failing))

	_, err := registry.Resolve("openai")
	assert.True(t, IsAuth(err))
}

func TestAvailableProviders(t *testing.T) {
	cfg := testAIConfig()
	registry := NewRegistry(cfg)
	assert.Equal(t, []ProviderType{ProviderOllama}, registry.AvailableProviders())

	cfg.Credentials = map[string]string{"gemini": "g-key", "openai": "o-key"}
	registry.Reload(cfg)
	assert.Equal(t, []ProviderType{ProviderOpenAI, ProviderGemini, ProviderOllama}, registry.AvailableProviders())
}

func TestBuildFromConfig(t *testing.T) {
	cfg := testAIConfig()
	cfg.Credentials["openai"] = "sk-test"
	cfg.Models["openai"] = "gpt-4o-mini"

	provider, err := BuildFromConfig(ProviderOpenAI, cfg)
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, provider.Name())
	assert.Equal(t, "gpt-4o-mini", provider.Model())

	ollama, err := BuildFromConfig(ProviderOllama, cfg)
	require.NoError(t, err)
	assert.Equal(t, ModelOllamaLlama32, ollama.Model())

	_, err = BuildFromConfig(ProviderAnthropic, cfg)
	assert.True(t, IsAuth(err), "a missing credential is reported as an auth failure")
}
