// Provider Registry - resolves provider names to cached Provider instances.
//
// Information Hiding:
// - Instance cache keyed by ProviderType (aliases share one instance)
// - Configuration snapshot swapped atomically on reload
// - Construction of providers from configuration
//
// Hits are lock-free. A miss builds outside any lock and keeps whichever
// instance is stored first; a racing duplicate is discarded. A build that
// overlaps a ClearCache is thrown away and retried against the current
// configuration.

package llm

import (
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/richinex/aide/config"
)

// BuildFunc constructs a provider of type p from cfg.
type BuildFunc func(p ProviderType, cfg config.AIConfig) (Provider, error)

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithBuilder replaces the function used to construct providers.
func WithBuilder(build BuildFunc) RegistryOption {
	return func(r *Registry) {
		r.build = build
	}
}

// WithLogger sets the registry logger.
func WithLogger(logger *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.logger = logger
	}
}

// Registry resolves provider names to live providers and caches them for
// the lifetime of the registry. It is safe for concurrent use.
type Registry struct {
	cfg       atomic.Pointer[config.AIConfig]
	build     BuildFunc
	logger    *slog.Logger
	instances sync.Map // ProviderType -> Provider
	gen       atomic.Uint64
}

// NewRegistry creates a registry for cfg.
func NewRegistry(cfg config.AIConfig, opts ...RegistryOption) *Registry {
	r := &Registry{
		build:  BuildFromConfig,
		logger: slog.Default(),
	}
	r.cfg.Store(&cfg)
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the provider for name, building and caching it on first
// use. An empty name selects the configured default. Unknown names fail
// with *UnsupportedProviderError.
func (r *Registry) Resolve(name string) (Provider, error) {
	if name == "" {
		name = r.cfg.Load().DefaultProvider
	}

	providerType, err := ParseProviderType(name)
	if err != nil {
		return nil, err
	}

	for {
		if cached, ok := r.instances.Load(providerType); ok {
			return cached.(Provider), nil
		}

		gen := r.gen.Load()
		provider, err := r.build(providerType, *r.cfg.Load())
		if err != nil {
			return nil, fmt.Errorf("build %s provider: %w", providerType, err)
		}
		if r.gen.Load() != gen {
			r.logger.Debug("discarded provider built before reload", "provider", providerType.String())
			continue
		}

		actual, loaded := r.instances.LoadOrStore(providerType, provider)
		if r.gen.Load() != gen {
			if !loaded {
				r.instances.CompareAndDelete(providerType, provider)
			}
			continue
		}
		if loaded {
			r.logger.Debug("discarded duplicate provider instance", "provider", providerType.String())
		} else {
			r.logger.Debug("provider created", "provider", providerType.String(), "model", provider.Model())
		}
		return actual.(Provider), nil
	}
}

// DefaultProvider returns the canonical name of the configured default
// provider, or the raw configured value if it is not supported.
func (r *Registry) DefaultProvider() string {
	name := r.cfg.Load().DefaultProvider
	if providerType, err := ParseProviderType(name); err == nil {
		return providerType.String()
	}
	return name
}

// AvailableProviders lists providers whose credential is configured, in
// discovery order. Ollama needs none and is always listed. This is advisory:
// Resolve does not consult it.
func (r *Registry) AvailableProviders() []ProviderType {
	cfg := r.cfg.Load()

	available := make([]ProviderType, 0, len(AllProviders))
	for _, p := range AllProviders {
		if !p.NeedsAPIKey() || cfg.APIKeyFor(p.String()) != "" {
			available = append(available, p)
		}
	}
	return available
}

// ClearCache drops every cached provider. Subsequent Resolve calls build
// new instances.
func (r *Registry) ClearCache() {
	r.gen.Add(1)
	r.instances.Clear()
	r.logger.Debug("provider cache cleared")
}

// Reload swaps in a new configuration and clears the cache.
func (r *Registry) Reload(cfg config.AIConfig) {
	r.cfg.Store(&cfg)
	r.ClearCache()
	r.logger.Info("provider configuration reloaded", "default", r.DefaultProvider())
}

// BuildFromConfig is the default BuildFunc. It reads the credential, model,
// endpoint and timeout for p from cfg.
func BuildFromConfig(p ProviderType, cfg config.AIConfig) (Provider, error) {
	name := p.String()
	return NewProviderBuilder(p).
		Model(cfg.ModelFor(name)).
		BaseURL(cfg.BaseURLFor(name)).
		Timeout(cfg.Timeout).
		APIKey(cfg.APIKeyFor(name))
}
