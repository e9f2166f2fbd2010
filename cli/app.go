// Command execution for CLI commands.
//
// Information Hiding:
// - Provider registry and assistant service setup hidden
// - Conversation and document persistence hidden
// - Output formatting hidden

package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/richinex/aide/assistant"
	"github.com/richinex/aide/config"
	"github.com/richinex/aide/llm"
	"github.com/richinex/aide/storage"
)

// Options holds CLI execution options.
type Options struct {
	ConfigPath string
	DBPath     string
	Verbose    bool
}

// App wires configuration, providers, the assistant service and storage
// for the CLI commands.
type App struct {
	settings   config.Settings
	configPath string

	registry *llm.Registry
	service  *assistant.Service
	store    storage.Store
	logger   *slog.Logger

	in     io.Reader
	out    io.Writer
	errOut io.Writer
}

// AppOption configures an App.
type AppOption func(*appOptions)

type appOptions struct {
	build      llm.BuildFunc
	logger     *slog.Logger
	in         io.Reader
	out        io.Writer
	errOut     io.Writer
	configPath string
}

// WithBuilder replaces the provider builder.
func WithBuilder(build llm.BuildFunc) AppOption {
	return func(o *appOptions) {
		o.build = build
	}
}

// WithLogger sets the logger shared by all components.
func WithLogger(logger *slog.Logger) AppOption {
	return func(o *appOptions) {
		o.logger = logger
	}
}

// WithIO replaces stdin, stdout and stderr.
func WithIO(in io.Reader, out, errOut io.Writer) AppOption {
	return func(o *appOptions) {
		o.in = in
		o.out = out
		o.errOut = errOut
	}
}

// WithConfigPath records the config file that WatchConfig reloads.
func WithConfigPath(path string) AppOption {
	return func(o *appOptions) {
		o.configPath = path
	}
}

// NewApp assembles an App from already loaded settings and an open store.
// The App takes ownership of store.
func NewApp(settings config.Settings, store storage.Store, opts ...AppOption) *App {
	o := appOptions{
		build:  llm.BuildFromConfig,
		logger: slog.Default(),
		in:     os.Stdin,
		out:    os.Stdout,
		errOut: os.Stderr,
	}
	for _, opt := range opts {
		opt(&o)
	}

	registry := llm.NewRegistry(settings.AI,
		llm.WithBuilder(o.build),
		llm.WithLogger(o.logger),
	)

	service := assistant.New(registry,
		assistant.WithChatParameters(chatParameters(settings.Chat)),
		assistant.WithLogger(o.logger),
	)

	return &App{
		settings:   settings,
		configPath: o.configPath,
		registry:   registry,
		service:    service,
		store:      store,
		logger:     o.logger,
		in:         o.in,
		out:        o.out,
		errOut:     o.errOut,
	}
}

// Open loads configuration and opens the SQLite store named by opts or the
// configuration.
func Open(opts Options, appOpts ...AppOption) (*App, error) {
	configPath := opts.ConfigPath
	if configPath == "" {
		configPath = config.DefaultPath()
	}

	settings, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	dbPath := settings.Storage.DBPath
	if opts.DBPath != "" {
		dbPath = opts.DBPath
	}

	store, err := storage.OpenSqlite(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	appOpts = append([]AppOption{
		WithConfigPath(configPath),
		WithLogger(NewLogger(os.Stderr, opts.Verbose)),
	}, appOpts...)
	return NewApp(settings, store, appOpts...), nil
}

// Close releases the store.
func (a *App) Close() error {
	return a.store.Close()
}

// NewLogger returns a text logger writing to w. verbose enables debug output.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// providerName returns the canonical name of provider, or of the default
// provider when empty. Unsupported names are returned unchanged.
func (a *App) providerName(provider string) string {
	if provider == "" {
		return a.registry.DefaultProvider()
	}
	if p, err := llm.ParseProviderType(provider); err == nil {
		return p.String()
	}
	return provider
}

func chatParameters(c config.ChatConfig) llm.ChatParameters {
	return llm.ChatParameters{
		Temperature: float32(c.Temperature),
		MaxTokens:   c.MaxTokens,
	}
}
