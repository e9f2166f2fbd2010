// Package main provides the aide CLI entry point.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/richinex/aide/cli"
)

var (
	// Global flags
	provider   string
	configPath string
	dbPath     string
	verbose    bool
)

func main() {
	// Load .env file if present (ignore "file not found" errors)
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Warning: failed to load .env file: %v\n", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := &cobra.Command{
		Use:   "aide",
		Short: "AI assistant over OpenAI, Anthropic, Gemini and Ollama",
		Long: `A CLI assistant that talks to one of several AI providers.

Commands:
- chat: one-shot or interactive chat, persisted as conversations
- analyze: summarize and analyze a text document
- search: summarize web search results
- providers: list configured providers`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			slog.SetDefault(cli.NewLogger(os.Stderr, verbose))
		},
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&provider, "provider", "p", "", "AI provider (openai, anthropic, gemini, ollama)")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path (default $AIDE_CONFIG or the user config dir)")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path for conversations and documents")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show debug logging")

	// Add commands
	rootCmd.AddCommand(chatCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(searchCmd())
	rootCmd.AddCommand(providersCmd())
	rootCmd.AddCommand(conversationsCmd())
	rootCmd.AddCommand(documentsCmd())

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// withApp opens the App for the duration of run.
func withApp(run func(app *cli.App) error) error {
	app, err := cli.Open(cli.Options{
		ConfigPath: configPath,
		DBPath:     dbPath,
		Verbose:    verbose,
	})
	if err != nil {
		return err
	}
	defer app.Close()
	return run(app)
}

func chatCmd() *cobra.Command {
	var conversationID string
	var stream bool

	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Chat with the assistant",
		Long: `Send a single message, or start an interactive session when no message is given.

Every exchange is stored. Use --conversation to continue a stored
conversation; its original provider is used unless --provider is set.
In interactive mode the config file is watched and provider settings
are reloaded when it changes.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := cli.ChatOptions{
				Provider:       provider,
				ConversationID: conversationID,
				Stream:         stream,
			}
			return withApp(func(app *cli.App) error {
				if len(args) == 0 {
					return app.ChatREPL(cmd.Context(), opts)
				}
				return app.Chat(cmd.Context(), strings.Join(args, " "), opts)
			})
		},
	}

	cmd.Flags().StringVar(&conversationID, "conversation", "", "Conversation ID to continue")
	cmd.Flags().BoolVarP(&stream, "stream", "s", false, "Stream the reply as it is generated")

	return cmd
}

func analyzeCmd() *cobra.Command {
	var prompt string

	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Summarize and analyze a .txt or .md document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(app *cli.App) error {
				return app.Analyze(cmd.Context(), args[0], prompt, provider)
			})
		},
	}

	cmd.Flags().StringVar(&prompt, "prompt", "", "Custom analysis instruction")

	return cmd
}

func searchCmd() *cobra.Command {
	var hitsPath string

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Summarize web search results",
		Long: `Summarize search results produced by a search tool.

--hits names a JSON file ("-" for stdin) holding either an array of
{"title", "url", "snippet"} objects or an object with a "results" array.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(app *cli.App) error {
				return app.Search(cmd.Context(), strings.Join(args, " "), hitsPath, provider)
			})
		},
	}

	cmd.Flags().StringVar(&hitsPath, "hits", "-", "Search results JSON file")

	return cmd
}

func providersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List configured providers",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(app *cli.App) error {
				app.ListProviders()
				return nil
			})
		},
	}
}

func conversationsCmd() *cobra.Command {
	var deleteID string

	cmd := &cobra.Command{
		Use:   "conversations",
		Short: "List stored conversations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(app *cli.App) error {
				if deleteID != "" {
					return app.DeleteConversation(cmd.Context(), deleteID)
				}
				return app.ListConversations(cmd.Context())
			})
		},
	}

	cmd.Flags().StringVar(&deleteID, "delete", "", "Delete the conversation with this ID")

	return cmd
}

func documentsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "documents",
		Short: "List stored document analyses",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(app *cli.App) error {
				return app.ListDocuments(cmd.Context())
			})
		},
	}
}
