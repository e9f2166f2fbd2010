package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/richinex/aide/llm"
	"github.com/richinex/aide/storage"
)

const maxTitleLength = 50

// ChatOptions selects the conversation and delivery mode of a chat.
type ChatOptions struct {
	Provider       string
	ConversationID string
	Stream         bool
}

// session is an open conversation. conv.ID is empty until the first
// successful turn is stored.
type session struct {
	conv    storage.Conversation
	history []llm.ChatMessage
}

// Chat sends a single message and stores the turn.
func (a *App) Chat(ctx context.Context, message string, opts ChatOptions) error {
	s, err := a.openSession(ctx, opts.ConversationID)
	if err != nil {
		return err
	}

	if err := a.turn(ctx, s, message, opts); err != nil {
		return err
	}

	a.logger.Info("conversation saved", "id", s.conv.ID, "messages", len(s.history))
	return nil
}

// ChatREPL starts an interactive chat session. Provider failures are
// reported and the session continues.
func (a *App) ChatREPL(ctx context.Context, opts ChatOptions) error {
	s, err := a.openSession(ctx, opts.ConversationID)
	if err != nil {
		return err
	}

	if len(s.history) > 0 {
		fmt.Fprintf(a.out, "Resuming conversation '%s' (%d messages)\n\n", s.conv.Title, len(s.history))
	}

	if a.configPath != "" {
		stop, err := a.WatchConfig(ctx)
		if err != nil {
			a.logger.Warn("config hot reload disabled", "error", err)
		} else {
			defer stop()
		}
	}

	provider := opts.Provider
	if provider == "" {
		provider = s.conv.Provider
	}
	fmt.Fprintf(a.out, "Chat with %s. Type 'exit' to quit.\n\n", a.providerName(provider))

	scanner := bufio.NewScanner(a.in)
	for {
		fmt.Fprint(a.out, "> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			break
		}

		if err := a.turn(ctx, s, input, opts); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			fmt.Fprintf(a.errOut, "\nError: %v\n\n", err)
			continue
		}
		fmt.Fprintln(a.out)
	}

	if s.conv.ID != "" {
		a.logger.Info("conversation saved", "id", s.conv.ID, "messages", len(s.history))
	}
	return scanner.Err()
}

func (a *App) openSession(ctx context.Context, id string) (*session, error) {
	if id == "" {
		return &session{}, nil
	}

	conv, err := a.store.GetConversation(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("conversation %s not found", id)
	}
	if err != nil {
		return nil, err
	}

	history, err := a.store.Load(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	return &session{conv: conv, history: history}, nil
}

// turn runs one exchange, prints the reply and stores both messages.
// The conversation is created on its first successful turn.
func (a *App) turn(ctx context.Context, s *session, input string, opts ChatOptions) error {
	provider := opts.Provider
	if provider == "" {
		provider = s.conv.Provider
	}

	var (
		reply string
		used  llm.ProviderType
		err   error
	)
	if opts.Stream {
		reply, used, err = a.streamTurn(ctx, s.history, input, provider)
	} else {
		reply, used, err = a.blockingTurn(ctx, s.history, input, provider)
	}
	if err != nil {
		return err
	}

	if s.conv.ID == "" {
		conv, err := a.store.CreateConversation(ctx, titleFrom(input), used.String())
		if err != nil {
			return fmt.Errorf("failed to create conversation: %w", err)
		}
		s.conv = conv
	}

	exchange := []llm.ChatMessage{llm.UserMessage(input), llm.AssistantMessage(reply)}
	if err := a.store.AppendMessages(ctx, s.conv.ID, exchange...); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	s.history = append(s.history, exchange...)
	return nil
}

func (a *App) blockingTurn(ctx context.Context, history []llm.ChatMessage, input, provider string) (string, llm.ProviderType, error) {
	result, err := a.service.RunChat(ctx, history, input, provider, false)
	if err != nil {
		return "", 0, err
	}
	fmt.Fprintln(a.out, result.Reply)
	return result.Reply, result.Provider, nil
}

func (a *App) streamTurn(ctx context.Context, history []llm.ChatMessage, input, provider string) (string, llm.ProviderType, error) {
	stream, err := a.service.StreamChat(ctx, history, input, provider)
	if err != nil {
		return "", 0, err
	}
	defer stream.Close()

	var reply strings.Builder
	for stream.Next() {
		fragment := stream.Current()
		reply.WriteString(fragment)
		fmt.Fprint(a.out, fragment)
	}
	fmt.Fprintln(a.out)

	if err := stream.Err(); err != nil {
		return "", 0, err
	}
	return reply.String(), stream.Provider(), nil
}

// titleFrom derives a conversation title from its first message.
func titleFrom(message string) string {
	title := strings.Join(strings.Fields(message), " ")
	runes := []rune(title)
	if len(runes) > maxTitleLength {
		return string(runes[:maxTitleLength-3]) + "..."
	}
	return title
}
