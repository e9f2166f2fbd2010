// Google Gemini Provider implementation using official google.golang.org/genai SDK.
//
// Information Hiding:
// - API authentication and client creation
// - Conversational state held in a genai chat session
// - System instruction handling via session config
// - Streaming via official SDK iterator
//
// Session state machine:
//
//	uninitialized --Chat--> active   (primed with history minus the final turn)
//	active --Chat (same conversation)--> active
//	active --Chat (different history/system/params)--> uninitialized --> active
//	active --AnalyzeDocument/Summarize--> uninitialized
//
// Document tasks run on a throwaway session and leave the adapter
// uninitialized, so they never see or extend chat history.

package llm

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"
)

// chatSession is the part of *genai.Chat the provider relies on.
type chatSession interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
	SendMessageStream(ctx context.Context, parts ...genai.Part) iter.Seq2[*genai.GenerateContentResponse, error]
}

// sessionStarter opens a chat session primed with history.
type sessionStarter func(ctx context.Context, history []*genai.Content, config *genai.GenerateContentConfig) (chatSession, error)

// GeminiProvider implements the Provider interface for Google Gemini.
// It is the only stateful provider: session transitions are serialized by mu.
type GeminiProvider struct {
	model   string
	timeout time.Duration
	initErr error // Stores client initialization error for deferred reporting
	start   sessionStarter

	mu         sync.Mutex
	session    chatSession // nil while uninitialized
	system     string
	params     ChatParameters
	transcript []ChatMessage // turns the session has seen, excluding system
	resets     int
}

// NewGeminiProvider creates a new Gemini provider.
// If client initialization fails, the error is stored and returned on first use.
func NewGeminiProvider(apiKey, model string, timeout time.Duration) *GeminiProvider {
	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		// Store initialization error to return on first use - preserves constructor signature
		return newGeminiProvider(model, timeout, nil, &ProviderError{
			Kind:     KindAuth,
			Provider: ProviderGemini,
			Message:  "failed to initialize Gemini client: " + err.Error(),
			wrapped:  err,
		})
	}

	return newGeminiProvider(model, timeout, func(ctx context.Context, history []*genai.Content, config *genai.GenerateContentConfig) (chatSession, error) {
		return client.Chats.Create(ctx, model, config, history)
	}, nil)
}

func newGeminiProvider(model string, timeout time.Duration, start sessionStarter, initErr error) *GeminiProvider {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &GeminiProvider{
		model:   model,
		timeout: timeout,
		start:   start,
		initErr: initErr,
	}
}

// Name returns the provider name.
func (p *GeminiProvider) Name() ProviderType {
	return ProviderGemini
}

// Model returns the current model.
func (p *GeminiProvider) Model() string {
	return p.model
}

// Chat continues the current session when messages extend it, otherwise it
// starts a new session primed with every turn but the last.
func (p *GeminiProvider) Chat(ctx context.Context, messages []ChatMessage, params ChatParameters) (string, error) {
	if p.initErr != nil {
		return "", p.initErr
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ctx, cancel := callContext(ctx, p.timeout)
	defer cancel()

	session, last, err := p.prepareLocked(ctx, messages, params.withDefaults())
	if err != nil {
		return "", err
	}

	text, err := p.send(ctx, session, last)
	if err != nil {
		// The session may have recorded the failed turn.
		p.resetLocked()
		return "", err
	}

	p.transcript = append(p.transcript, UserMessage(last), AssistantMessage(text))
	return text, nil
}

// StreamChat streams a reply within the current session. The session stays
// locked until the stream ends or is closed.
func (p *GeminiProvider) StreamChat(ctx context.Context, messages []ChatMessage, params ChatParameters) (*Stream, error) {
	if p.initErr != nil {
		return nil, p.initErr
	}

	p.mu.Lock()
	session, last, err := p.prepareLocked(ctx, messages, params.withDefaults())
	if err != nil {
		p.mu.Unlock()
		return nil, err
	}

	return newStream(ctx, ProviderGemini, p.timeout, "chat stream", geminiStatus, func(ctx context.Context, emit EmitFunc) error {
		defer p.mu.Unlock()

		reply, err := streamReply(ctx, session, last, emit)
		if err != nil {
			p.resetLocked()
			return err
		}

		p.transcript = append(p.transcript, UserMessage(last), AssistantMessage(reply))
		return nil
	}), nil
}

// streamReply emits each chunk of the reply to text and returns the whole
// reply. The stream must end with a chunk carrying a finish reason.
func streamReply(ctx context.Context, session chatSession, text string, emit EmitFunc) (string, error) {
	var reply strings.Builder
	finished := false
	for response, err := range session.SendMessageStream(ctx, genai.Part{Text: text}) {
		if err != nil {
			return "", err
		}
		if len(response.Candidates) > 0 {
			reason := response.Candidates[0].FinishReason
			if reason != "" && reason != genai.FinishReasonUnspecified {
				finished = true
			}
		}
		chunk := response.Text()
		reply.WriteString(chunk)
		if err := emit(chunk); err != nil {
			return "", err
		}
	}

	if !finished {
		return "", malformed(ProviderGemini, "stream ended before a finish reason was received")
	}
	return reply.String(), nil
}

// AnalyzeDocument analyzes a document on a fresh session.
func (p *GeminiProvider) AnalyzeDocument(ctx context.Context, text, prompt string) (string, error) {
	messages, params := analysisRequest("", text, prompt)
	return p.runTask(ctx, messages, params)
}

// Summarize summarizes text on a fresh session.
func (p *GeminiProvider) Summarize(ctx context.Context, text string, maxLength int) (string, error) {
	messages, params := summaryRequest("", text, maxLength)
	return p.runTask(ctx, messages, params)
}

// runTask resets the chat session and runs a single-turn request on a
// throwaway session.
func (p *GeminiProvider) runTask(ctx context.Context, messages []ChatMessage, params ChatParameters) (string, error) {
	if p.initErr != nil {
		return "", p.initErr
	}
	if err := ValidateMessages(messages); err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.resetLocked()

	ctx, cancel := callContext(ctx, p.timeout)
	defer cancel()

	system, turns := splitSystem(messages)
	last := turns[len(turns)-1].Content

	session, err := p.start(ctx, convertToGeminiMessages(turns[:len(turns)-1]), geminiConfig(system, params))
	if err != nil {
		return "", normalizeError(ctx, ProviderGemini, "session start", err, geminiStatus)
	}
	return p.send(ctx, session, last)
}

// prepareLocked returns the session to use for messages and the text of the
// final user turn. Caller must hold mu.
func (p *GeminiProvider) prepareLocked(ctx context.Context, messages []ChatMessage, params ChatParameters) (chatSession, string, error) {
	if err := ValidateMessages(messages); err != nil {
		return nil, "", err
	}

	system, turns := splitSystem(messages)
	if len(turns) == 0 || turns[len(turns)-1].Role != RoleUser {
		return nil, "", fmt.Errorf("%w: final turn must be a user message", ErrInvalidMessages)
	}
	prior, last := turns[:len(turns)-1], turns[len(turns)-1].Content

	if p.session != nil && (system != p.system || params != p.params || !slices.Equal(prior, p.transcript)) {
		p.resetLocked()
	}

	if p.session == nil {
		session, err := p.start(ctx, convertToGeminiMessages(prior), geminiConfig(system, params))
		if err != nil {
			return nil, "", normalizeError(ctx, ProviderGemini, "session start", err, geminiStatus)
		}
		p.session = session
		p.system = system
		p.params = params
		p.transcript = slices.Clone(prior)
	}

	return p.session, last, nil
}

// resetLocked drops the chat session. Caller must hold mu.
func (p *GeminiProvider) resetLocked() {
	if p.session == nil {
		return
	}
	p.session = nil
	p.system = ""
	p.params = ChatParameters{}
	p.transcript = nil
	p.resets++
}

func (p *GeminiProvider) send(ctx context.Context, session chatSession, text string) (string, error) {
	response, err := session.SendMessage(ctx, genai.Part{Text: text})
	if err != nil {
		return "", normalizeError(ctx, ProviderGemini, "send message", err, geminiStatus)
	}

	content := response.Text()
	if content == "" {
		return "", malformed(ProviderGemini, "empty response from Gemini")
	}
	return content, nil
}

func geminiConfig(system string, params ChatParameters) *genai.GenerateContentConfig {
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(params.Temperature),
		MaxOutputTokens: int32(params.MaxTokens),
	}

	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	return config
}

// convertToGeminiMessages converts conversational turns to Gemini contents.
// System messages are expected to be split off beforehand.
func convertToGeminiMessages(messages []ChatMessage) []*genai.Content {
	contents := make([]*genai.Content, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleUser:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		case RoleAssistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		}
	}
	return contents
}

func geminiStatus(err error) int {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}

// Verify GeminiProvider implements Provider
var _ Provider = (*GeminiProvider)(nil)
