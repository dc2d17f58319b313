package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"github.com/fyrsmithlabs/designd/internal/conversation"
)

// ErrNoCompletion indicates the provider returned an empty choice list.
var ErrNoCompletion = errors.New("no completion returned")

// OpenAIConfig holds configuration for the OpenAI-compatible backend.
type OpenAIConfig struct {
	// BaseURL is the API endpoint. Empty uses the provider default.
	BaseURL string

	// Model selects the chat model, e.g. "gpt-3.5-turbo".
	Model string

	// APIKey authenticates requests. Required.
	APIKey string
}

// OpenAIBackend implements Backend via langchaingo's OpenAI client. It works
// against any OpenAI-compatible endpoint (OpenAI itself, a local proxy, or a
// compatible gateway).
type OpenAIBackend struct {
	llm   *openai.LLM
	model string
}

// NewOpenAIBackend creates a backend from config.
func NewOpenAIBackend(cfg OpenAIConfig) (*OpenAIBackend, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}

	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.Model),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.BaseURL))
	}

	llm, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating openai client: %w", err)
	}

	return &OpenAIBackend{llm: llm, model: cfg.Model}, nil
}

// Complete sends one chat request and returns the first choice's text.
//
// The user seed turn maps to a human message; stage turns map to assistant
// messages prefixed with the producing role's name so later stages can
// attribute prior contributions.
func (b *OpenAIBackend) Complete(ctx context.Context, system string, turns []conversation.Turn) (string, error) {
	resp, err := b.llm.GenerateContent(ctx, buildMessages(system, turns))
	if err != nil {
		return "", &BackendError{Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &BackendError{Err: ErrNoCompletion}
	}

	return resp.Choices[0].Content, nil
}

// buildMessages converts a transcript into chat messages, leading with the
// system instruction.
func buildMessages(system string, turns []conversation.Turn) []llms.MessageContent {
	messages := make([]llms.MessageContent, 0, len(turns)+1)
	messages = append(messages, llms.TextParts(schema.ChatMessageTypeSystem, system))

	for _, turn := range turns {
		if turn.Speaker == conversation.SpeakerUser {
			messages = append(messages, llms.TextParts(schema.ChatMessageTypeHuman, turn.Content))
			continue
		}
		messages = append(messages, llms.TextParts(schema.ChatMessageTypeAI,
			fmt.Sprintf("%s: %s", turn.Speaker, turn.Content)))
	}

	return messages
}
