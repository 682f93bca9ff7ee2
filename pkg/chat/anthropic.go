package chat

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
)

// DefaultAnthropicModel is used when no model is configured
const DefaultAnthropicModel = "claude-sonnet-4-20250514"

// Anthropic streams completions from the Anthropic messages API
type Anthropic struct {
	client *anthropic.LLM
	model  string
}

// NewAnthropic creates a provider for apiKey
func NewAnthropic(apiKey, model string) (*Anthropic, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic: %w", ErrNoProvider)
	}
	if model == "" {
		model = DefaultAnthropicModel
	}
	client, err := anthropic.New(anthropic.WithToken(apiKey), anthropic.WithModel(model))
	if err != nil {
		return nil, fmt.Errorf("anthropic client: %w", err)
	}
	return &Anthropic{client: client, model: model}, nil
}

// Name returns "anthropic"
func (a *Anthropic) Name() string { return "anthropic" }

// Stream sends the conversation with system as the system prompt
func (a *Anthropic) Stream(ctx context.Context, system string, messages []Message, maxTokens int, onDelta func(string) error) error {
	content := make([]llms.MessageContent, 0, len(messages)+1)
	content = append(content, llms.TextParts(llms.ChatMessageTypeSystem, system))
	for _, m := range messages {
		role := llms.ChatMessageTypeHuman
		if m.Role == RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		content = append(content, llms.TextParts(role, m.Content))
	}

	_, err := a.client.GenerateContent(ctx, content,
		llms.WithModel(a.model),
		llms.WithMaxTokens(maxTokens),
		llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			return onDelta(string(chunk))
		}),
	)
	if err != nil {
		return fmt.Errorf("anthropic stream: %w", err)
	}
	return nil
}
