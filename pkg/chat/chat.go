// Package chat streams assistant answers about the loaded graph.
package chat

import (
	"context"
	"errors"
	"strings"
)

var (
	// ErrNoProvider is returned when no assistant provider is configured
	ErrNoProvider = errors.New("no chat provider configured")
	// ErrNoMessages is returned for requests without messages
	ErrNoMessages = errors.New("no messages provided")
)

// Role is the author of a message
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the conversation
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is a chat request from the viewer. SelectedNode is the id of the
// node selected when the question was asked.
type Request struct {
	Messages     []Message `json:"messages"`
	SelectedNode string    `json:"selectedNode,omitempty"`
}

// Validate checks that the request carries at least one non-empty message
func (r Request) Validate() error {
	for _, m := range r.Messages {
		if strings.TrimSpace(m.Content) != "" {
			return nil
		}
	}
	return ErrNoMessages
}

// Provider streams a completion. onDelta receives text chunks in order; an
// error from onDelta aborts the stream.
type Provider interface {
	Name() string
	Stream(ctx context.Context, system string, messages []Message, maxTokens int, onDelta func(string) error) error
}
