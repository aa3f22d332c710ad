package domain

import "context"

// Chat roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string
	Content string
}

// Generator produces a reply from a system prompt and the conversation so far.
type Generator interface {
	Generate(ctx context.Context, system string, history []Message) (string, error)
}
