// Package llm defines the completion contract used by the orchestrators.
package llm

import (
	"context"
	"errors"
)

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one entry of the ordered prompt sent to the model.
type Message struct {
	Role    Role
	Content string
}

// Params are the generation parameters for a single completion.
// A nil Temperature leaves the provider default in place.
type Params struct {
	Model       string
	Temperature *float64
	MaxTokens   int
}

// Temperature returns a Params-ready pointer to t.
func Temperature(t float64) *float64 { return &t }

// ErrCompletion wraps every failure of the remote completion call.
var ErrCompletion = errors.New("completion failed")

// Client produces the text of the first choice for an ordered message list.
type Client interface {
	Complete(ctx context.Context, messages []Message, params Params) (string, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, messages []Message, params Params) (string, error)

func (f ClientFunc) Complete(ctx context.Context, messages []Message, params Params) (string, error) {
	return f(ctx, messages, params)
}

// System, User and Assistant build messages of the matching role.
func System(content string) Message    { return Message{Role: RoleSystem, Content: content} }
func User(content string) Message      { return Message{Role: RoleUser, Content: content} }
func Assistant(content string) Message { return Message{Role: RoleAssistant, Content: content} }
