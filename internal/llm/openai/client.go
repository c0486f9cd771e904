// Package openai implements llm.Client on the OpenAI Chat Completions API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"persona-review/internal/llm"
	"persona-review/internal/shared/telemetry"
)

const defaultTimeout = 120 * time.Second

// Config is everything the client needs; nothing is read from the environment.
type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Client implements llm.Client using OpenAI Chat Completions.
type Client struct {
	api   sdk.Client
	model string
}

// NewClient validates cfg and builds a client. SDK retries are disabled.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("OPENAI_API_KEY is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("LLM_MODEL is required for OpenAI")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
		option.WithRequestTimeout(timeout),
	}
	if base := strings.TrimSpace(cfg.BaseURL); base != "" {
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}
		opts = append(opts, option.WithBaseURL(base))
	}

	return &Client{api: sdk.NewClient(opts...), model: cfg.Model}, nil
}

// Model returns the configured default model.
func (c *Client) Model() string {
	return c.model
}

// Complete sends messages and returns the first choice's content. params.Model
// overrides the configured model when set.
func (c *Client) Complete(ctx context.Context, messages []llm.Message, params llm.Params) (string, error) {
	model := c.model
	if strings.TrimSpace(params.Model) != "" {
		model = params.Model
	}

	req := sdk.ChatCompletionNewParams{
		Model:    sdk.ChatModel(model),
		Messages: toSDKMessages(messages),
	}
	if params.Temperature != nil {
		req.Temperature = sdk.Float(*params.Temperature)
	}
	if params.MaxTokens > 0 {
		req.MaxTokens = sdk.Int(int64(params.MaxTokens))
	}

	start := time.Now()
	resp, err := c.api.Chat.Completions.New(ctx, req)
	if err != nil {
		telemetry.Error("llm.complete.error", map[string]any{
			"model":       model,
			"duration_ms": time.Since(start).Milliseconds(),
			"error":       err.Error(),
		})
		return "", fmt.Errorf("%w: %w", llm.ErrCompletion, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: response missing choices", llm.ErrCompletion)
	}
	content := resp.Choices[0].Message.Content
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: response empty content", llm.ErrCompletion)
	}

	telemetry.Info("llm.complete", map[string]any{
		"model":             model,
		"duration_ms":       time.Since(start).Milliseconds(),
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
	})
	return content, nil
}

func toSDKMessages(messages []llm.Message) []sdk.ChatCompletionMessageParamUnion {
	out := make([]sdk.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case llm.RoleSystem:
			out = append(out, sdk.SystemMessage(m.Content))
		case llm.RoleAssistant:
			out = append(out, sdk.AssistantMessage(m.Content))
		default:
			out = append(out, sdk.UserMessage(m.Content))
		}
	}
	return out
}

var _ llm.Client = (*Client)(nil)
