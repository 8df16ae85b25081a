// Package openai is a Gateway backed by an OpenAI-compatible chat completion API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/MikeSquared-Agency/weave/internal/llm"
)

var ErrNoChoices = errors.New("no completion choices returned")

type Client struct {
	client *goopenai.Client
	model  string
}

func NewClient(apiKey, model string) *Client {
	return &Client{client: goopenai.NewClient(apiKey), model: model}
}

// NewClientWithBaseURL targets a self-hosted or test endpoint.
func NewClientWithBaseURL(apiKey, model, baseURL string) *Client {
	cfg := goopenai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &Client{client: goopenai.NewClientWithConfig(cfg), model: model}
}

// Complete implements llm.Gateway. Claude model ids are swapped for the
// configured model so callers can stay provider agnostic.
func (c *Client) Complete(ctx context.Context, in llm.Request) (string, error) {
	model := in.Model
	if model == "" || strings.HasPrefix(model, "claude-") {
		model = c.model
	}

	messages := make([]goopenai.ChatCompletionMessage, 0, len(in.Messages)+1)
	if in.System != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: in.System,
		})
	}
	for _, m := range in.Messages {
		role := goopenai.ChatMessageRoleUser
		if m.Role == llm.RoleAssistant {
			role = goopenai.ChatMessageRoleAssistant
		}
		messages = append(messages, goopenai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	resp, err := c.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:     model,
		Messages:  messages,
		MaxTokens: in.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoices
	}

	return resp.Choices[0].Message.Content, nil
}
