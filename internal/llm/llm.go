// Package llm defines the gateway contract shared by the hosted chat-completion
// clients. A gateway makes a single best-effort call per request: no retries,
// no backoff.
package llm

import "context"

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is one completion call. An empty Model means the gateway default.
type Request struct {
	Model     string
	System    string
	Messages  []Message
	MaxTokens int
}

type Gateway interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// GatewayFunc adapts a plain function to the Gateway interface.
type GatewayFunc func(ctx context.Context, req Request) (string, error)

func (f GatewayFunc) Complete(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}
