// Package companion holds the conversational side of Weave: the persona that
// chats with a user about a saved scrap.
package companion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MikeSquared-Agency/weave/internal/llm"
)

// HistoryTurns is how many prior turns are replayed to the model.
const HistoryTurns = 10

const maxTokens = 1024

var ErrEmptyMessage = errors.New("message is required")

const persona = `You are Weave, a warm and curious cultural companion. You help people think about the books, films, albums, essays and artworks they save.

- Talk like a well-read friend, not a search engine. Be specific.
- Ask at most one question per reply.
- Connect what they say to other works only when the link is real.
- Keep replies under 200 words unless asked for more.`

// Scrap is the saved item a chat is anchored to. All fields are optional.
type Scrap struct {
	ID      string `json:"id,omitempty"`
	Title   string `json:"title,omitempty"`
	Type    string `json:"type,omitempty"`
	Creator string `json:"creator,omitempty"`
	Content string `json:"content,omitempty"`
}

type Request struct {
	Message string
	Scrap   *Scrap
	History []llm.Message
}

type Companion struct {
	llm    llm.Gateway
	model  string
	logger *slog.Logger
}

func New(gateway llm.Gateway, model string, logger *slog.Logger) *Companion {
	return &Companion{llm: gateway, model: model, logger: logger}
}

// Reply sends the user's message with recent history and returns the model's answer.
func (c *Companion) Reply(ctx context.Context, req Request) (string, error) {
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return "", ErrEmptyMessage
	}

	messages := recentHistory(req.History, HistoryTurns)
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: msg})

	c.logger.Debug("companion reply", "history", len(messages)-1, "has_scrap", req.Scrap != nil)

	reply, err := c.llm.Complete(ctx, llm.Request{
		Model:     c.model,
		System:    SystemPrompt(req.Scrap),
		Messages:  messages,
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("companion reply: %w", err)
	}
	return strings.TrimSpace(reply), nil
}

// SystemPrompt is the persona, plus the scrap when there is one.
func SystemPrompt(s *Scrap) string {
	if s == nil || (s.Title == "" && s.Content == "") {
		return persona
	}

	var sb strings.Builder
	sb.WriteString(persona)
	sb.WriteString("\n\nThe person is looking at this saved item:\n")
	if s.Title != "" {
		sb.WriteString("Title: " + s.Title + "\n")
	}
	if s.Type != "" {
		sb.WriteString("Type: " + s.Type + "\n")
	}
	if s.Creator != "" {
		sb.WriteString("Creator: " + s.Creator + "\n")
	}
	if s.Content != "" {
		sb.WriteString("Notes:\n" + s.Content + "\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// recentHistory keeps the last n well-formed turns. Unknown roles and blank
// turns are dropped; a leading assistant turn is dropped too since the
// Messages API wants the user to speak first.
func recentHistory(history []llm.Message, n int) []llm.Message {
	clean := make([]llm.Message, 0, len(history))
	for _, m := range history {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		if m.Role != llm.RoleUser && m.Role != llm.RoleAssistant {
			continue
		}
		clean = append(clean, m)
	}
	if len(clean) > n {
		clean = clean[len(clean)-n:]
	}
	for len(clean) > 0 && clean[0].Role == llm.RoleAssistant {
		clean = clean[1:]
	}
	return clean
}
