// Package transcript holds the ordered chat turns that feed the extraction
// pipeline and the companion.
package transcript

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

var ErrEmptyTranscript = errors.New("transcript has no messages")

// Message is a single turn in a conversation.
type Message struct {
	Sender    Sender    `json:"sender" yaml:"sender"`
	Content   string    `json:"content" yaml:"content"`
	Timestamp time.Time `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
}

// Transcript is turn-ordered. Callers must not reorder it.
type Transcript []Message

// Validate rejects transcripts with no non-blank turns or unknown senders.
func (t Transcript) Validate() error {
	hasContent := false
	for i, m := range t {
		switch m.Sender {
		case SenderUser, SenderAssistant:
		default:
			return fmt.Errorf("message %d: unknown sender %q", i, m.Sender)
		}
		if strings.TrimSpace(m.Content) != "" {
			hasContent = true
		}
	}
	if !hasContent {
		return ErrEmptyTranscript
	}
	return nil
}

// Format renders the transcript as User:/Assistant: turns separated by a
// blank line. Blank turns are skipped.
func Format(t Transcript) string {
	var sb strings.Builder
	for _, m := range t {
		content := strings.TrimSpace(m.Content)
		if content == "" {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		switch m.Sender {
		case SenderUser:
			sb.WriteString("User: ")
		case SenderAssistant:
			sb.WriteString("Assistant: ")
		default:
			sb.WriteString(string(m.Sender) + ": ")
		}
		sb.WriteString(content)
	}
	return sb.String()
}

// Tail returns at most the last n turns without copying.
func (t Transcript) Tail(n int) Transcript {
	if n <= 0 {
		return nil
	}
	if len(t) <= n {
		return t
	}
	return t[len(t)-n:]
}

// Title derives a conversation title from the first user turn, cut to max runes.
func (t Transcript) Title(max int) string {
	for _, m := range t {
		if m.Sender != SenderUser {
			continue
		}
		text := strings.Join(strings.Fields(m.Content), " ")
		if text == "" {
			continue
		}
		return Truncate(text, max)
	}
	return "Untitled conversation"
}

// Truncate cuts s to at most max runes, marking the cut with an ellipsis.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	if max <= 3 {
		return string(runes[:max])
	}
	return strings.TrimSpace(string(runes[:max-3])) + "..."
}
