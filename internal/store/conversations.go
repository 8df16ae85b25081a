package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/MikeSquared-Agency/weave/internal/llm"
	"github.com/MikeSquared-Agency/weave/internal/transcript"
)

// SaveConversation persists a transcript through the save_conversation RPC,
// which also files it as a scrap. Returns the conversation id.
func (s *Store) SaveConversation(ctx context.Context, userID uuid.UUID, t transcript.Transcript, title string) (uuid.UUID, error) {
	messages, err := json.Marshal(t)
	if err != nil {
		return uuid.Nil, fmt.Errorf("encode transcript: %w", err)
	}

	var id uuid.UUID
	err = s.pool.QueryRow(ctx, `SELECT save_conversation($1, $2::jsonb, $3)`,
		userID, string(messages), title,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("save conversation: %w", err)
	}
	return id, nil
}

// AppendChatHistory records chat turns in one round trip. scrapID may be nil.
func (s *Store) AppendChatHistory(ctx context.Context, userID uuid.UUID, scrapID *uuid.UUID, messages ...llm.Message) error {
	if len(messages) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, m := range messages {
		batch.Queue(`
			INSERT INTO chat_history (user_id, scrap_id, role, content)
			VALUES ($1, $2, $3, $4)`,
			userID, scrapID, m.Role, m.Content,
		)
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()

	for range messages {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("insert chat history: %w", err)
		}
	}
	return nil
}

// ChatHistory returns the most recent turns for a user and scrap, oldest first.
func (s *Store) ChatHistory(ctx context.Context, userID uuid.UUID, scrapID *uuid.UUID, limit int) ([]llm.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT role, content FROM (
			SELECT role, content, created_at
			FROM chat_history
			WHERE user_id = $1 AND scrap_id IS NOT DISTINCT FROM $2
			ORDER BY created_at DESC
			LIMIT $3
		) recent
		ORDER BY created_at`,
		userID, scrapID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query chat history: %w", err)
	}

	history, err := pgx.CollectRows(rows, pgx.RowToStructByPos[llm.Message])
	if err != nil {
		return nil, fmt.Errorf("scan chat history: %w", err)
	}
	return history, nil
}
