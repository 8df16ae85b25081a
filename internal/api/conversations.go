package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/weave/internal/hermes"
	"github.com/MikeSquared-Agency/weave/internal/transcript"
)

const (
	maxTitleRunes     = 200
	derivedTitleRunes = 60
)

type saveConversationRequest struct {
	Messages    transcript.Transcript `json:"messages"`
	CustomTitle string                `json:"customTitle"`
}

type saveConversationResponse struct {
	Success        bool      `json:"success"`
	ConversationID uuid.UUID `json:"conversationId"`
	Title          string    `json:"title"`
}

func (s *Server) saveConversation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := userFrom(ctx)
	log := s.logger.With("route", "save-conversation", "request_id", middleware.GetReqID(ctx))

	var req saveConversationRequest
	if err := decodeBody(w, r, &req, false); err != nil {
		badRequest(w, "Invalid request body")
		return
	}
	if err := req.Messages.Validate(); err != nil {
		badRequest(w, "Messages are required")
		return
	}

	title := strings.TrimSpace(req.CustomTitle)
	if title == "" {
		title = req.Messages.Title(derivedTitleRunes)
	}
	title = transcript.Truncate(title, maxTitleRunes)

	id, err := s.store.SaveConversation(ctx, userID, req.Messages, title)
	if err != nil {
		log.Error("failed to save conversation", "error", err)
		internalError(w, "Failed to save conversation")
		return
	}

	s.events.Emit(hermes.ConversationSaved{
		UserID:         userID,
		ConversationID: id,
		Title:          title,
		MessageCount:   len(req.Messages),
		Timestamp:      time.Now().UTC(),
	})

	log.Info("conversation saved", "conversation_id", id, "messages", len(req.Messages))
	writeJSON(w, http.StatusOK, saveConversationResponse{Success: true, ConversationID: id, Title: title})
}
