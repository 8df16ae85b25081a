package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/MikeSquared-Agency/weave/internal/session"
)

type ctxKey int

const userKey ctxKey = iota

// requireUser resolves the session and rejects the request before any
// handler runs when there is none.
func (s *Server) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := session.TokenFromRequest(r, s.cookieName)
		userID, err := s.sessions.Resolve(r.Context(), token)
		if errors.Is(err, session.ErrUnauthenticated) {
			fail(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		if err != nil {
			s.logger.Error("session lookup failed", "error", err, "request_id", middleware.GetReqID(r.Context()))
			internalError(w, "Failed to verify session")
			return
		}

		ctx := context.WithValue(r.Context(), userKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userFrom(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(userKey).(uuid.UUID)
	return id
}
