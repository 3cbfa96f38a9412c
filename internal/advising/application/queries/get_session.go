package queries

import (
	"context"

	"github.com/felixgeelhaar/advising/internal/advising/application"
	"github.com/felixgeelhaar/advising/internal/advising/domain"
	"github.com/google/uuid"
)

// GetSessionQuery fetches one session.
type GetSessionQuery struct {
	Caller    domain.Caller
	SessionID uuid.UUID
}

// GetSessionHandler handles the GetSessionQuery.
type GetSessionHandler struct {
	repo domain.SessionRepository
}

// NewGetSessionHandler creates a new GetSessionHandler.
func NewGetSessionHandler(repo domain.SessionRepository) *GetSessionHandler {
	return &GetSessionHandler{repo: repo}
}

// Handle returns the session to its participants and to administrators.
func (h *GetSessionHandler) Handle(ctx context.Context, query GetSessionQuery) (*SessionDTO, error) {
	if err := application.Authenticate(query.Caller); err != nil {
		return nil, err
	}
	if query.SessionID == uuid.Nil {
		return nil, domain.InvalidRequest("session_id")
	}

	session, err := h.repo.FindByID(ctx, query.SessionID)
	if err != nil {
		return nil, domain.StoreFailure("find session", err)
	}
	if session == nil {
		return nil, domain.ErrNotFound
	}
	if !session.CanView(query.Caller) {
		return nil, domain.ErrUnauthorized
	}

	dto := NewSessionDTO(session)
	return &dto, nil
}
