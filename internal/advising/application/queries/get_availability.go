package queries

import (
	"context"

	"github.com/felixgeelhaar/advising/internal/advising/application"
	"github.com/felixgeelhaar/advising/internal/advising/application/services"
	"github.com/felixgeelhaar/advising/internal/advising/domain"
	"github.com/google/uuid"
)

// GetAvailabilityQuery resolves availability for an advisor, or globally
// when AdvisorID is nil. Any role may ask.
type GetAvailabilityQuery struct {
	Caller    domain.Caller
	AdvisorID *uuid.UUID
}

// GetAvailabilityHandler handles the GetAvailabilityQuery.
type GetAvailabilityHandler struct {
	store *services.AvailabilityPolicyStore
}

// NewGetAvailabilityHandler creates a new GetAvailabilityHandler.
func NewGetAvailabilityHandler(store *services.AvailabilityPolicyStore) *GetAvailabilityHandler {
	return &GetAvailabilityHandler{store: store}
}

// Handle executes the GetAvailabilityQuery.
func (h *GetAvailabilityHandler) Handle(ctx context.Context, query GetAvailabilityQuery) (*AvailabilityDTO, error) {
	if err := application.Authenticate(query.Caller); err != nil {
		return nil, err
	}
	if query.AdvisorID != nil && *query.AdvisorID == uuid.Nil {
		return nil, domain.InvalidRequest("advisor_id")
	}

	eff, err := h.store.Resolve(ctx, query.AdvisorID)
	if err != nil {
		return nil, err
	}
	dto := NewAvailabilityDTO(query.AdvisorID, eff)
	return &dto, nil
}
