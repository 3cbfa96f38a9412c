package services

import (
	"context"

	"github.com/felixgeelhaar/advising/internal/advising/domain"
	"github.com/google/uuid"
)

// AvailabilityPolicyStore resolves whether booking is open, globally or for
// one advisor.
type AvailabilityPolicyStore struct {
	repo domain.PolicyRepository
}

// NewAvailabilityPolicyStore creates a new AvailabilityPolicyStore.
func NewAvailabilityPolicyStore(repo domain.PolicyRepository) *AvailabilityPolicyStore {
	return &AvailabilityPolicyStore{repo: repo}
}

// Resolve returns the effective availability for advisorID, or the global
// value when advisorID is nil, together with the scope that decided it.
func (s *AvailabilityPolicyStore) Resolve(ctx context.Context, advisorID *uuid.UUID) (domain.Effective, error) {
	if advisorID != nil {
		p, err := s.repo.FindByAdvisorID(ctx, *advisorID)
		if err != nil {
			return domain.Effective{}, domain.StoreFailure("find advisor policy", err)
		}
		if p != nil {
			return domain.ResolveEffective(nil, p), nil
		}
	}

	global, err := s.repo.FindGlobal(ctx)
	if err != nil {
		return domain.Effective{}, domain.StoreFailure("find global policy", err)
	}
	return domain.ResolveEffective(global, nil), nil
}

// GetEffective is Resolve without the deciding scope.
func (s *AvailabilityPolicyStore) GetEffective(ctx context.Context, advisorID *uuid.UUID) (bool, error) {
	eff, err := s.Resolve(ctx, advisorID)
	if err != nil {
		return false, err
	}
	return eff.Enabled, nil
}
