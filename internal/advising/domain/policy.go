package domain

import (
	"time"

	sharedDomain "github.com/felixgeelhaar/advising/internal/shared/domain"
	"github.com/google/uuid"
)

// Scope says whom an availability policy applies to.
type Scope string

const (
	ScopeGlobal  Scope = "global"
	ScopeAdvisor Scope = "advisor"
	// ScopeDefault marks a resolution that found no policy at all.
	ScopeDefault Scope = "default"
)

// ScopeKey is the unique storage key of a scope: "global" or
// "advisor:<uuid>".
func ScopeKey(advisorID *uuid.UUID) string {
	if advisorID == nil {
		return string(ScopeGlobal)
	}
	return string(ScopeAdvisor) + ":" + advisorID.String()
}

// AvailabilityPolicy is the single current availability setting of one
// scope. Writes replace it in place and bump its version.
type AvailabilityPolicy struct {
	sharedDomain.BaseAggregateRoot
	scope     Scope
	advisorID *uuid.UUID
	enabled   bool
	updatedBy uuid.UUID
}

// NewAvailabilityPolicy creates the policy for a scope; a nil advisorID
// selects the global scope. Only staff may write availability.
func NewAvailabilityPolicy(advisorID *uuid.UUID, enabled bool, actor Caller, now time.Time) (*AvailabilityPolicy, error) {
	if !actor.IsStaff() {
		return nil, ErrUnauthorized
	}
	if advisorID != nil && *advisorID == uuid.Nil {
		return nil, InvalidRequest("advisor_id")
	}

	scope := ScopeGlobal
	if advisorID != nil {
		id := *advisorID
		advisorID = &id
		scope = ScopeAdvisor
	}

	p := &AvailabilityPolicy{
		BaseAggregateRoot: sharedDomain.NewBaseAggregateRoot(now),
		scope:             scope,
		advisorID:         advisorID,
		enabled:           enabled,
		updatedBy:         actor.ID,
	}
	p.Record(NewAvailabilityChanged(p))
	return p, nil
}

// Set records a new value for the scope. Rewriting the current value still
// counts as a write so the latest writer is on record.
func (p *AvailabilityPolicy) Set(enabled bool, actor Caller, now time.Time) error {
	if !actor.IsStaff() {
		return ErrUnauthorized
	}
	p.enabled = enabled
	p.updatedBy = actor.ID
	p.Touch(now)
	p.Record(NewAvailabilityChanged(p))
	return nil
}

func (p *AvailabilityPolicy) Scope() Scope          { return p.scope }
func (p *AvailabilityPolicy) AdvisorID() *uuid.UUID { return p.advisorID }
func (p *AvailabilityPolicy) Enabled() bool         { return p.enabled }
func (p *AvailabilityPolicy) UpdatedBy() uuid.UUID  { return p.updatedBy }
func (p *AvailabilityPolicy) ScopeKey() string      { return ScopeKey(p.advisorID) }

// PolicySnapshot is the persisted form of an AvailabilityPolicy.
type PolicySnapshot struct {
	ID        uuid.UUID
	Scope     Scope
	AdvisorID *uuid.UUID
	Enabled   bool
	UpdatedBy uuid.UUID
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RehydrateAvailabilityPolicy recreates a policy from persisted state.
func RehydrateAvailabilityPolicy(snap PolicySnapshot) *AvailabilityPolicy {
	return &AvailabilityPolicy{
		BaseAggregateRoot: sharedDomain.RehydrateBaseAggregateRoot(snap.ID, snap.CreatedAt, snap.UpdatedAt, snap.Version),
		scope:             snap.Scope,
		advisorID:         snap.AdvisorID,
		enabled:           snap.Enabled,
		updatedBy:         snap.UpdatedBy,
	}
}

// Effective is a resolved availability value and the scope that decided it.
type Effective struct {
	Enabled   bool
	DecidedBy Scope
	// Policy is the deciding row, nil when DecidedBy is ScopeDefault.
	Policy *AvailabilityPolicy
}

// ResolveEffective applies the fallback order: the advisor's own policy,
// then the global policy, then open by default.
func ResolveEffective(global, advisor *AvailabilityPolicy) Effective {
	switch {
	case advisor != nil:
		return Effective{Enabled: advisor.Enabled(), DecidedBy: ScopeAdvisor, Policy: advisor}
	case global != nil:
		return Effective{Enabled: global.Enabled(), DecidedBy: ScopeGlobal, Policy: global}
	default:
		return Effective{Enabled: true, DecidedBy: ScopeDefault}
	}
}
