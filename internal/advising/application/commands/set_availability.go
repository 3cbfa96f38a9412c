package commands

import (
	"context"
	"time"

	"github.com/felixgeelhaar/advising/internal/advising/application"
	"github.com/felixgeelhaar/advising/internal/advising/domain"
	sharedApplication "github.com/felixgeelhaar/advising/internal/shared/application"
	"github.com/felixgeelhaar/advising/pkg/observability"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// SetAvailabilityCommand writes the availability of one scope. A nil
// AdvisorID targets the global scope.
type SetAvailabilityCommand struct {
	Caller    domain.Caller `json:"-" validate:"-"`
	AdvisorID *uuid.UUID    `json:"advisor_id,omitempty" validate:"omitempty"`
	Enabled   bool          `json:"enabled"`
}

// SetAvailabilityHandler handles the SetAvailabilityCommand.
type SetAvailabilityHandler struct {
	policies domain.PolicyRepository
	deps     Deps
}

// NewSetAvailabilityHandler creates a new SetAvailabilityHandler.
func NewSetAvailabilityHandler(policies domain.PolicyRepository, deps Deps) *SetAvailabilityHandler {
	return &SetAvailabilityHandler{policies: policies, deps: deps.withDefaults()}
}

// Handle executes the SetAvailabilityCommand. The scope's single row is
// created on first write and replaced afterwards.
func (h *SetAvailabilityHandler) Handle(ctx context.Context, cmd SetAvailabilityCommand) (policy *domain.AvailabilityPolicy, err error) {
	start := time.Now()
	scopeKey := domain.ScopeKey(cmd.AdvisorID)
	ctx, span := observability.StartSpan(ctx, "advising.set_availability",
		attribute.String("scope", scopeKey),
		attribute.Bool("enabled", cmd.Enabled),
	)
	defer func() {
		observability.EndSpan(span, err)
		h.deps.observe("set_availability", start)
		h.deps.Metrics.Counter(observability.MetricAvailabilityWrite, 1, observability.T("outcome", outcome(err, "ok")))
	}()

	if err := application.Validate(cmd); err != nil {
		return nil, err
	}
	if cmd.AdvisorID != nil && *cmd.AdvisorID == uuid.Nil {
		return nil, domain.InvalidRequest("advisor_id")
	}
	if err := application.Authenticate(cmd.Caller); err != nil {
		return nil, err
	}
	if !cmd.Caller.IsStaff() {
		return nil, domain.ErrUnauthorized
	}

	logger := observability.LoggerWithContext(ctx, h.deps.Logger).With(
		zap.String("scope", scopeKey),
		zap.Bool("enabled", cmd.Enabled),
		zap.Stringer("actor_id", cmd.Caller.ID),
	)

	err = sharedApplication.WithUnitOfWork(ctx, h.deps.UnitOfWork, func(txCtx context.Context) error {
		p, err := h.find(txCtx, cmd.AdvisorID)
		if err != nil {
			return domain.StoreFailure("find policy", err)
		}

		now := h.deps.Clock()
		if p == nil {
			p, err = domain.NewAvailabilityPolicy(cmd.AdvisorID, cmd.Enabled, cmd.Caller, now)
		} else {
			err = p.Set(cmd.Enabled, cmd.Caller, now)
		}
		if err != nil {
			return err
		}

		if err := h.policies.Save(txCtx, p); err != nil {
			return domain.StoreFailure("save policy", err)
		}
		if err := h.deps.saveEvents(txCtx, p, cmd.Caller.ID); err != nil {
			return err
		}
		policy = p
		return nil
	})
	if err != nil {
		logger.Warn("availability change failed", zap.String("kind", string(domain.KindOf(err))), zap.Error(err))
		return nil, err
	}

	logger.Info("availability changed", zap.Int("version", policy.Version()))
	return policy, nil
}

func (h *SetAvailabilityHandler) find(ctx context.Context, advisorID *uuid.UUID) (*domain.AvailabilityPolicy, error) {
	if advisorID == nil {
		return h.policies.FindGlobal(ctx)
	}
	return h.policies.FindByAdvisorID(ctx, *advisorID)
}
