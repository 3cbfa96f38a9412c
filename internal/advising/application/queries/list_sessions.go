package queries

import (
	"context"
	"time"

	"github.com/felixgeelhaar/advising/internal/advising/application"
	"github.com/felixgeelhaar/advising/internal/advising/domain"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// View names which side of the sessions a listing shows.
type View string

const (
	ViewStudent View = "student"
	ViewAdvisor View = "advisor"
)

// ViewFor maps a role to its listing view. Staff see the sessions they
// advise.
func ViewFor(role domain.Role) View {
	if role.IsStaff() {
		return ViewAdvisor
	}
	return ViewStudent
}

// SessionCache caches a user's unpartitioned session listing. The partition
// depends on the current day, so it is applied after every read.
type SessionCache interface {
	Get(ctx context.Context, view View, userID uuid.UUID) ([]SessionDTO, bool, error)
	Set(ctx context.Context, view View, userID uuid.UUID, sessions []SessionDTO) error
}

// ListSessionsQuery lists the caller's own sessions.
type ListSessionsQuery struct {
	Caller domain.Caller
}

// ListSessionsHandler handles the ListSessionsQuery.
type ListSessionsHandler struct {
	repo   domain.SessionRepository
	cache  SessionCache
	clock  func() time.Time
	logger *zap.Logger
}

// NewListSessionsHandler creates a new ListSessionsHandler. A nil cache
// reads through to the repository every time.
func NewListSessionsHandler(repo domain.SessionRepository, cache SessionCache, clock func() time.Time, logger *zap.Logger) *ListSessionsHandler {
	if clock == nil {
		clock = time.Now
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ListSessionsHandler{repo: repo, cache: cache, clock: clock, logger: logger}
}

// Handle executes the ListSessionsQuery.
func (h *ListSessionsHandler) Handle(ctx context.Context, query ListSessionsQuery) (*SessionBuckets, error) {
	if err := application.Authenticate(query.Caller); err != nil {
		return nil, err
	}

	view := ViewFor(query.Caller.Role)
	sessions, err := h.load(ctx, view, query.Caller.ID)
	if err != nil {
		return nil, err
	}

	return Partition(sessions, domain.DateOf(h.clock())), nil
}

func (h *ListSessionsHandler) load(ctx context.Context, view View, userID uuid.UUID) ([]SessionDTO, error) {
	if h.cache != nil {
		cached, ok, err := h.cache.Get(ctx, view, userID)
		if err != nil {
			h.logger.Warn("session cache read failed", zap.Error(err))
		} else if ok {
			return cached, nil
		}
	}

	var (
		sessions []*domain.Session
		err      error
	)
	if view == ViewAdvisor {
		sessions, err = h.repo.FindByAdvisorID(ctx, userID)
	} else {
		sessions, err = h.repo.FindByStudentID(ctx, userID)
	}
	if err != nil {
		return nil, domain.StoreFailure("list sessions", err)
	}

	dtos := make([]SessionDTO, 0, len(sessions))
	for _, s := range sessions {
		dtos = append(dtos, NewSessionDTO(s))
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, view, userID, dtos); err != nil {
			h.logger.Warn("session cache write failed", zap.Error(err))
		}
	}
	return dtos, nil
}

// Partition splits sessions, given in date and start order, into upcoming
// and past. A scheduled session whose day has gone by is past.
func Partition(sessions []SessionDTO, today domain.Date) *SessionBuckets {
	buckets := &SessionBuckets{
		Upcoming: []SessionDTO{},
		Past:     []SessionDTO{},
	}
	for _, s := range sessions {
		if s.IsUpcoming(today) {
			buckets.Upcoming = append(buckets.Upcoming, s)
		} else {
			buckets.Past = append(buckets.Past, s)
		}
	}
	for i, j := 0, len(buckets.Past)-1; i < j; i, j = i+1, j-1 {
		buckets.Past[i], buckets.Past[j] = buckets.Past[j], buckets.Past[i]
	}
	return buckets
}
