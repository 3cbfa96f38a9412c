package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/felixgeelhaar/advising/internal/advising/application/commands"
	"github.com/felixgeelhaar/advising/internal/advising/application/queries"
	"github.com/felixgeelhaar/advising/internal/advising/domain"
	"github.com/felixgeelhaar/advising/pkg/observability"
)

// maxBodyBytes bounds request bodies; notes are the largest field.
const maxBodyBytes = 64 << 10

// SessionHandler handles the advising API requests.
type SessionHandler struct {
	book            *commands.BookSessionHandler
	cancel          *commands.CancelSessionHandler
	complete        *commands.CompleteSessionHandler
	annotate        *commands.AnnotateSessionHandler
	setAvailability *commands.SetAvailabilityHandler
	listSessions    *queries.ListSessionsHandler
	getSession      *queries.GetSessionHandler
	getAvailability *queries.GetAvailabilityHandler
	logger          *zap.Logger
}

// SessionHandlerConfig holds dependencies for the session handler.
type SessionHandlerConfig struct {
	Book            *commands.BookSessionHandler
	Cancel          *commands.CancelSessionHandler
	Complete        *commands.CompleteSessionHandler
	Annotate        *commands.AnnotateSessionHandler
	SetAvailability *commands.SetAvailabilityHandler
	ListSessions    *queries.ListSessionsHandler
	GetSession      *queries.GetSessionHandler
	GetAvailability *queries.GetAvailabilityHandler
	Logger          *zap.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(cfg SessionHandlerConfig) *SessionHandler {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &SessionHandler{
		book:            cfg.Book,
		cancel:          cfg.Cancel,
		complete:        cfg.Complete,
		annotate:        cfg.Annotate,
		setAvailability: cfg.SetAvailability,
		listSessions:    cfg.ListSessions,
		getSession:      cfg.GetSession,
		getAvailability: cfg.GetAvailability,
		logger:          cfg.Logger,
	}
}

// BookSession handles POST /api/v1/sessions. A missing student_id books
// for the caller.
func (h *SessionHandler) BookSession(w http.ResponseWriter, r *http.Request) {
	caller := mustCaller(r)

	var cmd commands.BookSessionCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	cmd.Caller = caller
	if cmd.StudentID == uuid.Nil {
		cmd.StudentID = caller.ID
	}

	session, err := h.book.Handle(r.Context(), cmd)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, queries.NewSessionDTO(session))
}

// ListSessions handles GET /api/v1/sessions.
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.listSessions.Handle(r.Context(), queries.ListSessionsQuery{Caller: mustCaller(r)})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, buckets)
}

// GetSession handles GET /api/v1/sessions/{sessionID}.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathID(w, r)
	if !ok {
		return
	}

	session, err := h.getSession.Handle(r.Context(), queries.GetSessionQuery{
		Caller:    mustCaller(r),
		SessionID: sessionID,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// CancelSession handles POST /api/v1/sessions/{sessionID}/cancel.
func (h *SessionHandler) CancelSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req cancelRequest
	if !h.decode(w, r, &req) {
		return
	}

	session, err := h.cancel.Handle(r.Context(), commands.CancelSessionCommand{
		Caller:    mustCaller(r),
		SessionID: sessionID,
		Reason:    req.Reason,
	})
	h.writeSession(w, r, session, err)
}

type notesRequest struct {
	Notes string `json:"notes"`
}

// CompleteSession handles POST /api/v1/sessions/{sessionID}/complete.
func (h *SessionHandler) CompleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req notesRequest
	if !h.decode(w, r, &req) {
		return
	}

	session, err := h.complete.Handle(r.Context(), commands.CompleteSessionCommand{
		Caller:    mustCaller(r),
		SessionID: sessionID,
		Notes:     req.Notes,
	})
	h.writeSession(w, r, session, err)
}

// AnnotateSession handles POST /api/v1/sessions/{sessionID}/annotate.
func (h *SessionHandler) AnnotateSession(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := pathID(w, r)
	if !ok {
		return
	}
	var req notesRequest
	if !h.decode(w, r, &req) {
		return
	}

	session, err := h.annotate.Handle(r.Context(), commands.AnnotateSessionCommand{
		Caller:    mustCaller(r),
		SessionID: sessionID,
		Notes:     req.Notes,
	})
	h.writeSession(w, r, session, err)
}

// GetAvailability handles GET /api/v1/availability[?advisor_id=...].
func (h *SessionHandler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	var advisorID *uuid.UUID
	if raw := r.URL.Query().Get("advisor_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			writeDomainError(w, domain.InvalidRequest("advisor_id"))
			return
		}
		advisorID = &id
	}

	result, err := h.getAvailability.Handle(r.Context(), queries.GetAvailabilityQuery{
		Caller:    mustCaller(r),
		AdvisorID: advisorID,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// SetAvailability handles PUT /api/v1/availability. The response is the
// resolved availability of the scope that was written.
func (h *SessionHandler) SetAvailability(w http.ResponseWriter, r *http.Request) {
	var cmd commands.SetAvailabilityCommand
	if !h.decode(w, r, &cmd) {
		return
	}
	cmd.Caller = mustCaller(r)

	policy, err := h.setAvailability.Handle(r.Context(), cmd)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	effective := domain.Effective{Enabled: policy.Enabled(), DecidedBy: policy.Scope(), Policy: policy}
	writeJSON(w, http.StatusOK, queries.NewAvailabilityDTO(policy.AdvisorID(), effective))
}

// ListSlots handles GET /api/v1/slots.
func (h *SessionHandler) ListSlots(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"slots": queries.ListSlots()})
}

func (h *SessionHandler) writeSession(w http.ResponseWriter, r *http.Request, session *domain.Session, err error) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, queries.NewSessionDTO(session))
}

// fail writes err and logs store failures, which are the only ones the
// client cannot fix.
func (h *SessionHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if domain.KindOf(err) == domain.KindStoreFailure {
		observability.LoggerWithContext(r.Context(), h.logger).Error("request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeDomainError(w, err)
}

// decode reads a JSON body into v. An empty body leaves v untouched.
func (h *SessionHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, KindBadRequest, errBodyTooLarge.Error())
		return false
	}
	writeError(w, http.StatusBadRequest, KindBadRequest, fmt.Sprintf("invalid JSON body: %v", err))
	return false
}

func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("sessionID"))
	if err != nil {
		writeDomainError(w, domain.InvalidRequest("session_id"))
		return uuid.Nil, false
	}
	return id, true
}

// mustCaller returns the caller stored by the auth middleware. Routes
// registered without it get a zero caller, which the engine rejects.
func mustCaller(r *http.Request) domain.Caller {
	caller, _ := CallerFromContext(r.Context())
	return caller
}
