package api

import (
	"errors"
	"net/http"

	"github.com/felixgeelhaar/advising/internal/advising/domain"
)

// Transport-level kinds that never come out of the booking engine.
const (
	KindUnauthenticated = "UNAUTHENTICATED"
	KindBadRequest      = "BAD_REQUEST"
)

// ErrorBody is the error envelope of every failed request.
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail names the failure kind and carries a human-readable message.
type ErrorDetail struct {
	Kind    string `json:"kind"`
	Message string `json:"message"`
}

var statusByKind = map[domain.Kind]int{
	domain.KindUnauthorized:       http.StatusForbidden,
	domain.KindBookingDisabled:    http.StatusConflict,
	domain.KindAdvisorUnavailable: http.StatusConflict,
	domain.KindSlotTaken:          http.StatusConflict,
	domain.KindInvalidTransition:  http.StatusConflict,
	domain.KindConcurrentUpdate:   http.StatusConflict,
	domain.KindInvalidSlot:        http.StatusUnprocessableEntity,
	domain.KindMissingReason:      http.StatusUnprocessableEntity,
	domain.KindInvalidRequest:     http.StatusUnprocessableEntity,
	domain.KindNotFound:           http.StatusNotFound,
	domain.KindStoreFailure:       http.StatusInternalServerError,
}

// StatusFor maps an engine error to its HTTP status.
func StatusFor(err error) int {
	if status, ok := statusByKind[domain.KindOf(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// writeDomainError writes err as an error envelope. Store failures hide
// the driver message.
func writeDomainError(w http.ResponseWriter, err error) {
	kind := domain.KindOf(err)
	message := err.Error()
	if kind == domain.KindStoreFailure {
		message = "internal error"
	}
	writeError(w, StatusFor(err), string(kind), message)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, kind, message string) {
	writeJSON(w, status, ErrorBody{Error: ErrorDetail{Kind: kind, Message: message}})
}

// errBodyTooLarge is reported when a request body exceeds maxBodyBytes.
var errBodyTooLarge = errors.New("request body too large")
