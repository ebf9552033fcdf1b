package controller

import (
	"errors"
	"net/http"
	"strings"

	"github.com/sharetube/partyqueue/internal/credential"
	"github.com/sharetube/partyqueue/internal/domain"
	"github.com/sharetube/partyqueue/pkg/wsrouter"
	"github.com/sharetube/partyqueue/pkg/ytsearch"
)

// Wire error types sent in error-message events.
const (
	ErrTypeNotFound           = "NotFound"
	ErrTypeForbidden          = "Forbidden"
	ErrTypeInvalidCredential  = "InvalidCredential"
	ErrTypeRegistrationClosed = "RegistrationClosed"
	ErrTypeCapacityExceeded   = "CapacityExceeded"
	ErrTypeInvalidName        = "InvalidName"
	ErrTypeInvalidInput       = "InvalidInput"
	ErrTypeConflict           = "Conflict"
	ErrTypeExhaustedAttempts  = "ExhaustedAttempts"
	ErrTypeRateLimited        = "RateLimited"
	ErrTypeUnavailable        = "Unavailable"
	ErrTypeInternal           = "InternalError"
)

var (
	errInternal    = errors.New("internal error")
	errRateLimited = errors.New("too many requests")
	errMissingAuth = errors.New("missing bearer token")
)

type errorKind struct {
	sentinel error
	errType  string
	status   int
}

var errorKinds = []errorKind{
	{domain.ErrRoomNotFound, ErrTypeNotFound, http.StatusNotFound},
	{domain.ErrControllerNotFound, ErrTypeNotFound, http.StatusNotFound},
	{domain.ErrInvalidCredential, ErrTypeInvalidCredential, http.StatusUnauthorized},
	{errMissingAuth, ErrTypeInvalidCredential, http.StatusUnauthorized},
	{domain.ErrForbidden, ErrTypeForbidden, http.StatusForbidden},
	{domain.ErrRegistrationClosed, ErrTypeRegistrationClosed, http.StatusForbidden},
	{domain.ErrRoomsLimitReached, ErrTypeCapacityExceeded, http.StatusServiceUnavailable},
	{domain.ErrControllersLimitReached, ErrTypeCapacityExceeded, http.StatusConflict},
	{domain.ErrQueueFull, ErrTypeCapacityExceeded, http.StatusConflict},
	{domain.ErrInvalidName, ErrTypeInvalidName, http.StatusBadRequest},
	{domain.ErrInvalidInput, ErrTypeInvalidInput, http.StatusBadRequest},
	{domain.ErrStalePlayback, ErrTypeInvalidInput, http.StatusBadRequest},
	{wsrouter.ErrInvalidPayload, ErrTypeInvalidInput, http.StatusBadRequest},
	{wsrouter.ErrMalformedMessage, ErrTypeInvalidInput, http.StatusBadRequest},
	{wsrouter.ErrUnknownType, ErrTypeInvalidInput, http.StatusBadRequest},
	{domain.ErrNameConflict, ErrTypeConflict, http.StatusConflict},
	{credential.ErrExhaustedAttempts, ErrTypeExhaustedAttempts, http.StatusServiceUnavailable},
	{errRateLimited, ErrTypeRateLimited, http.StatusTooManyRequests},
	{ytsearch.ErrNotConfigured, ErrTypeUnavailable, http.StatusServiceUnavailable},
	{ytsearch.ErrUpstream, ErrTypeUnavailable, http.StatusBadGateway},
}

type ErrorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// toErrorMessage maps err onto the wire taxonomy. The message starts at the
// matched sentinel so callers see the actionable part without wrapping noise.
func toErrorMessage(err error) (ErrorMessage, int) {
	var payloadErr *wsrouter.PayloadError
	if errors.As(err, &payloadErr) {
		return ErrorMessage{Type: ErrTypeInvalidInput, Message: payloadErr.Error()}, http.StatusBadRequest
	}

	for _, kind := range errorKinds {
		if !errors.Is(err, kind.sentinel) {
			continue
		}

		message := kind.sentinel.Error()
		if kind.errType != ErrTypeExhaustedAttempts && kind.errType != ErrTypeUnavailable {
			full := err.Error()
			if i := strings.Index(full, message); i >= 0 {
				message = full[i:]
			}
		}

		return ErrorMessage{Type: kind.errType, Message: message}, kind.status
	}

	return ErrorMessage{Type: ErrTypeInternal, Message: errInternal.Error()}, http.StatusInternalServerError
}
