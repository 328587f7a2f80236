package handler

import (
	"errors"
	"net/http"

	"github.com/community-hub/internal/domain"
	"github.com/community-hub/internal/transport/http/middleware"
	"go.uber.org/zap"
)

// statusFor maps a domain error to its HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrPermission):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidTransition), errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// responder is embedded by every handler that reports service errors.
type responder struct {
	log *zap.Logger
}

func newResponder(log *zap.Logger) responder {
	if log == nil {
		log = zap.NewNop()
	}
	return responder{log: log}
}

// httpError writes err with its mapped status. Unexpected errors are logged
// and replaced by a generic message.
func (rs responder) httpError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		rs.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, status, "internal server error")
		return
	}
	writeError(w, status, err.Error())
}

// actor returns the authenticated actor or writes a 401.
func actor(w http.ResponseWriter, r *http.Request) (domain.Actor, bool) {
	a, ok := middleware.ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
	}
	return a, ok
}
