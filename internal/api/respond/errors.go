package respond

import (
	"errors"
	"net/http"

	"github.com/dom/kavholm-api/internal/domain"
	"github.com/dom/kavholm-api/internal/logging"
)

const (
	msgInvalidCredentials = "Invalid email/password combination"
	msgInvalidToken       = "That token is either expired or invalid."
	msgInternal           = "Internal server error"
)

// ServiceError maps domain errors onto status codes and writes the error
// envelope. Anything it does not recognise is logged and reported as a bare
// 500.
func ServiceError(w http.ResponseWriter, r *http.Request, log logging.Logger, err error) {
	var verr *domain.ValidationError

	switch {
	case errors.As(err, &verr):
		Error(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, domain.ErrValidation):
		Error(w, http.StatusBadRequest, "Invalid request")
	case errors.Is(err, domain.ErrDuplicateUsername):
		Error(w, http.StatusBadRequest, "That username is already taken.")
	case errors.Is(err, domain.ErrDuplicateEmail):
		Error(w, http.StatusBadRequest, "An account with that email already exists.")
	case errors.Is(err, domain.ErrDuplicateAccount):
		Error(w, http.StatusBadRequest, "Duplicate account.")
	case errors.Is(err, domain.ErrInvalidCredentials):
		Error(w, http.StatusUnauthorized, msgInvalidCredentials)
	case errors.Is(err, domain.ErrUnauthenticated):
		Error(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, domain.ErrForbidden):
		Error(w, http.StatusForbidden, "Forbidden")
	case errors.Is(err, domain.ErrInvalidOrExpiredToken):
		Error(w, http.StatusBadRequest, msgInvalidToken)
	case errors.Is(err, domain.ErrAccountNotFound):
		Error(w, http.StatusNotFound, "Account not found")
	default:
		log.Error(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		Error(w, http.StatusInternalServerError, msgInternal)
	}
}
