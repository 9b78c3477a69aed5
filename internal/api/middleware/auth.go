package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/dom/kavholm-api/internal/api/respond"
	"github.com/dom/kavholm-api/internal/domain"
	"github.com/dom/kavholm-api/internal/logging"
)

type contextKey string

const (
	SessionKey contextKey = "session"
)

// Authenticator verifies a session envelope.
type Authenticator interface {
	Authenticate(token string) (domain.SessionClaims, error)
}

// Auth rejects requests without a valid Bearer session envelope and stores the
// verified claims on the request context.
func Auth(authenticator Authenticator, log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r.Header.Get("Authorization"))
			if !ok {
				log.Warn(r.Context(), "missing or malformed authorization header")
				respond.Error(w, http.StatusUnauthorized, "Authorization header required")
				return
			}

			claims, err := authenticator.Authenticate(token)
			if err != nil {
				log.Warn(r.Context(), "session verification failed")
				respond.Error(w, http.StatusUnauthorized, "Invalid or expired session")
				return
			}

			ctx := context.WithValue(r.Context(), SessionKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin must run after Auth.
func RequireAdmin(log logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := GetSession(r.Context())
			if !ok {
				respond.ServiceError(w, r, log, domain.ErrUnauthenticated)
				return
			}
			if !claims.IsAdmin {
				log.Warn(r.Context(), "admin route refused", "username", claims.Username)
				respond.ServiceError(w, r, log, domain.ErrForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func GetSession(ctx context.Context) (domain.SessionClaims, bool) {
	claims, ok := ctx.Value(SessionKey).(domain.SessionClaims)
	if !ok || claims.IsZero() {
		return domain.SessionClaims{}, false
	}
	return claims, true
}

func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
