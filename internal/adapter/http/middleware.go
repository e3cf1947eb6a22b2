package adapthttp

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"sucrelinda/internal/domain"
)

type contextKey string

const accountContextKey contextKey = "account"

// AccountFromContext returns the principal attached by requireAuth.
func AccountFromContext(ctx context.Context) (*domain.Account, bool) {
	account, ok := ctx.Value(accountContextKey).(*domain.Account)
	return account, ok
}

// bearerToken extracts the token from a "Bearer <token>" authorization
// header, or returns "" when the header is missing or malformed.
func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	h := r.Header.Get("Authorization")
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

// requireAuth gates a request on a valid bearer token. The token only
// establishes identity; the account is re-fetched so deletion rejects with
// 401 and deactivation with 403, regardless of what the token claims.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok := bearerToken(r)
		if tok == "" {
			writeError(w, http.StatusUnauthorized, "unauthenticated")
			return
		}

		account, err := s.auth.Resolve(r.Context(), tok)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrInvalidToken):
				writeError(w, http.StatusUnauthorized, "unauthenticated")
			case errors.Is(err, domain.ErrAccountInactive):
				writeError(w, http.StatusForbidden, "account is deactivated")
			default:
				s.log.Error("resolve principal", "error", err)
				writeError(w, http.StatusInternalServerError, "internal error")
			}
			return
		}

		ctx := context.WithValue(r.Context(), accountContextKey, account)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireRole layers a role requirement on requireAuth. The comparison uses
// the live account role, so a demotion takes effect immediately even while
// the bearer token's role snapshot says otherwise.
func (s *Server) requireRole(role domain.Role, next http.Handler) http.Handler {
	return s.requireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		account, ok := AccountFromContext(r.Context())
		if !ok || account.Role != role {
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next.ServeHTTP(w, r)
	}))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}
