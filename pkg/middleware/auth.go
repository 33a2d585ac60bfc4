package middleware

import (
	"net/http"
	"strings"

	"staybook/pkg/guard"
	"staybook/pkg/logger"
	"staybook/pkg/token"
)

// Authentication verifies a Bearer token when one is present and attaches
// the resulting principal to the request context. Requests without a token
// proceed as anonymous; per-operation authorization happens in the guard, so
// public endpoints keep working and protected ones reject downstream.
// A token that is present but invalid is rejected here.
func Authentication(tokens *token.Service, log *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				next.ServeHTTP(w, r)
				return
			}

			raw, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				rejectUnauthorized(w, log, r, "malformed Authorization header")
				return
			}

			claims, err := tokens.Validate(strings.TrimSpace(raw))
			if err != nil {
				rejectUnauthorized(w, log, r, "invalid or expired token")
				return
			}

			principal := guard.Principal{
				UserID: claims.UserID,
				Role:   claims.Role,
			}
			next.ServeHTTP(w, r.WithContext(guard.WithPrincipal(r.Context(), principal)))
		})
	}
}

func rejectUnauthorized(w http.ResponseWriter, log *logger.Logger, r *http.Request, reason string) {
	log.Warn("Rejected request credential",
		"request_id", requestIDFrom(r),
		"path", r.URL.Path,
		"method", r.Method,
		"reason", reason,
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"Unauthorized"}`))
}
