package middleware

import (
	"net/http"
	"strings"

	"github.com/fmeta/backend/internal/logging"
)

// TokenVerifier resolves an access token to the account it was issued for.
type TokenVerifier interface {
	Verify(accessToken string) (string, error)
}

// Authenticate rejects requests without a valid bearer token and stores the
// account id on the request context for handlers.
func Authenticate(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := logging.FromContext(ctx)

			token := bearerToken(r)
			if token == "" {
				writeError(w, r, http.StatusUnauthorized, "No token, authorization denied")
				return
			}
			if verifier == nil {
				logger.Error("token verifier unavailable")
				writeError(w, r, http.StatusUnauthorized, "Token is not valid")
				return
			}

			accountID, err := verifier.Verify(token)
			if err != nil {
				logger.Warn("rejected access token", "error", err)
				writeError(w, r, http.StatusUnauthorized, "Token is not valid")
				return
			}

			next.ServeHTTP(w, r.WithContext(logging.WithAccountID(ctx, accountID)))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
