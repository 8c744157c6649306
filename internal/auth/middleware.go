package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKey struct{}

var userKey contextKey

// UserFromContext returns the authenticated profile stored by RequireAuth.
func UserFromContext(ctx context.Context) (*Profile, bool) {
	profile, ok := ctx.Value(userKey).(*Profile)
	return profile, ok
}

// RequireAuth rejects requests without a valid bearer session token.
func RequireAuth(signer *Signer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" {
				unauthorized(w, "No token, authorization denied")
				return
			}

			token := header
			if strings.HasPrefix(header, "Bearer ") {
				token = strings.TrimPrefix(header, "Bearer ")
			}

			profile, err := signer.Parse(token)
			if err != nil {
				unauthorized(w, "Token is not valid")
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, profile)))
		})
	}
}

func unauthorized(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "message": msg})
}
