package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/faerion/keygate/internal/auth"
	"github.com/faerion/keygate/internal/domain"
)

type contextKey string

const (
	userContextKey   contextKey = "user"
	claimsContextKey contextKey = "claims"
)

func UserFromContext(ctx context.Context) *domain.User {
	u, _ := ctx.Value(userContextKey).(*domain.User)
	return u
}

func ClaimsFromContext(ctx context.Context) *auth.Claims {
	c, _ := ctx.Value(claimsContextKey).(*auth.Claims)
	return c
}

// SessionAuth validates the bearer session token and loads the user it was
// issued for. Admin tokens are refused here: a token minted for one subject
// kind cannot be replayed against the other's surface.
func SessionAuth(tokens *auth.TokenIssuer, users domain.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, http.StatusUnauthorized, "TOKEN_INVALID", "missing authorization header")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				writeError(w, http.StatusUnauthorized, "TOKEN_INVALID", "invalid authorization header format")
				return
			}

			claims, err := tokens.Validate(parts[1])
			if err != nil {
				if errors.Is(err, auth.ErrTokenExpired) {
					writeError(w, http.StatusUnauthorized, "TOKEN_EXPIRED", "token expired")
					return
				}
				writeError(w, http.StatusUnauthorized, "TOKEN_INVALID", "invalid token")
				return
			}

			if claims.SubjectType != auth.SubjectUser {
				writeError(w, http.StatusForbidden, "TOKEN_INVALID", "token not valid for this endpoint")
				return
			}

			user, err := users.GetByID(r.Context(), claims.SubjectID, claims.AppID)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "TOKEN_INVALID", "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			ctx = context.WithValue(ctx, claimsContextKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg, "code": code})
}
