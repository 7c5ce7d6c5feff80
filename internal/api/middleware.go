package api

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/erazemk/najdeno/internal/auth"
	"github.com/erazemk/najdeno/internal/metrics"
	"github.com/erazemk/najdeno/internal/model"
	"github.com/erazemk/najdeno/internal/store"
)

type contextKey string

const claimsKey contextKey = "claims"

// authenticate resolves the bearer token on r. It returns nil claims and a
// message when the token is missing, malformed or revoked, or when its account
// is gone. Role and email are refreshed from the account, so a role change
// applies to tokens issued before it.
func authenticate(r *http.Request, secret string, db *sql.DB) (*auth.Claims, string) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return nil, "missing or invalid authorization header"
	}

	claims, err := auth.ValidateToken(secret, strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		return nil, "invalid token"
	}

	revoked, err := store.IsTokenRevoked(r.Context(), db, tokenRef(claims))
	if err != nil {
		slog.Error("failed to check token revocation", "error", err)
		return nil, "invalid token"
	}
	if revoked {
		return nil, "token has been revoked"
	}

	user, err := store.GetUser(r.Context(), db, claims.UserID)
	if err != nil {
		slog.Error("failed to load token user", "user", claims.UserID, "error", err)
		return nil, "invalid token"
	}
	if user == nil {
		return nil, "account no longer exists"
	}
	if user.Role != claims.Role {
		slog.Debug("token role is stale", "user", user.ID, "token_role", claims.Role, "role", user.Role)
	}
	claims.Role = user.Role
	claims.Email = user.Email
	return claims, ""
}

func tokenRef(claims *auth.Claims) store.TokenRef {
	return store.TokenRef{
		JTI:       claims.ID,
		UserID:    claims.UserID,
		IssuedAt:  claims.IssuedTime(),
		ExpiresAt: claims.ExpiryTime(),
	}
}

// AuthMiddleware validates JWT from Authorization header and adds claims to context.
func AuthMiddleware(secret string, db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, msg := authenticate(r, secret, db)
			if claims == nil {
				jsonError(w, http.StatusUnauthorized, msg)
				return
			}

			ctx := context.WithValue(r.Context(), claimsKey, claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalAuth adds claims to the context when a valid token is present and
// lets anonymous requests through otherwise.
func OptionalAuth(secret string, db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") == "" {
				next.ServeHTTP(w, r)
				return
			}
			claims, msg := authenticate(r, secret, db)
			if claims == nil {
				jsonError(w, http.StatusUnauthorized, msg)
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
		})
	}
}

// RequireRole returns middleware that checks if the user has at least the given role.
func RequireRole(minimum string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := GetClaims(r.Context())
			if claims == nil {
				jsonError(w, http.StatusUnauthorized, "not authenticated")
				return
			}
			if !model.RoleAtLeast(claims.Role, minimum) {
				jsonError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetClaims retrieves the JWT claims from the context.
func GetClaims(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

// actor returns the identity behind the request, or the zero Actor for
// anonymous requests.
func actor(r *http.Request) model.Actor {
	if claims := GetClaims(r.Context()); claims != nil {
		return claims.Actor()
	}
	return model.Actor{}
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs HTTP requests with method, path, status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		metrics.ObserveRequest(r.Method, strconv.Itoa(rec.status), start)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.RequestURI(),
			"status", rec.status,
			"duration", time.Since(start).Round(time.Millisecond),
		)
	})
}
