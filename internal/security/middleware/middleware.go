package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/yourorg/campusbus/internal/security/audit"
	"github.com/yourorg/campusbus/internal/security/auth"
	"github.com/yourorg/campusbus/internal/security/ratelimit"
)

type ClaimsContextKey struct{}
type RoleContextKey struct{}
type RequestIDContextKey struct{}

// publicPath reports whether the request may be served without a token.
// Registration, login and the password-reset flow must work for callers who
// by definition have no session; health, metrics and the update stream are
// open for probes and dashboards.
func publicPath(path string) bool {
	switch path {
	case "/healthz", "/readyz", "/metrics",
		"/api/auth/register", "/api/auth/login",
		"/api/auth/password-reset/request", "/api/auth/password-reset/confirm",
		"/ws/updates":
		return true
	}
	return false
}

// RequestIDMiddleware assigns each request an id, echoed in the response and
// attached to the context for log correlation.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		ctx := context.WithValue(r.Context(), RequestIDContextKey{}, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CORSMiddleware answers preflights and stamps the allow headers for the
// configured origins. "*" allows any origin.
func CORSMiddleware(allowedOrigins []string) func(http.Handler) http.Handler {
	allowAll := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowAll || allowed[origin]) {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
				w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// JWTMiddleware validates the bearer token on every non-public path and puts
// the claims and role on the context.
func JWTMiddleware(tm *auth.TokenManager, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if publicPath(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				http.Error(w, `{"error":"missing auth"}`, http.StatusUnauthorized)
				return
			}

			tokenString, err := auth.ExtractToken(authHeader)
			if err != nil {
				http.Error(w, `{"error":"invalid auth"}`, http.StatusUnauthorized)
				return
			}

			claims, err := tm.ValidateToken(tokenString)
			if err != nil {
				http.Error(w, `{"error":"invalid token"}`, http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), ClaimsContextKey{}, claims)
			ctx = context.WithValue(ctx, RoleContextKey{}, claims.Role)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimitMiddleware applies the general sliding-window limit, keyed by the
// authenticated user when present and the remote address otherwise.
func RateLimitMiddleware(limiter *ratelimit.Limiter, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" || r.URL.Path == "/readyz" || r.URL.Path == "/metrics" ||
				strings.HasPrefix(r.URL.Path, "/ws/") {
				next.ServeHTTP(w, r)
				return
			}

			if !limiter.Allow(ClientKey(r)) {
				http.Error(w, `{"error":"rate limit exceeded"}`, http.StatusTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// AuditMiddleware records every mutating API call before it is handled.
// Request bodies are never logged.
func AuditMiddleware(auditLog *audit.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
				if strings.HasPrefix(r.URL.Path, "/api/") {
					userID := ""
					if claims := GetClaimsFromContext(r.Context()); claims != nil {
						userID = claims.UserID
					}
					resource, resourceID := splitAPIPath(r.URL.Path)
					auditLog.LogAction(GetRequestIDFromContext(r.Context()), userID,
						strings.ToLower(r.Method), resource, resourceID, "initiated")
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// splitAPIPath maps /api/{resource}/{id}/... to its resource and id parts.
func splitAPIPath(path string) (string, string) {
	parts := strings.Split(strings.TrimPrefix(path, "/api/"), "/")
	resource := parts[0]
	id := ""
	if len(parts) > 1 {
		id = parts[1]
	}
	return resource, id
}

// ClientKey returns the identity to rate-limit by: the token's user when
// authenticated, the remote host otherwise.
func ClientKey(r *http.Request) string {
	if claims := GetClaimsFromContext(r.Context()); claims != nil {
		return claims.UserID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// RequireRole wraps a handler so only the listed roles may reach it.
func RequireRole(next http.HandlerFunc, roles ...string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims := GetClaimsFromContext(r.Context())
		if claims == nil {
			http.Error(w, `{"error":"missing auth"}`, http.StatusUnauthorized)
			return
		}
		for _, role := range roles {
			if claims.Role == role {
				next(w, r)
				return
			}
		}
		http.Error(w, `{"error":"forbidden"}`, http.StatusForbidden)
	}
}

func GetClaimsFromContext(ctx context.Context) *auth.Claims {
	if c := ctx.Value(ClaimsContextKey{}); c != nil {
		return c.(*auth.Claims)
	}
	return nil
}

func GetRequestIDFromContext(ctx context.Context) string {
	if id := ctx.Value(RequestIDContextKey{}); id != nil {
		return id.(string)
	}
	return ""
}
