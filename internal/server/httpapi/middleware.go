package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/wardenlabs/warden/internal/common"
	"github.com/wardenlabs/warden/internal/server/password"
	"github.com/wardenlabs/warden/internal/server/tokens"
)

type contextKey int

const claimsKey contextKey = iota

// claimsFrom returns the access-token claims placed by requireAuth, or nil.
func claimsFrom(ctx context.Context) *tokens.Claims {
	c, _ := ctx.Value(claimsKey).(*tokens.Claims)
	return c
}

func isValidationError(err error) bool {
	return errors.Is(err, password.ErrTooShort) || errors.Is(err, password.ErrMissingClasses)
}

// clientIP prefers the first X-Forwarded-For hop, falling back to the peer
// address. The value keys the rate limiter and lands in the audit trail.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			fwd = fwd[:i]
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// requireAuth validates the bearer token and stores its claims in the request
// context. Missing and invalid tokens are indistinguishable to the client.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			writeError(w, http.StatusUnauthorized, common.ErrInvalidToken.Error())
			return
		}
		claims, err := s.auth.Introspect(r.Context(), raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, common.ErrInvalidToken.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

// requireCSRF checks the X-CSRF-Token header against the authenticated
// identity. Must run inside requireAuth.
func (s *Server) requireCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := claimsFrom(r.Context())
		if claims == nil {
			writeError(w, http.StatusUnauthorized, common.ErrInvalidToken.Error())
			return
		}
		token := r.Header.Get("X-CSRF-Token")
		if !s.csrf.Validate(token, claims.UserID, s.opts.CSRFMaxAge) {
			writeError(w, http.StatusForbidden, "invalid csrf token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// rateLimited throttles by "action_clientIP". Rejections carry both the
// Retry-After header and a retry_after body field, in whole seconds.
func (s *Server) rateLimited(action string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := fmt.Sprintf("%s_%s", action, clientIP(r))
		allowed, retryAfter := s.limiter.IsAllowed(key)
		if !allowed {
			s.log.Warn(r.Context(), "rate limit exceeded", "key", key, "retry_after", retryAfter)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			writeJSON(w, http.StatusTooManyRequests, map[string]any{
				"detail":      "too many requests",
				"retry_after": retryAfter,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-XSS-Protection", "1; mode=block")
		if s.opts.Production {
			h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		next.ServeHTTP(w, r)
	})
}

// cors admits exactly the configured frontend origin. Preflight requests are
// answered here and never reach a handler.
func (s *Server) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if s.opts.FrontendOrigin != "" && origin == s.opts.FrontendOrigin {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-CSRF-Token")
			h.Set("Access-Control-Expose-Headers", "X-CSRF-Token, Retry-After")
			h.Set("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
