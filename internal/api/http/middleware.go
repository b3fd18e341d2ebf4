package http

import (
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/unrolled/secure"

	"warehub-backend/internal/config"
	"warehub-backend/internal/logger"
	"warehub-backend/internal/security"
)

// AuthMiddleware validates the bearer token and enforces the route's security level.
// It must run after route matching so the route name is known.
type AuthMiddleware struct {
	tokenManager security.TokenManager
}

func NewAuthMiddleware(tm security.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokenManager: tm}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := ""
		if route := mux.CurrentRoute(r); route != nil {
			name = route.GetName()
		}
		level := config.GetSecurityLevel(name)

		// Public endpoint - skip auth
		if level == config.SecurityPublic {
			next.ServeHTTP(w, r)
			return
		}

		token := extractToken(r)
		if token == "" {
			writeProblem(w, http.StatusUnauthorized, "Unauthorized", "authorization token is not provided")
			return
		}

		claims, err := m.tokenManager.ValidateToken(token)
		if err != nil {
			writeProblem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
			return
		}

		if !allowed(level, claims) {
			logger.WarnContext(r.Context(), "Role check failed", "route", name, "userID", claims.UserID, "roles", claims.Roles)
			writeProblem(w, http.StatusForbidden, "Forbidden", "insufficient role for "+name)
			return
		}

		ctx := logger.WithAttrs(withClaims(r.Context(), claims), "user_id", claims.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func extractToken(r *http.Request) string {
	token := r.Header.Get("Authorization")
	// Remove Bearer prefix if present
	if len(token) > 7 && strings.ToUpper(token[0:7]) == "BEARER " {
		token = token[7:]
	}
	return strings.TrimSpace(token)
}

func allowed(level config.SecurityLevel, claims *security.UserClaims) bool {
	switch level {
	case config.SecurityWorker:
		return claims.IsWorker()
	case config.SecurityAdmin:
		return claims.IsAdmin()
	default:
		return true
	}
}

// recoverer turns handler panics into 500 problems.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.ErrorContext(r.Context(), "Handler panic", "path", r.URL.Path, "panic", rec, "stack", string(debug.Stack()))
				writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

const requestIDHeader = "X-Request-ID"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// requestLogger tags the request context with a request id, echoing a caller supplied one.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := logger.WithAttrs(r.Context(), "request_id", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r.WithContext(ctx))

		args := []any{"method", r.Method, "path", r.URL.Path, "status", rec.status, "duration", time.Since(start)}
		if rec.status >= http.StatusInternalServerError {
			logger.WarnContext(ctx, "HTTP request", args...)
			return
		}
		logger.DebugContext(ctx, "HTTP request", args...)
	})
}

func rateLimiter(perMinute int) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		perMinute = 120
	}
	return httprate.Limit(perMinute, time.Minute, httprate.WithKeyFuncs(httprate.KeyByIP))
}

func secureHeaders(isDevelopment bool) func(http.Handler) http.Handler {
	sm := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:      isDevelopment,
	})
	return sm.Handler
}
