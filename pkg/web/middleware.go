package web

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwt"
)

const (
	XUserId   = "X-User-Id"
	XUserRole = "X-User-Role"
)

// HeaderAuthMiddleware trusts identity headers set by an upstream proxy.
// It is the fallback used when the identity provider is disabled.
func HeaderAuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID := r.Header.Get(XUserId)
		if userID == "" {
			http.Error(w, "Unauthorized: Missing X-User-Id header", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		if role := r.Header.Get(XUserRole); role != "" {
			ctx = context.WithValue(ctx, RoleKey, role)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TokenVerifier verifies a bearer token and returns its parsed claims.
type TokenVerifier interface {
	Verify(ctx context.Context, tokenString string) (jwt.Token, error)
}

// BearerAuthMiddleware verifies the Authorization bearer token and puts
// the subject and role claims into the request context.
func BearerAuthMiddleware(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			tokenString, found := strings.CutPrefix(header, "Bearer ")
			if !found || tokenString == "" {
				http.Error(w, "Unauthorized: Missing bearer token", http.StatusUnauthorized)
				return
			}

			token, err := verifier.Verify(r.Context(), tokenString)
			if err != nil {
				http.Error(w, "Unauthorized: Invalid token", http.StatusUnauthorized)
				return
			}

			sub, ok := token.Subject()
			if !ok || sub == "" {
				http.Error(w, "Unauthorized: Token has no subject", http.StatusUnauthorized)
				return
			}
			ctx := context.WithValue(r.Context(), UserIDKey, sub)
			var role string
			if err := token.Get("role", &role); err == nil && role != "" {
				ctx = context.WithValue(ctx, RoleKey, role)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDInjector creates a middleware that injects request id
func RequestIDInjector(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := middleware.GetReqID(r.Context())
		if reqID == "" {
			reqID = uuid.NewString()
		}
		ctx := WithRequestID(r.Context(), reqID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// StructuredLogger creates a middleware that logs HTTP requests in a structured format.
func StructuredLogger(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			reqID := middleware.GetReqID(r.Context())
			requestLogger := logger.With("request_id", reqID)

			defer func() {
				requestLogger.Info("Request completed",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes_written", ww.BytesWritten(),
					"duration_ms", float64(time.Since(start).Nanoseconds())/1e6,
					"remote_addr", r.RemoteAddr,
					"user_agent", r.UserAgent(),
				)
			}()
			next.ServeHTTP(ww, r)
		}
		return http.HandlerFunc(fn)
	}
}

// Recoverer is a middleware that recovers from panics and logs them using the provided logger.
func Recoverer(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("Panic recovered",
						"panic", rvr,
						"request_id", middleware.GetReqID(r.Context()),
					)
					http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				}
			}()
			next.ServeHTTP(w, r)
		}
		return http.HandlerFunc(fn)
	}
}
