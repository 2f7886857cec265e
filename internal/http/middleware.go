package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/fjod/go_cart/storefront/internal/session"
)

type sessionKey struct{}

// RequestLogger attaches a request-scoped zerolog logger to the context and
// logs one line per request once it completes.
func RequestLogger(base zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			l := logger.Ctx(r.Context(), &base).With().
				Str("request_id", middleware.GetReqID(r.Context())).
				Logger()
			r = r.WithContext(l.WithContext(r.Context()))

			defer func() {
				event := l.Info()
				if ww.Status() >= http.StatusInternalServerError {
					event = l.Error()
				}
				event.
					Str("method", r.Method).
					Str("url", r.URL.RequestURI()).
					Int("status", ww.Status()).
					Int("bytes", ww.BytesWritten()).
					Dur("duration", time.Since(start)).
					Msg("request completed")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

// SessionMiddleware resolves the caller's session from its cookie, minting
// one on the first visit, and stores it in the request context.
func SessionMiddleware(cookies *session.CookieManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := cookies.Session(w, r)
			if err != nil {
				zerolog.Ctx(r.Context()).Error().Err(err).Msg("failed to resolve session")
				respondError(w, http.StatusInternalServerError, "session_error", "could not start session")
				return
			}
			ctx := context.WithValue(r.Context(), sessionKey{}, sess)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func getSessionFromContext(ctx context.Context) *session.Session {
	if sess, ok := ctx.Value(sessionKey{}).(*session.Session); ok {
		return sess
	}
	return nil
}

// AdminOnly rejects callers whose session cookie lacks the admin flag.
func AdminOnly(cookies *session.CookieManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !cookies.IsAdmin(r) {
				respondError(w, http.StatusUnauthorized, "unauthorized", "admin login required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
