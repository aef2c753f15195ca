package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"bookstore/pkg/account"
	"bookstore/pkg/otel"
	"bookstore/pkg/session"
)

const sessionCookie = "session_id"

type accountKey struct{}

func accountFrom(ctx context.Context) *account.Account {
	a, _ := ctx.Value(accountKey{}).(*account.Account)
	return a
}

func (s *Server) traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.InjectTracing(r.Context(), s.tracer)
		ctx, span := otel.AddSpan(ctx, r.Method+" "+r.URL.Path)
		defer span.End()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requestLogger logs basic request details and latency.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		s.log.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start).String(),
		)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// recoverer turns a panicking command into a 500. A panic here means a stock
// invariant was broken, so it is logged at error level with the cause.
func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				s.log.Error(r.Context(), "panic", "cause", v, "method", r.Method, "path", r.URL.Path)
				writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// authMiddleware resolves the session cookie to an account.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(sessionCookie)
		if err != nil {
			writeError(w, http.StatusUnauthorized, codeUnauthenticated, "unauthorized")
			return
		}
		email, err := s.sessions.Get(r.Context(), c.Value)
		if err != nil {
			if !errors.Is(err, session.ErrNotFound) {
				s.log.Error(r.Context(), "session lookup", "error", err)
			}
			writeError(w, http.StatusUnauthorized, codeUnauthenticated, "unauthorized")
			return
		}
		a, err := s.store.Account(r.Context(), email)
		if err != nil {
			// Account deleted while the session was live.
			_ = s.sessions.Delete(r.Context(), c.Value)
			writeError(w, http.StatusUnauthorized, codeUnauthenticated, "unauthorized")
			return
		}
		ctx := context.WithValue(r.Context(), accountKey{}, a)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
