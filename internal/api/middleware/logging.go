package middleware

import (
	"net/http"
	"time"

	"algoryth/internal/common/security"
	"algoryth/internal/platform/logger"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth/v5"
)

// RequestLogger logs one line per request. Mount it after jwtauth.Verifier so the user id is known.
func RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		var userID string
		if _, claims, err := jwtauth.FromContext(r.Context()); err == nil {
			userID, _ = security.GetUserIDFromClaims(claims)
		}

		event := logger.Info()
		if status >= 400 {
			event = logger.Warn()
		}
		if status >= 500 {
			event = logger.Error()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("query", r.URL.RawQuery).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("ip", clientIP(r)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("user_id", userID).
			Int("body_size", ww.BytesWritten()).
			Msg("request")
	})
}
