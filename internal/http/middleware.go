package httpserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/Clark-Hu/thrive/internal/auth"
)

// logRequests emits one structured line per request.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		evt := s.logger.Info()
		if status >= http.StatusInternalServerError {
			evt = s.logger.Error()
		}
		evt.
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("bytes", ww.BytesWritten()).
			Str("remote", r.RemoteAddr).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

// requestLogger returns the server logger annotated with the request id and user.
func (s *Server) requestLogger(r *http.Request) *zerolog.Logger {
	ctx := s.logger.With().Str("request_id", middleware.GetReqID(r.Context()))
	if id := auth.UserID(r.Context()); id != "" {
		ctx = ctx.Str("user_id", id)
	}
	l := ctx.Logger()
	return &l
}

// requireAuth rejects requests without a valid session token and stores the
// claims in the request context otherwise.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
			return
		}
		claims, err := s.tokens.Parse(token)
		if err != nil {
			s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithUser(r.Context(), claims)))
	})
}

// bearerToken reads the token from the Authorization header, falling back to
// the x-auth-token header older clients send.
func bearerToken(r *http.Request) string {
	const prefix = "Bearer "
	if header := r.Header.Get("Authorization"); header != "" {
		if !strings.HasPrefix(header, prefix) {
			return ""
		}
		return strings.TrimSpace(strings.TrimPrefix(header, prefix))
	}
	return strings.TrimSpace(r.Header.Get("X-Auth-Token"))
}
