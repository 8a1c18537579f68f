package server

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/devicelab-dev/device-agent/pkg/logger"
)

// requestLogger emits one log line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		logger.Info("http: %s %s -> %d (%s) [%s]",
			r.Method, r.URL.Path, ww.Status(), time.Since(start).Round(time.Millisecond),
			chimw.GetReqID(r.Context()))
	})
}
