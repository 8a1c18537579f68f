package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

func (s *Server) setupRoutes() {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimw.Recoverer)

	// Health probes
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api", func(api chi.Router) {
		api.Route("/session", func(sess chi.Router) {
			sess.Post("/connect", s.handleConnect)
			sess.Post("/disconnect", s.handleDisconnect)
			sess.Get("/status", s.handleStatus)
		})

		api.Route("/device", func(dev chi.Router) {
			dev.Post("/tap", s.handleTap)
			dev.Post("/swipe", s.handleSwipe)
			dev.Post("/input", s.handleInput)
			dev.Post("/erase", s.handleErase)
			dev.Post("/key", s.handleKey)
			dev.Post("/hide-keyboard", s.handleHideKeyboard)
			dev.Post("/url", s.handleOpenURL)
			dev.Get("/clipboard", s.handleGetClipboard)
			dev.Post("/clipboard", s.handleSetClipboard)
			dev.Get("/orientation", s.handleGetOrientation)
			dev.Post("/orientation", s.handleSetOrientation)
			dev.Get("/screenshot", s.handleScreenshot)
			dev.Get("/hierarchy", s.handleHierarchy)
		})

		api.Route("/app", func(app chi.Router) {
			app.Post("/launch", s.handleLaunchApp)
			app.Post("/terminate", s.handleTerminateApp)
			app.Post("/clear", s.handleClearApp)
		})
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports 200 only while a session is connected, so orchestrators
// can route work away from an agent that lost its device.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	status := s.manager.Status()
	if !status.Connected {
		writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"ready": false,
			"state": status.State,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ready": true,
		"state": status.State,
	})
}
