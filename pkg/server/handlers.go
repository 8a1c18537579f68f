package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/devicelab-dev/device-agent/pkg/core"
	"github.com/devicelab-dev/device-agent/pkg/logger"
)

// errorResponse is the JSON error envelope for every API failure.
type errorResponse struct {
	Error    string                 `json:"error"`
	Code     string                 `json:"code"`
	Category string                 `json:"category,omitempty"`
	Details  map[string]interface{} `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("http: failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	var agentErr *core.AgentError
	if !errors.As(err, &agentErr) {
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Error: err.Error(),
			Code:  "internal",
		})
		return
	}
	writeJSON(w, statusFor(agentErr), errorResponse{
		Error:    agentErr.Error(),
		Code:     agentErr.Code,
		Category: agentErr.Category.String(),
		Details:  agentErr.Details,
	})
}

// statusFor maps error codes onto HTTP status codes. Session-state conflicts
// are 409, driver-side failures are 502/503, bad input is 400.
func statusFor(err *core.AgentError) int {
	switch err.Code {
	case "not_connected", "recovery_interrupted":
		return http.StatusConflict
	case "session_unrecoverable":
		return http.StatusServiceUnavailable
	case "driver_create_failed", "server_unreachable":
		return http.StatusBadGateway
	case "commands_unsupported":
		return http.StatusNotImplemented
	case "invalid_config", "missing_required":
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, core.ErrInvalidConfig.WithMessage("invalid request body").WithCause(err))
		return false
	}
	return true
}

// Session lifecycle

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var desc core.Descriptor
	if !decodeBody(w, r, &desc) {
		return
	}
	if err := s.manager.Connect(r.Context(), &desc); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ack":    uuid.NewString(),
		"status": s.manager.Status(),
	})
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Disconnect(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": s.manager.Status(),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.manager.Status())
}

// Device commands

type tapRequest struct {
	X          int    `json:"x"`
	Y          int    `json:"y"`
	Kind       string `json:"kind,omitempty"` // tap (default), double, long
	DurationMs int    `json:"durationMs,omitempty"`
}

func (s *Server) handleTap(w http.ResponseWriter, r *http.Request) {
	var req tapRequest
	if !decodeBody(w, r, &req) {
		return
	}

	var err error
	switch req.Kind {
	case "", "tap":
		err = s.actions.Tap(r.Context(), req.X, req.Y)
	case "double":
		err = s.actions.DoubleTap(r.Context(), req.X, req.Y)
	case "long":
		duration := req.DurationMs
		if duration <= 0 {
			duration = 1000
		}
		err = s.actions.LongPress(r.Context(), req.X, req.Y, duration)
	default:
		writeError(w, core.ErrInvalidConfig.WithMessage("unknown tap kind: "+req.Kind))
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "ok"})
}

type swipeRequest struct {
	StartX     int `json:"startX"`
	StartY     int `json:"startY"`
	EndX       int `json:"endX"`
	EndY       int `json:"endY"`
	DurationMs int `json:"durationMs,omitempty"`
}

func (s *Server) handleSwipe(w http.ResponseWriter, r *http.Request) {
	var req swipeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	duration := req.DurationMs
	if duration <= 0 {
		duration = 300
	}
	if err := s.actions.Swipe(r.Context(), req.StartX, req.StartY, req.EndX, req.EndY, duration); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "ok"})
}

type inputRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleInput(w http.ResponseWriter, r *http.Request) {
	var req inputRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.actions.InputText(r.Context(), req.Text); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "ok"})
}

type eraseRequest struct {
	Chars int `json:"chars"`
}

func (s *Server) handleErase(w http.ResponseWriter, r *http.Request) {
	var req eraseRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.actions.EraseText(r.Context(), req.Chars); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "ok"})
}

type keyRequest struct {
	Keycode int `json:"keycode"`
}

func (s *Server) handleKey(w http.ResponseWriter, r *http.Request) {
	var req keyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.actions.PressKey(r.Context(), req.Keycode); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "ok"})
}

func (s *Server) handleHideKeyboard(w http.ResponseWriter, r *http.Request) {
	if err := s.actions.HideKeyboard(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "ok"})
}

type urlRequest struct {
	URL string `json:"url"`
}

func (s *Server) handleOpenURL(w http.ResponseWriter, r *http.Request) {
	var req urlRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.actions.OpenURL(r.Context(), req.URL); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "ok"})
}

func (s *Server) handleGetClipboard(w http.ResponseWriter, r *http.Request) {
	text, err := s.actions.GetClipboard(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

type clipboardRequest struct {
	Text string `json:"text"`
}

func (s *Server) handleSetClipboard(w http.ResponseWriter, r *http.Request) {
	var req clipboardRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.actions.SetClipboard(r.Context(), req.Text); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "ok"})
}

func (s *Server) handleGetOrientation(w http.ResponseWriter, r *http.Request) {
	orientation, err := s.actions.GetOrientation(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"orientation": orientation})
}

type orientationRequest struct {
	Orientation string `json:"orientation"`
}

func (s *Server) handleSetOrientation(w http.ResponseWriter, r *http.Request) {
	var req orientationRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := s.actions.SetOrientation(r.Context(), req.Orientation); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "ok"})
}

func (s *Server) handleScreenshot(w http.ResponseWriter, r *http.Request) {
	png, err := s.actions.Screenshot(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(png); err != nil {
		logger.Error("http: failed to write screenshot: %v", err)
	}
}

func (s *Server) handleHierarchy(w http.ResponseWriter, r *http.Request) {
	xml, err := s.actions.Hierarchy(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(xml)); err != nil {
		logger.Error("http: failed to write hierarchy: %v", err)
	}
}

// App lifecycle

type appRequest struct {
	AppID string `json:"appId"`
}

func (s *Server) appID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req appRequest
	if !decodeBody(w, r, &req) {
		return "", false
	}
	if req.AppID == "" {
		if desc := s.manager.Status().Descriptor; desc != nil {
			req.AppID = desc.AppID
		}
	}
	if req.AppID == "" {
		writeError(w, core.ErrMissingRequired.WithMessage("appId is required"))
		return "", false
	}
	return req.AppID, true
}

func (s *Server) handleLaunchApp(w http.ResponseWriter, r *http.Request) {
	appID, ok := s.appID(w, r)
	if !ok {
		return
	}
	if err := s.actions.LaunchApp(r.Context(), appID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "ok"})
}

func (s *Server) handleTerminateApp(w http.ResponseWriter, r *http.Request) {
	appID, ok := s.appID(w, r)
	if !ok {
		return
	}
	if err := s.actions.TerminateApp(r.Context(), appID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "ok"})
}

func (s *Server) handleClearApp(w http.ResponseWriter, r *http.Request) {
	appID, ok := s.appID(w, r)
	if !ok {
		return
	}
	if err := s.actions.ClearAppData(r.Context(), appID); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": "ok"})
}
