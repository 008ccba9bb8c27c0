package httpapi

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	apimw "github.com/maxbeyer/postwatch/internal/httpapi/middleware"
	"github.com/maxbeyer/postwatch/internal/store"
)

// Server is the acknowledgment receiver: the one network-facing entry point.
// A human taps the Acknowledge action on a push and lands here.
type Server struct {
	Logger  *zap.Logger
	Pending store.PendingStore
	Secret  string
	AckPath string // route for acknowledgments, e.g. /acknowledge
}

func NewServer(l *zap.Logger, pending store.PendingStore, secret, ackPath string) *Server {
	if ackPath == "" {
		ackPath = "/acknowledge"
	}
	if !strings.HasPrefix(ackPath, "/") {
		ackPath = "/" + ackPath
	}
	return &Server{Logger: l, Pending: pending, Secret: secret, AckPath: ackPath}
}

// Router wires the ack route and the liveness route. rpm/burst bound how
// fast one IP may hammer the acknowledgment endpoint.
func (s *Server) Router(rpm, burst int) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.AllowAll().Handler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})

	r.With(apimw.RateLimit(rpm, burst)).Get(s.AckPath, s.handleAcknowledge)

	return r
}

func (s *Server) handleAcknowledge(w http.ResponseWriter, r *http.Request) {
	notificationID := r.URL.Query().Get("id")
	secret := r.URL.Query().Get("secret")

	if secret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(s.Secret)) != 1 {
		s.Logger.Warn("ack_unauthorized", zap.String("remote", r.RemoteAddr))
		writeJSON(w, http.StatusUnauthorized, map[string]any{"success": false, "error": "Unauthorized"})
		return
	}

	if notificationID == "" {
		s.Logger.Warn("ack_missing_id", zap.String("remote", r.RemoteAddr))
		writeJSON(w, http.StatusBadRequest, map[string]any{"success": false, "error": "Missing notification ID"})
		return
	}

	changed, err := s.Pending.Acknowledge(r.Context(), notificationID)
	if err != nil {
		s.Logger.Error("ack_store_error", zap.String("notification_id", notificationID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": "Storage error"})
		return
	}
	if !changed {
		s.Logger.Warn("ack_not_found", zap.String("notification_id", notificationID))
		writeJSON(w, http.StatusNotFound, map[string]any{"success": false, "error": "Notification not found"})
		return
	}

	s.Logger.Info("notification_acknowledged", zap.String("notification_id", notificationID))
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
