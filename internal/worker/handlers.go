package worker

import (
	"crypto/subtle"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/Mayank-Dandane/honeypot-api/internal/db/gorm"
	"github.com/Mayank-Dandane/honeypot-api/pkg/models"
)

// maxTurnBody caps inbound turn payloads.
const maxTurnBody = 1 << 20

// DefaultReportLimit is the page size of the reports endpoint.
const DefaultReportLimit = 50

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"status": "error", "message": message})
}

// handleTurn answers every inbound turn with 200 and a reply, whatever the payload looks like.
func (s *Service) handleTurn(w http.ResponseWriter, r *http.Request) {
	var req models.TurnRequest
	body, err := io.ReadAll(io.LimitReader(r.Body, maxTurnBody))
	if err == nil {
		err = json.Unmarshal(body, &req)
	}
	if err != nil {
		log.Warn().Err(err).Str("requestId", middleware.GetReqID(r.Context())).Msg("Unreadable turn request")
		writeJSON(w, http.StatusOK, models.NewTurnResponse(s.orchestrator.HandleTurn(r.Context(), nil)))
		return
	}

	reply := s.orchestrator.HandleTurn(r.Context(), &req)
	writeJSON(w, http.StatusOK, models.NewTurnResponse(reply))
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	body := map[string]any{
		"status":         "ok",
		"version":        s.version,
		"activeSessions": s.sessionManager.GetActiveSessionCount(),
		"uptimeSeconds":  int64(time.Since(s.startTime).Seconds()),
		"reportPolicy":   s.orchestrator.Policy(),
	}
	if s.reportStore != nil {
		delivered, err := s.reportStore.CountDelivered(r.Context())
		if err != nil {
			log.Warn().Err(err).Msg("Failed to count delivered reports")
		} else {
			body["reportsDelivered"] = delivered
		}
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Service) handleVersion(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"version": s.version})
}

func (s *Service) handleReady(w http.ResponseWriter, _ *http.Request) {
	if !s.ready.Load() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "starting"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Service) handleListSessions(w http.ResponseWriter, _ *http.Request) {
	sessions := s.sessionManager.GetAllSessions()
	views := make([]models.SessionView, 0, len(sessions))
	for _, sess := range sessions {
		views = append(views, models.NewSessionView(sess))
	}
	writeJSON(w, http.StatusOK, map[string]any{"sessions": views, "count": len(views)})
}

func (s *Service) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok := s.sessionManager.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	writeJSON(w, http.StatusOK, models.NewSessionView(sess))
}

func (s *Service) handleListReports(w http.ResponseWriter, r *http.Request) {
	if s.reportStore == nil {
		writeJSON(w, http.StatusOK, map[string]any{"reports": []*gorm.ReportRecord{}, "count": 0})
		return
	}

	var (
		records []*gorm.ReportRecord
		err     error
	)
	if sessionID := r.URL.Query().Get("sessionId"); sessionID != "" {
		records, err = s.reportStore.ListBySession(r.Context(), sessionID)
	} else {
		records, err = s.reportStore.List(r.Context(), gorm.ParseLimitParam(r, DefaultReportLimit))
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to list reports")
		writeError(w, http.StatusInternalServerError, "failed to list reports")
		return
	}
	if records == nil {
		records = []*gorm.ReportRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"reports": records, "count": len(records)})
}

// requireAPIKey rejects requests without the configured x-api-key. An empty key disables the check.
func (s *Service) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		want := s.config.APIKey
		if want == "" {
			next.ServeHTTP(w, r)
			return
		}
		got := strings.TrimSpace(r.Header.Get("x-api-key"))
		if subtle.ConstantTimeCompare([]byte(got), []byte(want)) != 1 {
			log.Warn().Str("path", r.URL.Path).Str("remote", r.RemoteAddr).Msg("Rejected request with invalid API key")
			writeError(w, http.StatusUnauthorized, "invalid API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireReady blocks monitoring endpoints until the service has started.
func (s *Service) requireReady(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.ready.Load() {
			writeError(w, http.StatusServiceUnavailable, "service starting")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestLogger logs each request at debug level.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("requestId", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
