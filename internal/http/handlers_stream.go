package http

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/guhrizzo/my-wallet/internal/auth"
	"github.com/guhrizzo/my-wallet/internal/core"
	"github.com/guhrizzo/my-wallet/internal/log"
)

const heartbeatInterval = 25 * time.Second

// handleStream is the live dashboard feed, served as Server-Sent Events.
// The session gate is resolved before anything touches the store: an
// undecided or denied session never opens a subscription. When the session
// expires mid-stream the subscription is torn down and the client told to
// re-authenticate.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	gate := auth.NewGate()

	claims, err := s.sessionClaims(r)
	if err != nil {
		gate.Deny()
		writeError(w, http.StatusUnauthorized, "Sessão expirada ou inexistente.")
		return
	}
	if err := gate.Resolve(claims.Subject); err != nil {
		slog.ErrorContext(r.Context(), "Session gate refused identity", "error", err)
		writeError(w, http.StatusInternalServerError, "Erro ao verificar sessão.")
		return
	}

	ownerID, _ := gate.Identity()
	year, month := parseYearMonth(r)
	start, end := core.MonthRange(year, month)

	sub, err := s.hub.Subscribe(r.Context(), ownerID, start, end)
	if err != nil {
		s.events.LogError(r.Context(), "Subscription open failed", err, log.ComponentFeed, log.OpSubscribe,
			log.NewFields().WithOwner(ownerID).WithPeriod(year, int(month)))
		writeError(w, http.StatusInternalServerError, "Erro ao abrir assinatura.")
		return
	}
	defer sub.Cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	slog.InfoContext(r.Context(), "Stream opened",
		"owner_id", ownerID, "year", year, "month", int(month))

	expiry := time.NewTimer(time.Until(claims.ExpiresAt.Time))
	defer expiry.Stop()
	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			slog.InfoContext(r.Context(), "Stream closed by client", "owner_id", ownerID)
			return

		case <-expiry.C:
			gate.Deny()
			sub.Cancel()
			fmt.Fprint(w, "event: session-expired\ndata: {}\n\n")
			flusher.Flush()
			slog.InfoContext(r.Context(), "Stream closed on session expiry", "owner_id", ownerID)
			return

		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()

		case snapshot := <-sub.Updates():
			if err := s.writeSnapshot(w, snapshot, year, month); err != nil {
				slog.WarnContext(r.Context(), "Snapshot write failed",
					"error", err, "owner_id", ownerID)
				return
			}
			flusher.Flush()
		}
	}
}

func (s *Server) writeSnapshot(w http.ResponseWriter, snapshot []core.Transaction, year int, month time.Month) error {
	data, err := json.Marshal(s.monthPayload(snapshot, year, month))
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	_, err = fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data)
	return err
}
