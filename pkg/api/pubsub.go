package api

import (
	"io"
	"net/http"

	"github.com/specfleet/foreman/pkg/envelope"
	"github.com/specfleet/foreman/pkg/log"
)

// handleSpecStatus receives push notifications from the execution fleet.
//
// Authentication runs first, then envelope decoding, then the kernel. Every
// graceful kernel outcome answers 204 so the sender stops redelivering; only
// transient store failures answer 5xx and invite a retry.
func (s *Server) handleSpecStatus(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponent("pubsub")

	if err := s.authn.Authenticate(r); err != nil {
		logger.Warn().
			Str("remote_addr", r.RemoteAddr).
			Err(err).
			Msg("webhook authentication failed")
		respondJSON(w, http.StatusUnauthorized, detailResponse{Detail: "invalid or missing authentication"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, detailResponse{Detail: "failed to read request body"})
		return
	}

	event, err := envelope.Decode(body)
	if err != nil {
		logger.Info().Err(err).Msg("rejected status event envelope")
		respondJSON(w, http.StatusBadRequest, detailResponse{Detail: "invalid message payload"})
		return
	}

	result, err := s.kernel.Apply(event)
	if err != nil {
		logger.Error().
			Str("plan_id", event.PlanID).
			Int("spec_index", event.SpecIndex).
			Str("message_id", event.MessageID).
			Err(err).
			Msg("status event processing failed")
		respondJSON(w, http.StatusInternalServerError, detailResponse{Detail: "internal server error"})
		return
	}

	// State is committed; the trigger is best-effort from here on.
	if result.Trigger != nil {
		s.notifier.Fire(result.Trigger.PlanID, result.Trigger.SpecIndex, result.Trigger.Spec)
	}

	w.WriteHeader(http.StatusNoContent)
}
