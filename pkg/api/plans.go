package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/specfleet/foreman/pkg/events"
	"github.com/specfleet/foreman/pkg/ingest"
	"github.com/specfleet/foreman/pkg/log"
	"github.com/specfleet/foreman/pkg/metrics"
	"github.com/specfleet/foreman/pkg/projection"
	"github.com/specfleet/foreman/pkg/storage"
	"github.com/specfleet/foreman/pkg/types"
)

// PlanCreateResponse is the body returned on successful ingestion
type PlanCreateResponse struct {
	PlanID string `json:"plan_id"`
	Status string `json:"status"`
}

// validationResponse is the 422 body with machine-readable field errors
type validationResponse struct {
	Detail string              `json:"detail"`
	Errors []ingest.FieldError `json:"errors"`
}

// handleCreatePlan ingests a plan: 201 created, 200 idempotent replay,
// 409 same ID with different body, 422 schema violation.
func (s *Server) handleCreatePlan(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		respondJSON(w, http.StatusBadRequest, detailResponse{Detail: "failed to read request body"})
		return
	}

	outcome, plan, err := s.ingest.Ingest(body)
	if err != nil {
		s.respondIngestError(w, err)
		return
	}

	metrics.PlansIngested.WithLabelValues(string(outcome)).Inc()

	// Idempotent replays echo the creation response, not current progress.
	resp := PlanCreateResponse{PlanID: plan.PlanID, Status: string(types.PlanStatusRunning)}

	switch outcome {
	case ingest.OutcomeCreated:
		s.broker.Publish(&events.Event{
			Type:      events.EventPlanCreated,
			PlanID:    plan.PlanID,
			SpecIndex: -1,
			Message:   "plan created",
		})
		respondJSON(w, http.StatusCreated, resp)
	case ingest.OutcomeIdempotent:
		s.broker.Publish(&events.Event{
			Type:      events.EventPlanIdempotent,
			PlanID:    plan.PlanID,
			SpecIndex: -1,
			Message:   "idempotent plan replay",
		})
		respondJSON(w, http.StatusOK, resp)
	}
}

func (s *Server) respondIngestError(w http.ResponseWriter, err error) {
	var verr *ingest.ValidationError
	if errors.As(err, &verr) {
		respondJSON(w, http.StatusUnprocessableEntity, validationResponse{
			Detail: "plan validation failed",
			Errors: verr.Fields,
		})
		return
	}

	if errors.Is(err, ingest.ErrConflict) {
		metrics.PlansIngested.WithLabelValues("conflict").Inc()
		s.broker.Publish(&events.Event{
			Type:      events.EventPlanConflict,
			SpecIndex: -1,
			Message:   "plan conflict",
		})
		respondJSON(w, http.StatusConflict, detailResponse{Detail: err.Error()})
		return
	}

	logger := log.WithComponent("api")
	logger.Error().Err(err).Msg("plan ingestion failed")
	respondJSON(w, http.StatusInternalServerError, detailResponse{Detail: "internal server error"})
}

// handleGetPlan returns the status projection of one plan
func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	planID := chi.URLParam(r, "plan_id")

	includeStage := false
	if v := r.URL.Query().Get("include_stage"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			respondJSON(w, http.StatusBadRequest, detailResponse{Detail: "include_stage must be a boolean"})
			return
		}
		includeStage = parsed
	}

	view, err := projection.Project(s.store, planID, includeStage)
	if errors.Is(err, storage.ErrNotFound) {
		respondJSON(w, http.StatusNotFound, detailResponse{Detail: "plan not found"})
		return
	}
	if err != nil {
		logger := log.WithPlanID(planID)
		logger.Error().Err(err).Msg("failed to project plan status")
		respondJSON(w, http.StatusInternalServerError, detailResponse{Detail: "internal server error"})
		return
	}

	respondJSON(w, http.StatusOK, view)
}
