package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/specfleet/foreman/pkg/canonical"
	"github.com/specfleet/foreman/pkg/log"
	"github.com/specfleet/foreman/pkg/storage"
	"github.com/specfleet/foreman/pkg/types"
)

// Outcome describes the result of a plan ingestion
type Outcome string

const (
	// OutcomeCreated means a new plan was persisted
	OutcomeCreated Outcome = "created"

	// OutcomeIdempotent means the plan already existed with an identical payload
	OutcomeIdempotent Outcome = "idempotent"
)

// ErrConflict is returned when the plan ID exists with a different payload
var ErrConflict = errors.New("plan already exists with different body")

// FieldError is one machine-readable validation failure
type FieldError struct {
	Field string `json:"field"`
	Error string `json:"error"`
}

// ValidationError aggregates schema violations in the creation payload.
// The HTTP layer maps it to 422.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "invalid plan payload"
	}
	return fmt.Sprintf("invalid plan payload: %s: %s", e.Fields[0].Field, e.Fields[0].Error)
}

// Service performs idempotent plan ingestion
type Service struct {
	store    storage.Store
	validate *validator.Validate
}

// NewService creates a new ingestion service
func NewService(store storage.Store) *Service {
	return &Service{
		store:    store,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Ingest validates and persists a plan creation payload.
//
// Semantics are create-or-match: a new plan ID is created atomically with all
// its specs; a known plan ID with a byte-identical canonical payload is an
// idempotent success; a known plan ID with any other payload is ErrConflict.
// Schema violations return *ValidationError.
func (s *Service) Ingest(raw []byte) (Outcome, *types.Plan, error) {
	var in types.PlanInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return "", nil, &ValidationError{Fields: []FieldError{
			{Field: "body", Error: fmt.Sprintf("malformed JSON: %v", err)},
		}}
	}

	if err := s.validate.Struct(&in); err != nil {
		return "", nil, toValidationError(err)
	}

	canon, err := canonical.Canonicalize(raw)
	if err != nil {
		return "", nil, &ValidationError{Fields: []FieldError{
			{Field: "body", Error: err.Error()},
		}}
	}
	digest, err := canonical.Digest(canon)
	if err != nil {
		return "", nil, err
	}

	now := time.Now().UTC()
	plan := types.NewPlan(&in, digest, canon, now)
	specs := types.NewSpecs(&in, now)

	logger := log.WithComponent("ingest")

	err = s.store.CreatePlanAtomic(plan, specs)
	if err == nil {
		logger.Info().
			Str("plan_id", plan.PlanID).
			Int("total_specs", plan.TotalSpecs).
			Str("event_type", "plan_created").
			Msg("plan created, first spec running")
		return OutcomeCreated, plan, nil
	}
	if !errors.Is(err, storage.ErrAlreadyExists) {
		return "", nil, fmt.Errorf("failed to create plan %s: %w", in.ID, err)
	}

	// Plan ID taken: compare digests to distinguish a retry from a conflict.
	existing, err := s.store.LoadPlan(in.ID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to load existing plan %s: %w", in.ID, err)
	}

	if existing.RequestDigest == digest {
		logger.Info().
			Str("plan_id", in.ID).
			Str("event_type", "plan_idempotent").
			Msg("plan already exists with identical payload, skipping duplicate ingestion")
		return OutcomeIdempotent, existing, nil
	}

	logger.Warn().
		Str("plan_id", in.ID).
		Str("stored_digest", existing.RequestDigest).
		Str("incoming_digest", digest).
		Str("event_type", "plan_conflict").
		Msg("plan ingestion conflict")
	return "", nil, fmt.Errorf("plan %s: %w", in.ID, ErrConflict)
}

func toValidationError(err error) *ValidationError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Fields: []FieldError{{Field: "body", Error: err.Error()}}}
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field: fe.Namespace(),
			Error: fmt.Sprintf("failed %q validation", fe.Tag()),
		})
	}
	return &ValidationError{Fields: fields}
}
