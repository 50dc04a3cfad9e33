package storage

import (
	"errors"

	"github.com/specfleet/foreman/pkg/types"
)

var (
	// ErrNotFound is returned when a plan or spec does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned by CreatePlanAtomic when the plan ID is taken.
	ErrAlreadyExists = errors.New("already exists")

	// ErrUnavailable is returned for transient store failures. Callers map it
	// to a retryable 5xx.
	ErrUnavailable = errors.New("store unavailable")
)

// Txn exposes reads and staged writes inside a single store transaction.
// Reads reflect a consistent snapshot; writes are applied atomically on
// commit. Transaction bodies must be pure with respect to external side
// effects: no network calls, no trigger firing.
type Txn interface {
	// Plan reads the plan record. Returns ErrNotFound if absent.
	Plan(planID string) (*types.Plan, error)

	// Spec reads one spec record. Returns ErrNotFound if absent.
	Spec(planID string, specIndex int) (*types.Spec, error)

	// PutPlan stages a plan write.
	PutPlan(plan *types.Plan) error

	// PutSpec stages a spec write.
	PutSpec(planID string, spec *types.Spec) error
}

// Store is the persistence interface for plans and specs
type Store interface {
	// LoadPlan reads a plan outside any transaction. Returns ErrNotFound if absent.
	LoadPlan(planID string) (*types.Plan, error)

	// LoadSpecs reads all specs of a plan ordered by spec index. Returns an
	// empty slice when the plan has no specs.
	LoadSpecs(planID string) ([]*types.Spec, error)

	// CreatePlanAtomic writes the plan and all its specs in one transaction,
	// conditional on the plan ID not existing. Returns ErrAlreadyExists otherwise.
	CreatePlanAtomic(plan *types.Plan, specs []*types.Spec) error

	// RunTransaction opens an interactive transaction and invokes body.
	// An error from body aborts the transaction without committing.
	RunTransaction(body func(txn Txn) error) error

	// Close releases the underlying database
	Close() error
}
