package projection

import (
	"time"

	"github.com/specfleet/foreman/pkg/storage"
	"github.com/specfleet/foreman/pkg/types"
)

// SpecView is the lightweight external view of one spec
type SpecView struct {
	SpecIndex int              `json:"spec_index"`
	Status    types.SpecStatus `json:"status"`
	Stage     *string          `json:"stage"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// PlanView is the external status view of a plan
type PlanView struct {
	PlanID           string           `json:"plan_id"`
	OverallStatus    types.PlanStatus `json:"overall_status"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	TotalSpecs       int              `json:"total_specs"`
	CompletedSpecs   int              `json:"completed_specs"`
	CurrentSpecIndex *int             `json:"current_spec_index"`
	Specs            []SpecView       `json:"specs"`
}

// Project computes the status view for a plan. CompletedSpecs and
// CurrentSpecIndex are recomputed from the spec list rather than read off
// the plan record, so a desynchronized counter can never leak out. Returns
// storage.ErrNotFound when the plan does not exist.
func Project(store storage.Store, planID string, includeStage bool) (*PlanView, error) {
	plan, err := store.LoadPlan(planID)
	if err != nil {
		return nil, err
	}
	specs, err := store.LoadSpecs(planID)
	if err != nil {
		return nil, err
	}

	view := &PlanView{
		PlanID:        plan.PlanID,
		OverallStatus: plan.OverallStatus,
		CreatedAt:     plan.CreatedAt,
		UpdatedAt:     plan.UpdatedAt,
		TotalSpecs:    plan.TotalSpecs,
		Specs:         make([]SpecView, 0, len(specs)),
	}

	for _, spec := range specs {
		sv := SpecView{
			SpecIndex: spec.SpecIndex,
			Status:    spec.Status,
			UpdatedAt: spec.UpdatedAt,
		}
		if includeStage && spec.CurrentStage != "" {
			stage := spec.CurrentStage
			sv.Stage = &stage
		}
		view.Specs = append(view.Specs, sv)

		switch spec.Status {
		case types.SpecStatusFinished:
			view.CompletedSpecs++
		case types.SpecStatusRunning:
			idx := spec.SpecIndex
			view.CurrentSpecIndex = &idx
		}
	}

	return view, nil
}
