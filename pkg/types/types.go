package types

import (
	"time"
)

// PlanStatus represents the overall state of a plan
type PlanStatus string

const (
	PlanStatusRunning  PlanStatus = "running"
	PlanStatusFinished PlanStatus = "finished"
	PlanStatusFailed   PlanStatus = "failed"
)

// SpecStatus represents the state of a single spec
type SpecStatus string

const (
	SpecStatusBlocked  SpecStatus = "blocked"
	SpecStatusRunning  SpecStatus = "running"
	SpecStatusFinished SpecStatus = "finished"
	SpecStatusFailed   SpecStatus = "failed"
)

// IsTerminal reports whether the status ends a spec's lifecycle.
// Only finished and failed drive state machine transitions; blocked and
// running are informational.
func (s SpecStatus) IsTerminal() bool {
	return s == SpecStatusFinished || s == SpecStatusFailed
}

// ValidSpecStatus reports whether s is one of the four recognized statuses.
func ValidSpecStatus(s SpecStatus) bool {
	switch s {
	case SpecStatusBlocked, SpecStatusRunning, SpecStatusFinished, SpecStatusFailed:
		return true
	}
	return false
}

// Plan is the per-plan metadata record. One exists per plan, keyed by
// PlanID. It is created by ingestion and thereafter mutated only by the
// orchestration kernel.
type Plan struct {
	PlanID           string     `json:"plan_id"`
	OverallStatus    PlanStatus `json:"overall_status"`
	TotalSpecs       int        `json:"total_specs"`
	CompletedSpecs   int        `json:"completed_specs"`
	CurrentSpecIndex *int       `json:"current_spec_index"` // nil when no spec is running
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	LastEventAt      time.Time  `json:"last_event_at"`
	RequestDigest    string     `json:"request_digest"` // hex SHA-256 of the canonical creation payload
	RawRequest       []byte     `json:"raw_request"`    // canonical creation payload, retained for audit
}

// Spec is one unit of work inside a plan, keyed by (PlanID, SpecIndex).
// Content fields are opaque to the kernel; list fields are always present,
// possibly empty, never nil.
type Spec struct {
	SpecIndex    int            `json:"spec_index"`
	Purpose      string         `json:"purpose"`
	Vision       string         `json:"vision"`
	Must         []string       `json:"must"`
	Dont         []string       `json:"dont"`
	Nice         []string       `json:"nice"`
	Assumptions  []string       `json:"assumptions"`
	Status       SpecStatus     `json:"status"`
	CurrentStage string         `json:"current_stage,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	History      []HistoryEntry `json:"history"`
}

// HistoryEntry is one append-only audit record on a spec. Entries are never
// modified or removed, and a MessageID appears at most once per spec.
type HistoryEntry struct {
	Timestamp      time.Time `json:"timestamp"`
	ReceivedStatus string    `json:"received_status"`
	Stage          string    `json:"stage,omitempty"`
	Details        string    `json:"details,omitempty"`
	CorrelationID  string    `json:"correlation_id,omitempty"`
	MessageID      string    `json:"message_id,omitempty"`
	RawSnippet     string    `json:"raw_snippet"`
}

// SpecInput is the inbound content of one spec in a plan creation request.
type SpecInput struct {
	Purpose     string   `json:"purpose" validate:"required"`
	Vision      string   `json:"vision" validate:"required"`
	Must        []string `json:"must"`
	Dont        []string `json:"dont"`
	Nice        []string `json:"nice"`
	Assumptions []string `json:"assumptions"`
}

// PlanInput is the inbound plan creation request.
type PlanInput struct {
	ID    string      `json:"id" validate:"required,uuid"`
	Specs []SpecInput `json:"specs" validate:"required,min=1,dive"`
}

// NewPlan builds the initial plan record for a freshly ingested plan.
// The first spec starts running, so CurrentSpecIndex is 0.
func NewPlan(in *PlanInput, digest string, raw []byte, now time.Time) *Plan {
	idx := 0
	return &Plan{
		PlanID:           in.ID,
		OverallStatus:    PlanStatusRunning,
		TotalSpecs:       len(in.Specs),
		CompletedSpecs:   0,
		CurrentSpecIndex: &idx,
		CreatedAt:        now,
		UpdatedAt:        now,
		LastEventAt:      now,
		RequestDigest:    digest,
		RawRequest:       raw,
	}
}

// NewSpecs builds the initial spec records for a plan. Spec 0 starts
// running; all others start blocked.
func NewSpecs(in *PlanInput, now time.Time) []*Spec {
	specs := make([]*Spec, 0, len(in.Specs))
	for idx, si := range in.Specs {
		status := SpecStatusBlocked
		if idx == 0 {
			status = SpecStatusRunning
		}
		specs = append(specs, &Spec{
			SpecIndex:   idx,
			Purpose:     si.Purpose,
			Vision:      si.Vision,
			Must:        emptyIfNil(si.Must),
			Dont:        emptyIfNil(si.Dont),
			Nice:        emptyIfNil(si.Nice),
			Assumptions: emptyIfNil(si.Assumptions),
			Status:      status,
			CreatedAt:   now,
			UpdatedAt:   now,
			History:     []HistoryEntry{},
		})
	}
	return specs
}

// emptyIfNil normalizes absent list fields so they always serialize as
// lists, never null.
func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
