package kernel

import (
	"errors"
	"fmt"
	"time"

	"github.com/specfleet/foreman/pkg/envelope"
	"github.com/specfleet/foreman/pkg/events"
	"github.com/specfleet/foreman/pkg/log"
	"github.com/specfleet/foreman/pkg/metrics"
	"github.com/specfleet/foreman/pkg/storage"
	"github.com/specfleet/foreman/pkg/types"
)

// Outcome classifies how the kernel handled a status event. Every outcome is
// graceful: the HTTP layer maps all of them to 204 so the sender stops
// redelivering. Only transport-level errors surface as 5xx.
type Outcome string

const (
	OutcomeApplied         Outcome = "applied"
	OutcomeDuplicate       Outcome = "duplicate"
	OutcomeOutOfOrder      Outcome = "out_of_order"
	OutcomeTerminalIgnored Outcome = "terminal_ignored"
	OutcomeMissingPlan     Outcome = "missing_plan"
	OutcomeMissingSpec     Outcome = "missing_spec"
)

// TriggerRequest asks for an execution-fleet signal after commit
type TriggerRequest struct {
	PlanID    string
	SpecIndex int
	Spec      *types.Spec
}

// Result is the committed effect of one status event
type Result struct {
	Outcome      Outcome
	PlanFinished bool
	PlanFailed   bool

	// Trigger is non-nil when a newly unblocked spec needs an execution
	// signal. It must be fired after the transaction has committed, never
	// inside it.
	Trigger *TriggerRequest
}

// Kernel is the transactional state machine driving spec lifecycles
type Kernel struct {
	store  storage.Store
	broker *events.Broker
}

// New creates a kernel on top of the given store. The broker may be nil when
// no operational event feed is wanted (tests).
func New(store storage.Store, broker *events.Broker) *Kernel {
	return &Kernel{store: store, broker: broker}
}

// Apply consumes one validated status event and atomically advances per-spec
// and per-plan state. The decision logic runs inside a single store
// transaction; the returned trigger request, if any, has already been
// deferred past commit. A non-nil error means the transaction aborted and
// nothing was written (transient, retryable by the sender).
func (k *Kernel) Apply(event *envelope.StatusEvent) (*Result, error) {
	result := &Result{}

	err := k.store.RunTransaction(func(txn storage.Txn) error {
		return k.applyInTxn(txn, event, result)
	})
	if err != nil {
		return nil, err
	}

	k.report(event, result)
	return result, nil
}

// applyInTxn is the transaction body. It is pure apart from reads and staged
// writes on txn; outcomes are recorded on result.
func (k *Kernel) applyInTxn(txn storage.Txn, event *envelope.StatusEvent, result *Result) error {
	// Reset in case the store re-invoked the body after a conflict.
	*result = Result{}
	now := time.Now().UTC()

	plan, err := txn.Plan(event.PlanID)
	if errors.Is(err, storage.ErrNotFound) {
		result.Outcome = OutcomeMissingPlan
		return nil
	}
	if err != nil {
		return err
	}

	spec, err := txn.Spec(event.PlanID, event.SpecIndex)
	if errors.Is(err, storage.ErrNotFound) {
		result.Outcome = OutcomeMissingSpec
		return nil
	}
	if err != nil {
		return err
	}

	// Dedup on message ID against the spec's own history. An empty message
	// ID disables dedup: the event counts as a new delivery.
	if event.MessageID != "" {
		for _, entry := range spec.History {
			if entry.MessageID == event.MessageID {
				result.Outcome = OutcomeDuplicate
				return nil
			}
		}
	}

	spec.History = append(spec.History, historyEntry(event, now))

	if !event.Status.IsTerminal() {
		return k.applyIntermediate(txn, plan, spec, event, now, result)
	}
	return k.applyTerminal(txn, plan, spec, event, now, result)
}

// applyIntermediate records progress without any status transition
func (k *Kernel) applyIntermediate(txn storage.Txn, plan *types.Plan, spec *types.Spec, event *envelope.StatusEvent, now time.Time, result *Result) error {
	if event.Stage != "" {
		spec.CurrentStage = event.Stage
	}
	spec.UpdatedAt = now
	plan.UpdatedAt = now
	plan.LastEventAt = now

	if err := txn.PutSpec(plan.PlanID, spec); err != nil {
		return err
	}
	if err := txn.PutPlan(plan); err != nil {
		return err
	}
	result.Outcome = OutcomeApplied
	return nil
}

func (k *Kernel) applyTerminal(txn storage.Txn, plan *types.Plan, spec *types.Spec, event *envelope.StatusEvent, now time.Time, result *Result) error {
	// Terminal states are one-way. A second terminal report for the same
	// spec is recorded in history and otherwise ignored.
	if spec.Status.IsTerminal() {
		result.Outcome = OutcomeTerminalIgnored
		return txn.PutSpec(plan.PlanID, spec)
	}

	// Terminal events are honored only for the current spec. A future spec
	// finishing first is an error signal about the fleet, not a race to
	// smooth over: record it and leave state untouched.
	if plan.CurrentSpecIndex == nil || *plan.CurrentSpecIndex != event.SpecIndex {
		result.Outcome = OutcomeOutOfOrder
		return txn.PutSpec(plan.PlanID, spec)
	}

	spec.Status = event.Status
	spec.UpdatedAt = now
	plan.UpdatedAt = now
	plan.LastEventAt = now

	if event.Status == types.SpecStatusFailed {
		plan.OverallStatus = types.PlanStatusFailed
		plan.CurrentSpecIndex = nil
		result.Outcome = OutcomeApplied
		result.PlanFailed = true

		if err := txn.PutSpec(plan.PlanID, spec); err != nil {
			return err
		}
		return txn.PutPlan(plan)
	}

	// finished
	plan.CompletedSpecs++

	if event.SpecIndex == plan.TotalSpecs-1 {
		plan.OverallStatus = types.PlanStatusFinished
		plan.CurrentSpecIndex = nil
		result.Outcome = OutcomeApplied
		result.PlanFinished = true

		if err := txn.PutSpec(plan.PlanID, spec); err != nil {
			return err
		}
		return txn.PutPlan(plan)
	}

	nextIndex := event.SpecIndex + 1
	next, err := txn.Spec(plan.PlanID, nextIndex)
	if err != nil {
		return fmt.Errorf("failed to read next spec %d of plan %s: %w", nextIndex, plan.PlanID, err)
	}
	if next.Status != types.SpecStatusBlocked {
		// Can only happen under corruption; abort without committing.
		return fmt.Errorf("invariant violation: next spec %d of plan %s has status %q, want blocked",
			nextIndex, plan.PlanID, next.Status)
	}

	next.Status = types.SpecStatusRunning
	next.UpdatedAt = now
	idx := nextIndex
	plan.CurrentSpecIndex = &idx

	result.Outcome = OutcomeApplied
	result.Trigger = &TriggerRequest{PlanID: plan.PlanID, SpecIndex: nextIndex, Spec: next}

	if err := txn.PutSpec(plan.PlanID, spec); err != nil {
		return err
	}
	if err := txn.PutSpec(plan.PlanID, next); err != nil {
		return err
	}
	return txn.PutPlan(plan)
}

func historyEntry(event *envelope.StatusEvent, now time.Time) types.HistoryEntry {
	ts := now
	if event.Timestamp != "" {
		if parsed, err := time.Parse(time.RFC3339, event.Timestamp); err == nil {
			ts = parsed
		}
	}
	return types.HistoryEntry{
		Timestamp:      ts,
		ReceivedStatus: string(event.Status),
		Stage:          event.Stage,
		Details:        event.Details,
		CorrelationID:  event.CorrelationID,
		MessageID:      event.MessageID,
		RawSnippet:     event.RawSnippet,
	}
}

// report logs the committed outcome, bumps counters and publishes the
// operational event. Runs after the transaction has committed.
func (k *Kernel) report(event *envelope.StatusEvent, result *Result) {
	metrics.StatusEventsTotal.WithLabelValues(string(result.Outcome)).Inc()

	logger := log.WithComponent("kernel").With().
		Str("plan_id", event.PlanID).
		Int("spec_index", event.SpecIndex).
		Str("message_id", event.MessageID).
		Logger()

	switch result.Outcome {
	case OutcomeApplied:
		switch {
		case result.PlanFailed:
			metrics.PlansFailed.Inc()
			logger.Info().Str("event_type", string(events.EventTerminalSpecFailed)).
				Msg("spec failed, plan marked as failed")
			k.publish(events.EventTerminalSpecFailed, event, "spec failed, plan failed")
		case result.PlanFinished:
			metrics.PlansFinished.Inc()
			logger.Info().Str("event_type", string(events.EventTerminalPlanFinished)).
				Msg("plan completed, all specs finished")
			k.publish(events.EventTerminalPlanFinished, event, "plan finished")
		case result.Trigger != nil:
			logger.Info().Str("event_type", string(events.EventTerminalSpecFinished)).
				Int("next_spec_index", result.Trigger.SpecIndex).
				Msg("spec finished, next spec unblocked")
			k.publish(events.EventTerminalSpecFinished, event, "spec finished, next spec unblocked")
		default:
			logger.Info().Str("event_type", string(events.EventNonTerminalUpdate)).
				Str("stage", event.Stage).
				Msg("intermediate status recorded")
			k.publish(events.EventNonTerminalUpdate, event, "intermediate status recorded")
		}
	case OutcomeDuplicate:
		logger.Info().Str("event_type", string(events.EventDuplicateMessage)).
			Msg("duplicate message skipped")
		k.publish(events.EventDuplicateMessage, event, "duplicate message skipped")
	case OutcomeOutOfOrder:
		logger.Error().Str("event_type", string(events.EventOutOfOrder)).
			Str("received_status", string(event.Status)).
			Msg("out-of-order terminal event recorded without state change")
		k.publish(events.EventOutOfOrder, event, "out-of-order terminal event")
	case OutcomeTerminalIgnored:
		logger.Warn().Str("event_type", string(events.EventOutOfOrder)).
			Str("received_status", string(event.Status)).
			Msg("terminal event for already-terminal spec ignored")
		k.publish(events.EventOutOfOrder, event, "terminal event for terminal spec ignored")
	case OutcomeMissingPlan:
		logger.Warn().Str("event_type", string(events.EventMissingPlan)).
			Msg("plan not found for status event")
		k.publish(events.EventMissingPlan, event, "plan not found")
	case OutcomeMissingSpec:
		logger.Warn().Str("event_type", string(events.EventMissingSpec)).
			Msg("spec not found for status event")
		k.publish(events.EventMissingSpec, event, "spec not found")
	}
}

func (k *Kernel) publish(eventType events.EventType, event *envelope.StatusEvent, msg string) {
	if k.broker == nil {
		return
	}
	k.broker.Publish(&events.Event{
		Type:      eventType,
		PlanID:    event.PlanID,
		SpecIndex: event.SpecIndex,
		MessageID: event.MessageID,
		Message:   msg,
	})
}
