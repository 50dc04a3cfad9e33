/*
Package kernel implements the orchestration state machine for plans.

The kernel consumes one validated status event at a time and applies the
lifecycle transition inside a single store transaction. Intermediate statuses
(blocked, running) update the spec's stage and timestamps only. Terminal
statuses (finished, failed) advance the plan: finished moves the current spec
pointer forward and unblocks the successor, failed halts the plan.

# Decision Table

	event status   spec state      plan pointer        outcome
	─────────────  ─────────────   ─────────────────   ────────────────
	intermediate   any non-term    any                 applied (stage)
	terminal       terminal        any                 terminal_ignored
	terminal       non-terminal    elsewhere / none    out_of_order
	failed         non-terminal    at this spec        applied, plan failed
	finished       non-terminal    at this spec        applied, advance
	finished       last spec       at this spec        applied, plan finished

Every non-duplicate event appends a history entry, including rejected ones:
history is the audit trail. Deduplication runs on the envelope message ID
against that history, inside the transaction, so at-least-once delivery
cannot double-apply a transition. An empty message ID disables dedup for
that delivery.

Ordering is deliberate: parallel spec execution is forbidden, so a terminal
report for any spec other than the current one is treated as an error signal
about the execution fleet. It is recorded and logged at error level for
operators, never smoothed over.

The transaction body performs no external side effects. When a successor
spec is unblocked, the kernel returns a trigger request that the caller
hands to the execution trigger only after the commit.
*/
package kernel
