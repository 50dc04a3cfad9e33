/*
Package api implements the HTTP surface of the Foreman plan scheduler.

# Endpoints

	GET  /health                      liveness check
	GET  /metrics                     Prometheus metrics
	POST /plans                       plan ingestion
	GET  /plans/{plan_id}             plan status projection
	POST /pubsub/spec-status          status event webhook (authenticated)

# Response Mapping

Plan ingestion answers 201 for a new plan, 200 for an idempotent replay of
an identical payload, 409 when the plan ID exists with a different payload
and 422 for schema violations.

The status webhook translates kernel outcomes: every graceful outcome
(applied, duplicate, out_of_order, terminal_ignored, missing_plan,
missing_spec) is a 204 so the at-least-once sender stops redelivering.
Malformed envelopes are 400, failed authentication is 401 and transient
store failures are 5xx, which hands retrying back to the sender.

The server owns the component wiring: ingestion, kernel, execution trigger,
authentication predicate and the operational event broker are constructed in
NewServer around a shared Store handle.
*/
package api
