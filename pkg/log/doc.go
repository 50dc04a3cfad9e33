/*
Package log provides structured logging for Foreman using zerolog.

The log package wraps the zerolog library to provide JSON-structured logging
with component-specific loggers, configurable log levels, and helper functions
for common logging patterns. All logs include timestamps and the configured
service name, and support filtering by severity level.

# Usage

Initialize once at startup, then derive child loggers per concern:

	log.Init(log.Config{Level: log.InfoLevel, ServiceName: "foreman", JSONOutput: true})

	logger := log.WithComponent("kernel")
	logger.Info().
		Str("plan_id", planID).
		Int("spec_index", idx).
		Str("event_type", "terminal_spec_finished").
		Msg("spec finished")

# Field Conventions

Every record emitted on a plan's behalf carries plan_id, spec_index and
message_id where relevant, plus an event_type tag from the closed set defined
in the events package. Raw inbound payloads are never logged beyond the
1000-byte snippet kept in spec history; secrets and auth material are never
logged at all.
*/
package log
