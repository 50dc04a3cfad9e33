package envelope

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/specfleet/foreman/pkg/types"
)

// MaxSnippetBytes bounds the raw payload snippet kept in spec history
const MaxSnippetBytes = 1000

// ErrBadInput is wrapped by every decode or validation failure. The HTTP
// layer maps it to 400.
var ErrBadInput = errors.New("bad input")

// Envelope is the push envelope delivered by the inbound channel
type Envelope struct {
	Message      Message `json:"message"`
	Subscription string  `json:"subscription"`
}

// Message carries the base64-encoded payload and delivery metadata
type Message struct {
	Data        string            `json:"data"`
	Attributes  map[string]string `json:"attributes"`
	MessageID   string            `json:"messageId"`
	PublishTime string            `json:"publishTime"`
}

// statusPayload is the decoded inner JSON of a status event
type statusPayload struct {
	PlanID        string  `json:"plan_id"`
	SpecIndex     *int    `json:"spec_index"`
	Status        string  `json:"status"`
	Stage         *string `json:"stage"`
	Details       *string `json:"details"`
	CorrelationID *string `json:"correlation_id"`
	Timestamp     *string `json:"timestamp"`
}

// StatusEvent is a fully validated inbound status notification
type StatusEvent struct {
	PlanID        string
	SpecIndex     int
	Status        types.SpecStatus
	Stage         string
	Details       string
	CorrelationID string
	Timestamp     string

	// MessageID deduplicates redeliveries. Empty disables dedup for this
	// event: it is treated as a new delivery.
	MessageID string

	// RawSnippet is the decoded inner JSON truncated to MaxSnippetBytes,
	// kept for the history entry.
	RawSnippet string
}

// Decode parses a push envelope body into a validated StatusEvent. Any
// malformed envelope, base64 data, inner JSON or schema violation fails with
// an error wrapping ErrBadInput.
func Decode(body []byte) (*StatusEvent, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: malformed envelope: %v", ErrBadInput, err)
	}
	if env.Message.Data == "" {
		return nil, fmt.Errorf("%w: message data is empty or missing", ErrBadInput)
	}

	decoded, err := base64.StdEncoding.DecodeString(env.Message.Data)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to decode base64 message data: %v", ErrBadInput, err)
	}
	if !utf8.Valid(decoded) {
		return nil, fmt.Errorf("%w: message data is not valid UTF-8", ErrBadInput)
	}

	// Require a JSON object before schema validation so arrays and scalars
	// produce a clear error.
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(decoded, &probe); err != nil || probe == nil {
		return nil, fmt.Errorf("%w: message payload must be a JSON object", ErrBadInput)
	}

	var payload statusPayload
	if err := json.Unmarshal(decoded, &payload); err != nil {
		return nil, fmt.Errorf("%w: failed to parse message as JSON: %v", ErrBadInput, err)
	}

	event, err := validatePayload(&payload)
	if err != nil {
		return nil, err
	}

	event.MessageID = env.Message.MessageID
	event.RawSnippet = truncate(string(decoded), MaxSnippetBytes)
	return event, nil
}

func validatePayload(p *statusPayload) (*StatusEvent, error) {
	if p.PlanID == "" {
		return nil, fmt.Errorf("%w: plan_id is required", ErrBadInput)
	}
	if _, err := uuid.Parse(p.PlanID); err != nil {
		return nil, fmt.Errorf("%w: plan_id is not a valid UUID: %s", ErrBadInput, p.PlanID)
	}
	if p.SpecIndex == nil {
		return nil, fmt.Errorf("%w: spec_index is required", ErrBadInput)
	}
	if *p.SpecIndex < 0 {
		return nil, fmt.Errorf("%w: spec_index must be non-negative", ErrBadInput)
	}

	status := types.SpecStatus(p.Status)
	if !types.ValidSpecStatus(status) {
		return nil, fmt.Errorf("%w: unknown status %q", ErrBadInput, p.Status)
	}

	event := &StatusEvent{
		PlanID:    p.PlanID,
		SpecIndex: *p.SpecIndex,
		Status:    status,
	}
	if p.Stage != nil {
		event.Stage = *p.Stage
	}
	if p.Details != nil {
		event.Details = *p.Details
	}
	if p.CorrelationID != nil {
		event.CorrelationID = *p.CorrelationID
	}
	if p.Timestamp != nil && *p.Timestamp != "" {
		if _, err := time.Parse(time.RFC3339, *p.Timestamp); err != nil {
			return nil, fmt.Errorf("%w: timestamp is not RFC3339: %s", ErrBadInput, *p.Timestamp)
		}
		event.Timestamp = *p.Timestamp
	}
	return event, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
