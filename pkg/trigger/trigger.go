package trigger

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/specfleet/foreman/pkg/log"
	"github.com/specfleet/foreman/pkg/metrics"
	"github.com/specfleet/foreman/pkg/types"
)

// DefaultTimeout bounds a single trigger delivery attempt
const DefaultTimeout = 5 * time.Second

// Notifier signals the execution fleet that a spec became runnable.
// Deliveries are fire-and-forget: they never block the caller beyond
// spawning a goroutine and never roll back committed state. The receiver
// must tolerate repeated signals for the same (plan, spec).
type Notifier struct {
	enabled  bool
	endpoint string
	client   *http.Client
}

// Signal is the request body posted to the execution fleet
type Signal struct {
	PlanID    string      `json:"plan_id"`
	SpecIndex int         `json:"spec_index"`
	Spec      *types.Spec `json:"spec"`
}

// NewNotifier creates an execution trigger. When disabled, or when the
// endpoint is empty, Fire only logs the signal.
func NewNotifier(enabled bool, endpoint string) *Notifier {
	return &Notifier{
		enabled:  enabled,
		endpoint: endpoint,
		client: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// Fire asynchronously signals the fleet to begin work on a spec
func (n *Notifier) Fire(planID string, specIndex int, spec *types.Spec) {
	logger := log.WithComponent("trigger").With().
		Str("plan_id", planID).
		Int("spec_index", specIndex).
		Logger()

	if !n.enabled {
		logger.Info().Bool("execution_enabled", false).
			Msg("execution disabled, skipping spec execution trigger")
		return
	}

	if n.endpoint == "" {
		logger.Info().Msg("no execution endpoint configured, trigger logged only")
		return
	}

	metrics.TriggersFired.Inc()

	go func() {
		if err := n.deliver(planID, specIndex, spec); err != nil {
			metrics.TriggersFailed.Inc()
			logger.Warn().Err(err).Msg("execution trigger delivery failed")
			return
		}
		logger.Info().Msg("execution trigger delivered")
	}()
}

func (n *Notifier) deliver(planID string, specIndex int, spec *types.Spec) error {
	body, err := json.Marshal(Signal{PlanID: planID, SpecIndex: specIndex, Spec: spec})
	if err != nil {
		return fmt.Errorf("failed to encode trigger signal: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), DefaultTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("execution fleet returned HTTP %d", resp.StatusCode)
	}
	return nil
}
