package trigger

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/specfleet/foreman/pkg/metrics"
	"github.com/specfleet/foreman/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFireDeliversSignal(t *testing.T) {
	received := make(chan Signal, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var sig Signal
		require.NoError(t, json.NewDecoder(r.Body).Decode(&sig))
		received <- sig
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	n := NewNotifier(true, srv.URL)
	spec := &types.Spec{SpecIndex: 2, Purpose: "build the emitter", Status: types.SpecStatusRunning}
	n.Fire("plan-1", 2, spec)

	select {
	case sig := <-received:
		assert.Equal(t, "plan-1", sig.PlanID)
		assert.Equal(t, 2, sig.SpecIndex)
		require.NotNil(t, sig.Spec)
		assert.Equal(t, "build the emitter", sig.Spec.Purpose)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for trigger delivery")
	}
}

// TestFireDisabled verifies a disabled notifier never contacts the endpoint
func TestFireDisabled(t *testing.T) {
	called := make(chan struct{}, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called <- struct{}{}
	}))
	defer srv.Close()

	n := NewNotifier(false, srv.URL)
	n.Fire("plan-1", 0, &types.Spec{})

	select {
	case <-called:
		t.Fatal("disabled notifier must not deliver")
	case <-time.After(200 * time.Millisecond):
	}
}

// TestFireNoEndpoint verifies an empty endpoint logs only: no delivery, no
// fired count
func TestFireNoEndpoint(t *testing.T) {
	before := testutil.ToFloat64(metrics.TriggersFired)

	n := NewNotifier(true, "")
	n.Fire("plan-1", 0, &types.Spec{})

	assert.Equal(t, before, testutil.ToFloat64(metrics.TriggersFired))
}

// TestFireToleratesFailure verifies a failing receiver never panics or
// blocks the caller
func TestFireToleratesFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewNotifier(true, srv.URL)
	done := make(chan struct{})
	go func() {
		n.Fire("plan-1", 0, &types.Spec{})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Fire blocked the caller")
	}

	// Give the delivery goroutine time to observe the 500.
	time.Sleep(100 * time.Millisecond)
}
