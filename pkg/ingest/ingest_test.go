package ingest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/specfleet/foreman/pkg/storage"
	"github.com/specfleet/foreman/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPlanID = "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"

func newTestService(t *testing.T) *Service {
	t.Helper()
	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return NewService(store)
}

func planBody(planID string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": %q,
		"specs": [
			{"purpose": "build the parser", "vision": "fast and correct", "must": ["handle utf8"]},
			{"purpose": "build the emitter", "vision": "stable output"}
		]
	}`, planID))
}

func TestIngestCreated(t *testing.T) {
	svc := newTestService(t)

	outcome, plan, err := svc.Ingest(planBody(testPlanID))
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, outcome)
	require.NotNil(t, plan)
	assert.Equal(t, testPlanID, plan.PlanID)
	assert.Equal(t, types.PlanStatusRunning, plan.OverallStatus)
	assert.Equal(t, 2, plan.TotalSpecs)
	require.NotNil(t, plan.CurrentSpecIndex)
	assert.Equal(t, 0, *plan.CurrentSpecIndex)
	assert.Len(t, plan.RequestDigest, 64)
}

// TestIngestIdempotentRetry verifies an identical resend succeeds without
// touching state, even when the resend differs in key order and whitespace
func TestIngestIdempotentRetry(t *testing.T) {
	svc := newTestService(t)

	outcome, _, err := svc.Ingest(planBody(testPlanID))
	require.NoError(t, err)
	require.Equal(t, OutcomeCreated, outcome)

	reordered := []byte(fmt.Sprintf(`{"specs":[{"must":["handle utf8"],"vision":"fast and correct","purpose":"build the parser"},{"vision":"stable output","purpose":"build the emitter"}],"id":%q}`, testPlanID))

	outcome, plan, err := svc.Ingest(reordered)
	require.NoError(t, err)
	assert.Equal(t, OutcomeIdempotent, outcome)
	require.NotNil(t, plan)
	assert.Equal(t, testPlanID, plan.PlanID)
}

func TestIngestConflict(t *testing.T) {
	svc := newTestService(t)

	_, _, err := svc.Ingest(planBody(testPlanID))
	require.NoError(t, err)

	different := []byte(fmt.Sprintf(`{"id": %q, "specs": [{"purpose": "something else", "vision": "entirely"}]}`, testPlanID))
	_, _, err = svc.Ingest(different)
	assert.ErrorIs(t, err, ErrConflict)
}

func TestIngestValidation(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name      string
		body      string
		wantField string
	}{
		{
			name:      "malformed json",
			body:      `{"id":`,
			wantField: "body",
		},
		{
			name:      "missing id",
			body:      `{"specs": [{"purpose": "p", "vision": "v"}]}`,
			wantField: "PlanInput.ID",
		},
		{
			name:      "id not uuid",
			body:      `{"id": "not-a-uuid", "specs": [{"purpose": "p", "vision": "v"}]}`,
			wantField: "PlanInput.ID",
		},
		{
			name:      "empty specs",
			body:      fmt.Sprintf(`{"id": %q, "specs": []}`, testPlanID),
			wantField: "PlanInput.Specs",
		},
		{
			name:      "spec missing purpose",
			body:      fmt.Sprintf(`{"id": %q, "specs": [{"vision": "v"}]}`, testPlanID),
			wantField: "Purpose",
		},
		{
			name:      "spec missing vision",
			body:      fmt.Sprintf(`{"id": %q, "specs": [{"purpose": "p"}]}`, testPlanID),
			wantField: "Vision",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := svc.Ingest([]byte(tt.body))
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			require.NotEmpty(t, verr.Fields)

			found := false
			for _, f := range verr.Fields {
				if strings.Contains(f.Field, tt.wantField) {
					found = true
				}
			}
			assert.True(t, found, "expected a field error mentioning %q, got %+v", tt.wantField, verr.Fields)
		})
	}
}

// TestIngestCreatesSpecsAtomically verifies spec records land alongside the
// plan in one transaction
func TestIngestCreatesSpecsAtomically(t *testing.T) {
	store, err := storage.NewBoltStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	svc := NewService(store)

	_, _, err = svc.Ingest(planBody(testPlanID))
	require.NoError(t, err)

	specs, err := store.LoadSpecs(testPlanID)
	require.NoError(t, err)
	require.Len(t, specs, 2)
	assert.Equal(t, types.SpecStatusRunning, specs[0].Status)
	assert.Equal(t, types.SpecStatusBlocked, specs[1].Status)
	assert.Equal(t, "build the parser", specs[0].Purpose)
	assert.NotNil(t, specs[1].Must)
	assert.Empty(t, specs[1].Must)
}
