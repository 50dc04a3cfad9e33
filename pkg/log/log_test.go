package log

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func initBuffer(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	Init(Config{
		Level:       DebugLevel,
		ServiceName: "foreman-test",
		JSONOutput:  true,
		Output:      &buf,
	})
	return &buf
}

func parseLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var records []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var record map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &record))
		records = append(records, record)
	}
	return records
}

// TestHelpersChainLevelMethods binds each helper's logger to a variable and
// chains level methods off it, the only form the returned value supports
func TestHelpersChainLevelMethods(t *testing.T) {
	buf := initBuffer(t)

	logger := WithComponent("api")
	logger.Debug().Str("route", "/health").Msg("request handled")

	planLogger := WithPlanID("plan-1")
	planLogger.Error().Msg("projection failed")

	specLogger := WithSpec("plan-1", 2)
	specLogger.Info().Msg("spec advanced")

	msgLogger := WithMessageID("m1")
	msgLogger.Warn().Msg("duplicate skipped")

	records := parseLines(t, buf)
	require.Len(t, records, 4)

	assert.Equal(t, "api", records[0]["component"])
	assert.Equal(t, "/health", records[0]["route"])
	assert.Equal(t, "plan-1", records[1]["plan_id"])
	assert.Equal(t, "error", records[1]["level"])
	assert.Equal(t, float64(2), records[2]["spec_index"])
	assert.Equal(t, "m1", records[3]["message_id"])

	for _, record := range records {
		assert.Equal(t, "foreman-test", record["service"])
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	Init(Config{Level: WarnLevel, JSONOutput: true, Output: &buf})

	logger := WithComponent("kernel")
	logger.Debug().Msg("hidden")
	logger.Info().Msg("hidden")
	logger.Warn().Msg("visible")

	records := parseLines(t, &buf)
	require.Len(t, records, 1)
	assert.Equal(t, "visible", records[0]["message"])
}
