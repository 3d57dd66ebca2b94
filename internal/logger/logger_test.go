package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		in   string
		want Level
	}{
		{"trace", LevelTrace},
		{"DEBUG", LevelDebug},
		{"", LevelInfo},
		{"info", LevelInfo},
		{"warn", LevelWarning},
		{"Warning", LevelWarning},
		{"error", LevelError},
		{"fatal", LevelFatal},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseLevel(tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	level, err := ParseLevel("loud")
	assert.Error(t, err)
	assert.Equal(t, LevelInfo, level)
}

func TestSetupJSONAndLevels(t *testing.T) {
	var buf bytes.Buffer
	Setup(&buf, FormatJSON, LevelTrace)
	t.Cleanup(func() { Setup(&bytes.Buffer{}, FormatText, LevelInfo) })

	Trace("walking", "rule", 2)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "TRACE", record["level"])
	assert.Equal(t, "walking", record["msg"])
	assert.Equal(t, float64(2), record["rule"])

	buf.Reset()
	SetLevel(LevelWarning)
	Info("hidden")
	assert.Empty(t, buf.String())
	assert.Equal(t, LevelWarning, GetLevel())
}

func TestCountersIgnoreSampling(t *testing.T) {
	Setup(&bytes.Buffer{}, FormatText, LevelInfo)

	before := TotalErrors.Load()
	Error("boom")
	CountHTTPStatus(500)
	assert.Equal(t, before+2, TotalErrors.Load())

	warn := TotalWarnings.Load()
	CountHTTPStatus(404)
	assert.Equal(t, warn+1, TotalWarnings.Load())
}
