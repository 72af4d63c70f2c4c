package nutricoach

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFlowLogFilePath(t *testing.T) {
	path := NewFlowLogFilePath()
	assert.True(t, strings.HasPrefix(path, "./logs/"), path)
	assert.True(t, strings.HasSuffix(path, ".flow.json"), path)
	assert.NotEqual(t, "./logs/.flow.json", path, "path carries a timestamp")
}

func TestFileFlowLogger_FlushWritesOneDocument(t *testing.T) {
	var buf bytes.Buffer
	logger := NewFileFlowLogger(&buf)

	require.NoError(t, logger.LogEvent(EventLog{
		Timestamp: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		UserID:    "u1",
		Kind:      string(EventText),
		Input:     "/set_profile",
		Outgoing:  1,
	}))
	require.NoError(t, logger.LogEvent(EventLog{
		UserID:   "u1",
		Kind:     string(EventText),
		Input:    "70",
		Outgoing: 1,
		UpstreamCalls: []UpstreamCallLog{
			{Service: "weather", Query: "Lisbon", DurationMS: 12},
		},
	}))

	// Nothing hits the writer until Flush.
	assert.Zero(t, buf.Len())

	require.NoError(t, logger.Flush())

	var doc struct {
		FlowSession struct {
			Events []EventLog `json:"events"`
		} `json:"flow_session"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.FlowSession.Events, 2)
	assert.Equal(t, "/set_profile", doc.FlowSession.Events[0].Input)
	assert.Equal(t, "weather", doc.FlowSession.Events[1].UpstreamCalls[0].Service)
}

func TestFileFlowLogger_FlushClearsBuffer(t *testing.T) {
	var buf bytes.Buffer
	logger := NewFileFlowLogger(&buf)

	require.NoError(t, logger.LogEvent(EventLog{UserID: "u1"}))
	require.NoError(t, logger.Flush())

	buf.Reset()
	require.NoError(t, logger.Flush())

	var doc struct {
		FlowSession struct {
			Events []EventLog `json:"events"`
		} `json:"flow_session"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	assert.Empty(t, doc.FlowSession.Events)
}
