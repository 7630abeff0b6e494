package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSlogLogger_Log(t *testing.T) {
	tests := []struct {
		name          string
		event         Event
		wantEventType string
		wantSuccess   bool
		wantHasError  bool
		wantCaptureID bool
	}{
		{
			name: "capture stored by authenticated user",
			event: Event{
				EventType: EventCaptureStored,
				UserID:    "1b4e28ba-2fa1-11d2-883f-0016d3cca427",
				CaptureID: "20240501_123045_3",
				Success:   true,
				Metadata:  map[string]string{"emotion": "happy"},
			},
			wantEventType: string(EventCaptureStored),
			wantSuccess:   true,
			wantCaptureID: true,
		},
		{
			name: "failed capture read",
			event: Event{
				EventType: EventCaptureRead,
				CaptureID: "20240501_123045_9",
				Success:   false,
				Error:     "artifact not found",
			},
			wantEventType: string(EventCaptureRead),
			wantHasError:  true,
			wantCaptureID: true,
		},
		{
			name: "listing with client details",
			event: Event{
				EventType: EventCapturesListed,
				Success:   true,
				IPAddress: "192.168.1.1",
				UserAgent: "Mozilla/5.0",
			},
			wantEventType: string(EventCapturesListed),
			wantSuccess:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			auditLogger := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))

			err := auditLogger.Log(context.Background(), tt.event)
			require.NoError(t, err)

			output := buf.String()
			assert.Contains(t, output, tt.wantEventType)
			assert.Contains(t, output, "audit_event")
			assert.Contains(t, output, `"component":"audit"`)

			if tt.wantHasError {
				assert.Contains(t, output, tt.event.Error)
			}
			if tt.wantCaptureID {
				assert.Contains(t, output, tt.event.CaptureID)
			}
		})
	}
}

func TestSlogLogger_Log_GeneratesIDAndTimestamp(t *testing.T) {
	var buf bytes.Buffer
	auditLogger := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	fixed := time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC)
	auditLogger.now = func() time.Time { return fixed }

	err := auditLogger.Log(context.Background(), Event{EventType: EventCapturesListed, Success: true})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))

	eventID, ok := entry["event_id"].(string)
	require.True(t, ok)
	_, err = uuid.Parse(eventID)
	assert.NoError(t, err)

	var event Event
	require.NoError(t, json.Unmarshal([]byte(entry["event_data"].(string)), &event))
	assert.Equal(t, fixed, event.Timestamp)
	assert.NotContains(t, entry, "user_id")
}

func TestSlogLogger_Log_UsesProvidedID(t *testing.T) {
	var buf bytes.Buffer
	auditLogger := NewSlogLogger(slog.New(slog.NewJSONHandler(&buf, nil)))
	expectedID := uuid.New()

	err := auditLogger.Log(context.Background(), Event{
		ID:        expectedID,
		Timestamp: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		EventType: EventMetadataRead,
		Success:   true,
	})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), expectedID.String())
}

func TestNoOpLogger_Log(t *testing.T) {
	logger := &NoOpLogger{}
	assert.NoError(t, logger.Log(context.Background(), Event{EventType: EventCaptureStored}))
}

func TestLoggerInterface_Compliance(t *testing.T) {
	var _ Logger = (*SlogLogger)(nil)
	var _ Logger = (*NoOpLogger)(nil)
}

func TestEvent_JSONSerialization_OmitsEmptyFields(t *testing.T) {
	data, err := json.Marshal(Event{EventType: EventCaptureRead, Success: true})
	require.NoError(t, err)

	jsonStr := string(data)
	assert.NotContains(t, jsonStr, "user_id")
	assert.NotContains(t, jsonStr, "capture_id")
	assert.NotContains(t, jsonStr, "error")
	assert.NotContains(t, jsonStr, "ip_address")
	assert.NotContains(t, jsonStr, "user_agent")
}
