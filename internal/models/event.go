package models

import "time"

// Persisted event types.
const (
	EventConnected       = "CONNECTED"
	EventDisconnected    = "DISCONNECTED"
	EventAdmissionDenied = "ADMISSION_DENIED"
	EventSlotFree        = "SLOT_FREE"
	EventAlertOn         = "ALERT_ON"
	EventAlertOff        = "ALERT_OFF"
	EventRecordStart     = "RECORD_START"
	EventRecordStop      = "RECORD_STOP"
	EventThreshold       = "THRESHOLD"
)

var eventTypes = map[string]struct{}{
	EventConnected: {}, EventDisconnected: {}, EventAdmissionDenied: {},
	EventSlotFree: {}, EventAlertOn: {}, EventAlertOff: {},
	EventRecordStart: {}, EventRecordStop: {}, EventThreshold: {},
}

// IsEventType reports whether s names a persisted event type.
func IsEventType(s string) bool {
	_, ok := eventTypes[s]
	return ok
}

// DashboardEvent is a single log entry.
type DashboardEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // CONNECTED | DISCONNECTED | ALERT_ON | ...
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
