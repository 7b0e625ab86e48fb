package models

import "time"

// SessionStatus is the lifecycle state of the device session.
type SessionStatus string

const (
	StatusDisconnected SessionStatus = "disconnected"
	StatusConnecting   SessionStatus = "connecting"
	StatusConnected    SessionStatus = "connected"
)

// Notice levels, mirrored by the UI as toast colors.
const (
	NoticeInfo    = "info"
	NoticeSuccess = "success"
	NoticeWarning = "warning"
	NoticeError   = "error"
)

// Notice is a transient, user-facing message.
type Notice struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// SessionEventKind classifies live session events.
type SessionEventKind string

const (
	KindStatus   SessionEventKind = "status"
	KindNotice   SessionEventKind = "notice"
	KindReading  SessionEventKind = "reading"
	KindAlert    SessionEventKind = "alert"
	KindRetry    SessionEventKind = "retry"
	KindRecord   SessionEventKind = "record"
	KindSettings SessionEventKind = "threshold"
)

// SessionEvent is published by the device session on every observable change.
// Only the fields relevant to Kind are set.
type SessionEvent struct {
	Kind       SessionEventKind `json:"kind"`
	At         time.Time        `json:"at"`
	Status     SessionStatus    `json:"status,omitempty"`
	Address    string           `json:"address,omitempty"`
	Notice     *Notice          `json:"notice,omitempty"`
	Reading    *Reading         `json:"reading,omitempty"`
	Recorded   bool             `json:"recorded,omitempty"`
	Armed      bool             `json:"armed"`
	Active     bool             `json:"active"` // retry probing / recording
	Reason     string           `json:"reason,omitempty"`
	ThresholdC float64          `json:"threshold_c,omitempty"`
}

// Retry event reasons.
const (
	RetryAdmissionDenied = "admission_denied"
	RetrySlotFree        = "slot_free"
	RetryCancelled       = "cancelled"
)

// DashboardSnapshot is the presentation view of the session.
type DashboardSnapshot struct {
	Status        SessionStatus `json:"status"`
	DeviceAddress string        `json:"device_address,omitempty"`
	Retrying      bool          `json:"retrying"`
	Recording     bool          `json:"recording"`
	ThresholdC    float64       `json:"threshold_c"`
	LatestC       *float64      `json:"latest_c,omitempty"`
	Armed         bool          `json:"armed"`
	Window        []Reading     `json:"window"`
	LoggedCount   int           `json:"logged_count"`
	LastError     string        `json:"last_error,omitempty"`
}
