package device

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Outbound text commands understood by the sensor firmware.
const (
	CmdWebConnected = "web_connected"
	CmdStartRecord  = "start_record"
	CmdEndRecord    = "end_record"
	CmdAlertOn      = "threshold_alert_on"
	CmdAlertOff     = "threshold_alert_off"
	CmdProbe        = "test"
)

// Inbound literals.
const (
	DeniedError = "another user is already connected"
	StatusOK    = "ok"
)

const defaultPath = "/ws"

// Message is the JSON object the device sends. Only one field is normally set.
type Message struct {
	Temperature *float64 `json:"temperature,omitempty"`
	Error       string   `json:"error,omitempty"`
	Status      string   `json:"status,omitempty"`
}

// Denied reports the single-client admission refusal.
func (m Message) Denied() bool { return m.Error == DeniedError }

// SlotFree reports a positive probe reply.
func (m Message) SlotFree() bool { return m.Status == StatusOK }

func (m Message) IsTelemetry() bool { return m.Temperature != nil }

// ParseMessage decodes a device frame. Payloads that are not JSON objects or
// that carry none of temperature, error or status yield ErrMalformedMessage.
func ParseMessage(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	if m.Temperature == nil && m.Error == "" && m.Status == "" {
		return Message{}, ErrMalformedMessage
	}
	return m, nil
}

// DeviceURL builds the socket URL for a resolved address ("192.168.1.20" →
// "ws://192.168.1.20/ws"). Addresses that already carry a ws scheme are kept.
func DeviceURL(address, path string) string {
	address = strings.TrimSpace(address)
	if strings.HasPrefix(address, "ws://") || strings.HasPrefix(address, "wss://") {
		return address
	}
	if path == "" {
		path = defaultPath
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "ws://" + strings.TrimSuffix(address, "/") + path
}
