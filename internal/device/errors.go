package device

import "errors"

var (
	// ErrAdmissionDenied is reported by the device when another client holds the slot.
	ErrAdmissionDenied = errors.New("admission denied: another user is already connected")
	// ErrTransport covers dial, read and write failures on a device socket.
	ErrTransport = errors.New("device transport error")
	// ErrMalformedMessage marks inbound payloads that are not JSON or carry no known field.
	ErrMalformedMessage = errors.New("malformed device message")
	// ErrDirectoryUnavailable means no device address could be resolved.
	ErrDirectoryUnavailable = errors.New("device address unavailable")

	ErrSessionActive    = errors.New("session is already connecting or connected")
	ErrNotConnected     = errors.New("device is not connected")
	ErrConnectCancelled = errors.New("connect attempt cancelled")
	ErrInvalidThreshold = errors.New("threshold must be a finite number")
)
