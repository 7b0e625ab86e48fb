package models

import "time"

// Reading is a single recorded temperature sample.
type Reading struct {
	Time         time.Time `json:"time"`
	TemperatureC float64   `json:"temperature_c"` // °C
	ThresholdC   float64   `json:"threshold_c"`   // threshold in force when recorded
}

// SavedReading is a reading persisted under a recording.
type SavedReading struct {
	RecordingID string `json:"recording_id"`
	Reading
}
