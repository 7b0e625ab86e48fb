package service

import "time"

// LogFilter supports history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "CONNECTED", "ALERT_ON", ...
}

// ReadingFilter selects saved readings.
type ReadingFilter struct {
	From        time.Time
	To          time.Time
	RecordingID string
}

// ChemicalInput is the writable part of a chemical record.
type ChemicalInput struct {
	Name          string   `json:"chemical_name"`
	Formula       string   `json:"formula"`
	BoilingPoint  *float64 `json:"boiling_point"`
	FreezingPoint *float64 `json:"freezing_point"`
	HazardLevel   string   `json:"hazard_level"`
	Notes         string   `json:"notes"`
}

// ExportFile is a rendered CSV download.
type ExportFile struct {
	Filename string
	Content  []byte
	Rows     int
}

// SavedRecording describes a persisted export log.
type SavedRecording struct {
	RecordingID string `json:"recording_id"`
	Count       int    `json:"count"`
}
