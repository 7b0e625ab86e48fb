package models

import "time"

// Hazard levels accepted for chemicals.
const (
	HazardLow    = "Low"
	HazardMedium = "Medium"
	HazardHigh   = "High"
)

// Chemical is one row of the chemical catalog.
type Chemical struct {
	ID            int       `json:"id"`
	Name          string    `json:"chemical_name"`
	Formula       string    `json:"formula"`
	BoilingPoint  *float64  `json:"boiling_point,omitempty"`  // °C
	FreezingPoint *float64  `json:"freezing_point,omitempty"` // °C
	HazardLevel   string    `json:"hazard_level"`             // Low | Medium | High
	Notes         string    `json:"notes"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}
