package models

import "time"

type Settings struct {
	ID         int       `json:"id"`
	ThresholdC float64   `json:"threshold_c"`
	UpdatedAt  time.Time `json:"updated_at"`
}
