package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"thermometer_alarm/internal/models"
)

type SettingsSQLite struct {
	db *sql.DB
}

func NewSettingsSQLite(db *sql.DB) *SettingsSQLite {
	return &SettingsSQLite{db: db}
}

const (
	settingsRowID = 1

	upsertSettingsSQL = `
		INSERT INTO settings (id, threshold_c, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			threshold_c=excluded.threshold_c,
			updated_at=excluded.updated_at
	`

	selectSettingsSQL = `
		SELECT id, threshold_c, updated_at
		FROM settings WHERE id=?
	`
)

// Save upserts the single settings row (id always 1).
func (r *SettingsSQLite) Save(ctx context.Context, s models.Settings) error {
	ts := s.UpdatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	} else {
		ts = ts.UTC()
	}
	if _, err := r.db.ExecContext(ctx, upsertSettingsSQL, settingsRowID, s.ThresholdC, ts); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}

// Load fetches the settings row. A zero Settings (ID 0) means nothing was saved yet.
func (r *SettingsSQLite) Load(ctx context.Context) (models.Settings, error) {
	var s models.Settings
	err := r.db.QueryRowContext(ctx, selectSettingsSQL, settingsRowID).Scan(&s.ID, &s.ThresholdC, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Settings{}, nil
		}
		return models.Settings{}, fmt.Errorf("load settings: %w", err)
	}
	s.UpdatedAt = s.UpdatedAt.UTC()
	return s, nil
}
