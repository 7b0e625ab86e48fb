package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"thermometer_alarm/internal/models"
)

type ReadingSQLite struct {
	db *sql.DB
}

func NewReadingSQLite(db *sql.DB) *ReadingSQLite { return &ReadingSQLite{db: db} }

const (
	insertReadingSQL = `INSERT INTO readings (recording_id, recorded_at, temperature_c, threshold_c) VALUES (?, ?, ?, ?)`
	selectReadingSQL = `SELECT recording_id, recorded_at, temperature_c, threshold_c FROM readings`
)

// SaveBatch stores readings under recordingID in one transaction.
func (r *ReadingSQLite) SaveBatch(ctx context.Context, recordingID string, readings []models.Reading) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin readings transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, insertReadingSQL)
	if err != nil {
		return fmt.Errorf("prepare reading insert: %w", err)
	}
	defer stmt.Close()

	for i, rd := range readings {
		if _, err := stmt.ExecContext(ctx, recordingID, rd.Time.UTC(), rd.TemperatureC, rd.ThresholdC); err != nil {
			return fmt.Errorf("insert reading %d: %w", i, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit readings: %w", err)
	}
	return nil
}

// List returns saved readings in [from, to], optionally for one recording, oldest first.
func (r *ReadingSQLite) List(ctx context.Context, from, to time.Time, recordingID string) ([]models.SavedReading, error) {
	var (
		conds []string
		args  []any
	)
	if !from.IsZero() {
		conds = append(conds, "recorded_at >= ?")
		args = append(args, from.UTC())
	}
	if !to.IsZero() {
		conds = append(conds, "recorded_at <= ?")
		args = append(args, to.UTC())
	}
	if recordingID = strings.TrimSpace(recordingID); recordingID != "" {
		conds = append(conds, "recording_id = ?")
		args = append(args, recordingID)
	}

	q := selectReadingSQL
	if len(conds) > 0 {
		q += " WHERE " + strings.Join(conds, " AND ")
	}
	q += " ORDER BY recorded_at ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list readings: %w", err)
	}
	defer rows.Close()

	out := make([]models.SavedReading, 0, 128)
	for rows.Next() {
		var sr models.SavedReading
		if err := rows.Scan(&sr.RecordingID, &sr.Time, &sr.TemperatureC, &sr.ThresholdC); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		sr.Time = sr.Time.UTC()
		out = append(out, sr)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
