package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"thermometer_alarm/internal/models"
)

type ChemicalSQLite struct {
	db  *sql.DB
	now func() time.Time
}

func NewChemicalSQLite(db *sql.DB) *ChemicalSQLite {
	return &ChemicalSQLite{db: db, now: time.Now}
}

const (
	chemicalColumns = `id, chemical_name, formula, boiling_point, freezing_point, hazard_level, notes, created_at, updated_at`

	selectChemicalsSQL = `SELECT ` + chemicalColumns + ` FROM chemicals`

	selectChemicalByIDSQL = selectChemicalsSQL + ` WHERE id = ?`

	insertChemicalSQL = `
		INSERT INTO chemicals (chemical_name, formula, boiling_point, freezing_point, hazard_level, notes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	updateChemicalSQL = `
		UPDATE chemicals SET chemical_name = ?, formula = ?, boiling_point = ?, freezing_point = ?,
			hazard_level = ?, notes = ?, updated_at = ?
		WHERE id = ?
	`

	deleteChemicalSQL = `DELETE FROM chemicals WHERE id = ?`

	chemicalSearchCond = `(lower(chemical_name) LIKE ? ESCAPE '\' OR lower(formula) LIKE ? ESCAPE '\' OR lower(hazard_level) LIKE ? ESCAPE '\' OR lower(notes) LIKE ? ESCAPE '\')`
)

// likeEscaper makes LIKE wildcards in a search term match literally.
var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type rowScanner interface {
	Scan(dest ...any) error
}

func scanChemical(row rowScanner) (models.Chemical, error) {
	var (
		c            models.Chemical
		boil, freeze sql.NullFloat64
		notes        sql.NullString
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Formula, &boil, &freeze, &c.HazardLevel, &notes, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return models.Chemical{}, err
	}
	if boil.Valid {
		v := boil.Float64
		c.BoilingPoint = &v
	}
	if freeze.Valid {
		v := freeze.Float64
		c.FreezingPoint = &v
	}
	c.Notes = notes.String
	c.CreatedAt, c.UpdatedAt = c.CreatedAt.UTC(), c.UpdatedAt.UTC()
	return c, nil
}

// List returns chemicals ordered by name. A non-empty search matches any of
// name, formula, hazard level or notes, case-insensitively.
func (r *ChemicalSQLite) List(ctx context.Context, search string) ([]models.Chemical, error) {
	q := selectChemicalsSQL
	var args []any
	if s := strings.ToLower(strings.TrimSpace(search)); s != "" {
		pattern := "%" + likeEscaper.Replace(s) + "%"
		q += " WHERE " + chemicalSearchCond
		args = append(args, pattern, pattern, pattern, pattern)
	}
	q += " ORDER BY chemical_name ASC, id ASC"

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list chemicals: %w", err)
	}
	defer rows.Close()

	out := make([]models.Chemical, 0, 32)
	for rows.Next() {
		c, err := scanChemical(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chemical: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ChemicalSQLite) Get(ctx context.Context, id int) (models.Chemical, error) {
	c, err := scanChemical(r.db.QueryRowContext(ctx, selectChemicalByIDSQL, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Chemical{}, ErrNotFound
		}
		return models.Chemical{}, fmt.Errorf("select chemical %d: %w", id, err)
	}
	return c, nil
}

// Create inserts c and returns the new id. Timestamps are set here.
func (r *ChemicalSQLite) Create(ctx context.Context, c models.Chemical) (int, error) {
	now := r.now().UTC()
	res, err := r.db.ExecContext(ctx, insertChemicalSQL,
		c.Name, c.Formula, nullFloat(c.BoilingPoint), nullFloat(c.FreezingPoint), c.HazardLevel, c.Notes, now, now)
	if err != nil {
		return 0, fmt.Errorf("insert chemical %q: %w", c.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id for chemical %q: %w", c.Name, err)
	}
	return int(id), nil
}

func (r *ChemicalSQLite) Update(ctx context.Context, c models.Chemical) error {
	res, err := r.db.ExecContext(ctx, updateChemicalSQL,
		c.Name, c.Formula, nullFloat(c.BoilingPoint), nullFloat(c.FreezingPoint), c.HazardLevel, c.Notes, r.now().UTC(), c.ID)
	if err != nil {
		return fmt.Errorf("update chemical %d: %w", c.ID, err)
	}
	return expectOneRow(res)
}

func (r *ChemicalSQLite) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, deleteChemicalSQL, id)
	if err != nil {
		return fmt.Errorf("delete chemical %d: %w", id, err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
