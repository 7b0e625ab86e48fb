package directory

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// DB is the subset of pgxpool.Pool the resolver needs.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Postgres reads the registration table directly.
type Postgres struct {
	db    DB
	query string
}

func NewPostgres(db DB, table string) *Postgres {
	if table == "" {
		table = defaultTable
	}
	return &Postgres{
		db:    db,
		query: fmt.Sprintf("select coalesce(ip::text, '') from %s order by timestamp desc limit 1", pgx.Identifier{table}.Sanitize()),
	}
}

func (p *Postgres) LatestAddress(ctx context.Context) (string, error) {
	var ip string
	if err := p.db.QueryRow(ctx, p.query).Scan(&ip); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNoAddress
		}
		return "", fmt.Errorf("query device address: %w", err)
	}
	return cleanAddress(ip)
}
