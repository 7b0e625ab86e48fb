package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"thermometer_alarm/internal/config"
)

var (
	// ErrNoAddress means the directory holds no registration for the device.
	ErrNoAddress = errors.New("no device address registered")
)

// Resolver returns the most recently registered device address.
type Resolver interface {
	LatestAddress(ctx context.Context) (string, error)
}

// Open builds the resolver selected by cfg.Driver. The returned close func
// releases any pool it opened and is never nil.
func Open(ctx context.Context, cfg config.DirectoryConfig) (Resolver, func(), error) {
	switch cfg.Driver {
	case config.DirectoryREST:
		return NewREST(cfg.URL, cfg.APIKey, cfg.Table, cfg.Timeout), func() {}, nil
	case config.DirectoryPostgres:
		pool, err := pgxpool.New(ctx, cfg.DSN)
		if err != nil {
			return nil, func() {}, fmt.Errorf("open directory pool: %w", err)
		}
		return NewPostgres(pool, cfg.Table), pool.Close, nil
	case config.DirectoryStatic:
		return NewStatic(cfg.Address), func() {}, nil
	default:
		return nil, func() {}, fmt.Errorf("unknown directory driver %q", cfg.Driver)
	}
}

func cleanAddress(ip string) (string, error) {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return "", ErrNoAddress
	}
	return ip, nil
}
