package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"thermometer_alarm/internal/models"
)

// ErrNotFound is returned when a row addressed by id does not exist.
var ErrNotFound = errors.New("record not found")

type Authorization interface {
	Create(ctx context.Context, username, hash string) (int, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

type SettingsRepo interface {
	Save(ctx context.Context, s models.Settings) error
	Load(ctx context.Context) (models.Settings, error)
}

type EventRepo interface {
	Append(ctx context.Context, e models.DashboardEvent) error
	List(ctx context.Context, from, to time.Time, typ string) ([]models.DashboardEvent, error)
}

type ChemicalRepo interface {
	List(ctx context.Context, search string) ([]models.Chemical, error)
	Get(ctx context.Context, id int) (models.Chemical, error)
	Create(ctx context.Context, c models.Chemical) (int, error)
	Update(ctx context.Context, c models.Chemical) error
	Delete(ctx context.Context, id int) error
}

type ReadingRepo interface {
	SaveBatch(ctx context.Context, recordingID string, readings []models.Reading) error
	List(ctx context.Context, from, to time.Time, recordingID string) ([]models.SavedReading, error)
}

type Repository struct {
	SettingsRepo SettingsRepo
	EventRepo    EventRepo
	ChemicalRepo ChemicalRepo
	ReadingRepo  ReadingRepo
	Auth         Authorization
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{
		SettingsRepo: NewSettingsSQLite(db),
		EventRepo:    NewEventSQLite(db),
		ChemicalRepo: NewChemicalSQLite(db),
		ReadingRepo:  NewReadingSQLite(db),
		Auth:         NewUserRepository(db),
	}
}
