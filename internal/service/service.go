package service

import (
	"context"
	"time"

	"thermometer_alarm/internal/models"
	"thermometer_alarm/internal/repository"
)

type Authorization interface {
	SignUp(ctx context.Context, username, password string) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (int, error)
}

// Dashboard is the operator's view of the device session.
type Dashboard interface {
	Restore(ctx context.Context) error
	Connect(ctx context.Context) error
	Disconnect(ctx context.Context)
	Status(ctx context.Context) models.DashboardSnapshot
	SetThreshold(ctx context.Context, thresholdC float64) error
	StartRecording(ctx context.Context) bool
	StopRecording(ctx context.Context) bool
	ClearReadings(ctx context.Context)
	ExportCSV(ctx context.Context) (ExportFile, error)
	SaveRecording(ctx context.Context) (SavedRecording, error)
	ListSaved(ctx context.Context, f ReadingFilter) ([]models.SavedReading, error)
}

// Chemicals manages the chemical catalog.
type Chemicals interface {
	List(ctx context.Context, search string) ([]models.Chemical, error)
	Get(ctx context.Context, id int) (models.Chemical, error)
	Create(ctx context.Context, in ChemicalInput) (models.Chemical, error)
	Update(ctx context.Context, id int, in ChemicalInput) (models.Chemical, error)
	Delete(ctx context.Context, id int) error
}

// EventLog exposes append-only logs with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.DashboardEvent, error)
}

// DeviceSession is the part of device.Session the dashboard drives.
type DeviceSession interface {
	Connect(ctx context.Context) error
	Disconnect()
	Snapshot() models.DashboardSnapshot
	SetThreshold(v float64) error
	StartRecording() bool
	StopRecording() bool
	ClearReadings()
	Readings() []models.Reading
	Notify(level, message string)
}

// AuthOptions configures token issuing.
type AuthOptions struct {
	SigningKey string
	TokenTTL   time.Duration
}

type Service struct {
	Dashboard
	Chemicals
	EventLog
	Authorization
}

func NewService(repos *repository.Repository, session DeviceSession, auth AuthOptions) *Service {
	return &Service{
		Dashboard:     NewDashboardService(session, repos.SettingsRepo, repos.ReadingRepo),
		Chemicals:     NewChemicalService(repos.ChemicalRepo),
		EventLog:      NewEventLogService(repos.EventRepo),
		Authorization: NewAuthService(repos.Auth, auth.SigningKey, auth.TokenTTL),
	}
}
