package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"thermometer_alarm/internal/models"
	"thermometer_alarm/internal/repository"
)

const (
	settingsRowID    = 1 // DB schema enforces a single settings row
	exportTimeLayout = time.RFC3339
	noDataNotice     = "No data to export. Start recording first."
)

// ErrNoReadings is returned when an export or save is requested with an empty log.
var ErrNoReadings = errors.New("no readings recorded")

var exportHeader = []string{"Time", "Temperature (°C)", "Threshold (°C)"}

type DashboardService struct {
	session      DeviceSession
	settingsRepo repository.SettingsRepo
	readingRepo  repository.ReadingRepo
	now          func() time.Time
}

func NewDashboardService(session DeviceSession, settingsRepo repository.SettingsRepo, readingRepo repository.ReadingRepo) *DashboardService {
	return &DashboardService{
		session:      session,
		settingsRepo: settingsRepo,
		readingRepo:  readingRepo,
		now:          time.Now,
	}
}

// Restore applies the persisted threshold to the session.
// An empty settings table leaves the session default in place.
func (s *DashboardService) Restore(ctx context.Context) error {
	st, err := s.settingsRepo.Load(ctx)
	if err != nil {
		return err
	}
	if st.ID == 0 {
		return nil
	}
	return s.session.SetThreshold(st.ThresholdC)
}

func (s *DashboardService) Connect(ctx context.Context) error {
	return s.session.Connect(ctx)
}

func (s *DashboardService) Disconnect(_ context.Context) {
	s.session.Disconnect()
}

func (s *DashboardService) Status(_ context.Context) models.DashboardSnapshot {
	return s.session.Snapshot()
}

// SetThreshold applies the threshold and persists it for the next start.
func (s *DashboardService) SetThreshold(ctx context.Context, thresholdC float64) error {
	if err := s.session.SetThreshold(thresholdC); err != nil {
		return err
	}
	return s.settingsRepo.Save(ctx, models.Settings{
		ID:         settingsRowID,
		ThresholdC: thresholdC,
		UpdatedAt:  s.now().UTC(),
	})
}

func (s *DashboardService) StartRecording(_ context.Context) bool {
	return s.session.StartRecording()
}

func (s *DashboardService) StopRecording(_ context.Context) bool {
	return s.session.StopRecording()
}

func (s *DashboardService) ClearReadings(_ context.Context) {
	s.session.ClearReadings()
}

// ExportCSV renders the export log. An empty log produces no file.
func (s *DashboardService) ExportCSV(_ context.Context) (ExportFile, error) {
	readings := s.session.Readings()
	if len(readings) == 0 {
		s.session.Notify(models.NoticeWarning, noDataNotice)
		return ExportFile{}, ErrNoReadings
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(exportHeader); err != nil {
		return ExportFile{}, fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range readings {
		row := []string{
			r.Time.UTC().Format(exportTimeLayout),
			strconv.FormatFloat(r.TemperatureC, 'f', 2, 64),
			strconv.FormatFloat(r.ThresholdC, 'f', 2, 64),
		}
		if err := w.Write(row); err != nil {
			return ExportFile{}, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return ExportFile{}, fmt.Errorf("flush csv: %w", err)
	}

	return ExportFile{
		Filename: exportFilename(s.now()),
		Content:  buf.Bytes(),
		Rows:     len(readings),
	}, nil
}

// SaveRecording persists the export log under a fresh recording id.
func (s *DashboardService) SaveRecording(ctx context.Context) (SavedRecording, error) {
	readings := s.session.Readings()
	if len(readings) == 0 {
		s.session.Notify(models.NoticeWarning, noDataNotice)
		return SavedRecording{}, ErrNoReadings
	}
	id := uuid.NewString()
	if err := s.readingRepo.SaveBatch(ctx, id, readings); err != nil {
		return SavedRecording{}, err
	}
	s.session.Notify(models.NoticeSuccess, fmt.Sprintf("Saved %d readings", len(readings)))
	return SavedRecording{RecordingID: id, Count: len(readings)}, nil
}

func (s *DashboardService) ListSaved(ctx context.Context, f ReadingFilter) ([]models.SavedReading, error) {
	from, to, err := utcRange(f.From, f.To)
	if err != nil {
		return nil, err
	}
	return s.readingRepo.List(ctx, from, to, f.RecordingID)
}

func exportFilename(t time.Time) string {
	return "temperature_data_" + t.Format("2006-01-02") + ".csv"
}
