package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"thermometer_alarm/internal/models"
)

// fakeSession is a hand mock for DeviceSession.
type fakeSession struct {
	threshold    float64
	thresholdErr error
	readings     []models.Reading
	recording    bool
	cleared      int
	connectErr   error
	connects     int
	disconnects  int
	notices      []models.Notice
}

func (f *fakeSession) Connect(context.Context) error {
	f.connects++
	return f.connectErr
}
func (f *fakeSession) Disconnect() { f.disconnects++ }
func (f *fakeSession) Snapshot() models.DashboardSnapshot {
	return models.DashboardSnapshot{Status: models.StatusDisconnected, ThresholdC: f.threshold, Recording: f.recording}
}
func (f *fakeSession) SetThreshold(v float64) error {
	if f.thresholdErr != nil {
		return f.thresholdErr
	}
	f.threshold = v
	return nil
}
func (f *fakeSession) StartRecording() bool {
	was := f.recording
	f.recording = true
	return !was
}
func (f *fakeSession) StopRecording() bool {
	was := f.recording
	f.recording = false
	return was
}
func (f *fakeSession) ClearReadings() {
	f.cleared++
	f.readings = nil
}
func (f *fakeSession) Readings() []models.Reading { return f.readings }
func (f *fakeSession) Notify(level, message string) {
	f.notices = append(f.notices, models.Notice{Level: level, Message: message})
}

type fakeSettingsRepo struct {
	loadResp models.Settings
	loadErr  error
	saveErr  error
	saves    []models.Settings
}

func (r *fakeSettingsRepo) Save(_ context.Context, s models.Settings) error {
	r.saves = append(r.saves, s)
	return r.saveErr
}
func (r *fakeSettingsRepo) Load(context.Context) (models.Settings, error) {
	return r.loadResp, r.loadErr
}

type fakeReadingRepo struct {
	batches map[string][]models.Reading
	saveErr error

	gotFrom, gotTo time.Time
	gotID          string
	listResp       []models.SavedReading
}

func (r *fakeReadingRepo) SaveBatch(_ context.Context, id string, readings []models.Reading) error {
	if r.saveErr != nil {
		return r.saveErr
	}
	if r.batches == nil {
		r.batches = map[string][]models.Reading{}
	}
	r.batches[id] = readings
	return nil
}
func (r *fakeReadingRepo) List(_ context.Context, from, to time.Time, id string) ([]models.SavedReading, error) {
	r.gotFrom, r.gotTo, r.gotID = from, to, id
	return r.listResp, nil
}

func newDashboardFixture() (*DashboardService, *fakeSession, *fakeSettingsRepo, *fakeReadingRepo) {
	sess := &fakeSession{threshold: 100}
	settings := &fakeSettingsRepo{}
	readings := &fakeReadingRepo{}
	svc := NewDashboardService(sess, settings, readings)
	svc.now = func() time.Time { return time.Date(2026, time.March, 4, 15, 0, 0, 0, time.UTC) }
	return svc, sess, settings, readings
}

func TestDashboard_ExportCSV_Empty(t *testing.T) {
	t.Parallel()
	svc, sess, _, _ := newDashboardFixture()

	file, err := svc.ExportCSV(context.Background())
	if !errors.Is(err, ErrNoReadings) {
		t.Fatalf("expected ErrNoReadings, got %v", err)
	}
	if file.Content != nil || file.Filename != "" {
		t.Fatalf("expected no artifact, got %+v", file)
	}
	if len(sess.notices) != 1 || sess.notices[0].Level != models.NoticeWarning {
		t.Fatalf("expected one warning notice, got %+v", sess.notices)
	}
	if sess.notices[0].Message != "No data to export. Start recording first." {
		t.Fatalf("unexpected notice %q", sess.notices[0].Message)
	}
}

func TestDashboard_ExportCSV_Content(t *testing.T) {
	t.Parallel()
	svc, sess, _, _ := newDashboardFixture()
	at := time.Date(2026, time.March, 4, 12, 0, 0, 0, time.UTC)
	sess.readings = []models.Reading{
		{Time: at, TemperatureC: 98.456, ThresholdC: 100},
		{Time: at.Add(time.Second), TemperatureC: 101, ThresholdC: 100},
	}

	file, err := svc.ExportCSV(context.Background())
	if err != nil {
		t.Fatalf("ExportCSV: %v", err)
	}
	if file.Filename != "temperature_data_2026-03-04.csv" {
		t.Fatalf("unexpected filename %q", file.Filename)
	}
	if file.Rows != 2 {
		t.Fatalf("expected 2 rows, got %d", file.Rows)
	}
	want := "Time,Temperature (°C),Threshold (°C)\n" +
		"2026-03-04T12:00:00Z,98.46,100.00\n" +
		"2026-03-04T12:00:01Z,101.00,100.00\n"
	if string(file.Content) != want {
		t.Fatalf("unexpected csv:\n%s", file.Content)
	}
	if len(sess.notices) != 0 {
		t.Fatalf("expected no notices, got %+v", sess.notices)
	}
}

func TestDashboard_SetThreshold_Persists(t *testing.T) {
	t.Parallel()
	svc, sess, settings, _ := newDashboardFixture()

	if err := svc.SetThreshold(context.Background(), 42.5); err != nil {
		t.Fatalf("SetThreshold: %v", err)
	}
	if sess.threshold != 42.5 {
		t.Fatalf("session threshold = %v", sess.threshold)
	}
	if len(settings.saves) != 1 || settings.saves[0].ID != 1 || settings.saves[0].ThresholdC != 42.5 {
		t.Fatalf("unexpected saves %+v", settings.saves)
	}
}

func TestDashboard_SetThreshold_RejectedNotPersisted(t *testing.T) {
	t.Parallel()
	svc, sess, settings, _ := newDashboardFixture()
	sess.thresholdErr = errors.New("bad threshold")

	if err := svc.SetThreshold(context.Background(), -1); err == nil {
		t.Fatalf("expected error")
	}
	if len(settings.saves) != 0 {
		t.Fatalf("expected no saves, got %d", len(settings.saves))
	}
}

func TestDashboard_Restore(t *testing.T) {
	t.Parallel()

	svc, sess, settings, _ := newDashboardFixture()
	if err := svc.Restore(context.Background()); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if sess.threshold != 100 {
		t.Fatalf("empty settings should keep default, got %v", sess.threshold)
	}

	settings.loadResp = models.Settings{ID: 1, ThresholdC: 37}
	if err := svc.Restore(context.Background()); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if sess.threshold != 37 {
		t.Fatalf("expected restored threshold 37, got %v", sess.threshold)
	}

	settings.loadErr = errors.New("db down")
	if err := svc.Restore(context.Background()); err == nil {
		t.Fatalf("expected load error")
	}
}

func TestDashboard_SaveRecording(t *testing.T) {
	t.Parallel()
	svc, sess, _, readings := newDashboardFixture()

	if _, err := svc.SaveRecording(context.Background()); !errors.Is(err, ErrNoReadings) {
		t.Fatalf("expected ErrNoReadings, got %v", err)
	}
	if len(readings.batches) != 0 {
		t.Fatalf("nothing should be saved")
	}

	sess.readings = []models.Reading{{TemperatureC: 20}, {TemperatureC: 21}}
	saved, err := svc.SaveRecording(context.Background())
	if err != nil {
		t.Fatalf("SaveRecording: %v", err)
	}
	if saved.Count != 2 || saved.RecordingID == "" {
		t.Fatalf("unexpected result %+v", saved)
	}
	if got := readings.batches[saved.RecordingID]; len(got) != 2 {
		t.Fatalf("expected batch of 2 under %s, got %v", saved.RecordingID, got)
	}
	last := sess.notices[len(sess.notices)-1]
	if last.Level != models.NoticeSuccess || !strings.Contains(last.Message, "2 readings") {
		t.Fatalf("unexpected notice %+v", last)
	}
}

func TestDashboard_SaveRecording_RepoError(t *testing.T) {
	t.Parallel()
	svc, sess, _, readings := newDashboardFixture()
	sess.readings = []models.Reading{{TemperatureC: 20}}
	readings.saveErr = errors.New("disk full")

	if _, err := svc.SaveRecording(context.Background()); !errors.Is(err, readings.saveErr) {
		t.Fatalf("expected repo error, got %v", err)
	}
}

func TestDashboard_ListSaved(t *testing.T) {
	t.Parallel()
	svc, _, _, readings := newDashboardFixture()

	from := time.Date(2026, 1, 1, 10, 0, 0, 0, time.FixedZone("UTC+2", 2*3600))
	to := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	if _, err := svc.ListSaved(context.Background(), ReadingFilter{From: from, To: to, RecordingID: "r1"}); err != nil {
		t.Fatalf("ListSaved: %v", err)
	}
	if !readings.gotFrom.Equal(from) || readings.gotFrom.Location() != time.UTC {
		t.Fatalf("from not normalized: %v", readings.gotFrom)
	}
	if readings.gotID != "r1" {
		t.Fatalf("recording id = %q", readings.gotID)
	}

	_, err := svc.ListSaved(context.Background(), ReadingFilter{From: to, To: to.Add(-time.Hour)})
	if !errors.Is(err, errInvalidTimeRange) {
		t.Fatalf("expected errInvalidTimeRange, got %v", err)
	}
}

func TestDashboard_Delegates(t *testing.T) {
	t.Parallel()
	svc, sess, _, _ := newDashboardFixture()
	ctx := context.Background()

	if err := svc.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	svc.Disconnect(ctx)
	if !svc.StartRecording(ctx) || svc.StartRecording(ctx) {
		t.Fatalf("StartRecording should report the transition once")
	}
	if !svc.Status(ctx).Recording {
		t.Fatalf("status should report recording")
	}
	if !svc.StopRecording(ctx) {
		t.Fatalf("StopRecording should report the transition")
	}
	svc.ClearReadings(ctx)

	if sess.connects != 1 || sess.disconnects != 1 || sess.cleared != 1 {
		t.Fatalf("unexpected calls: %+v", sess)
	}
}
