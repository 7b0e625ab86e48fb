package handlers

import (
	"context"
	"net/http"
	"time"

	"thermometer_alarm/internal/models"
	"thermometer_alarm/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(_ context.Context, username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(_ context.Context, username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockDashboard struct {
	snapshot     models.DashboardSnapshot
	connectErr   error
	thresholdErr error
	exportFile   service.ExportFile
	exportErr    error
	saved        service.SavedRecording
	saveErr      error
	readings     []models.SavedReading
	listErr      error

	connectCalls    int
	disconnectCalls int
	clearCalls      int
	lastThreshold   float64
	lastFilter      service.ReadingFilter
}

func (m *mockDashboard) Restore(context.Context) error { return nil }
func (m *mockDashboard) Connect(context.Context) error {
	m.connectCalls++
	return m.connectErr
}
func (m *mockDashboard) Disconnect(context.Context) { m.disconnectCalls++ }
func (m *mockDashboard) Status(context.Context) models.DashboardSnapshot {
	return m.snapshot
}
func (m *mockDashboard) SetThreshold(_ context.Context, v float64) error {
	m.lastThreshold = v
	if m.thresholdErr != nil {
		return m.thresholdErr
	}
	m.snapshot.ThresholdC = v
	return nil
}
func (m *mockDashboard) StartRecording(context.Context) bool {
	was := m.snapshot.Recording
	m.snapshot.Recording = true
	return !was
}
func (m *mockDashboard) StopRecording(context.Context) bool {
	was := m.snapshot.Recording
	m.snapshot.Recording = false
	return was
}
func (m *mockDashboard) ClearReadings(context.Context) { m.clearCalls++ }
func (m *mockDashboard) ExportCSV(context.Context) (service.ExportFile, error) {
	return m.exportFile, m.exportErr
}
func (m *mockDashboard) SaveRecording(context.Context) (service.SavedRecording, error) {
	return m.saved, m.saveErr
}
func (m *mockDashboard) ListSaved(_ context.Context, f service.ReadingFilter) ([]models.SavedReading, error) {
	m.lastFilter = f
	return m.readings, m.listErr
}

type mockChemicals struct {
	list      []models.Chemical
	chem      models.Chemical
	err       error
	lastID    int
	lastInput service.ChemicalInput
	lastQuery string
}

func (m *mockChemicals) List(_ context.Context, search string) ([]models.Chemical, error) {
	m.lastQuery = search
	return m.list, m.err
}
func (m *mockChemicals) Get(_ context.Context, id int) (models.Chemical, error) {
	m.lastID = id
	return m.chem, m.err
}
func (m *mockChemicals) Create(_ context.Context, in service.ChemicalInput) (models.Chemical, error) {
	m.lastInput = in
	return m.chem, m.err
}
func (m *mockChemicals) Update(_ context.Context, id int, in service.ChemicalInput) (models.Chemical, error) {
	m.lastID = id
	m.lastInput = in
	return m.chem, m.err
}
func (m *mockChemicals) Delete(_ context.Context, id int) error {
	m.lastID = id
	return m.err
}

type mockEventLog struct {
	resp     []models.DashboardEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.DashboardEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
