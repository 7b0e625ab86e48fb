package repository_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"thermometer_alarm/internal/models"
	"thermometer_alarm/internal/repository"
	"thermometer_alarm/internal/repository/db"
)

func openRepo(t *testing.T) *repository.Repository {
	t.Helper()
	conn, err := db.InitDB(filepath.Join(t.TempDir(), "dashboard.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return repository.NewRepository(conn)
}

func TestSQLite_ChemicalLifecycle(t *testing.T) {
	repo := openRepo(t)
	c := context.Background()

	bp := 100.0
	id, err := repo.ChemicalRepo.Create(c, models.Chemical{Name: "Water", Formula: "H2O", BoilingPoint: &bp, HazardLevel: models.HazardLow})
	require.NoError(t, err)
	_, err = repo.ChemicalRepo.Create(c, models.Chemical{Name: "Nitric acid", Formula: "HNO3", HazardLevel: models.HazardHigh, Notes: "Oxidizer"})
	require.NoError(t, err)

	all, err := repo.ChemicalRepo.List(c, "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Nitric acid", all[0].Name, "ordered by name")

	found, err := repo.ChemicalRepo.List(c, "oxid")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "HNO3", found[0].Formula)

	got, err := repo.ChemicalRepo.Get(c, id)
	require.NoError(t, err)
	require.NotNil(t, got.BoilingPoint)
	assert.Equal(t, 100.0, *got.BoilingPoint)
	assert.Nil(t, got.FreezingPoint)

	got.Notes = "distilled"
	require.NoError(t, repo.ChemicalRepo.Update(c, got))
	got, err = repo.ChemicalRepo.Get(c, id)
	require.NoError(t, err)
	assert.Equal(t, "distilled", got.Notes)

	require.NoError(t, repo.ChemicalRepo.Delete(c, id))
	_, err = repo.ChemicalRepo.Get(c, id)
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestSQLite_ChemicalSearchIsLiteral(t *testing.T) {
	repo := openRepo(t)
	c := context.Background()

	for _, ch := range []models.Chemical{
		{Name: "Hydrogen peroxide", Formula: "H2O2", HazardLevel: models.HazardMedium, Notes: "30% solution"},
		{Name: "Sodium hydroxide", Formula: "NaOH", HazardLevel: models.HazardHigh, Notes: "pellets, 300 g"},
		{Name: "Methyl_ether", Formula: "C2H6O", HazardLevel: models.HazardHigh},
		{Name: "Methylene blue", Formula: "C16H18ClN3S", HazardLevel: models.HazardLow},
	} {
		_, err := repo.ChemicalRepo.Create(c, ch)
		require.NoError(t, err)
	}

	pct, err := repo.ChemicalRepo.List(c, "0%")
	require.NoError(t, err)
	require.Len(t, pct, 1)
	assert.Equal(t, "H2O2", pct[0].Formula)

	under, err := repo.ChemicalRepo.List(c, "methyl_")
	require.NoError(t, err)
	require.Len(t, under, 1)
	assert.Equal(t, "Methyl_ether", under[0].Name)
}

func TestSQLite_SettingsEventsReadings(t *testing.T) {
	repo := openRepo(t)
	c := context.Background()

	s, err := repo.SettingsRepo.Load(c)
	require.NoError(t, err)
	assert.Zero(t, s.ID)

	require.NoError(t, repo.SettingsRepo.Save(c, models.Settings{ThresholdC: 64}))
	require.NoError(t, repo.SettingsRepo.Save(c, models.Settings{ThresholdC: 72.5}))
	s, err = repo.SettingsRepo.Load(c)
	require.NoError(t, err)
	assert.Equal(t, 1, s.ID)
	assert.Equal(t, 72.5, s.ThresholdC)

	base := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.EventRepo.Append(c, models.DashboardEvent{OccurredAt: base, Type: models.EventConnected, Description: "up"}))
	require.NoError(t, repo.EventRepo.Append(c, models.DashboardEvent{OccurredAt: base.Add(time.Minute), Type: models.EventAlertOn, Description: "hot", Metadata: map[string]any{"temperature_c": 101.0}}))

	evs, err := repo.EventRepo.List(c, base.Add(30*time.Second), time.Time{}, "alert_on")
	require.NoError(t, err)
	require.Len(t, evs, 1)
	assert.Equal(t, "hot", evs[0].Description)

	require.NoError(t, repo.ReadingRepo.SaveBatch(c, "rec-a", []models.Reading{
		{Time: base, TemperatureC: 20, ThresholdC: 30},
		{Time: base.Add(time.Second), TemperatureC: 21, ThresholdC: 30},
	}))
	require.NoError(t, repo.ReadingRepo.SaveBatch(c, "rec-b", []models.Reading{{Time: base.Add(time.Hour), TemperatureC: 5, ThresholdC: 30}}))

	rs, err := repo.ReadingRepo.List(c, time.Time{}, time.Time{}, "rec-a")
	require.NoError(t, err)
	require.Len(t, rs, 2)
	assert.Equal(t, 21.0, rs[1].TemperatureC)

	rs, err = repo.ReadingRepo.List(c, base.Add(30*time.Minute), time.Time{}, "")
	require.NoError(t, err)
	require.Len(t, rs, 1)
	assert.Equal(t, "rec-b", rs[0].RecordingID)
}

func TestSQLite_UserUniqueness(t *testing.T) {
	repo := openRepo(t)
	c := context.Background()

	_, err := repo.Auth.Create(c, "operator", "hash")
	require.NoError(t, err)
	_, err = repo.Auth.Create(c, "operator", "hash2")
	assert.ErrorIs(t, err, repository.ErrUsernameTaken)

	u, err := repo.Auth.GetByUsername(c, "operator")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "hash", u.PasswordHash)
}
