package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"timebudget/internal/clock"
	"timebudget/internal/model"
	"timebudget/internal/repository"
)

type testEnv struct {
	db          *gorm.DB
	user        *model.User
	allocRepo   *repository.AllocationRepository
	allocations *AllocationService
	prefs       *PreferencesService
	summaries   *SummaryService
	templates   *TemplateService
	reminders   *ReminderService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := repository.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	user, err := repository.NewUserRepository(db).UpsertFromTelegram(context.Background(), 42, "Ann", "", "ann")
	require.NoError(t, err)

	allocRepo := repository.NewAllocationRepository(db)
	prefs := NewPreferencesService(repository.NewPreferencesRepository(db), model.DayWindow{Start: "06:00", End: "23:00"})
	allocations := NewAllocationService(allocRepo)
	summaries := NewSummaryService(allocRepo, prefs)

	return &testEnv{
		db:          db,
		user:        user,
		allocRepo:   allocRepo,
		allocations: allocations,
		prefs:       prefs,
		summaries:   summaries,
		templates:   NewTemplateService(repository.NewTemplateRepository(db), allocRepo),
		reminders:   NewReminderService(allocations, summaries),
	}
}

func mustDate(t *testing.T, raw string) time.Time {
	t.Helper()
	d, err := clock.ParseDate(raw)
	require.NoError(t, err)
	return d
}

func (e *testEnv) add(t *testing.T, date time.Time, cat model.Category, start, end string) *model.TimeAllocation {
	t.Helper()
	a, err := e.allocations.Create(context.Background(), e.user, date, AllocationInput{Category: cat, StartTime: start, EndTime: end})
	require.NoError(t, err)
	return a
}

func strPtr(s string) *string { return &s }
