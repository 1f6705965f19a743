package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"timebudget/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })
	return db
}

func newTestUser(t *testing.T, db *gorm.DB, telegramID int64) *model.User {
	t.Helper()
	user, err := NewUserRepository(db).UpsertFromTelegram(context.Background(), telegramID, "Ann", "", "ann")
	require.NoError(t, err)
	return user
}

func TestWithSQLiteParams(t *testing.T) {
	assert.Equal(t, "a.db?_txlock=immediate&_busy_timeout=5000&_foreign_keys=on", withSQLiteParams("a.db"))
	assert.Equal(t,
		"file:a.db?cache=shared&_busy_timeout=100&_txlock=immediate&_foreign_keys=on",
		withSQLiteParams("file:a.db?cache=shared&_busy_timeout=100"),
	)
}

func TestEnsureDirForSQLite(t *testing.T) {
	require.NoError(t, ensureDirForSQLite(":memory:"))
	require.NoError(t, ensureDirForSQLite("file::memory:?cache=shared"))

	dir := filepath.Join(t.TempDir(), "nested", "dir")
	require.NoError(t, ensureDirForSQLite("file:"+filepath.Join(dir, "x.db")+"?mode=rwc"))
	assert.DirExists(t, dir)
}

func TestUserRepository_Upsert(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	created, err := repo.UpsertFromTelegram(ctx, 100, "Ann", "Lee", "ann")
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	updated, err := repo.UpsertFromTelegram(ctx, 100, "Anna", "Lee", "anna")
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Anna", updated.FirstName)

	_, err = repo.UpsertFromTelegram(ctx, 200, "Bob", "", "")
	require.NoError(t, err)

	users, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "anna", users[0].Username)
}

func TestPreferencesRepository(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, 1)
	repo := NewPreferencesRepository(db)
	ctx := context.Background()
	defaults := model.DayWindow{Start: "06:00", End: "23:00"}

	prefs, err := repo.GetOrCreate(ctx, user.ID, defaults)
	require.NoError(t, err)
	assert.Equal(t, "06:00", prefs.DayStartTime)
	assert.Equal(t, "23:00", prefs.DayEndTime)

	again, err := repo.GetOrCreate(ctx, user.ID, model.DayWindow{Start: "01:00", End: "02:00"})
	require.NoError(t, err)
	assert.Equal(t, prefs.ID, again.ID)
	assert.Equal(t, "06:00", again.DayStartTime, "defaults apply only on first access")

	saved, err := repo.Save(ctx, user.ID, model.DayWindow{Start: "08:00", End: "20:00"})
	require.NoError(t, err)
	assert.Equal(t, prefs.ID, saved.ID)
	assert.Equal(t, "08:00", saved.DayStartTime)
	assert.Equal(t, "20:00", saved.DayEndTime)

	var count int64
	require.NoError(t, db.Model(&model.UserPreferences{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestPreferencesRepository_SaveCreatesRow(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, 1)
	repo := NewPreferencesRepository(db)

	saved, err := repo.Save(context.Background(), user.ID, model.DayWindow{Start: "05:30", End: "21:00"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, saved.UserID)
	assert.Equal(t, "05:30", saved.DayStartTime)
}

func TestTemplateRepository(t *testing.T) {
	db := newTestDB(t)
	user := newTestUser(t, db, 1)
	other := newTestUser(t, db, 2)
	repo := NewTemplateRepository(db)
	ctx := context.Background()

	project := "proj-1"
	first := &model.TimeTemplate{UserID: user.ID, Name: "Будни", Blocks: []model.TemplateBlock{
		{Label: "Работа", Category: model.CategoryWork, StartTime: "09:00", EndTime: "12:00", ProjectID: &project},
		{Label: "Обед", Category: model.CategoryMeals, StartTime: "12:00", EndTime: "13:00"},
	}}
	require.NoError(t, repo.Create(ctx, first))
	require.NotEmpty(t, first.ID)

	second := &model.TimeTemplate{UserID: user.ID, Name: "Выходной"}
	require.NoError(t, repo.Create(ctx, second))

	list, err := repo.ListByUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")
	assert.Equal(t, first.ID, list[1].ID)

	found, err := repo.FindByID(ctx, user.ID, first.ID)
	require.NoError(t, err)
	require.Len(t, found.Blocks, 2)
	assert.Equal(t, "Обед", found.Blocks[1].Label)
	require.NotNil(t, found.Blocks[0].ProjectID)
	assert.Equal(t, "proj-1", *found.Blocks[0].ProjectID)

	_, err = repo.FindByID(ctx, other.ID, first.ID)
	assertNotFound(t, err)

	assertNotFound(t, repo.Delete(ctx, other.ID, first.ID))
	require.NoError(t, repo.Delete(ctx, user.ID, first.ID))
	assertNotFound(t, repo.Delete(ctx, user.ID, first.ID))
}
