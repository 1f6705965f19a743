package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"timebudget/internal/model"
)

// PreferencesRepository manages the per-user day window.
type PreferencesRepository struct {
	db *gorm.DB
}

func NewPreferencesRepository(db *gorm.DB) *PreferencesRepository {
	return &PreferencesRepository{db: db}
}

// GetOrCreate returns the user's preferences, inserting defaults on first access.
func (r *PreferencesRepository) GetOrCreate(ctx context.Context, userID uint, defaults model.DayWindow) (*model.UserPreferences, error) {
	db := r.db.WithContext(ctx)

	var prefs model.UserPreferences
	err := db.Where("user_id = ?", userID).Take(&prefs).Error
	switch {
	case err == nil:
		return &prefs, nil
	case err == gorm.ErrRecordNotFound:
		prefs = model.UserPreferences{UserID: userID, DayStartTime: defaults.Start, DayEndTime: defaults.End}
		// A concurrent first access may have inserted the row already; keep whichever won.
		if err := db.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "user_id"}}, DoNothing: true}).
			Create(&prefs).Error; err != nil {
			return nil, fmt.Errorf("create preferences: %w", err)
		}
		var stored model.UserPreferences
		if err := db.Where("user_id = ?", userID).Take(&stored).Error; err != nil {
			return nil, fmt.Errorf("find preferences: %w", err)
		}
		return &stored, nil
	default:
		return nil, fmt.Errorf("find preferences: %w", err)
	}
}

// Save writes a new day window for the user, creating the row if needed.
func (r *PreferencesRepository) Save(ctx context.Context, userID uint, window model.DayWindow) (*model.UserPreferences, error) {
	prefs := model.UserPreferences{UserID: userID, DayStartTime: window.Start, DayEndTime: window.End}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"day_start_time", "day_end_time", "updated_at"}),
	}).Create(&prefs).Error
	if err != nil {
		return nil, fmt.Errorf("save preferences: %w", err)
	}

	var stored model.UserPreferences
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Take(&stored).Error; err != nil {
		return nil, fmt.Errorf("find preferences: %w", err)
	}
	return &stored, nil
}
