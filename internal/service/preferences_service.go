package service

import (
	"context"
	"log/slog"

	"timebudget/internal/apperr"
	"timebudget/internal/model"
	"timebudget/internal/repository"
)

// PreferencesService owns the per-user day window. Defaults apply until the user sets one.
type PreferencesService struct {
	repo     *repository.PreferencesRepository
	defaults model.DayWindow
}

func NewPreferencesService(repo *repository.PreferencesRepository, defaults model.DayWindow) *PreferencesService {
	return &PreferencesService{repo: repo, defaults: defaults}
}

func (s *PreferencesService) GetDayPreferences(ctx context.Context, user *model.User) (*model.UserPreferences, error) {
	return s.repo.GetOrCreate(ctx, user.ID, s.defaults)
}

// SetDayPreferences stores a new window. start must be strictly before end; nothing is
// written otherwise.
func (s *PreferencesService) SetDayPreferences(ctx context.Context, user *model.User, start, end string) (*model.UserPreferences, error) {
	normStart, err := normalizeTime("day start", start)
	if err != nil {
		return nil, err
	}
	normEnd, err := normalizeTime("day end", end)
	if err != nil {
		return nil, err
	}
	if normStart >= normEnd {
		return nil, &apperr.PreferenceInvariantError{Start: normStart, End: normEnd}
	}

	prefs, err := s.repo.Save(ctx, user.ID, model.DayWindow{Start: normStart, End: normEnd})
	if err != nil {
		return nil, err
	}
	slog.Info("day window updated", "user_id", user.ID, "start", normStart, "end", normEnd)
	return prefs, nil
}

func (s *PreferencesService) Window(ctx context.Context, user *model.User) (model.DayWindow, error) {
	prefs, err := s.GetDayPreferences(ctx, user)
	if err != nil {
		return model.DayWindow{}, err
	}
	return prefs.Window(), nil
}
