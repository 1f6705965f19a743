package service

import (
	"context"
	"time"

	"timebudget/internal/clock"
	"timebudget/internal/model"
	"timebudget/internal/repository"
)

// SummaryService aggregates a date's allocations. It keeps no state of its own.
type SummaryService struct {
	allocations *repository.AllocationRepository
	prefs       *PreferencesService
}

func NewSummaryService(allocations *repository.AllocationRepository, prefs *PreferencesService) *SummaryService {
	return &SummaryService{allocations: allocations, prefs: prefs}
}

// Summarize returns minutes per category. Categories without minutes are absent.
func (s *SummaryService) Summarize(ctx context.Context, user *model.User, date time.Time) (map[model.Category]int, error) {
	list, err := s.allocations.ListByDate(ctx, user.ID, clock.DateKey(date))
	if err != nil {
		return nil, err
	}
	return aggregate(list), nil
}

func (s *SummaryService) DailySummary(ctx context.Context, user *model.User, date time.Time) (*model.DailySummary, error) {
	byCategory, err := s.Summarize(ctx, user, date)
	if err != nil {
		return nil, err
	}
	window, err := s.prefs.Window(ctx, user)
	if err != nil {
		return nil, err
	}
	return buildSummary(clock.DateKey(date), byCategory, window), nil
}

func aggregate(list []model.TimeAllocation) map[model.Category]int {
	out := make(map[model.Category]int)
	for _, a := range list {
		if a.DurationMinutes <= 0 {
			continue
		}
		out[a.Category.Normalize()] += a.DurationMinutes
	}
	return out
}

func buildSummary(date string, byCategory map[model.Category]int, window model.DayWindow) *model.DailySummary {
	allocated := 0
	for _, minutes := range byCategory {
		allocated += minutes
	}
	total := window.TotalMinutes()
	remaining := total - allocated
	if remaining < 0 {
		remaining = 0
	}
	return &model.DailySummary{
		Date:             date,
		ByCategory:       byCategory,
		AllocatedMinutes: allocated,
		WindowMinutes:    total,
		RemainingMinutes: remaining,
	}
}
