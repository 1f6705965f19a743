package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"timebudget/internal/apperr"
	"timebudget/internal/clock"
	"timebudget/internal/model"
	"timebudget/internal/repository"
)

// AllocationInput represents data required to create an allocation.
type AllocationInput struct {
	Category  model.Category
	Label     *string
	ProjectID *string
	StartTime string
	EndTime   string
}

// AllocationPatch lists the fields to change on update. Nil fields are left as they are;
// an empty Label or ProjectID clears the value.
type AllocationPatch struct {
	Category  *model.Category
	Label     *string
	ProjectID *string
	StartTime *string
	EndTime   *string
}

// Empty reports whether the patch changes nothing.
func (p AllocationPatch) Empty() bool {
	return p.Category == nil && p.Label == nil && p.ProjectID == nil && p.StartTime == nil && p.EndTime == nil
}

// ErrEmptyPatch is returned by Update when the patch changes nothing.
var ErrEmptyPatch = errors.New("nothing to update")

// AllocationService wraps allocation business logic. All validation happens before the store is touched.
type AllocationService struct {
	repo *repository.AllocationRepository
}

func NewAllocationService(repo *repository.AllocationRepository) *AllocationService {
	return &AllocationService{repo: repo}
}

func (s *AllocationService) List(ctx context.Context, user *model.User, date time.Time) ([]model.TimeAllocation, error) {
	return s.repo.ListByDate(ctx, user.ID, clock.DateKey(date))
}

func (s *AllocationService) Get(ctx context.Context, user *model.User, id string) (*model.TimeAllocation, error) {
	return s.repo.FindByID(ctx, user.ID, id)
}

func (s *AllocationService) Create(ctx context.Context, user *model.User, date time.Time, input AllocationInput) (*model.TimeAllocation, error) {
	allocation, err := buildAllocation(user.ID, clock.DateKey(date), input)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, allocation); err != nil {
		return nil, err
	}

	slog.Info("allocation created",
		"user_id", user.ID, "id", allocation.ID, "date", allocation.AllocationDate,
		"start", allocation.StartTime, "end", allocation.EndTime, "category", allocation.Category)
	return allocation, nil
}

func (s *AllocationService) Update(ctx context.Context, user *model.User, id string, patch AllocationPatch) (*model.TimeAllocation, error) {
	if patch.Empty() {
		return nil, ErrEmptyPatch
	}

	var (
		category   model.Category
		start, end string
		err        error
	)
	if patch.Category != nil {
		if category, err = normalizeCategory(*patch.Category); err != nil {
			return nil, err
		}
	}
	if patch.StartTime != nil {
		if start, err = normalizeTime("start", *patch.StartTime); err != nil {
			return nil, err
		}
	}
	if patch.EndTime != nil {
		if end, err = normalizeTime("end", *patch.EndTime); err != nil {
			return nil, err
		}
	}

	updated, err := s.repo.Update(ctx, user.ID, id, func(a *model.TimeAllocation) {
		if patch.Category != nil {
			a.Category = category
		}
		if patch.StartTime != nil {
			a.StartTime = start
		}
		if patch.EndTime != nil {
			a.EndTime = end
		}
		if patch.Label != nil {
			a.Label = optionalText(patch.Label)
		}
		if patch.ProjectID != nil {
			a.ProjectID = optionalText(patch.ProjectID)
		}
		a.Label = labelOverride(a.Label, a.Category)
	})
	if err != nil {
		return nil, err
	}

	slog.Info("allocation updated",
		"user_id", user.ID, "id", updated.ID, "start", updated.StartTime, "end", updated.EndTime)
	return updated, nil
}

func (s *AllocationService) Delete(ctx context.Context, user *model.User, id string) error {
	if err := s.repo.Delete(ctx, user.ID, id); err != nil {
		return err
	}
	slog.Info("allocation deleted", "user_id", user.ID, "id", id)
	return nil
}

// buildAllocation validates input and returns the row to insert.
func buildAllocation(userID uint, date string, input AllocationInput) (*model.TimeAllocation, error) {
	category, err := normalizeCategory(input.Category)
	if err != nil {
		return nil, err
	}
	start, err := normalizeTime("start", input.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := normalizeTime("end", input.EndTime)
	if err != nil {
		return nil, err
	}
	if end <= start {
		return nil, &apperr.InvalidIntervalError{Start: start, End: end}
	}

	return &model.TimeAllocation{
		UserID:          userID,
		AllocationDate:  date,
		StartTime:       start,
		EndTime:         end,
		DurationMinutes: clock.Duration(start, end),
		Category:        category,
		Label:           labelOverride(optionalText(input.Label), category),
		ProjectID:       optionalText(input.ProjectID),
	}, nil
}

// labelOverride drops a label equal to the category's own label, so a stored label is
// always an override and DisplayLabel stays the same either way.
func labelOverride(label *string, category model.Category) *string {
	if label != nil && *label == category.Info().Label {
		return nil
	}
	return label
}

func normalizeCategory(c model.Category) (model.Category, error) {
	c = model.Category(strings.ToLower(strings.TrimSpace(string(c))))
	if c == "" {
		return model.CategoryOther, nil
	}
	if !c.Valid() {
		return "", &apperr.UnknownCategoryError{Category: string(c)}
	}
	return c, nil
}

func normalizeTime(field, raw string) (string, error) {
	value, err := clock.Normalize(raw)
	if err != nil {
		return "", fmt.Errorf("%s time: %w", field, err)
	}
	return value, nil
}

func optionalText(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
