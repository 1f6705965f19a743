package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"timebudget/internal/apperr"
	"timebudget/internal/model"
)

// AllocationRepository persists time allocations and enforces the no-overlap invariant
// for each (user, date) inside the write transaction.
type AllocationRepository struct {
	db *gorm.DB
}

func NewAllocationRepository(db *gorm.DB) *AllocationRepository {
	return &AllocationRepository{db: db}
}

// Transaction runs fn with a repository bound to one transaction. Everything fn does is
// committed together or rolled back together.
func (r *AllocationRepository) Transaction(ctx context.Context, fn func(tx *AllocationRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&AllocationRepository{db: tx})
	})
}

// ListByDate returns the date's allocations ordered by start time.
func (r *AllocationRepository) ListByDate(ctx context.Context, userID uint, date string) ([]model.TimeAllocation, error) {
	var allocations []model.TimeAllocation
	if err := r.db.WithContext(ctx).Where("user_id = ? AND allocation_date = ?", userID, date).
		Order("start_time ASC NULLS LAST, created_at ASC").
		Find(&allocations).Error; err != nil {
		return nil, fmt.Errorf("list allocations: %w", err)
	}
	return allocations, nil
}

func (r *AllocationRepository) FindByID(ctx context.Context, userID uint, id string) (*model.TimeAllocation, error) {
	var allocation model.TimeAllocation
	err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).Take(&allocation).Error
	switch {
	case err == nil:
		return &allocation, nil
	case err == gorm.ErrRecordNotFound:
		return nil, &apperr.NotFoundError{Kind: "allocation", ID: id}
	default:
		return nil, fmt.Errorf("find allocation: %w", err)
	}
}

// Create inserts allocation after checking it against the current rows of its date.
func (r *AllocationRepository) Create(ctx context.Context, allocation *model.TimeAllocation) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := checkOverlap(tx, allocation); err != nil {
			return err
		}
		if err := tx.Create(allocation).Error; err != nil {
			if isOverlapViolation(err) {
				return overlapFromViolation(tx, allocation)
			}
			return fmt.Errorf("create allocation: %w", err)
		}
		return nil
	})
}

// Update loads the allocation, applies mutate and saves it, re-running the interval and
// overlap checks against every other allocation of the date.
func (r *AllocationRepository) Update(ctx context.Context, userID uint, id string, mutate func(*model.TimeAllocation)) (*model.TimeAllocation, error) {
	var updated model.TimeAllocation
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("user_id = ? AND id = ?", userID, id).Take(&updated).Error
		if err == gorm.ErrRecordNotFound {
			return &apperr.NotFoundError{Kind: "allocation", ID: id}
		}
		if err != nil {
			return fmt.Errorf("find allocation: %w", err)
		}

		mutate(&updated)

		if updated.EndTime <= updated.StartTime {
			return &apperr.InvalidIntervalError{Start: updated.StartTime, End: updated.EndTime}
		}
		if err := checkOverlap(tx, &updated); err != nil {
			return err
		}
		if err := tx.Save(&updated).Error; err != nil {
			if isOverlapViolation(err) {
				return overlapFromViolation(tx, &updated)
			}
			return fmt.Errorf("update allocation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Delete removes one allocation of the user.
func (r *AllocationRepository) Delete(ctx context.Context, userID uint, id string) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).Delete(&model.TimeAllocation{})
	if res.Error != nil {
		return fmt.Errorf("delete allocation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return &apperr.NotFoundError{Kind: "allocation", ID: id}
	}
	return nil
}

// DeleteByDate removes every allocation of the user on date and reports how many were removed.
func (r *AllocationRepository) DeleteByDate(ctx context.Context, userID uint, date string) (int64, error) {
	res := r.db.WithContext(ctx).Where("user_id = ? AND allocation_date = ?", userID, date).Delete(&model.TimeAllocation{})
	if res.Error != nil {
		return 0, fmt.Errorf("clear allocations: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func checkOverlap(tx *gorm.DB, allocation *model.TimeAllocation) error {
	var sameDay []model.TimeAllocation
	if err := tx.Where("user_id = ? AND allocation_date = ?", allocation.UserID, allocation.AllocationDate).
		Find(&sameDay).Error; err != nil {
		return fmt.Errorf("load allocations for overlap check: %w", err)
	}
	if conflict := model.FindOverlap(sameDay, allocation.StartTime, allocation.EndTime, allocation.ID); conflict != nil {
		return &apperr.OverlapError{
			ConflictID:    conflict.ID,
			ConflictStart: conflict.StartTime,
			ConflictEnd:   conflict.EndTime,
		}
	}
	return nil
}

// overlapFromViolation builds the error for a write the overlap triggers refused, naming
// the row that caused it when it can still be read.
func overlapFromViolation(tx *gorm.DB, allocation *model.TimeAllocation) error {
	var conflict model.TimeAllocation
	err := tx.Where("user_id = ? AND allocation_date = ? AND id <> ? AND start_time < ? AND end_time > ?",
		allocation.UserID, allocation.AllocationDate, allocation.ID, allocation.EndTime, allocation.StartTime).
		Order("start_time ASC").
		Take(&conflict).Error
	if err != nil {
		return &apperr.OverlapError{}
	}
	return &apperr.OverlapError{
		ConflictID:    conflict.ID,
		ConflictStart: conflict.StartTime,
		ConflictEnd:   conflict.EndTime,
	}
}
