package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"timebudget/internal/apperr"
	"timebudget/internal/clock"
)

// TimeAllocation is one labeled block of a user's day.
// StartTime and EndTime are canonical "HH:MM"; DurationMinutes is derived from them on every write.
type TimeAllocation struct {
	ID              string   `gorm:"primaryKey;size:36"`
	UserID          uint     `gorm:"not null;index:idx_alloc_user_date,priority:1"`
	AllocationDate  string   `gorm:"not null;size:10;index:idx_alloc_user_date,priority:2"`
	StartTime       string   `gorm:"not null;size:5;check:chk_time_allocations_interval,end_time > start_time"`
	EndTime         string   `gorm:"not null;size:5"`
	DurationMinutes int      `gorm:"not null"`
	Category        Category `gorm:"not null;size:20;default:other"`
	Label           *string
	ProjectID       *string `gorm:"size:64"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (a *TimeAllocation) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}

// BeforeSave keeps DurationMinutes consistent with the current start and end.
func (a *TimeAllocation) BeforeSave(tx *gorm.DB) error {
	start, err := clock.Parse(a.StartTime)
	if err != nil {
		return err
	}
	end, err := clock.Parse(a.EndTime)
	if err != nil {
		return err
	}
	if end <= start {
		return &apperr.InvalidIntervalError{Start: a.StartTime, End: a.EndTime}
	}
	a.DurationMinutes = end - start
	return nil
}

// DisplayLabel returns the label override or the category's default label.
func (a TimeAllocation) DisplayLabel() string {
	if a.Label != nil && strings.TrimSpace(*a.Label) != "" {
		return strings.TrimSpace(*a.Label)
	}
	return a.Category.Info().Label
}

// Overlaps reports whether the half-open intervals [s1,e1) and [s2,e2) intersect.
// Back-to-back intervals (e1 == s2) do not overlap.
func Overlaps(s1, e1, s2, e2 int) bool {
	return s1 < e2 && e1 > s2
}

// FindOverlap returns the first allocation in existing that intersects [start,end),
// skipping the allocation whose ID is excludeID.
func FindOverlap(existing []TimeAllocation, start, end, excludeID string) *TimeAllocation {
	s, e := clock.ToMinutes(start), clock.ToMinutes(end)
	for i := range existing {
		other := existing[i]
		if excludeID != "" && other.ID == excludeID {
			continue
		}
		if Overlaps(s, e, clock.ToMinutes(other.StartTime), clock.ToMinutes(other.EndTime)) {
			return &existing[i]
		}
	}
	return nil
}
