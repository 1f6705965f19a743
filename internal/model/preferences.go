package model

import (
	"time"

	"timebudget/internal/clock"
)

// UserPreferences holds the active-day window of one user.
type UserPreferences struct {
	ID           uint   `gorm:"primaryKey"`
	UserID       uint   `gorm:"uniqueIndex;not null"`
	DayStartTime string `gorm:"not null;size:5"`
	DayEndTime   string `gorm:"not null;size:5"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Window returns the preferences as a DayWindow.
func (p UserPreferences) Window() DayWindow {
	return DayWindow{Start: p.DayStartTime, End: p.DayEndTime}
}

// DayWindow is the active-day bounds used for rendering and plannable-minutes accounting.
type DayWindow struct {
	Start string
	End   string
}

func (w DayWindow) StartMinutes() int { return clock.ToMinutes(w.Start) }
func (w DayWindow) EndMinutes() int   { return clock.ToMinutes(w.End) }

// TotalMinutes is positive for any window stored with start < end.
func (w DayWindow) TotalMinutes() int {
	return w.EndMinutes() - w.StartMinutes()
}
