package model

import "timebudget/internal/clock"

// DailySummary is the dashboard view of one date's allocations.
type DailySummary struct {
	Date             string
	ByCategory       map[Category]int
	AllocatedMinutes int
	WindowMinutes    int
	RemainingMinutes int
}

// TimelineSegment is the render geometry of one allocation on the day window.
type TimelineSegment struct {
	Allocation    TimeAllocation
	Category      CategoryInfo
	OffsetPercent float64
	WidthPercent  float64
	// Visible is false when the allocation lies entirely outside the window.
	Visible bool
}

// Timeline is the horizontal layout of a date against the day window.
type Timeline struct {
	Window   DayWindow
	Segments []TimelineSegment
}

func durationOf(start, end string) int {
	s, err := clock.Parse(start)
	if err != nil {
		return 0
	}
	e, err := clock.Parse(end)
	if err != nil || e <= s {
		return 0
	}
	return e - s
}
