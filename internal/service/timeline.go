package service

import (
	"timebudget/internal/clock"
	"timebudget/internal/model"
)

// BuildTimeline lays allocations out on the day window as percentages of its width.
// Parts outside the window are clipped; an allocation entirely outside stays in the
// result with Visible set to false.
func BuildTimeline(window model.DayWindow, allocations []model.TimeAllocation) model.Timeline {
	timeline := model.Timeline{Window: window, Segments: make([]model.TimelineSegment, 0, len(allocations))}

	ws, errStart := clock.Parse(window.Start)
	we, errEnd := clock.Parse(window.End)
	total := we - ws

	for _, a := range allocations {
		seg := model.TimelineSegment{Allocation: a, Category: a.Category.Info()}

		start, err1 := clock.Parse(a.StartTime)
		end, err2 := clock.Parse(a.EndTime)
		if errStart != nil || errEnd != nil || total <= 0 || err1 != nil || err2 != nil {
			timeline.Segments = append(timeline.Segments, seg)
			continue
		}

		clipStart, clipEnd := max(start, ws), min(end, we)
		seg.OffsetPercent = clampPercent(float64(start-ws) / float64(total) * 100)
		if clipEnd > clipStart {
			seg.Visible = true
			seg.OffsetPercent = clampPercent(float64(clipStart-ws) / float64(total) * 100)
			seg.WidthPercent = clampPercent(float64(clipEnd-clipStart) / float64(total) * 100)
		}
		timeline.Segments = append(timeline.Segments, seg)
	}
	return timeline
}

func clampPercent(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
