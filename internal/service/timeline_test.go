package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timebudget/internal/model"
)

func TestBuildTimeline(t *testing.T) {
	window := model.DayWindow{Start: "06:00", End: "23:00"}
	allocs := []model.TimeAllocation{
		{ID: "inside", StartTime: "06:00", EndTime: "07:42", Category: model.CategoryWork},
		{ID: "clipped", StartTime: "05:00", EndTime: "06:30", Category: model.CategorySleep},
		{ID: "tail", StartTime: "22:00", EndTime: "23:59", Category: model.CategoryPersonal},
		{ID: "after", StartTime: "23:00", EndTime: "23:30", Category: model.CategoryPersonal},
		{ID: "before", StartTime: "04:00", EndTime: "05:00", Category: ""},
	}

	tl := BuildTimeline(window, allocs)
	assert.Equal(t, window, tl.Window)
	require.Len(t, tl.Segments, len(allocs))

	inside := tl.Segments[0]
	assert.True(t, inside.Visible)
	assert.InDelta(t, 0, inside.OffsetPercent, 1e-9)
	assert.InDelta(t, 10, inside.WidthPercent, 1e-9)
	assert.Equal(t, "Работа", inside.Category.Label)

	clipped := tl.Segments[1]
	assert.True(t, clipped.Visible)
	assert.InDelta(t, 0, clipped.OffsetPercent, 1e-9)
	assert.InDelta(t, 30.0/1020*100, clipped.WidthPercent, 1e-9)

	tail := tl.Segments[2]
	assert.True(t, tail.Visible)
	assert.InDelta(t, 960.0/1020*100, tail.OffsetPercent, 1e-9)
	assert.InDelta(t, 60.0/1020*100, tail.WidthPercent, 1e-9)

	after := tl.Segments[3]
	assert.False(t, after.Visible)
	assert.InDelta(t, 100, after.OffsetPercent, 1e-9)
	assert.Zero(t, after.WidthPercent)

	before := tl.Segments[4]
	assert.False(t, before.Visible)
	assert.Zero(t, before.OffsetPercent)
	assert.Equal(t, model.CategoryOther, before.Category.ID)

	for _, seg := range tl.Segments {
		assert.LessOrEqual(t, seg.OffsetPercent+seg.WidthPercent, 100.0+1e-9)
	}
}

func TestBuildTimeline_DegenerateWindow(t *testing.T) {
	tl := BuildTimeline(model.DayWindow{Start: "10:00", End: "10:00"}, []model.TimeAllocation{
		{StartTime: "09:00", EndTime: "11:00", Category: model.CategoryWork},
	})
	require.Len(t, tl.Segments, 1)
	assert.False(t, tl.Segments[0].Visible)
}
