package service

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timebudget/internal/apperr"
	"timebudget/internal/model"
	"timebudget/internal/repository"
)

type blockTuple struct {
	Category model.Category
	Label    string
	Start    string
	End      string
}

func tuples(list []model.TimeAllocation) []blockTuple {
	out := make([]blockTuple, 0, len(list))
	for _, a := range list {
		label := ""
		if a.Label != nil {
			label = *a.Label
		}
		out = append(out, blockTuple{Category: a.Category, Label: label, Start: a.StartTime, End: a.EndTime})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

func TestTemplateService_RoundTrip(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	source := mustDate(t, "2025-05-12")
	target := mustDate(t, "2025-05-19")

	_, err := env.allocations.Create(ctx, env.user, source, AllocationInput{
		Category: model.CategoryDeepWork, Label: strPtr("Отчёт"), ProjectID: strPtr("p-1"),
		StartTime: "09:00", EndTime: "11:00",
	})
	require.NoError(t, err)
	env.add(t, source, model.CategoryMeals, "12:00", "13:00")
	_, err = env.allocations.Create(ctx, env.user, source, AllocationInput{
		Category: model.CategoryMeals, Label: strPtr("Еда"), StartTime: "18:00", EndTime: "19:00",
	})
	require.NoError(t, err)

	tpl, err := env.templates.SaveAsTemplate(ctx, env.user, "  Будни ", source)
	require.NoError(t, err)
	assert.Equal(t, "Будни", tpl.Name)
	require.Len(t, tpl.Blocks, 3)
	assert.Equal(t, "Отчёт", tpl.Blocks[0].Label)
	assert.Equal(t, "Еда", tpl.Blocks[1].Label, "missing label is captured as the category default")
	assert.Equal(t, "Еда", tpl.Blocks[2].Label)
	assert.Equal(t, 240, tpl.TotalMinutes())

	require.NoError(t, env.templates.LoadTemplate(ctx, env.user, tpl.ID, target))

	before, err := env.allocations.List(ctx, env.user, source)
	require.NoError(t, err)
	after, err := env.allocations.List(ctx, env.user, target)
	require.NoError(t, err)
	assert.Equal(t, tuples(before), tuples(after))
	require.NotNil(t, after[0].ProjectID)
	assert.Equal(t, "p-1", *after[0].ProjectID)
	assert.NotEqual(t, before[0].ID, after[0].ID)

	require.Len(t, before, 3, "source date is unaffected")
	require.Len(t, after, 3)
	assert.Equal(t, "Еда", after[2].DisplayLabel())

	// Deleting the source allocations must not change the saved template.
	for _, a := range before {
		require.NoError(t, env.allocations.Delete(ctx, env.user, a.ID))
	}
	stored, err := env.templates.GetTemplate(ctx, env.user, tpl.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Blocks, 3)
}

func TestTemplateService_LoadClearsTarget(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	source := mustDate(t, "2025-05-12")
	target := mustDate(t, "2025-05-13")

	env.add(t, source, model.CategoryWork, "09:00", "10:00")
	tpl, err := env.templates.SaveAsTemplate(ctx, env.user, "Утро", source)
	require.NoError(t, err)

	env.add(t, target, model.CategorySleep, "06:00", "07:00")
	env.add(t, target, model.CategoryAdmin, "15:00", "16:00")

	require.NoError(t, env.templates.LoadTemplate(ctx, env.user, tpl.ID, target))

	list, err := env.allocations.List(ctx, env.user, target)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, model.CategoryWork, list[0].Category)
	assert.Equal(t, "09:00", list[0].StartTime)
}

func TestTemplateService_LoadUnknownTemplate(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	target := mustDate(t, "2025-05-13")
	env.add(t, target, model.CategoryWork, "09:00", "10:00")

	err := env.templates.LoadTemplate(ctx, env.user, "missing", target)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	list, err := env.allocations.List(ctx, env.user, target)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestTemplateService_ReplayIsAtomic(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	target := mustDate(t, "2025-05-13")
	existing := env.add(t, target, model.CategoryWork, "14:00", "15:00")

	// A template whose second block overlaps its first cannot be captured from a real
	// day; store it directly.
	broken := &model.TimeTemplate{UserID: env.user.ID, Name: "broken", Blocks: []model.TemplateBlock{
		{Label: "A", Category: model.CategoryWork, StartTime: "09:00", EndTime: "10:00"},
		{Label: "B", Category: model.CategoryWork, StartTime: "09:30", EndTime: "10:30"},
	}}
	require.NoError(t, repository.NewTemplateRepository(env.db).Create(ctx, broken))

	err := env.templates.LoadTemplate(ctx, env.user, broken.ID, target)
	require.ErrorIs(t, err, apperr.ErrReplayFailed)
	require.ErrorIs(t, err, apperr.ErrOverlap)
	var replay *apperr.ReplayFailedError
	require.ErrorAs(t, err, &replay)
	assert.Equal(t, 1, replay.Block)
	assert.Equal(t, "2025-05-13", replay.Date)

	list, err := env.allocations.List(ctx, env.user, target)
	require.NoError(t, err)
	require.Len(t, list, 1, "target date is left exactly as before")
	assert.Equal(t, existing.ID, list[0].ID)
}

func TestTemplateService_ReplayRejectsInvalidBlock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	target := mustDate(t, "2025-05-13")
	env.add(t, target, model.CategoryWork, "14:00", "15:00")

	broken := &model.TimeTemplate{UserID: env.user.ID, Name: "broken", Blocks: []model.TemplateBlock{
		{Category: "gaming", StartTime: "09:00", EndTime: "10:00"},
	}}
	require.NoError(t, repository.NewTemplateRepository(env.db).Create(ctx, broken))

	err := env.templates.LoadTemplate(ctx, env.user, broken.ID, target)
	require.ErrorIs(t, err, apperr.ErrReplayFailed)
	require.ErrorIs(t, err, apperr.ErrUnknownCategory)

	list, err := env.allocations.List(ctx, env.user, target)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestTemplateService_ListAndDelete(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	day := mustDate(t, "2025-05-12")

	_, err := env.templates.SaveAsTemplate(ctx, env.user, " ", day)
	require.Error(t, err)

	first, err := env.templates.SaveAsTemplate(ctx, env.user, "День", day)
	require.NoError(t, err)
	assert.Empty(t, first.Blocks)
	second, err := env.templates.SaveAsTemplate(ctx, env.user, "День", day)
	require.NoError(t, err)

	list, err := env.templates.ListTemplates(ctx, env.user)
	require.NoError(t, err)
	require.Len(t, list, 2, "names are not deduplicated")
	assert.Equal(t, second.ID, list[0].ID)

	require.NoError(t, env.templates.DeleteTemplate(ctx, env.user, first.ID))
	require.ErrorIs(t, env.templates.DeleteTemplate(ctx, env.user, first.ID), apperr.ErrNotFound)

	list, err = env.templates.ListTemplates(ctx, env.user)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestBlockInput(t *testing.T) {
	in := blockInput(model.TemplateBlock{Label: "Еда", Category: model.CategoryMeals, StartTime: "12:00", EndTime: "13:00"})
	assert.Nil(t, in.Label)

	in = blockInput(model.TemplateBlock{Label: "Обед", Category: model.CategoryMeals, StartTime: "12:00", EndTime: "13:00"})
	require.NotNil(t, in.Label)
	assert.Equal(t, "Обед", *in.Label)
}
