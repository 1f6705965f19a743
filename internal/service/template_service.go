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

// TemplateService captures a day's blocks as a template and replays templates onto dates.
type TemplateService struct {
	templates   *repository.TemplateRepository
	allocations *repository.AllocationRepository
}

func NewTemplateService(templates *repository.TemplateRepository, allocations *repository.AllocationRepository) *TemplateService {
	return &TemplateService{templates: templates, allocations: allocations}
}

// SaveAsTemplate snapshots the allocations of date. Names are not unique.
func (s *TemplateService) SaveAsTemplate(ctx context.Context, user *model.User, name string, date time.Time) (*model.TimeTemplate, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("template name is required")
	}

	list, err := s.allocations.ListByDate(ctx, user.ID, clock.DateKey(date))
	if err != nil {
		return nil, err
	}

	blocks := make([]model.TemplateBlock, 0, len(list))
	for _, a := range list {
		var project *string
		if a.ProjectID != nil {
			p := *a.ProjectID
			project = &p
		}
		blocks = append(blocks, model.TemplateBlock{
			Label:     a.DisplayLabel(),
			Category:  a.Category.Normalize(),
			StartTime: a.StartTime,
			EndTime:   a.EndTime,
			ProjectID: project,
		})
	}

	tpl := &model.TimeTemplate{UserID: user.ID, Name: name, Blocks: blocks}
	if err := s.templates.Create(ctx, tpl); err != nil {
		return nil, err
	}

	slog.Info("template saved", "user_id", user.ID, "id", tpl.ID, "blocks", len(blocks), "source_date", clock.DateKey(date))
	return tpl, nil
}

func (s *TemplateService) ListTemplates(ctx context.Context, user *model.User) ([]model.TimeTemplate, error) {
	return s.templates.ListByUser(ctx, user.ID)
}

func (s *TemplateService) GetTemplate(ctx context.Context, user *model.User, id string) (*model.TimeTemplate, error) {
	return s.templates.FindByID(ctx, user.ID, id)
}

// LoadTemplate replaces every allocation of targetDate with the template's blocks.
// The clear and all inserts commit together; on any failure the date is left as it was.
func (s *TemplateService) LoadTemplate(ctx context.Context, user *model.User, templateID string, targetDate time.Time) error {
	tpl, err := s.templates.FindByID(ctx, user.ID, templateID)
	if err != nil {
		return err
	}

	date := clock.DateKey(targetDate)
	replayErr := func(block int, err error) error {
		return &apperr.ReplayFailedError{TemplateID: tpl.ID, Date: date, Block: block, Err: err}
	}

	var cleared int64
	err = s.allocations.Transaction(ctx, func(tx *repository.AllocationRepository) error {
		n, err := tx.DeleteByDate(ctx, user.ID, date)
		if err != nil {
			return replayErr(-1, err)
		}
		cleared = n

		for i, block := range tpl.Blocks {
			allocation, err := buildAllocation(user.ID, date, blockInput(block))
			if err != nil {
				return replayErr(i, err)
			}
			if err := tx.Create(ctx, allocation); err != nil {
				return replayErr(i, err)
			}
		}
		return nil
	})
	if err != nil {
		var failed *apperr.ReplayFailedError
		if !errors.As(err, &failed) {
			err = replayErr(-1, err)
		}
		slog.Warn("template replay rolled back", "user_id", user.ID, "template_id", tpl.ID, "date", date, "error", err)
		return err
	}

	slog.Info("template loaded",
		"user_id", user.ID, "template_id", tpl.ID, "date", date, "cleared", cleared, "created", len(tpl.Blocks))
	return nil
}

func (s *TemplateService) DeleteTemplate(ctx context.Context, user *model.User, templateID string) error {
	if err := s.templates.Delete(ctx, user.ID, templateID); err != nil {
		return err
	}
	slog.Info("template deleted", "user_id", user.ID, "id", templateID)
	return nil
}

// blockInput turns a template block back into allocation input. A label equal to the
// category's default label was filled in at capture time and replays as no override.
func blockInput(block model.TemplateBlock) AllocationInput {
	input := AllocationInput{
		Category:  block.Category,
		StartTime: block.StartTime,
		EndTime:   block.EndTime,
		ProjectID: block.ProjectID,
	}
	label := strings.TrimSpace(block.Label)
	if label != "" && label != block.Category.Info().Label {
		input.Label = &label
	}
	return input
}
