package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"timebudget/internal/apperr"
	"timebudget/internal/model"
)

// TemplateRepository persists day templates. Blocks are stored by value.
type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func (r *TemplateRepository) Create(ctx context.Context, tpl *model.TimeTemplate) error {
	if err := r.db.WithContext(ctx).Create(tpl).Error; err != nil {
		return fmt.Errorf("create template: %w", err)
	}
	return nil
}

// ListByUser returns the user's templates, newest first.
func (r *TemplateRepository) ListByUser(ctx context.Context, userID uint) ([]model.TimeTemplate, error) {
	var templates []model.TimeTemplate
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC, rowid DESC").
		Find(&templates).Error; err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	return templates, nil
}

func (r *TemplateRepository) FindByID(ctx context.Context, userID uint, id string) (*model.TimeTemplate, error) {
	var tpl model.TimeTemplate
	err := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).Take(&tpl).Error
	switch {
	case err == nil:
		return &tpl, nil
	case err == gorm.ErrRecordNotFound:
		return nil, &apperr.NotFoundError{Kind: "template", ID: id}
	default:
		return nil, fmt.Errorf("find template: %w", err)
	}
}

func (r *TemplateRepository) Delete(ctx context.Context, userID uint, id string) error {
	res := r.db.WithContext(ctx).Where("user_id = ? AND id = ?", userID, id).Delete(&model.TimeTemplate{})
	if res.Error != nil {
		return fmt.Errorf("delete template: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return &apperr.NotFoundError{Kind: "template", ID: id}
	}
	return nil
}
