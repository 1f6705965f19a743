package service

import (
	"strconv"
	"strings"

	"timebudget/internal/apperr"
	"timebudget/internal/model"
)

// CategoryService provides helpers around the category catalog.
type CategoryService struct{}

func NewCategoryService() *CategoryService {
	return &CategoryService{}
}

func (s *CategoryService) List() []model.CategoryInfo {
	return model.Categories()
}

// Parse resolves user input to a category: an id ("deep_work"), a label ("Здоровье"),
// or a 1-based position in List. Matching is case-insensitive.
func (s *CategoryService) Parse(raw string) (model.Category, error) {
	needle := strings.ToLower(strings.TrimSpace(raw))
	if needle == "" {
		return model.CategoryOther, nil
	}
	cats := model.Categories()
	for i, info := range cats {
		if needle == string(info.ID) || needle == strings.ToLower(info.Label) {
			return info.ID, nil
		}
		if n, ok := parsePosition(needle); ok && n == i+1 {
			return info.ID, nil
		}
	}
	return "", &apperr.UnknownCategoryError{Category: raw}
}

func parsePosition(raw string) (int, bool) {
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}
