package service

import (
	"carkeeper/internal/reminder"
)

// CategoryService exposes the maintenance catalog to callers.
type CategoryService struct {
	catalog *reminder.Catalog
}

func NewCategoryService(catalog *reminder.Catalog) *CategoryService {
	return &CategoryService{catalog: catalog}
}

// List returns the known maintenance categories in catalog order.
func (s *CategoryService) List() []reminder.Rule {
	return s.catalog.Rules()
}

// Resolve maps a free-text maintenance title onto a category.
func (s *CategoryService) Resolve(title string) (reminder.Rule, bool) {
	return s.catalog.Lookup(title)
}
