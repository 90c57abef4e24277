package service

import (
	"context"
	"strings"

	"github.com/iliyamo/lottery-ticketing/internal/apperror"
	"github.com/iliyamo/lottery-ticketing/internal/model"
	"github.com/iliyamo/lottery-ticketing/internal/repository"
)

// CategoryStore is the categories table.
type CategoryStore interface {
	Create(ctx context.Context, c model.Category) (uint64, error)
	GetByID(ctx context.Context, id uint64) (model.Category, error)
	List(ctx context.Context) ([]model.Category, error)
	Update(ctx context.Context, id uint64, u repository.CategoryUpdate) error
	SoftDelete(ctx context.Context, id uint64) error
}

type CategoryService struct{ store CategoryStore }

func NewCategoryService(store CategoryStore) *CategoryService { return &CategoryService{store: store} }

func (s *CategoryService) Create(ctx context.Context, c model.Category) (model.Category, error) {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return model.Category{}, apperror.BadRequest("Name is required")
	}
	id, err := s.store.Create(ctx, c)
	if err != nil {
		return model.Category{}, apperror.Internal("Failed to create category", err)
	}
	return s.get(ctx, id)
}

func (s *CategoryService) List(ctx context.Context) ([]model.Category, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, apperror.Internal("Failed to fetch categories", err)
	}
	return list, nil
}

func (s *CategoryService) Update(ctx context.Context, id uint64, u repository.CategoryUpdate) (model.Category, error) {
	if u.Name != nil && strings.TrimSpace(*u.Name) == "" {
		return model.Category{}, apperror.BadRequest("Name is required")
	}
	if err := s.store.Update(ctx, id, u); err != nil {
		return model.Category{}, notFoundOr(err, "Category not found", "Failed to update category")
	}
	return s.get(ctx, id)
}

func (s *CategoryService) Delete(ctx context.Context, id uint64) error {
	if err := s.store.SoftDelete(ctx, id); err != nil {
		return notFoundOr(err, "Category not found", "Failed to delete category")
	}
	return nil
}

func (s *CategoryService) get(ctx context.Context, id uint64) (model.Category, error) {
	c, err := s.store.GetByID(ctx, id)
	if err != nil {
		return model.Category{}, notFoundOr(err, "Category not found", "Failed to load category")
	}
	return c, nil
}
