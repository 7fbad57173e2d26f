package services

import (
	"context"

	"github.com/osmium8/reviews-backend/internal/domain"
	"github.com/osmium8/reviews-backend/internal/repos"
	"github.com/osmium8/reviews-backend/internal/validate"
)

type CategoryInput struct {
	Name  string `json:"name" validate:"required"`
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

type CategoryService struct {
	Cats repos.CategoryRepo
}

func NewCategoryService(cats repos.CategoryRepo) *CategoryService {
	return &CategoryService{Cats: cats}
}

func (s *CategoryService) List(ctx context.Context) ([]domain.Category, error) {
	return s.Cats.List(ctx)
}

func (s *CategoryService) Get(ctx context.Context, id string) (*domain.Category, error) {
	c, err := s.Cats.Get(ctx, id)
	if err != nil {
		return nil, storeErr(err, "category", id)
	}
	return c, nil
}

func (s *CategoryService) Create(ctx context.Context, in CategoryInput) (*domain.Category, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	c := &domain.Category{Name: in.Name, Icon: in.Icon, Color: in.Color}
	if err := s.Cats.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CategoryService) Update(ctx context.Context, id string, in CategoryInput) (*domain.Category, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	c := &domain.Category{ID: id, Name: in.Name, Icon: in.Icon, Color: in.Color}
	if err := s.Cats.Update(ctx, c); err != nil {
		return nil, storeErr(err, "category", id)
	}
	return c, nil
}

func (s *CategoryService) Delete(ctx context.Context, id string) error {
	return storeErr(s.Cats.Delete(ctx, id), "category", id)
}
