package service

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"go-case-records/internal/model"
	"go-case-records/internal/permission"
	"go-case-records/pkg/apierror"
)

type CategoryService struct {
	categories categoryStore
}

func NewCategoryService(categories categoryStore) *CategoryService {
	return &CategoryService{categories: categories}
}

func (s *CategoryService) Create(ctx context.Context, session model.Session, title string) (model.Category, error) {
	if err := permission.Check(session, permission.ActionAdd, permission.Category()); err != nil {
		return model.Category{}, err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return model.Category{}, apierror.Validation("title is required", "")
	}
	if len(title) > 100 {
		return model.Category{}, apierror.Validation("title is too long", "maximum 100 characters")
	}

	existing, err := s.categories.FindByTitle(ctx, title)
	switch {
	case err == nil:
		return model.Category{}, apierror.New(apierror.CodeConflict, "category already exists", existing.Title, http.StatusConflict)
	case !errors.Is(err, model.ErrNotFound):
		return model.Category{}, err
	}

	// a concurrent insert still surfaces as ErrConstraintViolation
	return s.categories.Create(ctx, title, session.SubjectID)
}

func (s *CategoryService) List(ctx context.Context) ([]model.Category, error) {
	return s.categories.List(ctx)
}
