package service

import (
	"context"
	"net/http"
	"strings"

	"github.com/dafibh/domo/domo-client/internal/cache"
	"github.com/dafibh/domo/domo-client/internal/domain"
	"github.com/dafibh/domo/domo-client/internal/gateway"
	"github.com/dafibh/domo/domo-client/internal/mutation"
)

// CategoryService handles income and expense categories
type CategoryService struct {
	deps Deps

	create mutation.Spec[domain.CategoryInput]
	rename mutation.Spec[CategoryRename]
	delete mutation.Spec[int32]
}

// CategoryRename changes the name of a category
type CategoryRename struct {
	ID   int32
	Name string
}

// NewCategoryService creates a new CategoryService
func NewCategoryService(deps Deps) *CategoryService {
	s := &CategoryService{deps: deps}
	touches := []cache.Key{cache.KeyCategories}

	s.create = mutation.Spec[domain.CategoryInput]{
		Name:    "categories.create",
		Touches: touches,
		Predict: func(view cache.Getter, in domain.CategoryInput) (mutation.Values, error) {
			if err := in.Validate(); err != nil {
				return nil, err
			}
			categories, ok := listOf[domain.Category](view, cache.KeyCategories)
			if !ok {
				return nil, nil
			}
			return mutation.Values{cache.KeyCategories: appended(categories, domain.Category{
				ID:   tempID(),
				Name: strings.TrimSpace(in.Name),
				Type: in.Type,
			})}, nil
		},
		Submit: func(ctx context.Context, gw gateway.Gateway, in domain.CategoryInput) ([]byte, error) {
			return gw.Call(ctx, http.MethodPost, gateway.Collection(gateway.Categories), in)
		},
	}

	// Transactions carry the category name, so a rename refetches them too
	s.rename = mutation.Spec[CategoryRename]{
		Name:        "categories.rename",
		Touches:     touches,
		Invalidates: []cache.Key{cache.KeyCategories, cache.KeyTransactions},
		Predict: func(view cache.Getter, r CategoryRename) (mutation.Values, error) {
			v := &domain.ValidationError{}
			domain.ValidateName(v, "name", r.Name)
			if err := v.OrNil(); err != nil {
				return nil, err
			}
			categories, ok := listOf[domain.Category](view, cache.KeyCategories)
			if !ok {
				return nil, nil
			}
			next, found := replaced(categories, func(c domain.Category) bool { return c.ID == r.ID }, func(c domain.Category) domain.Category {
				c.Name = strings.TrimSpace(r.Name)
				return c
			})
			if !found {
				return nil, domain.ErrCategoryNotFound
			}
			return mutation.Values{cache.KeyCategories: next}, nil
		},
		Submit: func(ctx context.Context, gw gateway.Gateway, r CategoryRename) ([]byte, error) {
			return gw.Call(ctx, http.MethodPatch, gateway.Item(gateway.Categories, r.ID), map[string]string{"name": strings.TrimSpace(r.Name)})
		},
	}

	s.delete = mutation.Spec[int32]{
		Name:        "categories.delete",
		Touches:     touches,
		Invalidates: []cache.Key{cache.KeyCategories, cache.KeyTransactions, cache.KeyRecurringBills},
		Predict: func(view cache.Getter, id int32) (mutation.Values, error) {
			categories, ok := listOf[domain.Category](view, cache.KeyCategories)
			if !ok {
				return nil, nil
			}
			next, found := without(categories, func(c domain.Category) bool { return c.ID == id })
			if !found {
				return nil, domain.ErrCategoryNotFound
			}
			return mutation.Values{cache.KeyCategories: next}, nil
		},
		Submit: func(ctx context.Context, gw gateway.Gateway, id int32) ([]byte, error) {
			return gw.Call(ctx, http.MethodDelete, gateway.Item(gateway.Categories, id), nil)
		},
	}

	return s
}

// List returns the categories
func (s *CategoryService) List(ctx context.Context) ([]domain.Category, error) {
	return readList[domain.Category](ctx, s.deps.Store, cache.KeyCategories)
}

// Create adds a category
func (s *CategoryService) Create(ctx context.Context, in domain.CategoryInput) (*mutation.Handle, error) {
	return mutation.Dispatch(ctx, s.deps.Engine, s.create, in)
}

// Rename changes a category's name
func (s *CategoryService) Rename(ctx context.Context, id int32, name string) (*mutation.Handle, error) {
	return mutation.Dispatch(ctx, s.deps.Engine, s.rename, CategoryRename{ID: id, Name: name})
}

// Delete removes a category. Its transactions keep their rows without one.
func (s *CategoryService) Delete(ctx context.Context, id int32) (*mutation.Handle, error) {
	return mutation.Dispatch(ctx, s.deps.Engine, s.delete, id)
}
