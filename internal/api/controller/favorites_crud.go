package controller

import (
	"context"

	"github.com/bassista/go_fest/internal/favorites"
	"github.com/go-playground/validator/v10"
)

// FavoritesCrudService implements CrudService for favorites.
type FavoritesCrudService struct {
	Store *favorites.Store
}

func (s *FavoritesCrudService) All(ctx context.Context) ([]favorites.Record, error) {
	return s.Store.List(ctx)
}

func (s *FavoritesCrudService) Add(ctx context.Context, item favorites.Record) ([]favorites.Record, error) {
	return s.Store.Add(ctx, item)
}

// Remove reports favorites.ErrNotFound for an id that is not favorited; the store itself
// treats that case as a no-op.
func (s *FavoritesCrudService) Remove(ctx context.Context, id string) ([]favorites.Record, error) {
	ok, err := s.Store.IsFavorited(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, favorites.ErrNotFound
	}
	return s.Store.Remove(ctx, id)
}

// FavoritesCrudValidator implements CrudValidator for favorites.
type FavoritesCrudValidator struct {
	validator *validator.Validate
}

func (v *FavoritesCrudValidator) Validate(item favorites.Record) error {
	return v.validator.Struct(item)
}
