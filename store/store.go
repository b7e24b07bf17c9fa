// Package store persists articles. The gorm implementation backs production;
// the in-memory one serves STORAGE_DRIVER=memory and tests.
package store

import (
	"context"
	"errors"

	"feedreader-be/models"
)

var (
	ErrNotFound   = errors.New("article not found")
	ErrSlugExists = errors.New("article slug already exists")
)

// ListOptions selects a page of articles, newest first.
type ListOptions struct {
	FeedID string
	Limit  int
	Offset int
}

type ArticleStore interface {
	Create(ctx context.Context, article *models.Article) error
	Get(ctx context.Context, id string) (*models.Article, error)
	GetBySlug(ctx context.Context, slug string) (*models.Article, error)
	List(ctx context.Context, opts ListOptions) ([]models.Article, int64, error)
	Update(ctx context.Context, article *models.Article) error
	Delete(ctx context.Context, id string) error
	SlugExists(ctx context.Context, slug string) (bool, error)
	Name() string
}
