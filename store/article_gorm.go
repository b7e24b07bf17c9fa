package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"feedreader-be/models"
)

// GormArticleStore keeps articles in Postgres.
type GormArticleStore struct {
	db *gorm.DB
}

// NewGormArticleStore migrates the articles table and returns the store.
// The connection must be opened with TranslateError so duplicate slugs
// surface as gorm.ErrDuplicatedKey.
func NewGormArticleStore(db *gorm.DB) (*GormArticleStore, error) {
	if err := db.AutoMigrate(&models.Article{}); err != nil {
		return nil, fmt.Errorf("migrate articles: %w", err)
	}
	return &GormArticleStore{db: db}, nil
}

func (s *GormArticleStore) Name() string { return "postgres" }

func (s *GormArticleStore) Create(ctx context.Context, article *models.Article) error {
	if article.PublishedAt.IsZero() {
		article.PublishedAt = s.db.NowFunc()
	}
	if err := s.db.WithContext(ctx).Create(article).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrSlugExists
		}
		return fmt.Errorf("create article: %w", err)
	}
	return nil
}

func (s *GormArticleStore) Get(ctx context.Context, id string) (*models.Article, error) {
	return s.first(ctx, "id = ?", id)
}

func (s *GormArticleStore) GetBySlug(ctx context.Context, slug string) (*models.Article, error) {
	return s.first(ctx, "slug = ?", slug)
}

func (s *GormArticleStore) first(ctx context.Context, query string, arg string) (*models.Article, error) {
	var article models.Article
	if err := s.db.WithContext(ctx).Where(query, arg).First(&article).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find article: %w", err)
	}
	return &article, nil
}

func (s *GormArticleStore) List(ctx context.Context, opts ListOptions) ([]models.Article, int64, error) {
	scoped := func() *gorm.DB {
		query := s.db.WithContext(ctx).Model(&models.Article{})
		if opts.FeedID != "" {
			query = query.Where("feed_id = ?", opts.FeedID)
		}
		return query
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count articles: %w", err)
	}

	var articles []models.Article
	page := scoped().Order("published_at DESC").Order("created_at DESC").Offset(opts.Offset)
	if opts.Limit > 0 {
		page = page.Limit(opts.Limit)
	}
	if err := page.Find(&articles).Error; err != nil {
		return nil, 0, fmt.Errorf("list articles: %w", err)
	}
	return articles, total, nil
}

func (s *GormArticleStore) Update(ctx context.Context, article *models.Article) error {
	result := s.db.WithContext(ctx).Model(article).Select("*").Omit("created_at").Updates(article)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return ErrSlugExists
		}
		return fmt.Errorf("update article: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormArticleStore) Delete(ctx context.Context, id string) error {
	result := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Article{})
	if result.Error != nil {
		return fmt.Errorf("delete article: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormArticleStore) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	// soft-deleted rows still hold the unique index
	if err := s.db.WithContext(ctx).Unscoped().Model(&models.Article{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check slug: %w", err)
	}
	return count > 0, nil
}
