package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"feedreader-be/models"
)

type InMemoryArticleStore struct {
	mu       sync.RWMutex
	articles map[string]models.Article
	slugs    map[string]string
}

func NewInMemoryArticleStore() *InMemoryArticleStore {
	return &InMemoryArticleStore{
		articles: make(map[string]models.Article),
		slugs:    make(map[string]string),
	}
}

func (s *InMemoryArticleStore) Name() string { return "memory" }

func (s *InMemoryArticleStore) Create(_ context.Context, article *models.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.slugs[article.Slug]; taken {
		return ErrSlugExists
	}

	article.EnsureID()
	now := time.Now().UTC()
	if article.CreatedAt.IsZero() {
		article.CreatedAt = now
	}
	article.UpdatedAt = now
	if article.PublishedAt.IsZero() {
		article.PublishedAt = article.CreatedAt
	}

	s.articles[article.ID] = *article
	s.slugs[article.Slug] = article.ID
	return nil
}

func (s *InMemoryArticleStore) Get(_ context.Context, id string) (*models.Article, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.articles[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (s *InMemoryArticleStore) GetBySlug(ctx context.Context, slug string) (*models.Article, error) {
	s.mu.RLock()
	id, ok := s.slugs[slug]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return s.Get(ctx, id)
}

func (s *InMemoryArticleStore) List(_ context.Context, opts ListOptions) ([]models.Article, int64, error) {
	s.mu.RLock()
	matched := make([]models.Article, 0, len(s.articles))
	for _, a := range s.articles {
		if opts.FeedID != "" && a.FeedID != opts.FeedID {
			continue
		}
		matched = append(matched, a)
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].PublishedAt.Equal(matched[j].PublishedAt) {
			return matched[i].PublishedAt.After(matched[j].PublishedAt)
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if opts.Offset >= len(matched) {
		return []models.Article{}, total, nil
	}
	matched = matched[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(matched) {
		matched = matched[:opts.Limit]
	}
	return matched, total, nil
}

func (s *InMemoryArticleStore) Update(_ context.Context, article *models.Article) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.articles[article.ID]
	if !ok {
		return ErrNotFound
	}
	if article.Slug != existing.Slug {
		if _, taken := s.slugs[article.Slug]; taken {
			return ErrSlugExists
		}
		delete(s.slugs, existing.Slug)
		s.slugs[article.Slug] = article.ID
	}

	article.UpdatedAt = time.Now().UTC()
	s.articles[article.ID] = *article
	return nil
}

func (s *InMemoryArticleStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.articles[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.slugs, a.Slug)
	delete(s.articles, id)
	return nil
}

func (s *InMemoryArticleStore) SlugExists(_ context.Context, slug string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.slugs[slug]
	return ok, nil
}
