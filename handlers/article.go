package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"feedreader-be/metrics"
	"feedreader-be/models"
	"feedreader-be/sanitizer"
	"feedreader-be/store"
	"feedreader-be/utils"
)

// ArticleResponse is the list form, excerpt only
type ArticleResponse struct {
	ID          string    `json:"id"`
	FeedID      string    `json:"feed_id"`
	Title       string    `json:"title"`
	Slug        string    `json:"slug"`
	Link        string    `json:"link"`
	Author      string    `json:"author"`
	Excerpt     string    `json:"excerpt"`
	PublishedAt time.Time `json:"published_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ArticleDetailResponse carries the sanitized body ready for raw rendering
type ArticleDetailResponse struct {
	ArticleResponse
	Content   sanitizer.RenderHTML `json:"content"`
	Truncated bool                 `json:"truncated"`
}

type CreateArticleRequest struct {
	FeedID      string     `json:"feed_id" validate:"required,max=64"`
	Title       string     `json:"title" validate:"required,max=500"`
	Link        string     `json:"link" validate:"omitempty,url,max=2048"`
	Author      string     `json:"author" validate:"max=200"`
	Content     string     `json:"content"`
	PublishedAt *time.Time `json:"published_at"`
}

type cachedArticleList struct {
	Articles []ArticleResponse `json:"articles"`
	Meta     *utils.Meta       `json:"meta"`
}

func toArticleResponse(a *models.Article) ArticleResponse {
	return ArticleResponse{
		ID:          a.ID,
		FeedID:      a.FeedID,
		Title:       a.Title,
		Slug:        a.Slug,
		Link:        a.Link,
		Author:      a.Author,
		Excerpt:     a.Excerpt,
		PublishedAt: a.PublishedAt,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func toArticleDetailResponse(a *models.Article) ArticleDetailResponse {
	return ArticleDetailResponse{
		ArticleResponse: toArticleResponse(a),
		// Content is only ever written from sanitizer output.
		Content:   sanitizer.WrapForRender(sanitizer.AssumeSanitized(a.Content)),
		Truncated: a.Truncated,
	}
}

// GetArticles retrieves articles with pagination
func (h *Handler) GetArticles(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page := utils.ParsePagination(r)
	feedID := r.URL.Query().Get("feed_id")

	cacheKey := utils.BuildCacheKey("articles", "list", h.policyKey(), feedID, page.Page, page.Limit)
	var cached cachedArticleList
	if err := utils.CacheGet(ctx, cacheKey, &cached); err == nil {
		metrics.CacheHit("articles")
		utils.RespondSuccess(w, http.StatusOK, map[string]any{"articles": cached.Articles}, cached.Meta)
		return
	}
	metrics.CacheMiss("articles")

	articles, total, err := h.articles.List(ctx, store.ListOptions{
		FeedID: feedID,
		Limit:  page.Limit,
		Offset: page.Offset,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "list articles failed", "error", err)
		utils.RespondInternalError(w)
		return
	}

	response := make([]ArticleResponse, len(articles))
	for i := range articles {
		h.ensureCurrent(ctx, &articles[i])
		response[i] = toArticleResponse(&articles[i])
	}
	meta := page.Meta(total)

	_ = utils.CacheSet(ctx, cacheKey, cachedArticleList{Articles: response, Meta: meta}, utils.CacheTTLArticlesList)

	utils.RespondSuccess(w, http.StatusOK, map[string]any{"articles": response}, meta)
}

// GetArticleByID retrieves a single article
func (h *Handler) GetArticleByID(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	h.getArticle(w, r, utils.BuildCacheKey("articles", "id", id, h.policyKey()), func(ctx context.Context) (*models.Article, error) {
		return h.articles.Get(ctx, id)
	})
}

// GetArticleBySlug retrieves a single article by slug
func (h *Handler) GetArticleBySlug(w http.ResponseWriter, r *http.Request) {
	slug := mux.Vars(r)["slug"]
	h.getArticle(w, r, utils.BuildCacheKey("articles", "slug", slug, h.policyKey()), func(ctx context.Context) (*models.Article, error) {
		return h.articles.GetBySlug(ctx, slug)
	})
}

func (h *Handler) getArticle(w http.ResponseWriter, r *http.Request, cacheKey string, load func(context.Context) (*models.Article, error)) {
	ctx := r.Context()

	var response ArticleDetailResponse
	if err := utils.CacheGet(ctx, cacheKey, &response); err == nil {
		metrics.CacheHit("article")
		utils.RespondSuccess(w, http.StatusOK, response, nil)
		return
	}
	metrics.CacheMiss("article")

	article, err := load(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.RespondNotFound(w, "Article")
			return
		}
		h.logger.ErrorContext(ctx, "load article failed", "error", err)
		utils.RespondInternalError(w)
		return
	}

	h.ensureCurrent(ctx, article)
	response = toArticleDetailResponse(article)

	_ = utils.CacheSet(ctx, cacheKey, response, utils.CacheTTLArticleDetail)

	utils.RespondSuccess(w, http.StatusOK, response, nil)
}

// CreateArticle sanitizes and stores an ingested article
func (h *Handler) CreateArticle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateArticleRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if fields := utils.ValidateStruct(req); fields != nil {
		utils.RespondValidationError(w, fields)
		return
	}

	article := &models.Article{
		FeedID: req.FeedID,
		Title:  req.Title,
		Link:   req.Link,
		Author: req.Author,
	}
	if req.PublishedAt != nil {
		article.PublishedAt = req.PublishedAt.UTC()
	}
	h.applyContent(ctx, article, req.Content)

	if err := h.createWithSlug(ctx, article); err != nil {
		if errors.Is(err, store.ErrSlugExists) {
			utils.RespondConflict(w, "Could not allocate a unique slug")
			return
		}
		h.logger.ErrorContext(ctx, "create article failed", "error", err)
		utils.RespondInternalError(w)
		return
	}
	metrics.IncrementArticlesIngested()

	// Invalidate list caches
	_ = utils.CacheDeletePattern(ctx, "articles:list:*")

	h.logger.InfoContext(ctx, "article ingested", "id", article.ID, "feed_id", article.FeedID, "truncated", article.Truncated)
	utils.RespondSuccess(w, http.StatusCreated, toArticleDetailResponse(article), nil)
}

// createWithSlug retries once when a concurrent insert takes the slug.
func (h *Handler) createWithSlug(ctx context.Context, article *models.Article) error {
	base := utils.GenerateSlug(article.Title)
	var err error
	for range 2 {
		article.Slug, err = utils.UniqueSlug(ctx, base, h.articles.SlugExists)
		if err != nil {
			return err
		}
		if err = h.articles.Create(ctx, article); !errors.Is(err, store.ErrSlugExists) {
			return err
		}
	}
	return err
}

// DeleteArticle removes an article
func (h *Handler) DeleteArticle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := mux.Vars(r)["id"]

	article, err := h.articles.Get(ctx, id)
	if err == nil {
		err = h.articles.Delete(ctx, id)
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.RespondNotFound(w, "Article")
			return
		}
		h.logger.ErrorContext(ctx, "delete article failed", "id", id, "error", err)
		utils.RespondInternalError(w)
		return
	}

	_ = utils.CacheDeletePattern(ctx, "articles:list:*")
	_ = utils.CacheDeletePattern(ctx, utils.BuildCacheKey("articles", "id", id, "*"))
	_ = utils.CacheDeletePattern(ctx, utils.BuildCacheKey("articles", "slug", article.Slug, "*"))

	utils.RespondSuccess(w, http.StatusOK, map[string]string{"message": "Article deleted successfully"}, nil)
}

// applyContent runs raw through the sanitizer and fills the derived fields.
func (h *Handler) applyContent(ctx context.Context, article *models.Article, raw string) {
	start := time.Now()
	result := h.sanitizer.SanitizeWithResult(raw)
	metrics.ObserveSanitize(start, result.InputBytes, result.Truncated)
	if result.Truncated {
		h.logger.WarnContext(ctx, "article content truncated", "feed_id", article.FeedID, "input_bytes", result.InputBytes)
	}

	article.RawContent = raw
	article.Content = result.Content.String()
	article.Excerpt = utils.MakeExcerpt(article.Content, utils.ExcerptLength)
	article.Truncated = result.Truncated
	article.PolicyFingerprint = h.sanitizer.Policy().Fingerprint()
}

// ensureCurrent re-sanitizes an article stored under an older policy.
func (h *Handler) ensureCurrent(ctx context.Context, article *models.Article) {
	if article.PolicyFingerprint == h.sanitizer.Policy().Fingerprint() {
		return
	}

	h.applyContent(ctx, article, article.RawContent)
	if err := h.articles.Update(ctx, article); err != nil {
		h.logger.WarnContext(ctx, "storing re-sanitized article failed", "id", article.ID, "error", err)
		return
	}
	metrics.IncrementArticlesResanitized()
}
