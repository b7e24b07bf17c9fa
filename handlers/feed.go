package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/feeds"

	"feedreader-be/store"
	"feedreader-be/utils"
)

const feedSize = 50

// GetAtomFeed re-publishes the latest articles as Atom
func (h *Handler) GetAtomFeed(w http.ResponseWriter, r *http.Request) {
	h.writeFeed(w, r, "application/atom+xml; charset=utf-8", (*feeds.Feed).ToAtom)
}

// GetRSSFeed re-publishes the latest articles as RSS 2.0
func (h *Handler) GetRSSFeed(w http.ResponseWriter, r *http.Request) {
	h.writeFeed(w, r, "application/rss+xml; charset=utf-8", (*feeds.Feed).ToRss)
}

func (h *Handler) writeFeed(w http.ResponseWriter, r *http.Request, contentType string, render func(*feeds.Feed) (string, error)) {
	ctx := r.Context()

	articles, _, err := h.articles.List(ctx, store.ListOptions{
		FeedID: r.URL.Query().Get("feed_id"),
		Limit:  feedSize,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "list articles for feed failed", "error", err)
		utils.RespondInternalError(w)
		return
	}

	feed := &feeds.Feed{
		Title:       h.feed.Title,
		Link:        &feeds.Link{Href: h.feed.Link},
		Description: "Sanitized articles from " + h.feed.Title,
		Id:          h.feed.Link,
		Created:     time.Now().UTC(),
	}
	for i := range articles {
		a := &articles[i]
		h.ensureCurrent(ctx, a)

		link := a.Link
		if link == "" {
			link = strings.TrimRight(h.feed.BaseURL, "/") + "/articles/" + a.Slug
		}
		item := &feeds.Item{
			Id:          a.ID,
			Title:       a.Title,
			Link:        &feeds.Link{Href: link},
			Description: a.Excerpt,
			Content:     a.Content,
			Created:     a.PublishedAt,
			Updated:     a.UpdatedAt,
		}
		if a.Author != "" {
			item.Author = &feeds.Author{Name: a.Author}
		}
		feed.Items = append(feed.Items, item)
		if a.UpdatedAt.After(feed.Updated) {
			feed.Updated = a.UpdatedAt
		}
	}

	body, err := render(feed)
	if err != nil {
		h.logger.ErrorContext(ctx, "render feed failed", "error", err)
		utils.RespondInternalError(w)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}
