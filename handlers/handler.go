package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"feedreader-be/sanitizer"
	"feedreader-be/store"
	"feedreader-be/utils"
)

// FeedConfig describes the re-published Atom/RSS feed.
type FeedConfig struct {
	Title   string
	Link    string
	BaseURL string
}

// Handler holds the dependencies shared by every endpoint.
type Handler struct {
	sanitizer *sanitizer.Sanitizer
	articles  store.ArticleStore
	feed      FeedConfig
	logger    *slog.Logger
}

func New(s *sanitizer.Sanitizer, articles store.ArticleStore, feed FeedConfig, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		sanitizer: s,
		articles:  articles,
		feed:      feed,
		logger:    logger,
	}
}

// decodeJSON reads the body into dst and answers the client itself when
// that fails.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			utils.RespondPayloadTooLarge(w)
		case errors.Is(err, io.EOF):
			utils.RespondBadRequest(w, "Request body is empty")
		default:
			utils.RespondBadRequest(w, "Invalid request body")
		}
		return false
	}
	return true
}
