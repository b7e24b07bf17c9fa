package utils

import (
	"net/http"
	"strconv"
)

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

type Pagination struct {
	Page   int
	Limit  int
	Offset int
}

// ParsePagination reads page and limit from the query string. Invalid
// values fall back to the defaults.
func ParsePagination(r *http.Request) Pagination {
	page := 1
	limit := DefaultPageLimit

	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 && l <= MaxPageLimit {
		limit = l
	}

	return Pagination{Page: page, Limit: limit, Offset: (page - 1) * limit}
}

func (p Pagination) Meta(total int64) *Meta {
	totalPages := int(total) / p.Limit
	if int(total)%p.Limit != 0 {
		totalPages++
	}
	return &Meta{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      int(total),
		TotalPages: totalPages,
	}
}
