package utils

import (
	"net/http"
	"strconv"
)

const (
	// DefaultPageSize applies when page_size is absent or invalid
	DefaultPageSize = 10
	// MaxPageSize caps page_size
	MaxPageSize = 100
)

// Page is a 1-based page request
type Page struct {
	Number int
	Size   int
}

// ParsePage reads page and page_size from the query string
func ParsePage(r *http.Request) Page {
	q := r.URL.Query()
	p := Page{Number: 1, Size: DefaultPageSize}
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		p.Number = n
	}
	if s, err := strconv.Atoi(q.Get("page_size")); err == nil && s > 0 {
		p.Size = s
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Limit returns the SQL limit of the page
func (p Page) Limit() int {
	return p.Size
}

// Offset returns the SQL offset of the page
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// ParseBool reads an optional boolean query parameter
func ParseBool(r *http.Request, name string) *bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(name))
	if err != nil {
		return nil
	}
	return &v
}
