// AngelaMos | 2026
// pagination.go

package core

import (
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
)

const (
	MaxPageSize      = 100
	MaxPage          = math.MaxInt32 / MaxPageSize
	SortAscending    = "asc"
	SortDescending   = "desc"
	defaultSortField = "id"
)

// PageRequest is a zero-based page request.
type PageRequest struct {
	Page      int
	Size      int
	Sort      string
	Direction string
}

func PageRequestFromQuery(r *http.Request, defaultSize int) PageRequest {
	q := r.URL.Query()

	p := PageRequest{
		Page:      parseInt(q.Get("page"), 0),
		Size:      parseInt(q.Get("size"), defaultSize),
		Sort:      q.Get("sort"),
		Direction: q.Get("direction"),
	}
	p.Normalize(defaultSize)

	return p
}

func (p *PageRequest) Normalize(defaultSize int) {
	if p.Page < 0 {
		p.Page = 0
	}
	// Page*Size must stay within int32 so Offset cannot overflow.
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.Size < 1 {
		p.Size = defaultSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	if p.Sort == "" {
		p.Sort = defaultSortField
	}
	if strings.EqualFold(p.Direction, SortDescending) {
		p.Direction = SortDescending
	} else {
		p.Direction = SortAscending
	}
}

func (p PageRequest) Offset() int {
	return p.Page * p.Size
}

// OrderBy resolves the sort field against a whitelist of field → column and
// returns an ORDER BY expression. The id column is appended as a tiebreaker.
func (p PageRequest) OrderBy(columns map[string]string) (string, error) {
	column, ok := columns[p.Sort]
	if !ok {
		return "", BadRequestError(fmt.Sprintf("cannot sort by '%s'", p.Sort))
	}

	dir := "ASC"
	if p.Direction == SortDescending {
		dir = "DESC"
	}

	if p.Sort == defaultSortField {
		return fmt.Sprintf("%s %s", column, dir), nil
	}

	return fmt.Sprintf("%s %s, %s ASC", column, dir, columns[defaultSortField]), nil
}

func (p PageRequest) CacheKey() string {
	return fmt.Sprintf("%d-%d-%s-%s", p.Page, p.Size, p.Sort, p.Direction)
}

type Page[T any] struct {
	Content       []T  `json:"content"`
	Page          int  `json:"page"`
	Size          int  `json:"size"`
	TotalElements int  `json:"total_elements"`
	TotalPages    int  `json:"total_pages"`
	First         bool `json:"first"`
	Last          bool `json:"last"`
	Empty         bool `json:"empty"`
}

func NewPage[T any](content []T, req PageRequest, total int) Page[T] {
	if content == nil {
		content = []T{}
	}

	totalPages := 0
	if req.Size > 0 {
		totalPages = (total + req.Size - 1) / req.Size
	}

	return Page[T]{
		Content:       content,
		Page:          req.Page,
		Size:          req.Size,
		TotalElements: total,
		TotalPages:    totalPages,
		First:         req.Page == 0,
		Last:          req.Page >= totalPages-1,
		Empty:         len(content) == 0,
	}
}

func parseInt(val string, defaultVal int) int {
	if val == "" {
		return defaultVal
	}

	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}

	return parsed
}

// ParseID parses a positive int64 path parameter.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, BadRequestError(fmt.Sprintf("invalid id '%s'", raw))
	}
	return id, nil
}
