package pagination

import (
	"math"
	"net/url"
	"strconv"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
	// MaxPage keeps Offset within an int32 for any limit.
	MaxPage      = math.MaxInt32 / MaxLimit
)

// Params selects one page of a listing. Page is 1-based.
type Params struct {
	Page  int
	Limit int
}

// Normalize clamps the params into a valid range.
func (p Params) Normalize() Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Offset is the number of rows to skip.
func (p Params) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.Limit
}

// FromQuery reads page and limit from query values. Unparseable values fall
// back to the defaults.
func FromQuery(q url.Values) Params {
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	return Params{Page: page, Limit: limit}.Normalize()
}

type Page[T any] struct {
	Items      []T
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

func NewPage[T any](items []T, p Params, total int) Page[T] {
	p = p.Normalize()
	if items == nil {
		items = []T{}
	}
	pages := 0
	if total > 0 {
		pages = (total + p.Limit - 1) / p.Limit
	}
	return Page[T]{
		Items:      items,
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: pages,
	}
}

// Map converts the items of a page, keeping the page metadata.
func Map[T, U any](in Page[T], fn func(T) U) Page[U] {
	out := make([]U, 0, len(in.Items))
	for _, item := range in.Items {
		out = append(out, fn(item))
	}
	return Page[U]{
		Items:      out,
		Page:       in.Page,
		Limit:      in.Limit,
		Total:      in.Total,
		TotalPages: in.TotalPages,
	}
}
