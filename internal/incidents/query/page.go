package query

import (
	"math"
	"strings"
	"unicode"
)

// Pagination bounds.
const (
	DefaultLimit = 10
	MinLimit     = 1
	MaxLimit     = 100
	DefaultPage  = 1
	MaxPage      = math.MaxInt32
)

// Page is a clamped page request.
type Page struct {
	Number int
	Limit  int
}

// ParsePage parses raw page and limit values by their leading integer, so
// "25.7" reads as 25 and "3abc" as 3. Values without digits take the defaults,
// then both are clamped into range.
func ParsePage(page, limit string) Page {
	return NewPage(parseInt(page, DefaultPage), parseInt(limit, DefaultLimit))
}

// NewPage clamps number and limit into range.
func NewPage(number, limit int) Page {
	return Page{
		Number: clamp(number, DefaultPage, MaxPage),
		Limit:  clamp(limit, MinLimit, MaxLimit),
	}
}

// Offset returns the number of rows to skip.
func (p Page) Offset() int64 {
	return int64(p.Number-1) * int64(p.Limit)
}

// PageInfo is the pagination metadata returned with a list.
type PageInfo struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

// NewPageInfo computes metadata for a page given the total number of matching rows.
func NewPageInfo(p Page, total int64) PageInfo {
	var pages int64
	if total > 0 && p.Limit > 0 {
		pages = (total + int64(p.Limit) - 1) / int64(p.Limit)
	}
	return PageInfo{
		Page:       p.Number,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: pages,
	}
}

// parseInt reads the leading integer of s: optional whitespace, an optional
// sign, then decimal digits up to the first non-digit. Input without digits
// yields fallback. Values beyond the int32 range saturate.
func parseInt(s string, fallback int) int {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)

	negative := false
	if s != "" && (s[0] == '+' || s[0] == '-') {
		negative = s[0] == '-'
		s = s[1:]
	}

	digits := 0
	var n int64
	for digits < len(s) && s[digits] >= '0' && s[digits] <= '9' {
		if n <= math.MaxInt32 {
			n = n*10 + int64(s[digits]-'0')
		}
		digits++
	}
	if digits == 0 {
		return fallback
	}

	if negative {
		return int(max(-n, math.MinInt32))
	}
	return int(min(n, math.MaxInt32))
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
