// Package repository provides data access layer implementations for the application.
package repository

import (
	"strconv"
	"strings"

	"gorm.io/gorm"
)

// Page is one page of an ordered result set.
type Page[T any] struct {
	Items       []T   `json:"items"`
	Number      int   `json:"number"`
	NumPages    int   `json:"num_pages"`
	Count       int64 `json:"count"`
	PerPage     int   `json:"per_page"`
	HasNext     bool  `json:"has_next"`
	HasPrevious bool  `json:"has_previous"`
}

// ParsePageNumber reads a ?page= value. Anything that is not an integer is
// page 1; integers are returned as-is and clamped later against the real
// page count.
func ParsePageNumber(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	return n
}

func numPages(count int64, perPage int) int {
	if count == 0 {
		return 1
	}
	return int((count + int64(perPage) - 1) / int64(perPage))
}

// resolvePage clamps a requested page number. Out-of-range numbers,
// including zero and negatives, land on the last page.
func resolvePage(requested, pages int) int {
	if requested < 1 || requested > pages {
		return pages
	}
	return requested
}

// paginate counts base, resolves the page number and loads that page.
// decorate adds preloads and ordering to the item query only.
func paginate[T any](base *gorm.DB, requested, perPage int, decorate func(*gorm.DB) *gorm.DB) (*Page[T], error) {
	if perPage < 1 {
		perPage = 10
	}

	var count int64
	if err := base.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return nil, err
	}

	pages := numPages(count, perPage)
	number := resolvePage(requested, pages)

	items := make([]T, 0, perPage)
	if count > 0 {
		q := base.Session(&gorm.Session{})
		if decorate != nil {
			q = decorate(q)
		}
		if err := q.Limit(perPage).Offset((number - 1) * perPage).Find(&items).Error; err != nil {
			return nil, err
		}
	}

	return &Page[T]{
		Items:       items,
		Number:      number,
		NumPages:    pages,
		Count:       count,
		PerPage:     perPage,
		HasNext:     number < pages,
		HasPrevious: number > 1,
	}, nil
}
