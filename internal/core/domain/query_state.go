package domain

import (
	"math"
	"strings"
)

// ViewMode - как показываются результаты: списком или на карте.
type ViewMode string

const (
	ViewList ViewMode = "list"
	ViewMap  ViewMode = "map"
)

// ParseViewMode: любое значение кроме "map" означает список.
func ParseViewMode(s string) ViewMode {
	if ViewMode(strings.ToLower(strings.TrimSpace(s))) == ViewMap {
		return ViewMap
	}
	return ViewList
}

// Допустимые размеры страницы.
var PageSizes = []int{12, 24, 48}

const DefaultPageSize = 12

// IsAllowedPageSize проверяет, входит ли n в PageSizes.
func IsAllowedPageSize(n int) bool {
	for _, s := range PageSizes {
		if s == n {
			return true
		}
	}
	return false
}

// MapBounds - видимая область карты. Живет только в рамках сессии
// страницы и в URL не попадает.
type MapBounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// Valid отбрасывает NaN и бесконечности. Порядок сторон не проверяется:
// карта может прислать область через антимеридиан.
func (b MapBounds) Valid() bool {
	for _, v := range []float64{b.North, b.South, b.East, b.West} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// QueryState - каноническое состояние страницы поиска.
type QueryState struct {
	FreeText  string     `json:"q"`
	Filters   Filters    `json:"filters"`
	Page      int        `json:"page"`
	PageSize  int        `json:"pageSize"`
	ViewMode  ViewMode   `json:"viewMode"`
	MapBounds *MapBounds `json:"mapBounds,omitempty"`
}

// DefaultQueryState - состояние пустой страницы.
func DefaultQueryState() QueryState {
	return QueryState{
		Page:     0,
		PageSize: DefaultPageSize,
		ViewMode: ViewList,
	}
}

// Clone возвращает независимую копию.
func (s QueryState) Clone() QueryState {
	out := s
	out.Filters = s.Filters.Clone()
	out.MapBounds = clonePtr(s.MapBounds)
	return out
}

// TotalPages = max(1, ceil(total / pageSize)).
func TotalPages(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 1
	}
	pages := (total + pageSize - 1) / pageSize
	if pages < 1 {
		return 1
	}
	return pages
}

// ClampPage ограничивает номер страницы диапазоном [0, totalPages-1].
func ClampPage(page, total, pageSize int) int {
	if page < 0 {
		return 0
	}
	if last := TotalPages(total, pageSize) - 1; page > last {
		return last
	}
	return page
}
