// Package presenter превращает снимок контроллера в модель представления страницы.
package presenter

import (
	"fmt"

	"github.com/BorisTsankov/HousingHelper/internal/core/domain"
)

// LoadingLabel - подпись счетчика во время загрузки.
const LoadingLabel = "Loading…"

// ResultsView - все, что нужно странице результатов. Только для чтения:
// назад страница отправляет только мутации контроллера.
type ResultsView struct {
	Version      uint64             `json:"version"`
	Items        []domain.Listing   `json:"items"`
	Total        int                `json:"total"`
	Loading      bool               `json:"loading"`
	Error        string             `json:"error,omitempty"`
	Status       domain.FetchStatus `json:"status"`
	Page         int                `json:"page"`
	PageSize     int                `json:"pageSize"`
	TotalPages   int                `json:"totalPages"`
	CanGoPrev    bool               `json:"canGoPrev"`
	CanGoNext    bool               `json:"canGoNext"`
	ViewMode     domain.ViewMode    `json:"viewMode"`
	FreeText     string             `json:"freeText"`
	Filters      domain.Filters     `json:"filters"`
	PriceBucket  string             `json:"priceBucket,omitempty"`
	URL          string             `json:"url"`
	EmptyState   bool               `json:"emptyState"`
	ResultsLabel string             `json:"resultsLabel"`
	Map          *MapView           `json:"map,omitempty"`
}

// BuildView собирает модель представления. buckets нужны, чтобы подсветить
// выбранный ценовой диапазон; можно передать nil.
func BuildView(snap domain.Snapshot, buckets []domain.PriceBucket) ResultsView {
	items := snap.Result.Items
	if items == nil {
		items = []domain.Listing{}
	}

	view := ResultsView{
		Version:      snap.Version,
		Items:        items,
		Total:        snap.Result.Total,
		Loading:      snap.Result.Loading,
		Error:        snap.Result.Error,
		Status:       snap.Status,
		Page:         snap.State.Page,
		PageSize:     snap.State.PageSize,
		TotalPages:   snap.TotalPages(),
		CanGoPrev:    snap.CanGoPrev(),
		CanGoNext:    snap.CanGoNext(),
		ViewMode:     snap.State.ViewMode,
		FreeText:     snap.State.FreeText,
		Filters:      snap.State.Filters,
		URL:          snap.URL,
		EmptyState:   snap.Status == domain.StatusSuccess && len(items) == 0,
		ResultsLabel: ResultsLabel(snap.Result),
	}

	if b, ok := domain.PriceBucketFor(snap.State.Filters, buckets); ok {
		view.PriceBucket = b.Label
	}
	if snap.State.ViewMode == domain.ViewMap {
		m := BuildMap(items, snap.State.MapBounds)
		view.Map = &m
	}

	return view
}

// ResultsLabel - "Loading…" или "Found N result(s)".
func ResultsLabel(result domain.FetchResult) string {
	if result.Loading {
		return LoadingLabel
	}
	if result.Total == 1 {
		return "Found 1 result"
	}
	return fmt.Sprintf("Found %d results", result.Total)
}
