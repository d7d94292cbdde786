package rest

import (
	"github.com/BorisTsankov/HousingHelper/internal/core/domain"
	"github.com/BorisTsankov/HousingHelper/internal/core/presenter"
)

// PageResponse - ответ на открытие страницы и на любую мутацию.
type PageResponse struct {
	SessionID string                `json:"sessionId"`
	View      presenter.ResultsView `json:"view"`
	Options   *domain.FilterGroup   `json:"options,omitempty"`
}

type FreeTextRequestDTO struct {
	Text string `json:"text"`
}

type PageRequestDTO struct {
	Page int `json:"page"`
}

type PageSizeRequestDTO struct {
	Size int `json:"size"`
}

type ViewModeRequestDTO struct {
	Mode string `json:"mode"`
}

type PriceBucketRequestDTO struct {
	Label string `json:"label"`
}

type SaveSearchRequestDTO struct {
	Name  string `json:"name"`
	Query string `json:"query"`
}

type LoginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
