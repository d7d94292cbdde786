package listings_api_client

import "github.com/BorisTsankov/HousingHelper/internal/core/domain"

// ListingsResponse - ответ GET /listings. page, pageSize и hasNext
// сервер может прислать, но ядру они не нужны.
type ListingsResponse struct {
	Items    []domain.Listing `json:"items"`
	Total    int              `json:"total"`
	Page     *int             `json:"page,omitempty"`
	PageSize *int             `json:"pageSize,omitempty"`
	HasNext  *bool            `json:"hasNext,omitempty"`
}

type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}
