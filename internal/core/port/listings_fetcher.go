package port

import (
	"context"
	"net/url"

	"github.com/BorisTsankov/HousingHelper/internal/core/domain"
)

// ListingsFetcherPort - GET /listings. Возвращает *domain.HTTPStatusError для не-2xx
// и ошибку контекста, если запрос был отменен.
type ListingsFetcherPort interface {
	FetchListings(ctx context.Context, params url.Values) (*domain.ListingsPage, error)
}
