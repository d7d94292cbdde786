package port

import (
	"context"

	"github.com/BorisTsankov/HousingHelper/internal/core/domain"
)

// FilterOptionsProviderPort - GET /listings/filters?scope=...
type FilterOptionsProviderPort interface {
	FetchOptions(ctx context.Context, scope domain.FilterScope) (*domain.FilterGroup, error)
}
