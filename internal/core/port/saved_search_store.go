package port

import (
	"context"

	"github.com/BorisTsankov/HousingHelper/internal/core/domain"
)

// SavedSearchStorePort - долговременное хранилище ссылок на поиск.
type SavedSearchStorePort interface {
	Save(ctx context.Context, search domain.SavedSearch) error
	Get(ctx context.Context, name string) (*domain.SavedSearch, error)
	List(ctx context.Context) ([]domain.SavedSearch, error)
	Delete(ctx context.Context, name string) error
}
