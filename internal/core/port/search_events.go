package port

import (
	"context"

	"github.com/BorisTsankov/HousingHelper/internal/core/domain"
)

// SearchEventPublisherPort публикует события выполненных поисков.
type SearchEventPublisherPort interface {
	PublishSearchPerformed(ctx context.Context, event domain.SearchEvent) error
}
