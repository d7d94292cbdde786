package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/BorisTsankov/HousingHelper/internal/contextkeys"
	"github.com/BorisTsankov/HousingHelper/internal/core/domain"
	"github.com/BorisTsankov/HousingHelper/internal/core/port"
)

type cachedOptions struct {
	group     domain.FilterGroup
	fetchedAt time.Time
}

// LoadFilterOptionsUseCase загружает наборы значений для фильтров.
// Ошибку наружу не отдает: при сбое фильтры остаются рабочими, но пустыми.
type LoadFilterOptionsUseCase struct {
	provider port.FilterOptionsProviderPort
	ttl      time.Duration

	mu    sync.Mutex
	cache map[domain.FilterScope]cachedOptions
	now   func() time.Time
}

// NewLoadFilterOptionsUseCase: ttl <= 0 отключает кэш.
func NewLoadFilterOptionsUseCase(provider port.FilterOptionsProviderPort, ttl time.Duration) *LoadFilterOptionsUseCase {
	return &LoadFilterOptionsUseCase{
		provider: provider,
		ttl:      ttl,
		cache:    make(map[domain.FilterScope]cachedOptions),
		now:      time.Now,
	}
}

func (uc *LoadFilterOptionsUseCase) Execute(ctx context.Context, scope domain.FilterScope) domain.FilterGroup {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "LoadFilterOptions",
		"scope":    string(scope),
	})

	if group, ok := uc.fromCache(scope); ok {
		ucLogger.Debug("Filter options served from cache", nil)
		return group
	}

	group, err := uc.provider.FetchOptions(ctx, scope)
	if err != nil {
		ucLogger.Error("Failed to fetch filter options, using empty group", err, nil)
		return domain.EmptyFilterGroup()
	}
	if group == nil {
		ucLogger.Warn("Filter options provider returned nothing, using empty group", nil)
		return domain.EmptyFilterGroup()
	}

	normalized := group.Normalized()
	uc.store(scope, normalized)

	ucLogger.Info("Filter options loaded", port.Fields{
		"types":         len(normalized.Types),
		"cities":        len(normalized.Cities),
		"price_buckets": len(normalized.PriceBuckets),
	})
	return normalized
}

func (uc *LoadFilterOptionsUseCase) fromCache(scope domain.FilterScope) (domain.FilterGroup, bool) {
	if uc.ttl <= 0 {
		return domain.FilterGroup{}, false
	}
	uc.mu.Lock()
	defer uc.mu.Unlock()

	entry, ok := uc.cache[scope]
	if !ok || uc.now().Sub(entry.fetchedAt) > uc.ttl {
		return domain.FilterGroup{}, false
	}
	return entry.group, true
}

func (uc *LoadFilterOptionsUseCase) store(scope domain.FilterScope, group domain.FilterGroup) {
	if uc.ttl <= 0 {
		return
	}
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.cache[scope] = cachedOptions{group: group, fetchedAt: uc.now()}
}
