package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/BorisTsankov/HousingHelper/internal/core/domain"
)

func TestLoadFilterOptions_DegradesToEmptyGroup(t *testing.T) {
	provider := &fakeOptionsProvider{err: errors.New("backend unavailable")}
	uc := NewLoadFilterOptionsUseCase(provider, time.Minute)

	group := uc.Execute(context.Background(), domain.ScopeHome)

	assert.Equal(t, domain.EmptyFilterGroup(), group)
	assert.NotNil(t, group.Cities)
}

func TestLoadFilterOptions_NormalizesAndCaches(t *testing.T) {
	provider := &fakeOptionsProvider{group: &domain.FilterGroup{
		Types: []domain.FilterOption{{Value: "apartment", Label: "Apartment"}},
	}}
	uc := NewLoadFilterOptionsUseCase(provider, time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	uc.now = func() time.Time { return now }

	group := uc.Execute(context.Background(), domain.ScopeListings)
	assert.Len(t, group.Types, 1)
	assert.NotNil(t, group.PetsAllowed)

	uc.Execute(context.Background(), domain.ScopeListings)
	assert.Equal(t, 1, provider.Calls())

	now = now.Add(2 * time.Minute)
	uc.Execute(context.Background(), domain.ScopeListings)
	assert.Equal(t, 2, provider.Calls())
}

func TestLoadFilterOptions_FailureIsNotCached(t *testing.T) {
	provider := &fakeOptionsProvider{err: errors.New("boom")}
	uc := NewLoadFilterOptionsUseCase(provider, time.Minute)

	uc.Execute(context.Background(), domain.ScopeHome)
	uc.Execute(context.Background(), domain.ScopeHome)

	assert.Equal(t, 2, provider.Calls())
}
