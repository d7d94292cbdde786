package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/BorisTsankov/HousingHelper/internal/contextkeys"
	"github.com/BorisTsankov/HousingHelper/internal/core/domain"
	"github.com/BorisTsankov/HousingHelper/internal/core/port"
	"github.com/BorisTsankov/HousingHelper/internal/core/querystring"
)

// SavedSearchesUseCase хранит ссылки на поиск под именами.
// Запрос сохраняется в канонической форме, поэтому ссылка воспроизводит то же состояние.
type SavedSearchesUseCase struct {
	store port.SavedSearchStorePort
	now   func() time.Time
}

func NewSavedSearchesUseCase(store port.SavedSearchStorePort) *SavedSearchesUseCase {
	return &SavedSearchesUseCase{store: store, now: time.Now}
}

func (uc *SavedSearchesUseCase) Save(ctx context.Context, name, rawQuery string) (*domain.SavedSearch, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{
		"use_case": "SaveSearch",
		"name":     name,
	})

	if !domain.ValidSavedSearchName(name) {
		return nil, fmt.Errorf("%w: bad name %q", domain.ErrInvalidSavedSearch, name)
	}

	search := domain.SavedSearch{
		Name:      name,
		Query:     querystring.EncodeString(querystring.DecodeString(rawQuery)),
		UpdatedAt: uc.now().UTC(),
	}
	if err := uc.store.Save(ctx, search); err != nil {
		ucLogger.Error("Store failed to save search", err, nil)
		return nil, err
	}

	ucLogger.Info("Search saved", port.Fields{"query": search.Query})
	return &search, nil
}

// SaveSession сохраняет текущее состояние открытой страницы.
func (uc *SavedSearchesUseCase) SaveSession(ctx context.Context, session *PageSession, name string) (*domain.SavedSearch, error) {
	return uc.Save(ctx, name, session.Controller.Snapshot().URL)
}

func (uc *SavedSearchesUseCase) Get(ctx context.Context, name string) (*domain.SavedSearch, error) {
	return uc.store.Get(ctx, name)
}

func (uc *SavedSearchesUseCase) List(ctx context.Context) ([]domain.SavedSearch, error) {
	searches, err := uc.store.List(ctx)
	if err != nil {
		contextkeys.LoggerFromContext(ctx).Error("Store failed to list searches", err, nil)
		return nil, err
	}
	if searches == nil {
		searches = []domain.SavedSearch{}
	}
	return searches, nil
}

func (uc *SavedSearchesUseCase) Delete(ctx context.Context, name string) error {
	if err := uc.store.Delete(ctx, name); err != nil {
		return err
	}
	contextkeys.LoggerFromContext(ctx).Info("Saved search deleted", port.Fields{"name": name})
	return nil
}
