package usecase

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/BorisTsankov/HousingHelper/internal/contextkeys"
	"github.com/BorisTsankov/HousingHelper/internal/core/domain"
	"github.com/BorisTsankov/HousingHelper/internal/core/port"
	"github.com/BorisTsankov/HousingHelper/internal/core/querystring"
)

// PageSession - одна открытая страница поиска: контроллер, история адресной
// строки и наборы фильтров, загруженные при открытии.
type PageSession struct {
	ID         string
	Controller *ListingsQueryController
	History    port.NavigationHistoryPort
	Options    domain.FilterGroup
	CreatedAt  time.Time

	lastSeen atomic.Int64
}

func (s *PageSession) touch(now time.Time) {
	s.lastSeen.Store(now.UnixNano())
}

func (s *PageSession) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// HistoryFactory создает пустую историю навигации для новой сессии.
type HistoryFactory func() port.NavigationHistoryPort

// PageSessionsUseCase - реестр открытых страниц поиска.
type PageSessionsUseCase struct {
	fetcher     port.ListingsFetcherPort
	publisher   port.SearchEventPublisherPort
	options     *LoadFilterOptionsUseCase
	saved       port.SavedSearchStorePort
	newHistory  HistoryFactory
	idleTimeout time.Duration
	logger      port.LoggerPort
	now         func() time.Time

	mu       sync.RWMutex
	sessions map[string]*PageSession
	closed   bool
}

// NewPageSessionsUseCase: publisher и saved могут быть nil.
func NewPageSessionsUseCase(
	fetcher port.ListingsFetcherPort,
	publisher port.SearchEventPublisherPort,
	options *LoadFilterOptionsUseCase,
	saved port.SavedSearchStorePort,
	newHistory HistoryFactory,
	idleTimeout time.Duration,
	logger port.LoggerPort,
) *PageSessionsUseCase {
	if logger == nil {
		logger = contextkeys.NoopLogger()
	}
	return &PageSessionsUseCase{
		fetcher:     fetcher,
		publisher:   publisher,
		options:     options,
		saved:       saved,
		newHistory:  newHistory,
		idleTimeout: idleTimeout,
		logger:      logger.WithFields(port.Fields{"use_case": "PageSessions"}),
		now:         time.Now,
		sessions:    make(map[string]*PageSession),
	}
}

// Open открывает страницу: создает контроллер, гидрирует его из строки запроса
// (или из сохраненного поиска) и запускает первый запрос.
func (uc *PageSessionsUseCase) Open(ctx context.Context, rawQuery, savedName string) (*PageSession, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{"use_case": "OpenPageSession"})

	uc.mu.RLock()
	closed := uc.closed
	uc.mu.RUnlock()
	if closed {
		return nil, domain.ErrControllerClosed
	}

	if savedName != "" {
		if uc.saved == nil {
			return nil, fmt.Errorf("%w: %s", domain.ErrSavedSearchNotFound, savedName)
		}
		search, err := uc.saved.Get(ctx, savedName)
		if err != nil {
			ucLogger.Warn("Saved search lookup failed", port.Fields{"name": savedName, "error": err.Error()})
			return nil, err
		}
		rawQuery = search.Query
	}

	id := uuid.NewString()
	history := uc.newHistory()
	// первая запись истории - URL, с которым открыли страницу
	if err := history.Write(ctx, querystring.EncodeString(querystring.DecodeString(rawQuery))); err != nil {
		ucLogger.Error("Failed to seed navigation history", err, nil)
	}

	controller := NewListingsQueryController(id, uc.fetcher, history, uc.publisher, uc.logger)
	session := &PageSession{
		ID:         id,
		Controller: controller,
		History:    history,
		Options:    uc.loadOptions(ctx),
		CreatedAt:  uc.now(),
	}
	session.touch(uc.now())

	uc.mu.Lock()
	if uc.closed {
		uc.mu.Unlock()
		controller.Close()
		return nil, domain.ErrControllerClosed
	}
	uc.sessions[id] = session
	uc.mu.Unlock()

	if err := controller.Hydrate(ctx, rawQuery); err != nil {
		uc.Close(id)
		return nil, err
	}

	ucLogger.Info("Page session opened", port.Fields{"session_id": id, "query": rawQuery})
	return session, nil
}

func (uc *PageSessionsUseCase) loadOptions(ctx context.Context) domain.FilterGroup {
	if uc.options == nil {
		return domain.EmptyFilterGroup()
	}
	return uc.options.Execute(ctx, domain.ScopeListings)
}

// Get возвращает сессию и продлевает ей жизнь.
func (uc *PageSessionsUseCase) Get(id string) (*PageSession, error) {
	uc.mu.RLock()
	session, ok := uc.sessions[id]
	uc.mu.RUnlock()
	if !ok || session.Controller.Closed() {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	session.touch(uc.now())
	return session, nil
}

// Touch продлевает жизнь сессии (например, пока открыт поток событий).
func (uc *PageSessionsUseCase) Touch(id string) {
	uc.mu.RLock()
	session, ok := uc.sessions[id]
	uc.mu.RUnlock()
	if ok {
		session.touch(uc.now())
	}
}

// Close закрывает страницу: отменяет запрос в полете и освобождает сессию.
func (uc *PageSessionsUseCase) Close(id string) error {
	uc.mu.Lock()
	session, ok := uc.sessions[id]
	delete(uc.sessions, id)
	uc.mu.Unlock()

	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrSessionNotFound, id)
	}
	session.Controller.Close()
	uc.logger.Debug("Page session closed", port.Fields{"session_id": id})
	return nil
}

// Navigate - переход по истории браузера: состояние берется из URL, новая запись не создается.
func (uc *PageSessionsUseCase) Navigate(ctx context.Context, id, rawQuery string) (*PageSession, error) {
	session, err := uc.Get(id)
	if err != nil {
		return nil, err
	}
	if err := session.Controller.Hydrate(ctx, rawQuery); err != nil {
		return nil, err
	}
	return session, nil
}

// Back и Forward ходят по истории сессии и гидрируют контроллер найденным URL.
func (uc *PageSessionsUseCase) Back(ctx context.Context, id string) (*PageSession, error) {
	return uc.travel(ctx, id, func(h port.NavigationHistoryPort) (string, bool) { return h.Back(ctx) })
}

func (uc *PageSessionsUseCase) Forward(ctx context.Context, id string) (*PageSession, error) {
	return uc.travel(ctx, id, func(h port.NavigationHistoryPort) (string, bool) { return h.Forward(ctx) })
}

func (uc *PageSessionsUseCase) travel(
	ctx context.Context,
	id string,
	step func(h port.NavigationHistoryPort) (string, bool),
) (*PageSession, error) {
	session, err := uc.Get(id)
	if err != nil {
		return nil, err
	}
	raw, ok := step(session.History)
	if !ok {
		return nil, domain.ErrNoHistory
	}
	if err := session.Controller.Hydrate(ctx, raw); err != nil {
		return nil, err
	}
	return session, nil
}

// SelectPriceBucket выставляет обе границы цены из бакета по его подписи.
// Пустая подпись снимает ограничение по цене.
func (uc *PageSessionsUseCase) SelectPriceBucket(ctx context.Context, id, label string) error {
	session, err := uc.Get(id)
	if err != nil {
		return err
	}
	if label == "" {
		return session.Controller.PatchFilters(ctx, domain.FilterPatch{
			MinPrice: domain.Clear[float64](),
			MaxPrice: domain.Clear[float64](),
		})
	}
	bucket, ok := domain.FindPriceBucket(label, session.Options.PriceBuckets)
	if !ok {
		return fmt.Errorf("%w: %q", domain.ErrUnknownPriceBucket, label)
	}
	return session.Controller.PatchFilters(ctx, domain.PricePatch(bucket))
}

// Preview ищет объявление на текущей странице результатов.
func (uc *PageSessionsUseCase) Preview(id, listingID string) (*domain.Listing, error) {
	session, err := uc.Get(id)
	if err != nil {
		return nil, err
	}
	for _, item := range session.Controller.Snapshot().Result.Items {
		if item.ID == listingID {
			found := item
			return &found, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrListingNotFound, listingID)
}

func (uc *PageSessionsUseCase) Count() int {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return len(uc.sessions)
}

// CloseAll закрывает все сессии и дожидается завершения их запросов.
// После него новые страницы не открываются.
func (uc *PageSessionsUseCase) CloseAll() {
	uc.mu.Lock()
	uc.closed = true
	sessions := uc.sessions
	uc.sessions = make(map[string]*PageSession)
	uc.mu.Unlock()

	for _, s := range sessions {
		s.Controller.Close()
	}
	for _, s := range sessions {
		s.Controller.Wait()
	}
	uc.logger.Info("All page sessions closed", port.Fields{"count": len(sessions)})
}

// ReapIdle закрывает сессии, к которым не обращались дольше idleTimeout.
func (uc *PageSessionsUseCase) ReapIdle() int {
	if uc.idleTimeout <= 0 {
		return 0
	}
	deadline := uc.now().Add(-uc.idleTimeout)

	uc.mu.Lock()
	var idle []*PageSession
	for id, s := range uc.sessions {
		if s.LastSeen().Before(deadline) {
			idle = append(idle, s)
			delete(uc.sessions, id)
		}
	}
	uc.mu.Unlock()

	for _, s := range idle {
		s.Controller.Close()
	}
	if len(idle) > 0 {
		uc.logger.Info("Idle page sessions reaped", port.Fields{"count": len(idle)})
	}
	return len(idle)
}

// RunReaper периодически вызывает ReapIdle до отмены ctx.
func (uc *PageSessionsUseCase) RunReaper(ctx context.Context) {
	if uc.idleTimeout <= 0 {
		return
	}
	ticker := time.NewTicker(uc.idleTimeout / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			uc.ReapIdle()
		}
	}
}
