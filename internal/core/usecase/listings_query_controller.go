package usecase

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/BorisTsankov/HousingHelper/internal/contextkeys"
	"github.com/BorisTsankov/HousingHelper/internal/core/domain"
	"github.com/BorisTsankov/HousingHelper/internal/core/port"
	"github.com/BorisTsankov/HousingHelper/internal/core/querystring"
)

// FailedToLoadMessage - текст ошибки для сбоев без HTTP-статуса (сеть, разбор ответа).
const FailedToLoadMessage = "Failed to load listings"

// ListingsQueryController владеет состоянием одной страницы поиска:
// принимает мутации, пишет URL, запускает запросы и публикует снимки.
// Ответ применяется только если он относится к последнему запросу.
type ListingsQueryController struct {
	sessionID string
	fetcher   port.ListingsFetcherPort
	nav       port.NavigationStatePort
	publisher port.SearchEventPublisherPort
	logger    port.LoggerPort

	mu        sync.Mutex
	state     domain.QueryState
	result    domain.FetchResult
	status    domain.FetchStatus
	haveTotal bool
	totalKey  string
	version   uint64
	seq       uint64
	cancel    context.CancelFunc
	closed    bool

	subs    map[uint64]chan domain.Snapshot
	nextSub uint64

	wg sync.WaitGroup
}

// NewListingsQueryController создает контроллер в состоянии Idle.
// publisher может быть nil.
func NewListingsQueryController(
	sessionID string,
	fetcher port.ListingsFetcherPort,
	nav port.NavigationStatePort,
	publisher port.SearchEventPublisherPort,
	logger port.LoggerPort,
) *ListingsQueryController {
	if logger == nil {
		logger = contextkeys.NoopLogger()
	}
	return &ListingsQueryController{
		sessionID: sessionID,
		fetcher:   fetcher,
		nav:       nav,
		publisher: publisher,
		logger: logger.WithFields(port.Fields{
			"component":  "ListingsQueryController",
			"session_id": sessionID,
		}),
		state:  domain.DefaultQueryState(),
		result: domain.FetchResult{Items: []domain.Listing{}},
		status: domain.StatusIdle,
		subs:   make(map[uint64]chan domain.Snapshot),
	}
}

func (c *ListingsQueryController) SessionID() string {
	return c.sessionID
}

// Hydrate заменяет состояние разобранной строкой запроса и запускает запрос.
// URL не пишется: это загрузка страницы или переход по истории.
func (c *ListingsQueryController) Hydrate(ctx context.Context, rawQuery string) error {
	next := querystring.DecodeString(rawQuery)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrControllerClosed
	}

	// границы карты не переживают выход из режима карты
	if next.ViewMode == domain.ViewMap && c.state.ViewMode == domain.ViewMap {
		next.MapBounds = c.state.MapBounds
	}
	c.state = next

	c.loggerFor(ctx).Debug("State hydrated from query string", port.Fields{"query": rawQuery})
	c.startFetchLocked(ctx)
	c.publishLocked()
	return nil
}

func (c *ListingsQueryController) SetFreeText(ctx context.Context, text string) error {
	return c.mutate(ctx, func(s *domain.QueryState) error {
		s.FreeText = normalizeFreeText(text)
		s.Page = 0
		return nil
	})
}

// SetFilters заменяет фильтры целиком. Невалидный набор отклоняется без изменения состояния.
func (c *ListingsQueryController) SetFilters(ctx context.Context, filters domain.Filters) error {
	if err := filters.Validate(); err != nil {
		return err
	}
	return c.mutate(ctx, func(s *domain.QueryState) error {
		s.Filters = filters.Canonical()
		s.Page = 0
		return nil
	})
}

// PatchFilters применяет Merge к текущим фильтрам и ведет себя как SetFilters.
func (c *ListingsQueryController) PatchFilters(ctx context.Context, patch domain.FilterPatch) error {
	return c.mutate(ctx, func(s *domain.QueryState) error {
		merged := domain.Merge(s.Filters, patch)
		if err := merged.Validate(); err != nil {
			return err
		}
		s.Filters = merged.Canonical()
		s.Page = 0
		return nil
	})
}

// SetPage - единственная мутация, которая не сбрасывает страницу.
// Номер ограничивается по total, если он известен для текущего набора фильтров.
func (c *ListingsQueryController) SetPage(ctx context.Context, page int) error {
	return c.mutate(ctx, func(s *domain.QueryState) error {
		s.Page = c.clampPageLocked(page)
		return nil
	})
}

func (c *ListingsQueryController) NextPage(ctx context.Context) error {
	return c.mutate(ctx, func(s *domain.QueryState) error {
		s.Page = c.clampPageLocked(s.Page + 1)
		return nil
	})
}

func (c *ListingsQueryController) PrevPage(ctx context.Context) error {
	return c.mutate(ctx, func(s *domain.QueryState) error {
		s.Page = c.clampPageLocked(s.Page - 1)
		return nil
	})
}

func (c *ListingsQueryController) SetPageSize(ctx context.Context, size int) error {
	if !domain.IsAllowedPageSize(size) {
		return domain.ErrInvalidPageSize
	}
	return c.mutate(ctx, func(s *domain.QueryState) error {
		s.PageSize = size
		s.Page = 0
		return nil
	})
}

// SetViewMode переключает список/карту. Переход на карту запрос не делает:
// он уйдет с первым событием границ. Переход на список сбрасывает границы.
func (c *ListingsQueryController) SetViewMode(ctx context.Context, mode domain.ViewMode) error {
	mode = domain.ParseViewMode(string(mode))

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrControllerClosed
	}
	if c.state.ViewMode == mode {
		return nil
	}

	c.state.ViewMode = mode
	c.state.Page = 0
	c.writeURLLocked(ctx)

	c.state.MapBounds = nil
	if mode == domain.ViewList {
		c.startFetchLocked(ctx)
	} else {
		c.abortFetchLocked()
	}

	c.publishLocked()
	return nil
}

// SetMapBounds имеет смысл только в режиме карты; в режиме списка событие игнорируется.
func (c *ListingsQueryController) SetMapBounds(ctx context.Context, bounds domain.MapBounds) error {
	if !bounds.Valid() {
		return domain.ErrInvalidMapBounds
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrControllerClosed
	}
	if c.state.ViewMode != domain.ViewMap {
		c.loggerFor(ctx).Debug("Map bounds ignored in list view", nil)
		return nil
	}

	c.state.MapBounds = &bounds
	c.state.Page = 0
	c.writeURLLocked(ctx)
	c.startFetchLocked(ctx)
	c.publishLocked()
	return nil
}

// Reset очищает текст и фильтры. Режим, размер страницы и границы карты сохраняются.
func (c *ListingsQueryController) Reset(ctx context.Context) error {
	return c.mutate(ctx, func(s *domain.QueryState) error {
		s.FreeText = ""
		s.Filters = domain.Filters{}
		s.Page = 0
		return nil
	})
}

// Retry повторяет текущий запрос без изменения состояния и URL.
func (c *ListingsQueryController) Retry(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrControllerClosed
	}
	c.startFetchLocked(ctx)
	c.publishLocked()
	return nil
}

// Close отменяет запрос в полете и закрывает подписки. Повторный вызов безопасен.
func (c *ListingsQueryController) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	for id, ch := range c.subs {
		close(ch)
		delete(c.subs, id)
	}
	c.logger.Debug("Controller closed", nil)
}

// Wait ждет завершения всех запущенных запросов.
func (c *ListingsQueryController) Wait() {
	c.wg.Wait()
}

func (c *ListingsQueryController) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Snapshot возвращает текущее состояние. Снимок не разделяет память с контроллером.
func (c *ListingsQueryController) Snapshot() domain.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Subscribe возвращает канал снимков и функцию отписки. Канал сразу получает
// текущий снимок; медленный читатель видит только последний. Канал закрывается на Close.
func (c *ListingsQueryController) Subscribe() (<-chan domain.Snapshot, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan domain.Snapshot, 1)
	if c.closed {
		close(ch)
		return ch, func() {}
	}

	c.nextSub++
	id := c.nextSub
	c.subs[id] = ch
	ch <- c.snapshotLocked()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				close(sub)
				delete(c.subs, id)
			}
		})
	}
}

// mutate - общий путь мутаций: изменить состояние, записать URL, запустить запрос.
func (c *ListingsQueryController) mutate(ctx context.Context, apply func(s *domain.QueryState) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return domain.ErrControllerClosed
	}

	next := c.state.Clone()
	if err := apply(&next); err != nil {
		return err
	}
	c.state = next

	c.writeURLLocked(ctx)
	c.startFetchLocked(ctx)
	c.publishLocked()
	return nil
}

func (c *ListingsQueryController) clampPageLocked(page int) int {
	if page < 0 {
		return 0
	}
	if !c.haveTotal || totalKeyOf(c.state) != c.totalKey {
		return page
	}
	return domain.ClampPage(page, c.result.Total, c.state.PageSize)
}

// totalKeyOf - параметры запроса без пагинации: total зависит только от них.
func totalKeyOf(state domain.QueryState) string {
	params := querystring.ToAPIParams(state)
	params.Del(domain.ParamPage)
	params.Del(domain.ParamSize)
	return params.Encode()
}

func (c *ListingsQueryController) writeURLLocked(ctx context.Context) {
	if c.nav == nil {
		return
	}
	raw := querystring.EncodeString(c.state)
	if err := c.nav.Write(ctx, raw); err != nil {
		// состояние уже изменено, запрос все равно уходит
		c.loggerFor(ctx).Error("Failed to write navigation state", err, port.Fields{"query": raw})
	}
}

// startFetchLocked отменяет предыдущий запрос и запускает новый.
// Запрос живет дольше HTTP-запроса, который его вызвал, поэтому контекст отвязан от отмены.
func (c *ListingsQueryController) startFetchLocked(ctx context.Context) {
	if c.cancel != nil {
		c.cancel()
	}
	c.seq++
	seq := c.seq

	fetchCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	c.cancel = cancel

	state := c.state.Clone()
	params := querystring.ToAPIParams(state)

	c.status = domain.StatusLoading
	c.result.Loading = true
	c.result.Error = ""

	logger := c.loggerFor(ctx).WithFields(port.Fields{"request_seq": seq})
	logger.Debug("Fetching listings", port.Fields{"params": params.Encode()})

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		page, err := c.fetcher.FetchListings(fetchCtx, params)
		c.complete(fetchCtx, seq, state, page, err, logger)
	}()
}

// abortFetchLocked отменяет запрос в полете без запуска нового.
func (c *ListingsQueryController) abortFetchLocked() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	c.cancel = nil
	c.seq++
	if c.status == domain.StatusLoading {
		c.status = domain.StatusIdle
		c.result.Loading = false
	}
}

func (c *ListingsQueryController) complete(
	ctx context.Context,
	seq uint64,
	state domain.QueryState,
	page *domain.ListingsPage,
	err error,
	logger port.LoggerPort,
) {
	c.mu.Lock()
	if c.closed || seq != c.seq {
		c.mu.Unlock()
		logger.Debug("Stale listings response discarded", nil)
		return
	}
	// контекст запроса освобождается после публикации события
	release := c.cancel
	c.cancel = nil
	if release != nil {
		defer release()
	}

	var event *domain.SearchEvent
	if err != nil || page == nil {
		if err == nil {
			err = errors.New("empty listings response")
		}
		c.result = domain.FetchResult{Items: []domain.Listing{}, Error: fetchErrorMessage(err)}
		c.status = domain.StatusFailed
		c.haveTotal = false
		logger.Warn("Failed to fetch listings", port.Fields{"error": err.Error()})
	} else {
		items := page.Items
		if items == nil {
			items = []domain.Listing{}
		}
		total := page.Total
		if total < 0 {
			total = 0
		}
		c.result = domain.FetchResult{Items: items, Total: total}
		c.status = domain.StatusSuccess
		c.haveTotal = true
		c.totalKey = totalKeyOf(state)
		logger.Info("Listings fetched", port.Fields{"total": total, "items": len(items)})

		if c.publisher != nil {
			event = &domain.SearchEvent{
				SessionID:  c.sessionID,
				Query:      querystring.EncodeString(state),
				ViewMode:   state.ViewMode,
				Total:      total,
				OccurredAt: time.Now().UTC(),
			}
		}
	}
	c.publishLocked()
	c.mu.Unlock()

	if event != nil {
		if err := c.publisher.PublishSearchPerformed(ctx, *event); err != nil {
			logger.Error("Failed to publish search event", err, nil)
		}
	}
}

func (c *ListingsQueryController) snapshotLocked() domain.Snapshot {
	items := make([]domain.Listing, len(c.result.Items))
	copy(items, c.result.Items)

	result := c.result
	result.Items = items

	return domain.Snapshot{
		Version: c.version,
		State:   c.state.Clone(),
		Result:  result,
		Status:  c.status,
		URL:     querystring.EncodeString(c.state),
	}
}

func (c *ListingsQueryController) publishLocked() {
	c.version++
	if len(c.subs) == 0 {
		return
	}
	snap := c.snapshotLocked()
	for _, ch := range c.subs {
		select {
		case ch <- snap:
		default:
			// читатель не успел: заменяем непрочитанный снимок новым
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

// loggerFor предпочитает логгер запроса (в нем trace_id), иначе логгер контроллера.
func (c *ListingsQueryController) loggerFor(ctx context.Context) port.LoggerPort {
	if l := contextkeys.LoggerFromContextOr(ctx, nil); l != nil {
		return l.WithFields(port.Fields{
			"component":  "ListingsQueryController",
			"session_id": c.sessionID,
		})
	}
	return c.logger
}

func fetchErrorMessage(err error) string {
	var statusErr *domain.HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.Error()
	}
	return FailedToLoadMessage
}

func normalizeFreeText(text string) string {
	return strings.TrimSpace(text)
}
