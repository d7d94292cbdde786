package usecase

import (
	"context"
	"encoding/json"
	"net/url"
	"sync"

	"github.com/BorisTsankov/HousingHelper/internal/core/domain"
	"github.com/BorisTsankov/HousingHelper/internal/core/port"
)

type fetchHandler func(ctx context.Context, params url.Values) (*domain.ListingsPage, error)

type fakeFetcher struct {
	mu      sync.Mutex
	calls   []url.Values
	handler fetchHandler
}

func newFakeFetcher(handler fetchHandler) *fakeFetcher {
	return &fakeFetcher{handler: handler}
}

func (f *fakeFetcher) FetchListings(ctx context.Context, params url.Values) (*domain.ListingsPage, error) {
	f.mu.Lock()
	f.calls = append(f.calls, params)
	handler := f.handler
	f.mu.Unlock()
	return handler(ctx, params)
}

func (f *fakeFetcher) Calls() []url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]url.Values, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeFetcher) LastCall() url.Values {
	calls := f.Calls()
	if len(calls) == 0 {
		return nil
	}
	return calls[len(calls)-1]
}

// pageOf собирает ответ сервера из JSON, как это делает HTTP-клиент.
func pageOf(total int, itemsJSON string) *domain.ListingsPage {
	var items []domain.Listing
	if err := json.Unmarshal([]byte(itemsJSON), &items); err != nil {
		panic(err)
	}
	return &domain.ListingsPage{Items: items, Total: total}
}

func staticPage(total int, itemsJSON string) fetchHandler {
	return func(ctx context.Context, params url.Values) (*domain.ListingsPage, error) {
		return pageOf(total, itemsJSON), nil
	}
}

type fakeHistory struct {
	mu      sync.Mutex
	entries []string
	pos     int
	writes  []string
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{pos: -1}
}

func (h *fakeHistory) Read(ctx context.Context) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pos < 0 {
		return "", nil
	}
	return h.entries[h.pos], nil
}

func (h *fakeHistory) Write(ctx context.Context, rawQuery string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.writes = append(h.writes, rawQuery)
	h.entries = append(h.entries[:h.pos+1], rawQuery)
	h.pos = len(h.entries) - 1
	return nil
}

func (h *fakeHistory) Back(ctx context.Context) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pos <= 0 {
		return "", false
	}
	h.pos--
	return h.entries[h.pos], true
}

func (h *fakeHistory) Forward(ctx context.Context) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.pos >= len(h.entries)-1 {
		return "", false
	}
	h.pos++
	return h.entries[h.pos], true
}

func (h *fakeHistory) Writes() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.writes...)
}

var _ port.NavigationHistoryPort = (*fakeHistory)(nil)

type fakePublisher struct {
	mu      sync.Mutex
	events  []domain.SearchEvent
	ctxErrs []error
	err     error
}

func (p *fakePublisher) PublishSearchPerformed(ctx context.Context, event domain.SearchEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	p.ctxErrs = append(p.ctxErrs, ctx.Err())
	return p.err
}

// CtxErrs - состояние контекста в момент каждой публикации.
func (p *fakePublisher) CtxErrs() []error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]error(nil), p.ctxErrs...)
}

func (p *fakePublisher) Events() []domain.SearchEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]domain.SearchEvent(nil), p.events...)
}

type fakeOptionsProvider struct {
	mu    sync.Mutex
	calls int
	group *domain.FilterGroup
	err   error
}

func (p *fakeOptionsProvider) FetchOptions(ctx context.Context, scope domain.FilterScope) (*domain.FilterGroup, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.group, p.err
}

func (p *fakeOptionsProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

type fakeSavedStore struct {
	mu       sync.Mutex
	searches map[string]domain.SavedSearch
}

func newFakeSavedStore() *fakeSavedStore {
	return &fakeSavedStore{searches: make(map[string]domain.SavedSearch)}
}

func (s *fakeSavedStore) Save(ctx context.Context, search domain.SavedSearch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searches[search.Name] = search
	return nil
}

func (s *fakeSavedStore) Get(ctx context.Context, name string) (*domain.SavedSearch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	search, ok := s.searches[name]
	if !ok {
		return nil, domain.ErrSavedSearchNotFound
	}
	return &search, nil
}

func (s *fakeSavedStore) List(ctx context.Context) ([]domain.SavedSearch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.SavedSearch
	for _, search := range s.searches {
		out = append(out, search)
	}
	return out, nil
}

func (s *fakeSavedStore) Delete(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.searches[name]; !ok {
		return domain.ErrSavedSearchNotFound
	}
	delete(s.searches, name)
	return nil
}
