package navigation

import (
	"context"
	"sync"
)

const DefaultMaxEntries = 50

// BrowserHistory - история адресной строки одной страницы в памяти.
// Write добавляет запись и отбрасывает все записи "вперед", как pushState.
type BrowserHistory struct {
	mu         sync.Mutex
	entries    []string
	index      int
	maxEntries int
}

func NewBrowserHistory(maxEntries int) *BrowserHistory {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &BrowserHistory{index: -1, maxEntries: maxEntries}
}

// Read возвращает текущую запись; пустая история - пустой запрос.
func (h *BrowserHistory) Read(ctx context.Context) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index < 0 {
		return "", nil
	}
	return h.entries[h.index], nil
}

func (h *BrowserHistory) Write(ctx context.Context, rawQuery string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	// повторная запись того же URL не создает новый шаг истории
	if h.index >= 0 && h.entries[h.index] == rawQuery {
		return nil
	}

	h.entries = append(h.entries[:h.index+1], rawQuery)
	if len(h.entries) > h.maxEntries {
		h.entries = append([]string(nil), h.entries[len(h.entries)-h.maxEntries:]...)
	}
	h.index = len(h.entries) - 1
	return nil
}

func (h *BrowserHistory) Back(ctx context.Context) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index <= 0 {
		return "", false
	}
	h.index--
	return h.entries[h.index], true
}

func (h *BrowserHistory) Forward(ctx context.Context) (string, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.index+1 >= len(h.entries) {
		return "", false
	}
	h.index++
	return h.entries[h.index], true
}

// Len - число записей (для отладки и тестов).
func (h *BrowserHistory) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}
