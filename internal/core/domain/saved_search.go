package domain

import (
	"regexp"
	"time"
)

// SavedSearch - сохраненная под именем ссылка на состояние поиска.
type SavedSearch struct {
	Name      string    `json:"name"`
	Query     string    `json:"query"`
	UpdatedAt time.Time `json:"updatedAt"`
}

var savedSearchName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]{0,63}$`)

// ValidSavedSearchName - латиница, цифры, '-' и '_', до 64 символов.
func ValidSavedSearchName(name string) bool {
	return savedSearchName.MatchString(name)
}

// SearchEvent - событие "выполнен поиск" для аналитики популярных запросов.
type SearchEvent struct {
	SessionID  string    `json:"session_id"`
	Query      string    `json:"query"`
	ViewMode   ViewMode  `json:"view_mode"`
	Total      int       `json:"total"`
	OccurredAt time.Time `json:"occurred_at"`
}
