package domain

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrInvalidFilter       = errors.New("invalid filter value")
	ErrInvalidMapBounds    = errors.New("invalid map bounds")
	ErrControllerClosed    = errors.New("listings query controller is closed")
	ErrSessionNotFound     = errors.New("page session not found")
	ErrSavedSearchNotFound = errors.New("saved search not found")
	ErrInvalidSavedSearch  = errors.New("invalid saved search")
	ErrUnknownPriceBucket  = errors.New("unknown price bucket")
	ErrListingNotFound     = errors.New("listing not found on current page")
	ErrNoHistory           = errors.New("no navigation history entry")
	ErrUnauthenticated     = errors.New("not authenticated")
	ErrInvalidPageSize     = errors.New("page size is not allowed")
	ErrInvalidLogin        = errors.New("email and password are required")
)

// HTTPStatusError - внешний сервис ответил не 2xx.
type HTTPStatusError struct {
	StatusCode int
	Message    string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// Text - сообщение сервера, если оно было, иначе стандартный текст статуса.
func (e *HTTPStatusError) Text() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.StatusCode)
}
