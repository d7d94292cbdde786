package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/BorisTsankov/HousingHelper/internal/core/domain"
)

// WriteJSONError отправляет JSON-ответ с полем "error" и заданным статусом
func WriteJSONError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)

	_ = json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}

// RespondWithJSON отправляет JSON-ответ
func RespondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "Failed to marshal JSON response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// statusForError сопоставляет доменные ошибки с HTTP-статусами.
func statusForError(err error) int {
	var statusErr *domain.HTTPStatusError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound),
		errors.Is(err, domain.ErrSavedSearchNotFound),
		errors.Is(err, domain.ErrListingNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidFilter),
		errors.Is(err, domain.ErrInvalidMapBounds),
		errors.Is(err, domain.ErrInvalidPageSize),
		errors.Is(err, domain.ErrUnknownPriceBucket),
		errors.Is(err, domain.ErrInvalidSavedSearch),
		errors.Is(err, domain.ErrInvalidLogin):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrControllerClosed):
		return http.StatusGone
	case errors.Is(err, domain.ErrNoHistory):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.As(err, &statusErr):
		if statusErr.StatusCode >= 400 && statusErr.StatusCode < 500 {
			return statusErr.StatusCode
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeDomainError пишет ошибку use case с подходящим статусом.
// Для 5xx текст ошибки наружу не отдается.
func writeDomainError(w http.ResponseWriter, err error, fallback string) {
	status := statusForError(err)
	var statusErr *domain.HTTPStatusError
	switch {
	case errors.As(err, &statusErr) && status < 500:
		WriteJSONError(w, status, statusErr.Text())
	case status >= 500:
		WriteJSONError(w, status, fallback)
	default:
		WriteJSONError(w, status, err.Error())
	}
}

// decodeJSON читает тело запроса не длиннее 1 МБ. Пустое тело - ошибка io.EOF.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(dst)
}
