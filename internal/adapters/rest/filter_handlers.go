package rest

import (
	"net/http"
	"strconv"

	"github.com/BorisTsankov/HousingHelper/internal/core/domain"
	"github.com/BorisTsankov/HousingHelper/internal/core/usecase"
)

type FilterHandlers struct {
	options *usecase.LoadFilterOptionsUseCase
}

func NewFilterHandlers(options *usecase.LoadFilterOptionsUseCase) *FilterHandlers {
	return &FilterHandlers{options: options}
}

// GetOptions - GET /filters/options?scope=home|listings
// Ошибки бэкенда сюда не доходят: в худшем случае списки пустые.
func (h *FilterHandlers) GetOptions(w http.ResponseWriter, r *http.Request) {
	scope, ok := domain.ParseFilterScope(r.URL.Query().Get("scope"))
	if !ok {
		WriteJSONError(w, http.StatusBadRequest, "Parameter 'scope' must be 'home' or 'listings'")
		return
	}
	RespondWithJSON(w, http.StatusOK, h.options.Execute(r.Context(), scope))
}

// SuggestCities - GET /filters/cities?q=&limit=
func (h *FilterHandlers) SuggestCities(w http.ResponseWriter, r *http.Request) {
	limit := domain.DefaultCitySuggestions
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			WriteJSONError(w, http.StatusBadRequest, "Parameter 'limit' must be a positive number")
			return
		}
		limit = n
	}

	group := h.options.Execute(r.Context(), domain.ScopeListings)
	RespondWithJSON(w, http.StatusOK, domain.SuggestCities(group.Cities, r.URL.Query().Get("q"), limit))
}
