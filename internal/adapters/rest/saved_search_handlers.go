package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BorisTsankov/HousingHelper/internal/contextkeys"
	"github.com/BorisTsankov/HousingHelper/internal/core/port"
	"github.com/BorisTsankov/HousingHelper/internal/core/usecase"
)

type SavedSearchHandlers struct {
	saved *usecase.SavedSearchesUseCase
}

func NewSavedSearchHandlers(saved *usecase.SavedSearchesUseCase) *SavedSearchHandlers {
	return &SavedSearchHandlers{saved: saved}
}

// Put - PUT /saved-searches/{name}, тело {"query": "<строка запроса>"}
func (h *SavedSearchHandlers) Put(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "PutSavedSearch"})

	var req SaveSearchRequestDTO
	if err := decodeBody(w, r, &req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	search, err := h.saved.Save(r.Context(), chi.URLParam(r, "name"), req.Query)
	if err != nil {
		logger.Warn("Failed to save search", port.Fields{"error": err.Error()})
		writeDomainError(w, err, "Failed to save search")
		return
	}
	RespondWithJSON(w, http.StatusOK, search)
}

func (h *SavedSearchHandlers) Get(w http.ResponseWriter, r *http.Request) {
	search, err := h.saved.Get(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeDomainError(w, err, "Failed to get saved search")
		return
	}
	RespondWithJSON(w, http.StatusOK, search)
}

func (h *SavedSearchHandlers) List(w http.ResponseWriter, r *http.Request) {
	searches, err := h.saved.List(r.Context())
	if err != nil {
		writeDomainError(w, err, "Failed to list saved searches")
		return
	}
	RespondWithJSON(w, http.StatusOK, searches)
}

func (h *SavedSearchHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.saved.Delete(r.Context(), chi.URLParam(r, "name")); err != nil {
		writeDomainError(w, err, "Failed to delete saved search")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
