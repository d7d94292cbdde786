package rest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/BorisTsankov/HousingHelper/internal/contextkeys"
	"github.com/BorisTsankov/HousingHelper/internal/core/domain"
	"github.com/BorisTsankov/HousingHelper/internal/core/port"
	"github.com/BorisTsankov/HousingHelper/internal/core/presenter"
	"github.com/BorisTsankov/HousingHelper/internal/core/usecase"
)

// PageHandlers - HTTP-обертка над открытыми страницами поиска.
type PageHandlers struct {
	sessions *usecase.PageSessionsUseCase
	saved    *usecase.SavedSearchesUseCase
}

// NewPageHandlers - конструктор для наших обработчиков.
func NewPageHandlers(sessions *usecase.PageSessionsUseCase, saved *usecase.SavedSearchesUseCase) *PageHandlers {
	return &PageHandlers{sessions: sessions, saved: saved}
}

func viewOf(session *usecase.PageSession) presenter.ResultsView {
	return presenter.BuildView(session.Controller.Snapshot(), session.Options.PriceBuckets)
}

func respondWithPage(w http.ResponseWriter, code int, session *usecase.PageSession, withOptions bool) {
	resp := PageResponse{SessionID: session.ID, View: viewOf(session)}
	if withOptions {
		options := session.Options
		resp.Options = &options
	}
	RespondWithJSON(w, code, resp)
}

// OpenPage - POST /pages/listings?<query>[&saved=<name>]
func (h *PageHandlers) OpenPage(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "OpenPage"})

	query := r.URL.Query()
	savedName := query.Get("saved")
	query.Del("saved")

	session, err := h.sessions.Open(r.Context(), query.Encode(), savedName)
	if err != nil {
		logger.Warn("Failed to open page session", port.Fields{"error": err.Error()})
		writeDomainError(w, err, "Failed to open page")
		return
	}

	w.Header().Set("Location", "/pages/listings/"+session.ID)
	respondWithPage(w, http.StatusCreated, session, true)
}

// GetPage - GET /pages/listings/{sessionID}
func (h *PageHandlers) GetPage(w http.ResponseWriter, r *http.Request) {
	session, err := h.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeDomainError(w, err, "Failed to get page")
		return
	}
	respondWithPage(w, http.StatusOK, session, r.URL.Query().Get("options") == "true")
}

// ClosePage - DELETE /pages/listings/{sessionID}
func (h *PageHandlers) ClosePage(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Close(chi.URLParam(r, "sessionID")); err != nil {
		writeDomainError(w, err, "Failed to close page")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// mutation - общий путь для всех мутаций: найти сессию, применить, вернуть вид.
func (h *PageHandlers) mutation(name string, apply func(ctx context.Context, w http.ResponseWriter, r *http.Request, s *usecase.PageSession) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": name})

		session, err := h.sessions.Get(chi.URLParam(r, "sessionID"))
		if err != nil {
			writeDomainError(w, err, "Failed to get page")
			return
		}

		if err := apply(r.Context(), w, r, session); err != nil {
			var bodyErr *bodyError
			if errors.As(err, &bodyErr) {
				WriteJSONError(w, http.StatusBadRequest, bodyErr.Error())
				return
			}
			logger.Warn("Mutation rejected", port.Fields{"session_id": session.ID, "error": err.Error()})
			writeDomainError(w, err, "Failed to update page")
			return
		}
		respondWithPage(w, http.StatusOK, session, false)
	}
}

// bodyError - тело запроса не разобралось.
type bodyError struct {
	err error
}

func (e *bodyError) Error() string {
	if errors.Is(e.err, io.EOF) {
		return "Request body is empty"
	}
	return fmt.Sprintf("Invalid request body: %v", e.err)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	if err := decodeJSON(w, r, dst); err != nil {
		return &bodyError{err: err}
	}
	return nil
}

func (h *PageHandlers) SetFreeText() http.HandlerFunc {
	return h.mutation("SetFreeText", func(ctx context.Context, w http.ResponseWriter, r *http.Request, s *usecase.PageSession) error {
		var req FreeTextRequestDTO
		if err := decodeBody(w, r, &req); err != nil {
			return err
		}
		return s.Controller.SetFreeText(ctx, req.Text)
	})
}

// SetFilters заменяет фильтры целиком; PatchFilters меняет только переданные ключи.
func (h *PageHandlers) SetFilters() http.HandlerFunc {
	return h.mutation("SetFilters", func(ctx context.Context, w http.ResponseWriter, r *http.Request, s *usecase.PageSession) error {
		var req map[string]string
		if err := decodeBody(w, r, &req); err != nil {
			return err
		}
		filters, err := domain.ParseFilterInput(req)
		if err != nil {
			return err
		}
		return s.Controller.SetFilters(ctx, filters)
	})
}

func (h *PageHandlers) PatchFilters() http.HandlerFunc {
	return h.mutation("PatchFilters", func(ctx context.Context, w http.ResponseWriter, r *http.Request, s *usecase.PageSession) error {
		var req map[string]string
		if err := decodeBody(w, r, &req); err != nil {
			return err
		}
		patch, err := domain.ParseFilterPatch(req)
		if err != nil {
			return err
		}
		return s.Controller.PatchFilters(ctx, patch)
	})
}

func (h *PageHandlers) SetPriceBucket() http.HandlerFunc {
	return h.mutation("SetPriceBucket", func(ctx context.Context, w http.ResponseWriter, r *http.Request, s *usecase.PageSession) error {
		var req PriceBucketRequestDTO
		if err := decodeBody(w, r, &req); err != nil {
			return err
		}
		return h.sessions.SelectPriceBucket(ctx, s.ID, req.Label)
	})
}

func (h *PageHandlers) SetPage() http.HandlerFunc {
	return h.mutation("SetPage", func(ctx context.Context, w http.ResponseWriter, r *http.Request, s *usecase.PageSession) error {
		var req PageRequestDTO
		if err := decodeBody(w, r, &req); err != nil {
			return err
		}
		return s.Controller.SetPage(ctx, req.Page)
	})
}

func (h *PageHandlers) NextPage() http.HandlerFunc {
	return h.mutation("NextPage", func(ctx context.Context, w http.ResponseWriter, r *http.Request, s *usecase.PageSession) error {
		return s.Controller.NextPage(ctx)
	})
}

func (h *PageHandlers) PrevPage() http.HandlerFunc {
	return h.mutation("PrevPage", func(ctx context.Context, w http.ResponseWriter, r *http.Request, s *usecase.PageSession) error {
		return s.Controller.PrevPage(ctx)
	})
}

func (h *PageHandlers) SetPageSize() http.HandlerFunc {
	return h.mutation("SetPageSize", func(ctx context.Context, w http.ResponseWriter, r *http.Request, s *usecase.PageSession) error {
		var req PageSizeRequestDTO
		if err := decodeBody(w, r, &req); err != nil {
			return err
		}
		return s.Controller.SetPageSize(ctx, req.Size)
	})
}

func (h *PageHandlers) SetViewMode() http.HandlerFunc {
	return h.mutation("SetViewMode", func(ctx context.Context, w http.ResponseWriter, r *http.Request, s *usecase.PageSession) error {
		var req ViewModeRequestDTO
		if err := decodeBody(w, r, &req); err != nil {
			return err
		}
		return s.Controller.SetViewMode(ctx, domain.ParseViewMode(req.Mode))
	})
}

func (h *PageHandlers) SetMapBounds() http.HandlerFunc {
	return h.mutation("SetMapBounds", func(ctx context.Context, w http.ResponseWriter, r *http.Request, s *usecase.PageSession) error {
		var req domain.MapBounds
		if err := decodeBody(w, r, &req); err != nil {
			return err
		}
		return s.Controller.SetMapBounds(ctx, req)
	})
}

func (h *PageHandlers) Reset() http.HandlerFunc {
	return h.mutation("Reset", func(ctx context.Context, w http.ResponseWriter, r *http.Request, s *usecase.PageSession) error {
		return s.Controller.Reset(ctx)
	})
}

func (h *PageHandlers) Retry() http.HandlerFunc {
	return h.mutation("Retry", func(ctx context.Context, w http.ResponseWriter, r *http.Request, s *usecase.PageSession) error {
		return s.Controller.Retry(ctx)
	})
}

// Navigate - POST /pages/listings/{sessionID}/navigate?<query>: переход по истории браузера.
func (h *PageHandlers) Navigate() http.HandlerFunc {
	return h.mutation("Navigate", func(ctx context.Context, w http.ResponseWriter, r *http.Request, s *usecase.PageSession) error {
		_, err := h.sessions.Navigate(ctx, s.ID, r.URL.RawQuery)
		return err
	})
}

func (h *PageHandlers) Back() http.HandlerFunc {
	return h.mutation("Back", func(ctx context.Context, w http.ResponseWriter, r *http.Request, s *usecase.PageSession) error {
		_, err := h.sessions.Back(ctx, s.ID)
		return err
	})
}

func (h *PageHandlers) Forward() http.HandlerFunc {
	return h.mutation("Forward", func(ctx context.Context, w http.ResponseWriter, r *http.Request, s *usecase.PageSession) error {
		_, err := h.sessions.Forward(ctx, s.ID)
		return err
	})
}

// Preview - GET /pages/listings/{sessionID}/preview/{listingID}
func (h *PageHandlers) Preview(w http.ResponseWriter, r *http.Request) {
	listing, err := h.sessions.Preview(chi.URLParam(r, "sessionID"), chi.URLParam(r, "listingID"))
	if err != nil {
		writeDomainError(w, err, "Failed to get listing")
		return
	}
	RespondWithJSON(w, http.StatusOK, listing)
}

// SaveSearch - POST /pages/listings/{sessionID}/save: сохранить текущее состояние под именем.
func (h *PageHandlers) SaveSearch(w http.ResponseWriter, r *http.Request) {
	logger := contextkeys.LoggerFromContext(r.Context()).WithFields(port.Fields{"handler": "SaveSearch"})

	session, err := h.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeDomainError(w, err, "Failed to get page")
		return
	}

	var req SaveSearchRequestDTO
	if err := decodeBody(w, r, &req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	search, err := h.saved.SaveSession(r.Context(), session, req.Name)
	if err != nil {
		logger.Warn("Failed to save search", port.Fields{"error": err.Error()})
		writeDomainError(w, err, "Failed to save search")
		return
	}
	RespondWithJSON(w, http.StatusCreated, search)
}
