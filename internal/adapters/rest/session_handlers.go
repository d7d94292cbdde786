package rest

import (
	"net/http"

	"github.com/BorisTsankov/HousingHelper/internal/core/domain"
	"github.com/BorisTsankov/HousingHelper/internal/core/usecase"
)

// SessionHandlers - текущий пользователь, вход и выход.
// Cookie браузера уходят в auth-сервис, Set-Cookie возвращаются без изменений.
type SessionHandlers struct {
	auth *usecase.AuthSessionUseCase
}

func NewSessionHandlers(auth *usecase.AuthSessionUseCase) *SessionHandlers {
	return &SessionHandlers{auth: auth}
}

// Current - GET /session. Неавторизованный пользователь - 200 с isAuthenticated=false.
func (h *SessionHandlers) Current(w http.ResponseWriter, r *http.Request) {
	view, err := h.auth.Current(r.Context(), r.Header.Get("Cookie"))
	if err != nil {
		writeDomainError(w, err, "Failed to fetch current user")
		return
	}
	RespondWithJSON(w, http.StatusOK, view)
}

func (h *SessionHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequestDTO
	if err := decodeBody(w, r, &req); err != nil {
		WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	view, cookies, err := h.auth.Login(r.Context(), domain.LoginRequest{Email: req.Email, Password: req.Password})
	if err != nil {
		writeDomainError(w, err, "Login failed")
		return
	}
	for _, c := range cookies {
		w.Header().Add("Set-Cookie", c)
	}
	RespondWithJSON(w, http.StatusOK, view)
}

func (h *SessionHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	cookies, err := h.auth.Logout(r.Context(), r.Header.Get("Cookie"))
	if err != nil {
		writeDomainError(w, err, "Failed to log out")
		return
	}
	for _, c := range cookies {
		w.Header().Add("Set-Cookie", c)
	}
	w.WriteHeader(http.StatusNoContent)
}
