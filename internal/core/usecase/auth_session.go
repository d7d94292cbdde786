package usecase

import (
	"context"
	"strings"

	"github.com/BorisTsankov/HousingHelper/internal/contextkeys"
	"github.com/BorisTsankov/HousingHelper/internal/core/domain"
	"github.com/BorisTsankov/HousingHelper/internal/core/port"
)

// SessionView - то, что страница знает о пользователе.
type SessionView struct {
	User            *domain.User `json:"user"`
	IsAuthenticated bool         `json:"isAuthenticated"`
}

// AuthSessionUseCase - тонкая обертка над внешним провайдером сессии.
// Cookie проходят насквозь, токены здесь не разбираются.
type AuthSessionUseCase struct {
	auth port.AuthSessionPort
}

func NewAuthSessionUseCase(auth port.AuthSessionPort) *AuthSessionUseCase {
	return &AuthSessionUseCase{auth: auth}
}

func (uc *AuthSessionUseCase) Current(ctx context.Context, cookieHeader string) (SessionView, error) {
	user, err := uc.auth.CurrentUser(ctx, cookieHeader)
	if err != nil {
		contextkeys.LoggerFromContext(ctx).Error("Failed to get current user", err, nil)
		return SessionView{}, err
	}
	return SessionView{User: user, IsAuthenticated: user != nil}, nil
}

// Login возвращает представление сессии и Set-Cookie, которые нужно отдать браузеру.
func (uc *AuthSessionUseCase) Login(ctx context.Context, req domain.LoginRequest) (SessionView, []string, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	ucLogger := logger.WithFields(port.Fields{"use_case": "Login"})

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		return SessionView{}, nil, domain.ErrInvalidLogin
	}

	outcome, err := uc.auth.Login(ctx, req)
	if err != nil {
		ucLogger.Warn("Login rejected", port.Fields{"error": err.Error()})
		return SessionView{}, nil, err
	}

	if outcome == nil {
		return SessionView{}, nil, domain.ErrUnauthenticated
	}
	ucLogger.Info("User logged in", nil)
	return SessionView{User: outcome.User, IsAuthenticated: outcome.User != nil}, outcome.SetCookies, nil
}

func (uc *AuthSessionUseCase) Logout(ctx context.Context, cookieHeader string) ([]string, error) {
	outcome, err := uc.auth.Logout(ctx, cookieHeader)
	if err != nil {
		contextkeys.LoggerFromContext(ctx).Error("Logout failed", err, nil)
		return nil, err
	}
	if outcome == nil {
		return nil, nil
	}
	return outcome.SetCookies, nil
}
