package port

import (
	"context"

	"github.com/BorisTsankov/HousingHelper/internal/core/domain"
)

// AuthSessionPort - внешний провайдер сессии. Cookie передаются как есть,
// токенами этот сервис не занимается.
type AuthSessionPort interface {
	// CurrentUser возвращает nil без ошибки, если пользователь не вошел (401/403)
	CurrentUser(ctx context.Context, cookieHeader string) (*domain.User, error)
	Login(ctx context.Context, req domain.LoginRequest) (*domain.AuthOutcome, error)
	Logout(ctx context.Context, cookieHeader string) (*domain.AuthOutcome, error)
}
