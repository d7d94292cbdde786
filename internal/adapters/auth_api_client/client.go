package auth_api_client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/BorisTsankov/HousingHelper/internal/contextkeys"
	"github.com/BorisTsankov/HousingHelper/internal/core/domain"
	"github.com/BorisTsankov/HousingHelper/internal/core/port"
)

const (
	loginFailedMessage  = "Login failed"
	logoutFailedMessage = "Failed to log out"
)

type errorResponse struct {
	Message string `json:"message"`
}

// Client - клиент auth-сервиса. Cookie сессии передаются как есть в обе стороны.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient - конструктор клиента. baseURL указывает на префикс /auth.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) doRequest(ctx context.Context, method, path, cookieHeader string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if traceID := contextkeys.TraceIDFromContext(ctx); traceID != "" {
		req.Header.Set(contextkeys.TraceHeader, traceID)
	}
	if cookieHeader != "" {
		req.Header.Set("Cookie", cookieHeader)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	return c.httpClient.Do(req)
}

// CurrentUser - GET /me. 401 и 403 означают "не вошел", это не ошибка.
func (c *Client) CurrentUser(ctx context.Context, cookieHeader string) (*domain.User, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "AuthApiClient",
		"method":    "CurrentUser",
	})

	resp, err := c.doRequest(ctx, http.MethodGet, "/me", cookieHeader, nil)
	if err != nil {
		logger.Error("Failed to perform request to auth service", err, nil)
		return nil, fmt.Errorf("auth api: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &domain.HTTPStatusError{StatusCode: resp.StatusCode, Message: "Failed to fetch current user"}
	}

	var user domain.User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("auth api: failed to decode user: %w", err)
	}
	return &user, nil
}

// Login - POST /login. Текст ошибки берется из поля message ответа.
func (c *Client) Login(ctx context.Context, loginReq domain.LoginRequest) (*domain.AuthOutcome, error) {
	logger := contextkeys.LoggerFromContext(ctx).WithFields(port.Fields{
		"component": "AuthApiClient",
		"method":    "Login",
	})

	reqBody, err := json.Marshal(loginReq)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal login request: %w", err)
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/login", "", bytes.NewReader(reqBody))
	if err != nil {
		logger.Error("Failed to perform request to auth service", err, nil)
		return nil, fmt.Errorf("auth api: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.HTTPStatusError{
			StatusCode: resp.StatusCode,
			Message:    messageOr(resp.Body, loginFailedMessage),
		}
	}

	var user domain.User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fmt.Errorf("auth api: failed to decode user: %w", err)
	}
	return &domain.AuthOutcome{User: &user, SetCookies: resp.Header.Values("Set-Cookie")}, nil
}

// Logout - POST /logout; 204 тоже успех.
func (c *Client) Logout(ctx context.Context, cookieHeader string) (*domain.AuthOutcome, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/logout", cookieHeader, nil)
	if err != nil {
		return nil, fmt.Errorf("auth api: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &domain.HTTPStatusError{StatusCode: resp.StatusCode, Message: logoutFailedMessage}
	}
	return &domain.AuthOutcome{SetCookies: resp.Header.Values("Set-Cookie")}, nil
}

func messageOr(body io.Reader, fallback string) string {
	var parsed errorResponse
	if err := json.NewDecoder(io.LimitReader(body, 4<<10)).Decode(&parsed); err == nil && parsed.Message != "" {
		return parsed.Message
	}
	return fallback
}
