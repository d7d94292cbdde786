package listings_api_client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/BorisTsankov/HousingHelper/internal/contextkeys"
	"github.com/BorisTsankov/HousingHelper/internal/contracts"
	"github.com/BorisTsankov/HousingHelper/internal/core/domain"
	"github.com/BorisTsankov/HousingHelper/internal/core/port"
)

const maxErrorBody = 4 << 10

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient: timeout <= 0 - без таймаута, запросы ограничивает только контекст.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// doRequest - внутренний хелпер для выполнения запросов
func (c *Client) doRequest(ctx context.Context, method, url string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if traceID := contextkeys.TraceIDFromContext(ctx); traceID != "" {
		req.Header.Set(contextkeys.TraceHeader, traceID)
	}
	req.Header.Set("Accept", "application/json")

	return c.httpClient.Do(req)
}

// FetchListings - GET /listings?<params>
func (c *Client) FetchListings(ctx context.Context, params url.Values) (*domain.ListingsPage, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	clientLogger := logger.WithFields(port.Fields{
		"component": "ListingsApiClient",
		"method":    "FetchListings",
	})

	endpoint := c.baseURL + "/listings"
	if encoded := params.Encode(); encoded != "" {
		endpoint += "?" + encoded
	}
	clientLogger.Debug("Sending request to listings API", port.Fields{"url": endpoint})

	resp, err := c.doRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			// запрос отменен вызывающей стороной, это не ошибка сервиса
			return nil, ctxErr
		}
		clientLogger.Error("Failed to perform request to listings API", err, nil)
		return nil, fmt.Errorf("listings api: request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		clientLogger.Warn("Received error response from listings API", port.Fields{"status_code": resp.StatusCode})
		return nil, err
	}

	var page ListingsResponse
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		clientLogger.Error("Failed to decode response from listings API", err, nil)
		return nil, fmt.Errorf("listings api: failed to decode listings: %w", err)
	}

	items := page.Items
	if items == nil {
		items = []domain.Listing{}
	}
	clientLogger.Debug("Listings received", port.Fields{"items_count": len(items), "total": page.Total})

	return &domain.ListingsPage{Items: items, Total: page.Total}, nil
}

// FetchOptions - GET /listings/filters?scope=...; ответ проверяется по схеме.
func (c *Client) FetchOptions(ctx context.Context, scope domain.FilterScope) (*domain.FilterGroup, error) {
	logger := contextkeys.LoggerFromContext(ctx)
	clientLogger := logger.WithFields(port.Fields{
		"component": "ListingsApiClient",
		"method":    "FetchOptions",
		"scope":     string(scope),
	})

	endpoint := c.baseURL + "/listings/filters?" + url.Values{"scope": {string(scope)}}.Encode()

	resp, err := c.doRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		clientLogger.Error("Failed to perform request to listings API", err, nil)
		return nil, fmt.Errorf("listings api: request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		clientLogger.Warn("Received error response from listings API", port.Fields{"status_code": resp.StatusCode})
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("listings api: failed to read filter options: %w", err)
	}
	if err := contracts.Validate(contracts.FilterGroupV1, body); err != nil {
		clientLogger.Error("Filter options do not match the contract", err, nil)
		return nil, fmt.Errorf("listings api: invalid filter options: %w", err)
	}

	var group domain.FilterGroup
	if err := json.NewDecoder(bytes.NewReader(body)).Decode(&group); err != nil {
		return nil, fmt.Errorf("listings api: failed to decode filter options: %w", err)
	}

	normalized := group.Normalized()
	return &normalized, nil
}

// checkStatus превращает не-2xx ответ в *domain.HTTPStatusError.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return &domain.HTTPStatusError{StatusCode: resp.StatusCode, Message: errorMessage(bodyBytes)}
}

func errorMessage(body []byte) string {
	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err == nil {
		if parsed.Message != "" {
			return parsed.Message
		}
		return parsed.Error
	}
	return ""
}

