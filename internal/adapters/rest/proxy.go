package rest

import (
	"fmt"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"

	"github.com/BorisTsankov/HousingHelper/internal/contextkeys"
	"github.com/BorisTsankov/HousingHelper/internal/core/port"
)

// CreateProxy создает обратный прокси к бэкенду.
// Префикс stripPrefix срезается с пути, затем добавляется путь из targetURL:
// /api/listings/7 -> <target>/listings/7.
func CreateProxy(targetURL, stripPrefix string, logger port.LoggerPort) (http.Handler, error) {
	target, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy target URL %q: %w", targetURL, err)
	}
	if target.Scheme == "" || target.Host == "" {
		return nil, fmt.Errorf("invalid proxy target URL %q: scheme and host are required", targetURL)
	}
	basePath := strings.TrimRight(target.Path, "/")

	proxy := &httputil.ReverseProxy{
		Director: func(req *http.Request) {
			req.URL.Scheme = target.Scheme
			req.URL.Host = target.Host
			req.Host = target.Host

			// req.URL.Path не содержит query-параметров, они в req.URL.RawQuery
			path := strings.TrimPrefix(req.URL.Path, stripPrefix)
			if !strings.HasPrefix(path, "/") {
				path = "/" + path
			}
			req.URL.Path = basePath + path
			req.URL.RawPath = ""

			if traceID := contextkeys.TraceIDFromContext(req.Context()); traceID != "" {
				req.Header.Set(contextkeys.TraceHeader, traceID)
			}
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			contextkeys.LoggerFromContextOr(r.Context(), logger).Error("Proxy request failed", err, port.Fields{"target": target.Host})
			WriteJSONError(w, http.StatusBadGateway, "Backend is unavailable")
		},
	}
	return proxy, nil
}
