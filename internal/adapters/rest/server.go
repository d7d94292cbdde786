package rest

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	core_ports "github.com/BorisTsankov/HousingHelper/internal/core/port"
)

type ServerConfig struct {
	Port           string
	AllowedOrigins []string
	// BackendURL - куда проксируется /api/*; пустая строка отключает прокси
	BackendURL string
}

// Handlers - все обработчики сервиса.
type Handlers struct {
	Pages         *PageHandlers
	Filters       *FilterHandlers
	SavedSearches *SavedSearchHandlers
	Session       *SessionHandlers
	// Health возвращает число открытых страниц
	Health func() int
}

type Server struct {
	httpServer *http.Server
	logger     core_ports.LoggerPort
}

// NewRouter собирает маршруты; вынесен отдельно, чтобы его можно было тестировать без сети.
func NewRouter(cfg ServerConfig, h Handlers, baseLogger core_ports.LoggerPort) (http.Handler, error) {
	r := chi.NewRouter()

	r.Use(middleware.RealIP, LoggerMiddleware(baseLogger), middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Trace-ID"},
		ExposedHeaders:   []string{"Location", "X-Trace-ID"},
		AllowCredentials: true,
		MaxAge:           300, // 5 минут
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		body := map[string]interface{}{"status": "ok"}
		if h.Health != nil {
			body["sessions"] = h.Health()
		}
		RespondWithJSON(w, http.StatusOK, body)
	})

	r.Route("/pages/listings", func(r chi.Router) {
		r.Post("/", h.Pages.OpenPage)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.Pages.GetPage)
			r.Delete("/", h.Pages.ClosePage)
			r.Get("/events", h.Pages.StreamEvents)
			r.Get("/preview/{listingID}", h.Pages.Preview)
			r.Post("/save", h.Pages.SaveSearch)

			r.Post("/free-text", h.Pages.SetFreeText())
			r.Put("/filters", h.Pages.SetFilters())
			r.Patch("/filters", h.Pages.PatchFilters())
			r.Post("/price-bucket", h.Pages.SetPriceBucket())
			r.Post("/page", h.Pages.SetPage())
			r.Post("/page/next", h.Pages.NextPage())
			r.Post("/page/prev", h.Pages.PrevPage())
			r.Post("/page-size", h.Pages.SetPageSize())
			r.Post("/view", h.Pages.SetViewMode())
			r.Post("/bounds", h.Pages.SetMapBounds())
			r.Post("/reset", h.Pages.Reset())
			r.Post("/retry", h.Pages.Retry())
			r.Post("/navigate", h.Pages.Navigate())
			r.Post("/back", h.Pages.Back())
			r.Post("/forward", h.Pages.Forward())
		})
	})

	r.Route("/filters", func(r chi.Router) {
		r.Get("/options", h.Filters.GetOptions)
		r.Get("/cities", h.Filters.SuggestCities)
	})

	r.Route("/saved-searches", func(r chi.Router) {
		r.Get("/", h.SavedSearches.List)
		r.Get("/{name}", h.SavedSearches.Get)
		r.Put("/{name}", h.SavedSearches.Put)
		r.Delete("/{name}", h.SavedSearches.Delete)
	})

	r.Route("/session", func(r chi.Router) {
		r.Get("/", h.Session.Current)
		r.Post("/login", h.Session.Login)
		r.Post("/logout", h.Session.Logout)
	})

	// /api/* -> бэкенд (страница объявления, регистрация и прочее)
	if cfg.BackendURL != "" {
		proxy, err := CreateProxy(cfg.BackendURL, "/api", baseLogger)
		if err != nil {
			return nil, err
		}
		r.Mount("/api", proxy)
	}

	return r, nil
}

func NewServer(cfg ServerConfig, h Handlers, baseLogger core_ports.LoggerPort) (*Server, error) {
	router, err := NewRouter(cfg, h, baseLogger)
	if err != nil {
		return nil, err
	}
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: baseLogger,
	}, nil
}

// Start запускает HTTP-сервер
func (s *Server) Start() error {
	s.logger.Info("Starting REST API server", core_ports.Fields{"address": s.httpServer.Addr})
	// ListenAndServe будет работать, пока не получит ошибку или команду Shutdown
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Could not start server", err, nil)
		return fmt.Errorf("could not start server: %w", err)
	}
	return nil
}

// Stop корректно останавливает сервер
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping REST API server...", nil)
	return s.httpServer.Shutdown(ctx)
}
