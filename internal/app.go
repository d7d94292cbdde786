package internal

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fluent/fluent-logger-golang/fluent"

	"github.com/BorisTsankov/HousingHelper/internal/adapters/auth_api_client"
	"github.com/BorisTsankov/HousingHelper/internal/adapters/listings_api_client"
	logger_adapter "github.com/BorisTsankov/HousingHelper/internal/adapters/logger"
	"github.com/BorisTsankov/HousingHelper/internal/adapters/navigation"
	rabbitmq_adapter "github.com/BorisTsankov/HousingHelper/internal/adapters/rabbitmq"
	"github.com/BorisTsankov/HousingHelper/internal/adapters/rest"
	"github.com/BorisTsankov/HousingHelper/internal/adapters/savedsearch"
	"github.com/BorisTsankov/HousingHelper/internal/configs"
	"github.com/BorisTsankov/HousingHelper/internal/core/port"
	"github.com/BorisTsankov/HousingHelper/internal/core/usecase"
	fluentlogger "github.com/BorisTsankov/HousingHelper/pkg/fluent_logger"
	"github.com/BorisTsankov/HousingHelper/pkg/rabbitmq/rabbitmq_common"
	"github.com/BorisTsankov/HousingHelper/pkg/rabbitmq/rabbitmq_producer"
)

// App - основная структура приложения
type App struct {
	server   *rest.Server
	sessions *usecase.PageSessionsUseCase
	logger   port.LoggerPort

	fluentClient *fluent.Fluent
	connManager  *rabbitmq_common.ConnectionManager
	producer     *rabbitmq_producer.Publisher
}

// NewApp создает и настраивает все компоненты приложения
func NewApp() (*App, error) {
	appConfig, err := configs.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("error loading application configuration: %w", err)
	}

	app := &App{}

	// инициализация логеров
	var activeLoggers []port.LoggerPort

	stdoutLogger := logger_adapter.NewSlogAdapter(logger_adapter.SlogConfig{
		Level:    parseLogLevel(appConfig.StdoutLogger.Level),
		IsJSON:   appConfig.StdoutLogger.IsJSON,
		UseColor: !appConfig.StdoutLogger.IsJSON,
	})
	activeLoggers = append(activeLoggers, stdoutLogger)

	if appConfig.FluentBit.Enabled {
		app.fluentClient, err = fluentlogger.NewClient(fluentlogger.Config{
			Host:      appConfig.FluentBit.Host,
			Port:      appConfig.FluentBit.Port,
			TagPrefix: appConfig.AppName, // Используем имя приложения как префикс
			Async:     true,
		})
		if err != nil {
			stdoutLogger.Error("Failed to create fluentbit client", err, nil)
			return nil, fmt.Errorf("failed to create fluentbit client: %w", err)
		}

		fluentAdapter, err := logger_adapter.NewFluentLoggerAdapter(app.fluentClient, parseLogLevel(appConfig.FluentBit.Level))
		if err != nil {
			app.fluentClient.Close()
			return nil, fmt.Errorf("failed to create fluentbit adapter: %w", err)
		}
		activeLoggers = append(activeLoggers, fluentAdapter)
	}

	multiLogger, err := logger_adapter.NewMultiloggerAdapter(activeLoggers...)
	if err != nil {
		app.closeInfra()
		return nil, fmt.Errorf("failed to create multi-logger: %w", err)
	}

	baseLogger := multiLogger.WithFields(port.Fields{
		"service_name": appConfig.AppName,
	})
	app.logger = baseLogger.WithFields(port.Fields{"component": "app"})
	app.logger.Debug("Logger system initialized", port.Fields{
		"active_loggers": len(activeLoggers), "fluent_enabled": appConfig.FluentBit.Enabled,
	})

	// Исходящие адаптеры
	listingsClient := listings_api_client.NewClient(appConfig.ListingsAPIURL, appConfig.HTTPClientTimeout)
	authClient := auth_api_client.NewClient(appConfig.AuthAPIURL, appConfig.HTTPClientTimeout)
	app.logger.Debug("API clients initialized", port.Fields{
		"listings_url": appConfig.ListingsAPIURL,
		"auth_url":     appConfig.AuthAPIURL,
	})

	savedStore, err := savedsearch.NewFileStore(appConfig.SavedSearchesPath)
	if err != nil {
		app.closeInfra()
		return nil, fmt.Errorf("failed to open saved searches store: %w", err)
	}

	var publisher port.SearchEventPublisherPort
	if appConfig.RabbitMQ.Enabled {
		publisher, err = app.initRabbitMQ(appConfig.RabbitMQ, baseLogger)
		if err != nil {
			app.closeInfra()
			return nil, err
		}
	}

	// Use cases
	filterOptions := usecase.NewLoadFilterOptionsUseCase(listingsClient, appConfig.FilterOptionsCacheTTL)
	historyEntries := appConfig.HistoryMaxEntries
	app.sessions = usecase.NewPageSessionsUseCase(
		listingsClient,
		publisher,
		filterOptions,
		savedStore,
		func() port.NavigationHistoryPort { return navigation.NewBrowserHistory(historyEntries) },
		appConfig.SessionIdleTimeout,
		baseLogger,
	)
	savedSearches := usecase.NewSavedSearchesUseCase(savedStore)
	authSession := usecase.NewAuthSessionUseCase(authClient)

	// Входящий адаптер
	app.server, err = rest.NewServer(rest.ServerConfig{
		Port:           appConfig.Port,
		AllowedOrigins: appConfig.AllowedOrigins,
		BackendURL:     appConfig.BackendURL,
	}, rest.Handlers{
		Pages:         rest.NewPageHandlers(app.sessions, savedSearches),
		Filters:       rest.NewFilterHandlers(filterOptions),
		SavedSearches: rest.NewSavedSearchHandlers(savedSearches),
		Session:       rest.NewSessionHandlers(authSession),
		Health:        app.sessions.Count,
	}, baseLogger)
	if err != nil {
		app.closeInfra()
		return nil, fmt.Errorf("failed to create http server: %w", err)
	}

	return app, nil
}

func (a *App) initRabbitMQ(cfg configs.RabbitMQConfig, baseLogger port.LoggerPort) (port.SearchEventPublisherPort, error) {
	pkgLogger := rabbitmq_adapter.NewPkgLoggerBridge(baseLogger.WithFields(port.Fields{"component": "rabbitmq"}))
	commonCfg := rabbitmq_common.Config{URL: cfg.URL}

	connManager, err := rabbitmq_common.NewConnectionManager(commonCfg, pkgLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	a.connManager = connManager

	producer, err := rabbitmq_producer.NewPublisher(rabbitmq_producer.PublisherConfig{
		Config:                   commonCfg,
		ExchangeName:             cfg.Exchange,
		ExchangeType:             "topic",
		DurableExchange:          true,
		DeclareExchangeIfMissing: true,
		Logger:                   pkgLogger,
	}, connManager)
	if err != nil {
		return nil, fmt.Errorf("failed to create search events producer: %w", err)
	}
	a.producer = producer

	publisher, err := rabbitmq_adapter.NewSearchEventsPublisher(producer, cfg.RoutingKey)
	if err != nil {
		return nil, err
	}
	a.logger.Info("Search events publisher initialized", port.Fields{"exchange": cfg.Exchange, "routing_key": cfg.RoutingKey})
	return publisher, nil
}

// Run запускает приложение и управляет его жизненным циклом
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reaperCtx, stopReaper := context.WithCancel(context.Background())
	defer stopReaper()
	go a.sessions.RunReaper(reaperCtx)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- a.server.Start()
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.logger.Debug("Listings front-end is shutting down...", nil)
	case runErr = <-serverErr:
		if runErr == nil {
			runErr = fmt.Errorf("http server stopped unexpectedly")
		}
	}

	stopReaper()
	// закрываем страницы до остановки сервера: это завершает SSE-потоки,
	// новые POST /pages/listings после этого получают 410
	a.sessions.CloseAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.server.Stop(shutdownCtx); err != nil {
		a.logger.Error("HTTP server shutdown failed", err, nil)
	}

	a.logger.Info("Application shut down gracefully.", nil)
	a.closeInfra()
	return runErr
}

// closeInfra закрывает producer, соединение с брокером и клиент fluent
func (a *App) closeInfra() {
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: Error closing producer: %v\n", err)
		}
	}
	if a.connManager != nil {
		if err := a.connManager.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: Error closing rabbitmq connection: %v\n", err)
		}
	}
	if a.fluentClient != nil {
		if err := a.fluentClient.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: Error closing fluent client: %v\n", err)
		}
	}
}

func parseLogLevel(levelStr string) slog.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		log.Printf("Warning: Unknown log level '%s'. Defaulting to 'info'.", levelStr)
		return slog.LevelInfo
	}
}
