package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"carsales/internal/config"
	"carsales/internal/dataset"
	apierrors "carsales/internal/errors"
	"carsales/internal/infrastructure"
	customMiddleware "carsales/internal/middleware"
	"carsales/internal/services"
	handlers "carsales/internal/transport/http"
	ws "carsales/internal/websocket"
)

// BuildTime is set at compile time
var BuildTime = ""

// runtimeSampleInterval is how often process gauges are refreshed
const runtimeSampleInterval = 15 * time.Second

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	Runtime       *infrastructure.RuntimeCollector
	FrontendFS    fs.FS

	Table         *dataset.Table
	LoadStats     dataset.LoadStats
	Dashboard     *services.DashboardService
	HealthService *services.HealthService
	WebSocketHub  *ws.Hub

	errorHandler *apierrors.ErrorHandler
	validation   *customMiddleware.ValidationMiddleware
	selection    *customMiddleware.SelectionValidator
}

// NewApplication loads configuration and builds the application. A dataset
// that cannot be loaded is fatal.
func NewApplication(frontendFS fs.FS) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(context.Background(), cfg, logger, frontendFS)
}

// New builds the application from an explicit configuration.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, frontendFS fs.FS) (*Application, error) {
	logger.InfoContext(ctx, "Application starting",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	runtimeCollector, err := infrastructure.NewRuntimeCollector(otelProviders.Meter, runtimeSampleInterval)
	if err != nil {
		return nil, fmt.Errorf("failed to create runtime metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		Runtime:       runtimeCollector,
		FrontendFS:    frontendFS,
	}

	if err := app.loadDataset(ctx); err != nil {
		return nil, err
	}

	app.initializeServices()

	if err := app.setupRouter(); err != nil {
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}

	app.createServer()

	return app, nil
}

func (a *Application) loadDataset(ctx context.Context) error {
	path := a.Config.DatasetPath()
	table, stats, err := dataset.Load(ctx, path, dataset.Options{
		DateLayouts:  a.Config.Dataset.DateLayouts,
		MaxFileBytes: a.Config.Dataset.MaxFileBytes,
		Logger:       a.Logger,
	})
	if err != nil {
		a.Logger.ErrorContext(ctx, "Dataset could not be loaded",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return apierrors.NewDatasetError("failed to load dataset "+path, err)
	}

	infrastructure.RecordDatasetLoad(ctx, a.Metrics, stats.RowsKept, stats.Dropped, stats.Duration)
	a.Table, a.LoadStats = table, stats
	return nil
}

// initializeServices wires the services around the loaded table
func (a *Application) initializeServices() {
	a.errorHandler = apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)
	a.validation = customMiddleware.NewValidationMiddleware(a.Logger, a.errorHandler)
	a.selection = customMiddleware.NewSelectionValidator(a.validation, a.Table)

	a.Dashboard = services.NewDashboardService(a.Table, a.Config.Regression, a.Metrics, a.Logger)
	a.WebSocketHub = ws.NewHub(a.Dashboard, a.selection, a.Config.WebSocket, a.Metrics, a.Logger)
	a.HealthService = services.NewHealthService(config.AppVersion, config.RepoURL, BuildTime, a.Table, a.WebSocketHub, a.Logger)
}

// setupRouter builds the route tree. The websocket route and static assets
// sit outside the group whose middleware wraps the response writer.
func (a *Application) setupRouter() error {
	r := chi.NewRouter()

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.NotFound(a.errorHandler.NotFound)
	r.MethodNotAllowed(a.errorHandler.MethodNotAllowed)

	wsHandler := ws.NewHandler(a.WebSocketHub, a.Config.WebSocket, a.Config.Security.AllowedOrigins, a.Logger)
	r.With(customMiddleware.WebSocketTraceMiddleware(a.Logger)).Handle(config.WebSocketEndpoint, wsHandler)

	r.Handle(config.MetricsEndpoint, handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, a.errorHandler))

	var page *handlers.PageHandler
	if a.FrontendFS != nil {
		var err error
		page, err = handlers.NewPageHandler(a.FrontendFS, handlers.PageData{
			AppName:       config.AppName,
			Version:       config.AppVersion,
			WebSocketPath: config.WebSocketEndpoint,
			APIBase:       config.APIBasePath,
		}, a.Logger)
		if err != nil {
			return err
		}
		r.Route("/static", func(r chi.Router) {
			r.Use(middleware.Compress(5))
			r.Use(middleware.SetHeader("Cache-Control", "public, max-age=3600"))
			r.Handle("/*", page.Static("/static"))
		})
	}

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics)
	if err != nil {
		return err
	}

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer, then response shaping
		r.Use(otelMiddleware.Handler)
		r.Use(customMiddleware.BusinessMetricsMiddleware(a.Metrics))
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger, a.errorHandler))

		secure := customMiddleware.DefaultSecureHeaders()
		secure.DevMode = a.Config.Logging.Development
		r.Use(secure.Handler)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
				a.errorHandler,
			).Handler)
		}

		a.setupHealthRoutes(r)
		a.setupAPIRoutes(r)

		if page != nil {
			r.Get("/", page.ServeIndex)
		}
	})

	a.Router = r
	return nil
}

func (a *Application) setupHealthRoutes(r chi.Router) {
	h := handlers.NewHealthHandler(a.HealthService, a.Logger)
	r.Get(config.HealthEndpoint, h.HealthCheck)
	r.Get(config.HealthEndpoint+"/ready", h.ReadinessCheck)
	r.Get(config.HealthEndpoint+"/live", h.LivenessCheck)
	r.Get(config.VersionEndpoint, h.Version)
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route(config.APIBasePath, func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.StripSlashes)
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger, a.errorHandler))
		r.Use(a.validation.ValidateRequest)

		r.Mount("/dashboard", handlers.NewDashboardHandler(a.Dashboard, a.selection.Handler, a.Logger, a.errorHandler).Routes())
		r.Mount("/regression", handlers.NewRegressionHandler(a.Dashboard, a.validation, a.Logger, a.errorHandler).Routes())
		r.Mount("/export", handlers.NewExportHandler(a.Dashboard, a.selection.Handler, a.Logger, a.errorHandler).Routes())

		r.With(customMiddleware.ContentTypeValidator(a.errorHandler, "application/json")).
			Post("/logs", handlers.NewClientLogHandler(a.validation, a.Logger, a.errorHandler).Handle)
	})
}

func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins:   a.Config.Security.AllowedOrigins,
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID", "Content-Disposition", "Retry-After"},
		AllowCredentials: false,
		Logger:           a.Logger,
	}
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start launches the hub, the runtime collector and the HTTP server. A
// listener failure cancels ctx through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", config.AppVersion),
		slog.Int("port", a.Config.Server.Port),
		slog.Int("rows", a.Table.Len()),
		slog.String("dataset", a.LoadStats.Source))

	a.WebSocketHub.Start()
	go a.Runtime.Start(ctx)

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop shuts the server down and releases background resources.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}

	a.WebSocketHub.Stop()
	a.Runtime.Stop()

	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
	}

	if err := infrastructure.CloseLogFile(); err != nil {
		errs = append(errs, fmt.Errorf("log file close: %w", err))
	}

	if err := errors.Join(errs...); err != nil {
		a.Logger.ErrorContext(ctx, "Shutdown completed with errors", slog.String("error", err.Error()))
		return err
	}

	a.Logger.InfoContext(ctx, "Application stopped")
	return nil
}

// Run starts the application and blocks until an interrupt or a server
// failure, then shuts down gracefully.
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case sig := <-sigChan:
		a.Logger.InfoContext(ctx, "Received signal", slog.String("signal", sig.String()))
	case <-ctx.Done():
		a.Logger.WarnContext(ctx, "Server stopped unexpectedly")
	}

	return a.Stop(context.Background())
}
