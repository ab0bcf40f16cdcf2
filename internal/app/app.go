package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/config"
	apierrors "github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/errors"
	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/infrastructure"
	customMiddleware "github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/middleware"
	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/services"
	handlers "github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/transport/http"
	ws "github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/internal/websocket"
	"github.com/FaeKiseki/Credit-Scoring-Federal-Reserve/pkg/contracts"
)

// compressionLevel is the gzip level for text responses
const compressionLevel = 5

// Application represents the main application container
type Application struct {
	Config           *config.Config
	Router           *chi.Mux
	Server           *http.Server
	Logger           *slog.Logger
	OTelProviders    *infrastructure.OTelProviders
	Metrics          *infrastructure.DashboardMetrics
	WebSocketHub     *ws.Hub
	DashboardService *services.DashboardService
	HealthService    *services.HealthService
	ErrorHandler     *apierrors.ErrorHandler

	logCloser io.Closer
}

// NewApplication wires every component for cfg. Console logs go to stdout.
func NewApplication(cfg *config.Config, stdout io.Writer) (*Application, error) {
	logger, closer, err := infrastructure.NewLogger(cfg.Logging, stdout)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("version", contracts.Version),
		slog.String("dataset", cfg.Dataset.Path),
		slog.Int("port", cfg.Server.Port))

	providers, err := infrastructure.InitializeOTel(cfg.Telemetry, logger)
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateDashboardMetrics(providers.Meter)
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("failed to create dashboard metrics: %w", err)
	}

	a := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: providers,
		Metrics:       metrics,
		ErrorHandler:  apierrors.NewErrorHandler(logger, cfg.Logging.Level == "debug"),
		logCloser:     closer,
	}

	a.initializeServices()

	if err := a.setupRouter(); err != nil {
		closer.Close()
		return nil, err
	}
	a.createServer()

	return a, nil
}

func (a *Application) initializeServices() {
	a.WebSocketHub = ws.NewHub(a.Logger, a.Metrics)
	a.DashboardService = services.NewDashboardService(a.Config, nil, a.Metrics, a.WebSocketHub, a.Logger)
	a.HealthService = services.NewHealthService(a.DashboardService, a.WebSocketHub, a.Logger)
}

// setupRouter builds the route tree. The websocket and metrics endpoints sit
// outside the group whose middleware wraps the ResponseWriter, since the
// upgrade needs to hijack the connection.
func (a *Application) setupRouter() error {
	page, err := handlers.NewPageHandler(a.DashboardService, a.Logger, a.ErrorHandler)
	if err != nil {
		return err
	}
	validator := customMiddleware.NewValidationMiddleware(a.Logger, a.ErrorHandler)

	dashboardHandler := handlers.NewDashboardHandler(a.DashboardService, validator, a.Logger, a.ErrorHandler)
	datasetHandler := handlers.NewDatasetHandler(a.DashboardService, a.Logger, a.ErrorHandler)
	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
	wsHandler := ws.NewHandler(a.WebSocketHub, a.Config.WebSocket, a.Config.Security.AllowedOrigins, a.Logger)

	r := chi.NewRouter()

	// RequestID → RealIP → OTel → Logger → Recoverer → headers → CORS → rate limit → Timeout
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	r.Handle("/ws", wsHandler)
	r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics).Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.ErrorHandler))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
				AllowedOrigins: a.Config.Security.AllowedOrigins,
				Logger:         a.Logger,
			}))
		}

		if rl := a.Config.Security.RateLimit; rl.Enabled {
			r.Use(customMiddleware.NewRateLimiter(rl.RPS, rl.Burst, a.Logger, a.ErrorHandler).Handler)
		}

		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout))
		r.Use(customMiddleware.Compress(compressionLevel))

		r.Get("/", page.ServeDashboard)

		r.Route("/api", func(r chi.Router) {
			r.Use(render.SetContentType(render.ContentTypeJSON))

			r.Get("/health", healthHandler.HealthCheck)
			r.Get("/health/ready", healthHandler.ReadinessCheck)
			r.Get("/health/live", healthHandler.LivenessCheck)
			r.Get("/version", healthHandler.Version)

			r.Mount("/dashboard", dashboardHandler.Routes())
			r.Mount("/dataset", datasetHandler.Routes())
		})
	})

	a.Router = r
	return nil
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

// Start starts background services and begins serving on ln. Serve errors
// other than a clean shutdown are sent on errCh.
func (a *Application) Start(ctx context.Context, ln net.Listener, errCh chan<- error) {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("address", ln.Addr().String()),
		slog.String("level", a.Config.Logging.Level))

	a.WebSocketHub.Start()

	go func() {
		if err := a.Server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			errCh <- err
		}
	}()

	// A missing or malformed dataset is reported but does not stop the server;
	// requests surface the error until the file is fixed.
	if err := a.DashboardService.Preload(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Dataset preload failed", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("url", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}

	a.WebSocketHub.Stop()

	if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
		a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	if err := a.logCloser.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close log file: %w", err))
	}

	return errors.Join(errs...)
}

// Run serves until ctx is cancelled, SIGINT or SIGTERM arrives, or the
// server fails, then shuts down.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", a.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", a.Server.Addr, err)
	}

	errCh := make(chan error, 1)
	a.Start(ctx, ln, errCh)

	var serveErr error
	select {
	case <-ctx.Done():
		a.Logger.Info("Received shutdown signal")
	case serveErr = <-errCh:
	}

	if err := a.Stop(context.Background()); err != nil {
		return errors.Join(serveErr, err)
	}
	return serveErr
}
