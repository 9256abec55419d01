package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"admitcli/internal/batch"
	"admitcli/internal/classify"
	"admitcli/internal/config"
	apperrors "admitcli/internal/errors"
	"admitcli/internal/infrastructure"
	"admitcli/internal/ledger"
	customMiddleware "admitcli/internal/middleware"
	"admitcli/internal/pipeline"
	handlers "admitcli/internal/transport/http"
	ws "admitcli/internal/websocket"
	"admitcli/internal/workbook"
	"admitcli/pkg/contracts"
)

// AppName names the server binary in logs and version output.
const AppName = "admitweb"

// sessionSweepInterval is how often expired review sessions are dropped.
const sessionSweepInterval = time.Minute

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.PassMetrics
	Ledger        *ledger.Ledger
	References    classify.References
	Runner        *pipeline.Runner
	WebSocketHub  *ws.Hub
	Sessions      *handlers.SessionStore
	ErrorHandler  *apperrors.ErrorHandler

	stopSweeper context.CancelFunc
}

// NewApplication loads configuration from path (or the usual locations when
// empty), initializes logging and builds the application.
func NewApplication(ctx context.Context, path string) (*Application, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return New(ctx, cfg, logger)
}

// New wires every component from cfg. The ledger is opened and the
// reference workbooks are read before New returns.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	a := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		ErrorHandler:  apperrors.NewErrorHandler(logger, false),
	}

	if err := a.initializeServices(ctx); err != nil {
		a.shutdownServices(ctx)
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	a.setupRouter()
	a.createServer()
	return a, nil
}

// initializeServices builds the metrics, ledger, references, runner, hub and
// session store in dependency order.
func (a *Application) initializeServices(ctx context.Context) error {
	metrics, err := infrastructure.CreatePassMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create pass metrics: %w", err)
	}
	a.Metrics = metrics

	wsMetrics, err := ws.NewMetrics(a.OTelProviders.Meter)
	if err != nil {
		return fmt.Errorf("failed to create websocket metrics: %w", err)
	}

	l, err := ledger.Open(ctx, ledger.Config{
		Driver: a.Config.Ledger.Driver,
		DSN:    a.Config.Ledger.DSN,
	}, a.Logger)
	if err != nil {
		return err
	}
	a.Ledger = l

	reader := workbook.NewReader(a.Logger)
	a.References = classify.LoadReferences(reader, a.Logger,
		a.Config.References.SchoolFile, a.Config.References.MajorFile)

	a.Runner = pipeline.NewRunner(pipeline.Deps{
		Reader:       reader,
		Classifier:   classify.New(a.References, nil),
		Orchestrator: batch.New(a.Config.Engine.ChunkSize, a.Config.Engine.Workers, a.Logger),
		Ledger:       l,
		Metrics:      metrics,
		Logger:       a.Logger,
	})

	hub := ws.NewHub(a.Logger, wsMetrics)
	hub.Start()
	a.WebSocketHub = hub

	a.Sessions = handlers.NewSessionStore(a.Config.Server.SessionTTL, metrics, a.Logger)
	sweepCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	a.stopSweeper = cancel
	go a.Sessions.Run(sweepCtx, sessionSweepInterval)

	return nil
}

// setupRouter configures the router and middleware. The websocket route sits
// outside the full middleware group so its hijacked connection is not wrapped
// by the logger or the rate limiter.
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.With(a.ErrorHandler.Middleware).Handle("/ws", ws.NewHandler(a.WebSocketHub, a.Config.WebSocket, a.Config.Security.AllowedOrigins, a.Logger))

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer
		r.Use(customMiddleware.OTelMiddleware(a.Metrics))
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.Recoverer(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)

		r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
			AllowedOrigins: a.Config.Security.AllowedOrigins,
			Logger:         a.Logger,
		}))

		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		a.setupAPIRoutes(r)
	})

	a.Router = r
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))

		healthHandler := handlers.NewHealthHandler(a.Ledger, a.References, contracts.Version, a.Logger)
		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)

		passHandler := handlers.NewPassHandler(a.Runner, a.WebSocketHub, a.Sessions,
			a.ErrorHandler, a.Config.Server.MaxUploadBytes, a.Logger)
		r.Mount("/passes", passHandler.Routes())

		sessionHandler := handlers.NewSessionHandler(a.Sessions, a.ErrorHandler, a.Logger)
		r.Mount("/sessions", sessionHandler.Routes())

		runsHandler := handlers.NewRunsHandler(a.Ledger, a.ErrorHandler, a.Logger)
		r.Mount("/runs", runsHandler.Routes())
	})
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Start starts serving in the background. A listener failure cancels ctx
// through cancel.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level),
		slog.Bool("schools_available", a.References.Schools.Available()),
		slog.Bool("major_combos_available", a.References.MajorCombos.Available()))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", a.Server.Addr))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.Config.Server.ShutdownTimeout)
	defer cancel()

	var serverErr error
	if a.Server != nil {
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			serverErr = fmt.Errorf("server shutdown error: %w", err)
		}
	}

	a.shutdownServices(shutdownCtx)

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return serverErr
}

// shutdownServices stops whatever initializeServices got as far as starting.
func (a *Application) shutdownServices(ctx context.Context) {
	if a.stopSweeper != nil {
		a.stopSweeper()
	}
	if a.WebSocketHub != nil {
		a.WebSocketHub.Stop()
	}
	if a.Ledger != nil {
		if err := a.Ledger.Close(); err != nil {
			a.Logger.ErrorContext(ctx, "Error closing run ledger", slog.String("error", err.Error()))
		}
	}
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(sigCtx, cancel); err != nil {
		return err
	}

	<-sigCtx.Done()
	a.Logger.InfoContext(ctx, "Received shutdown signal")

	return a.Stop(ctx)
}
