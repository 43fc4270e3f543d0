package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"chartdesk/internal/config"
	"chartdesk/internal/infrastructure"
	custommw "chartdesk/internal/middleware"
	"chartdesk/internal/session"
	"chartdesk/internal/store"
	transporthttp "chartdesk/internal/transport/http"
	"chartdesk/internal/websocket"
)

// Application wires the registry, session manager, websocket hub, and HTTP
// transport into one runnable server.
type Application struct {
	Config    *config.Config
	Logger    *slog.Logger
	Telemetry *infrastructure.Telemetry

	Registry *store.Registry
	Manager  *session.Manager
	Hub      *websocket.Hub

	Router chi.Router
	server *http.Server
}

// NewApplication loads configuration and builds every component.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("initialize logger: %w", err)
	}

	telemetry, err := infrastructure.InitializeTelemetry(context.Background(), logger)
	if err != nil {
		return nil, fmt.Errorf("initialize telemetry: %w", err)
	}

	app := &Application{
		Config:    cfg,
		Logger:    logger,
		Telemetry: telemetry,
		Registry:  store.NewRegistry(logger),
		Hub:       websocket.NewHub(logger),
	}

	app.Manager = session.NewManager(app.Registry, logger)
	app.Manager.ConfigureWindow(cfg.Engine.WindowLookback, cfg.Engine.WindowLookahead)

	if err := app.Registry.LoadDir(context.Background(), cfg.Paths.DataDir); err != nil {
		return nil, fmt.Errorf("load data dir: %w", err)
	}

	app.setupRouter()
	app.server = &http.Server{
		Addr:           cfg.ListenAddr(),
		Handler:        app.Router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}

	return app, nil
}

func (a *Application) setupRouter() {
	r := chi.NewRouter()

	r.Use(custommw.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(custommw.StructuredLogger(a.Logger))
	r.Use(custommw.Recoverer(a.Logger))
	r.Use(chimiddleware.Timeout(60 * time.Second))
	if a.Config.Security.EnableCORS {
		r.Use(custommw.CORS(a.Config.Security.AllowedOrigins))
	}
	if a.Config.Security.RateLimit.Enabled {
		rl := custommw.NewRateLimiter(a.Config.Security.RateLimit.RPS, a.Config.Security.RateLimit.Burst, a.Logger)
		r.Use(rl.Handler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Mount("/input-files", transporthttp.NewFilesHandler(
			a.Registry, a.Hub, a.Telemetry.Metrics, a.Config.Server.MaxUploadBytes, a.Logger).Routes())
		r.Mount("/plot-series", transporthttp.NewPlotHandler(
			a.Registry, a.Manager, a.Telemetry.Metrics, a.Logger).Routes())
		r.Mount("/session", transporthttp.NewSessionHandler(
			a.Manager, a.Hub, a.Telemetry.Metrics, a.Logger).Routes())
	})

	r.Mount("/healthz", transporthttp.NewHealthHandler(a.Registry, a.Logger).Routes())
	r.Get("/ws", websocket.ServeWS(a.Hub, websocket.Options{
		ReadBufferSize:  a.Config.WebSocket.ReadBufferSize,
		WriteBufferSize: a.Config.WebSocket.WriteBufferSize,
		PingPeriod:      a.Config.WebSocket.PingPeriod,
		PongWait:        a.Config.WebSocket.PongWait,
	}, a.Logger))
	r.Handle("/metrics", a.Telemetry.PrometheusHTTP)

	a.Router = r
}

// Run starts every component and blocks until an interrupt or a fatal
// serve error. Shutdown is graceful within the configured timeout.
func (a *Application) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.Hub.Start()
	defer a.Hub.Stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.Info("server listening", slog.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		// Save-queue worker; exits with the group context.
		if err := a.Manager.Run(gctx); err != nil && err != context.Canceled {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.Logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
		defer cancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		if err := a.Telemetry.Shutdown(shutdownCtx); err != nil {
			a.Logger.Warn("telemetry shutdown failed", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
