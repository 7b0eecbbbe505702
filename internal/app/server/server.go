package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"leavehub/internal/domain/application"
	"leavehub/internal/domain/balance"
	"leavehub/internal/domain/catalog"
	"leavehub/internal/domain/reports"
	"leavehub/internal/domain/roles"
	"leavehub/internal/notify"
	"leavehub/internal/platform/config"
	"leavehub/internal/platform/db"
	"leavehub/internal/platform/metrics"
	"leavehub/internal/platform/querycache"
	"leavehub/internal/requestctx"
	"leavehub/internal/transport/http/api"
	corehandler "leavehub/internal/transport/http/handlers/core"
	leavehandler "leavehub/internal/transport/http/handlers/leave"
	reportshandler "leavehub/internal/transport/http/handlers/reports"
	roleshandler "leavehub/internal/transport/http/handlers/roles"
	"leavehub/internal/transport/http/handlers/slackhook"
	"leavehub/internal/transport/http/middleware"
	"leavehub/internal/transport/ws"
)

const webhookRateLimit = 60

func Run() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("dotenv load failed", "err", err)
	}

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		slog.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if cfg.RunMigrations {
		if err := db.Migrate(ctx, pool, cfg.MigrationsDir); err != nil {
			slog.Error("migrations failed", "err", err)
			os.Exit(1)
		}
	}

	cache := querycache.New()
	catalogSvc := catalog.NewService(catalog.NewStore(pool), cache)
	balanceSvc := balance.NewService(balance.NewStore(pool), catalogSvc, cache)
	roleSvc := roles.NewService(roles.NewStore(pool), cache)
	applicationSvc := application.NewService(application.NewStore(pool), balanceSvc, roleSvc)
	reportSvc := reports.NewService(catalogSvc, balanceSvc, roleSvc)

	var relay notify.Relay = notify.NoopRelay{}
	if cfg.SlackWebhookURL != "" {
		relay = notify.NewSlackRelay(cfg.SlackWebhookURL)
	}

	hub := ws.NewHub()
	bridge := notify.NewBridge(catalogSvc, hub, relay, cfg.ToastDuration)
	hub.Bind(bridge)

	feed, err := notify.ListenFeed(ctx, pool)
	if err != nil {
		slog.Error("change feed listen failed", "err", err)
		os.Exit(1)
	}
	go bridge.Run(ctx, feed)

	collector := metrics.New()

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Metrics(collector))
	router.Use(middleware.Recoverer)
	router.Use(middleware.SecureHeaders(cfg.Environment == "production"))
	router.Use(middleware.BodyLimit(1 << 20))
	router.Use(middleware.Auth(cfg.JWTSecret))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := pool.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	slackhook.NewHandler().RegisterRoutes(router.With(middleware.RateLimit(webhookRateLimit, time.Minute)))

	router.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RequireUser)

		corehandler.NewHandler(roleSvc).RegisterRoutes(r)
		leavehandler.NewHandler(catalogSvc, balanceSvc, applicationSvc, roleSvc).RegisterRoutes(r)
		roleshandler.NewHandler(roleSvc).RegisterRoutes(r)
		reportshandler.NewHandler(reportSvc).RegisterRoutes(r)

		r.Get("/ws", hub.ServeWS)

		r.With(middleware.RequireAdmin(roleSvc)).Get("/metricz", func(w http.ResponseWriter, r *http.Request) {
			api.Success(w, collector.Snapshot(), requestctx.GetRequestID(r.Context()))
		})
	})

	router.Mount("/", spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", cfg.Addr, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("server shutdown failed", "err", err)
	}
	if err := feed.Close(); err != nil {
		slog.Warn("change feed close failed", "err", err)
	}
}

type spaHandler struct {
	staticPath string
	indexPath  string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.staticPath, r.URL.Path)
	_, err := os.Stat(path)
	if err == nil {
		http.FileServer(http.Dir(h.staticPath)).ServeHTTP(w, r)
		return
	}

	if os.IsNotExist(err) {
		http.ServeFile(w, r, filepath.Join(h.staticPath, h.indexPath))
		return
	}

	http.NotFound(w, r)
}
