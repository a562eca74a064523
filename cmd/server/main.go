package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/pdy7080/kpop-ranker-sub000/internal/app"
	"github.com/pdy7080/kpop-ranker-sub000/internal/config"
	"github.com/pdy7080/kpop-ranker-sub000/internal/handlers"
	"github.com/pdy7080/kpop-ranker-sub000/internal/suggest"
)

func main() {
	// Load .env file for local development
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	gin.SetMode(cfg.GinMode)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		slog.Error("Failed to initialize services", "error", err)
		os.Exit(1)
	}
	defer a.Close(context.Background())

	a.Aliases.Start(ctx, cfg.AliasesPoll)

	// Warm the trending store before accepting traffic; the live feed is
	// reconciled in the background.
	initial := a.Trending.Load(ctx)
	slog.Info("Trending feed ready", "tracks", len(initial), "state", a.Trending.State())
	a.Trending.Start(ctx)

	checks := map[string]handlers.HealthChecker{"cache": a.Cache}
	if a.Database != nil {
		checks["mongodb"] = a.Database
	}

	router := handlers.NewRouter(handlers.Handlers{
		Search:   handlers.NewSearchHandler(a.Suggest, a.Route, suggest.NewGate(0)),
		Trending: handlers.NewTrendingHandler(a.Trending),
		Admin:    handlers.NewAdminHandler(a.Dedup, a.Decisions),
		Health:   handlers.NewHealthHandler(checks),
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		// request contexts end with ctx so streaming clients are released on shutdown
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		slog.Info("Starting server", "port", cfg.Port, "backend", cfg.BackendURL)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	slog.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown failed", "error", err)
	}
	a.Trending.Wait()
	slog.Info("Server stopped")
}
