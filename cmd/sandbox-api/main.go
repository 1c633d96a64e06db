// sandbox-api is an in-memory stand-in for the school health backend. It
// serves the medication request and inventory endpoints under /api so the
// nurse console can be run locally.
//
//	go run ./cmd/sandbox-api --config=config/local.yaml
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aanand-mishra/school-health/internal/clock"
	"github.com/aanand-mishra/school-health/internal/config"
	"github.com/aanand-mishra/school-health/internal/http/handlers/medication"
	"github.com/aanand-mishra/school-health/internal/logger"
	"github.com/aanand-mishra/school-health/internal/sandbox"
	"github.com/aanand-mishra/school-health/internal/types"
)

func main() {
	configPath := flag.String("config", "", "Path to the configuration YAML file")
	flag.Parse()
	cfg := config.MustLoad(*configPath)

	log := logger.New(cfg.Env, os.Stdout)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, newServer(cfg, clock.New())); err != nil {
		log.Error("sandbox-api stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// newServer builds the backend (seeded unless the config says otherwise)
// and the HTTP server in front of it.
func newServer(cfg *config.Config, clk clock.Clock) *http.Server {
	backend := sandbox.New(clk)
	if !cfg.Sandbox.SkipSeed {
		sandbox.Seed(backend)
		slog.Info("sample data loaded",
			slog.Int("pending", len(backend.Pending())),
			slog.Int("inventory", len(backend.Inventory())))
	}

	return &http.Server{
		Addr:    cfg.Sandbox.Addr,
		Handler: medication.Routes("/api", cfg.Sandbox.Token, backend, types.NewValidator(clk.Now)),

		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

// serve runs srv until ctx is cancelled, then gives in-flight requests
// five seconds to finish.
func serve(ctx context.Context, srv *http.Server) error {
	errc := make(chan error, 1)
	go func() {
		slog.Info("server started", slog.String("address", srv.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	slog.Info("server stopped")
	return nil
}
