// main is the entry point of the student portal: the server-rendered UI
// for registering, listing, editing and deleting students through the
// remote backend.
//
// STARTUP SEQUENCE:
//  1. Load configuration
//  2. Initialise the logger
//  3. Build the backend client and the portal state (cache + store)
//  4. Parse the page templates and register the routes
//  5. Serve until an OS signal arrives, then shut down gracefully
//
// RUNNING THE PORTAL (with the backend already up):
//
//	go run ./cmd/student-portal --config=config/local.yaml
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aanand-mishra/student-portal/internal/config"
	"github.com/aanand-mishra/student-portal/internal/http/handlers/web"
	"github.com/aanand-mishra/student-portal/internal/logger"
	"github.com/aanand-mishra/student-portal/internal/portal"
	"github.com/aanand-mishra/student-portal/internal/studentapi"
)

func main() {
	cfg := config.MustLoad()
	log := logger.New(cfg.Env)

	log.Info("starting student-portal",
		slog.String("env", cfg.Env),
		slog.String("api", cfg.Portal.APIBaseURL))

	var opts []studentapi.Option
	if cfg.Portal.RequestTimeout > 0 {
		opts = append(opts, studentapi.WithTimeout(cfg.Portal.RequestTimeout))
	}
	api, err := studentapi.New(cfg.Portal.APIBaseURL, opts...)
	if err != nil {
		log.Error("invalid backend address", slog.String("error", err.Error()))
		os.Exit(1)
	}

	app := portal.New(portal.Config{
		API:          api,
		Log:          log,
		SuccessDelay: cfg.Portal.SuccessDelay,
	})

	views, err := web.NewViews()
	if err != nil {
		log.Error("failed to parse templates", slog.String("error", err.Error()))
		os.Exit(1)
	}

	router := http.NewServeMux()
	web.Register(router, app, views)

	server := &http.Server{
		Addr:         cfg.HTTPServer.Addr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server started", slog.String("address", cfg.HTTPServer.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server encountered an error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Info("shutdown signal received, stopping server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("failed to shutdown server gracefully", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("server stopped gracefully")
}
