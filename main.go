package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/csrf"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"downtimelog/auth"
	"downtimelog/config"
	"downtimelog/db"
	"downtimelog/handlers"
	"downtimelog/i18n"
	"downtimelog/logging"
	"downtimelog/store"
	"downtimelog/web"
)

func main() {
	if err := config.LoadConfig("config.json"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(config.AppConfig)

	if err := i18n.LoadTranslations("i18n"); err != nil {
		logger.Fatal().Err(err).Msg("failed to load translations")
	}

	conn, err := db.Open(config.AppConfig.DBPath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}
	defer conn.Close()

	web.InitStore()

	users := store.NewUserStore(conn)
	entries := store.NewDowntimeStore(conn)
	authSvc := auth.NewService(users)

	api := handlers.NewAPI(authSvc, entries, logger)
	pages := web.NewHandlers(authSvc, entries, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(handlers.RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(handlers.Metrics)

	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir("static"))))

	r.Route("/api", func(r chi.Router) {
		r.Use(handlers.CORS(config.AppConfig.AllowedOrigin))
		api.Routes(r)
	})

	// CSRF Protection on the server-rendered forms only; the JSON API
	// keeps its Content-Type-only CORS contract.
	csrfMiddleware := csrf.Protect(
		[]byte(config.AppConfig.SessionKey),
		csrf.Secure(config.AppConfig.ListenPort != 5001),
		csrf.Path("/"),
	)
	r.Group(func(r chi.Router) {
		r.Use(csrfMiddleware)
		pages.Routes(r)
	})

	addr := fmt.Sprintf("%s:%d", config.AppConfig.ListenIP, config.AppConfig.ListenPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", addr).Str("origin", config.AppConfig.AllowedOrigin).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	server.Shutdown(shutdownCtx)
}
