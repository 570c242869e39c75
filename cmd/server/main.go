package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	webAdapter "backoffice/internal/adapters/web"
	"backoffice/internal/app"
	"backoffice/internal/config"
	"backoffice/internal/logger"

	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("invalid configuration")
	}
	logger.Configure(cfg.Log.Level, cfg.Log.Format)
	if err := cfg.RequireServer(); err != nil {
		logger.Log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := app.Open(ctx, cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("startup failed")
	}
	defer rt.Close()

	handler := webAdapter.NewHandler(rt.Service, webAdapter.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		JWTSecret:        cfg.Auth.JWTSecret,
		TokenTTL:         cfg.Auth.TokenTTL,
		RequestBodyLimit: cfg.Server.RequestBodyLimit,
		SecureCookies:    cfg.Auth.SecureCookies,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Log.Error().Err(err).Msg("server stopped with error")
		return
	}
	logger.Log.Info().Msg("server exited")
}
