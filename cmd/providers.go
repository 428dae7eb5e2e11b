package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/go-chi/chi/v5"
	"github.com/tidechat/tidechat/config"
	"github.com/tidechat/tidechat/internal/adapter/blob"
	"github.com/tidechat/tidechat/internal/domain/registry"
	"github.com/tidechat/tidechat/internal/handler/rest"
	"github.com/tidechat/tidechat/internal/handler/ws"
	"github.com/tidechat/tidechat/internal/service"
	"go.uber.org/fx"
)

func ProvideLogger(cfg *config.Config) *slog.Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel(),
	})
	logger := slog.New(handler).With("service", ServiceName)
	slog.SetDefault(logger)
	return logger
}

func ProvideWatermillLogger(logger *slog.Logger) watermill.LoggerAdapter {
	return watermill.NewSlogLogger(logger)
}

func ProvideTokenConfig(cfg *config.Config) service.TokenConfig {
	return service.TokenConfig{
		Secret:   cfg.Auth.JWTSecret,
		Lifetime: cfg.Auth.TokenLifetime,
		Issuer:   ServiceName,
	}
}

func ProvideBlobStore(cfg *config.Config, logger *slog.Logger) blob.Uploader {
	return blob.NewStore(blob.Config{
		Endpoint: cfg.Blob.Endpoint,
		Timeout:  cfg.Blob.Timeout,
	}, logger)
}

func ProvideHTTPRouter(
	logger *slog.Logger,
	deliverer service.Deliverer,
	auther service.Auther,
	messenger service.Messenger,
	tokens *service.TokenManager,
	hub registry.Hubber,
) *chi.Mux {
	authHandler := rest.NewAuthHandler(auther, tokens, logger)
	messageHandler := rest.NewMessageHandler(messenger, logger)
	authMW := rest.NewAuthMiddleware(auther)
	wsHandler := ws.NewWSHandler(logger, deliverer)

	return rest.NewRouter(authHandler, messageHandler, authMW, wsHandler, hub)
}

func ProvideHTTPServer(cfg *config.Config, mux *chi.Mux) *http.Server {
	return &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func RunHTTPServer(lc fx.Lifecycle, srv *http.Server, logger *slog.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				logger.Info("http server starting", "addr", srv.Addr)
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("http server failed", "err", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}
