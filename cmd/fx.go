package cmd

import (
	"log/slog"

	"github.com/tidechat/tidechat/config"
	"github.com/tidechat/tidechat/internal/adapter/pubsub"
	"github.com/tidechat/tidechat/internal/domain/registry"
	"github.com/tidechat/tidechat/internal/handler/events"
	"github.com/tidechat/tidechat/internal/service"
	"github.com/tidechat/tidechat/internal/storage"
	"go.uber.org/fx"
)

func NewApp(cfg *config.Config) *fx.App {
	return fx.New(
		fx.Provide(
			func() *config.Config { return cfg },
			ProvideLogger,
			ProvideWatermillLogger,
			ProvideTokenConfig,
			ProvideBlobStore,
			ProvideHTTPRouter,
			ProvideHTTPServer,
		),
		registry.Module,
		storage.Module,
		pubsub.Module,
		service.Module,
		events.Module,

		// [DECORATION_LAYER] App-wide so the events handler sees the
		// instrumented Router, not just providers inside the service module.
		fx.Decorate(func(orig service.Router, logger *slog.Logger) service.Router {
			return service.NewRouterMiddleware(orig, logger)
		}),

		fx.Invoke(RunHTTPServer),
	)
}
