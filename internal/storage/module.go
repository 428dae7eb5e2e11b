package storage

import (
	"context"
	"log/slog"

	"github.com/tidechat/tidechat/config"
	"github.com/tidechat/tidechat/internal/service"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("storage",
	fx.Provide(
		func(cfg *config.Config) (*gorm.DB, error) {
			return Open(cfg.Database.Path)
		},
		NewUserRepository,
		NewMessageRepository,
		fx.Annotate(
			func(r *UserRepository) service.UserStore { return r },
			fx.As(new(service.UserStore)),
		),
		fx.Annotate(
			func(r *MessageRepository) service.MessageStore { return r },
			fx.As(new(service.MessageStore)),
		),
		func(users service.UserStore, messages service.MessageStore, cfg *config.Config, logger *slog.Logger) *Janitor {
			return NewJanitor(users, messages, cfg.Database.SweepInterval, logger)
		},
	),
	fx.Invoke(func(lc fx.Lifecycle, j *Janitor) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				j.Start()
				return nil
			},
			OnStop: func(ctx context.Context) error {
				j.Stop()
				return nil
			},
		})
	}),
)
