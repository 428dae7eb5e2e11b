package service

import (
	"go.uber.org/fx"
)

var Module = fx.Module(
	"service",

	fx.Provide(
		NewPasswordHasher,
		NewTokenManager,

		// Domain services
		fx.Annotate(
			NewDeliveryService,
			fx.As(new(Deliverer)),
		),
		fx.Annotate(
			NewMessageRouter,
			fx.As(new(Router)),
		),
		fx.Annotate(
			NewMessageService,
			fx.As(new(Messenger)),
		),
		fx.Annotate(
			NewAuthService,
			fx.As(new(Auther)),
		),
	),
)
