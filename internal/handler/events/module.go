package events

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.uber.org/fx"
)

var Module = fx.Module("events-handler",
	fx.Provide(
		NewWatermillRouter,
		NewDeliveryHandler,
	),

	fx.Invoke(func(h *DeliveryHandler, router *message.Router, sub message.Subscriber, pub message.Publisher) error {
		return h.RegisterHandlers(router, sub, pub)
	}),

	fx.Invoke(func(lc fx.Lifecycle, router *message.Router) {
		lc.Append(fx.Hook{
			OnStart: func(ctx context.Context) error {
				go func() {
					_ = router.Run(context.Background())
				}()
				// Block startup until the consumer is attached so no
				// mutation published at boot slips past the pipeline.
				select {
				case <-router.Running():
					return nil
				case <-ctx.Done():
					return ctx.Err()
				}
			},
			OnStop: func(ctx context.Context) error {
				return router.Close()
			},
		})
	}),
)
