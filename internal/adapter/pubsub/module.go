package pubsub

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/tidechat/tidechat/internal/service"
	"go.uber.org/fx"
)

var Module = fx.Module("pubsub",
	fx.Provide(
		// One in-process broker backs both the publisher and subscriber
		// sides of the message-events stream.
		func(wmLogger watermill.LoggerAdapter) *gochannel.GoChannel {
			return gochannel.NewGoChannel(gochannel.Config{
				OutputChannelBuffer: 256,
			}, wmLogger)
		},
		func(ch *gochannel.GoChannel) message.Publisher { return ch },
		func(ch *gochannel.GoChannel) message.Subscriber { return ch },

		NewEventDispatcher,
		func(d EventDispatcher) service.EventPublisher { return d },
	),
)
