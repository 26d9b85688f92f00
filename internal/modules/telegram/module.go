package telegram

import (
	"go.uber.org/fx"

	"ladder_bot/internal/engine"
	"ladder_bot/internal/modules/telegram/service"
)

func Module() fx.Option {
	return fx.Module("telegram",
		fx.Provide(
			service.NewTelegram, // *service.Telegram

			// адаптер: *service.Telegram -> engine.Notifier
			func(t *service.Telegram) engine.Notifier {
				return t
			},
		),
	)
}
