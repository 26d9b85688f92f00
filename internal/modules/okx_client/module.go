package okx_client

import (
	"context"

	"go.uber.org/fx"

	"ladder_bot/internal/engine"
	"ladder_bot/internal/modules/okx_client/service"
	"ladder_bot/pkg/logger"
)

func asGateway(c *service.Client) engine.Gateway { return c }

func Module() fx.Option {
	return fx.Module("okx_client",
		fx.Provide(
			service.New, // *service.Client
			asGateway,
		),
		fx.Invoke(func(lc fx.Lifecycle, c *service.Client) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					// без synced подписи OKX режет запросы по 50102 (timestamp expired)
					if err := c.SyncServerTime(ctx); err != nil {
						return err
					}
					logger.Info("okx: server time synced")
					return nil
				},
			})
		}),
	)
}
