package storage

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"ladder_bot/internal/engine"
	"ladder_bot/internal/modules/config"
	"ladder_bot/internal/modules/storage/service"
	"ladder_bot/pkg/db"
)

func asJournal(t *service.Trades) engine.Journal { return t }

func Module() fx.Option {
	return fx.Module("storage",
		fx.Provide(
			func(ctx context.Context, cfg *config.Config) (*db.PgTxManager, error) {
				poolMaster, err := db.NewPool(ctx, db.PoolConfig{
					DSN: cfg.DB,
				})
				if err != nil {
					return nil, fmt.Errorf("failed to create poolMaster: %w", err)
				}

				err = poolMaster.Ping(ctx)
				if err != nil {
					return nil, err
				}

				return db.NewPgTxManager(poolMaster), nil
			},
			service.NewTrades,
			asJournal,
		),
		fx.Invoke(func(lc fx.Lifecycle, t *service.Trades) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					return t.EnsureSchema(ctx)
				},
			})
		}),
	)
}
