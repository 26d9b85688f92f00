package engine

import (
	"context"
	"time"

	"go.uber.org/fx"

	"ladder_bot/internal/modules/config"
	"ladder_bot/pkg/logger"
)

func asConfigProvider(s *config.StrategyStore) ConfigProvider { return s }

func Module() fx.Option {
	return fx.Module("engine",
		fx.Provide(
			New, // *Engine
			asConfigProvider,
		),
		fx.Invoke(func(lc fx.Lifecycle, appCtx context.Context, e *Engine, cfg *config.Config, store *config.StrategyStore) {
			loopCtx, cancel := context.WithCancel(appCtx)

			lc.Append(fx.Hook{
				OnStart: func(context.Context) error {
					// основной цикл стратегии; интервал перечитывается
					// каждую итерацию, чтобы подхватывать новый конфиг
					go func() {
						logger.Info("strategy loop started")
						for {
							interval := time.Duration(store.Snapshot().LoopTimeSeconds) * time.Second
							if interval <= 0 {
								interval = time.Second
							}
							select {
							case <-loopCtx.Done():
								logger.Info("strategy loop stopped")
								return
							case <-time.After(interval):
								e.Tick(loopCtx)
							}
						}
					}()

					// фоновая рассылка account_update
					go func() {
						t := time.NewTicker(time.Duration(cfg.AccountUpdateIntervalSeconds) * time.Second)
						defer t.Stop()
						for {
							select {
							case <-loopCtx.Done():
								return
							case <-t.C:
								e.RefreshAccount(loopCtx)
							}
						}
					}()
					return nil
				},
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})
		}),
	)
}
