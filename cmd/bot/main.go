package main

import (
	"context"
	"log"

	"go.uber.org/fx"

	"ladder_bot/internal/engine"
	"ladder_bot/internal/modules/config"
	"ladder_bot/internal/modules/okx_client"
	"ladder_bot/internal/modules/storage"
	"ladder_bot/internal/modules/telegram"
	"ladder_bot/internal/modules/webserver"
	"ladder_bot/pkg/logger"
	"ladder_bot/pkg/tracing"
)

const serviceName = "ladder_bot"

func main() {
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}
	logger.SetServiceName(serviceName)
	tracing.SetServiceName(serviceName)

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
		),
		config.Module(),
		storage.Module(),
		okx_client.Module(),
		telegram.Module(),
		engine.Module(),
		webserver.Module(),

		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config) error {
			if cfg.Jaeger.Host == "" {
				return nil
			}
			_, closeTracer, err := tracing.InitTracer(tracing.Config{
				Host: cfg.Jaeger.Host,
				Port: cfg.Jaeger.Port,
			})
			if err != nil {
				return err
			}
			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					closeTracer()
					return nil
				},
			})
			return nil
		}),
	)
	app.Run()
}
