package webserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/fx"

	"ladder_bot/internal/engine"
	"ladder_bot/internal/modules/config"
	"ladder_bot/internal/modules/webserver/service"
	"ladder_bot/pkg/logger"
)

func asCommands(e *engine.Engine) service.Commands         { return e }
func asStatusSource(e *engine.Engine) service.StatusSource { return e }
func asEmitter(h *service.Hub) engine.Emitter              { return h }

func RunHTTP(lc fx.Lifecycle, cfg *config.Config, mux *http.ServeMux) {
	addr := fmt.Sprintf("%s:%d", cfg.Service.Host, cfg.Service.PublicPort)
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			logger.Info("web: listening on %s", addr)
			go func() { _ = srv.Serve(ln) }()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
}

func Module() fx.Option {
	return fx.Module("webserver",
		fx.Provide(
			asStatusSource,
			service.NewHub,
			asEmitter,
			service.NewMux,
		),
		fx.Invoke(func(h *service.Hub, e *engine.Engine) {
			h.SetCommands(asCommands(e))
		}),
		fx.Invoke(RunHTTP),
	)
}
