package main

import (
	"context"
	"log"
	"trade_dash/internal/live"
	"trade_dash/internal/modules/backend"
	"trade_dash/internal/modules/config"
	"trade_dash/internal/modules/health"
	"trade_dash/internal/modules/postgres"
	"trade_dash/internal/modules/push"
	"trade_dash/internal/notify"
	"trade_dash/pkg/logger"
	"trade_dash/pkg/tracing"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
)

func main() {
	_ = godotenv.Load()

	logger.SetServiceName("trade_dash")
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
			func(cfg *config.Config) notify.Notifier {
				if cfg.Telegram.Token == "" {
					return notify.NewLog()
				}
				n, err := notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
				if err != nil {
					logger.Warn("telegram notifier unavailable: %v", err)
					return notify.NewLog()
				}
				return n
			},
		),
		config.Module(),
		postgres.Module(),
		backend.Module(),
		push.Module(),
		health.Module(),
		live.Module(),
		fx.Invoke(func(lc fx.Lifecycle, cfg *config.Config) {
			if cfg.Tracing.Host == "" {
				return
			}
			_, closeTracer, err := tracing.InitTracer(tracing.Config{
				Service: "trade_dash",
				Host:    cfg.Tracing.Host,
				Port:    cfg.Tracing.Port,
			})
			if err != nil {
				logger.Warn("tracer init: %v", err)
				return
			}
			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					closeTracer()
					return nil
				},
			})
		}),
	)
	app.Run()
}
