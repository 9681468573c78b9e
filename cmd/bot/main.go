package main

import (
	"context"
	"log"
	"os"

	"go.uber.org/fx"

	"option_bot/internal/modules/broker"
	"option_bot/internal/modules/config"
	"option_bot/internal/modules/health"
	"option_bot/internal/modules/postgres"
	"option_bot/internal/modules/signals"
	"option_bot/internal/modules/tradelog"
	"option_bot/internal/notify"
	"option_bot/internal/trader"
	"option_bot/pkg/logger"
	"option_bot/pkg/tracing"
)

const serviceName = "option_bot"

func main() {
	if err := logger.Init(); err != nil {
		log.Fatal(err)
	}
	logger.SetServiceName(serviceName)
	tracing.SetServiceName(serviceName)

	// трейсинг опционален: без агента глобальный трейсер остаётся no-op
	if host := os.Getenv("JAEGER_HOST"); host != "" {
		_, closeTracer, err := tracing.InitTracer(tracing.Config{Host: host, Port: 6831})
		if err != nil {
			log.Fatal(err)
		}
		defer closeTracer()
	}

	app := fx.New(
		fx.Provide(
			func() context.Context {
				return context.Background()
			},
			newNotifier,
		),
		config.Module(),
		postgres.Module(),
		tradelog.Module(),
		broker.Module(),
		signals.Module(),
		trader.Module(),
		health.Module(),
	)
	if err := app.Start(context.Background()); err != nil {
		log.Fatal(err)
	}
	<-app.Done()
	_ = app.Stop(context.Background())
}

// newNotifier: телеграм при наличии токена, иначе stdout.
func newNotifier(cfg *config.Config) (notify.Notifier, error) {
	if cfg.Telegram.Token == "" {
		return notify.NewStdout(), nil
	}
	return notify.NewTelegram(cfg.Telegram.Token, cfg.Telegram.ChatID)
}
