package trader

import (
	"context"

	"go.uber.org/fx"

	"option_bot/internal/modules/broker"
	"option_bot/internal/modules/config"
	"option_bot/internal/modules/signals"
	"option_bot/internal/modules/tradelog"
	"option_bot/internal/strategy"
)

func Module() fx.Option {
	return fx.Module("trader",
		fx.Provide(
			NewClock,
			func(cfg *config.Config) (strategy.Progression, error) {
				return strategy.New(cfg.Trading.Strategy, cfg.Trading.BaseAmount, cfg.Trading.Multiplier)
			},
			func(c *broker.Client) Broker { return c },
			func(c *broker.Client) BalanceSource { return c },
			func(s *tradelog.Store) Journal { return s },
			func(s *signals.FileSource) SignalSource { return s },
			NewDispatcher,
			func(d *Dispatcher) SequenceRunner { return d },
			NewSession,
		),
		fx.Invoke(func(lc fx.Lifecycle, s *Session, ctx context.Context) {
			runCtx, cancel := context.WithCancel(ctx)
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					go func() {
						_ = s.Run(runCtx)
					}()
					return nil
				},
				OnStop: func(_ context.Context) error {
					// гасим секундный цикл; Run сам дождётся живых серий
					cancel()
					return nil
				},
			})
		}),
	)
}
