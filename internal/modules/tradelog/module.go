package tradelog

import (
	"context"

	"go.uber.org/fx"

	"option_bot/pkg/logger"
)

func Module() fx.Option {
	return fx.Module("tradelog",
		fx.Provide(
			NewStore,
		),
		fx.Invoke(func(lc fx.Lifecycle, s *Store) {
			lc.Append(fx.Hook{
				OnStart: func(ctx context.Context) error {
					return s.EnsureSchema(ctx)
				},
				OnStop: func(ctx context.Context) error {
					if !s.Enabled() {
						return nil
					}
					sum, err := s.Summary(ctx)
					if err != nil {
						return err
					}
					logger.Info("tradelog: за день побед=%d поражений=%d итог=%+.2f",
						sum.Wins, sum.Losses, sum.Net)
					return nil
				},
			})
		}),
	)
}
