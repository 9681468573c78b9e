package broker

import (
	"context"

	"go.uber.org/fx"
)

// Module поднимает соединение с площадкой на старте приложения.
func Module() fx.Option {
	return fx.Module("broker",
		fx.Provide(
			NewClient,
		),
		fx.Invoke(func(lc fx.Lifecycle, c *Client, ctx context.Context) {
			lc.Append(fx.Hook{
				OnStart: func(_ context.Context) error {
					return c.Connect(ctx)
				},
				OnStop: func(_ context.Context) error {
					c.Close()
					return nil
				},
			})
		}),
	)
}
