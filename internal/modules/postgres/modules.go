package postgres

import (
	"context"
	"fmt"

	"go.uber.org/fx"

	"option_bot/internal/modules/config"
	"option_bot/pkg/db"
	"option_bot/pkg/logger"
)

// Module отдаёт *db.PgTxManager. Журнал — опциональная часть: без DSN
// провайдер возвращает nil, и стор работает как no-op.
func Module() fx.Option {
	return fx.Module("postgres",
		fx.Provide(
			func(ctx context.Context, cfg *config.Config) (*db.PgTxManager, error) {
				if cfg.DB == "" {
					logger.Info("postgres: DSN не задан, журнал трейдов отключён")
					return nil, nil
				}

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
		),
	)
}
