package tradelog

import (
	"context"
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/jackc/pgx/v5"

	"option_bot/internal/models"
	"option_bot/pkg/db"
)

const createTradesSQL = `
CREATE TABLE IF NOT EXISTS trades (
    id          BIGSERIAL PRIMARY KEY,
    asset       TEXT        NOT NULL,
    direction   TEXT        NOT NULL,
    amount      DOUBLE PRECISION NOT NULL,
    result      TEXT        NOT NULL,
    profit      DOUBLE PRECISION NOT NULL,
    cycle       INT         NOT NULL,
    step        INT         NOT NULL,
    executed_at TIMESTAMPTZ NOT NULL,
    close_at    TIMESTAMPTZ NOT NULL,
    duration_s  INT         NOT NULL,
    channel     TEXT        NOT NULL,
    details     JSONB
)`

const insertTradeSQL = `
INSERT INTO trades (asset, direction, amount, result, profit, cycle, step, executed_at, close_at, duration_s, channel, details)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

const summarySQL = `
SELECT
    COUNT(*) FILTER (WHERE result = 'win')  AS wins,
    COUNT(*) FILTER (WHERE result = 'loss') AS losses,
    COALESCE(SUM(profit), 0)                AS net
FROM trades
WHERE executed_at >= date_trunc('day', now())`

// Store — журнал закрытых трейдов. Без настроенной БД txm == nil и все
// операции тихо превращаются в no-op: бот обязан работать и без журнала.
type Store struct {
	txm *db.PgTxManager
}

func NewStore(txm *db.PgTxManager) *Store {
	return &Store{txm: txm}
}

func (s *Store) Enabled() bool { return s != nil && s.txm != nil }

func (s *Store) EnsureSchema(ctx context.Context) (err error) {
	if !s.Enabled() {
		return nil
	}
	defer func() {
		if err != nil {
			err = fmt.Errorf("Store.EnsureSchema: %w", err)
		}
	}()
	_, err = s.txm.Conn().Exec(ctx, createTradesSQL)
	return
}

func (s *Store) Append(ctx context.Context, rec models.TradeRecord) (err error) {
	if !s.Enabled() {
		return nil
	}
	defer func() {
		if err != nil {
			err = fmt.Errorf("Store.Append: %w", err)
		}
	}()

	details, err := sonic.Marshal(map[string]any{
		"cycle":   rec.Cycle,
		"step":    rec.Step,
		"channel": rec.Channel,
	})
	if err != nil {
		return err
	}

	return s.txm.RunMaster(ctx, func(ctxTx context.Context, tx pgx.Tx) error {
		_, err := tx.Exec(ctxTx, insertTradeSQL,
			rec.Asset, string(rec.Direction), rec.Amount, string(rec.Result),
			rec.Profit, rec.Cycle, rec.Step, rec.ExecutedAt, rec.CloseAt,
			int(rec.Duration.Seconds()), rec.Channel, details,
		)
		return err
	})
}

// Summary — сводка за сегодня для финального сообщения сессии.
type Summary struct {
	Wins   int64
	Losses int64
	Net    float64
}

func (s *Store) Summary(ctx context.Context) (sum Summary, err error) {
	if !s.Enabled() {
		return Summary{}, nil
	}
	defer func() {
		if err != nil {
			err = fmt.Errorf("Store.Summary: %w", err)
		}
	}()

	row := s.txm.Conn().QueryRow(ctx, summarySQL)
	err = row.Scan(&sum.Wins, &sum.Losses, &sum.Net)
	return
}
