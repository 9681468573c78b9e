package trader

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/opentracing/opentracing-go"

	"option_bot/internal/models"
	"option_bot/internal/modules/broker"
	"option_bot/internal/notify"
	"option_bot/internal/strategy"
	"option_bot/pkg/logger"
)

// ErrResultTimeout — площадка так и не отдала итог сделки за отведённое
// окно. Пессимистично трактуется как проигрыш.
var ErrResultTimeout = errors.New("trader: result polling timed out")

const (
	resultPollInterval = 10 * time.Millisecond
	interStepDelay     = 10 * time.Millisecond
)

// Broker — срез брокерского шлюза, нужный диспетчеру.
type Broker interface {
	PlaceOrder(ctx context.Context, asset string, direction models.Direction, amount float64, duration time.Duration) (string, error)
	CheckResult(ctx context.Context, orderID string) (models.Deal, error)
	ForgetDeal(orderID string)
}

// Journal — журнал закрытых трейдов. Может быть no-op, если БД не настроена.
type Journal interface {
	Append(ctx context.Context, rec models.TradeRecord) error
}

// Dispatcher исполняет одну мартингейл-серию по сигналу: выравнивание по
// часам на первом шаге, дальше шаги идут встык с минимальной паузой.
type Dispatcher struct {
	clock    *Clock
	broker   Broker
	strat    strategy.Progression
	journal  Journal
	notifier notify.Notifier

	// подменяются в тестах
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewDispatcher(clock *Clock, b Broker, strat strategy.Progression, journal Journal, n notify.Notifier) *Dispatcher {
	return &Dispatcher{
		clock:    clock,
		broker:   b,
		strat:    strat,
		journal:  journal,
		notifier: n,
		now:      time.Now,
		sleep:    sleepCtx,
	}
}

// SequenceResult — итог исполнения серии по одному сигналу.
type SequenceResult struct {
	Profit  float64 // суммарный чистый результат всех шагов серии
	Trades  int
	Final   models.Action
	Dropped bool // сигнал не исполнен вовсе (опоздали или рынок закрыт до первого шага)
}

// maxResultWait — окно ожидания итога сделки. Короткие опционы площадка
// закрывает с запасом в секунды, пятиминутки и длиннее — заметно дольше.
func maxResultWait(duration time.Duration) time.Duration {
	if duration < 5*time.Minute {
		w := duration + 20*time.Second
		if w > 80*time.Second {
			return 80 * time.Second
		}
		return w
	}
	w := duration + 30*time.Second
	if w > 330*time.Second {
		return 330 * time.Second
	}
	return w
}

// RunSequence ведёт серию шагов по активу сигнала, пока прогрессия не
// закроет её (win, выбитый цикл или полный проигрыш сетки).
func (d *Dispatcher) RunSequence(ctx context.Context, sig models.Signal) (SequenceResult, error) {
	span := opentracing.StartSpan("trade_sequence")
	span.SetTag("asset", sig.Asset)
	span.SetTag("channel", sig.Channel)
	defer span.Finish()

	var res SequenceResult

	// 1. Первый шаг — строго в секунду сигнала.
	if _, err := d.clock.WaitForExact(ctx, sig.TradeAt); err != nil {
		if errors.Is(err, ErrDeadlineMissed) {
			log.Printf("[TRADE] %s: пропуск сигнала %s — секунда входа уже прошла",
				sig.Asset, sig.TradeAt.Format("15:04:05"))
			res.Dropped = true
			return res, nil
		}
		return res, err
	}

	for step := 0; ; step++ {
		if step > 0 {
			// продолжение серии: без выравнивания, минимальная пауза
			if err := d.sleep(ctx, interStepDelay); err != nil {
				return res, err
			}
		}

		cycle, stepNo := d.strat.Cycle(sig.Asset), d.strat.Step(sig.Asset)
		amount := d.strat.Amount(sig.Asset)

		log.Printf("[TRADE] %s %s C%dS%d $%.2f dur=%s",
			sig.Asset, sig.Direction, cycle, stepNo, amount, sig.Duration)

		profit, placeErr := d.executeTrade(ctx, sig, amount)
		if placeErr != nil {
			if errors.Is(placeErr, broker.ErrMarketClosed) {
				// не выигрыш и не проигрыш: серия по активу обрывается
				logger.Error("trade: %s market closed, sequence aborted", sig.Asset)
				d.notifier.Sendf("⚠️ %s: рынок закрыт, серия прервана", sig.Asset)
				span.SetTag("aborted", "market_closed")
				if res.Trades == 0 {
					res.Dropped = true
				}
				return res, placeErr
			}
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			// отказ площадки или таймаут результата — пессимистичный проигрыш
			logger.Error("trade: %s treated as loss: %v", sig.Asset, placeErr)
			profit = -amount
		}

		won := profit > 0
		action := d.strat.RecordResult(won, sig.Asset, amount)

		res.Trades++
		res.Profit += profit
		res.Final = action

		d.record(ctx, sig, amount, profit, cycle, stepNo)

		switch action.Kind {
		case models.ActionContinue:
			continue
		case models.ActionAssetDone:
			d.notifier.Sendf("🔁 %s: цикл %d проигран, следующий актив начнёт с цикла %d",
				sig.Asset, cycle, action.NextCycle)
			return res, nil
		case models.ActionResetMaxLoss:
			d.notifier.Sendf("🛑 %s: сетка проиграна полностью, сброс на базовую ставку", sig.Asset)
			return res, nil
		default: // ActionReset
			return res, nil
		}
	}
}

// executeTrade размещает ордер и опрашивает итог. Возвращает чистый
// результат сделки (отрицательный при проигрыше).
func (d *Dispatcher) executeTrade(ctx context.Context, sig models.Signal, amount float64) (float64, error) {
	orderID, err := d.broker.PlaceOrder(ctx, sig.Asset, sig.Direction, amount, sig.Duration)
	if err != nil {
		return 0, err
	}

	deadline := d.now().Add(maxResultWait(sig.Duration))
	for {
		if d.now().After(deadline) {
			return 0, ErrResultTimeout
		}
		deal, err := d.broker.CheckResult(ctx, orderID)
		if err != nil {
			return 0, err
		}
		if deal.Completed {
			// итог получен, кеш сделок площадки больше не нужен
			d.broker.ForgetDeal(orderID)
			switch deal.Result {
			case models.ResultWin:
				return deal.Profit, nil
			case models.ResultDraw:
				// возврат ставки: нулевой результат, но для прогрессии
				// это не выигрыш
				return 0, nil
			default:
				return -amount, nil
			}
		}
		if err := d.sleep(ctx, resultPollInterval); err != nil {
			return 0, err
		}
	}
}

func (d *Dispatcher) record(ctx context.Context, sig models.Signal, amount, profit float64, cycle, step int) {
	now := d.now()
	rec := models.TradeRecord{
		Asset:      sig.Asset,
		Direction:  sig.Direction,
		Amount:     amount,
		Profit:     profit,
		Cycle:      cycle,
		Step:       step,
		ExecutedAt: now,
		CloseAt:    now.Add(sig.Duration),
		Duration:   sig.Duration,
		Channel:    sig.Channel,
	}
	switch {
	case profit > 0:
		rec.Result = models.ResultWin
	case profit == 0:
		rec.Result = models.ResultDraw
	default:
		rec.Result = models.ResultLoss
	}

	if err := d.journal.Append(ctx, rec); err != nil {
		logger.Error("tradelog: append failed: %v", err)
	}

	emoji := "✅"
	if rec.Result != models.ResultWin {
		emoji = "❌"
	}
	d.notifier.Sendf("%s %s %s C%dS%d $%.2f → %+.2f",
		emoji, sig.Asset, sig.Direction, cycle, step, amount, profit)
}
