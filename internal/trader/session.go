package trader

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"option_bot/internal/models"
	"option_bot/internal/modules/config"
	"option_bot/internal/notify"
	"option_bot/internal/strategy"
	"option_bot/pkg/logger"
)

// Состояния сессии для health-эндпоинта.
const (
	StateIdle      = "idle"
	StateScanning  = "scanning"
	StateExecuting = "executing"
	StateHalted    = "halted"
)

const sessionTick = time.Second

// SignalSource отдаёт актуальные сигналы канала. Реализация сама следит за
// сменой даты и свежестью.
type SignalSource interface {
	Load(ctx context.Context) ([]models.Signal, error)
}

// SequenceRunner исполняет серию по сигналу. Реализуется диспетчером.
type SequenceRunner interface {
	RunSequence(ctx context.Context, sig models.Signal) (SequenceResult, error)
}

// BalanceSource — текущий баланс площадки, для стартового баннера.
type BalanceSource interface {
	Balance(ctx context.Context) float64
}

// Session — главный цикл: раз в секунду сверяет сигналы с часами и
// раздаёт готовые диспетчеру, по одной серии на актив.
type Session struct {
	cfg      *config.Config
	src      SignalSource
	disp     SequenceRunner
	strat    strategy.Progression
	notifier notify.Notifier
	bal      BalanceSource

	mu           sync.Mutex
	profit       float64
	state        string
	lastScan     time.Time
	halted       bool
	inFlight     map[string]struct{}
	processed    map[string]struct{}
	processedDay string

	wg   sync.WaitGroup
	now  func() time.Time
	tick time.Duration
}

func NewSession(cfg *config.Config, src SignalSource, disp SequenceRunner, strat strategy.Progression, n notify.Notifier, bal BalanceSource) *Session {
	return &Session{
		cfg:       cfg,
		src:       src,
		disp:      disp,
		strat:     strat,
		notifier:  n,
		bal:       bal,
		state:     StateIdle,
		inFlight:  make(map[string]struct{}),
		processed: make(map[string]struct{}),
		now:       time.Now,
		tick:      sessionTick,
	}
}

// Run крутит секундный цикл до останова по риск-лимиту или отмены ctx.
// При остановке по лимиту даёт незавершённым сериям дойти до конца.
func (s *Session) Run(ctx context.Context) error {
	sl, tp, bal := "выкл", "выкл", "н/д"
	if s.cfg.Trading.StopLoss > 0 {
		sl = fmt.Sprintf("-$%.2f", s.cfg.Trading.StopLoss)
	}
	if s.cfg.Trading.TakeProfit > 0 {
		tp = fmt.Sprintf("+$%.2f", s.cfg.Trading.TakeProfit)
	}
	if s.bal != nil {
		bal = fmt.Sprintf("$%.2f", s.bal.Balance(ctx))
	}
	s.notifier.Sendf(
		"🚀 Сессия запущена\n• Стратегия: %s\n• Канал: %s\n• Баланс: %s\n• SL: %s / TP: %s",
		s.strat.Describe(), s.cfg.Trading.Channel, bal, sl, tp,
	)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			return ctx.Err()
		case <-ticker.C:
			if s.step(ctx) {
				// лимит достигнут: ждём хвосты и шлём итог
				s.wg.Wait()
				s.notifier.Sendf("🏁 Сессия остановлена, итог: %+.2f", s.Profit())
				return nil
			}
		}
	}
}

// step — одна итерация цикла. true = сессия остановлена по лимиту.
func (s *Session) step(ctx context.Context) bool {
	now := s.now()

	// 1. Сначала лимиты: стоп терминален, новые серии не стартуют.
	if s.checkHalt() {
		return true
	}

	s.setState(StateScanning)

	// 2. Перечитываем сигналы каждый тик — файл канала дописывается на лету.
	signals, err := s.src.Load(ctx)
	s.mu.Lock()
	s.lastScan = now
	s.mu.Unlock()
	if err != nil {
		logger.Error("session: signal load failed: %v", err)
		return false
	}

	s.resetProcessedOnNewDay(now)

	for _, sig := range signals {
		if !sig.TradeAt.Truncate(time.Second).Equal(now.Truncate(time.Second)) {
			continue
		}
		s.dispatch(ctx, sig)
	}
	return false
}

// dispatch пускает готовый сигнал в работу, если ему положено идти.
func (s *Session) dispatch(ctx context.Context, sig models.Signal) {
	key := sig.Key()

	s.mu.Lock()
	if _, done := s.processed[key]; done {
		s.mu.Unlock()
		return
	}
	if _, busy := s.inFlight[sig.Asset]; busy {
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	// Приоритет восстановления: пока идёт серия, новые активы не входят —
	// торгуются только те, кто уже внутри сетки.
	if s.strat.InSequence() && !contains(s.strat.AssetsInSequence(), sig.Asset) {
		log.Printf("[SESSION] %s придержан: активна серия по %v",
			sig.Asset, s.strat.AssetsInSequence())
		return
	}

	s.mu.Lock()
	s.processed[key] = struct{}{}
	s.inFlight[sig.Asset] = struct{}{}
	s.mu.Unlock()

	s.setState(StateExecuting)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		res, err := s.disp.RunSequence(ctx, sig)

		s.mu.Lock()
		delete(s.inFlight, sig.Asset)
		s.profit += res.Profit
		total := s.profit
		s.mu.Unlock()

		if err != nil && ctx.Err() == nil {
			logger.Error("session: sequence %s finished with error: %v", sig.Asset, err)
		}
		if res.Trades > 0 {
			log.Printf("[SESSION] %s: серия закрыта, трейдов=%d результат=%+.2f банк=%+.2f",
				sig.Asset, res.Trades, res.Profit, total)
		}

		// повторная сверка лимитов сразу после серии, не дожидаясь тика
		s.checkHalt()
	}()
}

// checkHalt примечает достижение лимита. Идемпотентен: уведомление уходит
// один раз, повторные вызовы лишь подтверждают терминальное состояние.
func (s *Session) checkHalt() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.halted {
		return true
	}
	// выключенный лимит (<= 0) не проверяется вовсе
	switch {
	case s.cfg.Trading.StopLoss > 0 && s.profit <= -s.cfg.Trading.StopLoss:
		s.halted = true
		s.state = StateHalted
		s.notifier.Sendf("🛑 Стоп-лосс: %+.2f (лимит -$%.2f)", s.profit, s.cfg.Trading.StopLoss)
	case s.cfg.Trading.TakeProfit > 0 && s.profit >= s.cfg.Trading.TakeProfit:
		s.halted = true
		s.state = StateHalted
		s.notifier.Sendf("🎯 Тейк-профит: %+.2f (лимит +$%.2f)", s.profit, s.cfg.Trading.TakeProfit)
	}
	return s.halted
}

func (s *Session) resetProcessedOnNewDay(now time.Time) {
	day := now.Format("20060102")
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.processedDay != day {
		s.processedDay = day
		s.processed = make(map[string]struct{})
	}
}

func (s *Session) setState(state string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.halted {
		return
	}
	// пока есть живые серии, остаёмся в executing
	if state == StateScanning && len(s.inFlight) > 0 {
		state = StateExecuting
	}
	s.state = state
}

func (s *Session) State() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Profit() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profit
}

func (s *Session) LastScan() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastScan
}

func contains(list []string, v string) bool {
	for _, x := range list {
		if x == v {
			return true
		}
	}
	return false
}
