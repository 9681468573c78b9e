package trader

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"option_bot/internal/models"
	"option_bot/internal/modules/broker"
	"option_bot/internal/strategy"
)

// trialOutcome — сценарий одной сделки для фейкового брокера.
type trialOutcome struct {
	placeErr      error
	result        models.Result
	profit        float64
	neverComplete bool
	pollsToClose  int
}

type fakeBroker struct {
	mu        sync.Mutex
	script    []trialOutcome
	placed    []float64 // amounts в порядке размещения
	polls     map[string]int
	outcomes  map[string]trialOutcome
	forgotten []string
}

func newFakeBroker(script ...trialOutcome) *fakeBroker {
	return &fakeBroker{
		script:   script,
		polls:    make(map[string]int),
		outcomes: make(map[string]trialOutcome),
	}
}

func (f *fakeBroker) PlaceOrder(_ context.Context, _ string, _ models.Direction, amount float64, _ time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.script) == 0 {
		panic("fakeBroker: unexpected PlaceOrder")
	}
	out := f.script[0]
	f.script = f.script[1:]
	if out.placeErr != nil {
		return "", out.placeErr
	}
	f.placed = append(f.placed, amount)
	id := fmt.Sprintf("deal-%d", len(f.placed))
	f.outcomes[id] = out
	return id, nil
}

func (f *fakeBroker) CheckResult(_ context.Context, orderID string) (models.Deal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := f.outcomes[orderID]
	if out.neverComplete {
		return models.Deal{OrderID: orderID}, nil
	}
	f.polls[orderID]++
	if f.polls[orderID] <= out.pollsToClose {
		return models.Deal{OrderID: orderID}, nil
	}
	return models.Deal{OrderID: orderID, Completed: true, Result: out.result, Profit: out.profit}, nil
}

func (f *fakeBroker) ForgetDeal(orderID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.forgotten = append(f.forgotten, orderID)
}

type fakeJournal struct {
	mu   sync.Mutex
	recs []models.TradeRecord
}

func (j *fakeJournal) Append(_ context.Context, rec models.TradeRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.recs = append(j.recs, rec)
	return nil
}

type fakeNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (n *fakeNotifier) Send(msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
}

func (n *fakeNotifier) Sendf(format string, args ...any) { n.Send(fmt.Sprintf(format, args...)) }

func testSignal(tradeAt time.Time) models.Signal {
	return models.Signal{
		Asset:     "EURUSD",
		Direction: models.DirectionCall,
		SignalAt:  tradeAt,
		TradeAt:   tradeAt,
		CloseAt:   tradeAt.Add(time.Minute),
		Channel:   "james_martin",
		Duration:  time.Minute,
	}
}

func newTestDispatcher(t *testing.T, fb *fakeBroker, start time.Time) (*Dispatcher, *fakeTime, strategy.Progression, *fakeJournal, *fakeNotifier) {
	t.Helper()
	ft := newFakeTime(start)
	clock := NewClock()
	clock.now = ft.Now
	clock.sleep = ft.Sleep

	strat, err := strategy.New("3x2", 1.0, 2.5)
	require.NoError(t, err)

	journal := &fakeJournal{}
	notifier := &fakeNotifier{}

	d := NewDispatcher(clock, fb, strat, journal, notifier)
	d.now = ft.Now
	d.sleep = ft.Sleep
	return d, ft, strat, journal, notifier
}

func TestRunSequenceWinFirstStep(t *testing.T) {
	start := time.Date(2026, 1, 15, 10, 29, 58, 0, time.Local)
	tradeAt := start.Add(2 * time.Second)

	fb := newFakeBroker(trialOutcome{result: models.ResultWin, profit: 0.92, pollsToClose: 3})
	d, _, strat, journal, _ := newTestDispatcher(t, fb, start)

	res, err := d.RunSequence(context.Background(), testSignal(tradeAt))
	require.NoError(t, err)

	assert.Equal(t, 1, res.Trades)
	assert.InDelta(t, 0.92, res.Profit, 1e-9)
	assert.Equal(t, models.ActionReset, res.Final.Kind)
	assert.False(t, res.Dropped)

	require.Len(t, journal.recs, 1)
	assert.Equal(t, models.ResultWin, journal.recs[0].Result)
	assert.InDelta(t, 1.0, strat.Amount("EURUSD"), 1e-9, "после выигрыша ставка базовая")
	assert.Equal(t, []string{"deal-1"}, fb.forgotten, "закрытая сделка выкинута из кеша")
}

func TestRunSequenceLossThenWin(t *testing.T) {
	start := time.Date(2026, 1, 15, 10, 29, 59, 0, time.Local)
	tradeAt := start.Add(time.Second)

	fb := newFakeBroker(
		trialOutcome{result: models.ResultLoss, profit: -1.0},
		trialOutcome{result: models.ResultWin, profit: 2.3},
	)
	d, _, _, journal, _ := newTestDispatcher(t, fb, start)

	res, err := d.RunSequence(context.Background(), testSignal(tradeAt))
	require.NoError(t, err)

	assert.Equal(t, 2, res.Trades)
	assert.InDelta(t, 1.3, res.Profit, 1e-9)
	assert.Equal(t, models.ActionReset, res.Final.Kind)

	// второй шаг идёт на повышенной ставке
	require.Len(t, fb.placed, 2)
	assert.InDelta(t, 1.0, fb.placed[0], 1e-9)
	assert.InDelta(t, 2.5, fb.placed[1], 1e-9)

	require.Len(t, journal.recs, 2)
	assert.Equal(t, 1, journal.recs[0].Step)
	assert.Equal(t, 2, journal.recs[1].Step)
	assert.Equal(t, []string{"deal-1", "deal-2"}, fb.forgotten)
}

func TestRunSequenceCycleExhaustedHandsOff(t *testing.T) {
	start := time.Date(2026, 1, 15, 10, 29, 59, 0, time.Local)
	tradeAt := start.Add(time.Second)

	fb := newFakeBroker(
		trialOutcome{result: models.ResultLoss, profit: -1.0},
		trialOutcome{result: models.ResultLoss, profit: -2.5},
	)
	d, _, strat, _, _ := newTestDispatcher(t, fb, start)

	res, err := d.RunSequence(context.Background(), testSignal(tradeAt))
	require.NoError(t, err)

	assert.Equal(t, 2, res.Trades)
	assert.Equal(t, models.ActionAssetDone, res.Final.Kind)
	// следующий актив стартует с цикла 2
	assert.InDelta(t, 6.25, strat.Amount("GBPUSD"), 1e-9)
}

func TestRunSequenceDeadlineMissedDropsSignal(t *testing.T) {
	start := time.Date(2026, 1, 15, 10, 30, 5, 0, time.Local)
	tradeAt := start.Add(-3 * time.Second) // секунда входа уже прошла

	fb := newFakeBroker()
	d, _, _, journal, _ := newTestDispatcher(t, fb, start)

	res, err := d.RunSequence(context.Background(), testSignal(tradeAt))
	require.NoError(t, err)
	assert.True(t, res.Dropped)
	assert.Zero(t, res.Trades)
	assert.Empty(t, fb.placed, "ордер не размещался")
	assert.Empty(t, journal.recs)
}

func TestRunSequenceMarketClosedAborts(t *testing.T) {
	start := time.Date(2026, 1, 15, 10, 29, 59, 0, time.Local)
	tradeAt := start.Add(time.Second)

	fb := newFakeBroker(trialOutcome{placeErr: broker.ErrMarketClosed})
	d, _, strat, journal, _ := newTestDispatcher(t, fb, start)

	before := strat.Amount("EURUSD")
	res, err := d.RunSequence(context.Background(), testSignal(tradeAt))
	assert.ErrorIs(t, err, broker.ErrMarketClosed)
	assert.True(t, res.Dropped)
	assert.Zero(t, res.Trades)
	assert.Empty(t, journal.recs)
	// ни выигрыш, ни проигрыш: прогрессия не двигается
	assert.InDelta(t, before, strat.Amount("EURUSD"), 1e-9)
}

func TestRunSequenceRejectionIsLoss(t *testing.T) {
	start := time.Date(2026, 1, 15, 10, 29, 59, 0, time.Local)
	tradeAt := start.Add(time.Second)

	fb := newFakeBroker(
		trialOutcome{placeErr: broker.ErrOrderRejected},
		trialOutcome{result: models.ResultWin, profit: 2.3},
	)
	d, _, _, journal, _ := newTestDispatcher(t, fb, start)

	res, err := d.RunSequence(context.Background(), testSignal(tradeAt))
	require.NoError(t, err)

	assert.Equal(t, 2, res.Trades)
	assert.InDelta(t, -1.0+2.3, res.Profit, 1e-9)
	require.Len(t, journal.recs, 2)
	assert.Equal(t, models.ResultLoss, journal.recs[0].Result)
}

func TestRunSequenceResultTimeoutIsLoss(t *testing.T) {
	start := time.Date(2026, 1, 15, 10, 29, 59, 0, time.Local)
	tradeAt := start.Add(time.Second)

	fb := newFakeBroker(
		trialOutcome{neverComplete: true},
		trialOutcome{result: models.ResultWin, profit: 2.3},
	)
	d, _, _, journal, _ := newTestDispatcher(t, fb, start)

	res, err := d.RunSequence(context.Background(), testSignal(tradeAt))
	require.NoError(t, err)

	assert.Equal(t, 2, res.Trades)
	require.Len(t, journal.recs, 2)
	assert.Equal(t, models.ResultLoss, journal.recs[0].Result)
	assert.InDelta(t, -1.0, journal.recs[0].Profit, 1e-9)
}

func TestRunSequenceDrawIsNotWin(t *testing.T) {
	start := time.Date(2026, 1, 15, 10, 29, 59, 0, time.Local)
	tradeAt := start.Add(time.Second)

	fb := newFakeBroker(
		trialOutcome{result: models.ResultDraw, profit: 0},
		trialOutcome{result: models.ResultWin, profit: 2.3},
	)
	d, _, _, journal, _ := newTestDispatcher(t, fb, start)

	res, err := d.RunSequence(context.Background(), testSignal(tradeAt))
	require.NoError(t, err)

	// возврат ставки не закрывает серию — прогрессия идёт дальше
	assert.Equal(t, 2, res.Trades)
	assert.InDelta(t, 2.3, res.Profit, 1e-9)
	assert.Equal(t, models.ResultDraw, journal.recs[0].Result)
}

func TestMaxResultWait(t *testing.T) {
	assert.Equal(t, 80*time.Second, maxResultWait(60*time.Second))
	assert.Equal(t, 50*time.Second, maxResultWait(30*time.Second))
	assert.Equal(t, 330*time.Second, maxResultWait(300*time.Second))
	assert.Equal(t, 330*time.Second, maxResultWait(600*time.Second))
	assert.Equal(t, 35*time.Second, maxResultWait(15*time.Second))
}
