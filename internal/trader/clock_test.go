package trader

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTime — виртуальные часы: sleep двигает now, реального ожидания нет.
type fakeTime struct {
	now    time.Time
	sleeps []time.Duration
}

func newFakeTime(start time.Time) *fakeTime { return &fakeTime{now: start} }

func (f *fakeTime) Now() time.Time { return f.now }

func (f *fakeTime) Sleep(_ context.Context, d time.Duration) error {
	f.sleeps = append(f.sleeps, d)
	f.now = f.now.Add(d)
	return nil
}

func clockAt(start time.Time) (*Clock, *fakeTime) {
	ft := newFakeTime(start)
	c := NewClock()
	c.now = ft.Now
	c.sleep = ft.Sleep
	return c, ft
}

func TestWaitForExactHitsTargetSecond(t *testing.T) {
	start := time.Date(2026, 1, 15, 10, 29, 55, 0, time.Local)
	target := time.Date(2026, 1, 15, 10, 30, 0, 0, time.Local)

	c, ft := clockAt(start)
	actual, err := c.WaitForExact(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, target.Truncate(time.Second), actual.Truncate(time.Second))
	// после совпадения — фиксированная пауза 10мс
	assert.Equal(t, 10*time.Millisecond, ft.sleeps[len(ft.sleeps)-1])
}

func TestWaitForExactAdaptiveCadence(t *testing.T) {
	start := time.Date(2026, 1, 15, 10, 0, 0, 0, time.Local)
	target := start.Add(5 * time.Minute)

	c, ft := clockAt(start)
	_, err := c.WaitForExact(context.Background(), target)
	require.NoError(t, err)

	// вдалеке — крупные шаги, на подходе — мелкие, на последней секунде — 1мс
	assert.Equal(t, 500*time.Millisecond, ft.sleeps[0])
	saw50, saw1 := false, false
	for _, d := range ft.sleeps {
		if d == 50*time.Millisecond {
			saw50 = true
		}
		if d == time.Millisecond {
			saw1 = true
		}
	}
	assert.True(t, saw50)
	assert.True(t, saw1)
}

func TestWaitForExactDeadlineMissed(t *testing.T) {
	start := time.Date(2026, 1, 15, 10, 30, 1, 0, time.Local)
	target := time.Date(2026, 1, 15, 10, 30, 0, 0, time.Local)

	c, _ := clockAt(start)
	_, err := c.WaitForExact(context.Background(), target)
	assert.ErrorIs(t, err, ErrDeadlineMissed)
}

func TestWaitForExactSubSecondLate(t *testing.T) {
	// та же секунда, но с запасом в наносекунды — ещё успеваем
	target := time.Date(2026, 1, 15, 10, 30, 0, 0, time.Local)
	start := target.Add(300 * time.Millisecond)

	c, _ := clockAt(start)
	actual, err := c.WaitForExact(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, target.Truncate(time.Second), actual.Truncate(time.Second))
}

func TestWaitForExactCancellable(t *testing.T) {
	start := time.Date(2026, 1, 15, 10, 0, 0, 0, time.Local)
	target := start.Add(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	c, ft := clockAt(start)
	c.sleep = func(ctx context.Context, d time.Duration) error {
		if len(ft.sleeps) > 2 {
			cancel()
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		return ft.Sleep(ctx, d)
	}

	_, err := c.WaitForExact(ctx, target)
	assert.ErrorIs(t, err, context.Canceled)
}
