package trader

import (
	"context"
	"errors"
	"time"
)

// ErrDeadlineMissed — целевая секунда уже прошла, входить поздно.
var ErrDeadlineMissed = errors.New("trader: target second already passed")

// Clock ждёт наступления конкретной секунды. Бинарный опцион, открытый на
// секунду позже сигнала, — это уже другой трейд, поэтому сравнение идёт по
// точному равенству секунд, а не по "не раньше чем".
type Clock struct {
	// подменяются в тестах
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

func NewClock() *Clock {
	return &Clock{
		now:   time.Now,
		sleep: sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// WaitForExact блокируется до секунды target. Шаг опроса сужается по мере
// приближения: 500мс вдалеке, 50мс на подходе, 1мс на последней секунде.
// При совпадении выдерживаем 10мс, чтобы биржевые часы гарантированно
// перевалили границу секунды, и возвращаем фактическое время.
func (c *Clock) WaitForExact(ctx context.Context, target time.Time) (time.Time, error) {
	targetSec := target.Truncate(time.Second)

	for {
		now := c.now()
		nowSec := now.Truncate(time.Second)

		if nowSec.Equal(targetSec) {
			if err := c.sleep(ctx, 10*time.Millisecond); err != nil {
				return time.Time{}, err
			}
			return c.now(), nil
		}
		if nowSec.After(targetSec) {
			return time.Time{}, ErrDeadlineMissed
		}

		remaining := targetSec.Sub(now)
		var step time.Duration
		switch {
		case remaining > time.Minute:
			step = 500 * time.Millisecond
		case remaining >= time.Second:
			step = 50 * time.Millisecond
		default:
			step = time.Millisecond
		}
		if err := c.sleep(ctx, step); err != nil {
			return time.Time{}, err
		}
	}
}
