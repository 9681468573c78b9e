package broker

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"option_bot/internal/models"
)

const openOrderTimeout = 10 * time.Second

// PlaceOrder открывает опцион и ждёт подтверждения площадки.
// Возвращает ID сделки либо типизированную ошибку (ErrMarketClosed /
// ErrOrderRejected).
func (c *Client) PlaceOrder(ctx context.Context, asset string, direction models.Direction, amount float64, duration time.Duration) (string, error) {
	reqID := c.reqID.Add(1)
	reply := make(chan orderReply, 1)

	c.mu.Lock()
	c.pending[reqID] = reply
	c.mu.Unlock()

	err := c.emit("openOrder", map[string]any{
		"asset":      MapAssetName(asset),
		"action":     string(direction),
		"amount":     amount,
		"isDemo":     c.demoFlag(),
		"requestId":  reqID,
		"optionType": 100,
		"time":       int(duration.Seconds()),
	})
	if err != nil {
		c.mu.Lock()
		delete(c.pending, reqID)
		c.mu.Unlock()
		return "", errors.Wrap(err, "send openOrder")
	}

	select {
	case r := <-reply:
		if r.err != nil {
			return "", r.err
		}
		return r.orderID, nil
	case <-time.After(openOrderTimeout):
		c.mu.Lock()
		delete(c.pending, reqID)
		c.mu.Unlock()
		return "", ErrOrderRejected
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, reqID)
		c.mu.Unlock()
		return "", ctx.Err()
	}
}

// CheckResult смотрит кеш закрытых сделок, который кормит read pump.
// Пока сделки там нет — Completed=false, это не ошибка.
func (c *Client) CheckResult(_ context.Context, orderID string) (models.Deal, error) {
	c.dealsMu.RLock()
	deal, ok := c.deals[orderID]
	c.dealsMu.RUnlock()
	if !ok {
		return models.Deal{OrderID: orderID}, nil
	}
	return deal, nil
}

// ForgetDeal убирает сделку из кеша после записи в журнал.
func (c *Client) ForgetDeal(orderID string) {
	c.dealsMu.Lock()
	delete(c.deals, orderID)
	c.dealsMu.Unlock()
}

// Balance — последний баланс из updateBalance, для стартового баннера.
func (c *Client) Balance(_ context.Context) float64 {
	v, _ := c.balance.Load().(float64)
	return v
}
