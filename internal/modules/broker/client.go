package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"option_bot/internal/models"
	"option_bot/internal/modules/config"
	"option_bot/pkg/logger"
)

const defaultBrokerURL = "wss://api-eu.po.market/socket.io/?EIO=4&transport=websocket"

// Client — socket.io-over-websocket клиент площадки бинарных опционов.
// Один write-мьютекс на соединение, read pump в отдельной горутине кормит
// кеш закрытых сделок и pending-мапу открытий.
type Client struct {
	cfg    *config.Config
	dialer *websocket.Dialer

	mu     sync.Mutex // пишущая сторона conn + pendings
	conn   *websocket.Conn
	authed chan struct{}

	reqID   atomic.Int64
	pending map[int64]chan orderReply

	dealsMu sync.RWMutex
	deals   map[string]models.Deal

	balance atomic.Value // float64
}

type orderReply struct {
	orderID string
	err     error
}

func NewClient(cfg *config.Config) *Client {
	c := &Client{
		cfg:     cfg,
		dialer:  &websocket.Dialer{HandshakeTimeout: 15 * time.Second},
		authed:  make(chan struct{}),
		pending: make(map[int64]chan orderReply),
		deals:   make(map[string]models.Deal),
	}
	c.balance.Store(float64(0))
	return c
}

// Connect устанавливает соединение, проходит auth по SSID и запускает
// read pump. Блокируется до successauth либо таймаута.
func (c *Client) Connect(ctx context.Context) error {
	url := c.cfg.Broker.URL
	if url == "" {
		url = defaultBrokerURL
	}

	conn, _, err := c.dialer.DialContext(ctx, url, nil)
	if err != nil {
		return errors.Wrap(err, "broker dial")
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	go c.readPump(ctx)
	go c.keepAlive(ctx)

	select {
	case <-c.authed:
		logger.Info("broker: authorized, demo=%v", c.cfg.Broker.Demo)
		return nil
	case <-time.After(20 * time.Second):
		_ = conn.Close()
		return errors.New("broker: auth timeout")
	case <-ctx.Done():
		_ = conn.Close()
		return ctx.Err()
	}
}

func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
}

func (c *Client) demoFlag() int {
	if c.cfg.Broker.Demo {
		return 1
	}
	return 0
}

// write шлёт сырой фрейм под мьютексом: gorilla не допускает конкурентных
// писателей.
func (c *Client) write(payload string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return errors.New("broker: not connected")
	}
	return c.conn.WriteMessage(websocket.TextMessage, []byte(payload))
}

func (c *Client) emit(event string, body any) error {
	raw, err := sonic.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "marshal "+event)
	}
	return c.write(fmt.Sprintf(`42["%s",%s]`, event, raw))
}

func (c *Client) keepAlive(ctx context.Context) {
	t := time.NewTicker(20 * time.Second)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			_ = c.write(`42["ps"]`)
		}
	}
}

// readPump разбирает engine.io/socket.io фреймы. Протокол текстовый:
// "0{...}" — open, "2" — ping, "40" — namespace connected, "42[...]" — event.
func (c *Client) readPump(ctx context.Context) {
	for {
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}

		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("[BROKER] read error: %v", err)
			}
			c.mu.Lock()
			if c.conn == conn {
				c.conn = nil
			}
			c.mu.Unlock()
			return
		}

		frame := string(msg)
		switch {
		case strings.HasPrefix(frame, "0"):
			// open: подключаемся к неймспейсу
			_ = c.write("40")
		case frame == "2":
			_ = c.write("3")
		case strings.HasPrefix(frame, "40"):
			c.sendAuth()
		case strings.HasPrefix(frame, "42"):
			c.handleEvent(frame[2:])
		case strings.HasPrefix(frame, "451-"):
			// бинарные attachment-события площадка шлёт как 451-, полезная
			// нагрузка всё равно в JSON-части
			c.handleEvent(frame[4:])
		}
	}
}

func (c *Client) sendAuth() {
	err := c.emit("auth", map[string]any{
		"session":  c.cfg.Broker.SSID,
		"isDemo":   c.demoFlag(),
		"uid":      0,
		"platform": 1,
	})
	if err != nil {
		logger.Error("broker: auth send failed: %v", err)
	}
}

// handleEvent принимает тело события вида ["name",{...}].
func (c *Client) handleEvent(body string) {
	var raw []json.RawMessage
	if err := sonic.UnmarshalString(body, &raw); err != nil || len(raw) == 0 {
		return
	}
	var name string
	if err := sonic.Unmarshal(raw[0], &name); err != nil {
		return
	}

	switch name {
	case "successauth":
		select {
		case <-c.authed:
		default:
			close(c.authed)
		}
	case "successupdateBalance", "updateBalance":
		c.onBalance(raw)
	case "successopenOrder":
		c.onOpenOrder(raw, nil)
	case "failopenOrder":
		c.onOpenOrder(raw, errors.New("open order failed"))
	case "successcloseOrder", "updateClosedDeals":
		c.onCloseOrder(raw)
	}
}

func payloadOf(raw []json.RawMessage) []byte {
	if len(raw) < 2 {
		return nil
	}
	return raw[1]
}

func (c *Client) onBalance(raw []json.RawMessage) {
	var p struct {
		Balance     float64 `json:"balance"`
		DemoBalance float64 `json:"demoBalance"`
		IsDemo      int     `json:"isDemo"`
	}
	if err := sonic.Unmarshal(payloadOf(raw), &p); err != nil {
		return
	}
	bal := p.Balance
	if c.cfg.Broker.Demo && p.DemoBalance > 0 {
		bal = p.DemoBalance
	}
	c.balance.Store(bal)
}

func (c *Client) onOpenOrder(raw []json.RawMessage, failure error) {
	var p struct {
		ID        string  `json:"id"`
		RequestID int64   `json:"requestId"`
		Amount    float64 `json:"amount"`
		Error     string  `json:"error"`
	}
	if err := sonic.Unmarshal(payloadOf(raw), &p); err != nil {
		return
	}

	c.mu.Lock()
	ch, ok := c.pending[p.RequestID]
	if ok {
		delete(c.pending, p.RequestID)
	}
	c.mu.Unlock()
	if !ok {
		return
	}

	if failure != nil {
		ch <- orderReply{err: classifyVenueError(p.Error)}
		return
	}
	ch <- orderReply{orderID: p.ID}
}

func (c *Client) onCloseOrder(raw []json.RawMessage) {
	var p struct {
		Profit float64 `json:"profit"`
		Deals  []struct {
			ID     string  `json:"id"`
			Profit float64 `json:"profit"`
			Amount float64 `json:"amount"`
		} `json:"deals"`
	}
	if err := sonic.Unmarshal(payloadOf(raw), &p); err != nil {
		return
	}

	c.dealsMu.Lock()
	defer c.dealsMu.Unlock()
	for _, d := range p.Deals {
		result := models.ResultLoss
		switch {
		case d.Profit > 0:
			result = models.ResultWin
		case d.Profit == 0:
			result = models.ResultDraw
		}
		c.deals[d.ID] = models.Deal{
			OrderID:   d.ID,
			Completed: true,
			Result:    result,
			Profit:    d.Profit,
		}
	}
}
