package models

import "time"

// Direction — направление бинарного опциона: call (вверх) / put (вниз).
type Direction string

const (
	DirectionCall Direction = "call"
	DirectionPut  Direction = "put"
)

// Signal — сигнал из CSV-файла канала. После парсинга не мутируется.
type Signal struct {
	Asset     string
	Direction Direction

	// Время сигнала из CSV, привязанное к сегодняшней дате
	SignalAt time.Time
	// Время входа: SignalAt минус offset из конфига
	TradeAt time.Time
	// TradeAt + длительность сделки канала
	CloseAt time.Time

	Channel  string
	Duration time.Duration

	MessageText string
}

// Key — ключ дедупликации: один и тот же сигнал из CSV не исполняем дважды.
func (s Signal) Key() string {
	return s.Asset + "|" + s.SignalAt.Format("15:04:05")
}
