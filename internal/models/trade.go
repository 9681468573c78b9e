package models

import "time"

// Result — итог закрытой сделки.
type Result string

const (
	ResultWin  Result = "win"
	ResultLoss Result = "loss"
	ResultDraw Result = "draw"
)

// TradeRecord — запись журнала по одной закрытой сделке. Append-only.
type TradeRecord struct {
	Asset     string
	Direction Direction
	Amount    float64
	Result    Result
	Profit    float64

	Cycle int
	Step  int

	ExecutedAt time.Time
	CloseAt    time.Time
	Duration   time.Duration
	Channel    string
}
