package strategy

import "option_bot/internal/models"

// Progression — контракт мартингейл-прогрессии, общий для всех вариантов
// сетки. Session и Dispatcher работают только через него.
type Progression interface {
	// Cycle/Step — текущая позиция актива в сетке; новый актив
	// инициализируется лениво от глобального состояния.
	Cycle(asset string) int
	Step(asset string) int

	// Amount — ставка для текущей позиции актива. Чистая функция от
	// (cycle, step): повторный вызов без RecordResult обязан вернуть то же.
	Amount(asset string) float64

	// RecordResult — единственная мутация состояния.
	RecordResult(won bool, asset string, amount float64) models.Action

	// InSequence — есть ли активы в середине серии (cycle>1 или step>1).
	InSequence() bool
	AssetsInSequence() []string

	Status(asset string) string
	Describe() string
}
