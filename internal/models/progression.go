package models

// ActionKind — что делать после записанного результата сделки.
type ActionKind string

const (
	// выигрыш — серия закрыта, все состояния сброшены на C1S1
	ActionReset ActionKind = "reset"
	// проигрыш внутри цикла — следующий шаг на том же активе
	ActionContinue ActionKind = "continue"
	// проигран последний шаг цикла — актив выбыл, глобальный цикл сдвинут
	ActionAssetDone ActionKind = "asset_completed"
	// проигран последний шаг последнего цикла — полный сброс
	ActionResetMaxLoss ActionKind = "reset_after_max_loss"
)

// Action — результат Progression.RecordResult.
type Action struct {
	Kind      ActionKind
	Asset     string
	NextCycle int
	NextStep  int
}
