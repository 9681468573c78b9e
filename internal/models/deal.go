package models

// Deal — итог сделки на стороне брокера, как его видит опрос результата.
type Deal struct {
	OrderID   string
	Completed bool
	Result    Result
	Profit    float64 // чистая прибыль сделки; при проигрыше отрицательная
}
