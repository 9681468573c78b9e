package broker

import (
	"errors"
	"strings"
)

// Типизация ошибок площадки происходит ЗДЕСЬ и только здесь: выше этой
// границы никто не матчит строки брокера.
var (
	// ErrMarketClosed — актив сейчас не торгуется. Не выигрыш и не проигрыш,
	// серия по активу просто обрывается.
	ErrMarketClosed = errors.New("broker: market closed for asset")
	// ErrOrderRejected — площадка отказала в ордере. Трактуется как проигрыш.
	ErrOrderRejected = errors.New("broker: order rejected")
)

var marketClosedMarkers = []string{
	"market is closed",
	"asset is not available",
	"non-trading time",
	"trading is closed",
	"inactive asset",
}

// classifyVenueError переводит текст ошибки площадки в типизированную.
func classifyVenueError(venueMsg string) error {
	lower := strings.ToLower(venueMsg)
	for _, marker := range marketClosedMarkers {
		if strings.Contains(lower, marker) {
			return ErrMarketClosed
		}
	}
	return ErrOrderRejected
}
