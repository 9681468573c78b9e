package signals

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"option_bot/internal/models"
)

// Активы, которые площадка отдаёт в ленте, но не принимает в ордерах.
var unsupportedAssets = map[string]struct{}{
	"USDRUB":     {},
	"USDRUB-OTC": {},
	"BTCUSD":     {},
}

var timeLayouts = []string{"15:04:05", "15:04", "15.04"}

func parseSignalTime(raw string, day time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range timeLayouts {
		t, err := time.ParseInLocation(layout, raw, day.Location())
		if err == nil {
			return time.Date(day.Year(), day.Month(), day.Day(),
				t.Hour(), t.Minute(), t.Second(), 0, day.Location()), nil
		}
	}
	return time.Time{}, fmt.Errorf("signals: bad time %q", raw)
}

func parseDirection(raw string) (models.Direction, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "call", "buy", "up":
		return models.DirectionCall, nil
	case "put", "sell", "down":
		return models.DirectionPut, nil
	}
	return "", fmt.Errorf("signals: bad direction %q", raw)
}

// ParseCSV разбирает ленту канала. Формат с шапкой, обязательные колонки
// asset/direction/signal_time, опциональные is_signal ("Yes" — брать) и
// message_text. Кривые строки пропускаются, а не валят разбор целиком.
func ParseCSV(r io.Reader, ch Channel, day time.Time, offset time.Duration) ([]models.Signal, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("signals: read header: %w", err)
	}

	col := map[string]int{}
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	idxAsset, okA := columnIndex(col, "asset", "pair", "symbol")
	idxDir, okD := columnIndex(col, "direction", "action", "side")
	idxTime, okT := columnIndex(col, "signal_time", "time")
	if !okA || !okD || !okT {
		return nil, fmt.Errorf("signals: %s: missing required columns in %v", ch.Name, header)
	}
	idxIsSignal, hasIsSignal := columnIndex(col, "is_signal")
	idxMessage, hasMessage := columnIndex(col, "message_text", "message")

	var out []models.Signal
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		if len(row) <= idxAsset || len(row) <= idxDir || len(row) <= idxTime {
			continue
		}
		if hasIsSignal && len(row) > idxIsSignal &&
			!strings.EqualFold(strings.TrimSpace(row[idxIsSignal]), "yes") {
			continue
		}

		asset := strings.ToUpper(strings.TrimSpace(row[idxAsset]))
		if asset == "" {
			continue
		}
		if _, blocked := unsupportedAssets[asset]; blocked {
			continue
		}

		direction, err := parseDirection(row[idxDir])
		if err != nil {
			continue
		}
		signalAt, err := parseSignalTime(row[idxTime], day)
		if err != nil {
			continue
		}

		sig := models.Signal{
			Asset:     asset,
			Direction: direction,
			SignalAt:  signalAt,
			TradeAt:   signalAt.Add(-offset),
			Channel:   ch.Name,
			Duration:  ch.TradeDuration(),
		}
		sig.CloseAt = sig.TradeAt.Add(sig.Duration)
		if hasMessage && len(row) > idxMessage {
			sig.MessageText = strings.TrimSpace(row[idxMessage])
		}
		out = append(out, sig)
	}

	sort.Slice(out, func(i, j int) bool { return out[i].TradeAt.Before(out[j].TradeAt) })
	return out, nil
}

func columnIndex(col map[string]int, names ...string) (int, bool) {
	for _, n := range names {
		if i, ok := col[n]; ok {
			return i, true
		}
	}
	return 0, false
}
