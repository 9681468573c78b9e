package broker

import "strings"

// Мажоры у площадки живут под обычным именем даже на OTC-ленте.
var majorPairs = map[string]struct{}{
	"EURUSD": {},
	"GBPUSD": {},
	"USDJPY": {},
	"AUDUSD": {},
	"AUDJPY": {},
	"USDCAD": {},
	"USDCHF": {},
	"NZDUSD": {},
	"EURJPY": {},
	"GBPJPY": {},
	"EURGBP": {},
}

// MapAssetName переводит имя актива из сигнального CSV в тикер площадки:
// "EUR/USD" -> "EURUSD", "AUDCAD-OTC" -> "AUDCAD_otc", "EURJPY-OTC" -> "EURJPY".
// Суффиксы -OTC и -OTCp равнозначны.
func MapAssetName(asset string) string {
	name := strings.TrimSpace(asset)

	// Лента PO ADVANCE BOT уже шлёт тикеры площадки вида AUDCAD_otc —
	// их отдаём как есть, без нормализации регистра.
	if strings.HasSuffix(name, "_otc") {
		return name
	}

	name = strings.ToUpper(name)
	name = strings.ReplaceAll(name, "/", "")

	base, cut := strings.CutSuffix(name, "-OTCP")
	if !cut {
		base, cut = strings.CutSuffix(name, "-OTC")
	}
	if !cut {
		return name
	}
	if _, ok := majorPairs[base]; ok {
		return base
	}
	return base + "_otc"
}
