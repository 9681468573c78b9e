package broker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapAssetName(t *testing.T) {
	cases := map[string]string{
		"EURUSD":     "EURUSD",
		"EUR/USD":    "EURUSD",
		"EURJPY-OTC":  "EURJPY", // мажор остаётся без суффикса
		"EURJPY-OTCp": "EURJPY",
		"AUDJPY-OTC":  "AUDJPY",
		"AUDCAD-OTC":  "AUDCAD_otc",
		"USDBRL-OTC":  "USDBRL_otc",
		"AUDCAD_otc":  "AUDCAD_otc", // уже в формате площадки
		" gbpusd ":    "GBPUSD",
	}
	for in, want := range cases {
		assert.Equal(t, want, MapAssetName(in), in)
	}
}

func TestClassifyVenueError(t *testing.T) {
	assert.ErrorIs(t, classifyVenueError("Market is closed"), ErrMarketClosed)
	assert.ErrorIs(t, classifyVenueError("asset is not available now"), ErrMarketClosed)
	assert.ErrorIs(t, classifyVenueError("NON-TRADING TIME"), ErrMarketClosed)
	assert.ErrorIs(t, classifyVenueError("insufficient balance"), ErrOrderRejected)
	assert.ErrorIs(t, classifyVenueError(""), ErrOrderRejected)
}
