package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"option_bot/internal/models"
)

func TestLadderIndependentPerAsset(t *testing.T) {
	l := NewStepLadder(1.0, 2.0, 3)

	l.RecordResult(false, "EURUSD", 1.0)
	assert.Equal(t, 2, l.Step("EURUSD"))
	assert.InDelta(t, 2.0, l.Amount("EURUSD"), 1e-9)

	// проигрыш EURUSD не трогает GBPUSD
	assert.Equal(t, 1, l.Step("GBPUSD"))
	assert.InDelta(t, 1.0, l.Amount("GBPUSD"), 1e-9)
}

func TestLadderWinResetsOnlyThatAsset(t *testing.T) {
	l := NewStepLadder(1.0, 2.0, 3)

	l.RecordResult(false, "EURUSD", 1.0)
	l.RecordResult(false, "GBPUSD", 1.0)

	act := l.RecordResult(true, "EURUSD", 2.0)
	assert.Equal(t, models.ActionReset, act.Kind)
	assert.Equal(t, 1, l.Step("EURUSD"))
	assert.Equal(t, 2, l.Step("GBPUSD"), "чужая лесенка не сбрасывается")
}

func TestLadderExhaustedResets(t *testing.T) {
	l := NewStepLadder(1.0, 2.0, 3)

	l.RecordResult(false, "EURUSD", 1.0)
	l.RecordResult(false, "EURUSD", 2.0)
	act := l.RecordResult(false, "EURUSD", 4.0)
	require.Equal(t, models.ActionResetMaxLoss, act.Kind)
	assert.Equal(t, 1, l.Step("EURUSD"))
	assert.InDelta(t, 1.0, l.Amount("EURUSD"), 1e-9)
}

func TestLadderSequenceTracking(t *testing.T) {
	l := NewStepLadder(1.0, 2.0, 3)

	assert.False(t, l.InSequence())
	l.RecordResult(false, "B", 1.0)
	l.RecordResult(false, "A", 1.0)
	assert.True(t, l.InSequence())
	assert.Equal(t, []string{"A", "B"}, l.AssetsInSequence())
}

func TestFlatStake(t *testing.T) {
	f := NewFlatStake(5.0)

	assert.Equal(t, 1, f.Cycle("EURUSD"))
	assert.Equal(t, 1, f.Step("EURUSD"))
	assert.InDelta(t, 5.0, f.Amount("EURUSD"), 1e-9)
	assert.False(t, f.InSequence())

	// ставка не меняется ни от выигрыша, ни от проигрыша
	act := f.RecordResult(false, "EURUSD", 5.0)
	assert.Equal(t, models.ActionReset, act.Kind)
	assert.InDelta(t, 5.0, f.Amount("EURUSD"), 1e-9)
}
