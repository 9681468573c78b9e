package strategy

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"option_bot/internal/models"
)

// StepLadder — простой одноцикловый мартингейл: каждый актив ведёт свою
// независимую лесенку из maxSteps шагов, никакого общего состояния между
// активами нет.
type StepLadder struct {
	mu sync.Mutex

	base     float64
	mult     float64
	maxSteps int

	steps map[string]int // asset -> текущий шаг
}

func NewStepLadder(base, mult float64, maxSteps int) *StepLadder {
	return &StepLadder{
		base:     base,
		mult:     mult,
		maxSteps: maxSteps,
		steps:    make(map[string]int),
	}
}

func (l *StepLadder) step(asset string) int {
	if _, ok := l.steps[asset]; !ok {
		l.steps[asset] = 1
	}
	return l.steps[asset]
}

func (l *StepLadder) Cycle(string) int { return 1 }

func (l *StepLadder) Step(asset string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.step(asset)
}

func (l *StepLadder) Amount(asset string) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.base * math.Pow(l.mult, float64(l.step(asset)-1))
}

func (l *StepLadder) RecordResult(won bool, asset string, _ float64) models.Action {
	l.mu.Lock()
	defer l.mu.Unlock()

	step := l.step(asset)
	if won {
		l.steps[asset] = 1
		return models.Action{Kind: models.ActionReset, Asset: asset, NextCycle: 1, NextStep: 1}
	}
	if step < l.maxSteps {
		l.steps[asset] = step + 1
		return models.Action{Kind: models.ActionContinue, Asset: asset, NextCycle: 1, NextStep: step + 1}
	}
	// вся лесенка проиграна — сброс на первый шаг до следующего сигнала
	l.steps[asset] = 1
	return models.Action{Kind: models.ActionResetMaxLoss, Asset: asset, NextCycle: 1, NextStep: 1}
}

func (l *StepLadder) InSequence() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, s := range l.steps {
		if s > 1 {
			return true
		}
	}
	return false
}

func (l *StepLadder) AssetsInSequence() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var res []string
	for asset, s := range l.steps {
		if s > 1 {
			res = append(res, asset)
		}
	}
	sort.Strings(res)
	return res
}

func (l *StepLadder) Status(asset string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	step := l.step(asset)
	amount := l.base * math.Pow(l.mult, float64(step-1))
	return fmt.Sprintf("%s: Step %d/%d ($%.2f)", asset, step, l.maxSteps, amount)
}

func (l *StepLadder) Describe() string {
	return fmt.Sprintf("лесенка %d шагов на актив | base=$%.2f mult=%.2f | без кросс-активного состояния",
		l.maxSteps, l.base, l.mult)
}

// FlatStake — один трейд на сигнал, без прогрессии вовсе.
type FlatStake struct {
	amount float64
}

func NewFlatStake(amount float64) *FlatStake { return &FlatStake{amount: amount} }

func (f *FlatStake) Cycle(string) int          { return 1 }
func (f *FlatStake) Step(string) int           { return 1 }
func (f *FlatStake) Amount(string) float64     { return f.amount }
func (f *FlatStake) InSequence() bool          { return false }
func (f *FlatStake) AssetsInSequence() []string { return nil }

func (f *FlatStake) RecordResult(won bool, asset string, _ float64) models.Action {
	return models.Action{Kind: models.ActionReset, Asset: asset, NextCycle: 1, NextStep: 1}
}

func (f *FlatStake) Status(asset string) string {
	return fmt.Sprintf("%s: flat ($%.2f)", asset, f.amount)
}

func (f *FlatStake) Describe() string {
	return fmt.Sprintf("один трейд на сигнал, фиксированная ставка $%.2f", f.amount)
}
