package strategy

import (
	"fmt"
	"sort"
	"sync"

	"option_bot/internal/models"
)

type assetState struct {
	cycle   int
	step    int
	amounts []float64
}

// CycleGrid — кросс-активная сетка N циклов × M шагов с общим глобальным
// состоянием цикла. Проигрыш последнего шага цикла двигает ГЛОБАЛЬНЫЙ цикл:
// следующий новый актив начнёт серию уже на повышенной ставке. Выигрыш где
// угодно обрывает общую цепочку восстановления для всех активов.
//
// Все мутации под одним мьютексом: несколько серий могут завершаться
// конкурентно, и глобальный цикл пишется по принципу last-writer-wins —
// это осознанный выбор, но каждая отдельная запись атомарна.
type CycleGrid struct {
	mu sync.Mutex

	base    float64
	mult    float64
	cycles  int
	steps   int
	formula AmountFormula

	globalCycle int
	globalStep  int

	assets map[string]*assetState
}

// NewCycleGrid ...
func NewCycleGrid(base, mult float64, cycles, steps int, formula AmountFormula) *CycleGrid {
	if formula == nil {
		formula = ChainedGeometric(steps)
	}
	return &CycleGrid{
		base:        base,
		mult:        mult,
		cycles:      cycles,
		steps:       steps,
		formula:     formula,
		globalCycle: 1,
		globalStep:  1,
		assets:      make(map[string]*assetState),
	}
}

// ensure — ленивая инициализация: новый актив наследует текущее глобальное
// состояние, зафиксированное на момент первого обращения.
func (g *CycleGrid) ensure(asset string) *assetState {
	st, ok := g.assets[asset]
	if !ok {
		st = &assetState{cycle: g.globalCycle, step: g.globalStep}
		g.assets[asset] = st
	}
	return st
}

func (g *CycleGrid) Cycle(asset string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ensure(asset).cycle
}

func (g *CycleGrid) Step(asset string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.ensure(asset).step
}

func (g *CycleGrid) Amount(asset string) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	st := g.ensure(asset)
	return g.formula(g.base, g.mult, st.cycle, st.step)
}

func (g *CycleGrid) RecordResult(won bool, asset string, amount float64) models.Action {
	g.mu.Lock()
	defer g.mu.Unlock()

	st := g.ensure(asset)
	cycle, step := st.cycle, st.step
	st.amounts = append(st.amounts, amount)

	if won {
		// Выигрыш обнуляет глобальную цепочку: все активы стартуют заново
		// с C1S1, поэтому старые состояния просто выбрасываем.
		g.globalCycle, g.globalStep = 1, 1
		g.assets = make(map[string]*assetState)
		return models.Action{Kind: models.ActionReset, Asset: asset, NextCycle: 1, NextStep: 1}
	}

	if step < g.steps {
		st.step++
		return models.Action{Kind: models.ActionContinue, Asset: asset, NextCycle: cycle, NextStep: st.step}
	}

	if cycle < g.cycles {
		// Последний шаг цикла проигран: актив выбывает из серии, а
		// СЛЕДУЮЩИЙ актив начнёт уже со следующего цикла.
		g.globalCycle = cycle + 1
		g.globalStep = 1
		// состояние самого актива — только для отображения
		st.cycle = cycle + 1
		st.step = 1
		st.amounts = nil
		return models.Action{Kind: models.ActionAssetDone, Asset: asset, NextCycle: g.globalCycle, NextStep: 1}
	}

	// Проигран последний шаг последнего цикла — полный сброс.
	g.globalCycle, g.globalStep = 1, 1
	g.assets = make(map[string]*assetState)
	return models.Action{Kind: models.ActionResetMaxLoss, Asset: asset, NextCycle: 1, NextStep: 1}
}

func (g *CycleGrid) InSequence() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, st := range g.assets {
		if st.cycle > 1 || st.step > 1 {
			return true
		}
	}
	return false
}

func (g *CycleGrid) AssetsInSequence() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	var res []string
	for asset, st := range g.assets {
		if st.cycle > 1 || st.step > 1 {
			res = append(res, asset)
		}
	}
	sort.Strings(res)
	return res
}

func (g *CycleGrid) Status(asset string) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	st, ok := g.assets[asset]
	if !ok {
		amount := g.formula(g.base, g.mult, g.globalCycle, g.globalStep)
		return fmt.Sprintf("%s: C%dS%d ($%.2f) [NEW]", asset, g.globalCycle, g.globalStep, amount)
	}
	amount := g.formula(g.base, g.mult, st.cycle, st.step)
	return fmt.Sprintf("%s: C%dS%d ($%.2f)", asset, st.cycle, st.step, amount)
}

func (g *CycleGrid) Describe() string {
	return fmt.Sprintf(
		"сетка %d циклов × %d шагов | base=$%.2f mult=%.2f | проигрыш последнего шага двигает цикл на следующий актив",
		g.cycles, g.steps, g.base, g.mult,
	)
}

// GlobalCycle/GlobalStep — для статуса и health-эндпоинта.
func (g *CycleGrid) GlobalCycle() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.globalCycle
}

func (g *CycleGrid) GlobalStep() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.globalStep
}
