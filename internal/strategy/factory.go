package strategy

import "fmt"

// New собирает вариант прогрессии по имени из конфига.
//
//	3x2, 4x2, 5x2, 3x3 — кросс-активные сетки NxM со сцепленной геометрией
//	2x3sum            — 2×3 сетка, C2S1 = сумма трёх шагов первого цикла
//	3step             — одноцикловая лесенка из 3 шагов на актив
//	single            — без прогрессии, одна ставка на сигнал
func New(kind string, base, mult float64) (Progression, error) {
	if base <= 0 {
		return nil, fmt.Errorf("strategy: base amount must be > 0, got %v", base)
	}
	if mult <= 1 && kind != "single" {
		return nil, fmt.Errorf("strategy: multiplier must be > 1, got %v", mult)
	}

	switch kind {
	case "3x2", "":
		return NewCycleGrid(base, mult, 3, 2, nil), nil
	case "4x2":
		return NewCycleGrid(base, mult, 4, 2, nil), nil
	case "5x2":
		return NewCycleGrid(base, mult, 5, 2, nil), nil
	case "3x3":
		return NewCycleGrid(base, mult, 3, 3, nil), nil
	case "2x3sum":
		return NewCycleGrid(base, mult, 2, 3, SumOfFirstThree()), nil
	case "3step":
		return NewStepLadder(base, mult, 3), nil
	case "single":
		return NewFlatStake(base), nil
	default:
		return nil, fmt.Errorf("strategy: unknown variant %q", kind)
	}
}
