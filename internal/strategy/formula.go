package strategy

import "math"

// AmountFormula считает ставку для позиции (cycle, step) сетки.
// Чистая функция: никакого состояния, только параметры.
type AmountFormula func(base, mult float64, cycle, step int) float64

// ChainedGeometric — классическая сцепленная геометрия: шаг k цикла c — это
// base * mult^((c-1)*M + k - 1). Первый шаг цикла c+1 продолжает ряд
// с последнего шага цикла c.
func ChainedGeometric(stepsPerCycle int) AmountFormula {
	return func(base, mult float64, cycle, step int) float64 {
		n := (cycle-1)*stepsPerCycle + step - 1
		return base * math.Pow(mult, float64(n))
	}
}

// SumOfFirstThree — особый вариант 2×3 сетки: первый шаг второго цикла равен
// СУММЕ трёх шагов первого цикла (1 + 2.5 + 6.25 = 9.75 при base=1, mult=2.5),
// а не произведению. Дальше внутри цикла 2 снова умножение.
// Это намеренная особенность стратегии, не ошибка.
func SumOfFirstThree() AmountFormula {
	return func(base, mult float64, cycle, step int) float64 {
		if cycle == 1 {
			return base * math.Pow(mult, float64(step-1))
		}
		c2s1 := base + base*mult + base*mult*mult
		return c2s1 * math.Pow(mult, float64(step-1))
	}
}
