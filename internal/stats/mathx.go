package stats

import "math"

const curveTableSize = 1000

var (
	resistTable [curveTableSize]float32
	boostTable  [curveTableSize]float32
)

func init() {
	for i := 0; i < curveTableSize; i++ {
		resistTable[i] = resistClosed(i)
		boostTable[i] = boostClosed(i)
	}
}

func resistClosed(n int) float32 {
	return float32(math.Pow(float64(float32(0.99)), float64(n)))
}

func boostClosed(n int) float32 {
	return float32(math.Pow(float64(float32(0.01)), float64(n)))
}

// ResistCalc кривая убывающей отдачи 0.99^n (защита, сопротивления).
// Для 0 <= n < 1000 значение берётся из таблицы, дальше считается напрямую.
func ResistCalc(n int) float32 {
	if n >= 0 && n < curveTableSize {
		return resistTable[n]
	}
	return resistClosed(n)
}

// BoostCalc кривая 0.01^n, используется в формуле скорости атаки
func BoostCalc(n int) float32 {
	if n >= 0 && n < curveTableSize {
		return boostTable[n]
	}
	return boostClosed(n)
}

// Clamp ограничивает v диапазоном [lo, hi]
func Clamp[T int | float32 | float64](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Lerp линейная интерполяция
func Lerp(a, b, by float64) float64 {
	return a*(1-by) + b*by
}
