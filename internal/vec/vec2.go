package vec

import "math"

// Vec2 представляет позицию на сетке карты (в клетках)
type Vec2 struct {
	X, Y int
}

// Invalid позиция-сентинел "нет позиции" (например, каст по сущности, а не по земле)
var Invalid = Vec2{X: -999, Y: -999}

// IsValid проверяет, что позиция не является сентинелом
func (v Vec2) IsValid() bool {
	return v != Invalid
}

// Add складывает два вектора
func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

// Sub вычитает вектор
func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{X: v.X - other.X, Y: v.Y - other.Y}
}

// DistanceTo вычисляет евклидово расстояние до другой точки
func (v Vec2) DistanceTo(other Vec2) float64 {
	dx := float64(v.X - other.X)
	dy := float64(v.Y - other.Y)
	return math.Sqrt(dx*dx + dy*dy)
}

// SquareDistance возвращает "квадратное" расстояние (Чебышёва): max(|dx|, |dy|).
// Дальность атак и скиллов меряется именно так.
func (v Vec2) SquareDistance(other Vec2) int {
	return max(abs(v.X-other.X), abs(v.Y-other.Y))
}

// InRange проверяет, что other находится не дальше distance клеток
func (v Vec2) InRange(other Vec2, distance int) bool {
	return v.SquareDistance(other) <= distance
}

// StepToward возвращает соседнюю клетку на шаг ближе к target
func (v Vec2) StepToward(target Vec2) Vec2 {
	return Vec2{X: v.X + sign(target.X-v.X), Y: v.Y + sign(target.Y-v.Y)}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func sign(x int) int {
	switch {
	case x > 0:
		return 1
	case x < 0:
		return -1
	default:
		return 0
	}
}
