package vec

import "fmt"

// Area прямоугольная область на сетке, границы включительно
type Area struct {
	MinX, MinY int
	MaxX, MaxY int
}

// ZeroArea пустая область, не содержит ни одной клетки
var ZeroArea = Area{MinX: 0, MinY: 0, MaxX: -1, MaxY: -1}

// AreaAround создаёт квадрат с центром center и "радиусом" distance.
// distance = 2 даёт область 5x5.
func AreaAround(center Vec2, distance int) Area {
	return AreaAroundWH(center, distance, distance)
}

// AreaAroundWH создаёт область с центром center и полуразмерами halfW/halfH
func AreaAroundWH(center Vec2, halfW, halfH int) Area {
	return Area{
		MinX: center.X - halfW,
		MinY: center.Y - halfH,
		MaxX: center.X + halfW,
		MaxY: center.Y + halfH,
	}
}

// Contains проверяет, лежит ли позиция внутри области
func (a Area) Contains(p Vec2) bool {
	return p.X >= a.MinX && p.X <= a.MaxX && p.Y >= a.MinY && p.Y <= a.MaxY
}

// IsEmpty возвращает true, если область не содержит клеток
func (a Area) IsEmpty() bool {
	return a.MaxX < a.MinX || a.MaxY < a.MinY
}

// Width возвращает ширину области в клетках
func (a Area) Width() int {
	if a.IsEmpty() {
		return 0
	}
	return a.MaxX - a.MinX + 1
}

// Height возвращает высоту области в клетках
func (a Area) Height() int {
	if a.IsEmpty() {
		return 0
	}
	return a.MaxY - a.MinY + 1
}

// ClipTo обрезает область по границам bounds
func (a Area) ClipTo(bounds Area) Area {
	return Area{
		MinX: max(a.MinX, bounds.MinX),
		MinY: max(a.MinY, bounds.MinY),
		MaxX: min(a.MaxX, bounds.MaxX),
		MaxY: min(a.MaxY, bounds.MaxY),
	}
}

// Overlaps проверяет пересечение двух областей
func (a Area) Overlaps(other Area) bool {
	return a.MinX <= other.MaxX && a.MaxX >= other.MinX &&
		a.MinY <= other.MaxY && a.MaxY >= other.MinY
}

func (a Area) String() string {
	return fmt.Sprintf("[%d,%d..%d,%d]", a.MinX, a.MinY, a.MaxX, a.MaxY)
}
