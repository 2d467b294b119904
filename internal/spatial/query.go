// Package spatial описывает проходимость карты и видимость между клетками.
package spatial

import "github.com/annel0/ro-zone/internal/vec"

// Query запросы к геометрии карты, которые делает симуляция.
// Все методы только читают данные.
type Query interface {
	// HasLineOfSight проверяет, что между клетками нет препятствий
	HasLineOfSight(a, b vec.Vec2) bool
	// IsWalkable проверяет, что по клетке можно пройти
	IsWalkable(p vec.Vec2) bool
	// RandomWalkablePositionInArea возвращает случайную проходимую клетку области или vec.Invalid
	RandomWalkablePositionInArea(area vec.Area) vec.Vec2
	// FindPath строит путь от from до клетки на расстоянии не больше rangeToTarget от to.
	// Возвращает шаги без стартовой клетки; nil, если пути нет.
	FindPath(from, to vec.Vec2, rangeToTarget int) []vec.Vec2
	// Bounds возвращает границы карты
	Bounds() vec.Area
}
