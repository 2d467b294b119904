package world

import (
	"github.com/annel0/ro-zone/internal/ecs"
	"github.com/annel0/ro-zone/internal/vec"
)

// cellSize размер ячейки индекса в клетках карты
const cellSize = 8

// cellKey представляет ключ ячейки в пространственной сетке
type cellKey struct {
	x, y int
}

func keyFor(p vec.Vec2) cellKey {
	return cellKey{x: floorDiv(p.X, cellSize), y: floorDiv(p.Y, cellSize)}
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// indexedEntity позиция сущности в индексе
type indexedEntity struct {
	pos vec.Vec2
	key cellKey
}

// SpatialIndex представляет пространственный индекс для быстрого поиска сущностей на карте.
// Принадлежит одной карте и используется только из её потока, поэтому без блокировок.
type SpatialIndex struct {
	cells    map[cellKey][]ecs.Entity
	entities map[ecs.Entity]indexedEntity
}

// NewSpatialIndex создаёт новый пространственный индекс
func NewSpatialIndex() *SpatialIndex {
	return &SpatialIndex{
		cells:    make(map[cellKey][]ecs.Entity),
		entities: make(map[ecs.Entity]indexedEntity),
	}
}

// Insert добавляет сущность в индекс
func (si *SpatialIndex) Insert(e ecs.Entity, pos vec.Vec2) {
	if _, exists := si.entities[e]; exists {
		si.Update(e, pos)
		return
	}
	key := keyFor(pos)
	si.cells[key] = append(si.cells[key], e)
	si.entities[e] = indexedEntity{pos: pos, key: key}
}

// Update обновляет позицию сущности в индексе
func (si *SpatialIndex) Update(e ecs.Entity, pos vec.Vec2) {
	indexed, exists := si.entities[e]
	if !exists {
		// Сущность не была в индексе, добавляем
		si.Insert(e, pos)
		return
	}

	key := keyFor(pos)
	if key != indexed.key {
		si.removeFromCell(indexed.key, e)
		si.cells[key] = append(si.cells[key], e)
	}
	si.entities[e] = indexedEntity{pos: pos, key: key}
}

// Remove удаляет сущность из индекса
func (si *SpatialIndex) Remove(e ecs.Entity) {
	indexed, exists := si.entities[e]
	if !exists {
		return
	}
	si.removeFromCell(indexed.key, e)
	delete(si.entities, e)
}

func (si *SpatialIndex) removeFromCell(key cellKey, e ecs.Entity) {
	list := si.cells[key]
	for i, x := range list {
		if x == e {
			last := len(list) - 1
			list[i] = list[last]
			list[last] = ecs.Null
			list = list[:last]
			break
		}
	}
	if len(list) == 0 {
		delete(si.cells, key)
		return
	}
	si.cells[key] = list
}

// Len количество сущностей в индексе
func (si *SpatialIndex) Len() int {
	return len(si.entities)
}

// Position последняя известная индексу позиция
func (si *SpatialIndex) Position(e ecs.Entity) (vec.Vec2, bool) {
	indexed, ok := si.entities[e]
	return indexed.pos, ok
}

// QueryArea добавляет в out все сущности внутри области (границы включительно)
func (si *SpatialIndex) QueryArea(area vec.Area, out *ecs.EntityList) {
	if area.IsEmpty() {
		return
	}
	minKey := keyFor(vec.Vec2{X: area.MinX, Y: area.MinY})
	maxKey := keyFor(vec.Vec2{X: area.MaxX, Y: area.MaxY})

	for x := minKey.x; x <= maxKey.x; x++ {
		for y := minKey.y; y <= maxKey.y; y++ {
			for _, e := range si.cells[cellKey{x: x, y: y}] {
				if area.Contains(si.entities[e].pos) {
					out.Add(e)
				}
			}
		}
	}
}
