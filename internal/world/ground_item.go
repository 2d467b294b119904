package world

import (
	"github.com/annel0/ro-zone/internal/vec"
)

// groundItemLifetime сколько секунд предмет лежит на земле
const groundItemLifetime = 60.0

// GroundItem выпавший предмет
type GroundItem struct {
	ID         int
	ItemID     int
	Count      int
	Position   vec.Vec2
	Expiration float64
}

// DropItem кладёт предмет на землю и возвращает его dropID
func (m *Map) DropItem(itemID, count int, pos vec.Vec2) int {
	m.nextDropID++
	item := &GroundItem{
		ID:         m.nextDropID,
		ItemID:     itemID,
		Count:      count,
		Position:   pos,
		Expiration: m.Time.Elapsed + groundItemLifetime,
	}
	m.groundItems[item.ID] = item

	m.broadcastArea(pos, func(m *Map) {
		m.Commands.SendItemDrop(item.ID, itemID, count, pos)
	})
	return item.ID
}

// TryGetGroundItem ищет предмет на земле
func (m *Map) TryGetGroundItem(dropID int) (*GroundItem, bool) {
	item, ok := m.groundItems[dropID]
	return item, ok
}

// PickUpOrRemoveItem убирает предмет с земли. picker == nil: предмет просто исчез.
func (m *Map) PickUpOrRemoveItem(picker *WorldObject, dropID int) bool {
	item, ok := m.groundItems[dropID]
	if !ok {
		return false
	}
	delete(m.groundItems, dropID)

	m.broadcastArea(item.Position, func(m *Map) {
		if picker != nil {
			m.Commands.SendItemPickup(picker.Entity, dropID)
		} else {
			m.Commands.SendItemRemove(dropID)
		}
	})
	return true
}

// GroundItemCount количество предметов на земле
func (m *Map) GroundItemCount() int {
	return len(m.groundItems)
}

func (m *Map) updateGroundItems() {
	now := m.Time.Elapsed
	for id, item := range m.groundItems {
		if item.Expiration < now {
			m.PickUpOrRemoveItem(nil, id)
		}
	}
}
