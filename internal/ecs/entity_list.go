package ecs

// EntityList переиспользуемый список хэндлов (цели, касающиеся AoE и т.п.).
// Список хранит только ссылки: жизнью сущностей он не владеет.
type EntityList struct {
	items []Entity
}

var listPool = NewPool(func() *EntityList {
	return &EntityList{items: make([]Entity, 0, 16)}
})

// BorrowList берёт пустой список из общего пула
func BorrowList() *EntityList {
	return listPool.Borrow()
}

// ReturnList возвращает список в пул
func ReturnList(l *EntityList) {
	if l != nil {
		listPool.Return(l)
	}
}

// ListPoolStats счётчики пула списков
func ListPoolStats() PoolStats {
	return listPool.Stats()
}

// Reset очищает список, сохраняя ёмкость
func (l *EntityList) Reset() {
	clear(l.items)
	l.items = l.items[:0]
}

func (l *EntityList) Add(e Entity)    { l.items = append(l.items, e) }
func (l *EntityList) Len() int        { return len(l.items) }
func (l *EntityList) At(i int) Entity { return l.items[i] }
func (l *EntityList) Items() []Entity { return l.items }
func (l *EntityList) Clear()          { l.Reset() }

// Contains проверяет наличие хэндла в списке
func (l *EntityList) Contains(e Entity) bool {
	for _, x := range l.items {
		if x == e {
			return true
		}
	}
	return false
}

// AddUnique добавляет хэндл, если его ещё нет
func (l *EntityList) AddUnique(e Entity) bool {
	if l.Contains(e) {
		return false
	}
	l.Add(e)
	return true
}

// SwapFromBack удаляет элемент i, переставляя на его место последний.
// Порядок элементов не сохраняется.
func (l *EntityList) SwapFromBack(i int) {
	last := len(l.items) - 1
	l.items[i] = l.items[last]
	l.items[last] = Null
	l.items = l.items[:last]
}

// Remove удаляет первое вхождение хэндла
func (l *EntityList) Remove(e Entity) bool {
	for i, x := range l.items {
		if x == e {
			l.SwapFromBack(i)
			return true
		}
	}
	return false
}

// ClearInactive выкидывает из списка мёртвые хэндлы
func (l *EntityList) ClearInactive(reg *Registry) {
	for i := 0; i < len(l.items); i++ {
		if !reg.IsAlive(l.items[i]) {
			l.SwapFromBack(i)
			i--
		}
	}
}
