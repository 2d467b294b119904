package ecs

import "sync"

// releaser хранилище компонентов, которое освобождает слот при уничтожении сущности
type releaser interface {
	release(index uint32)
}

// Registry выдаёт хэндлы сущностей и следит за их жизнью.
// Игровой логики не содержит.
//
// IsAlive можно вызывать из любой горутины (например, из сетевого слоя),
// Create/Destroy: только из потока симуляции.
type Registry struct {
	mu          sync.RWMutex
	generations []uint32
	types       []EntityType
	free        []uint32
	stores      []releaser
	alive       int
}

// NewRegistry создаёт пустой реестр
func NewRegistry(capacity int) *Registry {
	return &Registry{
		generations: make([]uint32, 0, capacity),
		types:       make([]EntityType, 0, capacity),
		free:        make([]uint32, 0, capacity/4),
	}
}

func (r *Registry) attachStore(s releaser) {
	r.mu.Lock()
	r.stores = append(r.stores, s)
	r.mu.Unlock()
}

// Create выделяет слот (из списка свободных или новый) и возвращает свежий хэндл
func (r *Registry) Create(t EntityType) Entity {
	r.mu.Lock()
	defer r.mu.Unlock()

	var idx uint32
	if n := len(r.free); n > 0 {
		idx = r.free[n-1]
		r.free = r.free[:n-1]
	} else {
		idx = uint32(len(r.generations))
		r.generations = append(r.generations, 1)
		r.types = append(r.types, EntityTypeNone)
	}

	r.types[idx] = t
	r.alive++
	return Entity{Index: idx, Generation: r.generations[idx]}
}

// Destroy уничтожает сущность: поколение слота увеличивается (старые хэндлы
// навсегда становятся недействительными), все компоненты сбрасываются и
// возвращаются в пулы, слот уходит в список свободных.
// Для устаревшего хэндла ничего не делает и возвращает false.
func (r *Registry) Destroy(e Entity) bool {
	r.mu.Lock()
	if !r.isAliveLocked(e) {
		r.mu.Unlock()
		return false
	}
	r.generations[e.Index]++
	if r.generations[e.Index] == 0 {
		// переполнение: 0 зарезервирован под Null
		r.generations[e.Index] = 1
	}
	r.types[e.Index] = EntityTypeNone
	stores := r.stores
	r.mu.Unlock()

	// Reset компонентов может обращаться к реестру, поэтому вызывается без блокировки.
	// Слот ещё не в списке свободных, так что повторно выдан он быть не может.
	for _, s := range stores {
		s.release(e.Index)
	}

	r.mu.Lock()
	r.free = append(r.free, e.Index)
	r.alive--
	r.mu.Unlock()
	return true
}

// IsAlive проверяет действительность хэндла
func (r *Registry) IsAlive(e Entity) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isAliveLocked(e)
}

func (r *Registry) isAliveLocked(e Entity) bool {
	if e.Generation == 0 || int(e.Index) >= len(r.generations) {
		return false
	}
	return r.generations[e.Index] == e.Generation
}

// TypeOf возвращает тип живой сущности или EntityTypeNone
func (r *Registry) TypeOf(e Entity) EntityType {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.isAliveLocked(e) {
		return EntityTypeNone
	}
	return r.types[e.Index]
}

// handleAt возвращает текущий хэндл слота
func (r *Registry) handleAt(idx uint32) Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(idx) >= len(r.generations) {
		return Null
	}
	return Entity{Index: idx, Generation: r.generations[idx]}
}

// Count возвращает число живых сущностей
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.alive
}

// CountByType возвращает число живых сущностей по типам
func (r *Registry) CountByType() map[EntityType]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	res := make(map[EntityType]int)
	for _, t := range r.types {
		if t != EntityTypeNone {
			res[t]++
		}
	}
	return res
}
