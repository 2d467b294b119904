package ecs

import (
	"fmt"
	"sync"
)

// Store плотное хранилище компонентов одного вида, индексированное слотом сущности.
// Объекты берутся из пула при Attach и возвращаются в него при уничтожении сущности.
type Store[T Component] struct {
	name  string
	reg   *Registry
	pool  *Pool[T]
	mu    sync.RWMutex
	items []T
	has   []bool
}

// NewStore создаёт хранилище и подключает его к реестру
func NewStore[T Component](name string, reg *Registry, newFn func() T) *Store[T] {
	s := &Store[T]{
		name: name,
		reg:  reg,
		pool: NewPool(newFn),
	}
	reg.attachStore(s)
	return s
}

// Attach привязывает к сущности компонент из пула.
// Если компонент уже есть: возвращает его.
func (s *Store[T]) Attach(e Entity) T {
	if !s.reg.IsAlive(e) {
		panic(fmt.Sprintf("ecs: %s: attach к мёртвой сущности %v", s.name, e))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for int(e.Index) >= len(s.items) {
		var zero T
		s.items = append(s.items, zero)
		s.has = append(s.has, false)
	}

	if s.has[e.Index] {
		return s.items[e.Index]
	}

	obj := s.pool.Borrow()
	s.items[e.Index] = obj
	s.has[e.Index] = true
	return obj
}

// Get возвращает компонент, только если хэндл жив и компонент привязан
func (s *Store[T]) Get(e Entity) (T, bool) {
	var zero T
	if !s.reg.IsAlive(e) {
		return zero, false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if int(e.Index) >= len(s.items) || !s.has[e.Index] {
		return zero, false
	}
	return s.items[e.Index], true
}

// Has проверяет наличие компонента у живой сущности
func (s *Store[T]) Has(e Entity) bool {
	_, ok := s.Get(e)
	return ok
}

// MustGet возвращает компонент или паникует. Использовать только после проверки IsAlive.
func (s *Store[T]) MustGet(e Entity) T {
	obj, ok := s.Get(e)
	if !ok {
		panic(fmt.Sprintf("ecs: %s: нет компонента у сущности %v", s.name, e))
	}
	return obj
}

// Each обходит все привязанные компоненты; fn возвращает false, чтобы остановиться
func (s *Store[T]) Each(fn func(e Entity, obj T) bool) {
	s.mu.RLock()
	items := make([]T, 0, len(s.items))
	idxs := make([]uint32, 0, len(s.items))
	for i, ok := range s.has {
		if ok {
			items = append(items, s.items[i])
			idxs = append(idxs, uint32(i))
		}
	}
	s.mu.RUnlock()

	for i, obj := range items {
		if !fn(s.reg.handleAt(idxs[i]), obj) {
			return
		}
	}
}

// PoolStats возвращает счётчики пула хранилища
func (s *Store[T]) PoolStats() PoolStats {
	return s.pool.Stats()
}

func (s *Store[T]) release(index uint32) {
	s.mu.Lock()
	if int(index) >= len(s.items) || !s.has[index] {
		s.mu.Unlock()
		return
	}
	obj := s.items[index]
	var zero T
	s.items[index] = zero
	s.has[index] = false
	s.mu.Unlock()

	s.pool.Return(obj)
}
