package ecs

import "sync"

// Component контракт объекта из пула: Reset обязан очистить все ссылки,
// чтобы следующий заёмщик не увидел данных прежнего владельца.
type Component interface {
	Reset()
}

// PoolStats счётчики пула для метрик
type PoolStats struct {
	Created  uint64
	Borrowed uint64
	Returned uint64
	Free     int
}

// Pool хранит сброшенные объекты для повторного использования.
// Пулы общие для всех карт, поэтому под мьютексом.
type Pool[T Component] struct {
	mu    sync.Mutex
	newFn func() T
	free  []T
	stats PoolStats
}

// NewPool создаёт пул с фабрикой newFn
func NewPool[T Component](newFn func() T) *Pool[T] {
	return &Pool[T]{newFn: newFn}
}

// Borrow берёт объект из списка свободных или создаёт новый
func (p *Pool[T]) Borrow() T {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.stats.Borrowed++
	if n := len(p.free); n > 0 {
		obj := p.free[n-1]
		var zero T
		p.free[n-1] = zero
		p.free = p.free[:n-1]
		return obj
	}

	p.stats.Created++
	return p.newFn()
}

// Return сбрасывает объект (ровно один раз) и кладёт его в список свободных
func (p *Pool[T]) Return(obj T) {
	obj.Reset()

	p.mu.Lock()
	p.free = append(p.free, obj)
	p.stats.Returned++
	p.mu.Unlock()
}

// Stats возвращает снимок счётчиков
func (p *Pool[T]) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := p.stats
	s.Free = len(p.free)
	return s
}
