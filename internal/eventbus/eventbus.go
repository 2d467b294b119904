package eventbus

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// ErrClosed возвращается при публикации в закрытую шину
var ErrClosed = errors.New("eventbus closed")

// Envelope контейнер события зоны.
type Envelope struct {
	ID        string            `msgpack:"id"`      // UUID
	Timestamp time.Time         `msgpack:"ts"`      // время создания (UTC)
	Source    string            `msgpack:"src"`     // источник, например zone/prontera
	EventType string            `msgpack:"type"`    // ZoneBatch, ZoneLifecycle…
	Version   int               `msgpack:"ver"`     // версия схемы полезной нагрузки
	Priority  int               `msgpack:"prio"`    // 0=Low … 9=Critical
	Payload   []byte            `msgpack:"payload"` // msgpack, возможно сжатый zstd
	Metadata  map[string]string `msgpack:"meta,omitempty"`
}

// Filter позволяет подписаться только на нужные события.
// Источник с "*" на конце совпадает по префиксу: "zone/*": все карты.
type Filter struct {
	Types   []string // пусто: все типы
	Sources []string // пусто: все источники
}

// Match проверяет событие по фильтру
func (f Filter) Match(ev *Envelope) bool {
	return matchAny(ev.EventType, f.Types) && matchAny(ev.Source, f.Sources)
}

func matchAny(val string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, p := range patterns {
		if prefix, ok := strings.CutSuffix(p, "*"); ok {
			if strings.HasPrefix(val, prefix) {
				return true
			}
		} else if p == val {
			return true
		}
	}
	return false
}

// Subscription возвращается при подписке
type Subscription interface {
	Unsubscribe()
}

// Handler потребляет события.
type Handler func(ctx context.Context, ev *Envelope)

// Stats агрегированные метрики шины.
type Stats struct {
	Published uint64
	Consumed  uint64
	Dropped   uint64
	InFlight  int
}

// EventBus шина, в которую зона отдаёт пачки уведомлений.
type EventBus interface {
	Publish(ctx context.Context, ev *Envelope) error
	Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error)
	Metrics() Stats
	Close() error
}

//================ In-Memory implementation =================//

// memoryBus рассылает события из одной горутины, поэтому подписчик
// видит их в порядке публикации.
type memoryBus struct {
	mu          sync.RWMutex
	subscribers map[uint64]*subscriber
	nextID      uint64

	published atomic.Uint64
	consumed  atomic.Uint64
	dropped   atomic.Uint64

	buffer    chan *Envelope
	closing   chan struct{}
	closeOnce sync.Once
	done      chan struct{}
}

type subscriber struct {
	filter  Filter
	handler Handler
	ctx     context.Context
	cancel  context.CancelFunc
}

// NewMemoryBus создаёт in-memory шину с указанным буфером
func NewMemoryBus(capacity int) EventBus {
	if capacity <= 0 {
		capacity = 256
	}
	mb := &memoryBus{
		subscribers: make(map[uint64]*subscriber),
		buffer:      make(chan *Envelope, capacity),
		closing:     make(chan struct{}),
		done:        make(chan struct{}),
	}
	go mb.dispatchLoop()
	return mb
}

// Publish кладёт событие в буфер. При полном буфере событие с приоритетом
// ниже 5 отбрасывается, остальные ждут места.
func (mb *memoryBus) Publish(ctx context.Context, ev *Envelope) error {
	select {
	case <-mb.closing:
		return ErrClosed
	default:
	}

	select {
	case mb.buffer <- ev:
		mb.published.Add(1)
		return nil
	default:
	}

	if ev.Priority < 5 {
		mb.dropped.Add(1)
		return nil
	}
	select {
	case mb.buffer <- ev:
		mb.published.Add(1)
		return nil
	case <-mb.closing:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (mb *memoryBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	select {
	case <-mb.closing:
		return nil, ErrClosed
	default:
	}

	mb.mu.Lock()
	defer mb.mu.Unlock()
	id := mb.nextID
	mb.nextID++
	cctx, cancel := context.WithCancel(ctx)
	mb.subscribers[id] = &subscriber{filter: f, handler: h, ctx: cctx, cancel: cancel}
	return &memSub{bus: mb, id: id}, nil
}

func (mb *memoryBus) Metrics() Stats {
	return Stats{
		Published: mb.published.Load(),
		Consumed:  mb.consumed.Load(),
		Dropped:   mb.dropped.Load(),
		InFlight:  len(mb.buffer),
	}
}

// Close доставляет то, что уже в буфере, и останавливает рассылку.
// Публикация, совпавшая по времени с закрытием, может потеряться.
func (mb *memoryBus) Close() error {
	mb.closeOnce.Do(func() { close(mb.closing) })
	<-mb.done
	return nil
}

func (mb *memoryBus) dispatchLoop() {
	defer close(mb.done)
	for {
		select {
		case ev := <-mb.buffer:
			mb.deliver(ev)
		case <-mb.closing:
			for {
				select {
				case ev := <-mb.buffer:
					mb.deliver(ev)
				default:
					return
				}
			}
		}
	}
}

func (mb *memoryBus) deliver(ev *Envelope) {
	mb.mu.RLock()
	subs := make([]*subscriber, 0, len(mb.subscribers))
	for _, sub := range mb.subscribers {
		subs = append(subs, sub)
	}
	mb.mu.RUnlock()

	for _, sub := range subs {
		if sub.ctx.Err() != nil || !sub.filter.Match(ev) {
			continue
		}
		sub.handler(sub.ctx, ev)
		mb.consumed.Add(1)
	}
}

type memSub struct {
	bus *memoryBus
	id  uint64
}

func (s *memSub) Unsubscribe() {
	s.bus.mu.Lock()
	if sub, ok := s.bus.subscribers[s.id]; ok {
		sub.cancel()
		delete(s.bus.subscribers, s.id)
	}
	s.bus.mu.Unlock()
}
