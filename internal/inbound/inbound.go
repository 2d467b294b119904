// Package inbound принимает декодированные запросы клиентов и исполняет их в потоке карты игрока.
//
// Сетевой слой сюда не входит: запрос приходит уже разобранным (из шины или из тестов),
// Router проверяет его и ставит команду в очередь карты через World.SubmitForPlayer.
package inbound

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/annel0/ro-zone/internal/ecs"
	"github.com/annel0/ro-zone/internal/eventbus"
	"github.com/annel0/ro-zone/internal/logging"
	"github.com/annel0/ro-zone/internal/metrics"
	"github.com/annel0/ro-zone/internal/world"
)

// EventTypeRequest тип события шины с запросом клиента
const EventTypeRequest = "ZoneRequest"

var (
	// ErrUnknownPacket нет обработчика для типа запроса
	ErrUnknownPacket = errors.New("неизвестный тип запроса")
	// ErrBadParams параметров меньше, чем нужно обработчику
	ErrBadParams = errors.New("неверные параметры запроса")
)

// PacketType тип запроса клиента
type PacketType uint16

const (
	PacketNone PacketType = iota
	PacketStartMove
	PacketAttack
	PacketSitStand
	PacketStopAction
	PacketStopImmediate
	PacketSkill
	PacketChangeTarget
	PacketRespawn
	PacketPickUpItem
	PacketAdminLevelUp
	PacketAdminChangeJob
	PacketEquipItem
	PacketUnequipItem
)

var packetNames = [...]string{
	"None", "StartMove", "Attack", "SitStand", "StopAction", "StopImmediate", "Skill",
	"ChangeTarget", "Respawn", "PickUpItem", "AdminLevelUp", "AdminChangeJob", "EquipItem", "UnequipItem",
}

func (t PacketType) String() string {
	if int(t) < len(packetNames) {
		return packetNames[t]
	}
	return "Packet(" + strconv.Itoa(int(t)) + ")"
}

// ParsePacketType тип запроса по имени, например "StartMove"
func ParsePacketType(name string) (PacketType, error) {
	for i, n := range packetNames {
		if i > 0 && n == name {
			return PacketType(i), nil
		}
	}
	return PacketNone, fmt.Errorf("%w: %q", ErrUnknownPacket, name)
}

// Request запрос клиента.
// Actor и Target: упакованные хэндлы (ecs.Entity.Pack).
type Request struct {
	Actor  uint64     `msgpack:"actor"`
	Type   PacketType `msgpack:"type"`
	Target uint64     `msgpack:"target,omitempty"`
	Params []int      `msgpack:"params,omitempty"`
	Text   string     `msgpack:"text,omitempty"`
}

// Handler исполняет запрос в потоке карты. false: запрос отклонён.
type Handler func(p *world.Player, req *Request) bool

type entry struct {
	handler   Handler
	minParams int
}

// Registry статическая таблица обработчиков
type Registry struct {
	handlers map[PacketType]entry
}

// NewRegistry создаёт пустой реестр
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[PacketType]entry)}
}

// Register добавляет обработчик. Повторная регистрация заменяет прежний.
func (r *Registry) Register(t PacketType, minParams int, h Handler) {
	r.handlers[t] = entry{handler: h, minParams: minParams}
}

// Lookup возвращает обработчик типа
func (r *Registry) Lookup(t PacketType) (Handler, bool) {
	e, ok := r.handlers[t]
	return e.handler, ok
}

// Len количество зарегистрированных типов
func (r *Registry) Len() int { return len(r.handlers) }

// Router проверяет запросы и передаёт их на карту игрока
type Router struct {
	world    *world.World
	registry *Registry
	metrics  *metrics.Registry
	log      *logging.Logger
}

// NewRouter создаёт маршрутизатор. m может быть nil.
func NewRouter(w *world.World, r *Registry, m *metrics.Registry) *Router {
	return &Router{
		world:    w,
		registry: r,
		metrics:  m,
		log:      logging.GetInboundLogger(),
	}
}

// Dispatch ставит запрос в очередь карты игрока.
// Ошибка означает, что запрос не дошёл до карты; отказ самой симуляции ошибкой не считается.
func (r *Router) Dispatch(req *Request) error {
	e, ok := r.registry.handlers[req.Type]
	if !ok {
		r.count(req.Type, "unknown")
		return fmt.Errorf("%w: %v", ErrUnknownPacket, req.Type)
	}
	if len(req.Params) < e.minParams {
		r.count(req.Type, "bad_params")
		return fmt.Errorf("%w: %v ждёт %d, пришло %d", ErrBadParams, req.Type, e.minParams, len(req.Params))
	}

	actor := ecs.Unpack(req.Actor)
	err := r.world.SubmitForPlayer(actor, func(p *world.Player) {
		if e.handler(p, req) {
			r.count(req.Type, "ok")
		} else {
			r.count(req.Type, "rejected")
		}
	})
	if err != nil {
		r.count(req.Type, "undelivered")
		return err
	}
	return nil
}

func (r *Router) count(t PacketType, result string) {
	if r.metrics != nil {
		r.metrics.InboundRequests.WithLabelValues(t.String(), result).Inc()
	}
}

// Subscribe подписывает маршрутизатор на запросы из шины
func (r *Router) Subscribe(ctx context.Context, bus eventbus.EventBus) (eventbus.Subscription, error) {
	return bus.Subscribe(ctx, eventbus.Filter{Types: []string{EventTypeRequest}}, func(ctx context.Context, ev *eventbus.Envelope) {
		req, err := DecodeRequest(ev.Payload)
		if err != nil {
			r.log.Warn("Запрос %s от %s не разобран: %v", ev.ID, ev.Source, err)
			return
		}
		if err := r.Dispatch(req); err != nil {
			r.log.Debug("Запрос %v игрока %v: %v", req.Type, ecs.Unpack(req.Actor), err)
		}
	})
}

// EncodeRequest кодирует запрос в msgpack
func EncodeRequest(req *Request) ([]byte, error) {
	return msgpack.Marshal(req)
}

// DecodeRequest разбирает запрос из msgpack
func DecodeRequest(payload []byte) (*Request, error) {
	var req Request
	if err := msgpack.Unmarshal(payload, &req); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	return &req, nil
}
