package world

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/annel0/ro-zone/internal/combat"
	"github.com/annel0/ro-zone/internal/data"
	"github.com/annel0/ro-zone/internal/ecs"
	"github.com/annel0/ro-zone/internal/logging"
	"github.com/annel0/ro-zone/internal/outbound"
	"github.com/annel0/ro-zone/internal/spatial"
	"github.com/annel0/ro-zone/internal/vec"
)

// Ошибки размещения сущностей
var (
	ErrUnknownMonster  = errors.New("неизвестный монстр")
	ErrUnknownBehavior = errors.New("неизвестное поведение NPC")
	ErrNoWalkableCell  = errors.New("нет проходимой клетки")
	ErrQueueFull       = errors.New("очередь команд карты переполнена")
)

// Clock игровое время карты в секундах
type Clock struct {
	Elapsed float64
	Delta   float64
}

// Command действие, выполняемое в потоке карты в начале тика
type Command func(m *Map)

type pendingSpawn struct {
	code string
	area vec.Area
	at   float64
}

// Map одна карта зоны. Все её данные меняются только из её горутины:
// снаружи доступ идёт через Enqueue.
type Map struct {
	Name     string
	Walk     spatial.Query
	Time     Clock
	Resolver *combat.Resolver
	Commands *outbound.CommandBuilder

	world *World
	tick  uint64

	index        *SpatialIndex
	actors       *ecs.EntityList
	aoes         []*AreaOfEffect
	groundItems  map[int]*GroundItem
	nextDropID   int
	respawns     []pendingSpawn
	destroyQueue []ecs.Entity

	commands chan Command
	tracer   trace.Tracer
	log      *logging.Logger
}

func newMap(w *World, name string, walk spatial.Query, seed uint64) *Map {
	queue := w.opts.CommandQueue
	if queue <= 0 {
		queue = 1024
	}
	return &Map{
		Name:        name,
		Walk:        walk,
		Resolver:    combat.NewResolver(seed),
		Commands:    outbound.NewCommandBuilder(name),
		world:       w,
		index:       NewSpatialIndex(),
		actors:      ecs.BorrowList(),
		groundItems: make(map[int]*GroundItem),
		commands:    make(chan Command, queue),
		tracer:      otel.Tracer("zone/sim"),
		log:         logging.GetSimLogger(),
	}
}

// World мир, которому принадлежит карта
func (m *Map) World() *World { return m.world }

// Tick номер последнего выполненного тика
func (m *Map) Tick() uint64 { return m.tick }

// Enqueue ставит команду в очередь карты, не блокируя.
// При переполнении команда отбрасывается.
func (m *Map) Enqueue(cmd Command) error {
	select {
	case m.commands <- cmd:
		return nil
	default:
		if m.world.metrics != nil {
			m.world.metrics.CommandsDropped.WithLabelValues(m.Name).Inc()
		}
		m.log.Warn("⚠️ Очередь команд карты %s переполнена, команда отброшена", m.Name)
		return ErrQueueFull
	}
}

// EnqueueWait ставит команду, ожидая место в очереди не дольше timeout
func (m *Map) EnqueueWait(cmd Command, timeout time.Duration) error {
	select {
	case m.commands <- cmd:
		return nil
	default:
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case m.commands <- cmd:
		return nil
	case <-timer.C:
		return ErrQueueFull
	}
}

// ProcessCommands выполняет все накопившиеся команды
func (m *Map) ProcessCommands() int {
	n := 0
	for {
		select {
		case cmd := <-m.commands:
			cmd(m)
			n++
		default:
			return n
		}
	}
}

// Run крутит тики карты до отмены ctx
func (m *Map) Run(ctx context.Context) {
	interval := m.world.opts.TickInterval
	if interval <= 0 {
		interval = time.Second / 20
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.log.Info("🗺️ Карта %s запущена, тик %v", m.Name, interval)
	for {
		select {
		case <-ctx.Done():
			m.log.Info("🛑 Карта %s остановлена на тике %d", m.Name, m.tick)
			return
		case <-ticker.C:
			start := time.Now()
			m.Update(ctx, interval.Seconds())
			if elapsed := time.Since(start); elapsed > interval {
				if m.world.metrics != nil {
					m.world.metrics.TickOverruns.WithLabelValues(m.Name).Inc()
				}
				m.log.Debug("Тик %d карты %s занял %v", m.tick, m.Name, elapsed)
			}
		}
	}
}

// Update один тик карты длиной dt секунд
func (m *Map) Update(ctx context.Context, dt float64) {
	_, span := m.tracer.Start(ctx, "map.tick", trace.WithAttributes(
		attribute.String("zone.map", m.Name),
		attribute.Int64("zone.tick", int64(m.tick+1)),
	))
	defer span.End()
	start := time.Now()

	m.tick++
	m.Time.Delta = dt
	m.Time.Elapsed += dt

	cmds := m.ProcessCommands()
	m.updateActors()
	m.updateAreasOfEffect()
	m.updateGroundItems()
	m.updateRespawns()
	m.flushDestroyQueue()
	sent := m.flush()

	span.SetAttributes(
		attribute.Int("zone.commands", cmds),
		attribute.Int("zone.actors", m.actors.Len()),
		attribute.Int("zone.messages", sent),
	)
	if mt := m.world.metrics; mt != nil {
		mt.TickDuration.WithLabelValues(m.Name).Observe(time.Since(start).Seconds())
		mt.ActiveAoE.WithLabelValues(m.Name).Set(float64(len(m.aoes)))
		m.reportEntities()
	}
}

func (m *Map) reportEntities() {
	var players, monsters, npcs int
	reg := m.world.Registry
	for _, e := range m.actors.Items() {
		switch reg.TypeOf(e) {
		case ecs.EntityTypePlayer:
			players++
		case ecs.EntityTypeMonster:
			monsters++
		case ecs.EntityTypeNpc:
			npcs++
		}
	}
	g := m.world.metrics.Entities
	g.WithLabelValues(m.Name, ecs.EntityTypePlayer.String()).Set(float64(players))
	g.WithLabelValues(m.Name, ecs.EntityTypeMonster.String()).Set(float64(monsters))
	g.WithLabelValues(m.Name, ecs.EntityTypeNpc.String()).Set(float64(npcs))
}

// updateActors обновляет всех на карте. Список копируется: по ходу тика
// сущности умирают, уходят с карты и появляются.
func (m *Map) updateActors() {
	w := m.world
	snapshot := ecs.BorrowList()
	defer ecs.ReturnList(snapshot)
	for _, e := range m.actors.Items() {
		snapshot.Add(e)
	}

	for _, e := range snapshot.Items() {
		if !m.Holds(e) {
			continue
		}
		obj, ok := w.Objects.Get(e)
		if !ok {
			continue
		}

		switch obj.Type {
		case ecs.EntityTypePlayer:
			if p, ok := w.Players.Get(e); ok {
				p.Update()
			}
		case ecs.EntityTypeMonster:
			if mon, ok := w.Monsters.Get(e); ok {
				mon.Update()
			}
		case ecs.EntityTypeNpc:
			if npc, ok := w.Npcs.Get(e); ok {
				npc.Update()
			}
		}

		if !m.Holds(e) {
			continue
		}
		obj.updateMovement()

		if obj.Combat != nil && m.Holds(e) {
			obj.Combat.Update()
		}
	}
}

func (m *Map) flush() int {
	batch := m.Commands.Take(m.tick)
	if batch == nil {
		return 0
	}
	if out := m.world.outbox; out != nil {
		out.Submit(batch)
	}
	return len(batch.Messages)
}

// --- размещение сущностей ---

// AddEntity ставит объект на карту и рассылает его появление
func (m *Map) AddEntity(o *WorldObject, pos vec.Vec2) {
	o.Map = m
	o.Position = pos
	o.TargetPosition = vec.Invalid
	o.IsActive = true
	m.index.Insert(o.Entity, pos)
	m.actors.AddUnique(o.Entity)
	m.refreshVisibility(o)
}

// Holds стоит ли сущность на этой карте. Читает только данные карты, поэтому
// верно и для игрока, которого только что передали другой карте: поля чужой
// сущности можно читать только после этой проверки.
func (m *Map) Holds(e ecs.Entity) bool {
	_, ok := m.index.Position(e)
	return ok
}

// randomCellNear случайная проходимая клетка в радиусе area от pos, иначе сама pos.
// Генератор сетки принадлежит карте, вызывать только из её потока.
func (m *Map) randomCellNear(pos vec.Vec2, area int) vec.Vec2 {
	if area <= 0 {
		return pos
	}
	zone := vec.AreaAround(pos, area).ClipTo(m.Walk.Bounds())
	if rnd := m.Walk.RandomWalkablePositionInArea(zone); rnd.IsValid() {
		return rnd
	}
	return pos
}

// AddPlayer ставит игрока на карту с защитой от атак после появления
func (m *Map) AddPlayer(p *Player, pos vec.Vec2) {
	if !m.Walk.IsWalkable(pos) {
		if alt := m.Walk.RandomWalkablePositionInArea(vec.AreaAround(pos, 5).ClipTo(m.Walk.Bounds())); alt.IsValid() {
			pos = alt
		}
	}
	m.AddEntity(p.Character, pos)
	p.Character.SetSpawnImmunity()
	p.SetRegenTickTime(m.Time.Elapsed + regenIntervalStanding)
	m.world.trackPlayer(p.Entity, m.Name)
	m.log.Debug("Игрок %s появился на %s в %v", p.Name, m.Name, pos)
}

// SpawnMonster создаёт монстра по коду в случайной проходимой клетке области.
// Пустая область: вся карта.
func (m *Map) SpawnMonster(code string, area vec.Area) (*Monster, error) {
	info := data.Current().Monster(code)
	if data.IsSentinelMonster(info) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMonster, code)
	}
	zone := m.Walk.Bounds()
	if !area.IsEmpty() {
		zone = area.ClipTo(zone)
	}
	pos := m.Walk.RandomWalkablePositionInArea(zone)
	if !pos.IsValid() {
		return nil, fmt.Errorf("%w: %s в %v", ErrNoWalkableCell, m.Name, zone)
	}
	return m.SpawnMonsterAt(info, pos, area), nil
}

// SpawnMonsterAt создаёт монстра в заданной клетке
func (m *Map) SpawnMonsterAt(info *data.MonsterInfo, pos vec.Vec2, spawnArea vec.Area) *Monster {
	w := m.world
	e := w.Registry.Create(ecs.EntityTypeMonster)
	obj := w.Objects.Attach(e)
	ce := w.Combatants.Attach(e)
	mon := w.Monsters.Attach(e)

	obj.Entity, obj.Type, obj.Combat = e, ecs.EntityTypeMonster, ce
	ce.Entity, ce.Character, ce.Monster = e, obj, mon
	mon.Entity, mon.Character, mon.CombatEntity = e, obj, ce

	obj.Map = m
	obj.Position = pos
	mon.Init(info, spawnArea)
	m.AddEntity(obj, pos)
	return mon
}

// SpawnNpc создаёт NPC с поведением из реестра
func (m *Map) SpawnNpc(name, behavior string, params NpcParams, owner ecs.Entity) (*Npc, error) {
	w := m.world
	b, ok := w.Behaviors.Get(behavior)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBehavior, behavior)
	}
	pos := vec.Vec2{X: params.X, Y: params.Y}
	if !m.Walk.Bounds().Contains(pos) {
		return nil, fmt.Errorf("%w: %v вне карты %s", ErrNoWalkableCell, pos, m.Name)
	}

	e := w.Registry.Create(ecs.EntityTypeNpc)
	obj := w.Objects.Attach(e)
	npc := w.Npcs.Attach(e)
	obj.Entity, obj.Type, obj.Name = e, ecs.EntityTypeNpc, name
	npc.Entity, npc.Character = e, obj
	npc.Behavior, npc.BehaviorName = b, behavior
	npc.Params = params
	npc.Values = params.Values
	npc.Owner = owner

	m.AddEntity(obj, pos)
	b.Init(npc)
	return npc, nil
}

// RemoveEntity снимает объект с карты. Погибшие сохраняют ссылку на карту
// до уничтожения в конце тика.
func (m *Map) RemoveEntity(o *WorldObject, reason RemovalReason) {
	if o.Map != m || !o.IsActive {
		return
	}

	if viewers := o.viewers; viewers != nil {
		m.Commands.AddRecipients(viewers)
		m.Commands.SendEntityDisappear(o.Entity, int(reason))
		m.Commands.ClearRecipients()
		for _, v := range viewers.Items() {
			if viewer, ok := m.world.Objects.Get(v); ok && viewer.inSight != nil {
				viewer.inSight.Remove(o.Entity)
			}
		}
		viewers.Clear()
	}
	if sight := o.inSight; sight != nil {
		for _, s := range sight.Items() {
			if other, ok := m.world.Objects.Get(s); ok && other.viewers != nil {
				other.viewers.Remove(o.Entity)
			}
		}
		sight.Clear()
	}

	o.path = o.path[:0]
	o.pathIndex = 0
	if o.State == StateMoving {
		o.State = StateIdle
	}
	m.index.Remove(o.Entity)
	m.actors.Remove(o.Entity)
	o.IsActive = false
	if reason != RemovalDied {
		o.Map = nil
	}
}

// RemoveNpc убирает NPC вместе с его областью эффекта
func (m *Map) RemoveNpc(n *Npc) {
	n.EndAreaOfEffect()
	m.RemoveEntity(n.Character, RemovalDespawn)
	m.DestroyLater(n.Entity)
}

// DestroyLater уничтожает сущность в конце тика, когда на неё больше никто не ссылается
func (m *Map) DestroyLater(e ecs.Entity) {
	m.destroyQueue = append(m.destroyQueue, e)
}

func (m *Map) flushDestroyQueue() {
	for i, e := range m.destroyQueue {
		if obj, ok := m.world.Objects.Get(e); ok && m.Holds(e) {
			m.RemoveEntity(obj, RemovalDespawn)
		}
		m.world.Registry.Destroy(e)
		m.destroyQueue[i] = ecs.Null
	}
	m.destroyQueue = m.destroyQueue[:0]
}

// MoveEntity переводит объект на соседнюю клетку: индекс, видимость, касания областей
func (m *Map) MoveEntity(o *WorldObject, next vec.Vec2) {
	prev := o.Position
	o.Position = next
	m.index.Update(o.Entity, next)
	m.refreshVisibility(o)

	for i := 0; i < len(m.aoes); i++ {
		aoe := m.aoes[i]
		if !aoe.IsActive || aoe.SourceEntity == o.Entity {
			continue
		}
		if aoe.HasTouchedAoE(prev, next) {
			aoe.OnAoETouch(o)
			// касание могло увести объект, дальше он принадлежит другой карте
			if !m.Holds(o.Entity) {
				return
			}
		}
	}
}

// TeleportEntity мгновенно переносит объект в пределах карты. Касания областей не срабатывают.
func (m *Map) TeleportEntity(o *WorldObject, pos vec.Vec2) {
	if o.Map != m {
		return
	}
	o.path = o.path[:0]
	o.pathIndex = 0
	if o.State == StateMoving {
		o.State = StateIdle
	}
	o.Position = pos
	m.index.Update(o.Entity, pos)

	m.broadcast(o, func(m *Map) {
		m.Commands.SendTeleport(o.Entity, pos)
	})
	m.refreshVisibility(o)
}

// --- рассылка ---

// broadcast рассылает уведомление всем, кто видит o, и самому o, если это игрок
func (m *Map) broadcast(o *WorldObject, send func(m *Map)) {
	if o.viewers != nil {
		m.Commands.AddRecipients(o.viewers)
	}
	if o.Type == ecs.EntityTypePlayer {
		m.Commands.AddRecipient(o.Entity)
	}
	if m.Commands.HasRecipients() {
		send(m)
	}
	m.Commands.ClearRecipients()
}

// Broadcast рассылает уведомление всем, кто видит o. Для скиллов и поведений NPC.
func (m *Map) Broadcast(o *WorldObject, send func(m *Map)) { m.broadcast(o, send) }

// BroadcastArea рассылает уведомление игрокам, видящим точку
func (m *Map) BroadcastArea(pos vec.Vec2, send func(m *Map)) { m.broadcastArea(pos, send) }

// broadcastArea рассылает уведомление игрокам в радиусе видимости от точки
func (m *Map) broadcastArea(pos vec.Vec2, send func(m *Map)) {
	list := ecs.BorrowList()
	defer ecs.ReturnList(list)
	m.GatherPlayersInRange(pos, m.world.opts.MaxViewDistance, list)
	if list.Len() == 0 {
		return
	}
	m.Commands.AddRecipients(list)
	send(m)
	m.Commands.ClearRecipients()
}

// sendToPlayer уведомление одному игроку
func (m *Map) sendToPlayer(e ecs.Entity, send func(m *Map)) {
	m.Commands.AddRecipient(e)
	send(m)
	m.Commands.ClearRecipients()
}

// --- выборки ---

// GatherInArea все объекты на карте внутри области
func (m *Map) GatherInArea(area vec.Area, out *ecs.EntityList) {
	m.index.QueryArea(area, out)
}

// GatherPlayersInRange игроки не дальше dist клеток от pos
func (m *Map) GatherPlayersInRange(pos vec.Vec2, dist int, out *ecs.EntityList) {
	tmp := ecs.BorrowList()
	defer ecs.ReturnList(tmp)
	m.index.QueryArea(vec.AreaAround(pos, dist), tmp)
	reg := m.world.Registry
	for _, e := range tmp.Items() {
		if reg.TypeOf(e) == ecs.EntityTypePlayer {
			out.Add(e)
		}
	}
}

// GatherEnemiesInArea цели, которые source может атаковать.
// requireLoS только те, до кого есть линия видимости от center.
func (m *Map) GatherEnemiesInArea(source *CombatEntity, area vec.Area, center vec.Vec2, requireLoS bool, out *ecs.EntityList) {
	tmp := ecs.BorrowList()
	defer ecs.ReturnList(tmp)
	m.index.QueryArea(area, tmp)
	for _, e := range tmp.Items() {
		obj, ok := m.world.Objects.Get(e)
		if !ok || obj.Combat == nil || !obj.Combat.IsValidTarget(source) {
			continue
		}
		if requireLoS && !m.Walk.HasLineOfSight(center, obj.Position) {
			continue
		}
		out.Add(e)
	}
}

// EntityCount количество объектов на карте
func (m *Map) EntityCount() int { return m.actors.Len() }

// --- видимость ---

// refreshVisibility пересобирает связи "игрок видит объект" вокруг o
func (m *Map) refreshVisibility(o *WorldObject) {
	w := m.world
	dist := w.opts.MaxViewDistance
	near := ecs.BorrowList()
	defer ecs.ReturnList(near)
	m.index.QueryArea(vec.AreaAround(o.Position, dist), near)

	for _, e := range near.Items() {
		if e == o.Entity {
			continue
		}
		other, ok := w.Objects.Get(e)
		if !ok || !other.IsActive {
			continue
		}
		if other.Type == ecs.EntityTypePlayer {
			m.link(other, o)
		}
		if o.Type == ecs.EntityTypePlayer {
			m.link(o, other)
		}
	}

	if viewers := o.viewers; viewers != nil {
		for i := 0; i < viewers.Len(); i++ {
			e := viewers.At(i)
			viewer, ok := w.Objects.Get(e)
			if !ok || !m.Holds(e) {
				// ушедший с карты объект уже не наш, только забываем его
				viewers.SwapFromBack(i)
				i--
				continue
			}
			if viewer.Position.InRange(o.Position, dist) {
				continue
			}
			m.unlink(viewer, o)
			i--
		}
	}
	if sight := o.inSight; sight != nil {
		for i := 0; i < sight.Len(); i++ {
			e := sight.At(i)
			other, ok := w.Objects.Get(e)
			if !ok || !m.Holds(e) {
				sight.SwapFromBack(i)
				i--
				continue
			}
			if other.Position.InRange(o.Position, dist) {
				continue
			}
			m.unlink(o, other)
			i--
		}
	}
}

func (m *Map) link(viewer, obj *WorldObject) {
	if !obj.viewerList().AddUnique(viewer.Entity) {
		return
	}
	viewer.sightList().AddUnique(obj.Entity)
	m.sendToPlayer(viewer.Entity, func(m *Map) {
		m.Commands.SendEntityAppear(obj.Entity, obj.Type, obj.ClassID, obj.Position, obj.Name)
	})
}

func (m *Map) unlink(viewer, obj *WorldObject) {
	if obj.viewers != nil {
		obj.viewers.Remove(viewer.Entity)
	}
	if viewer.inSight != nil {
		viewer.inSight.Remove(obj.Entity)
	}
	m.sendToPlayer(viewer.Entity, func(m *Map) {
		m.Commands.SendEntityDisappear(obj.Entity, int(RemovalOutOfSight))
	})
}

// --- области эффекта ---

// AddAreaOfEffect регистрирует область. Те, кто уже стоит внутри, считаются вошедшими.
func (m *Map) AddAreaOfEffect(aoe *AreaOfEffect) {
	m.aoes = append(m.aoes, aoe)

	center := vec.Vec2{X: (aoe.Area.MinX + aoe.Area.MaxX) / 2, Y: (aoe.Area.MinY + aoe.Area.MaxY) / 2}
	m.broadcastArea(center, func(m *Map) {
		m.Commands.SendAoeCreate(aoe.SourceEntity, aoe.Area, int(aoe.Type))
	})

	inside := ecs.BorrowList()
	defer ecs.ReturnList(inside)
	m.index.QueryArea(aoe.Area, inside)
	for _, e := range inside.Items() {
		if e == aoe.SourceEntity {
			continue
		}
		if !m.Holds(e) {
			continue
		}
		obj, ok := m.world.Objects.Get(e)
		if !ok {
			continue
		}
		aoe.OnAoETouch(obj)
		if !aoe.IsActive {
			return
		}
	}
}

// AreaOfEffectCount количество областей на карте
func (m *Map) AreaOfEffectCount() int { return len(m.aoes) }

func (m *Map) updateAreasOfEffect() {
	now := m.Time.Elapsed
	for i := 0; i < len(m.aoes); i++ {
		aoe := m.aoes[i]
		if aoe.IsActive && now > aoe.Expiration {
			aoe.Deactivate()
		}
		if aoe.IsActive {
			aoe.Update(now)
		}
		if aoe.IsActive {
			continue
		}

		last := len(m.aoes) - 1
		m.aoes[i] = m.aoes[last]
		m.aoes[last] = nil
		m.aoes = m.aoes[:last]
		i--
		m.releaseAreaOfEffect(aoe)
	}
}

func (m *Map) releaseAreaOfEffect(aoe *AreaOfEffect) {
	if npc, ok := m.world.Npcs.Get(aoe.SourceEntity); ok && npc.AreaOfEffect == aoe {
		npc.AreaOfEffect = nil
	}
	center := vec.Vec2{X: (aoe.Area.MinX + aoe.Area.MaxX) / 2, Y: (aoe.Area.MinY + aoe.Area.MaxY) / 2}
	m.broadcastArea(center, func(m *Map) {
		m.Commands.SendAoeRemove(aoe.SourceEntity)
	})
	m.world.aoePool.Return(aoe)
}

// --- респаун ---

// ScheduleRespawn ставит появление монстра на момент at
func (m *Map) ScheduleRespawn(code string, area vec.Area, at float64) {
	m.respawns = append(m.respawns, pendingSpawn{code: code, area: area, at: at})
}

// PendingRespawns количество ожидающих респауна
func (m *Map) PendingRespawns() int { return len(m.respawns) }

func (m *Map) updateRespawns() {
	now := m.Time.Elapsed
	for i := 0; i < len(m.respawns); i++ {
		r := m.respawns[i]
		if now < r.at {
			continue
		}
		last := len(m.respawns) - 1
		m.respawns[i] = m.respawns[last]
		m.respawns = m.respawns[:last]
		i--

		if _, err := m.SpawnMonster(r.code, r.area); err != nil {
			m.log.Warn("Респаун %s на %s не удался: %v", r.code, m.Name, err)
		}
	}
}
