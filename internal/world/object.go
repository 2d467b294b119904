package world

import (
	"github.com/annel0/ro-zone/internal/ecs"
	"github.com/annel0/ro-zone/internal/stats"
	"github.com/annel0/ro-zone/internal/vec"
)

// WorldObject общая часть всех сущностей на карте: позиция, движение, состояние.
// Игроки и монстры дополнительно имеют CombatEntity, NPC: нет.
type WorldObject struct {
	Entity  ecs.Entity
	Type    ecs.EntityType
	Name    string
	ClassID int

	Position       vec.Vec2
	TargetPosition vec.Vec2
	State          CharacterState
	QueuedAction   QueuedAction
	ItemTarget     int // dropID подбираемого предмета

	MoveSpeed      float64 // секунд на клетку
	MoveLockTime   float64
	AttackCooldown float64
	SpawnImmunity  float64

	path         []vec.Vec2
	pathIndex    int
	nextStepTime float64

	Map      *Map
	IsActive bool

	Combat *CombatEntity

	viewers *ecs.EntityList // игроки, которые видят этот объект
	inSight *ecs.EntityList // объекты, которые видит игрок (только у игроков)
}

func newWorldObject() *WorldObject {
	o := &WorldObject{}
	o.Reset()
	return o
}

// Reset возвращает объект в исходное состояние перед возвратом в пул
func (o *WorldObject) Reset() {
	ecs.ReturnList(o.viewers)
	ecs.ReturnList(o.inSight)
	*o = WorldObject{
		Entity:         ecs.Null,
		Position:       vec.Invalid,
		TargetPosition: vec.Invalid,
		MoveSpeed:      0.15,
		path:           o.path[:0],
	}
}

func (o *WorldObject) now() float64 {
	if o.Map == nil {
		return 0
	}
	return o.Map.Time.Elapsed
}

// InMoveLock идёт анимация, которая не даёт начать движение
func (o *WorldObject) InMoveLock() bool {
	return o.MoveLockTime > o.now()
}

// InAttackCooldown следующая атака ещё не готова
func (o *WorldObject) InAttackCooldown() bool {
	return o.AttackCooldown > o.now()
}

// AddMoveLockTime блокирует движение на delay секунд от текущего момента.
// Уже действующая более длинная блокировка сохраняется.
func (o *WorldObject) AddMoveLockTime(delay float64) {
	t := o.now() + delay
	if t > o.MoveLockTime {
		o.MoveLockTime = t
	}
}

// SetSpawnImmunity защищает только что появившуюся сущность от атак
func (o *WorldObject) SetSpawnImmunity() {
	o.SpawnImmunity = o.now() + 5
}

// ResetSpawnImmunity снимает защиту, как только сущность сама действует
func (o *WorldObject) ResetSpawnImmunity() {
	o.SpawnImmunity = 0
}

// HasSpawnImmunity защищена ли сущность
func (o *WorldObject) HasSpawnImmunity() bool {
	return o.SpawnImmunity > o.now()
}

// TryMove строит путь к target (до расстояния rangeToTarget) и начинает движение.
// Возвращает false, если идти некуда: путь не найден или цель уже в радиусе.
func (o *WorldObject) TryMove(target vec.Vec2, rangeToTarget int) bool {
	if o.Map == nil || !o.IsActive {
		return false
	}
	if o.State == StateDead || o.State == StateSitting {
		return false
	}
	if o.Combat != nil && o.Combat.Stats.Get(stats.Disabled) > 0 {
		return false
	}

	path := o.Map.Walk.FindPath(o.Position, target, rangeToTarget)
	if len(path) == 0 {
		return false
	}

	o.path = append(o.path[:0], path...)
	o.pathIndex = 0
	o.TargetPosition = target
	o.QueuedAction = QueuedNone

	if o.State != StateMoving {
		start := max(o.now(), o.MoveLockTime)
		o.nextStepTime = start + o.MoveSpeed
		o.State = StateMoving
	}

	dest := o.path[len(o.path)-1]
	o.Map.broadcast(o, func(m *Map) {
		m.Commands.SendMove(o.Entity, o.Position, dest)
	})
	return true
}

// StopMovingImmediately останавливает движение на текущей клетке
func (o *WorldObject) StopMovingImmediately() {
	if o.State != StateMoving {
		return
	}
	o.State = StateIdle
	o.path = o.path[:0]
	o.pathIndex = 0
	if o.Map != nil {
		o.Map.broadcast(o, func(m *Map) {
			m.Commands.SendStopMove(o.Entity, o.Position)
		})
	}
}

// ShortenMovePath обрезает путь до следующей клетки: персонаж дошагает её и встанет
func (o *WorldObject) ShortenMovePath() {
	if o.State != StateMoving || o.pathIndex >= len(o.path) {
		return
	}
	o.path = o.path[:o.pathIndex+1]
	if o.Map != nil {
		next := o.path[o.pathIndex]
		o.Map.broadcast(o, func(m *Map) {
			m.Commands.SendMove(o.Entity, o.Position, next)
		})
	}
}

// IsMoving идёт ли движение по пути
func (o *WorldObject) IsMoving() bool {
	return o.State == StateMoving
}

// updateMovement делает очередной шаг по пути, если пришло время
func (o *WorldObject) updateMovement() {
	if o.State != StateMoving {
		return
	}
	now := o.now()
	if o.InMoveLock() {
		if o.nextStepTime < o.MoveLockTime {
			o.nextStepTime = o.MoveLockTime
		}
		return
	}

	m := o.Map
	for o.State == StateMoving && now >= o.nextStepTime {
		if o.pathIndex >= len(o.path) {
			o.State = StateIdle
			o.path = o.path[:0]
			return
		}

		next := o.path[o.pathIndex]
		o.pathIndex++
		o.nextStepTime += o.MoveSpeed

		if !m.Walk.IsWalkable(next) {
			o.StopMovingImmediately()
			return
		}

		m.MoveEntity(o, next)
		// касание AoE могло увести объект с карты
		if !m.Holds(o.Entity) {
			return
		}

		if o.pathIndex >= len(o.path) {
			o.State = StateIdle
			o.path = o.path[:0]
			o.pathIndex = 0
		}
	}
}

// ResetState сбрасывает действия, но не позицию
func (o *WorldObject) ResetState() {
	if o.State != StateDead {
		o.State = StateIdle
	}
	o.QueuedAction = QueuedNone
	o.path = o.path[:0]
	o.pathIndex = 0
	o.MoveLockTime = 0
	o.AttackCooldown = 0
	o.ItemTarget = 0
}

// CountVisiblePlayers сколько игроков сейчас видят объект
func (o *WorldObject) CountVisiblePlayers() int {
	if o.viewers == nil {
		return 0
	}
	return o.viewers.Len()
}

func (o *WorldObject) viewerList() *ecs.EntityList {
	if o.viewers == nil {
		o.viewers = ecs.BorrowList()
	}
	return o.viewers
}

func (o *WorldObject) sightList() *ecs.EntityList {
	if o.inSight == nil {
		o.inSight = ecs.BorrowList()
	}
	return o.inSight
}
