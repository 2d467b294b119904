package world

import (
	"github.com/annel0/ro-zone/internal/data"
	"github.com/annel0/ro-zone/internal/ecs"
	"github.com/annel0/ro-zone/internal/vec"
)

// AoeType вид области эффекта
type AoeType uint8

const (
	AoeInactive AoeType = iota
	AoeNpcTouch         // касание игроком запускает NPC (варпы)
	AoeDamage           // урон по тем, кто внутри
)

// TargetingInfo кто считается атакующим для урона области
type TargetingInfo struct {
	SourceEntity ecs.Entity
	Faction      Faction
}

// AreaOfEffect область на карте, реагирующая на вход и пребывание сущностей.
// Объекты живут в пуле мира; Reset обязан обнулить все ссылки.
type AreaOfEffect struct {
	SourceEntity     ecs.Entity
	Area             vec.Area
	CurrentMap       *Map
	TouchingEntities *ecs.EntityList
	Targeting        TargetingInfo
	Type             AoeType
	SkillSource      data.SkillID

	NextTick   float64
	Expiration float64
	TickRate   float64
	Value1     int
	Value2     int

	IsActive            bool
	CheckStayTouching   bool
	TriggerOnFirstTouch bool
}

func newAreaOfEffect() *AreaOfEffect {
	a := &AreaOfEffect{}
	a.Reset()
	return a
}

// Reset очищает область перед возвратом в пул
func (a *AreaOfEffect) Reset() {
	ecs.ReturnList(a.TouchingEntities)
	*a = AreaOfEffect{
		SourceEntity: ecs.Null,
		Area:         vec.ZeroArea,
		Targeting:    TargetingInfo{SourceEntity: ecs.Null},
	}
}

// Init настраивает область. duration и tickRate в секундах.
func (a *AreaOfEffect) Init(source *WorldObject, area vec.Area, aoeType AoeType, targeting TargetingInfo, duration, tickRate float64, value1, value2 int) {
	if !Assert(source.Map != nil, "AoE от %s без карты", source.Name) {
		return
	}
	now := source.now()
	a.SourceEntity = source.Entity
	a.CurrentMap = source.Map
	a.Area = area
	a.Type = aoeType
	a.Targeting = targeting
	a.Expiration = now + duration
	a.TickRate = tickRate
	a.NextTick = now + tickRate
	a.Value1 = value1
	a.Value2 = value2
	a.IsActive = true
	a.TriggerOnFirstTouch = aoeType == AoeNpcTouch
	a.CheckStayTouching = aoeType == AoeDamage
}

// HasTouchedAoE переход снаружи внутрь. Движение внутри области касанием не считается.
func (a *AreaOfEffect) HasTouchedAoE(initial, next vec.Vec2) bool {
	return !a.Area.Contains(initial) && a.Area.Contains(next)
}

// IsInside находится ли точка в области
func (a *AreaOfEffect) IsInside(p vec.Vec2) bool {
	return a.Area.Contains(p)
}

func (a *AreaOfEffect) sourceNpc() (*Npc, bool) {
	if a.CurrentMap == nil {
		return nil, false
	}
	return a.CurrentMap.world.Npcs.Get(a.SourceEntity)
}

// OnAoETouch вызывается, когда сущность вошла в область
func (a *AreaOfEffect) OnAoETouch(ch *WorldObject) {
	if !a.IsActive {
		return
	}
	w := a.CurrentMap.world

	if a.Type == AoeNpcTouch && ch.Type == ecs.EntityTypePlayer {
		npc, ok := a.sourceNpc()
		if !ok {
			return
		}
		player, ok := w.Players.Get(ch.Entity)
		if !ok {
			return
		}
		npc.OnTouch(player)
		// варп мог передать игрока другой карте
		if !a.CurrentMap.Holds(ch.Entity) {
			return
		}
	}

	if a.Type == AoeDamage {
		if ch.Type == ecs.EntityTypeNpc || ch.Entity == a.Targeting.SourceEntity || ch.Combat == nil {
			return
		}
		// хозяин области, ушедший с карты, уже не атакует
		if !a.CurrentMap.Holds(a.Targeting.SourceEntity) {
			return
		}
		attacker, ok := w.Combatants.Get(a.Targeting.SourceEntity)
		if !ok || !ch.Combat.IsValidTarget(attacker) {
			return
		}
		if a.TriggerOnFirstTouch {
			a.triggerBehavior(ch.Combat)
		}
	}

	if a.IsActive && a.CheckStayTouching && a.CurrentMap.Holds(ch.Entity) && a.IsInside(ch.Position) {
		if a.TouchingEntities == nil {
			a.TouchingEntities = ecs.BorrowList()
		}
		a.TouchingEntities.AddUnique(ch.Entity)
	}
}

func (a *AreaOfEffect) triggerBehavior(target *CombatEntity) {
	if a.Type == AoeDamage && !a.CurrentMap.Holds(a.Targeting.SourceEntity) {
		return
	}
	npc, ok := a.sourceNpc()
	if !ok {
		return
	}
	npc.OnAoEInteraction(target, a)
}

// TouchEntitiesRemainingInAoE срабатывает для всех, кто остался внутри.
// Вышедшие и погибшие удаляются из списка в этом же проходе.
func (a *AreaOfEffect) TouchEntitiesRemainingInAoE() {
	list := a.TouchingEntities
	if list == nil {
		return
	}
	w := a.CurrentMap.world
	list.ClearInactive(w.Registry)

	for i := 0; i < list.Len(); i++ {
		e := list.At(i)
		if !a.CurrentMap.Holds(e) {
			list.SwapFromBack(i)
			i--
			continue
		}
		ch, ok := w.Objects.Get(e)
		if !ok || ch.State == StateDead || !a.IsInside(ch.Position) {
			list.SwapFromBack(i)
			i--
			continue
		}

		a.triggerBehavior(ch.Combat)
		if !a.IsActive {
			return
		}

		// цель могла погибнуть от этого срабатывания
		if !w.Registry.IsAlive(e) || ch.State == StateDead || !ch.IsActive {
			list.SwapFromBack(i)
			i--
		}
	}

	if list.Len() == 0 {
		ecs.ReturnList(list)
		a.TouchingEntities = nil
	}
}

// Update периодическое срабатывание области
func (a *AreaOfEffect) Update(now float64) {
	if !a.IsActive || now < a.NextTick {
		return
	}
	a.NextTick += a.TickRate

	if !a.CurrentMap.world.Registry.IsAlive(a.SourceEntity) {
		return
	}
	if a.CheckStayTouching && a.TouchingEntities != nil && a.TouchingEntities.Len() > 0 {
		a.TouchEntitiesRemainingInAoE()
	}
}

// Deactivate выключает область; карта уберёт её в конце прохода
func (a *AreaOfEffect) Deactivate() {
	a.IsActive = false
}
