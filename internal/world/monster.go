package world

import (
	"github.com/annel0/ro-zone/internal/data"
	"github.com/annel0/ro-zone/internal/ecs"
	"github.com/annel0/ro-zone/internal/stats"
	"github.com/annel0/ro-zone/internal/vec"
)

const (
	monsterAiInterval   = 0.1
	monsterRespawnDelay = 5.0
	monsterWanderRadius = 5
	monsterDropItem     = 909
	monsterDropChance   = 50
)

// Monster компонент монстра: табличные параметры, зона спавна, цель и автомат состояний
type Monster struct {
	Entity       ecs.Entity
	Character    *WorldObject
	CombatEntity *CombatEntity

	Info      *data.MonsterInfo
	SpawnArea vec.Area
	Target    ecs.Entity

	state      MonsterState
	idle       IdleState
	wander     WanderState
	chase      ChaseState
	nextAiTime float64
}

func newMonster() *Monster {
	m := &Monster{}
	m.Reset()
	return m
}

// Reset очищает компонент
func (m *Monster) Reset() {
	*m = Monster{Entity: ecs.Null, Target: ecs.Null}
}

func (m *Monster) now() float64 { return m.Character.now() }

// Init настраивает монстра по таблице. Вызывается после появления на карте.
func (m *Monster) Init(info *data.MonsterInfo, spawnArea vec.Area) {
	m.Info = info
	m.SpawnArea = spawnArea
	m.Character.Name = info.Name
	m.Character.ClassID = info.ID
	m.CombatEntity.Faction = FactionMonsters
	m.CombatEntity.SetElement(info.Element)
	m.UpdateStats()
	m.CombatEntity.FullRecovery(true, true)
	m.SetState(&m.idle)
}

// UpdateStats выставляет статы из таблицы с учётом статусов
func (m *Monster) UpdateStats() {
	info := m.Info
	s := &m.CombatEntity.Stats
	s.Set(stats.Level, info.Level)
	s.Set(stats.MaxHp, info.HP)
	s.Set(stats.Str, info.Str)
	s.Set(stats.Agi, info.Agi)
	s.Set(stats.Vit, info.Vit)
	s.Set(stats.Int, info.Int)
	s.Set(stats.Dex, info.Dex)
	s.Set(stats.Luk, info.Luk)
	s.Set(stats.Atk, info.AtkMin)
	s.Set(stats.Atk2, info.AtkMax)
	s.Set(stats.MagicAtkMin, info.Int)
	s.Set(stats.MagicAtkMax, info.Int+info.Int/2)
	s.Set(stats.Def, info.Def)
	s.Set(stats.MDef, info.MDef)
	s.Set(stats.Range, info.Range)
	s.Set(stats.Hit, info.Level+info.Dex)
	s.Set(stats.Flee, info.Level+info.Agi)
	s.Set(stats.Critical, info.Luk/10)

	s.SetTiming(stats.AttackDelayTime, info.RechargeTime)
	s.SetTiming(stats.AttackMotionTime, info.MotionTime)
	s.SetTiming(stats.SpriteAttackTiming, info.MotionTime/2)
	s.SetTiming(stats.HitDelayTime, info.HitTime)

	speed := info.MoveSpeed
	if m.CombatEntity.HasStatusEffect(StatusCurse) {
		speed *= 10
	}
	s.SetTiming(stats.MoveSpeed, speed)
	m.Character.MoveSpeed = speed

	if hp := s.Get(stats.Hp); hp > m.CombatEntity.GetStat(stats.MaxHp) {
		s.Set(stats.Hp, m.CombatEntity.GetStat(stats.MaxHp))
	}
}

// SetState переключает автомат
func (m *Monster) SetState(state MonsterState) {
	if m.state != nil {
		m.state.Exit(m)
	}
	m.state = state
	if m.state != nil {
		m.state.Enter(m)
	}
}

// CurrentState текущее состояние автомата
func (m *Monster) CurrentState() MonsterState { return m.state }

// Update тик ИИ монстра
func (m *Monster) Update() {
	ch := m.Character
	if ch.State == StateDead || ch.Map == nil || m.state == nil {
		return
	}
	now := m.now()
	if now < m.nextAiTime {
		return
	}
	m.nextAiTime = now + monsterAiInterval

	next := m.state.Update(m)
	if next != m.state {
		m.SetState(next)
	}
}

// targetObject возвращает цель, если её ещё можно атаковать
func (m *Monster) targetObject() (*WorldObject, bool) {
	if m.Target.IsNull() {
		return nil, false
	}
	target, ok := m.Character.Map.world.Objects.Get(m.Target)
	if !ok || target.Combat == nil || !target.Combat.IsValidTarget(m.CombatEntity) {
		return nil, false
	}
	return target, true
}

// findTarget ищет ближайшего игрока в радиусе обзора
func (m *Monster) findTarget() bool {
	ch := m.Character
	list := ecs.BorrowList()
	defer ecs.ReturnList(list)

	ch.Map.GatherPlayersInRange(ch.Position, m.Info.ScanDist, list)
	best := ecs.Null
	bestDist := m.Info.ScanDist + 1
	for _, e := range list.Items() {
		target, ok := ch.Map.world.Objects.Get(e)
		if !ok || target.Combat == nil || !target.Combat.IsValidTarget(m.CombatEntity) {
			continue
		}
		if !ch.Map.Walk.HasLineOfSight(ch.Position, target.Position) {
			continue
		}
		if d := ch.Position.SquareDistance(target.Position); d < bestDist {
			best, bestDist = e, d
		}
	}
	if best.IsNull() {
		return false
	}
	m.Target = best
	return true
}

// OnDamaged ответная агрессия на атакующего
func (m *Monster) OnDamaged(attacker ecs.Entity) {
	if m.Character.State == StateDead {
		return
	}
	if _, ok := m.targetObject(); ok {
		return
	}
	m.Target = attacker
	if _, ok := m.targetObject(); ok && m.state != &m.chase {
		m.SetState(&m.chase)
	}
}

// Die смерть монстра: уведомление, дроп, снятие с карты, отложенный респаун
func (m *Monster) Die(killer ecs.Entity) {
	ch := m.Character
	mp := ch.Map
	ch.ResetState()
	ch.State = StateDead
	m.Target = ecs.Null
	if mp == nil {
		return
	}

	if mp.Holds(killer) {
		if player, ok := mp.world.Players.Get(killer); ok {
			player.Experience += m.Info.Exp
		}
	}

	mp.broadcast(ch, func(mp *Map) {
		mp.Commands.SendDeath(m.Entity, ch.Position)
	})
	if mp.Resolver.Rand().IntN(100) < monsterDropChance {
		mp.DropItem(monsterDropItem, 1, ch.Position)
	}
	mp.ScheduleRespawn(m.Info.Code, m.SpawnArea, mp.Time.Elapsed+monsterRespawnDelay)
	mp.RemoveEntity(ch, RemovalDied)
	mp.DestroyLater(m.Entity)
}
