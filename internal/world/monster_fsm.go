package world

import (
	"github.com/annel0/ro-zone/internal/ecs"
	"github.com/annel0/ro-zone/internal/stats"
	"github.com/annel0/ro-zone/internal/vec"
)

// MonsterState представляет состояние конечного автомата монстра
type MonsterState interface {
	Enter(m *Monster)
	Update(m *Monster) MonsterState
	Exit(m *Monster)
}

// === Конкретные состояния ===

// IdleState - состояние бездействия
type IdleState struct {
	Until float64
}

func (s *IdleState) Enter(m *Monster) {
	rng := m.Character.Map.Resolver.Rand()
	s.Until = m.now() + 2.0 + rng.Float64()*3.0 // 2-5 секунд
	m.Character.StopMovingImmediately()
}

func (s *IdleState) Update(m *Monster) MonsterState {
	if m.Info.Aggressive && m.findTarget() {
		return &m.chase
	}
	if m.now() >= s.Until {
		return &m.wander
	}
	return s
}

func (s *IdleState) Exit(m *Monster) {
	// Ничего не делаем при выходе
}

// WanderState - состояние блуждания в пределах зоны спавна
type WanderState struct {
	TargetPos vec.Vec2
	Deadline  float64
	moving    bool
}

func (s *WanderState) Enter(m *Monster) {
	ch := m.Character
	s.Deadline = m.now() + 8.0
	s.moving = false

	area := vec.AreaAround(ch.Position, monsterWanderRadius)
	if !m.SpawnArea.IsEmpty() {
		area = area.ClipTo(m.SpawnArea)
	}
	area = area.ClipTo(ch.Map.Walk.Bounds())

	s.TargetPos = ch.Map.Walk.RandomWalkablePositionInArea(area)
	if s.TargetPos.IsValid() && s.TargetPos != ch.Position {
		s.moving = ch.TryMove(s.TargetPos, 0)
	}
}

func (s *WanderState) Update(m *Monster) MonsterState {
	if m.Info.Aggressive && m.findTarget() {
		return &m.chase
	}
	if !s.moving || m.Character.State != StateMoving || m.now() >= s.Deadline {
		return &m.idle
	}
	return s
}

func (s *WanderState) Exit(m *Monster) {
	// Ничего не делаем при выходе
}

// ChaseState - преследование и атака цели
type ChaseState struct {
	Since float64
}

func (s *ChaseState) Enter(m *Monster) {
	s.Since = m.now()
}

func (s *ChaseState) Update(m *Monster) MonsterState {
	target, ok := m.targetObject()
	if !ok {
		m.Target = ecs.Null
		return &m.idle
	}

	ch := m.Character
	ce := m.CombatEntity
	if !ch.Position.InRange(target.Position, m.Info.ChaseDist) {
		m.Target = ecs.Null
		return &m.idle
	}

	if ce.CanAttackTarget(target, 0) {
		ch.StopMovingImmediately()
		if !ch.InAttackCooldown() {
			ch.ResetSpawnImmunity()
			ce.PerformMeleeAttack(target.Combat)
			ce.ApplyCooldownForAttackAction()
		}
		return s
	}

	if ch.InMoveLock() {
		return s
	}
	if ch.State != StateMoving || ch.TargetPosition != target.Position {
		if !ch.TryMove(target.Position, ce.GetStat(stats.Range)) && ch.State != StateMoving {
			m.Target = ecs.Null
			return &m.idle
		}
	}
	return s
}

func (s *ChaseState) Exit(m *Monster) {}
