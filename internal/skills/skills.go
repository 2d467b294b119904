// Package skills содержит обработчики активных скиллов.
// Регистрация явная: RegisterAll вызывается при сборке мира.
package skills

import (
	"github.com/annel0/ro-zone/internal/combat"
	"github.com/annel0/ro-zone/internal/data"
	"github.com/annel0/ro-zone/internal/ecs"
	"github.com/annel0/ro-zone/internal/logging"
	"github.com/annel0/ro-zone/internal/npcs"
	"github.com/annel0/ro-zone/internal/stats"
	"github.com/annel0/ro-zone/internal/vec"
	"github.com/annel0/ro-zone/internal/world"
)

// RegisterAll добавляет все обработчики в реестр
func RegisterAll(r *world.SkillRegistry) {
	r.Register(FirstAid{})
	r.Register(Bash{})
	r.Register(FireBolt{})
	r.Register(ThunderStorm{})
	r.Register(FireWall{})
}

func announceTarget(src, target *world.CombatEntity, skill data.SkillID, level, damage int) {
	src.Character.Map.Broadcast(src.Character, func(m *world.Map) {
		m.Commands.SendSkillExecuteTarget(src.Entity, target.Entity, int(skill), level, damage)
	})
}

func announceArea(src *world.CombatEntity, pos vec.Vec2, skill data.SkillID, level int) {
	src.Character.Map.BroadcastArea(pos, func(m *world.Map) {
		m.Commands.SendSkillExecuteArea(src.Entity, pos, int(skill), level)
	})
}

// FirstAid лечение себя на 5 HP
type FirstAid struct{}

func (FirstAid) Skill() data.SkillID { return data.SkillFirstAid }

func (FirstAid) CastTime(src, target *world.CombatEntity, pos vec.Vec2, level int) float64 {
	return 0
}

func (FirstAid) Process(src, target *world.CombatEntity, pos vec.Vec2, level int) {
	announceTarget(src, src, data.SkillFirstAid, level, 0)
	src.HealHp(5, true)
	src.ApplyCooldownForAttackAction()
}

// Bash усиленный удар по цели, +30% урона за уровень
type Bash struct{}

func (Bash) Skill() data.SkillID { return data.SkillBash }

func (Bash) CastTime(src, target *world.CombatEntity, pos vec.Vec2, level int) float64 {
	return 0
}

func (Bash) Process(src, target *world.CombatEntity, pos vec.Vec2, level int) {
	mult := 1 + 0.3*float64(level)
	res := src.CalculateCombatResult(target, mult, level, combat.AttackPhysical, combat.AttackNone)
	announceTarget(src, target, data.SkillBash, level, res.Damage)
	target.QueueDamage(res, src.GetTiming(stats.SpriteAttackTiming))
	src.ApplyCooldownForAttackAction()
}

// FireBolt по удару огнём за уровень
type FireBolt struct{}

func (FireBolt) Skill() data.SkillID { return data.SkillFireBolt }

func (FireBolt) CastTime(src, target *world.CombatEntity, pos vec.Vec2, level int) float64 {
	return 0.7 * float64(level)
}

func (FireBolt) Process(src, target *world.CombatEntity, pos vec.Vec2, level int) {
	res := src.CalculateCombatResult(target, float64(level), level, combat.AttackMagical, combat.AttackFire)
	res.HitCount = level
	announceTarget(src, target, data.SkillFireBolt, level, res.Damage)
	src.ExecuteCombatResult(res, true)
	src.ApplyCooldownForAttackAction()
}

// ThunderStorm удары ветром по всем врагам в квадрате 5x5
type ThunderStorm struct{}

func (ThunderStorm) Skill() data.SkillID { return data.SkillThunderStorm }

func (ThunderStorm) CastTime(src, target *world.CombatEntity, pos vec.Vec2, level int) float64 {
	return 1 + 0.4*float64(level)
}

func (ThunderStorm) Process(src, target *world.CombatEntity, pos vec.Vec2, level int) {
	m := src.Character.Map
	announceArea(src, pos, data.SkillThunderStorm, level)

	list := ecs.BorrowList()
	defer ecs.ReturnList(list)
	m.GatherEnemiesInArea(src, vec.AreaAround(pos, 2), pos, true, list)

	// сначала считаем все исходы, потом применяем: цели умирают только во втором проходе
	results := make([]combat.Result, 0, list.Len())
	for _, e := range list.Items() {
		enemy, ok := m.World().Combatants.Get(e)
		if !ok {
			continue
		}
		res := src.CalculateCombatResult(enemy, 0.8*float64(level), level, combat.AttackMagical, combat.AttackWind)
		res.HitCount = level
		results = append(results, res)
	}
	for _, res := range results {
		src.ExecuteCombatResult(res, true)
	}
	logging.GetCombatLogger().Trace("ThunderStorm %s: целей %d", src.Character.Name, len(results))
	src.ApplyCooldownForAttackAction()
}

// FireWall огненная ловушка в точке: NPC с областью урона
type FireWall struct{}

func (FireWall) Skill() data.SkillID { return data.SkillFireWall }

func (FireWall) CastTime(src, target *world.CombatEntity, pos vec.Vec2, level int) float64 {
	return 2.15 - 0.15*float64(level)
}

func (FireWall) Process(src, target *world.CombatEntity, pos vec.Vec2, level int) {
	m := src.Character.Map
	params := world.NpcParams{
		Map:    m.Name,
		X:      pos.X,
		Y:      pos.Y,
		Width:  1,
		Height: 1,
		Values: [4]int{level, 2 + level},
	}
	if _, err := m.SpawnNpc("FireWall", npcs.FireTrapBehavior, params, src.Entity); err != nil {
		logging.GetCombatLogger().Warn("FireWall %s: %v", src.Character.Name, err)
		return
	}
	announceArea(src, pos, data.SkillFireWall, level)
	src.ApplyCooldownForAttackAction()
}
