// Package npcs содержит поведения NPC, доступные скриптам карт.
package npcs

import (
	"math"

	"github.com/annel0/ro-zone/internal/combat"
	"github.com/annel0/ro-zone/internal/logging"
	"github.com/annel0/ro-zone/internal/vec"
	"github.com/annel0/ro-zone/internal/world"
)

// Имена поведений в скриптах карт
const (
	WarpBehavior     = "warp"
	FireTrapBehavior = "firetrap"
)

// RegisterAll добавляет все поведения в реестр
func RegisterAll(r *world.BehaviorRegistry) {
	r.Register(WarpBehavior, Warp{})
	r.Register(FireTrapBehavior, FireTrap{})
}

func npcArea(npc *world.Npc) vec.Area {
	p := npc.Params
	return vec.AreaAroundWH(vec.Vec2{X: p.X, Y: p.Y}, p.Width, p.Height)
}

// Warp переносит вошедшего игрока.
// Params.Text карта назначения, Values: x, y, разброс.
type Warp struct{}

func (Warp) Init(npc *world.Npc) {
	npc.CreateAreaOfEffect(npcArea(npc), world.AoeNpcTouch, world.TargetingInfo{SourceEntity: npc.Entity},
		math.Inf(1), 1, 0, 0)
}

func (Warp) OnTouch(npc *world.Npc, player *world.Player) {
	dest := npc.Params.Text
	pos := vec.Vec2{X: npc.Values[0], Y: npc.Values[1]}
	if !player.WarpPlayer(dest, pos, npc.Values[2]) {
		logging.GetSimLogger().Debug("Варп %s: игрок %s не перенесён на %s", npc.Character.Name, player.Name, dest)
	}
}

func (Warp) OnAoEInteraction(npc *world.Npc, target *world.CombatEntity, aoe *world.AreaOfEffect) {}

func (Warp) OnTimer(npc *world.Npc, elapsed float64) {}

// FireTrap огненная стена: бьёт тех, кто стоит внутри.
// Values: уровень скилла, число оставшихся ударов.
type FireTrap struct{}

const fireTrapTickRate = 0.5

func (FireTrap) Init(npc *world.Npc) {
	level := max(npc.Values[0], 1)
	duration := 4 + float64(level)
	m := npc.Map()
	npc.Expiration = m.Time.Elapsed + duration

	faction := world.FactionPlayers
	if owner, ok := m.World().Combatants.Get(npc.Owner); ok {
		faction = owner.Faction
	}
	npc.CreateAreaOfEffect(npcArea(npc), world.AoeDamage,
		world.TargetingInfo{SourceEntity: npc.Owner, Faction: faction},
		duration, fireTrapTickRate, level, 0)
	npc.StartTimer()
}

func (FireTrap) OnTouch(npc *world.Npc, player *world.Player) {}

func (FireTrap) OnAoEInteraction(npc *world.Npc, target *world.CombatEntity, aoe *world.AreaOfEffect) {
	m := npc.Map()
	if !m.Holds(npc.Owner) {
		m.RemoveNpc(npc)
		return
	}
	owner, ok := m.World().Combatants.Get(npc.Owner)
	if !ok {
		return
	}

	level := aoe.Value1
	res := owner.CalculateCombatResult(target, 0.5, level, combat.AttackMagical, combat.AttackFire)
	owner.ExecuteCombatResult(res, true)

	npc.Values[1]--
	if npc.Values[1] <= 0 {
		m.RemoveNpc(npc)
	}
}

// OnTimer гасит ловушку, когда хозяина больше нет на карте
func (FireTrap) OnTimer(npc *world.Npc, elapsed float64) {
	m := npc.Map()
	if !m.Holds(npc.Owner) {
		m.RemoveNpc(npc)
	}
}
