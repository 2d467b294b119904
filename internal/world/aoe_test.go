package world

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/ro-zone/internal/data"
	"github.com/annel0/ro-zone/internal/ecs"
	"github.com/annel0/ro-zone/internal/vec"
)

// countingBehavior считает вызовы и при необходимости создаёт область вокруг NPC
type countingBehavior struct {
	aoeType  AoeType
	duration float64
	tickRate float64
	kill     bool

	inits        int
	touches      int
	interactions int
}

func (b *countingBehavior) Init(npc *Npc) {
	b.inits++
	if b.aoeType == AoeInactive {
		return
	}
	area := vec.AreaAroundWH(vec.Vec2{X: npc.Params.X, Y: npc.Params.Y}, npc.Params.Width, npc.Params.Height)
	targeting := TargetingInfo{SourceEntity: npc.Owner, Faction: FactionPlayers}
	if b.aoeType == AoeNpcTouch {
		targeting.SourceEntity = npc.Entity
	}
	npc.CreateAreaOfEffect(area, b.aoeType, targeting, b.duration, b.tickRate, 0, 0)
}

func (b *countingBehavior) OnTouch(npc *Npc, player *Player) { b.touches++ }

func (b *countingBehavior) OnAoEInteraction(npc *Npc, target *CombatEntity, aoe *AreaOfEffect) {
	b.interactions++
	if b.kill {
		target.TakeDamage(1_000_000, npc.Owner)
	}
}

func (b *countingBehavior) OnTimer(npc *Npc, elapsed float64) {}

// spawnStunnedMonster ставит монстра, который не уйдёт с места
func spawnStunnedMonster(m *Map, pos vec.Vec2) *Monster {
	mon := m.SpawnMonsterAt(data.Current().Monster("PORING"), pos, vec.ZeroArea)
	mon.CombatEntity.AddStatusEffect(StatusStun, 100)
	return mon
}

func npcAt(pos vec.Vec2) NpcParams {
	return NpcParams{Map: "prontera", X: pos.X, Y: pos.Y, Width: 1, Height: 1}
}

func TestHasTouchedAoEOnlyOnEntry(t *testing.T) {
	aoe := &AreaOfEffect{Area: vec.AreaAround(vec.Vec2{X: 10, Y: 10}, 1)}

	assert.True(t, aoe.HasTouchedAoE(vec.Vec2{X: 7, Y: 10}, vec.Vec2{X: 9, Y: 10}), "снаружи внутрь")
	assert.False(t, aoe.HasTouchedAoE(vec.Vec2{X: 9, Y: 10}, vec.Vec2{X: 10, Y: 10}), "внутри области")
	assert.False(t, aoe.HasTouchedAoE(vec.Vec2{X: 11, Y: 10}, vec.Vec2{X: 12, Y: 10}), "выход")
	assert.False(t, aoe.HasTouchedAoE(vec.Vec2{X: 0, Y: 0}, vec.Vec2{X: 1, Y: 1}), "мимо")

	for x0 := 5; x0 <= 15; x0++ {
		for x1 := 5; x1 <= 15; x1++ {
			from, to := vec.Vec2{X: x0, Y: 10}, vec.Vec2{X: x1, Y: 11}
			want := !aoe.IsInside(from) && aoe.IsInside(to)
			assert.Equal(t, want, aoe.HasTouchedAoE(from, to), "%v -> %v", from, to)
		}
	}
}

func TestDamageAreaTicksUntilExpiration(t *testing.T) {
	behaviors := NewBehaviorRegistry()
	dot := &countingBehavior{aoeType: AoeDamage, duration: 5, tickRate: 1}
	behaviors.Register("dot", dot)
	w, m, _ := newTestWorld(t, nil, behaviors)

	owner := spawnTestPlayer(t, w, m, "Маг", vec.Vec2{X: 5, Y: 5})
	spawnStunnedMonster(m, vec.Vec2{X: 30, Y: 30})

	npc, err := m.SpawnNpc("Огонь", "dot", npcAt(vec.Vec2{X: 30, Y: 30}), owner.Entity)
	require.NoError(t, err)
	require.NotNil(t, npc.AreaOfEffect)
	require.NotNil(t, npc.AreaOfEffect.TouchingEntities, "монстр уже внутри при создании")
	assert.Equal(t, 1, npc.AreaOfEffect.TouchingEntities.Len())
	assert.Equal(t, 1, m.AreaOfEffectCount())

	runFor(m, 6, 0.25)

	assert.Equal(t, 5, dot.interactions, "по удару в секунду, пока не истекло")
	assert.Equal(t, 0, m.AreaOfEffectCount(), "истёкшая область убрана")
	assert.Nil(t, npc.AreaOfEffect)
}

func TestKillingAreaMemberMidResolution(t *testing.T) {
	behaviors := NewBehaviorRegistry()
	killer := &countingBehavior{aoeType: AoeDamage, duration: 10, tickRate: 1, kill: true}
	behaviors.Register("killer", killer)
	w, m, _ := newTestWorld(t, nil, behaviors)

	owner := spawnTestPlayer(t, w, m, "Маг", vec.Vec2{X: 5, Y: 5})
	first := spawnStunnedMonster(m, vec.Vec2{X: 30, Y: 30})
	second := spawnStunnedMonster(m, vec.Vec2{X: 31, Y: 30})

	npc, err := m.SpawnNpc("Ловушка", "killer", npcAt(vec.Vec2{X: 30, Y: 30}), owner.Entity)
	require.NoError(t, err)
	require.Equal(t, 2, npc.AreaOfEffect.TouchingEntities.Len())

	require.NotPanics(t, func() { runFor(m, 3, 0.25) })

	assert.Equal(t, 2, killer.interactions, "каждый погибший задет ровно один раз")
	assert.Equal(t, StateDead, first.Character.State)
	assert.Equal(t, StateDead, second.Character.State)
	require.NotNil(t, npc.AreaOfEffect, "область переживает гибель целей")
	assert.Nil(t, npc.AreaOfEffect.TouchingEntities, "пустой список возвращён в пул")
	assert.Equal(t, 1, m.AreaOfEffectCount())
}

func TestTouchAreaIgnoresTeleport(t *testing.T) {
	behaviors := NewBehaviorRegistry()
	touch := &countingBehavior{aoeType: AoeNpcTouch, duration: math.Inf(1), tickRate: 1}
	behaviors.Register("touch", touch)
	w, m, _ := newTestWorld(t, nil, behaviors)

	_, err := m.SpawnNpc("Портал", "touch", npcAt(vec.Vec2{X: 20, Y: 10}), ecs.Null)
	require.NoError(t, err)
	p := spawnTestPlayer(t, w, m, "Тест", vec.Vec2{X: 10, Y: 10})

	m.TeleportEntity(p.Character, vec.Vec2{X: 20, Y: 10})
	assert.Equal(t, 0, touch.touches, "телепорт внутрь не считается касанием")

	m.TeleportEntity(p.Character, vec.Vec2{X: 15, Y: 10})
	require.True(t, p.Character.TryMove(vec.Vec2{X: 20, Y: 10}, 0))
	runFor(m, 2, 0.05)

	assert.Equal(t, vec.Vec2{X: 20, Y: 10}, p.Character.Position)
	assert.Equal(t, 1, touch.touches, "вход пешком срабатывает один раз")
}

func TestUnknownBehavior(t *testing.T) {
	_, m, _ := newTestWorld(t, nil, nil)
	_, err := m.SpawnNpc("Никто", "nope", npcAt(vec.Vec2{X: 1, Y: 1}), ecs.Null)
	assert.ErrorIs(t, err, ErrUnknownBehavior)
	assert.Equal(t, 0, m.EntityCount())
}

func TestRemoveNpcEndsArea(t *testing.T) {
	behaviors := NewBehaviorRegistry()
	behaviors.Register("touch", &countingBehavior{aoeType: AoeNpcTouch, duration: math.Inf(1), tickRate: 1})
	_, m, _ := newTestWorld(t, nil, behaviors)

	npc, err := m.SpawnNpc("Портал", "touch", npcAt(vec.Vec2{X: 20, Y: 10}), ecs.Null)
	require.NoError(t, err)
	e := npc.Entity

	m.RemoveNpc(npc)
	assert.Equal(t, 1, m.AreaOfEffectCount(), "область снимается на проходе карты")
	runFor(m, 0.1, 0.05)
	assert.Equal(t, 0, m.AreaOfEffectCount())
	assert.Equal(t, 0, m.EntityCount())
	assert.False(t, m.World().Registry.IsAlive(e))
}
