package npcs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/ro-zone/internal/data"
	"github.com/annel0/ro-zone/internal/ecs"
	"github.com/annel0/ro-zone/internal/spatial"
	"github.com/annel0/ro-zone/internal/stats"
	"github.com/annel0/ro-zone/internal/vec"
	"github.com/annel0/ro-zone/internal/world"
)

func newTestWorld(t *testing.T) (*world.World, *world.Map, *world.Map) {
	t.Helper()
	behaviors := world.NewBehaviorRegistry()
	RegisterAll(behaviors)
	w := world.New(world.Options{TickInterval: 50 * time.Millisecond, CommandQueue: 64, Seed: 5}, nil, behaviors)
	prontera, err := w.AddMap("prontera", spatial.NewWalkData(60, 60, 1))
	require.NoError(t, err)
	geffen, err := w.AddMap("geffen", spatial.NewWalkData(40, 40, 2))
	require.NoError(t, err)
	return w, prontera, geffen
}

func spawnPlayer(t *testing.T, w *world.World, m *world.Map, pos vec.Vec2) *world.Player {
	t.Helper()
	p := w.CreatePlayer("Путник", data.JobNovice, 10)
	require.NoError(t, w.SpawnPlayer(p, m.Name, pos))
	m.ProcessCommands()
	require.True(t, p.Character.IsActive)
	return p
}

func runFor(m *world.Map, duration float64) {
	for t := 0.0; t < duration; t += 0.05 {
		m.Update(context.Background(), 0.05)
	}
}

func TestWarpMovesPlayerToOtherMap(t *testing.T) {
	w, prontera, geffen := newTestWorld(t)
	params := world.NpcParams{Map: "prontera", X: 20, Y: 10, Width: 1, Height: 1, Text: "geffen", Values: [4]int{5, 5, 0}}
	_, err := prontera.SpawnNpc("Портал", WarpBehavior, params, ecs.Null)
	require.NoError(t, err)
	require.Equal(t, 1, prontera.AreaOfEffectCount())

	p := spawnPlayer(t, w, prontera, vec.Vec2{X: 15, Y: 10})
	require.True(t, p.Character.TryMove(vec.Vec2{X: 20, Y: 10}, 0))
	runFor(prontera, 2)

	geffen.ProcessCommands()
	assert.Same(t, geffen, p.Character.Map)
	assert.Equal(t, vec.Vec2{X: 5, Y: 5}, p.Character.Position)
	name, ok := w.MapOfPlayer(p.Entity)
	require.True(t, ok)
	assert.Equal(t, "geffen", name)
	assert.Equal(t, 1, prontera.EntityCount(), "на старой карте остался только портал")
}

func TestWarpToUnknownMapKeepsPlayer(t *testing.T) {
	w, prontera, _ := newTestWorld(t)
	params := world.NpcParams{Map: "prontera", X: 20, Y: 10, Width: 1, Height: 1, Text: "payon", Values: [4]int{5, 5, 0}}
	_, err := prontera.SpawnNpc("Портал", WarpBehavior, params, ecs.Null)
	require.NoError(t, err)

	p := spawnPlayer(t, w, prontera, vec.Vec2{X: 15, Y: 10})
	require.True(t, p.Character.TryMove(vec.Vec2{X: 20, Y: 10}, 0))
	runFor(prontera, 2)

	assert.Same(t, prontera, p.Character.Map)
	assert.Equal(t, vec.Vec2{X: 20, Y: 10}, p.Character.Position, "неудачный варп не сбивает ход")
}

func spawnStunned(m *world.Map, pos vec.Vec2, hp int) *world.Monster {
	mon := m.SpawnMonsterAt(data.Current().Monster("PORING"), pos, vec.ZeroArea)
	mon.CombatEntity.AddStatusEffect(world.StatusStun, 100)
	mon.CombatEntity.Stats.Set(stats.Hp, hp)
	return mon
}

func TestFireTrapSpendsHits(t *testing.T) {
	w, prontera, _ := newTestWorld(t)
	owner := spawnPlayer(t, w, prontera, vec.Vec2{X: 5, Y: 5})
	mon := spawnStunned(prontera, vec.Vec2{X: 20, Y: 20}, 10000)

	params := world.NpcParams{Map: "prontera", X: 20, Y: 20, Width: 1, Height: 1, Values: [4]int{1, 2}}
	npc, err := prontera.SpawnNpc("FireWall", FireTrapBehavior, params, owner.Entity)
	require.NoError(t, err)
	require.NotNil(t, npc.AreaOfEffect)
	assert.Equal(t, 1, npc.AreaOfEffect.Value1, "уровень в области")

	runFor(prontera, 0.6)
	assert.Equal(t, 1, npc.Values[1], "один удар потрачен")
	assert.Less(t, mon.CombatEntity.Stats.Get(stats.Hp), 10000)

	runFor(prontera, 1)
	assert.Equal(t, 0, prontera.AreaOfEffectCount(), "удары кончились")
	assert.Equal(t, 2, prontera.EntityCount())
}

func TestFireTrapEndsWhenOwnerLeaves(t *testing.T) {
	w, prontera, geffen := newTestWorld(t)
	owner := spawnPlayer(t, w, prontera, vec.Vec2{X: 5, Y: 5})
	mon := spawnStunned(prontera, vec.Vec2{X: 20, Y: 20}, 10000)

	params := world.NpcParams{Map: "prontera", X: 20, Y: 20, Width: 1, Height: 1, Values: [4]int{1, 5}}
	_, err := prontera.SpawnNpc("FireWall", FireTrapBehavior, params, owner.Entity)
	require.NoError(t, err)

	require.True(t, owner.WarpPlayer("geffen", vec.Vec2{X: 10, Y: 10}, 0))
	geffen.ProcessCommands()

	runFor(prontera, 1)
	assert.Equal(t, 10000, mon.CombatEntity.Stats.Get(stats.Hp), "без хозяина ловушка не бьёт")
	assert.Equal(t, 0, prontera.AreaOfEffectCount())
	assert.Equal(t, 1, prontera.EntityCount(), "остался только монстр")
}
