package skills

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/ro-zone/internal/data"
	"github.com/annel0/ro-zone/internal/npcs"
	"github.com/annel0/ro-zone/internal/spatial"
	"github.com/annel0/ro-zone/internal/stats"
	"github.com/annel0/ro-zone/internal/vec"
	"github.com/annel0/ro-zone/internal/world"
)

func newTestMap(t *testing.T) (*world.World, *world.Map) {
	t.Helper()
	reg := world.NewSkillRegistry()
	RegisterAll(reg)
	behaviors := world.NewBehaviorRegistry()
	npcs.RegisterAll(behaviors)

	w := world.New(world.Options{TickInterval: 50 * time.Millisecond, CommandQueue: 64, Seed: 3}, reg, behaviors)
	m, err := w.AddMap("prontera", spatial.NewWalkData(60, 60, 3))
	require.NoError(t, err)
	return w, m
}

func spawnCaster(t *testing.T, w *world.World, m *world.Map, pos vec.Vec2) *world.Player {
	t.Helper()
	p := w.CreatePlayer("Маг", data.JobMage, 20)
	require.NoError(t, w.SpawnPlayer(p, m.Name, pos))
	m.ProcessCommands()
	require.True(t, p.Character.IsActive)
	p.CombatEntity.Stats.Set(stats.Sp, 500)
	return p
}

// spawnTarget ставит оглушённого монстра: он не уходит с клетки
func spawnTarget(m *world.Map, pos vec.Vec2, hp int) *world.Monster {
	mon := m.SpawnMonsterAt(data.Current().Monster("PORING"), pos, vec.ZeroArea)
	mon.CombatEntity.AddStatusEffect(world.StatusStun, 100)
	mon.CombatEntity.Stats.Set(stats.Hp, hp)
	return mon
}

func runFor(m *world.Map, duration float64) {
	for t := 0.0; t < duration; t += 0.05 {
		m.Update(context.Background(), 0.05)
	}
}

func TestRegisterAll(t *testing.T) {
	reg := world.NewSkillRegistry()
	RegisterAll(reg)
	assert.Equal(t, 5, reg.Len())
	for _, id := range []data.SkillID{data.SkillFirstAid, data.SkillBash, data.SkillFireBolt, data.SkillThunderStorm, data.SkillFireWall} {
		_, ok := reg.Get(id)
		assert.True(t, ok, "нет обработчика %s", id)
	}
}

func TestFirstAidHealsSelf(t *testing.T) {
	w, m := newTestMap(t)
	p := spawnCaster(t, w, m, vec.Vec2{X: 10, Y: 10})
	ce := p.CombatEntity
	ce.Stats.Set(stats.Hp, 10)

	require.True(t, ce.AttemptStartSelfTargetSkill(data.SkillFirstAid, 1))
	assert.Equal(t, 15, ce.Stats.Get(stats.Hp))
	assert.Equal(t, 497, ce.Stats.Get(stats.Sp))
}

func TestFireBoltAfterCast(t *testing.T) {
	w, m := newTestMap(t)
	p := spawnCaster(t, w, m, vec.Vec2{X: 10, Y: 10})
	mon := spawnTarget(m, vec.Vec2{X: 15, Y: 10}, 1000)

	require.True(t, p.CombatEntity.AttemptStartSingleTargetSkill(mon.CombatEntity, data.SkillFireBolt, 1))
	assert.True(t, p.CombatEntity.IsCasting, "у огненной стрелы есть каст")
	assert.Equal(t, 1000, mon.CombatEntity.Stats.Get(stats.Hp), "до конца каста урона нет")

	runFor(m, 1)
	assert.False(t, p.CombatEntity.IsCasting)
	assert.Less(t, mon.CombatEntity.Stats.Get(stats.Hp), 1000)
	assert.Equal(t, 500-12, p.CombatEntity.Stats.Get(stats.Sp))
}

func TestThunderStormHitsOnlyArea(t *testing.T) {
	w, m := newTestMap(t)
	p := spawnCaster(t, w, m, vec.Vec2{X: 10, Y: 10})
	center := vec.Vec2{X: 16, Y: 10}
	inside1 := spawnTarget(m, center, 1)
	inside2 := spawnTarget(m, vec.Vec2{X: 17, Y: 11}, 1)
	outside := spawnTarget(m, vec.Vec2{X: 22, Y: 10}, 1)

	require.True(t, p.CombatEntity.AttemptStartGroundTargetedSkill(center, data.SkillThunderStorm, 1))
	require.True(t, p.CombatEntity.IsCasting)

	runFor(m, 2)
	assert.Equal(t, world.StateDead, inside1.Character.State)
	assert.Equal(t, world.StateDead, inside2.Character.State)
	assert.NotEqual(t, world.StateDead, outside.Character.State, "за пределами 5x5 не задевает")
}

func TestFireWallSpawnsTrap(t *testing.T) {
	w, m := newTestMap(t)
	p := spawnCaster(t, w, m, vec.Vec2{X: 10, Y: 10})
	mon := spawnTarget(m, vec.Vec2{X: 15, Y: 10}, 10000)

	require.True(t, p.CombatEntity.AttemptStartGroundTargetedSkill(vec.Vec2{X: 15, Y: 10}, data.SkillFireWall, 1))
	runFor(m, 2.1)
	require.Equal(t, 1, m.AreaOfEffectCount(), "ловушка стоит")
	assert.Equal(t, 3, m.EntityCount(), "маг, монстр и ловушка")

	runFor(m, 2)
	assert.Less(t, mon.CombatEntity.Stats.Get(stats.Hp), 10000)
	assert.Equal(t, 0, m.AreaOfEffectCount(), "три удара и ловушка гаснет")
	assert.Equal(t, 2, m.EntityCount())
}

func TestBashNeedsAdjacentTarget(t *testing.T) {
	w, m := newTestMap(t)
	p := spawnCaster(t, w, m, vec.Vec2{X: 10, Y: 10})
	mon := spawnTarget(m, vec.Vec2{X: 14, Y: 10}, 1000)

	require.True(t, p.CombatEntity.AttemptStartSingleTargetSkill(mon.CombatEntity, data.SkillBash, 1))
	assert.Equal(t, world.QueuedCast, p.Character.QueuedAction, "далеко: каст в очереди")
	assert.Equal(t, world.StateMoving, p.Character.State)

	runFor(m, 2)
	assert.True(t, p.Character.Position.InRange(mon.Character.Position, 1), "подошёл на удар")
	assert.Equal(t, world.QueuedNone, p.Character.QueuedAction)
	assert.Equal(t, 500-8, p.CombatEntity.Stats.Get(stats.Sp))
}
