package world

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/annel0/ro-zone/internal/data"
	"github.com/annel0/ro-zone/internal/ecs"
	"github.com/annel0/ro-zone/internal/outbound"
	"github.com/annel0/ro-zone/internal/spatial"
	"github.com/annel0/ro-zone/internal/stats"
	"github.com/annel0/ro-zone/internal/vec"
)

// recordingOutbox запоминает все пачки карты
type recordingOutbox struct {
	mu      sync.Mutex
	batches []*outbound.Batch
}

func (r *recordingOutbox) Submit(b *outbound.Batch) bool {
	r.mu.Lock()
	r.batches = append(r.batches, b)
	r.mu.Unlock()
	return true
}

// count сколько уведомлений вида kind получил recipient
func (r *recordingOutbox) count(kind outbound.Kind, recipient ecs.Entity) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, b := range r.batches {
		for _, msg := range b.Messages {
			if msg.Notification.Kind != kind {
				continue
			}
			for _, rc := range msg.Recipients {
				if rc == recipient.Pack() {
					n++
					break
				}
			}
		}
	}
	return n
}

func newTestWorld(t *testing.T, skills *SkillRegistry, behaviors *BehaviorRegistry) (*World, *Map, *recordingOutbox) {
	t.Helper()
	return newTestWorldOn(t, spatial.NewWalkData(60, 60, 1), skills, behaviors)
}

// newTestWorldOn мир с одной картой prontera на заданной сетке
func newTestWorldOn(t *testing.T, walk spatial.Query, skills *SkillRegistry, behaviors *BehaviorRegistry) (*World, *Map, *recordingOutbox) {
	t.Helper()
	w := New(Options{TickInterval: 50 * time.Millisecond, CommandQueue: 64, Seed: 1}, skills, behaviors)
	m, err := w.AddMap("prontera", walk)
	require.NoError(t, err)
	out := &recordingOutbox{}
	w.SetOutbox(out)
	return w, m, out
}

func spawnTestPlayer(t *testing.T, w *World, m *Map, name string, pos vec.Vec2) *Player {
	t.Helper()
	p := w.CreatePlayer(name, data.JobNovice, 10)
	require.NoError(t, w.SpawnPlayer(p, m.Name, pos))
	m.ProcessCommands()
	require.True(t, p.Character.IsActive, "игрок %s должен появиться", name)
	require.Equal(t, pos, p.Character.Position)
	return p
}

// runFor крутит тики карты по step секунд, пока не пройдёт duration
func runFor(m *Map, duration, step float64) {
	for t := 0.0; t < duration; t += step {
		m.Update(context.Background(), step)
	}
}

func TestUpdateAdvancesClock(t *testing.T) {
	_, m, _ := newTestWorld(t, nil, nil)

	m.Update(context.Background(), 0.05)
	m.Update(context.Background(), 0.05)

	assert.Equal(t, uint64(2), m.Tick())
	assert.InDelta(t, 0.1, m.Time.Elapsed, 1e-9)
	assert.InDelta(t, 0.05, m.Time.Delta, 1e-9)
}

func TestEnqueueReportsFullQueue(t *testing.T) {
	w := New(Options{CommandQueue: 1}, nil, nil)
	m, err := w.AddMap("prontera", spatial.NewWalkData(10, 10, 1))
	require.NoError(t, err)

	require.NoError(t, m.Enqueue(func(*Map) {}))
	err = m.Enqueue(func(*Map) {})
	assert.True(t, errors.Is(err, ErrQueueFull), "вторая команда не помещается: %v", err)

	err = m.EnqueueWait(func(*Map) {}, 10*time.Millisecond)
	assert.True(t, errors.Is(err, ErrQueueFull))

	assert.Equal(t, 1, m.ProcessCommands())
	assert.NoError(t, m.Enqueue(func(*Map) {}))
}

func TestAddMapRejectsDuplicate(t *testing.T) {
	w, _, _ := newTestWorld(t, nil, nil)
	_, err := w.AddMap("prontera", spatial.NewWalkData(10, 10, 1))
	assert.Error(t, err)
	assert.Equal(t, []string{"prontera"}, w.Maps())
}

func TestSpawnPlayerUnknownMap(t *testing.T) {
	w, _, _ := newTestWorld(t, nil, nil)
	p := w.CreatePlayer("Тест", data.JobNovice, 1)
	err := w.SpawnPlayer(p, "nowhere", vec.Vec2{X: 1, Y: 1})
	assert.True(t, errors.Is(err, ErrMapNotFound))
}

func TestStaleHandleIsNoop(t *testing.T) {
	w, m, _ := newTestWorld(t, nil, nil)
	p := spawnTestPlayer(t, w, m, "Тест", vec.Vec2{X: 10, Y: 10})
	old := p.Entity

	require.NoError(t, w.RemovePlayer(old))
	m.Update(context.Background(), 0.05)

	assert.False(t, w.Registry.IsAlive(old), "сущность уничтожена в конце тика")
	assert.Equal(t, 0, m.EntityCount())
	assert.Equal(t, 0, w.PlayerCount())

	// новая сущность может занять тот же слот, старый хэндл остаётся мёртвым
	fresh := w.CreatePlayer("Новый", data.JobNovice, 1)
	assert.NotEqual(t, old, fresh.Entity)
	_, ok := w.Players.Get(old)
	assert.False(t, ok, "старый хэндл не находит новый компонент")

	called := false
	err := w.SubmitForPlayer(old, func(*Player) { called = true })
	assert.True(t, errors.Is(err, ErrPlayerNotFound))
	m.ProcessCommands()
	assert.False(t, called)
}

func TestVisibilityLinkAndUnlink(t *testing.T) {
	w, m, out := newTestWorld(t, nil, nil)
	a := spawnTestPlayer(t, w, m, "Первый", vec.Vec2{X: 10, Y: 10})
	b := spawnTestPlayer(t, w, m, "Второй", vec.Vec2{X: 12, Y: 10})

	assert.Equal(t, 1, a.Character.CountVisiblePlayers(), "второй видит первого")
	assert.Equal(t, 1, b.Character.CountVisiblePlayers(), "первый видит второго")

	m.TeleportEntity(b.Character, vec.Vec2{X: 50, Y: 50})
	assert.Equal(t, 0, a.Character.CountVisiblePlayers(), "после телепорта связь разорвана")
	assert.Equal(t, 0, b.Character.CountVisiblePlayers())

	m.Update(context.Background(), 0.05)
	assert.Equal(t, 1, out.count(outbound.KindEntityAppear, b.Entity))
	assert.Equal(t, 1, out.count(outbound.KindEntityDisappear, b.Entity))

	mon := m.SpawnMonsterAt(data.Current().Monster("PORING"), vec.Vec2{X: 11, Y: 11}, vec.ZeroArea)
	assert.Equal(t, 1, mon.Character.CountVisiblePlayers(), "монстра видит только первый")
}

func TestTransferBetweenMaps(t *testing.T) {
	w, m, out := newTestWorld(t, nil, nil)
	geffen, err := w.AddMap("geffen", spatial.NewWalkData(40, 40, 2))
	require.NoError(t, err)
	p := spawnTestPlayer(t, w, m, "Тест", vec.Vec2{X: 10, Y: 10})

	require.True(t, p.WarpPlayer("geffen", vec.Vec2{X: 20, Y: 20}, 0))
	assert.False(t, p.Character.IsActive, "до обработки очереди игрок ни на одной карте")
	assert.Equal(t, 0, m.EntityCount())

	name, ok := w.MapOfPlayer(p.Entity)
	require.True(t, ok)
	assert.Equal(t, "geffen", name)

	geffen.ProcessCommands()
	assert.Same(t, geffen, p.Character.Map)
	assert.Equal(t, vec.Vec2{X: 20, Y: 20}, p.Character.Position)
	assert.Equal(t, 1, geffen.EntityCount())

	geffen.Update(context.Background(), 0.05)
	assert.Equal(t, 1, out.count(outbound.KindChangeMaps, p.Entity), "уведомление шлёт карта назначения")

	assert.False(t, p.WarpPlayer("nowhere", vec.Vec2{X: 1, Y: 1}, 0), "неизвестная карта")
}

func TestMonsterDeathRespawnAndExperience(t *testing.T) {
	w, m, _ := newTestWorld(t, nil, nil)
	p := spawnTestPlayer(t, w, m, "Охотник", vec.Vec2{X: 10, Y: 10})
	mon, err := m.SpawnMonster("PORING", vec.AreaAround(vec.Vec2{X: 40, Y: 40}, 3))
	require.NoError(t, err)
	e := mon.Entity
	require.Equal(t, 2, m.EntityCount())

	mon.CombatEntity.TakeDamage(1000, p.Entity)
	assert.Equal(t, StateDead, mon.Character.State)
	assert.Equal(t, 2, p.Experience, "опыт за Poring")
	assert.Equal(t, 1, m.PendingRespawns())
	assert.Equal(t, 1, m.EntityCount())

	m.Update(context.Background(), 0.5)
	assert.False(t, w.Registry.IsAlive(e), "труп уничтожен в конце тика")

	runFor(m, 5, 0.5)
	assert.Equal(t, 0, m.PendingRespawns())
	assert.Equal(t, 2, m.EntityCount(), "монстр появился снова")
}

func TestUnknownMonster(t *testing.T) {
	_, m, _ := newTestWorld(t, nil, nil)
	_, err := m.SpawnMonster("NOPE", vec.ZeroArea)
	assert.True(t, errors.Is(err, ErrUnknownMonster))
}

func TestGroundItemPickUpAndExpiry(t *testing.T) {
	w, m, _ := newTestWorld(t, nil, nil)
	p := spawnTestPlayer(t, w, m, "Тест", vec.Vec2{X: 10, Y: 10})

	id := m.DropItem(909, 3, vec.Vec2{X: 11, Y: 10})
	require.True(t, p.TryPickUp(id))
	assert.Equal(t, QueuedPickUpItem, p.Character.QueuedAction)

	m.Update(context.Background(), 0.05)
	assert.Equal(t, 3, p.Inventory[909])
	assert.Equal(t, 30, p.InventoryWeight())
	assert.Equal(t, 0, m.GroundItemCount())
	assert.False(t, p.TryPickUp(id), "предмета больше нет")

	m.DropItem(909, 1, vec.Vec2{X: 30, Y: 30})
	m.Update(context.Background(), groundItemLifetime+1)
	assert.Equal(t, 0, m.GroundItemCount(), "предмет истёк")
}

func TestLoadMapScript(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "maps"), 0o755))
	script := `
spawns:
  - monster: PORING
    count: 3
    area: {x: 20, y: 20, radius: 5}
  - monster: NOPE
    count: 2
npcs:
  - name: Столб
    behavior: marker
    x: 5
    y: 5
    width: 1
    height: 1
    values: [7, 8]
    text: привет
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "maps", "prontera.yaml"), []byte(script), 0o644))

	s, err := LoadMapScript(dir, "prontera")
	require.NoError(t, err)
	require.NotNil(t, s)
	require.Len(t, s.Spawns, 2)
	require.NotNil(t, s.Spawns[0].Area)
	assert.Equal(t, 5, s.Spawns[0].Area.Radius)
	assert.Equal(t, []int{7, 8}, s.Npcs[0].Values)

	missing, err := LoadMapScript(dir, "geffen")
	require.NoError(t, err)
	assert.Nil(t, missing, "нет файла: нет скрипта")

	behaviors := NewBehaviorRegistry()
	marker := &countingBehavior{}
	behaviors.Register("marker", marker)
	w, m, _ := newTestWorld(t, nil, behaviors)
	m.ApplyScript(s)

	assert.Equal(t, 4, m.EntityCount(), "три монстра и NPC, неизвестный монстр пропущен")
	assert.Equal(t, 1, marker.inits)
	var npc *Npc
	w.Npcs.Each(func(_ ecs.Entity, n *Npc) bool {
		npc = n
		return false
	})
	require.NotNil(t, npc)
	assert.Equal(t, "привет", npc.Params.Text)
	assert.Equal(t, [4]int{7, 8, 0, 0}, npc.Values)
}

func TestTransferPicksCellOnDestination(t *testing.T) {
	w, m, _ := newTestWorld(t, nil, nil)
	geffen, err := w.AddMap("geffen", spatial.NewWalkData(40, 40, 2))
	require.NoError(t, err)
	p := spawnTestPlayer(t, w, m, "Тест", vec.Vec2{X: 10, Y: 10})

	center := vec.Vec2{X: 20, Y: 20}
	require.True(t, p.WarpPlayer("geffen", center, 3))
	assert.Nil(t, p.Character.Map, "клетку выберет поток geffen")

	geffen.ProcessCommands()
	assert.Same(t, geffen, p.Character.Map)
	assert.True(t, p.Character.Position.InRange(center, 3), "позиция %v", p.Character.Position)
}

func TestTransferToFullQueueKeepsPlayer(t *testing.T) {
	w := New(Options{TickInterval: 50 * time.Millisecond, CommandQueue: 2, Seed: 1}, nil, nil)
	m, err := w.AddMap("prontera", spatial.NewWalkData(60, 60, 1))
	require.NoError(t, err)
	geffen, err := w.AddMap("geffen", spatial.NewWalkData(40, 40, 2))
	require.NoError(t, err)
	p := spawnTestPlayer(t, w, m, "Тест", vec.Vec2{X: 10, Y: 10})

	require.NoError(t, geffen.Enqueue(func(*Map) {}))
	require.NoError(t, geffen.Enqueue(func(*Map) {}))

	start := time.Now()
	assert.False(t, p.WarpPlayer("geffen", vec.Vec2{X: 20, Y: 20}, 0))
	assert.Less(t, time.Since(start), 10*time.Millisecond, "поток карты не ждёт чужую очередь")

	assert.Same(t, m, p.Character.Map)
	assert.True(t, p.Character.IsActive)
	assert.Equal(t, vec.Vec2{X: 10, Y: 10}, p.Character.Position)
	name, ok := w.MapOfPlayer(p.Entity)
	require.True(t, ok)
	assert.Equal(t, "prontera", name)

	assert.Equal(t, 2, geffen.ProcessCommands(), "команды перехода в очереди нет")
	assert.Equal(t, 0, geffen.EntityCount())
}

func TestTargetOnOtherMapIsInvalid(t *testing.T) {
	w, m, _ := newTestWorld(t, nil, nil)
	geffen, err := w.AddMap("geffen", spatial.NewWalkData(40, 40, 2))
	require.NoError(t, err)
	p := spawnTestPlayer(t, w, m, "Тест", vec.Vec2{X: 10, Y: 10})
	p.Character.ResetSpawnImmunity()
	mon := spawnStunnedMonster(m, vec.Vec2{X: 12, Y: 10})
	require.True(t, p.CombatEntity.IsValidTarget(mon.CombatEntity))

	require.True(t, p.WarpPlayer("geffen", vec.Vec2{X: 5, Y: 5}, 0))
	assert.False(t, m.Holds(p.Entity))
	assert.False(t, p.CombatEntity.IsValidTarget(mon.CombatEntity), "игрок в пути")

	geffen.ProcessCommands()
	assert.True(t, geffen.Holds(p.Entity))
	assert.False(t, p.CombatEntity.IsValidTarget(mon.CombatEntity), "цель на другой карте")
}

func TestDeathClearsStatusModifiers(t *testing.T) {
	w, m, _ := newTestWorld(t, nil, nil)
	p := spawnTestPlayer(t, w, m, "Тест", vec.Vec2{X: 10, Y: 10})
	p.SavePoint = data.SavePoint{Name: "prontera", Map: "prontera", X: 30, Y: 30}
	ce := p.CombatEntity
	flee, speed := ce.GetStat(stats.Flee), p.Character.MoveSpeed

	ce.AddStatusEffect(StatusCurse, 100)
	ce.AddStatusEffect(StatusIncreaseAgi, 100, stats.Modifier{Stat: stats.Agi, Value: 60})
	require.Equal(t, flee+60, ce.GetStat(stats.Flee))
	require.Greater(t, p.Character.MoveSpeed, speed, "проклятие замедляет")

	ce.TakeDamage(1_000_000, ecs.Null)
	require.Equal(t, StateDead, p.Character.State)
	assert.False(t, ce.HasStatusEffect(StatusCurse))
	assert.Equal(t, flee, ce.GetStat(stats.Flee), "надбавка ловкости снята")
	assert.InDelta(t, speed, p.Character.MoveSpeed, 1e-9, "скорость без проклятия")
	assert.InDelta(t, speed, ce.Stats.Timing(stats.MoveSpeed), 1e-9)

	require.True(t, p.Respawn())
	assert.Equal(t, flee, ce.GetStat(stats.Flee))
	assert.InDelta(t, speed, p.Character.MoveSpeed, 1e-9)
}

func TestWarpWhileBothMapsRun(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	w, m, out := newTestWorld(t, nil, nil)
	geffen, err := w.AddMap("geffen", spatial.NewWalkData(40, 40, 2))
	require.NoError(t, err)
	for i := 0; i < 30; i++ {
		_, err := geffen.SpawnMonster("PORING", vec.ZeroArea)
		require.NoError(t, err)
	}
	p := spawnTestPlayer(t, w, m, "Тест", vec.Vec2{X: 10, Y: 10})

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		err := w.SubmitForPlayer(p.Entity, func(p *Player) {
			next := "geffen"
			if p.Character.Map.Name == "geffen" {
				next = "prontera"
			}
			p.WarpPlayer(next, vec.Vec2{X: 20, Y: 20}, 5)
		})
		if err != nil {
			require.ErrorIs(t, err, ErrQueueFull)
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	w.Wait()

	// догоняем команды, оставшиеся в очередях после остановки:
	// запоздавший варп ставит прибытие в очередь другой карты
	for m.ProcessCommands()+geffen.ProcessCommands() > 0 {
	}

	assert.Greater(t, out.count(outbound.KindChangeMaps, p.Entity), 1)
	name, ok := w.MapOfPlayer(p.Entity)
	require.True(t, ok)
	require.NotNil(t, p.Character.Map, "игрок не потерялся между картами")
	assert.Equal(t, name, p.Character.Map.Name)
	assert.True(t, p.Character.IsActive)
	assert.Equal(t, 31, m.EntityCount()+geffen.EntityCount(), "игрок ровно на одной карте")
}

func TestLoadWalkDataFallsBackToGenerated(t *testing.T) {
	walk, err := loadWalkData(t.TempDir(), "prontera", 40, 0, 1)
	require.NoError(t, err)
	assert.Equal(t, 40, walk.Bounds().Width())
	assert.True(t, walk.IsWalkable(vec.Vec2{X: 20, Y: 20}), "без плотности карта открыта")
}

func TestStartStopsMapsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	w, m, out := newTestWorld(t, nil, nil)
	_, err := w.AddMap("geffen", spatial.NewWalkData(40, 40, 2))
	require.NoError(t, err)
	p := spawnTestPlayer(t, w, m, "Тест", vec.Vec2{X: 10, Y: 10})

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)
	require.NoError(t, w.SubmitForPlayer(p.Entity, func(p *Player) {
		p.RequestMove(vec.Vec2{X: 14, Y: 10})
	}))
	require.Eventually(t, func() bool {
		return out.count(outbound.KindMove, p.Entity) > 0
	}, time.Second, 10*time.Millisecond, "команда выполнена на потоке карты")

	cancel()
	w.Wait()
}
