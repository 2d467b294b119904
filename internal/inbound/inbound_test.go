package inbound

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/ro-zone/internal/eventbus"
	"github.com/annel0/ro-zone/internal/spatial"
	"github.com/annel0/ro-zone/internal/vec"
	"github.com/annel0/ro-zone/internal/world"
)

type testZone struct {
	world  *world.World
	m      *world.Map
	router *Router
}

func newTestZone(t *testing.T) *testZone {
	t.Helper()
	w := world.New(world.Options{TickInterval: 50 * time.Millisecond, CommandQueue: 64, Seed: 1}, nil, nil)
	m, err := w.AddMap("prontera", spatial.NewWalkData(60, 60, 1))
	require.NoError(t, err)

	reg := NewRegistry()
	RegisterDefaults(reg)
	return &testZone{world: w, m: m, router: NewRouter(w, reg, nil)}
}

func (z *testZone) spawn(t *testing.T, name string, pos vec.Vec2) *world.Player {
	t.Helper()
	p := z.world.CreatePlayer(name, 0, 10)
	require.NoError(t, z.world.SpawnPlayer(p, "prontera", pos))
	z.m.ProcessCommands()
	require.True(t, p.Character.IsActive, "игрок должен появиться на карте")
	return p
}

func TestRegisterDefaultsCoversAllPackets(t *testing.T) {
	reg := NewRegistry()
	RegisterDefaults(reg)
	assert.Equal(t, int(PacketUnequipItem), reg.Len(), "обработчик есть у каждого типа, кроме None")

	_, ok := reg.Lookup(PacketNone)
	assert.False(t, ok)
	_, ok = reg.Lookup(PacketSkill)
	assert.True(t, ok)
}

func TestDispatchRejectsBadRequests(t *testing.T) {
	z := newTestZone(t)
	p := z.spawn(t, "Тест", vec.Vec2{X: 10, Y: 10})

	err := z.router.Dispatch(&Request{Actor: p.Entity.Pack(), Type: PacketType(999)})
	assert.True(t, errors.Is(err, ErrUnknownPacket), "неизвестный тип: %v", err)

	err = z.router.Dispatch(&Request{Actor: p.Entity.Pack(), Type: PacketStartMove, Params: []int{1}})
	assert.True(t, errors.Is(err, ErrBadParams), "мало параметров: %v", err)

	err = z.router.Dispatch(&Request{Actor: 12345, Type: PacketStopAction})
	assert.True(t, errors.Is(err, world.ErrPlayerNotFound), "чужой хэндл: %v", err)
}

func TestDispatchStartMoveAndSit(t *testing.T) {
	z := newTestZone(t)
	p := z.spawn(t, "Тест", vec.Vec2{X: 10, Y: 10})

	require.NoError(t, z.router.Dispatch(&Request{Actor: p.Entity.Pack(), Type: PacketSitStand, Params: []int{1}}))
	z.m.ProcessCommands()
	assert.Equal(t, world.StateSitting, p.Character.State, "игрок сел")

	// сидя идти нельзя
	require.NoError(t, z.router.Dispatch(&Request{Actor: p.Entity.Pack(), Type: PacketStartMove, Params: []int{15, 10}}))
	z.m.ProcessCommands()
	assert.Equal(t, world.StateSitting, p.Character.State)

	p.CurrentCooldown = 0
	require.NoError(t, z.router.Dispatch(&Request{Actor: p.Entity.Pack(), Type: PacketSitStand, Params: []int{0}}))
	require.NoError(t, z.router.Dispatch(&Request{Actor: p.Entity.Pack(), Type: PacketStartMove, Params: []int{15, 10}}))
	z.m.ProcessCommands()
	assert.Equal(t, world.StateMoving, p.Character.State, "после подъёма движение началось")
	assert.Equal(t, vec.Vec2{X: 15, Y: 10}, p.Character.TargetPosition)

	require.NoError(t, z.router.Dispatch(&Request{Actor: p.Entity.Pack(), Type: PacketStopImmediate}))
	z.m.ProcessCommands()
	assert.Equal(t, world.StateIdle, p.Character.State)
}

func TestAdminCommandsRequireRights(t *testing.T) {
	z := newTestZone(t)
	p := z.spawn(t, "Тест", vec.Vec2{X: 10, Y: 10})

	require.NoError(t, z.router.Dispatch(&Request{Actor: p.Entity.Pack(), Type: PacketAdminLevelUp, Params: []int{20}}))
	z.m.ProcessCommands()
	assert.Equal(t, 10, p.Level, "без прав уровень не меняется")

	p.IsAdmin = true
	require.NoError(t, z.router.Dispatch(&Request{Actor: p.Entity.Pack(), Type: PacketAdminLevelUp, Params: []int{20}}))
	require.NoError(t, z.router.Dispatch(&Request{Actor: p.Entity.Pack(), Type: PacketAdminLevelUp, Params: []int{0}}))
	z.m.ProcessCommands()
	assert.Equal(t, 21, p.Level)
}

func TestChangeTargetIgnoresOtherMaps(t *testing.T) {
	z := newTestZone(t)
	_, err := z.world.AddMap("geffen", spatial.NewWalkData(30, 30, 2))
	require.NoError(t, err)
	geffen, _ := z.world.Map("geffen")

	p := z.spawn(t, "Тест", vec.Vec2{X: 10, Y: 10})
	near := z.spawn(t, "Сосед", vec.Vec2{X: 12, Y: 10})
	far := z.world.CreatePlayer("Далёкий", 0, 10)
	require.NoError(t, z.world.SpawnPlayer(far, "geffen", vec.Vec2{X: 5, Y: 5}))
	geffen.ProcessCommands()

	require.NoError(t, z.router.Dispatch(&Request{Actor: p.Entity.Pack(), Type: PacketChangeTarget, Target: far.Entity.Pack()}))
	z.m.ProcessCommands()
	assert.True(t, p.Target.IsNull(), "цель с другой карты не выбирается")

	require.NoError(t, z.router.Dispatch(&Request{Actor: p.Entity.Pack(), Type: PacketChangeTarget, Target: near.Entity.Pack()}))
	z.m.ProcessCommands()
	assert.Equal(t, near.Entity, p.Target)
}

func TestSubscribeDecodesBusRequests(t *testing.T) {
	z := newTestZone(t)
	p := z.spawn(t, "Тест", vec.Vec2{X: 10, Y: 10})

	bus := eventbus.NewMemoryBus(16)
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sub, err := z.router.Subscribe(ctx, bus)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	payload, err := EncodeRequest(&Request{Actor: p.Entity.Pack(), Type: PacketSitStand, Params: []int{1}})
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, &eventbus.Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    "gateway",
		EventType: EventTypeRequest,
		Version:   1,
		Priority:  5,
		Payload:   payload,
	}))

	require.Eventually(t, func() bool {
		z.m.ProcessCommands()
		return p.Character.State == world.StateSitting
	}, 2*time.Second, 10*time.Millisecond, "запрос из шины должен дойти до карты")
}

func TestDecodeRequestRejectsGarbage(t *testing.T) {
	_, err := DecodeRequest([]byte{0xc1})
	assert.Error(t, err)
}

func TestParsePacketType(t *testing.T) {
	pt, err := ParsePacketType("Skill")
	require.NoError(t, err)
	assert.Equal(t, PacketSkill, pt)
	assert.Equal(t, "Skill", pt.String())

	_, err = ParsePacketType("None")
	assert.True(t, errors.Is(err, ErrUnknownPacket), "None не настоящий запрос")
}
