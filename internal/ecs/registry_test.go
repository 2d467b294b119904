package ecs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testComponent struct {
	Value  int
	Target Entity
	resets int
}

func (c *testComponent) Reset() {
	c.Value = 0
	c.Target = Null
	c.resets++
}

func TestRegistryCreateDestroy(t *testing.T) {
	reg := NewRegistry(8)

	e := reg.Create(EntityTypePlayer)
	require.True(t, reg.IsAlive(e), "Только что созданная сущность должна быть жива")
	assert.Equal(t, EntityTypePlayer, reg.TypeOf(e))
	assert.Equal(t, 1, reg.Count())

	assert.True(t, reg.Destroy(e))
	assert.False(t, reg.IsAlive(e), "Уничтоженная сущность не должна быть жива")
	assert.False(t, reg.Destroy(e), "Повторное уничтожение: no-op")
	assert.Equal(t, 0, reg.Count())
}

func TestDestroyedHandleStaysDeadAfterSlotReuse(t *testing.T) {
	reg := NewRegistry(1)

	first := reg.Create(EntityTypeMonster)
	reg.Destroy(first)

	for i := 0; i < 50; i++ {
		next := reg.Create(EntityTypeMonster)
		assert.Equal(t, first.Index, next.Index, "Слот должен переиспользоваться")
		assert.Greater(t, next.Generation, first.Generation, "Поколение должно строго расти")
		assert.False(t, reg.IsAlive(first), "Старый хэндл не должен оживать")
		reg.Destroy(next)
	}
}

func TestNullHandleIsNeverAlive(t *testing.T) {
	reg := NewRegistry(1)
	reg.Create(EntityTypeNpc)

	assert.True(t, Null.IsNull())
	assert.False(t, reg.IsAlive(Null))
}

func TestStoreResetsComponentOnDestroy(t *testing.T) {
	reg := NewRegistry(4)
	store := NewStore("test", reg, func() *testComponent { return &testComponent{} })

	e := reg.Create(EntityTypeNpc)
	c := store.Attach(e)
	c.Value = 42
	c.Target = reg.Create(EntityTypeMonster)

	got, ok := store.Get(e)
	require.True(t, ok)
	assert.Same(t, c, got)

	reg.Destroy(e)
	_, ok = store.Get(e)
	assert.False(t, ok, "Компонент уничтоженной сущности не должен резолвиться")
	assert.Equal(t, 1, c.resets, "Reset должен вызываться ровно один раз")
	assert.Equal(t, 0, c.Value)
	assert.True(t, c.Target.IsNull(), "Ссылки должны очищаться при возврате в пул")

	// Следующий заёмщик получает тот же объект, но уже чистым
	e2 := reg.Create(EntityTypeNpc)
	c2 := store.Attach(e2)
	assert.Same(t, c, c2, "Объект должен браться из пула")
	assert.Equal(t, 0, c2.Value)

	stats := store.PoolStats()
	assert.Equal(t, uint64(1), stats.Created)
	assert.Equal(t, uint64(2), stats.Borrowed)
}

func TestStoreMustGetPanicsOnStaleHandle(t *testing.T) {
	reg := NewRegistry(1)
	store := NewStore("test", reg, func() *testComponent { return &testComponent{} })

	e := reg.Create(EntityTypeNpc)
	store.Attach(e)
	reg.Destroy(e)

	assert.Panics(t, func() { store.MustGet(e) })
}

func TestStoreEachVisitsLiveComponents(t *testing.T) {
	reg := NewRegistry(4)
	store := NewStore("test", reg, func() *testComponent { return &testComponent{} })

	a := reg.Create(EntityTypeNpc)
	b := reg.Create(EntityTypeNpc)
	store.Attach(a).Value = 1
	store.Attach(b).Value = 2
	reg.Destroy(a)

	var seen []Entity
	store.Each(func(e Entity, c *testComponent) bool {
		seen = append(seen, e)
		return true
	})
	assert.Equal(t, []Entity{b}, seen)
}

func TestEntityListClearInactive(t *testing.T) {
	reg := NewRegistry(4)
	a := reg.Create(EntityTypePlayer)
	b := reg.Create(EntityTypePlayer)
	c := reg.Create(EntityTypePlayer)

	list := BorrowList()
	defer ReturnList(list)
	list.Add(a)
	list.Add(b)
	list.Add(c)

	reg.Destroy(a)
	reg.Destroy(c)
	list.ClearInactive(reg)

	assert.Equal(t, []Entity{b}, list.Items())
}

func TestEntityPackRoundTrip(t *testing.T) {
	e := Entity{Index: 7, Generation: 3}
	assert.Equal(t, e, Unpack(e.Pack()))
}
