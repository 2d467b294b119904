package outbound

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annel0/ro-zone/internal/ecs"
	"github.com/annel0/ro-zone/internal/eventbus"
	"github.com/annel0/ro-zone/internal/metrics"
	"github.com/annel0/ro-zone/internal/vec"
)

func TestBuilderDropsWithoutRecipients(t *testing.T) {
	cb := NewCommandBuilder("prontera")
	cb.SendDeath(ecs.Entity{Index: 1, Generation: 1}, vec.Vec2{X: 1, Y: 1})
	assert.Equal(t, 0, cb.Pending(), "без получателей уведомление не копится")
	assert.Nil(t, cb.Take(1))
}

func TestBuilderCopiesRecipients(t *testing.T) {
	cb := NewCommandBuilder("prontera")
	a := ecs.Entity{Index: 1, Generation: 1}
	b := ecs.Entity{Index: 2, Generation: 1}

	cb.AddRecipient(a)
	cb.AddRecipient(a)
	cb.AddRecipient(b)
	cb.SendHeal(a, 10, 0)
	cb.ClearRecipients()
	cb.AddRecipient(b)
	cb.SendSitStand(b, true)
	cb.ClearRecipients()
	cb.SendRequestFailed(a, FailNotEnoughSp)

	batch := cb.Take(7)
	require.NotNil(t, batch)
	require.Len(t, batch.Messages, 3)
	assert.Equal(t, []uint64{a.Pack(), b.Pack()}, batch.Messages[0].Recipients, "дубликаты получателей отбрасываются")
	assert.Equal(t, []uint64{b.Pack()}, batch.Messages[1].Recipients)
	assert.Equal(t, KindRequestFailed, batch.Messages[2].Notification.Kind)
	assert.Equal(t, uint64(7), batch.Tick)
	assert.Equal(t, 0, cb.Pending(), "Take опустошает буфер")
}

func bigBatch() *Batch {
	b := &Batch{Map: "prontera", Tick: 3}
	for i := 0; i < 200; i++ {
		b.Messages = append(b.Messages, Message{
			Recipients:   []uint64{uint64(i)},
			Notification: Notification{Kind: KindMove, Source: uint64(i), X: i, Y: i, Values: []int{1, 2}},
		})
	}
	return b
}

func TestEncodeBatchCompressesLargePayloads(t *testing.T) {
	b := bigBatch()

	raw, enc, err := EncodeBatch(b, 0)
	require.NoError(t, err)
	assert.Empty(t, enc)

	packed, enc, err := EncodeBatch(b, 256)
	require.NoError(t, err)
	assert.Equal(t, EncodingZstd, enc)
	assert.Less(t, len(packed), len(raw))

	decoded, err := DecodeBatch(packed, enc)
	require.NoError(t, err)
	assert.Equal(t, b.Map, decoded.Map)
	assert.Len(t, decoded.Messages, 200)
	assert.Equal(t, 150, decoded.Messages[150].Notification.X)

	_, err = DecodeBatch(raw, "lz4")
	assert.Error(t, err)
}

func TestDispatcherPublishesEnvelope(t *testing.T) {
	bus := eventbus.NewMemoryBus(8)
	m := metrics.New()
	d := NewDispatcher(bus, 4, 256, m)

	var mu sync.Mutex
	var got []*eventbus.Envelope
	_, err := bus.Subscribe(context.Background(), eventbus.Filter{Types: []string{EventTypeBatch}}, func(ctx context.Context, ev *eventbus.Envelope) {
		mu.Lock()
		got = append(got, ev)
		mu.Unlock()
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)
	assert.True(t, d.Submit(bigBatch()))
	time.Sleep(20 * time.Millisecond)
	cancel()
	d.Wait()
	require.NoError(t, bus.Close())

	require.Len(t, got, 1)
	ev := got[0]
	assert.Equal(t, "zone/prontera", ev.Source)
	assert.Len(t, ev.ID, 36, "идентификатор: UUID")
	assert.Equal(t, EncodingZstd, ev.Metadata["encoding"])

	decoded, err := DecodeBatch(ev.Payload, ev.Metadata["encoding"])
	require.NoError(t, err)
	assert.Equal(t, uint64(3), decoded.Tick)
}

func TestDispatcherDropsWhenFull(t *testing.T) {
	bus := eventbus.NewMemoryBus(1)
	defer bus.Close()
	d := NewDispatcher(bus, 1, 0, nil)

	assert.True(t, d.Submit(&Batch{Map: "a"}))
	assert.False(t, d.Submit(&Batch{Map: "b"}), "вторая пачка не помещается")
	assert.Equal(t, uint64(1), d.Dropped())
}
