package outbound

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/annel0/ro-zone/internal/eventbus"
	"github.com/annel0/ro-zone/internal/logging"
	"github.com/annel0/ro-zone/internal/metrics"
)

// EventTypeBatch тип события пачки уведомлений
const EventTypeBatch = "ZoneBatch"

// Dispatcher сериализует и публикует пачки вне потока симуляции.
// Submit никогда не блокирует: при переполнении очереди пачка отбрасывается.
type Dispatcher struct {
	bus           eventbus.EventBus
	queue         chan *Batch
	compressAbove int
	metrics       *metrics.Registry
	log           *logging.Logger

	mu      sync.Mutex
	dropped uint64
	wg      sync.WaitGroup
}

// NewDispatcher создаёт диспетчер с очередью на queueSize пачек.
// m может быть nil.
func NewDispatcher(bus eventbus.EventBus, queueSize, compressAbove int, m *metrics.Registry) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Dispatcher{
		bus:           bus,
		queue:         make(chan *Batch, queueSize),
		compressAbove: compressAbove,
		metrics:       m,
		log:           logging.GetOutboundLogger(),
	}
}

// Submit ставит пачку в очередь на отправку
func (d *Dispatcher) Submit(b *Batch) bool {
	if b == nil {
		return true
	}
	select {
	case d.queue <- b:
		return true
	default:
		d.mu.Lock()
		d.dropped++
		dropped := d.dropped
		d.mu.Unlock()
		d.log.Warn("⚠️ Очередь исходящих переполнена, пачка карты %s (тик %d) отброшена, всего %d", b.Map, b.Tick, dropped)
		return false
	}
}

// Dropped количество отброшенных пачек
func (d *Dispatcher) Dropped() uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dropped
}

// Start запускает Run в отдельной горутине
func (d *Dispatcher) Start(ctx context.Context) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		d.Run(ctx)
	}()
}

// Run обрабатывает очередь до отмены ctx, затем отправляет остаток
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case b := <-d.queue:
			d.publish(ctx, b)
		case <-ctx.Done():
			d.drain()
			return
		}
	}
}

// Wait дожидается завершения горутины, запущенной Start
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

func (d *Dispatcher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for {
		select {
		case b := <-d.queue:
			d.publish(ctx, b)
		default:
			return
		}
	}
}

// Publish синхронно кодирует и публикует пачку
func (d *Dispatcher) Publish(ctx context.Context, b *Batch) error {
	payload, encoding, err := EncodeBatch(b, d.compressAbove)
	if err != nil {
		return err
	}

	env := &eventbus.Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    "zone/" + b.Map,
		EventType: EventTypeBatch,
		Version:   1,
		Priority:  5,
		Payload:   payload,
		Metadata: map[string]string{
			"tick":     strconv.FormatUint(b.Tick, 10),
			"messages": strconv.Itoa(len(b.Messages)),
		},
	}
	if encoding != "" {
		env.Metadata["encoding"] = encoding
	}

	if err := d.bus.Publish(ctx, env); err != nil {
		return err
	}
	if d.metrics != nil {
		d.metrics.OutboundBatches.Inc()
		d.metrics.OutboundBytes.Add(float64(len(payload)))
	}
	return nil
}

func (d *Dispatcher) publish(ctx context.Context, b *Batch) {
	if err := d.Publish(ctx, b); err != nil {
		d.log.Error("❌ Публикация пачки карты %s (тик %d): %v", b.Map, b.Tick, err)
	}
}
