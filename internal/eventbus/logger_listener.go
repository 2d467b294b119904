package eventbus

import (
	"context"

	"github.com/annel0/ro-zone/internal/logging"
)

// StartLoggingListener пишет в лог DEBUG каждое событие, прошедшее фильтр
func StartLoggingListener(bus EventBus, f Filter) (Subscription, error) {
	log := logging.GetComponentLogger("eventbus")
	sub, err := bus.Subscribe(context.Background(), f, func(ctx context.Context, ev *Envelope) {
		log.Debug("%s %s src=%s prio=%d size=%dB enc=%s",
			ev.ID, ev.EventType, ev.Source, ev.Priority, len(ev.Payload), ev.Metadata["encoding"])
	})
	if err != nil {
		return nil, err
	}
	log.Info("🪵 Журнал событий включён: типы %v, источники %v", f.Types, f.Sources)
	return sub, nil
}
