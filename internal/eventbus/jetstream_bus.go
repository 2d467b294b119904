package eventbus

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	nats "github.com/nats-io/nats.go"
	"github.com/vmihailenco/msgpack/v5"
)

// JetStreamBus реализует EventBus поверх NATS JetStream.
// Subject события: zone.<EventType>.<источник>, где "/" в источнике заменён на ".",
// так что подписка на одну карту фильтруется на стороне сервера.
type JetStreamBus struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	stream string

	published atomic.Uint64
	consumed  atomic.Uint64
	dropped   atomic.Uint64
}

// NewJetStreamBus подключается к NATS и создаёт стрим, если его нет
func NewJetStreamBus(url, stream string, retention time.Duration) (*JetStreamBus, error) {
	if stream == "" {
		stream = "ZONE"
	}

	nc, err := nats.Connect(url, nats.Name("ro-zone"), nats.MaxReconnects(-1))
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	if _, err = js.StreamInfo(stream); err != nil {
		_, err = js.AddStream(&nats.StreamConfig{
			Name:      stream,
			Subjects:  []string{"zone.>"},
			Retention: nats.LimitsPolicy,
			MaxAge:    retention,
			Storage:   nats.MemoryStorage,
			Discard:   nats.DiscardOld,
		})
		if err != nil {
			nc.Close()
			return nil, fmt.Errorf("add stream %s: %w", stream, err)
		}
	}
	return &JetStreamBus{nc: nc, js: js, stream: stream}, nil
}

func token(s string) string {
	s = strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_").Replace(s)
	if s == "" {
		return "_"
	}
	return s
}

func subjectFor(eventType, source string) string {
	parts := []string{"zone", token(eventType)}
	for _, p := range strings.Split(source, "/") {
		parts = append(parts, token(p))
	}
	return strings.Join(parts, ".")
}

// subjectForFilter сужает подписку, когда фильтр задаёт один тип и один источник
func subjectForFilter(f Filter) string {
	if len(f.Types) != 1 {
		return "zone.>"
	}
	base := "zone." + token(f.Types[0])
	if len(f.Sources) != 1 {
		return base + ".>"
	}
	src := f.Sources[0]
	if prefix, ok := strings.CutSuffix(src, "*"); ok {
		prefix = strings.TrimSuffix(prefix, "/")
		if prefix == "" {
			return base + ".>"
		}
		return subjectFor(f.Types[0], prefix) + ".>"
	}
	return subjectFor(f.Types[0], src)
}

// Publish сериализует Envelope в msgpack. MsgId включает дедупликацию на сервере.
func (jb *JetStreamBus) Publish(ctx context.Context, ev *Envelope) error {
	data, err := msgpack.Marshal(ev)
	if err != nil {
		jb.dropped.Add(1)
		return fmt.Errorf("encode envelope: %w", err)
	}
	_, err = jb.js.Publish(subjectFor(ev.EventType, ev.Source), data, nats.Context(ctx), nats.MsgId(ev.ID))
	if err != nil {
		jb.dropped.Add(1)
		return err
	}
	jb.published.Add(1)
	return nil
}

// Subscribe создаёт эфемерного потребителя, начиная с новых сообщений
func (jb *JetStreamBus) Subscribe(ctx context.Context, f Filter, h Handler) (Subscription, error) {
	natSub, err := jb.js.Subscribe(subjectForFilter(f), func(msg *nats.Msg) {
		var ev Envelope
		if err := msgpack.Unmarshal(msg.Data, &ev); err == nil && f.Match(&ev) {
			h(ctx, &ev)
			jb.consumed.Add(1)
		}
		_ = msg.Ack()
	}, nats.BindStream(jb.stream), nats.DeliverNew(), nats.ManualAck(), nats.AckWait(30*time.Second))
	if err != nil {
		return nil, fmt.Errorf("subscribe %s: %w", subjectForFilter(f), err)
	}
	return &jetSub{natSub}, nil
}

type jetSub struct {
	s *nats.Subscription
}

func (j *jetSub) Unsubscribe() {
	_ = j.s.Unsubscribe()
}

func (jb *JetStreamBus) Metrics() Stats {
	return Stats{
		Published: jb.published.Load(),
		Consumed:  jb.consumed.Load(),
		Dropped:   jb.dropped.Load(),
	}
}

// Close дожидается отправки и закрывает соединение
func (jb *JetStreamBus) Close() error {
	return jb.nc.Drain()
}
