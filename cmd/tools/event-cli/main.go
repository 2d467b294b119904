package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/annel0/ro-zone/internal/eventbus"
	"github.com/annel0/ro-zone/internal/inbound"
	"github.com/annel0/ro-zone/internal/outbound"
)

const defaultNatsURL = "nats://127.0.0.1:4222"

func main() {
	var (
		natsURL = flag.String("nats", defaultNatsURL, "адрес NATS с JetStream")
		stream  = flag.String("stream", "ZONE", "имя стрима")
		command = flag.String("cmd", "tail", "команда: tail, send")
		maps    = flag.String("maps", "", "фильтр карт для tail (через запятую)")
		kinds   = flag.String("kinds", "", "фильтр типов уведомлений для tail (через запятую)")
		limit   = flag.Int("limit", 0, "остановиться после N пачек, 0: без ограничения")
		actor   = flag.Uint64("actor", 0, "упакованный хэндл игрока для send")
		target  = flag.Uint64("target", 0, "упакованный хэндл цели для send")
		packet  = flag.String("packet", "", "тип запроса для send: StartMove, Skill…")
		params  = flag.String("params", "", "параметры запроса через запятую")
	)
	flag.Parse()

	bus, err := eventbus.NewJetStreamBus(*natsURL, *stream, time.Hour)
	if err != nil {
		log.Fatalf("❌ Не удалось подключиться к %s: %v", *natsURL, err)
	}
	defer bus.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch *command {
	case "tail":
		err = tail(ctx, bus, &TailOptions{
			Maps:  parseStringList(*maps),
			Kinds: parseStringList(*kinds),
			Limit: *limit,
		})
	case "send":
		err = send(ctx, bus, *actor, *target, *packet, *params)
	default:
		fmt.Printf("❌ Неизвестная команда: %s\n", *command)
		fmt.Println("Доступные команды: tail, send")
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("❌ %s: %v", *command, err)
	}
}

type TailOptions struct {
	Maps  []string
	Kinds []string
	Limit int
}

// tail печатает пачки уведомлений по мере публикации
func tail(ctx context.Context, bus eventbus.EventBus, opts *TailOptions) error {
	var sources []string
	for _, m := range opts.Maps {
		sources = append(sources, "zone/"+m)
	}
	kinds := make(map[string]bool, len(opts.Kinds))
	for _, k := range opts.Kinds {
		kinds[k] = true
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	count := 0
	sub, err := bus.Subscribe(ctx, eventbus.Filter{Types: []string{outbound.EventTypeBatch}, Sources: sources},
		func(_ context.Context, ev *eventbus.Envelope) {
			batch, err := outbound.DecodeBatch(ev.Payload, ev.Metadata["encoding"])
			if err != nil {
				fmt.Printf("⚠️ %s: %v\n", ev.ID, err)
				return
			}
			printBatch(batch, kinds)
			count++
			if opts.Limit > 0 && count >= opts.Limit {
				cancel()
			}
		})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	fmt.Printf("🎬 Ожидание пачек (карты: %v)\n", opts.Maps)
	<-ctx.Done()
	fmt.Printf("\n📊 Получено пачек: %d\n", count)
	return nil
}

func printBatch(b *outbound.Batch, kinds map[string]bool) {
	for _, msg := range b.Messages {
		n := msg.Notification
		if len(kinds) > 0 && !kinds[n.Kind.String()] {
			continue
		}
		fmt.Printf("[%s #%d] %-18s src=%d tgt=%d pos=(%d,%d) v=%v", b.Map, b.Tick, n.Kind, n.Source, n.Target, n.X, n.Y, n.Values)
		if n.Text != "" {
			fmt.Printf(" %q", n.Text)
		}
		fmt.Printf(" → %d получателей\n", len(msg.Recipients))
	}
}

// send публикует запрос клиента от имени игрока
func send(ctx context.Context, bus eventbus.EventBus, actor, target uint64, packet, rawParams string) error {
	pt, err := inbound.ParsePacketType(packet)
	if err != nil {
		return err
	}
	var params []int
	for _, s := range parseStringList(rawParams) {
		v, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("параметр %q: %w", s, err)
		}
		params = append(params, v)
	}

	payload, err := inbound.EncodeRequest(&inbound.Request{Actor: actor, Type: pt, Target: target, Params: params})
	if err != nil {
		return err
	}
	err = bus.Publish(ctx, &eventbus.Envelope{
		ID:        uuid.NewString(),
		Timestamp: time.Now().UTC(),
		Source:    "event-cli",
		EventType: inbound.EventTypeRequest,
		Version:   1,
		Priority:  5,
		Payload:   payload,
	})
	if err != nil {
		return err
	}
	fmt.Printf("📨 %v отправлен игроку %d\n", pt, actor)
	return nil
}

func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
