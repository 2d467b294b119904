package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/ro-zone/internal/api"
	"github.com/annel0/ro-zone/internal/config"
	"github.com/annel0/ro-zone/internal/data"
	"github.com/annel0/ro-zone/internal/eventbus"
	"github.com/annel0/ro-zone/internal/inbound"
	"github.com/annel0/ro-zone/internal/logging"
	"github.com/annel0/ro-zone/internal/metrics"
	"github.com/annel0/ro-zone/internal/npcs"
	"github.com/annel0/ro-zone/internal/observability"
	"github.com/annel0/ro-zone/internal/outbound"
	"github.com/annel0/ro-zone/internal/skills"
	"github.com/annel0/ro-zone/internal/world"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (по умолчанию ENV ZONE_CONFIG)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}

	logging.SetLogDir(cfg.Logging.Dir)
	if err := logging.InitDefaultLogger("zone"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()
	defer logging.GetLoggerManager().CloseAll()

	overrides := make(map[string]logging.LogLevel, len(cfg.Logging.Components))
	for c, lvl := range cfg.Logging.Components {
		overrides[c] = logging.ParseLevel(lvl)
	}
	logging.GetLoggerManager().Configure(logging.ParseLevel(cfg.Logging.Level), overrides)

	logging.Info("🎮 Запуск зоны: карты %v, %d тиков/с", cfg.Simulation.Maps, cfg.Simulation.TickRate)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Error("❌ %v", err)
		logging.CloseDefaultLogger()
		os.Exit(1)
	}
	logging.Info("👋 Зона остановлена")
}

func run(ctx context.Context, cfg *config.Config) error {
	shutdownTelemetry, err := observability.InitTelemetry(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("телеметрия: %w", err)
	}
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			logging.Warn("Остановка телеметрии: %v", err)
		}
	}()

	if err := data.Reload(cfg.Data.Dir); err != nil {
		return fmt.Errorf("таблицы данных: %w", err)
	}

	m := metrics.New()
	m.StartHTTP(fmt.Sprintf(":%d", cfg.Metrics.GetMetricsPort()))
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = m.Shutdown(sctx)
	}()

	bus, err := newBus(cfg.EventBus)
	if err != nil {
		return err
	}
	defer bus.Close()

	busKind := "memory"
	if cfg.EventBus.URL != "" {
		busKind = "jetstream"
	}
	if err := eventbus.RegisterMetrics(bus, busKind, m.Registerer()); err != nil {
		return fmt.Errorf("метрики шины: %w", err)
	}

	if logging.ParseLevel(cfg.Logging.Level) <= logging.DEBUG {
		f := eventbus.Filter{Types: []string{inbound.EventTypeRequest}}
		if sub, err := eventbus.StartLoggingListener(bus, f); err == nil {
			defer sub.Unsubscribe()
		}
	}

	dispatcher := outbound.NewDispatcher(bus, cfg.EventBus.Buffer, cfg.EventBus.CompressAbove, m)

	skillReg := world.NewSkillRegistry()
	skills.RegisterAll(skillReg)
	behaviors := world.NewBehaviorRegistry()
	npcs.RegisterAll(behaviors)

	w := world.New(world.OptionsFromConfig(cfg), skillReg, behaviors)
	w.SetOutbox(dispatcher)
	w.SetMetrics(m)
	if err := w.LoadMaps(cfg); err != nil {
		return fmt.Errorf("загрузка карт: %w", err)
	}

	packets := inbound.NewRegistry()
	inbound.RegisterDefaults(packets)
	router := inbound.NewRouter(w, packets, m)
	sub, err := router.Subscribe(ctx, bus)
	if err != nil {
		return fmt.Errorf("подписка на запросы: %w", err)
	}
	defer sub.Unsubscribe()

	var apiServer *api.Server
	if cfg.API.Enabled {
		apiServer = api.NewServer(api.Config{
			Addr:       fmt.Sprintf(":%d", cfg.API.GetAPIPort()),
			World:      w,
			Requests:   router,
			Registerer: m.Registerer(),
		})
		apiServer.Start()
	}

	// диспетчер живёт дольше карт: последние пачки успевают уйти
	dispatchCtx, stopDispatch := context.WithCancel(context.Background())
	dispatcher.Start(dispatchCtx)
	w.Start(ctx)
	logging.Info("✅ Зона запущена: карт %d", len(w.Maps()))

	<-ctx.Done()
	logging.Info("📡 Получен сигнал завершения, останавливаем карты...")

	if apiServer != nil {
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := apiServer.Shutdown(sctx); err != nil {
			logging.Warn("Остановка API: %v", err)
		}
		cancel()
	}
	w.Wait()
	stopDispatch()
	dispatcher.Wait()
	return nil
}

func newBus(cfg config.EventBusConfig) (eventbus.EventBus, error) {
	if cfg.URL == "" {
		logging.Info("🚌 Шина событий: in-memory, буфер %d", cfg.Buffer)
		return eventbus.NewMemoryBus(cfg.Buffer), nil
	}
	bus, err := eventbus.NewJetStreamBus(cfg.URL, cfg.Stream, time.Duration(cfg.Retention)*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("JetStream %s: %w", cfg.URL, err)
	}
	logging.Info("🚌 Шина событий: JetStream %s, поток %s", cfg.URL, cfg.Stream)
	return bus, nil
}
