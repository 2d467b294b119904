// Package metrics собирает Prometheus-метрики симуляции зоны.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/annel0/ro-zone/internal/logging"
)

// Registry метрики процесса зоны на собственном prometheus.Registry
type Registry struct {
	reg *prometheus.Registry

	TickDuration    *prometheus.HistogramVec
	TickOverruns    *prometheus.CounterVec
	Entities        *prometheus.GaugeVec
	ActiveAoE       *prometheus.GaugeVec
	CombatOutcomes  *prometheus.CounterVec
	CommandsDropped *prometheus.CounterVec
	PoolObjects     *prometheus.GaugeVec
	OutboundBatches prometheus.Counter
	OutboundBytes   prometheus.Counter
	InboundRequests *prometheus.CounterVec

	processCPU prometheus.Gauge
	processRSS prometheus.Gauge

	server *http.Server
	quit   chan struct{}
	done   chan struct{}
}

// New создаёт набор метрик зоны
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		TickDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "zone",
			Name:      "tick_duration_seconds",
			Help:      "Длительность тика карты.",
			Buckets:   []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}, []string{"map"}),
		TickOverruns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zone",
			Name:      "tick_overruns_total",
			Help:      "Тиков, не уложившихся в интервал.",
		}, []string{"map"}),
		Entities: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "zone",
			Name:      "entities",
			Help:      "Живые сущности по типам.",
		}, []string{"map", "type"}),
		ActiveAoE: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "zone",
			Name:      "active_aoe",
			Help:      "Активные области эффекта.",
		}, []string{"map"}),
		CombatOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zone",
			Name:      "combat_results_total",
			Help:      "Применённые результаты атак по исходу.",
		}, []string{"result"}),
		CommandsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zone",
			Name:      "commands_dropped_total",
			Help:      "Входящие команды, не поместившиеся в очередь карты.",
		}, []string{"map"}),
		PoolObjects: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "zone",
			Name:      "pool_objects",
			Help:      "Состояние пулов компонентов.",
		}, []string{"pool", "kind"}),
		OutboundBatches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "zone",
			Name:      "outbound_batches_total",
			Help:      "Отправленные пачки уведомлений.",
		}),
		OutboundBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "zone",
			Name:      "outbound_bytes_total",
			Help:      "Объём отправленных пачек после сжатия.",
		}),
		InboundRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "zone",
			Name:      "inbound_requests_total",
			Help:      "Запросы клиентов по типу и результату.",
		}, []string{"type", "result"}),
		processCPU: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "zone",
			Name:      "process_cpu_percent",
			Help:      "Загрузка CPU процессом.",
		}),
		processRSS: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "zone",
			Name:      "process_rss_bytes",
			Help:      "Резидентная память процесса.",
		}),
	}

	r.reg.MustRegister(
		r.TickDuration, r.TickOverruns, r.Entities, r.ActiveAoE, r.CombatOutcomes,
		r.CommandsDropped, r.PoolObjects, r.OutboundBatches, r.OutboundBytes,
		r.InboundRequests, r.processCPU, r.processRSS,
	)
	return r
}

// Registerer даёт доступ к регистру для метрик других пакетов
func (r *Registry) Registerer() prometheus.Registerer { return r.reg }

// Gatherer для тестов и экспорта
func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

// SetPoolStats публикует счётчики пула
func (r *Registry) SetPoolStats(pool string, created, borrowed, returned, free uint64) {
	r.PoolObjects.WithLabelValues(pool, "created").Set(float64(created))
	r.PoolObjects.WithLabelValues(pool, "borrowed").Set(float64(borrowed))
	r.PoolObjects.WithLabelValues(pool, "returned").Set(float64(returned))
	r.PoolObjects.WithLabelValues(pool, "free").Set(float64(free))
}

// StartHTTP поднимает /metrics на addr и запускает сэмплирование процесса.
// Метод неблокирующий.
func (r *Registry) StartHTTP(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}))
	r.server = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		logging.Info("📈 Prometheus /metrics доступен по адресу %s", addr)
		if err := r.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Ошибка Prometheus HTTP сервера: %v", err)
		}
	}()

	r.quit = make(chan struct{})
	r.done = make(chan struct{})
	go r.sampleProcess(5 * time.Second)
}

// Shutdown останавливает HTTP-сервер и сэмплирование
func (r *Registry) Shutdown(ctx context.Context) error {
	if r.quit != nil {
		close(r.quit)
		<-r.done
		r.quit = nil
	}
	if r.server == nil {
		return nil
	}
	return r.server.Shutdown(ctx)
}

func (r *Registry) sampleProcess(interval time.Duration) {
	defer close(r.done)

	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		logging.Warn("gopsutil: процесс недоступен: %v", err)
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if err := r.SampleProcess(proc); err != nil {
				logging.Debug("gopsutil: %v", err)
			}
		case <-r.quit:
			return
		}
	}
}

// SampleProcess снимает CPU и RSS процесса
func (r *Registry) SampleProcess(proc *process.Process) error {
	cpu, err := proc.CPUPercent()
	if err != nil {
		return fmt.Errorf("cpu: %w", err)
	}
	mem, err := proc.MemoryInfo()
	if err != nil {
		return fmt.Errorf("memory: %w", err)
	}
	r.processCPU.Set(cpu)
	r.processRSS.Set(float64(mem.RSS))
	return nil
}
