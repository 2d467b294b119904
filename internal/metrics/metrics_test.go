package metrics

import (
	"os"
	"testing"

	"github.com/shirou/gopsutil/v3/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gaugeValue(t *testing.T, r *Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := r.Gatherer().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	next:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue next
				}
			}
			if m.GetGauge() != nil {
				return m.GetGauge().GetValue()
			}
			return m.GetCounter().GetValue()
		}
	}
	t.Fatalf("метрика %s %v не найдена", name, labels)
	return 0
}

func TestPoolStats(t *testing.T) {
	r := New()
	r.SetPoolStats("aoe", 10, 7, 5, 3)
	assert.Equal(t, 10.0, gaugeValue(t, r, "zone_pool_objects", map[string]string{"pool": "aoe", "kind": "created"}))
	assert.Equal(t, 3.0, gaugeValue(t, r, "zone_pool_objects", map[string]string{"pool": "aoe", "kind": "free"}))
}

func TestCombatOutcomes(t *testing.T) {
	r := New()
	r.CombatOutcomes.WithLabelValues("hit").Inc()
	r.CombatOutcomes.WithLabelValues("hit").Inc()
	assert.Equal(t, 2.0, gaugeValue(t, r, "zone_combat_results_total", map[string]string{"result": "hit"}))
}

func TestSampleProcess(t *testing.T) {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		t.Skipf("gopsutil недоступен: %v", err)
	}
	r := New()
	if err := r.SampleProcess(proc); err != nil {
		t.Skipf("gopsutil не смог прочитать процесс: %v", err)
	}
	assert.Greater(t, gaugeValue(t, r, "zone_process_rss_bytes", nil), 0.0)
}
