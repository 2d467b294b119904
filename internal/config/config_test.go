package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEmptyPathReturnsDefaults(t *testing.T) {
	t.Setenv("ZONE_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 20, cfg.Simulation.TickRate)
	assert.Equal(t, time.Second/20, cfg.Simulation.TickInterval())
	assert.False(t, cfg.Debug.Assertions, "Проверки инвариантов по умолчанию выключены")
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zone.yaml")
	content := []byte(`
simulation:
  tick_rate: 50
  maps: [prt_fild08, geffen]
debug:
  assertions: true
`)
	require.NoError(t, os.WriteFile(path, content, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Simulation.TickRate)
	assert.Equal(t, []string{"prt_fild08", "geffen"}, cfg.Simulation.Maps)
	assert.True(t, cfg.Debug.Assertions)
	assert.Equal(t, 1024, cfg.Simulation.CommandQueue, "Незаданные поля должны сохранять значения по умолчанию")
}

func TestLoadRejectsEmptyMapList(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zone.yaml")
	require.NoError(t, os.WriteFile(path, []byte("simulation:\n  maps: []\n"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Simulation.TickRate = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Simulation.TerrainDensity = 1
	assert.Error(t, cfg.Validate(), "сплошные стены не годятся")
}

func TestLoggingComponents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zone.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n  components:\n    combat: warn\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, map[string]string{"combat": "warn"}, cfg.Logging.Components)
}

func TestMetricsPortFallback(t *testing.T) {
	t.Setenv("ZONE_METRICS_PORT", "9100")
	m := MetricsConfig{}
	assert.Equal(t, 9100, m.GetMetricsPort())

	m.Port = 9200
	assert.Equal(t, 9200, m.GetMetricsPort(), "Порт из конфига имеет приоритет над ENV")
}

func TestAPIPortDefault(t *testing.T) {
	t.Setenv("ZONE_API_PORT", "")
	a := APIConfig{}
	assert.Equal(t, 8088, a.GetAPIPort())
}
