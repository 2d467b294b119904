package world

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/annel0/ro-zone/internal/ecs"
	"github.com/annel0/ro-zone/internal/spatial"
	"github.com/annel0/ro-zone/internal/vec"
)

// defaultMapSize размер открытой карты, если файла геометрии нет
const defaultMapSize = 300

// SpawnEntry группа монстров одного вида
type SpawnEntry struct {
	Monster string `yaml:"monster"`
	Count   int    `yaml:"count"`
	// Area пустая: вся карта
	Area *struct {
		X      int `yaml:"x"`
		Y      int `yaml:"y"`
		Radius int `yaml:"radius"`
	} `yaml:"area"`
}

// NpcEntry NPC из скрипта карты
type NpcEntry struct {
	Name     string `yaml:"name"`
	Behavior string `yaml:"behavior"`
	X        int    `yaml:"x"`
	Y        int    `yaml:"y"`
	Width    int    `yaml:"width"`
	Height   int    `yaml:"height"`
	Values   []int  `yaml:"values"`
	Text     string `yaml:"text"`
}

// MapScript монстры и NPC карты
type MapScript struct {
	Spawns []SpawnEntry `yaml:"spawns"`
	Npcs   []NpcEntry   `yaml:"npcs"`
}

// LoadMapScript читает <dir>/maps/<name>.yaml. Отсутствие файла: не ошибка, вернётся nil.
func LoadMapScript(dir, name string) (*MapScript, error) {
	path := filepath.Join(dir, "maps", name+".yaml")
	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("скрипт карты %s: %w", name, err)
	}
	var script MapScript
	if err := yaml.Unmarshal(raw, &script); err != nil {
		return nil, fmt.Errorf("разбор скрипта карты %s: %w", path, err)
	}
	return &script, nil
}

// loadWalkData читает <dir>/maps/<name>.txt(.gz). Без файла карта генерируется по seed.
func loadWalkData(dir, name string, size int, density float64, seed uint64) (spatial.Query, error) {
	for _, ext := range []string{".txt", ".txt.gz"} {
		path := filepath.Join(dir, "maps", name+ext)
		wd, err := spatial.LoadWalkDataFile(path, seed)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return wd, nil
	}
	if size <= 0 {
		size = defaultMapSize
	}
	return spatial.GenerateWalkData(size, size, seed, density), nil
}

// ApplyScript расставляет монстров и NPC. Ошибки отдельных записей только логируются.
func (m *Map) ApplyScript(script *MapScript) {
	spawned := 0
	for _, s := range script.Spawns {
		area := vec.ZeroArea
		if s.Area != nil {
			area = vec.AreaAround(vec.Vec2{X: s.Area.X, Y: s.Area.Y}, s.Area.Radius)
		}
		for i := 0; i < s.Count; i++ {
			if _, err := m.SpawnMonster(s.Monster, area); err != nil {
				m.log.Warn("Скрипт %s: %v", m.Name, err)
				break
			}
			spawned++
		}
	}

	for _, n := range script.Npcs {
		params := NpcParams{
			Map:    m.Name,
			X:      n.X,
			Y:      n.Y,
			Width:  n.Width,
			Height: n.Height,
			Text:   n.Text,
		}
		copy(params.Values[:], n.Values)
		if _, err := m.SpawnNpc(n.Name, n.Behavior, params, ecs.Null); err != nil {
			m.log.Warn("Скрипт %s: NPC %s: %v", m.Name, n.Name, err)
		}
	}
	m.log.Info("📜 Карта %s: монстров %d, NPC %d", m.Name, spawned, len(script.Npcs))
}
