package data

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/annel0/ro-zone/internal/logging"
)

// ErrUnknownTable возвращается при попытке загрузить таблицу с неизвестным именем
var ErrUnknownTable = errors.New("unknown data table")

// Имена таблиц и файлов
var tableFiles = []string{"jobs", "skills", "monsters", "items", "save_points"}

type jobsFile struct {
	Jobs []*JobInfo `yaml:"jobs"`
}

type skillsFile struct {
	Skills []*SkillInfo `yaml:"skills"`
}

type monstersFile struct {
	Monsters []*MonsterInfo `yaml:"monsters"`
}

type itemsFile struct {
	Items []*ItemInfo `yaml:"items"`
}

type savePointsFile struct {
	SavePoints []SavePoint `yaml:"save_points"`
}

// LoadTable читает одну таблицу из r и накладывает её записи поверх t
func LoadTable(t *Tables, name string, r io.Reader) error {
	dec := yaml.NewDecoder(r)

	switch name {
	case "jobs":
		var f jobsFile
		if err := decode(dec, &f); err != nil {
			return fmt.Errorf("jobs: %w", err)
		}
		for _, j := range f.Jobs {
			j.prepare()
			t.Jobs[j.ID] = j
		}
	case "skills":
		var f skillsFile
		if err := decode(dec, &f); err != nil {
			return fmt.Errorf("skills: %w", err)
		}
		for _, s := range f.Skills {
			if s.MaxLevel <= 0 {
				logging.GetDataLogger().Warn("Скилл %s: max_level %d, выставляю 1", s.ID, s.MaxLevel)
				s.MaxLevel = 1
			}
			t.Skills[s.ID] = s
		}
	case "monsters":
		var f monstersFile
		if err := decode(dec, &f); err != nil {
			return fmt.Errorf("monsters: %w", err)
		}
		for _, m := range f.Monsters {
			if m.HP <= 0 {
				logging.GetDataLogger().Warn("Монстр %s: hp %d, выставляю 1", m.Code, m.HP)
				m.HP = 1
			}
			t.Monsters[m.Code] = m
		}
	case "items":
		var f itemsFile
		if err := decode(dec, &f); err != nil {
			return fmt.Errorf("items: %w", err)
		}
		for _, i := range f.Items {
			i.prepare()
			t.Items[i.ID] = i
		}
	case "save_points":
		var f savePointsFile
		if err := decode(dec, &f); err != nil {
			return fmt.Errorf("save_points: %w", err)
		}
		for _, sp := range f.SavePoints {
			t.SavePoints[sp.Name] = sp
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownTable, name)
	}
	return nil
}

func decode(dec *yaml.Decoder, out any) error {
	if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// LoadDir собирает таблицы: встроенные значения, поверх них файлы <dir>/<table>.yaml.
// Отсутствующий файл не ошибка, битый: ошибка.
func LoadDir(dir string) (*Tables, error) {
	t := Defaults().clone()
	if dir == "" {
		return t, nil
	}

	log := logging.GetDataLogger()
	for _, name := range tableFiles {
		path := filepath.Join(dir, name+".yaml")
		f, err := os.Open(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				log.Debug("Таблица %s не найдена, используются встроенные данные", path)
				continue
			}
			return nil, fmt.Errorf("open %s: %w", path, err)
		}

		err = LoadTable(t, name, f)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		log.Info("📄 Загружена таблица %s", path)
	}

	return t, nil
}
