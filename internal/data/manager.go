package data

import (
	"sync"

	"github.com/annel0/ro-zone/internal/logging"
)

var (
	mu      sync.RWMutex
	current = Defaults()
)

// Current возвращает действующие таблицы. Полученный указатель можно держать
// до конца тика: перезагрузка подменяет набор целиком и не трогает старый.
func Current() *Tables {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// Swap атомарно подменяет таблицы и возвращает предыдущие
func Swap(t *Tables) *Tables {
	mu.Lock()
	defer mu.Unlock()
	prev := current
	current = t
	return prev
}

// Reload перечитывает таблицы из каталога. При ошибке действующие таблицы не меняются.
func Reload(dir string) error {
	t, err := LoadDir(dir)
	if err != nil {
		logging.GetDataLogger().Error("❌ Перезагрузка таблиц из %s не удалась: %v", dir, err)
		return err
	}
	Swap(t)
	logging.GetDataLogger().Info("🔄 Таблицы перезагружены: профессий %d, скиллов %d, монстров %d, предметов %d",
		len(t.Jobs), len(t.Skills), len(t.Monsters), len(t.Items))
	return nil
}
