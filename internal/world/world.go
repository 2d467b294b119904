package world

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/annel0/ro-zone/internal/config"
	"github.com/annel0/ro-zone/internal/ecs"
	"github.com/annel0/ro-zone/internal/logging"
	"github.com/annel0/ro-zone/internal/metrics"
	"github.com/annel0/ro-zone/internal/outbound"
	"github.com/annel0/ro-zone/internal/spatial"
	"github.com/annel0/ro-zone/internal/vec"
)

// ErrMapNotFound карта с таким именем не запущена
var ErrMapNotFound = errors.New("карта не найдена")

// ErrPlayerNotFound игрок не находится ни на одной карте
var ErrPlayerNotFound = errors.New("игрок не найден")

// Options параметры мира
type Options struct {
	TickInterval    time.Duration
	MaxViewDistance int
	CommandQueue    int
	Seed            uint64
	Debug           config.DebugConfig
}

// OptionsFromConfig собирает параметры мира из конфигурации
// Нулевой seed в конфигурации означает случайный.
func OptionsFromConfig(cfg *config.Config) Options {
	seed := uint64(cfg.Simulation.Seed)
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return Options{
		TickInterval:    cfg.Simulation.TickInterval(),
		MaxViewDistance: cfg.Simulation.MaxViewDistance,
		CommandQueue:    cfg.Simulation.CommandQueue,
		Seed:            seed,
		Debug:           cfg.Debug,
	}
}

// Outbox принимает готовые пачки уведомлений карты. Submit не должен блокировать.
type Outbox interface {
	Submit(b *outbound.Batch) bool
}

// World все карты зоны и общие для них реестр сущностей и пулы
type World struct {
	Registry   *ecs.Registry
	Objects    *ecs.Store[*WorldObject]
	Combatants *ecs.Store[*CombatEntity]
	Players    *ecs.Store[*Player]
	Monsters   *ecs.Store[*Monster]
	Npcs       *ecs.Store[*Npc]

	Skills    *SkillRegistry
	Behaviors *BehaviorRegistry

	aoePool *ecs.Pool[*AreaOfEffect]
	opts    Options
	outbox  Outbox
	metrics *metrics.Registry

	mu        sync.RWMutex
	maps      map[string]*Map
	playerMap map[ecs.Entity]string

	wg  sync.WaitGroup
	log *logging.Logger
}

// New создаёт пустой мир. Реестры скиллов и поведений заполняются заранее.
func New(opts Options, skills *SkillRegistry, behaviors *BehaviorRegistry) *World {
	if opts.MaxViewDistance <= 0 {
		opts.MaxViewDistance = 21
	}
	if skills == nil {
		skills = NewSkillRegistry()
	}
	if behaviors == nil {
		behaviors = NewBehaviorRegistry()
	}
	SetAssertions(opts.Debug.Assertions)

	reg := ecs.NewRegistry(1024)
	return &World{
		Registry:   reg,
		Objects:    ecs.NewStore("objects", reg, newWorldObject),
		Combatants: ecs.NewStore("combatants", reg, newCombatEntity),
		Players:    ecs.NewStore("players", reg, newPlayer),
		Monsters:   ecs.NewStore("monsters", reg, newMonster),
		Npcs:       ecs.NewStore("npcs", reg, newNpc),
		Skills:     skills,
		Behaviors:  behaviors,
		aoePool:    ecs.NewPool(newAreaOfEffect),
		opts:       opts,
		maps:       make(map[string]*Map),
		playerMap:  make(map[ecs.Entity]string),
		log:        logging.GetSimLogger(),
	}
}

// Options параметры мира
func (w *World) Options() Options { return w.opts }

// SetOutbox подключает получателя пачек уведомлений. Вызывать до Start.
func (w *World) SetOutbox(o Outbox) { w.outbox = o }

// SetMetrics подключает метрики. Вызывать до Start.
func (w *World) SetMetrics(m *metrics.Registry) { w.metrics = m }

// AddMap регистрирует карту с заданной геометрией
func (w *World) AddMap(name string, walk spatial.Query) (*Map, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, exists := w.maps[name]; exists {
		return nil, fmt.Errorf("карта %s уже добавлена", name)
	}
	seed := w.opts.Seed + uint64(len(w.maps))*7919
	m := newMap(w, name, walk, seed)
	w.maps[name] = m
	w.log.Info("🗺️ Карта %s добавлена (%dx%d)", name, walk.Bounds().Width(), walk.Bounds().Height())
	return m, nil
}

// Map ищет карту по имени
func (w *World) Map(name string) (*Map, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	m, ok := w.maps[name]
	return m, ok
}

// Maps имена карт в алфавитном порядке
func (w *World) Maps() []string {
	w.mu.RLock()
	names := make([]string, 0, len(w.maps))
	for name := range w.maps {
		names = append(names, name)
	}
	w.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Start запускает горутину на каждую карту и сбор метрик пулов
func (w *World) Start(ctx context.Context) {
	w.mu.RLock()
	for _, m := range w.maps {
		m := m
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			m.Run(ctx)
		}()
	}
	w.mu.RUnlock()

	if w.metrics != nil {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			w.metricsLoop(ctx, 5*time.Second)
		}()
	}
}

// Wait дожидается остановки всех карт
func (w *World) Wait() {
	w.wg.Wait()
}

func (w *World) metricsLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.collectMetrics()
		}
	}
}

// collectMetrics публикует счётчики пулов
func (w *World) collectMetrics() {
	if w.metrics == nil {
		return
	}
	publish := func(name string, s ecs.PoolStats) {
		w.metrics.SetPoolStats(name, s.Created, s.Borrowed, s.Returned, uint64(s.Free))
	}
	publish("objects", w.Objects.PoolStats())
	publish("combatants", w.Combatants.PoolStats())
	publish("players", w.Players.PoolStats())
	publish("monsters", w.Monsters.PoolStats())
	publish("npcs", w.Npcs.PoolStats())
	publish("aoe", w.aoePool.Stats())
	publish("entity_lists", ecs.ListPoolStats())
}

// --- игроки ---

// CreatePlayer создаёт сущность игрока вне карты
func (w *World) CreatePlayer(name string, jobID, level int) *Player {
	e := w.Registry.Create(ecs.EntityTypePlayer)
	obj := w.Objects.Attach(e)
	ce := w.Combatants.Attach(e)
	p := w.Players.Attach(e)

	obj.Entity, obj.Type, obj.Name, obj.ClassID, obj.Combat = e, ecs.EntityTypePlayer, name, jobID, ce
	ce.Entity, ce.Character, ce.Player = e, obj, p
	p.Entity, p.Character, p.CombatEntity = e, obj, ce
	p.Name = name
	p.JobID = jobID
	p.Level = level

	p.Init(w.opts)
	return p
}

// SpawnPlayer ставит игрока на карту в её потоке
func (w *World) SpawnPlayer(p *Player, mapName string, pos vec.Vec2) error {
	m, ok := w.Map(mapName)
	if !ok {
		return fmt.Errorf("%w: %s", ErrMapNotFound, mapName)
	}
	e := p.Entity
	w.trackPlayer(e, mapName)
	return m.Enqueue(func(m *Map) {
		p, ok := w.Players.Get(e)
		if !ok {
			return
		}
		m.AddPlayer(p, pos)
	})
}

// RemovePlayer выход игрока: снятие с карты и уничтожение сущности в её потоке
func (w *World) RemovePlayer(e ecs.Entity) error {
	name, ok := w.MapOfPlayer(e)
	if !ok {
		return fmt.Errorf("%w: %v", ErrPlayerNotFound, e)
	}
	m, ok := w.Map(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrMapNotFound, name)
	}
	return m.Enqueue(func(m *Map) {
		if !w.ownsPlayer(m, e) {
			// игрок успел перейти на другую карту
			if _, tracked := w.MapOfPlayer(e); tracked {
				if err := w.RemovePlayer(e); err != nil {
					w.log.Warn("Выход игрока %v: %v", e, err)
				}
			}
			return
		}
		w.untrackPlayer(e)
		if obj, ok := w.Objects.Get(e); ok {
			m.RemoveEntity(obj, RemovalLogout)
		}
		m.DestroyLater(e)
	})
}

// SubmitForPlayer выполняет fn в потоке карты, на которой сейчас игрок.
// Если к моменту выполнения игрок ушёл с карты или исчез, fn не вызывается.
func (w *World) SubmitForPlayer(e ecs.Entity, fn func(p *Player)) error {
	name, ok := w.MapOfPlayer(e)
	if !ok {
		return fmt.Errorf("%w: %v", ErrPlayerNotFound, e)
	}
	m, ok := w.Map(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrMapNotFound, name)
	}
	return m.Enqueue(func(m *Map) {
		if !w.ownsPlayer(m, e) || !m.Holds(e) {
			return
		}
		p, ok := w.Players.Get(e)
		if !ok {
			return
		}
		fn(p)
	})
}

// ownsPlayer закреплён ли игрок за картой m. Закрепление меняет только поток
// карты, которой игрок принадлежит, поэтому при true поля игрока можно читать из потока m.
func (w *World) ownsPlayer(m *Map, e ecs.Entity) bool {
	name, ok := w.MapOfPlayer(e)
	return ok && name == m.Name
}

// TransferPlayer переводит игрока на другую карту. Вызывается из потока текущей карты:
// здесь игрок снимается, а клетку (area > 0: случайную рядом с pos) выбирает
// и ставит игрока уже поток карты назначения. Ожидания чужой карты нет:
// если её очередь полна, игрок возвращается на место.
func (w *World) TransferPlayer(p *Player, dest *Map, pos vec.Vec2, area int) bool {
	src := p.Character.Map
	if src == nil || dest == nil {
		return false
	}
	if src == dest {
		src.TeleportEntity(p.Character, src.randomCellNear(pos, area))
		return true
	}

	e := p.Entity
	prevPos := p.Character.Position
	src.RemoveEntity(p.Character, RemovalTeleport)
	w.trackPlayer(e, dest.Name)

	err := dest.Enqueue(func(m *Map) {
		if !w.ownsPlayer(m, e) {
			return
		}
		p, ok := w.Players.Get(e)
		if !ok || p.Character.Map != nil {
			return
		}
		at := m.randomCellNear(pos, area)
		m.AddPlayer(p, at)
		m.sendToPlayer(e, func(m *Map) {
			m.Commands.SendChangeMaps(e, m.Name, at)
		})
	})
	if err != nil {
		// команда не попала в очередь, игрок по-прежнему только наш
		w.log.Warn("Переход %s на %s не удался: %v, игрок остаётся на %s", p.Name, dest.Name, err, src.Name)
		w.trackPlayer(e, src.Name)
		src.AddPlayer(p, prevPos)
		return false
	}
	return true
}

// MapOfPlayer имя карты, за которой сейчас закреплён игрок
func (w *World) MapOfPlayer(e ecs.Entity) (string, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	name, ok := w.playerMap[e]
	return name, ok
}

// PlayerCount количество игроков в мире
func (w *World) PlayerCount() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.playerMap)
}

func (w *World) trackPlayer(e ecs.Entity, mapName string) {
	w.mu.Lock()
	w.playerMap[e] = mapName
	w.mu.Unlock()
}

func (w *World) untrackPlayer(e ecs.Entity) {
	w.mu.Lock()
	delete(w.playerMap, e)
	w.mu.Unlock()
}

// LoadMaps добавляет карты из конфигурации: геометрия из <dir>/maps/<имя>.txt[.gz],
// при её отсутствии: открытое поле размера по умолчанию; затем скрипт <имя>.yaml.
func (w *World) LoadMaps(cfg *config.Config) error {
	for _, name := range cfg.Simulation.Maps {
		walk, err := loadWalkData(cfg.Data.Dir, name, cfg.Simulation.DefaultMapSize, cfg.Simulation.TerrainDensity, w.opts.Seed)
		if err != nil {
			return err
		}
		m, err := w.AddMap(name, walk)
		if err != nil {
			return err
		}
		script, err := LoadMapScript(cfg.Data.Dir, name)
		if err != nil {
			return err
		}
		if script != nil {
			m.ApplyScript(script)
		}
	}
	return nil
}
