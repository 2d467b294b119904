package world

import (
	"github.com/annel0/ro-zone/internal/ecs"
	"github.com/annel0/ro-zone/internal/logging"
	"github.com/annel0/ro-zone/internal/vec"
)

// NpcBehavior поведение NPC. Реализации регистрируются явно в BehaviorRegistry
// и не хранят состояния: всё состояние лежит в компоненте Npc.
type NpcBehavior interface {
	// Init вызывается один раз после появления NPC на карте
	Init(npc *Npc)
	// OnTouch игрок вошёл в область касания NPC
	OnTouch(npc *Npc, player *Player)
	// OnAoEInteraction срабатывание области NPC по цели
	OnAoEInteraction(npc *Npc, target *CombatEntity, aoe *AreaOfEffect)
	// OnTimer периодический вызов, если у NPC включён таймер
	OnTimer(npc *Npc, elapsed float64)
}

// NpcParams параметры размещения NPC из скрипта карты
type NpcParams struct {
	Map    string
	X, Y   int
	Width  int
	Height int
	Values [4]int
	Text   string
}

// Npc компонент NPC: поведение, владелец, своя область эффекта и таймер
type Npc struct {
	Entity    ecs.Entity
	Character *WorldObject

	Behavior     NpcBehavior
	BehaviorName string
	Params       NpcParams

	Owner        ecs.Entity // кто призвал (для огненных ловушек)
	AreaOfEffect *AreaOfEffect

	TimerActive bool
	TimerStart  float64
	LastTimer   float64
	Expiration  float64 // 0: без срока

	Values [4]int
}

func newNpc() *Npc {
	n := &Npc{}
	n.Reset()
	return n
}

// Reset очищает компонент; область эффекта к этому моменту уже снята
func (n *Npc) Reset() {
	*n = Npc{Entity: ecs.Null, Owner: ecs.Null}
}

func (n *Npc) now() float64 { return n.Character.now() }

// Map карта NPC
func (n *Npc) Map() *Map { return n.Character.Map }

// OnTouch передаёт касание поведению
func (n *Npc) OnTouch(player *Player) {
	if n.Behavior == nil || player.Character.State == StateDead {
		return
	}
	n.Behavior.OnTouch(n, player)
}

// OnAoEInteraction передаёт срабатывание области поведению
func (n *Npc) OnAoEInteraction(target *CombatEntity, aoe *AreaOfEffect) {
	if n.Behavior == nil || target == nil {
		return
	}
	n.Behavior.OnAoEInteraction(n, target, aoe)
}

// CreateAreaOfEffect создаёт область вокруг NPC и регистрирует её на карте
func (n *Npc) CreateAreaOfEffect(area vec.Area, aoeType AoeType, targeting TargetingInfo, duration, tickRate float64, value1, value2 int) *AreaOfEffect {
	m := n.Map()
	if m == nil {
		return nil
	}
	if n.AreaOfEffect != nil {
		n.EndAreaOfEffect()
	}
	aoe := m.world.aoePool.Borrow()
	aoe.Init(n.Character, area, aoeType, targeting, duration, tickRate, value1, value2)
	n.AreaOfEffect = aoe
	m.AddAreaOfEffect(aoe)
	return aoe
}

// EndAreaOfEffect выключает область NPC
func (n *Npc) EndAreaOfEffect() {
	if n.AreaOfEffect == nil {
		return
	}
	n.AreaOfEffect.Deactivate()
	n.AreaOfEffect = nil
}

// StartTimer включает периодический OnTimer
func (n *Npc) StartTimer() {
	n.TimerActive = true
	n.TimerStart = n.now()
	n.LastTimer = 0
}

// StopTimer выключает таймер
func (n *Npc) StopTimer() {
	n.TimerActive = false
}

// Update тик NPC: таймер и истечение срока жизни
func (n *Npc) Update() {
	m := n.Map()
	if m == nil {
		return
	}
	now := n.now()
	if n.TimerActive && n.Behavior != nil {
		elapsed := now - n.TimerStart
		n.Behavior.OnTimer(n, elapsed)
		n.LastTimer = elapsed
		if !n.Character.IsActive {
			return
		}
	}
	if n.Expiration > 0 && now > n.Expiration {
		logging.GetSimLogger().Trace("NPC %s истёк", n.Character.Name)
		m.RemoveNpc(n)
	}
}

// BehaviorRegistry явный реестр поведений NPC по имени
type BehaviorRegistry struct {
	behaviors map[string]NpcBehavior
}

// NewBehaviorRegistry создаёт пустой реестр
func NewBehaviorRegistry() *BehaviorRegistry {
	return &BehaviorRegistry{behaviors: make(map[string]NpcBehavior)}
}

// Register добавляет поведение под именем
func (r *BehaviorRegistry) Register(name string, b NpcBehavior) {
	if _, exists := r.behaviors[name]; exists {
		logging.GetSimLogger().Warn("Поведение NPC %q зарегистрировано повторно", name)
	}
	r.behaviors[name] = b
}

// Get ищет поведение
func (r *BehaviorRegistry) Get(name string) (NpcBehavior, bool) {
	b, ok := r.behaviors[name]
	return b, ok
}

// Len количество поведений
func (r *BehaviorRegistry) Len() int { return len(r.behaviors) }
