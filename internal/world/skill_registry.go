package world

import (
	"github.com/annel0/ro-zone/internal/data"
	"github.com/annel0/ro-zone/internal/logging"
	"github.com/annel0/ro-zone/internal/vec"
)

// SkillHandler реализация активного скилла.
// target == nil для скиллов в точку; pos == vec.Invalid для скиллов по цели.
type SkillHandler interface {
	Skill() data.SkillID
	CastTime(src, target *CombatEntity, pos vec.Vec2, level int) float64
	Process(src, target *CombatEntity, pos vec.Vec2, level int)
}

// SkillRegistry явный реестр обработчиков скиллов
type SkillRegistry struct {
	handlers map[data.SkillID]SkillHandler
}

// NewSkillRegistry создаёт пустой реестр
func NewSkillRegistry() *SkillRegistry {
	return &SkillRegistry{handlers: make(map[data.SkillID]SkillHandler)}
}

// Register добавляет обработчик
func (r *SkillRegistry) Register(h SkillHandler) {
	if _, exists := r.handlers[h.Skill()]; exists {
		logging.GetSimLogger().Warn("Обработчик скилла %s зарегистрирован повторно", h.Skill())
	}
	r.handlers[h.Skill()] = h
}

// Get ищет обработчик
func (r *SkillRegistry) Get(id data.SkillID) (SkillHandler, bool) {
	h, ok := r.handlers[id]
	return h, ok
}

// Len количество обработчиков
func (r *SkillRegistry) Len() int { return len(r.handlers) }
