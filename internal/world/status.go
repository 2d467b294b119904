package world

import (
	"github.com/annel0/ro-zone/internal/stats"
)

// StatusType вид статус-эффекта
type StatusType uint8

const (
	StatusNone StatusType = iota
	StatusCurse
	StatusBlessing
	StatusIncreaseAgi
	StatusStun
)

func (t StatusType) String() string {
	switch t {
	case StatusCurse:
		return "Curse"
	case StatusBlessing:
		return "Blessing"
	case StatusIncreaseAgi:
		return "IncreaseAgi"
	case StatusStun:
		return "Stun"
	default:
		return "None"
	}
}

// StatusEffect активный эффект с модификаторами статов
type StatusEffect struct {
	Type       StatusType
	Expiration float64
	Modifiers  []stats.Modifier
}

// AddStatusEffect накладывает эффект на duration секунд.
// Повторное наложение того же типа продлевает его и заменяет модификаторы.
func (ce *CombatEntity) AddStatusEffect(t StatusType, duration float64, mods ...stats.Modifier) {
	if ce.Character.State == StateDead {
		return
	}
	ce.removeStatus(t)

	se := StatusEffect{Type: t, Expiration: ce.now() + duration, Modifiers: mods}
	for _, m := range mods {
		ce.Stats.ApplyModifier(m)
	}
	if t == StatusStun {
		ce.Stats.AddBase(stats.Disabled, 1)
		ce.Character.StopMovingImmediately()
	}
	ce.statusEffects = append(ce.statusEffects, se)
	ce.RecomputeStats()
}

// RemoveStatusEffect снимает эффект, если он есть
func (ce *CombatEntity) RemoveStatusEffect(t StatusType) bool {
	if !ce.removeStatus(t) {
		return false
	}
	ce.RecomputeStats()
	return true
}

// HasStatusEffect активен ли эффект
func (ce *CombatEntity) HasStatusEffect(t StatusType) bool {
	for _, se := range ce.statusEffects {
		if se.Type == t {
			return true
		}
	}
	return false
}

// OnDeathClearStatusEffects снимает все эффекты при смерти и пересчитывает статы
func (ce *CombatEntity) OnDeathClearStatusEffects() {
	if len(ce.statusEffects) == 0 {
		return
	}
	for len(ce.statusEffects) > 0 {
		ce.removeStatus(ce.statusEffects[0].Type)
	}
	ce.RecomputeStats()
}

func (ce *CombatEntity) removeStatus(t StatusType) bool {
	for i, se := range ce.statusEffects {
		if se.Type != t {
			continue
		}
		for _, m := range se.Modifiers {
			ce.Stats.RemoveModifier(m)
		}
		if t == StatusStun {
			ce.Stats.SubBase(stats.Disabled, 1)
		}
		last := len(ce.statusEffects) - 1
		ce.statusEffects[i] = ce.statusEffects[last]
		ce.statusEffects = ce.statusEffects[:last]
		return true
	}
	return false
}

func (ce *CombatEntity) updateStatusEffects() {
	if len(ce.statusEffects) == 0 {
		return
	}
	now := ce.now()
	changed := false
	for i := 0; i < len(ce.statusEffects); i++ {
		if ce.statusEffects[i].Expiration > now {
			continue
		}
		ce.removeStatus(ce.statusEffects[i].Type)
		changed = true
		i--
	}
	if changed {
		ce.RecomputeStats()
	}
}
