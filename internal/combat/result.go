package combat

import "github.com/annel0/ro-zone/internal/ecs"

// AttackFlags флаги атаки
type AttackFlags uint16

const (
	AttackPhysical AttackFlags = 1 << iota
	AttackMagical
	AttackIgnoreDefense
	AttackIgnoreEvasion
	AttackCanCrit
	AttackNoDamage // только эффект (статус), без урона
)

// Has проверяет наличие флага
func (f AttackFlags) Has(flag AttackFlags) bool {
	return f&flag != 0
}

// HitType исход удара
type HitType uint8

const (
	HitMiss HitType = iota
	HitNormal
	HitCritical
	HitImmune // стихия полностью гасит урон
)

func (h HitType) String() string {
	switch h {
	case HitMiss:
		return "miss"
	case HitNormal:
		return "hit"
	case HitCritical:
		return "critical"
	case HitImmune:
		return "immune"
	default:
		return "unknown"
	}
}

// Result рассчитанный, но ещё не применённый исход атаки.
// Расчёт отделён от применения: площадной скилл сначала считает результаты
// для всех целей, и только потом кто-то из них может умереть.
type Result struct {
	Attacker      ecs.Entity
	Defender      ecs.Entity
	Damage        int // суммарный урон (за все удары)
	HitCount      int
	HitType       HitType
	Element       AttackElement
	ElementBonus  bool // стихия атаки сильна против стихии цели
	ElementFactor int  // применённый модификатор стихии, %
	SkillLevel    int
	Flags         AttackFlags
}

// IsHit возвращает true, если атака попала и нанесла урон
func (r Result) IsHit() bool {
	return r.HitType == HitNormal || r.HitType == HitCritical
}

// DamagePerHit урон одного удара
func (r Result) DamagePerHit() int {
	if r.HitCount <= 1 {
		return r.Damage
	}
	return r.Damage / r.HitCount
}
