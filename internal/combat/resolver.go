package combat

import (
	"math/rand/v2"

	"github.com/annel0/ro-zone/internal/ecs"
	"github.com/annel0/ro-zone/internal/stats"
)

// Combatant то, что резолвер читает у участника боя
type Combatant interface {
	Handle() ecs.Entity
	EffectiveStat(s stats.CharacterStat) int
	Element() CharacterElement
}

// Шансы попадания, %
const (
	baseHitChance = 80
	minHitChance  = 5
	maxHitChance  = 95
	critDamagePct = 140
)

// Resolver считает исход атаки. Состояние: только генератор случайных чисел.
type Resolver struct {
	rng *rand.Rand
}

// NewResolver создаёт резолвер с детерминированным генератором
func NewResolver(seed uint64) *Resolver {
	return &Resolver{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

// Rand возвращает генератор резолвера (для скиллов с собственными бросками)
func (r *Resolver) Rand() *rand.Rand {
	return r.rng
}

// rollRange возвращает случайное значение из [lo, hi]
func (r *Resolver) rollRange(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + r.rng.IntN(hi-lo+1)
}

// Resolve рассчитывает исход атаки attacker по defender, ничего не изменяя.
//
// multiplier множитель урона скилла (1 для обычной атаки),
// skillLevel уровень скилла (0 для обычной атаки),
// element: стихия атаки (AttackNone = нейтральная).
func (r *Resolver) Resolve(attacker, defender Combatant, multiplier float64, skillLevel int, flags AttackFlags, element AttackElement) Result {
	res := Result{
		Attacker:   attacker.Handle(),
		Defender:   defender.Handle(),
		HitCount:   1,
		HitType:    HitNormal,
		Element:    element,
		SkillLevel: skillLevel,
		Flags:      flags,
	}

	if flags.Has(AttackNoDamage) {
		return res
	}

	var atk int
	var defense int
	crit := false

	if flags.Has(AttackMagical) {
		atk = r.rollRange(attacker.EffectiveStat(stats.MagicAtkMin), attacker.EffectiveStat(stats.MagicAtkMax))
		defense = defender.EffectiveStat(stats.MDef)
	} else {
		if flags.Has(AttackCanCrit) && r.rng.IntN(100) < attacker.EffectiveStat(stats.Critical) {
			crit = true
		}

		if !crit && !flags.Has(AttackIgnoreEvasion) {
			chance := baseHitChance + attacker.EffectiveStat(stats.Hit) - defender.EffectiveStat(stats.Flee)
			chance = stats.Clamp(chance, minHitChance, maxHitChance)
			if r.rng.IntN(100) >= chance {
				res.HitType = HitMiss
				return res
			}
		}

		atk = r.rollRange(attacker.EffectiveStat(stats.Atk), attacker.EffectiveStat(stats.Atk2))
		defense = defender.EffectiveStat(stats.Def)
	}

	damage := float64(atk) * multiplier
	if crit {
		damage = damage * critDamagePct / 100
		res.HitType = HitCritical
	} else if !flags.Has(AttackIgnoreDefense) && defense > 0 {
		damage *= float64(stats.ResistCalc(defense))
	}

	eleMod := ElementModifier(element, defender.Element())
	res.ElementFactor = eleMod
	res.ElementBonus = eleMod > 100
	if eleMod <= 0 {
		res.HitType = HitImmune
		return res
	}

	if eleMod != 100 {
		damage = damage * float64(eleMod) / 100
	}
	res.Damage = int(damage)
	if res.Damage < 1 {
		res.Damage = 1
	}
	return res
}
