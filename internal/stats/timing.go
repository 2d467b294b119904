package stats

// WeaponClassBow класс оружия "лук": дальность 4+ и укороченная анимация
const WeaponClassBow = 12

// MaxAttackRecharge потолок задержки между атаками, секунд
const MaxAttackRecharge = 2.0

// AttackTimingInput входные данные формулы скорости атаки
type AttackTimingInput struct {
	WeaponTiming float64 // базовое время атаки профессии для класса оружия
	AspdBonus    int     // бонус скорости атаки в процентах
	Agi          int     // эффективная ловкость
	Dex          int     // эффективная меткость
	WeaponClass  int
}

// AttackTimings результат: задержка между атаками и длительности анимации
type AttackTimings struct {
	Recharge float64
	Motion   float64
	Sprite   float64
}

// SpeedScore взвешенная смесь ловкости и меткости, целочисленная как в балансе
func SpeedScore(agi, dex int) int {
	score := (agi + dex/4) * 5 / 3
	if score < 0 {
		return 0
	}
	return score
}

// StatSpeedFactor множитель задержки от статов: 1 + (boost(score) - 1) / 4.8
func StatSpeedFactor(agi, dex int) float64 {
	return 1 + (float64(BoostCalc(SpeedScore(agi, dex)))-1)/4.8
}

// ComputeAttackTiming считает задержку атаки и подгоняет под неё анимацию.
//
//	recharge = weaponTiming * 100/(100+aspd) * statSpeedFactor, не больше 2.0
//
// Если recharge короче анимации, анимация пропорционально сжимается.
func ComputeAttackTiming(in AttackTimingInput) AttackTimings {
	recharge := MaxAttackRecharge
	if in.AspdBonus > -100 {
		aspdFactor := 100.0 / float64(in.AspdBonus+100)
		recharge = in.WeaponTiming * aspdFactor * StatSpeedFactor(in.Agi, in.Dex)
	}
	if recharge > MaxAttackRecharge {
		recharge = MaxAttackRecharge
	}

	motion := 1.0
	sprite := 0.6
	if in.WeaponClass == WeaponClassBow {
		motion = recharge * 0.75
		sprite = recharge * 0.75
	}

	if recharge < motion {
		ratio := recharge / motion
		motion *= ratio
		sprite *= ratio
	}

	return AttackTimings{Recharge: recharge, Motion: motion, Sprite: sprite}
}

// ComputeMoveSpeed возвращает время шага в секундах. Проклятие замедляет в 10 раз,
// бонус скорости не может ускорить больше чем до 0.8 от базы.
func ComputeMoveSpeed(moveSpeedBonus int, cursed bool) float64 {
	moveBonus := 100.0 / (100.0 + float64(moveSpeedBonus))
	if cursed {
		moveBonus = 1 / 0.1
	}
	if moveBonus < 0.8 {
		moveBonus = 0.8
	}
	return 0.15 * moveBonus
}

// statsByLevel очки навыков, заработанные к уровню (индекс = уровень-1)
var statsByLevel = [...]int{
	0, 1, 2, 3, 4, 5, 6, 7, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20,
	21, 22, 23, 24, 25, 26, 27, 28, 29, 29, 30, 31, 31, 32, 32, 33, 33, 34, 34, 35,
	35, 36, 36, 37, 37, 38, 38, 39, 39, 40, 40, 41, 41, 42, 42, 43, 43, 44, 44, 45,
	45, 46, 46, 47, 47, 48, 48, 49, 49, 50, 50, 51, 51, 52, 52, 53, 53, 54, 54, 55,
	55, 56, 56, 57, 57, 58, 58, 59, 59, 60, 60, 61, 61, 62, 62, 63, 63, 64, 64, 64,
}

// MinLevel и MaxLevel: допустимый диапазон базового уровня
const (
	MinLevel = 1
	MaxLevel = 99
)

// SkillPointsForLevel возвращает заработанные к уровню очки навыков
func SkillPointsForLevel(level int) int {
	level = Clamp(level, MinLevel, MaxLevel)
	return statsByLevel[level-1]
}
