package stats

// RegenInput состояние пула (HP или SP) на момент тика регенерации
type RegenInput struct {
	Current      int
	Max          int
	PrimaryStat  int // VIT для HP, INT для SP
	BonusPercent int // AddHpRecoveryPercent / AddSpRecoveryPercent
	Sitting      bool
	Moving       bool
}

// HpRegen возвращает прирост HP за тик:
//
//	(max/50 + vit/5) * (200+vit)/200, с процентным бонусом,
//
// x2 сидя, /2 в движении, минимум 1, без перелёта через максимум.
// 0: если HP уже полное или бонус отрицательный.
func HpRegen(in RegenInput) int {
	if in.Current >= in.Max || in.BonusPercent < 0 {
		return 0
	}

	vit := in.PrimaryStat
	regen := (in.Max/50 + vit/5) * (200 + vit) / 200
	regen = regen * (100 + in.BonusPercent) / 100

	if in.Moving {
		regen /= 2
	}
	if in.Sitting {
		regen *= 2
	}

	return clampRegen(regen, in.Current, in.Max)
}

// SpRegen возвращает прирост SP за тик:
//
//	(max/100 + int/6) * (200+int)/200 (+ int-120 сверх 120), с процентным бонусом,
//
// x2 сидя, минимум 1, без перелёта через максимум.
func SpRegen(in RegenInput) int {
	if in.Current >= in.Max || in.BonusPercent < 0 {
		return 0
	}

	chInt := in.PrimaryStat
	regen := (in.Max/100 + chInt/6) * (200 + chInt) / 200
	if chInt > 120 {
		regen += chInt - 120
	}
	regen = regen * (100 + in.BonusPercent) / 100

	if in.Sitting {
		regen *= 2
	}

	return clampRegen(regen, in.Current, in.Max)
}

func clampRegen(regen, current, maximum int) int {
	if regen < 1 {
		regen = 1
	}
	if regen+current > maximum {
		regen = maximum - current
	}
	if regen < 0 {
		return 0
	}
	return regen
}
