package data

import "github.com/annel0/ro-zone/internal/combat"

// timings заполняет время атаки по классам оружия: fist задаётся отдельно,
// остальные классы получают общее значение, лук: своё.
func timings(fist, weapon, bow float64) []float64 {
	t := make([]float64, WeaponClassCount)
	t[0] = fist
	for i := 1; i < WeaponClassCount; i++ {
		t[i] = weapon
	}
	t[12] = bow
	return t
}

func spCosts(first, step, levels int) []int {
	costs := make([]int, levels)
	for i := range costs {
		costs[i] = first + step*i
	}
	return costs
}

// Defaults возвращает встроенные таблицы, с которыми сервер стартует без файлов данных
func Defaults() *Tables {
	t := NewTables()

	jobs := []*JobInfo{
		{ID: JobNovice, Name: "Novice", WeaponTimings: timings(0.9, 1.1, 1.5), DefaultWeapon: 1,
			Bonuses: map[string]float64{"MagicAtkMin": 0.4}},
		{ID: JobSwordsman, Name: "Swordsman", WeaponTimings: timings(0.8, 1.0, 1.4), DefaultWeapon: 2,
			Bonuses: map[string]float64{"MagicAtkMin": 0.4, "MaxHp": 1.4, "MaxSp": 0.7, "Def": 1.2}},
		{ID: JobArcher, Name: "Archer", WeaponTimings: timings(0.9, 1.1, 1.0), DefaultWeapon: 12,
			Bonuses: map[string]float64{"MagicAtkMin": 0.4, "Dex": 1.2}},
		{ID: JobMage, Name: "Mage", WeaponTimings: timings(1.0, 1.2, 1.6), DefaultWeapon: 10,
			Bonuses: map[string]float64{"MaxHp": 0.8, "MaxSp": 2, "Str": 0.4, "MDef": 1.2, "AspdBonus": 0.6}},
		{ID: JobAcolyte, Name: "Acolyte", WeaponTimings: timings(0.9, 1.1, 1.5), DefaultWeapon: 8,
			Bonuses: map[string]float64{"MagicAtkMin": 0.4, "MaxSp": 1.5, "AspdBonus": 1.2}},
		{ID: JobThief, Name: "Thief", WeaponTimings: timings(0.8, 0.9, 1.3), DefaultWeapon: 1,
			Bonuses: map[string]float64{"MagicAtkMin": 0.4, "MaxHp": 1.2, "MaxSp": 0.9, "Agi": 1.4, "AspdBonus": 1.4}},
		{ID: JobMerchant, Name: "Merchant", WeaponTimings: timings(0.9, 1.1, 1.5), DefaultWeapon: 6,
			Bonuses: map[string]float64{"MagicAtkMin": 0.4, "MaxHp": 1.4, "MaxSp": 0.7, "Str": 1.1, "Def": 1.2}},
	}
	for _, j := range jobs {
		j.prepare()
		t.Jobs[j.ID] = j
	}

	skills := []*SkillInfo{
		{ID: SkillBasicMastery, Target: TargetPassive, MaxLevel: 9},
		{ID: SkillFirstAid, Target: TargetSelf, MaxLevel: 1, SpCost: []int{3}},
		{ID: SkillSwordMastery, Target: TargetPassive, MaxLevel: 10},
		{ID: SkillTwoHandSwordMastery, Target: TargetPassive, MaxLevel: 10},
		{ID: SkillVultureEye, Target: TargetPassive, MaxLevel: 10},
		{ID: SkillFireBolt, Target: TargetEnemy, MaxLevel: 10, Range: 9, SpCost: spCosts(12, 2, 10)},
		{ID: SkillThunderStorm, Target: TargetGround, MaxLevel: 10, Range: 9, SpCost: spCosts(29, 5, 10)},
		{ID: SkillFireWall, Target: TargetGround, MaxLevel: 10, Range: 9, SpCost: spCosts(40, 0, 10)},
		{ID: SkillBash, Target: TargetEnemy, MaxLevel: 10, Range: 1, SpCost: []int{8, 8, 8, 8, 8, 15, 15, 15, 15, 15}},
	}
	for _, s := range skills {
		t.Skills[s.ID] = s
	}

	monsters := []*MonsterInfo{
		{ID: 1002, Code: "PORING", Name: "Poring", Level: 1, HP: 50, Exp: 2, AtkMin: 7, AtkMax: 10,
			Agi: 1, Vit: 1, Dex: 6, Luk: 30, Def: 0, MDef: 5, RechargeTime: 1.872, MotionTime: 0.672, HitTime: 0.48,
			Range: 1, ScanDist: 9, ChaseDist: 12, MoveSpeed: 0.4, Element: combat.Water1},
		{ID: 1063, Code: "LUNATIC", Name: "Lunatic", Level: 3, HP: 60, Exp: 6, AtkMin: 9, AtkMax: 12,
			Agi: 3, Vit: 3, Dex: 10, Luk: 55, Def: 6, MDef: 20, RechargeTime: 1.456, MotionTime: 0.456, HitTime: 0.336,
			Range: 1, ScanDist: 9, ChaseDist: 12, MoveSpeed: 0.2, Element: combat.Neutral3},
		{ID: 1113, Code: "DROPS", Name: "Drops", Level: 3, HP: 55, Exp: 4, AtkMin: 10, AtkMax: 13,
			Agi: 3, Vit: 3, Dex: 12, Luk: 15, Def: 0, MDef: 0, RechargeTime: 1.372, MotionTime: 0.672, HitTime: 0.48,
			Range: 1, ScanDist: 9, ChaseDist: 12, MoveSpeed: 0.4, Element: combat.Fire1, Aggressive: true},
	}
	for _, m := range monsters {
		t.Monsters[m.Code] = m
	}

	items := []*ItemInfo{
		{ID: 501, Code: "Red_Potion", Name: "Red Potion", Weight: 70, Price: 50, Class: ItemUseable, Slot: SlotNone},
		{ID: 909, Code: "Jellopy", Name: "Jellopy", Weight: 10, Price: 6, Class: ItemEtc, Slot: SlotNone},
		{ID: 1201, Code: "Knife", Name: "Knife", Weight: 400, Price: 50, Class: ItemWeapon, Slot: SlotRightHand, WeaponClass: 1,
			Modifiers: []ModifierSpec{{Stat: "Atk", Value: 17}, {Stat: "Atk2", Value: 17}}},
		{ID: 1701, Code: "Bow", Name: "Bow", Weight: 500, Price: 1000, Class: ItemWeapon, Slot: SlotRightHand, WeaponClass: 12,
			Modifiers: []ModifierSpec{{Stat: "Atk", Value: 15}, {Stat: "Atk2", Value: 15}}},
		{ID: 2220, Code: "Hat", Name: "Hat", Weight: 200, Price: 1000, Class: ItemEquipment, Slot: SlotHeadTop,
			Modifiers: []ModifierSpec{{Stat: "Def", Value: 2}}},
		{ID: 2301, Code: "Cotton_Shirt", Name: "Cotton Shirt", Weight: 100, Price: 10, Class: ItemEquipment, Slot: SlotBody,
			Modifiers: []ModifierSpec{{Stat: "Def", Value: 1}, {Stat: "MaxHp", Value: 5, Percent: true}}},
	}
	for _, i := range items {
		i.prepare()
		t.Items[i.ID] = i
	}

	t.SavePoints["prontera"] = SavePoint{Name: "prontera", Map: "prontera", X: 150, Y: 150, Area: 5}

	return t
}
