package stats

// CharacterStat индекс целочисленного стата персонажа
type CharacterStat int

const (
	Level CharacterStat = iota
	Hp
	MaxHp
	Sp
	MaxSp
	Str
	Agi
	Vit
	Int
	Dex
	Luk
	Atk
	Atk2
	MagicAtkMin
	MagicAtkMax
	Def
	MDef
	Hit
	Flee
	Critical
	Range
	AspdBonus
	MoveSpeedBonus
	AddHpRecoveryPercent
	AddSpRecoveryPercent
	AddMaxSp
	WeightCapacity
	Disabled
	WeaponMastery

	CharacterStatsMax
)

var characterStatNames = [CharacterStatsMax]string{
	"Level", "Hp", "MaxHp", "Sp", "MaxSp", "Str", "Agi", "Vit", "Int", "Dex", "Luk",
	"Atk", "Atk2", "MagicAtkMin", "MagicAtkMax", "Def", "MDef", "Hit", "Flee", "Critical",
	"Range", "AspdBonus", "MoveSpeedBonus", "AddHpRecoveryPercent", "AddSpRecoveryPercent",
	"AddMaxSp", "WeightCapacity", "Disabled", "WeaponMastery",
}

func (s CharacterStat) String() string {
	if s < 0 || s >= CharacterStatsMax {
		return "Unknown"
	}
	return characterStatNames[s]
}

// ParseCharacterStat ищет стат по имени (для таблиц предметов и статусов)
func ParseCharacterStat(name string) (CharacterStat, bool) {
	for i, n := range characterStatNames {
		if n == name {
			return CharacterStat(i), true
		}
	}
	return 0, false
}

// TimingStat индекс временного стата (секунды)
type TimingStat int

const (
	AttackDelayTime TimingStat = iota
	AttackMotionTime
	SpriteAttackTiming
	HitDelayTime
	MoveSpeed

	TimingStatsMax
)

// Modifier надбавка к стату от экипировки или статус-эффекта
type Modifier struct {
	Stat    CharacterStat
	Value   int
	Percent bool
}
