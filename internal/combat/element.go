package combat

import "fmt"

// AttackElement стихия атаки
type AttackElement int

const (
	AttackNeutral AttackElement = iota
	AttackWater
	AttackEarth
	AttackFire
	AttackWind
	AttackPoison
	AttackHoly
	AttackDark
	AttackGhost
	AttackUndead
	AttackNone // стихия не задана, используется нейтральная

	attackElementCount = AttackNone
)

var attackElementNames = [...]string{
	"Neutral", "Water", "Earth", "Fire", "Wind", "Poison", "Holy", "Dark", "Ghost", "Undead", "None",
}

func (e AttackElement) String() string {
	if e < 0 || int(e) >= len(attackElementNames) {
		return "Unknown"
	}
	return attackElementNames[e]
}

// CharacterElement стихия защищающегося: базовый тип и уровень 1..4.
// Каждый базовый тип занимает непрерывную полосу из четырёх значений,
// поэтому проверка базового типа: это проверка попадания в полосу.
type CharacterElement int

const (
	Neutral1 CharacterElement = iota
	Neutral2
	Neutral3
	Neutral4
	Water1
	Water2
	Water3
	Water4
	Earth1
	Earth2
	Earth3
	Earth4
	Fire1
	Fire2
	Fire3
	Fire4
	Wind1
	Wind2
	Wind3
	Wind4
	Poison1
	Poison2
	Poison3
	Poison4
	Holy1
	Holy2
	Holy3
	Holy4
	Dark1
	Dark2
	Dark3
	Dark4
	Ghost1
	Ghost2
	Ghost3
	Ghost4
	Undead1
	Undead2
	Undead3
	Undead4

	CharacterElementMax
)

const elementBand = 4

// IsElementBaseType проверяет, что e принадлежит базовому типу, начинающемуся с baseType:
// e ∈ [baseType, baseType+3]. baseType передаётся как первый уровень (Fire1, Water1...).
func IsElementBaseType(e, baseType CharacterElement) bool {
	return e >= baseType && e <= baseType+elementBand-1
}

// BaseType возвращает стихию атаки, соответствующую базовому типу
func (e CharacterElement) BaseType() AttackElement {
	if e < 0 || e >= CharacterElementMax {
		return AttackNeutral
	}
	return AttackElement(e / elementBand)
}

// Level возвращает уровень стихии 1..4
func (e CharacterElement) Level() int {
	if e < 0 || e >= CharacterElementMax {
		return 1
	}
	return int(e%elementBand) + 1
}

// MakeElement собирает стихию из базового типа и уровня
func MakeElement(base AttackElement, level int) CharacterElement {
	if base < 0 || base >= attackElementCount {
		base = AttackNeutral
	}
	if level < 1 {
		level = 1
	} else if level > elementBand {
		level = elementBand
	}
	return CharacterElement(int(base)*elementBand + level - 1)
}

func (e CharacterElement) String() string {
	return fmt.Sprintf("%s%d", e.BaseType(), e.Level())
}

// ParseCharacterElement разбирает строки вида "Fire2"
func ParseCharacterElement(s string) (CharacterElement, error) {
	for el := Neutral1; el < CharacterElementMax; el++ {
		if el.String() == s {
			return el, nil
		}
	}
	return Neutral1, fmt.Errorf("неизвестная стихия %q", s)
}

// UnmarshalText позволяет задавать стихию строкой в YAML-таблицах
func (e *CharacterElement) UnmarshalText(text []byte) error {
	el, err := ParseCharacterElement(string(text))
	if err != nil {
		return err
	}
	*e = el
	return nil
}

// ParseAttackElement разбирает имя стихии атаки
func ParseAttackElement(s string) (AttackElement, error) {
	for i, n := range attackElementNames {
		if n == s {
			return AttackElement(i), nil
		}
	}
	return AttackNone, fmt.Errorf("неизвестная стихия атаки %q", s)
}

// UnmarshalText для YAML
func (e *AttackElement) UnmarshalText(text []byte) error {
	el, err := ParseAttackElement(string(text))
	if err != nil {
		return err
	}
	*e = el
	return nil
}

// elementTable модификаторы урона (%) для защитной стихии первого уровня.
// Строка: стихия атаки, столбец: базовый тип защиты.
var elementTable = [attackElementCount][attackElementCount]int{
	//            Neu  Wat  Ear  Fir  Win  Poi  Hol  Dar  Gho  Und
	AttackNeutral: {100, 100, 100, 100, 100, 100, 100, 100, 25, 100},
	AttackWater:   {100, 25, 100, 150, 50, 100, 75, 100, 100, 100},
	AttackEarth:   {100, 100, 25, 50, 150, 100, 75, 100, 100, 100},
	AttackFire:    {100, 50, 150, 25, 100, 100, 75, 100, 100, 125},
	AttackWind:    {100, 175, 50, 100, 25, 100, 75, 100, 100, 100},
	AttackPoison:  {100, 100, 125, 125, 125, 0, 75, 50, 100, 0},
	AttackHoly:    {100, 100, 100, 100, 100, 100, 0, 125, 100, 150},
	AttackDark:    {100, 100, 100, 100, 100, 50, 125, 0, 100, 0},
	AttackGhost:   {25, 100, 100, 100, 100, 100, 75, 75, 125, 100},
	AttackUndead:  {100, 100, 100, 100, 100, 50, 100, 0, 100, 0},
}

// ElementModifier возвращает множитель урона в процентах.
// С ростом уровня защитной стихии отклонение от 100% усиливается на четверть за уровень,
// но урон не уходит ниже нуля.
func ElementModifier(atk AttackElement, def CharacterElement) int {
	if atk == AttackNone || atk < 0 || atk >= attackElementCount {
		atk = AttackNeutral
	}

	base := elementTable[atk][def.BaseType()]
	if base == 100 {
		return 100
	}

	mod := 100 + (base-100)*(3+def.Level())/4
	if mod < 0 {
		return 0
	}
	return mod
}
