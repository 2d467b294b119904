package stats

// Block массивы статов одного боевого персонажа.
//
// base: базовые значения (от уровня и профессии) и текущие Hp/Sp;
// add / pct: надбавки от экипировки и статусов;
// timings: производные времена, пересчитываются вместе с базой.
type Block struct {
	base    [CharacterStatsMax]int
	add     [CharacterStatsMax]int
	pct     [CharacterStatsMax]int
	timings [TimingStatsMax]float64
}

// Reset обнуляет все массивы
func (b *Block) Reset() {
	clear(b.base[:])
	clear(b.add[:])
	clear(b.pct[:])
	clear(b.timings[:])
}

// Get возвращает базовое значение стата
func (b *Block) Get(s CharacterStat) int { return b.base[s] }

// Set задаёт базовое значение стата
func (b *Block) Set(s CharacterStat, v int) { b.base[s] = v }

// SetFloat задаёт базовое значение с отбрасыванием дробной части
func (b *Block) SetFloat(s CharacterStat, v float64) { b.base[s] = int(v) }

func (b *Block) AddBase(s CharacterStat, v int) { b.base[s] += v }
func (b *Block) SubBase(s CharacterStat, v int) { b.base[s] -= v }

// Bonus возвращает суммарную аддитивную надбавку
func (b *Block) Bonus(s CharacterStat) int { return b.add[s] }

// Effective возвращает значение с учётом надбавок: (base + add) * (100 + pct) / 100
func (b *Block) Effective(s CharacterStat) int {
	v := b.base[s] + b.add[s]
	if p := b.pct[s]; p != 0 {
		v = v * (100 + p) / 100
	}
	return v
}

// Total возвращает base + add без процентов (для бонусов вроде AspdBonus)
func (b *Block) Total(s CharacterStat) int {
	return b.base[s] + b.add[s]
}

// ApplyModifier накладывает надбавку
func (b *Block) ApplyModifier(m Modifier) {
	if m.Percent {
		b.pct[m.Stat] += m.Value
	} else {
		b.add[m.Stat] += m.Value
	}
}

// RemoveModifier снимает ранее наложенную надбавку
func (b *Block) RemoveModifier(m Modifier) {
	if m.Percent {
		b.pct[m.Stat] -= m.Value
	} else {
		b.add[m.Stat] -= m.Value
	}
}

// ClearModifiers снимает все надбавки
func (b *Block) ClearModifiers() {
	clear(b.add[:])
	clear(b.pct[:])
}

func (b *Block) Timing(t TimingStat) float64       { return b.timings[t] }
func (b *Block) SetTiming(t TimingStat, v float64) { b.timings[t] = v }
