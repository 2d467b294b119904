package data

import (
	"fmt"
	"sync"

	"github.com/annel0/ro-zone/internal/combat"
	"github.com/annel0/ro-zone/internal/logging"
	"github.com/annel0/ro-zone/internal/stats"
)

// JobInfo параметры профессии
type JobInfo struct {
	ID            int                `yaml:"id"`
	Name          string             `yaml:"name"`
	WeaponTimings []float64          `yaml:"weapon_timings"`
	MaxHp         []int              `yaml:"max_hp"` // по уровням, индекс = уровень
	MaxSp         []int              `yaml:"max_sp"`
	Bonuses       map[string]float64 `yaml:"bonuses"`
	DefaultWeapon int                `yaml:"default_weapon"`

	bonus [stats.CharacterStatsMax]float64
}

// WeaponTiming базовое время атаки для класса оружия
func (j *JobInfo) WeaponTiming(weaponClass int) float64 {
	if weaponClass < 0 || weaponClass >= len(j.WeaponTimings) {
		return stats.MaxAttackRecharge
	}
	return j.WeaponTimings[weaponClass]
}

// MaxHpAt базовый запас HP на уровне
func (j *JobInfo) MaxHpAt(level int) int {
	if level >= 0 && level < len(j.MaxHp) {
		return j.MaxHp[level]
	}
	return (level*level)/2 + (level*level*level)/300 + 42 + 10*level
}

// MaxSpAt базовый запас SP на уровне
func (j *JobInfo) MaxSpAt(level int) int {
	if level >= 0 && level < len(j.MaxSp) {
		return j.MaxSp[level]
	}
	return (40 + level + level*(level/7)) / 2
}

// Bonus множитель профессии для стата, 1 по умолчанию
func (j *JobInfo) Bonus(s stats.CharacterStat) float64 {
	if s < 0 || s >= stats.CharacterStatsMax {
		return 1
	}
	return j.bonus[s]
}

// prepare переводит именованные бонусы в массив
func (j *JobInfo) prepare() {
	for i := range j.bonus {
		j.bonus[i] = 1
	}
	for name, v := range j.Bonuses {
		s, ok := stats.ParseCharacterStat(name)
		if !ok {
			logging.GetDataLogger().Warn("Профессия %s: неизвестный стат %q", j.Name, name)
			continue
		}
		j.bonus[s] = v
	}
	if len(j.WeaponTimings) < WeaponClassCount {
		timings := make([]float64, WeaponClassCount)
		copy(timings, j.WeaponTimings)
		for i := len(j.WeaponTimings); i < WeaponClassCount; i++ {
			timings[i] = stats.MaxAttackRecharge
		}
		j.WeaponTimings = timings
	}
}

// SkillInfo табличные параметры скилла
type SkillInfo struct {
	ID       SkillID     `yaml:"id"`
	Target   SkillTarget `yaml:"target"`
	MaxLevel int         `yaml:"max_level"`
	Range    int         `yaml:"range"`
	SpCost   []int       `yaml:"sp_cost"` // индекс = уровень-1
}

// SpCostAt стоимость SP на уровне скилла
func (s *SkillInfo) SpCostAt(level int) int {
	if len(s.SpCost) == 0 {
		return 0
	}
	level = stats.Clamp(level, 1, len(s.SpCost))
	return s.SpCost[level-1]
}

// MonsterInfo табличные параметры монстра
type MonsterInfo struct {
	ID           int                     `yaml:"id"`
	Code         string                  `yaml:"code"`
	Name         string                  `yaml:"name"`
	Level        int                     `yaml:"level"`
	HP           int                     `yaml:"hp"`
	Exp          int                     `yaml:"exp"`
	AtkMin       int                     `yaml:"atk_min"`
	AtkMax       int                     `yaml:"atk_max"`
	Str          int                     `yaml:"str"`
	Agi          int                     `yaml:"agi"`
	Vit          int                     `yaml:"vit"`
	Int          int                     `yaml:"int"`
	Dex          int                     `yaml:"dex"`
	Luk          int                     `yaml:"luk"`
	Def          int                     `yaml:"def"`
	MDef         int                     `yaml:"mdef"`
	RechargeTime float64                 `yaml:"recharge_time"`
	MotionTime   float64                 `yaml:"motion_time"`
	HitTime      float64                 `yaml:"hit_time"`
	Range        int                     `yaml:"range"`
	ScanDist     int                     `yaml:"scan_dist"`
	ChaseDist    int                     `yaml:"chase_dist"`
	MoveSpeed    float64                 `yaml:"move_speed"`
	Element      combat.CharacterElement `yaml:"element"`
	Aggressive   bool                    `yaml:"aggressive"`
}

// IsElementBaseType проверяет базовый тип стихии монстра
func (m *MonsterInfo) IsElementBaseType(baseType combat.CharacterElement) bool {
	return combat.IsElementBaseType(m.Element, baseType)
}

// ItemClass класс предмета
type ItemClass uint8

const (
	ItemEtc ItemClass = iota
	ItemWeapon
	ItemEquipment
	ItemUseable
)

// UnmarshalText для YAML
func (c *ItemClass) UnmarshalText(text []byte) error {
	switch string(text) {
	case "Etc", "":
		*c = ItemEtc
	case "Weapon":
		*c = ItemWeapon
	case "Equipment":
		*c = ItemEquipment
	case "Useable":
		*c = ItemUseable
	default:
		return fmt.Errorf("неизвестный класс предмета %q", string(text))
	}
	return nil
}

// ModifierSpec модификатор стата в табличном виде
type ModifierSpec struct {
	Stat    string `yaml:"stat"`
	Value   int    `yaml:"value"`
	Percent bool   `yaml:"percent"`
}

// ItemInfo табличные параметры предмета
type ItemInfo struct {
	ID          int            `yaml:"id"`
	Code        string         `yaml:"code"`
	Name        string         `yaml:"name"`
	Weight      int            `yaml:"weight"`
	Price       int            `yaml:"price"`
	Class       ItemClass      `yaml:"class"`
	Slot        EquipSlot      `yaml:"slot"`
	WeaponClass int            `yaml:"weapon_class"`
	Modifiers   []ModifierSpec `yaml:"modifiers"`

	mods []stats.Modifier
}

// StatModifiers модификаторы, которые даёт надетый предмет
func (i *ItemInfo) StatModifiers() []stats.Modifier {
	return i.mods
}

func (i *ItemInfo) prepare() {
	i.mods = i.mods[:0]
	for _, spec := range i.Modifiers {
		s, ok := stats.ParseCharacterStat(spec.Stat)
		if !ok {
			logging.GetDataLogger().Warn("Предмет %s: неизвестный стат %q", i.Code, spec.Stat)
			continue
		}
		i.mods = append(i.mods, stats.Modifier{Stat: s, Value: spec.Value, Percent: spec.Percent})
	}
}

// SavePoint точка возрождения
type SavePoint struct {
	Name string `yaml:"name"`
	Map  string `yaml:"map"`
	X    int    `yaml:"x"`
	Y    int    `yaml:"y"`
	Area int    `yaml:"area"`
}

// Tables набор таблиц. После сборки не изменяется, замена целиком через Swap.
type Tables struct {
	Jobs       map[int]*JobInfo
	Skills     map[SkillID]*SkillInfo
	Monsters   map[string]*MonsterInfo
	Items      map[int]*ItemInfo
	SavePoints map[string]SavePoint
}

// NewTables создаёт пустой набор таблиц
func NewTables() *Tables {
	return &Tables{
		Jobs:       make(map[int]*JobInfo),
		Skills:     make(map[SkillID]*SkillInfo),
		Monsters:   make(map[string]*MonsterInfo),
		Items:      make(map[int]*ItemInfo),
		SavePoints: make(map[string]SavePoint),
	}
}

// clone делает поверхностную копию: записи неизменяемы, копируются только карты
func (t *Tables) clone() *Tables {
	c := NewTables()
	for k, v := range t.Jobs {
		c.Jobs[k] = v
	}
	for k, v := range t.Skills {
		c.Skills[k] = v
	}
	for k, v := range t.Monsters {
		c.Monsters[k] = v
	}
	for k, v := range t.Items {
		c.Items[k] = v
	}
	for k, v := range t.SavePoints {
		c.SavePoints[k] = v
	}
	return c
}

// Заглушки, которые возвращаются на неизвестные ключи
var (
	sentinelJob = func() *JobInfo {
		j := &JobInfo{ID: -1, Name: "Unknown"}
		j.prepare()
		return j
	}()
	sentinelSkill   = &SkillInfo{ID: SkillNone, Target: TargetPassive, MaxLevel: 1}
	sentinelMonster = &MonsterInfo{ID: -1, Code: "UNKNOWN", Name: "Unknown", Level: 1, HP: 1, RechargeTime: 2, MotionTime: 0.5, MoveSpeed: 0.2, Range: 1}
	sentinelItem    = &ItemInfo{ID: -1, Code: "UNKNOWN", Name: "Unknown", Slot: SlotNone}
)

var warned sync.Map

func warnUnknown(kind string, key any) {
	k := fmt.Sprintf("%s:%v", kind, key)
	if _, loaded := warned.LoadOrStore(k, struct{}{}); loaded {
		return
	}
	logging.GetDataLogger().Warn("⚠️ Неизвестный ключ таблицы %s: %v, используется заглушка", kind, key)
}

// Job возвращает профессию или заглушку
func (t *Tables) Job(id int) *JobInfo {
	if j, ok := t.Jobs[id]; ok {
		return j
	}
	warnUnknown("jobs", id)
	return sentinelJob
}

// JobByName ищет профессию по имени
func (t *Tables) JobByName(name string) (*JobInfo, bool) {
	for _, j := range t.Jobs {
		if j.Name == name {
			return j, true
		}
	}
	return nil, false
}

// Skill возвращает скилл или заглушку
func (t *Tables) Skill(id SkillID) *SkillInfo {
	if s, ok := t.Skills[id]; ok {
		return s
	}
	warnUnknown("skills", id)
	return sentinelSkill
}

// Monster возвращает монстра по коду или заглушку
func (t *Tables) Monster(code string) *MonsterInfo {
	if m, ok := t.Monsters[code]; ok {
		return m
	}
	warnUnknown("monsters", code)
	return sentinelMonster
}

// Item возвращает предмет или заглушку
func (t *Tables) Item(id int) *ItemInfo {
	if i, ok := t.Items[id]; ok {
		return i
	}
	warnUnknown("items", id)
	return sentinelItem
}

// HasItem проверяет наличие предмета без предупреждения
func (t *Tables) HasItem(id int) bool {
	_, ok := t.Items[id]
	return ok
}

// SavePoint возвращает точку возрождения
func (t *Tables) SavePoint(name string) (SavePoint, bool) {
	sp, ok := t.SavePoints[name]
	if !ok {
		warnUnknown("save_points", name)
	}
	return sp, ok
}

// IsSentinelJob сообщает, что профессия: заглушка
func IsSentinelJob(j *JobInfo) bool { return j == sentinelJob }

// IsSentinelMonster сообщает, что монстр: заглушка
func IsSentinelMonster(m *MonsterInfo) bool { return m == sentinelMonster }

// IsSentinelItem сообщает, что предмет: заглушка
func IsSentinelItem(i *ItemInfo) bool { return i == sentinelItem }
