package data

import "fmt"

// SkillID идентификатор скилла
type SkillID int

const (
	SkillNone SkillID = iota
	SkillBasicMastery
	SkillFirstAid
	SkillSwordMastery
	SkillTwoHandSwordMastery
	SkillVultureEye
	SkillFireBolt
	SkillThunderStorm
	SkillFireWall
	SkillBash

	skillCount
)

var skillNames = [...]string{
	"None", "BasicMastery", "FirstAid", "SwordMastery", "TwoHandSwordMastery",
	"VultureEye", "FireBolt", "ThunderStorm", "FireWall", "Bash",
}

func (s SkillID) String() string {
	if s < 0 || s >= skillCount {
		return fmt.Sprintf("Skill(%d)", int(s))
	}
	return skillNames[s]
}

// ParseSkillID разбирает имя скилла
func ParseSkillID(name string) (SkillID, error) {
	for i, n := range skillNames {
		if n == name {
			return SkillID(i), nil
		}
	}
	return SkillNone, fmt.Errorf("неизвестный скилл %q", name)
}

// UnmarshalText для YAML
func (s *SkillID) UnmarshalText(text []byte) error {
	id, err := ParseSkillID(string(text))
	if err != nil {
		return err
	}
	*s = id
	return nil
}

// SkillTarget тип цели скилла
type SkillTarget uint8

const (
	TargetPassive SkillTarget = iota
	TargetSelf
	TargetEnemy
	TargetGround
)

var skillTargetNames = [...]string{"Passive", "Self", "Enemy", "Ground"}

func (t SkillTarget) String() string {
	if int(t) >= len(skillTargetNames) {
		return "Unknown"
	}
	return skillTargetNames[t]
}

// UnmarshalText для YAML
func (t *SkillTarget) UnmarshalText(text []byte) error {
	for i, n := range skillTargetNames {
		if n == string(text) {
			*t = SkillTarget(i)
			return nil
		}
	}
	return fmt.Errorf("неизвестный тип цели %q", string(text))
}

// Профессии
const (
	JobNovice = iota
	JobSwordsman
	JobArcher
	JobMage
	JobAcolyte
	JobThief
	JobMerchant
)

// EquipSlot слот экипировки
type EquipSlot int

const (
	SlotNone EquipSlot = iota - 1
	SlotHeadTop
	SlotHeadMid
	SlotHeadBottom
	SlotBody
	SlotLeftHand
	SlotRightHand
	SlotGarment
	SlotFootgear
	SlotAccessory1
	SlotAccessory2
	SlotCostumeTop
	SlotCostumeMid
	SlotCostumeBottom

	EquipSlotCount = int(SlotCostumeBottom) + 1
)

var equipSlotNames = [...]string{
	"HeadTop", "HeadMid", "HeadBottom", "Body", "LeftHand", "RightHand", "Garment",
	"Footgear", "Accessory1", "Accessory2", "CostumeTop", "CostumeMid", "CostumeBottom",
}

func (s EquipSlot) String() string {
	if s < 0 || int(s) >= len(equipSlotNames) {
		return "None"
	}
	return equipSlotNames[s]
}

// UnmarshalText для YAML
func (s *EquipSlot) UnmarshalText(text []byte) error {
	if string(text) == "" || string(text) == "None" {
		*s = SlotNone
		return nil
	}
	for i, n := range equipSlotNames {
		if n == string(text) {
			*s = EquipSlot(i)
			return nil
		}
	}
	return fmt.Errorf("неизвестный слот %q", string(text))
}

// WeaponClassCount количество классов оружия (0: без оружия, 12: лук)
const WeaponClassCount = 13
