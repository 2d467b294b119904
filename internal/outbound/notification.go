// Package outbound копит уведомления клиентам за тик и отдаёт их пачкой в шину.
package outbound

// Kind тип уведомления
type Kind uint8

const (
	KindEntityAppear Kind = iota + 1
	KindEntityDisappear
	KindMove
	KindStopMove
	KindTeleport
	KindSitStand
	KindChangeTarget
	KindAttack
	KindTakeDamage
	KindDeath
	KindResurrect
	KindHeal
	KindSpChange
	KindStartCast
	KindSkillExecuteTarget
	KindSkillExecuteArea
	KindEffectAtLocation
	KindAoeCreate
	KindAoeRemove
	KindItemDrop
	KindItemPickup
	KindItemRemove
	KindInventoryAdd
	KindEquip
	KindLevelUp
	KindPlayerData
	KindRequestFailed
	KindChangeMaps
)

var kindNames = map[Kind]string{
	KindEntityAppear:       "EntityAppear",
	KindEntityDisappear:    "EntityDisappear",
	KindMove:               "Move",
	KindStopMove:           "StopMove",
	KindTeleport:           "Teleport",
	KindSitStand:           "SitStand",
	KindChangeTarget:       "ChangeTarget",
	KindAttack:             "Attack",
	KindTakeDamage:         "TakeDamage",
	KindDeath:              "Death",
	KindResurrect:          "Resurrect",
	KindHeal:               "Heal",
	KindSpChange:           "SpChange",
	KindStartCast:          "StartCast",
	KindSkillExecuteTarget: "SkillExecuteTarget",
	KindSkillExecuteArea:   "SkillExecuteArea",
	KindEffectAtLocation:   "EffectAtLocation",
	KindAoeCreate:          "AoeCreate",
	KindAoeRemove:          "AoeRemove",
	KindItemDrop:           "ItemDrop",
	KindItemPickup:         "ItemPickup",
	KindItemRemove:         "ItemRemove",
	KindInventoryAdd:       "InventoryAdd",
	KindEquip:              "Equip",
	KindLevelUp:            "LevelUp",
	KindPlayerData:         "PlayerData",
	KindRequestFailed:      "RequestFailed",
	KindChangeMaps:         "ChangeMaps",
}

func (k Kind) String() string {
	if n, ok := kindNames[k]; ok {
		return n
	}
	return "Unknown"
}

// FailReason причина RequestFailed
type FailReason uint8

const (
	FailNotEnoughSp FailReason = iota + 1
	FailUnknownSkill
	FailCannotPickUp
	FailSkillOnCooldown
	FailTooHeavy
)

// Notification одно уведомление. Сущности передаются упакованными
// дескрипторами (ecs.Entity.Pack), значения зависят от Kind.
type Notification struct {
	Kind   Kind   `msgpack:"k"`
	Source uint64 `msgpack:"s,omitempty"`
	Target uint64 `msgpack:"t,omitempty"`
	X      int    `msgpack:"x,omitempty"`
	Y      int    `msgpack:"y,omitempty"`
	Values []int  `msgpack:"v,omitempty"`
	Text   string `msgpack:"txt,omitempty"`
}

// Message уведомление вместе с получателями
type Message struct {
	Recipients   []uint64     `msgpack:"r"`
	Notification Notification `msgpack:"n"`
}

// Batch все сообщения карты за один тик
type Batch struct {
	Map      string    `msgpack:"map"`
	Tick     uint64    `msgpack:"tick"`
	Messages []Message `msgpack:"msgs"`
}
