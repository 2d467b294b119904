package ecs

import "fmt"

// EntityType тип сущности, к которому привязан набор компонентов
type EntityType uint8

const (
	EntityTypeNone EntityType = iota
	EntityTypePlayer
	EntityTypeMonster
	EntityTypeNpc
)

func (t EntityType) String() string {
	switch t {
	case EntityTypePlayer:
		return "player"
	case EntityTypeMonster:
		return "monster"
	case EntityTypeNpc:
		return "npc"
	default:
		return "none"
	}
}

// Entity непрозрачный хэндл сущности: индекс слота + поколение.
// Хэндл действителен, только пока поколение слота в реестре совпадает с Generation.
// Сами данные хранятся в компонентах, Entity: лишь ключ.
type Entity struct {
	Index      uint32
	Generation uint32
}

// Null пустой хэндл. Поколения в реестре начинаются с 1, поэтому Null никогда не жив.
var Null = Entity{}

// IsNull проверяет, что хэндл пустой
func (e Entity) IsNull() bool {
	return e.Generation == 0
}

// Pack упаковывает хэндл в uint64 (для сообщений клиентам)
func (e Entity) Pack() uint64 {
	return uint64(e.Generation)<<32 | uint64(e.Index)
}

// Unpack восстанавливает хэндл из uint64
func Unpack(v uint64) Entity {
	return Entity{Index: uint32(v), Generation: uint32(v >> 32)}
}

func (e Entity) String() string {
	if e.IsNull() {
		return "Entity(null)"
	}
	return fmt.Sprintf("Entity(%d:%d)", e.Index, e.Generation)
}
