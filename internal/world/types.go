package world

import (
	"github.com/annel0/ro-zone/internal/data"
	"github.com/annel0/ro-zone/internal/ecs"
	"github.com/annel0/ro-zone/internal/vec"
)

// CharacterState основное состояние персонажа. Каст идёт параллельно (IsCasting).
type CharacterState uint8

const (
	StateIdle CharacterState = iota
	StateMoving
	StateSitting
	StateDead
)

func (s CharacterState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateMoving:
		return "Moving"
	case StateSitting:
		return "Sitting"
	case StateDead:
		return "Dead"
	default:
		return "Unknown"
	}
}

// QueuedAction отложенное действие, которое выполнится, когда станет возможным
type QueuedAction uint8

const (
	QueuedNone QueuedAction = iota
	QueuedMove
	QueuedCast
	QueuedPickUpItem
)

// Faction сторона конфликта: свои не бьют своих
type Faction uint8

const (
	FactionPlayers Faction = iota
	FactionMonsters
	FactionNeutral
)

// RemovalReason причина исчезновения сущности с карты (уходит клиенту)
type RemovalReason int

const (
	RemovalOutOfSight RemovalReason = iota
	RemovalDied
	RemovalTeleport
	RemovalLogout
	RemovalDespawn
)

// CooldownAction тип действия игрока для антиспам-задержки
type CooldownAction uint8

const (
	CooldownClick CooldownAction = iota
	CooldownAttack
	CooldownSit
	CooldownTeleport
	CooldownSkill
	CooldownPickUp
	CooldownChangeEquipment
)

var actionCooldowns = [...]float64{
	CooldownClick:           0.15,
	CooldownAttack:          0.2,
	CooldownSit:             0.5,
	CooldownTeleport:        1.5,
	CooldownSkill:           0.3,
	CooldownPickUp:          0.3,
	CooldownChangeEquipment: 0.25,
}

// SkillCastInfo скилл, который сейчас кастуется или ждёт в очереди
type SkillCastInfo struct {
	Skill            data.SkillID
	Level            int
	TargetEntity     ecs.Entity
	TargetedPosition vec.Vec2
	Range            int
	CastTime         float64
	IsValid          bool
}

// Clear сбрасывает информацию о касте
func (s *SkillCastInfo) Clear() {
	*s = SkillCastInfo{TargetedPosition: vec.Invalid}
}

// IsGroundTargeted кастуется ли скилл в точку
func (s *SkillCastInfo) IsGroundTargeted() bool {
	return s.TargetedPosition.IsValid()
}
