package inbound

import (
	"github.com/annel0/ro-zone/internal/data"
	"github.com/annel0/ro-zone/internal/ecs"
	"github.com/annel0/ro-zone/internal/logging"
	"github.com/annel0/ro-zone/internal/outbound"
	"github.com/annel0/ro-zone/internal/vec"
	"github.com/annel0/ro-zone/internal/world"
)

// RegisterDefaults заполняет реестр стандартными обработчиками
func RegisterDefaults(r *Registry) {
	r.Register(PacketStartMove, 2, handleStartMove)
	r.Register(PacketAttack, 0, handleAttack)
	r.Register(PacketSitStand, 1, handleSitStand)
	r.Register(PacketStopAction, 0, handleStopAction)
	r.Register(PacketStopImmediate, 0, handleStopImmediate)
	r.Register(PacketSkill, 2, handleSkill)
	r.Register(PacketChangeTarget, 0, handleChangeTarget)
	r.Register(PacketRespawn, 0, handleRespawn)
	r.Register(PacketPickUpItem, 1, handlePickUp)
	r.Register(PacketAdminLevelUp, 1, handleAdminLevelUp)
	r.Register(PacketAdminChangeJob, 1, handleAdminChangeJob)
	r.Register(PacketEquipItem, 1, handleEquip)
	r.Register(PacketUnequipItem, 1, handleUnequip)
}

// targetObject объект цели на той же карте, что и игрок
func targetObject(p *world.Player, packed uint64) (*world.WorldObject, bool) {
	m := p.Character.Map
	e := ecs.Unpack(packed)
	if !m.Holds(e) {
		return nil, false
	}
	target, ok := m.World().Objects.Get(e)
	if !ok {
		return nil, false
	}
	return target, true
}

func handleStartMove(p *world.Player, req *Request) bool {
	return p.RequestMove(vec.Vec2{X: req.Params[0], Y: req.Params[1]})
}

func handleAttack(p *world.Player, req *Request) bool {
	if !p.CanPerformCharacterActions() {
		return false
	}
	target, ok := targetObject(p, req.Target)
	if !ok {
		return false
	}
	return p.TargetForAttack(target)
}

func handleSitStand(p *world.Player, req *Request) bool {
	if !p.CanPerformCharacterActions() {
		return false
	}
	sit := req.Params[0] != 0
	if sit {
		p.StopAction()
	}
	if !p.UpdateSit(sit) {
		return false
	}
	p.AddActionDelay(world.CooldownSit)
	return true
}

func handleStopAction(p *world.Player, _ *Request) bool {
	p.StopAction()
	return true
}

func handleStopImmediate(p *world.Player, _ *Request) bool {
	p.StopImmediate()
	return true
}

// handleSkill: Params[0]: скилл, Params[1]: уровень (0: изученный),
// для скиллов по земле Params[2], Params[3]: клетка.
func handleSkill(p *world.Player, req *Request) bool {
	if !p.CanPerformCharacterActions() || p.Character.State == world.StateSitting {
		return false
	}
	skill := data.SkillID(req.Params[0])
	learned := p.MaxLearnedLevelOfSkill(skill)
	if learned <= 0 {
		logging.GetInboundLogger().Debug("%s: скилл %v не изучен", p.Name, skill)
		return false
	}
	level := req.Params[1]
	if level <= 0 || level > learned {
		level = learned
	}

	ce := p.CombatEntity
	switch data.Current().Skill(skill).Target {
	case data.TargetSelf:
		return ce.AttemptStartSelfTargetSkill(skill, level)
	case data.TargetEnemy:
		target, ok := targetObject(p, req.Target)
		if !ok || target.Combat == nil {
			return false
		}
		return ce.AttemptStartSingleTargetSkillAttack(target.Combat, skill, level)
	case data.TargetGround:
		if len(req.Params) < 4 {
			return false
		}
		return ce.AttemptStartGroundTargetedSkill(vec.Vec2{X: req.Params[2], Y: req.Params[3]}, skill, level)
	default:
		p.Character.Map.Commands.SendRequestFailed(p.Entity, outbound.FailUnknownSkill)
		return false
	}
}

func handleChangeTarget(p *world.Player, req *Request) bool {
	if req.Target == 0 {
		p.ClearTarget()
		return true
	}
	target, ok := targetObject(p, req.Target)
	if !ok {
		return false
	}
	p.ChangeTarget(target.Entity)
	return true
}

func handleRespawn(p *world.Player, _ *Request) bool {
	return p.Respawn()
}

func handlePickUp(p *world.Player, req *Request) bool {
	if !p.CanPerformCharacterActions() {
		return false
	}
	if !p.TryPickUp(req.Params[0]) {
		return false
	}
	p.AddActionDelay(world.CooldownPickUp)
	return true
}

func handleAdminLevelUp(p *world.Player, req *Request) bool {
	if !p.IsAdmin {
		logging.GetInboundLogger().Warn("⚠️ %s: админ-команда без прав", p.Name)
		return false
	}
	// 0: следующий уровень
	if req.Params[0] <= 0 {
		return p.LevelUp()
	}
	p.JumpToLevel(req.Params[0])
	return true
}

func handleAdminChangeJob(p *world.Player, req *Request) bool {
	if !p.IsAdmin {
		logging.GetInboundLogger().Warn("⚠️ %s: админ-команда без прав", p.Name)
		return false
	}
	return p.ChangeJob(req.Params[0])
}

func handleEquip(p *world.Player, req *Request) bool {
	if !p.CanPerformCharacterActions() {
		return false
	}
	if !p.EquipItem(req.Params[0]) {
		return false
	}
	p.AddActionDelay(world.CooldownChangeEquipment)
	return true
}

func handleUnequip(p *world.Player, req *Request) bool {
	if !p.CanPerformCharacterActions() {
		return false
	}
	return p.UnequipItem(data.EquipSlot(req.Params[0]))
}
