package world

import (
	"github.com/annel0/ro-zone/internal/ecs"
	"github.com/annel0/ro-zone/internal/logging"
	"github.com/annel0/ro-zone/internal/vec"
)

// Update один тик игрока. Порядок важен:
// задержка действий, регенерация, каст из очереди, движение из очереди,
// подбор предмета, автоатака.
func (p *Player) Update() {
	ch := p.Character
	if !Assert(ch.Map != nil, "обновление игрока %s вне карты", p.Name) {
		return
	}
	now := ch.now()

	p.CurrentCooldown -= ch.Map.Time.Delta
	if p.CurrentCooldown < 0 {
		p.CurrentCooldown = 0
	}

	if ch.State == StateDead || ch.State == StateSitting {
		ch.QueuedAction = QueuedNone
		p.AutoAttackLock = false
		if ch.State == StateDead {
			return
		}
	}

	if p.regenTickTime < now {
		p.RegenTick()
		if ch.State == StateSitting {
			p.regenTickTime = now + regenIntervalSitting
		} else {
			p.regenTickTime = now + regenIntervalStanding
		}
	}

	if ch.QueuedAction == QueuedCast {
		if p.CombatEntity.QueuedCastingSkill.IsGroundTargeted() {
			p.updateQueuedGroundCast()
		} else {
			p.updateQueuedTargetCast()
		}
	}

	if ch.QueuedAction == QueuedMove && p.inMoveReadyState() {
		if ch.InMoveLock() {
			return
		}
		ch.QueuedAction = QueuedNone
		ch.TryMove(ch.TargetPosition, 0)
		return
	}

	if ch.QueuedAction == QueuedPickUpItem && ch.State == StateIdle && !ch.InAttackCooldown() {
		p.attemptQueuedPickupAction()
	}

	if p.AutoAttackLock {
		target, ok := p.ValidateTarget()
		if !ok {
			p.ClearTarget()
			return
		}
		if ch.State == StateMoving && !ch.InAttackCooldown() && p.CombatEntity.CanAttackTarget(target, 0) {
			ch.StopMovingImmediately()
		}
		if p.inCombatReadyState() {
			p.PerformQueuedAttack()
		}
	}

	if ch.Map != nil && ch.Map.world.opts.Debug.CheckVisibility {
		p.checkVisibility()
	}
}

// updateQueuedGroundCast: каст в точку выполняется только при линии видимости и дальности.
// Иначе одна попытка подойти; если пути нет, каст отменяется.
func (p *Player) updateQueuedGroundCast() {
	ch := p.Character
	ce := p.CombatEntity
	cast := &ce.QueuedCastingSkill

	isValid := true
	canAttack := ce.CanAttackPosition(cast.TargetedPosition, cast.Range)

	if ch.State == StateMoving && canAttack {
		ch.StopMovingImmediately()
	}

	if ch.State == StateIdle && !canAttack && !ch.InAttackCooldown() {
		isValid = ch.TryMove(cast.TargetedPosition, 1)
		if isValid {
			ch.QueuedAction = QueuedCast
		}
	}

	if p.inCombatReadyState() && !ch.InMoveLock() && isValid && canAttack {
		if cast.IsValid {
			ce.ResumeQueuedSkillAction()
		} else {
			ch.QueuedAction = QueuedNone
		}
	}

	if !isValid {
		ch.QueuedAction = QueuedNone
		cast.Clear()
	}
}

// updateQueuedTargetCast: каст по сущности. Цель проверяется каждый тик,
// пропавшая или ставшая недопустимой цель молча снимает каст.
func (p *Player) updateQueuedTargetCast() {
	ch := p.Character
	ce := p.CombatEntity
	cast := &ce.QueuedCastingSkill

	target, ok := ch.Map.world.Objects.Get(cast.TargetEntity)
	if !ok || target.Combat == nil || !target.Combat.IsValidTarget(ce) {
		ch.QueuedAction = QueuedNone
		cast.Clear()
		p.Target = ecs.Null
		return
	}

	isValid := true
	canAttack := ce.CanAttackTarget(target, cast.Range)

	if ch.State == StateMoving && canAttack {
		ch.StopMovingImmediately()
	}

	if ch.State == StateIdle && !canAttack && !ch.InAttackCooldown() {
		isValid = ch.TryMove(target.Position, 1)
		if isValid {
			ch.QueuedAction = QueuedCast
		}
	}

	if p.inCombatReadyState() && !ch.InMoveLock() && isValid && canAttack {
		ce.ResumeQueuedSkillAction()
	}

	if !isValid {
		ch.QueuedAction = QueuedNone
		cast.Clear()
	}
}

// checkVisibility сверяет список видящих игроков с честной выборкой по радиусу
func (p *Player) checkVisibility() {
	ch := p.Character
	m := ch.Map
	list := ecs.BorrowList()
	defer ecs.ReturnList(list)

	m.GatherPlayersInRange(ch.Position, m.world.opts.MaxViewDistance, list)
	list.Remove(p.Entity)
	if list.Len() != ch.CountVisiblePlayers() {
		Assert(false, "видимость %s: %d игроков в радиусе, %d в списке", p.Name, list.Len(), ch.CountVisiblePlayers())
		logging.GetSimLogger().Debug("Пересборка видимости для %s", p.Name)
		m.refreshVisibility(ch)
	}
}

// RequestMove движение по запросу клиента. Пока идёт анимация или каст, движение ждёт в очереди.
func (p *Player) RequestMove(pos vec.Vec2) bool {
	ch := p.Character
	if !p.CanPerformCharacterActions() || ch.State == StateSitting {
		return false
	}
	if ch.Map == nil || !ch.Map.Walk.IsWalkable(pos) {
		return false
	}
	p.AutoAttackLock = false
	p.AddActionDelay(CooldownClick)

	if ch.InMoveLock() || p.CombatEntity.IsCasting {
		ch.TargetPosition = pos
		ch.QueuedAction = QueuedMove
		return true
	}
	return ch.TryMove(pos, 0)
}

// StopAction снимает автоатаку и очередь, движение дошагивает до следующей клетки
func (p *Player) StopAction() {
	ch := p.Character
	p.AutoAttackLock = false
	ch.QueuedAction = QueuedNone
	p.CombatEntity.QueuedCastingSkill.Clear()
	ch.ShortenMovePath()
}

// StopImmediate останавливает всё сразу
func (p *Player) StopImmediate() {
	p.StopAction()
	p.Character.StopMovingImmediately()
}
