package world

import (
	"github.com/annel0/ro-zone/internal/combat"
	"github.com/annel0/ro-zone/internal/data"
	"github.com/annel0/ro-zone/internal/ecs"
	"github.com/annel0/ro-zone/internal/logging"
	"github.com/annel0/ro-zone/internal/outbound"
	"github.com/annel0/ro-zone/internal/stats"
	"github.com/annel0/ro-zone/internal/vec"
)

// CombatEntity боевая часть игрока или монстра: статы, стихия, каст, статусы
type CombatEntity struct {
	Entity    ecs.Entity
	Character *WorldObject
	Player    *Player  // nil у монстров
	Monster   *Monster // nil у игроков
	Faction   Faction

	Stats   stats.Block
	element combat.CharacterElement

	IsCasting          bool
	CastingTime        float64
	CastingSkill       SkillCastInfo
	QueuedCastingSkill SkillCastInfo

	statusEffects []StatusEffect
	damageQueue   []queuedDamage
}

type queuedDamage struct {
	result  combat.Result
	applyAt float64
}

func newCombatEntity() *CombatEntity {
	ce := &CombatEntity{}
	ce.Reset()
	return ce
}

// Reset очищает компонент перед возвратом в пул
func (ce *CombatEntity) Reset() {
	ce.Stats.Reset()
	*ce = CombatEntity{
		Entity:        ecs.Null,
		Stats:         ce.Stats,
		statusEffects: ce.statusEffects[:0],
		damageQueue:   ce.damageQueue[:0],
	}
	ce.CastingSkill.Clear()
	ce.QueuedCastingSkill.Clear()
}

// Handle реализует combat.Combatant
func (ce *CombatEntity) Handle() ecs.Entity { return ce.Entity }

// EffectiveStat реализует combat.Combatant
func (ce *CombatEntity) EffectiveStat(s stats.CharacterStat) int { return ce.Stats.Effective(s) }

// Element реализует combat.Combatant
func (ce *CombatEntity) Element() combat.CharacterElement { return ce.element }

// SetElement меняет стихию защиты
func (ce *CombatEntity) SetElement(e combat.CharacterElement) { ce.element = e }

// GetStat эффективное значение стата
func (ce *CombatEntity) GetStat(s stats.CharacterStat) int { return ce.Stats.Effective(s) }

// GetTiming временной стат
func (ce *CombatEntity) GetTiming(t stats.TimingStat) float64 { return ce.Stats.Timing(t) }

func (ce *CombatEntity) now() float64 { return ce.Character.now() }

func (ce *CombatEntity) world() *World {
	if ce.Character == nil || ce.Character.Map == nil {
		return nil
	}
	return ce.Character.Map.world
}

// IsValidTarget может ли source атаковать эту сущность прямо сейчас.
// Вызывается из потока карты, на которой стоит source.
func (ce *CombatEntity) IsValidTarget(source *CombatEntity) bool {
	if ce == nil || source == nil || ce == source || source.Character == nil {
		return false
	}
	m := source.Character.Map
	if m == nil || !m.Holds(ce.Entity) {
		return false
	}
	ch := ce.Character
	if ch == nil || !ch.IsActive || ch.State == StateDead || ch.Type == ecs.EntityTypeNpc {
		return false
	}
	if !m.world.Registry.IsAlive(ce.Entity) {
		return false
	}
	if ch.HasSpawnImmunity() {
		return false
	}
	if ce.Faction == source.Faction {
		return false
	}
	return true
}

// CanAttackTarget цель в радиусе атаки и на линии видимости.
// rangeOverride > 0 заменяет дальность из статов (для скиллов).
func (ce *CombatEntity) CanAttackTarget(target *WorldObject, rangeOverride int) bool {
	if target == nil || ce.Character.Map == nil || !ce.Character.Map.Holds(target.Entity) {
		return false
	}
	rng := rangeOverride
	if rng <= 0 {
		rng = ce.GetStat(stats.Range)
	}
	if !ce.Character.Position.InRange(target.Position, rng) {
		return false
	}
	return ce.Character.Map.Walk.HasLineOfSight(ce.Character.Position, target.Position)
}

// CanAttackPosition точка в радиусе и на линии видимости
func (ce *CombatEntity) CanAttackPosition(pos vec.Vec2, rng int) bool {
	if ce.Character.Map == nil || !pos.IsValid() {
		return false
	}
	return ce.Character.Position.InRange(pos, rng) &&
		ce.Character.Map.Walk.HasLineOfSight(ce.Character.Position, pos)
}

// CalculateCombatResult считает исход атаки без изменения состояния
func (ce *CombatEntity) CalculateCombatResult(target *CombatEntity, multiplier float64, skillLevel int, flags combat.AttackFlags, element combat.AttackElement) combat.Result {
	return ce.Character.Map.Resolver.Resolve(ce, target, multiplier, skillLevel, flags, element)
}

// ExecuteCombatResult применяет рассчитанный исход: урон, смерть, уведомления.
// Если защитник уже не существует, ничего не происходит.
func (ce *CombatEntity) ExecuteCombatResult(res combat.Result, applyMotionLock bool) {
	w := ce.world()
	if w == nil {
		return
	}
	if !ce.Character.Map.Holds(res.Defender) {
		return
	}
	target, ok := w.Combatants.Get(res.Defender)
	if !ok {
		return
	}

	if applyMotionLock && target.Character.State != StateDead && res.IsHit() {
		target.Character.AddMoveLockTime(target.GetTiming(stats.HitDelayTime))
	}

	m := target.Character.Map
	m.broadcast(target.Character, func(m *Map) {
		m.Commands.SendTakeDamage(res.Attacker, res.Defender, res.Damage, int(res.HitType))
	})
	if w.metrics != nil {
		w.metrics.CombatOutcomes.WithLabelValues(res.HitType.String()).Inc()
	}

	if !res.IsHit() || res.Damage <= 0 {
		return
	}
	target.TakeDamage(res.Damage, res.Attacker)
}

// TakeDamage снимает HP и убивает при нуле
func (ce *CombatEntity) TakeDamage(amount int, attacker ecs.Entity) {
	if ce.Character.State == StateDead {
		return
	}
	hp := ce.Stats.Get(stats.Hp) - amount
	if hp < 0 {
		hp = 0
	}
	ce.Stats.Set(stats.Hp, hp)

	if ce.Monster != nil {
		ce.Monster.OnDamaged(attacker)
	}
	if hp == 0 {
		ce.Die(attacker)
	}
}

// Die переводит сущность в состояние смерти
func (ce *CombatEntity) Die(killer ecs.Entity) {
	logging.GetCombatLogger().Debug("💀 %s погиб (убийца %v)", ce.Character.Name, killer)
	ce.IsCasting = false
	ce.CastingSkill.Clear()
	ce.QueuedCastingSkill.Clear()
	ce.damageQueue = ce.damageQueue[:0]
	ce.OnDeathClearStatusEffects()

	switch {
	case ce.Player != nil:
		ce.Player.Die()
	case ce.Monster != nil:
		ce.Monster.Die(killer)
	default:
		ce.Character.State = StateDead
	}
}

// QueueDamage откладывает применение урона до момента удара в анимации
func (ce *CombatEntity) QueueDamage(res combat.Result, delay float64) {
	ce.damageQueue = append(ce.damageQueue, queuedDamage{result: res, applyAt: ce.now() + delay})
}

func (ce *CombatEntity) updateDamageQueue() {
	if len(ce.damageQueue) == 0 {
		return
	}
	now := ce.now()
	for i := 0; i < len(ce.damageQueue); i++ {
		qd := ce.damageQueue[i]
		if qd.applyAt > now {
			continue
		}
		last := len(ce.damageQueue) - 1
		ce.damageQueue[i] = ce.damageQueue[last]
		ce.damageQueue = ce.damageQueue[:last]
		i--

		ce.ExecuteCombatResult(qd.result, true)
		if ce.Character.State == StateDead || !ce.Character.IsActive {
			return
		}
	}
}

// PerformMeleeAttack обычная атака по цели: урон ложится в момент удара анимации
func (ce *CombatEntity) PerformMeleeAttack(target *CombatEntity) {
	res := ce.CalculateCombatResult(target, 1, 0, combat.AttackPhysical|combat.AttackCanCrit, combat.AttackNone)
	motion := ce.GetTiming(stats.AttackMotionTime)

	ce.Character.Map.broadcast(ce.Character, func(m *Map) {
		m.Commands.SendAttack(ce.Entity, target.Entity, res.Damage, res.HitCount, int(res.HitType), motion)
	})
	target.QueueDamage(res, ce.GetTiming(stats.SpriteAttackTiming))
}

// ApplyCooldownForAttackAction выставляет задержку атаки и блокировку движения после действия
func (ce *CombatEntity) ApplyCooldownForAttackAction() {
	ch := ce.Character
	ch.AttackCooldown = ch.now() + ce.GetTiming(stats.AttackDelayTime)
	ch.AddMoveLockTime(ce.GetTiming(stats.AttackMotionTime))
}

// HealHp восстанавливает HP, не выше максимума
func (ce *CombatEntity) HealHp(amount int, notify bool) {
	if amount <= 0 || ce.Character.State == StateDead {
		return
	}
	maxHp := ce.GetStat(stats.MaxHp)
	hp := min(ce.Stats.Get(stats.Hp)+amount, maxHp)
	ce.Stats.Set(stats.Hp, hp)
	if notify && ce.Character.Map != nil {
		ce.Character.Map.broadcast(ce.Character, func(m *Map) {
			m.Commands.SendHeal(ce.Entity, amount, 0)
		})
	}
}

// HealSp восстанавливает SP
func (ce *CombatEntity) HealSp(amount int, notify bool) {
	if amount <= 0 {
		return
	}
	maxSp := ce.GetStat(stats.MaxSp)
	sp := min(ce.Stats.Get(stats.Sp)+amount, maxSp)
	ce.Stats.Set(stats.Sp, sp)
	if notify && ce.Player != nil && ce.Character.Map != nil {
		ce.Character.Map.sendToPlayer(ce.Entity, func(m *Map) {
			m.Commands.SendSpChange(ce.Entity, sp, maxSp)
		})
	}
}

// FullRecovery восстанавливает HP и/или SP до максимума
func (ce *CombatEntity) FullRecovery(hp, sp bool) {
	if hp {
		ce.Stats.Set(stats.Hp, ce.GetStat(stats.MaxHp))
	}
	if sp {
		ce.Stats.Set(stats.Sp, ce.GetStat(stats.MaxSp))
	}
}

// --- каст скиллов ---

func (ce *CombatEntity) failRequest(reason outbound.FailReason) {
	if ce.Player == nil || ce.Character.Map == nil {
		return
	}
	ce.Character.Map.Commands.SendRequestFailed(ce.Entity, reason)
}

func (ce *CombatEntity) newCastInfo(skill data.SkillID, level int) (SkillCastInfo, bool) {
	w := ce.world()
	if w == nil {
		return SkillCastInfo{}, false
	}
	if _, ok := w.Skills.Get(skill); !ok {
		logging.GetCombatLogger().Warn("Скилл %s без обработчика", skill)
		ce.failRequest(outbound.FailUnknownSkill)
		return SkillCastInfo{}, false
	}
	info := data.Current().Skill(skill)
	if info.MaxLevel > 0 {
		level = stats.Clamp(level, 1, info.MaxLevel)
	}
	cast := SkillCastInfo{
		Skill:            skill,
		Level:            level,
		TargetEntity:     ecs.Null,
		TargetedPosition: vec.Invalid,
		Range:            info.Range,
		IsValid:          true,
	}
	if cast.Range <= 0 {
		cast.Range = ce.GetStat(stats.Range)
	}
	return cast, true
}

// AttemptStartSingleTargetSkillAttack начинает каст по цели или ставит его в очередь,
// если цель далеко или действие ещё на задержке.
func (ce *CombatEntity) AttemptStartSingleTargetSkillAttack(target *CombatEntity, skill data.SkillID, level int) bool {
	if ce.IsCasting || ce.Character.State == StateDead {
		return false
	}
	if !target.IsValidTarget(ce) {
		return false
	}
	cast, ok := ce.newCastInfo(skill, level)
	if !ok {
		return false
	}
	cast.TargetEntity = target.Entity

	ch := ce.Character
	if !ce.CanAttackTarget(target.Character, cast.Range) || ch.InAttackCooldown() {
		ce.queueCast(cast, target.Character.Position)
		return true
	}
	ch.StopMovingImmediately()
	return ce.beginCast(cast)
}

// AttemptStartGroundTargetedSkill начинает каст в точку или ставит его в очередь
func (ce *CombatEntity) AttemptStartGroundTargetedSkill(pos vec.Vec2, skill data.SkillID, level int) bool {
	if ce.IsCasting || ce.Character.State == StateDead || !pos.IsValid() {
		return false
	}
	cast, ok := ce.newCastInfo(skill, level)
	if !ok {
		return false
	}
	cast.TargetedPosition = pos

	ch := ce.Character
	if !ce.CanAttackPosition(pos, cast.Range) || ch.InAttackCooldown() {
		ce.queueCast(cast, pos)
		return true
	}
	ch.StopMovingImmediately()
	return ce.beginCast(cast)
}

// AttemptStartSelfTargetSkill кастует скилл на себя, без очереди
func (ce *CombatEntity) AttemptStartSelfTargetSkill(skill data.SkillID, level int) bool {
	if ce.IsCasting || ce.Character.State == StateDead {
		return false
	}
	cast, ok := ce.newCastInfo(skill, level)
	if !ok {
		return false
	}
	cast.TargetEntity = ce.Entity
	return ce.beginCast(cast)
}

func (ce *CombatEntity) queueCast(cast SkillCastInfo, targetPos vec.Vec2) {
	ch := ce.Character
	ce.QueuedCastingSkill = cast
	ch.QueuedAction = QueuedCast
	if ch.State == StateIdle && !ce.CanAttackPosition(targetPos, cast.Range) {
		if ch.TryMove(targetPos, 1) {
			ch.QueuedAction = QueuedCast
		}
	}
}

// ResumeQueuedSkillAction запускает скилл из очереди
func (ce *CombatEntity) ResumeQueuedSkillAction() {
	ce.Character.QueuedAction = QueuedNone
	cast := ce.QueuedCastingSkill
	ce.QueuedCastingSkill.Clear()
	if !cast.IsValid {
		return
	}
	ce.Character.StopMovingImmediately()
	ce.beginCast(cast)
}

// beginCast списывает SP и либо запускает таймер каста, либо сразу применяет скилл
func (ce *CombatEntity) beginCast(cast SkillCastInfo) bool {
	w := ce.world()
	handler, ok := w.Skills.Get(cast.Skill)
	if !ok {
		ce.failRequest(outbound.FailUnknownSkill)
		return false
	}

	target := ce.resolveCastTarget(cast)
	if !cast.IsGroundTargeted() && target == nil {
		return false
	}

	if ce.Player != nil && !ce.Player.TakeSpForSkill(cast.Skill, cast.Level) {
		ce.failRequest(outbound.FailNotEnoughSp)
		return false
	}

	ce.Character.ResetSpawnImmunity()
	cast.CastTime = handler.CastTime(ce, target, cast.TargetedPosition, cast.Level)
	if cast.CastTime <= 0 {
		handler.Process(ce, target, cast.TargetedPosition, cast.Level)
		return true
	}

	ce.IsCasting = true
	ce.CastingSkill = cast
	ce.CastingTime = ce.now() + cast.CastTime
	ce.Character.Map.broadcast(ce.Character, func(m *Map) {
		m.Commands.SendStartCast(ce.Entity, cast.TargetEntity, cast.TargetedPosition, int(cast.Skill), cast.Level, cast.CastTime)
	})
	return true
}

func (ce *CombatEntity) resolveCastTarget(cast SkillCastInfo) *CombatEntity {
	if cast.TargetEntity.IsNull() {
		return nil
	}
	if cast.TargetEntity == ce.Entity {
		return ce
	}
	target, ok := ce.world().Combatants.Get(cast.TargetEntity)
	if !ok {
		return nil
	}
	return target
}

// updateCasting завершает каст, когда вышло время
func (ce *CombatEntity) updateCasting() {
	if !ce.IsCasting || ce.now() < ce.CastingTime {
		return
	}
	ce.IsCasting = false
	cast := ce.CastingSkill
	ce.CastingSkill.Clear()

	handler, ok := ce.world().Skills.Get(cast.Skill)
	if !ok {
		return
	}
	target := ce.resolveCastTarget(cast)
	if !cast.IsGroundTargeted() {
		if target == nil || (target != ce && !target.IsValidTarget(ce)) {
			return
		}
	}
	handler.Process(ce, target, cast.TargetedPosition, cast.Level)
}

// Update боевая часть тика: каст, отложенный урон, статусы
func (ce *CombatEntity) Update() {
	if ce.Character.State == StateDead {
		return
	}
	ce.updateCasting()
	ce.updateDamageQueue()
	ce.updateStatusEffects()
}

// RecomputeStats пересчитывает производные статы владельца
func (ce *CombatEntity) RecomputeStats() {
	switch {
	case ce.Player != nil:
		ce.Player.UpdateStats()
	case ce.Monster != nil:
		ce.Monster.UpdateStats()
	}
}
