package world

import (
	"github.com/google/uuid"

	"github.com/annel0/ro-zone/internal/data"
	"github.com/annel0/ro-zone/internal/ecs"
	"github.com/annel0/ro-zone/internal/logging"
	"github.com/annel0/ro-zone/internal/outbound"
	"github.com/annel0/ro-zone/internal/stats"
	"github.com/annel0/ro-zone/internal/vec"
)

// Классы оружия, у которых есть мастерство
const (
	WeaponClassFist          = 0
	WeaponClassDagger        = 1
	WeaponClassSword         = 2
	WeaponClassTwoHandSword  = 3
	noviceSkillPointsCap     = 9
	unlimitedSkillPoints     = 999
	pickUpAttackCooldown     = 0.3
	regenIntervalStanding    = 6.0
	regenIntervalSitting     = 3.0
	maxRegenWaitBeforeStand  = 4.0
	baseWeightCapacity       = 24000
	weightCapacityPerStr     = 300
	playerHitDelayTime       = 0.288
	bowBaseRange             = 4
	actionCooldownBlockLimit = 1.0
)

// Player компонент игрока: прогресс, инвентарь, экипировка, цель автоатаки
type Player struct {
	Entity       ecs.Entity
	Character    *WorldObject
	CombatEntity *CombatEntity

	ID      uuid.UUID
	Name    string
	IsAdmin bool

	Level       int
	JobID       int
	Experience  int
	SkillPoints int

	LearnedSkills map[data.SkillID]int
	Equipment     [data.EquipSlotCount]int
	Inventory     map[int]int
	SavePoint     data.SavePoint

	Target         ecs.Entity
	AutoAttackLock bool

	WeaponClass     int
	CurrentCooldown float64

	regenTickTime   float64
	inventoryWeight int
	unlimitedPoints bool
}

func newPlayer() *Player {
	p := &Player{}
	p.Reset()
	return p
}

// Reset очищает компонент, сохраняя выделенные карты
func (p *Player) Reset() {
	skills := p.LearnedSkills
	inv := p.Inventory
	if skills == nil {
		skills = make(map[data.SkillID]int)
	}
	if inv == nil {
		inv = make(map[int]int)
	}
	clear(skills)
	clear(inv)
	*p = Player{
		Entity:        ecs.Null,
		Target:        ecs.Null,
		Level:         1,
		LearnedSkills: skills,
		Inventory:     inv,
	}
}

// Init первичная настройка после создания: статы, полное здоровье
func (p *Player) Init(opts Options) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	p.IsAdmin = p.IsAdmin || opts.Debug.AdminByDefault
	p.unlimitedPoints = opts.Debug.UnlimitedSkillPoints
	if p.SavePoint.Map == "" {
		if sp, ok := data.Current().SavePoint("prontera"); ok {
			p.SavePoint = sp
		}
	}
	p.CombatEntity.Faction = FactionPlayers
	p.RefreshWeaponMastery()
	p.UpdateStats()
	p.CombatEntity.FullRecovery(true, true)
}

func (p *Player) world() *World { return p.CombatEntity.world() }

// GetJobBonus множитель профессии для стата
func (p *Player) GetJobBonus(s stats.CharacterStat) float64 {
	return data.Current().Job(p.JobID).Bonus(s)
}

// MaxLearnedLevelOfSkill изученный уровень скилла, 0 если не изучен
func (p *Player) MaxLearnedLevelOfSkill(skill data.SkillID) int {
	return p.LearnedSkills[skill]
}

// UpdateStats полностью пересчитывает производные статы игрока.
// Вызывается после любой смены уровня, профессии, экипировки или статусов.
func (p *Player) UpdateStats() {
	ce := p.CombatEntity
	job := data.Current().Job(p.JobID)

	p.Level = AssertInRange(p.Level, stats.MinLevel, stats.MaxLevel, "уровень игрока")
	lvl := p.Level
	flvl := float64(lvl)

	ce.Stats.Set(stats.Level, lvl)
	ce.Stats.SetFloat(stats.Def, flvl*0.7*job.Bonus(stats.Def))
	ce.Stats.SetFloat(stats.MDef, flvl*0.4*job.Bonus(stats.MDef))
	ce.Stats.SetFloat(stats.Vit, 3+flvl*0.5)
	ce.Stats.SetFloat(stats.Int, 15+flvl*0.9)
	ce.Stats.SetFloat(stats.Str, (15+flvl*0.9)*job.Bonus(stats.Str))
	ce.Stats.SetFloat(stats.Agi, (3+flvl*0.5)*job.Bonus(stats.Agi))
	ce.Stats.SetFloat(stats.Dex, (15+flvl*0.9)*job.Bonus(stats.Dex))
	ce.Stats.SetFloat(stats.Luk, 3+flvl*0.5)
	ce.Stats.SetTiming(stats.HitDelayTime, playerHitDelayTime)

	if p.WeaponClass == stats.WeaponClassBow {
		ce.Stats.Set(stats.Range, bowBaseRange+p.MaxLearnedLevelOfSkill(data.SkillVultureEye))
	} else {
		ce.Stats.Set(stats.Range, 1)
	}

	str := ce.GetStat(stats.Str)
	agi := ce.GetStat(stats.Agi)
	vit := ce.GetStat(stats.Vit)
	chInt := ce.GetStat(stats.Int)
	dex := ce.GetStat(stats.Dex)
	luk := ce.GetStat(stats.Luk)

	aspdBonus := int(float64(ce.GetStat(stats.AspdBonus)) * job.Bonus(stats.AspdBonus))
	timing := stats.ComputeAttackTiming(stats.AttackTimingInput{
		WeaponTiming: job.WeaponTiming(p.WeaponClass),
		AspdBonus:    aspdBonus,
		Agi:          agi,
		Dex:          dex,
		WeaponClass:  p.WeaponClass,
	})
	ce.Stats.SetTiming(stats.AttackDelayTime, timing.Recharge)
	ce.Stats.SetTiming(stats.AttackMotionTime, timing.Motion)
	ce.Stats.SetTiming(stats.SpriteAttackTiming, timing.Sprite)

	maxHp := float64(job.MaxHpAt(lvl)) * job.Bonus(stats.MaxHp) * (1 + float64(vit)/100)
	ce.Stats.SetFloat(stats.MaxHp, maxHp)
	maxSp := float64(job.MaxSpAt(lvl))*job.Bonus(stats.MaxSp)*(1+float64(chInt)/100) + float64(ce.GetStat(stats.AddMaxSp))
	ce.Stats.SetFloat(stats.MaxSp, maxSp)

	if hp, limit := ce.Stats.Get(stats.Hp), ce.GetStat(stats.MaxHp); hp > limit {
		ce.Stats.Set(stats.Hp, limit)
	}
	if sp, limit := ce.Stats.Get(stats.Sp), ce.GetStat(stats.MaxSp); sp > limit {
		ce.Stats.Set(stats.Sp, limit)
	}

	mastery := ce.Stats.Get(stats.WeaponMastery)
	atk := str + (str/10)*(str/10) + dex/5 + luk/5 + mastery*4
	ce.Stats.Set(stats.Atk, atk)
	ce.Stats.Set(stats.Atk2, atk+str/5)
	matkMin := float64(chInt+(chInt/7)*(chInt/7)) * job.Bonus(stats.MagicAtkMin)
	ce.Stats.SetFloat(stats.MagicAtkMin, matkMin)
	ce.Stats.Set(stats.MagicAtkMax, chInt+(chInt/5)*(chInt/5))
	ce.Stats.Set(stats.Hit, lvl+dex)
	ce.Stats.Set(stats.Flee, lvl+agi)
	ce.Stats.Set(stats.Critical, 1+luk/3)
	ce.Stats.Set(stats.WeightCapacity, baseWeightCapacity+str*weightCapacityPerStr)

	moveSpeed := stats.ComputeMoveSpeed(ce.GetStat(stats.MoveSpeedBonus), ce.HasStatusEffect(StatusCurse))
	ce.Stats.SetTiming(stats.MoveSpeed, moveSpeed)
	p.Character.MoveSpeed = moveSpeed

	p.SkillPoints = p.availableSkillPoints()
	p.sendPlayerData()
}

func (p *Player) availableSkillPoints() int {
	earned := stats.SkillPointsForLevel(p.Level)
	if p.JobID == data.JobNovice && earned > noviceSkillPointsCap {
		earned = noviceSkillPointsCap
	}
	if p.unlimitedPoints {
		earned = unlimitedSkillPoints
	}
	used := 0
	for _, lvl := range p.LearnedSkills {
		used += lvl
	}
	return earned - used
}

func (p *Player) sendPlayerData() {
	m := p.Character.Map
	if m == nil {
		return
	}
	ce := p.CombatEntity
	m.Commands.SendPlayerData(p.Entity, []int{
		p.Level, p.JobID, ce.Stats.Get(stats.Hp), ce.GetStat(stats.MaxHp),
		ce.Stats.Get(stats.Sp), ce.GetStat(stats.MaxSp),
		ce.GetStat(stats.Str), ce.GetStat(stats.Agi), ce.GetStat(stats.Vit),
		ce.GetStat(stats.Int), ce.GetStat(stats.Dex), ce.GetStat(stats.Luk),
		p.SkillPoints,
	})
}

// RefreshWeaponMastery выставляет уровень мастерства для текущего оружия
func (p *Player) RefreshWeaponMastery() {
	mastery := 0
	switch p.WeaponClass {
	case WeaponClassDagger, WeaponClassSword:
		mastery = p.MaxLearnedLevelOfSkill(data.SkillSwordMastery)
	case WeaponClassTwoHandSword:
		mastery = p.MaxLearnedLevelOfSkill(data.SkillTwoHandSwordMastery)
	}
	p.CombatEntity.Stats.Set(stats.WeaponMastery, mastery)
}

// LevelUp повышает уровень на один
func (p *Player) LevelUp() bool {
	if p.Level >= stats.MaxLevel {
		return false
	}
	p.Experience = 0
	p.JumpToLevel(p.Level + 1)
	return true
}

// JumpToLevel выставляет уровень напрямую (админ-команда), с полным восстановлением
func (p *Player) JumpToLevel(level int) {
	p.Level = AssertInRange(level, stats.MinLevel, stats.MaxLevel, "целевой уровень")
	p.UpdateStats()
	p.CombatEntity.FullRecovery(true, true)
	if m := p.Character.Map; m != nil {
		m.broadcast(p.Character, func(m *Map) {
			m.Commands.SendLevelUp(p.Entity, p.Level)
		})
	}
	logging.GetSimLogger().Debug("⬆️ %s теперь %d уровня", p.Name, p.Level)
}

// ChangeJob меняет профессию. Неизвестная профессия не применяется.
func (p *Player) ChangeJob(jobID int) bool {
	job := data.Current().Job(jobID)
	if data.IsSentinelJob(job) {
		return false
	}
	p.JobID = job.ID
	p.Character.ClassID = job.ID
	p.UpdateStats()
	if m := p.Character.Map; m != nil {
		m.broadcast(p.Character, func(m *Map) {
			m.Commands.SendEntityAppear(p.Entity, ecs.EntityTypePlayer, p.Character.ClassID, p.Character.Position, p.Name)
		})
	}
	return true
}

// AddSkillToCharacter изучает скилл. Пассивные скиллы сразу влияют на статы.
func (p *Player) AddSkillToCharacter(skill data.SkillID, level int) bool {
	info := data.Current().Skill(skill)
	if info.ID == data.SkillNone {
		return false
	}
	if info.MaxLevel > 0 {
		level = stats.Clamp(level, 1, info.MaxLevel)
	}
	cur := p.LearnedSkills[skill]
	if level <= cur || level-cur > p.SkillPoints {
		return false
	}
	p.LearnedSkills[skill] = level
	if info.Target == data.TargetPassive {
		p.RefreshWeaponMastery()
	}
	p.UpdateStats()
	return true
}

// HasSpForSkill хватает ли SP на скилл
func (p *Player) HasSpForSkill(skill data.SkillID, level int) bool {
	cost := data.Current().Skill(skill).SpCostAt(level)
	return p.CombatEntity.Stats.Get(stats.Sp) >= cost
}

// TakeSpForSkill списывает SP за скилл; false, если SP не хватает
func (p *Player) TakeSpForSkill(skill data.SkillID, level int) bool {
	cost := data.Current().Skill(skill).SpCostAt(level)
	ce := p.CombatEntity
	sp := ce.Stats.Get(stats.Sp)
	if sp < cost {
		return false
	}
	if cost == 0 {
		return true
	}
	ce.Stats.Set(stats.Sp, sp-cost)
	if m := p.Character.Map; m != nil {
		m.sendToPlayer(p.Entity, func(m *Map) {
			m.Commands.SendSpChange(p.Entity, sp-cost, ce.GetStat(stats.MaxSp))
		})
	}
	return true
}

// UpdateSit садит или поднимает персонажа. Сидя регенерация идёт в два раза чаще,
// поэтому оставшееся ожидание тика пересчитывается сразу.
func (p *Player) UpdateSit(sit bool) bool {
	ch := p.Character
	if sit && ch.State != StateIdle {
		return false
	}
	if !sit && ch.State != StateSitting {
		return false
	}

	now := ch.now()
	remaining := p.regenTickTime - now
	if sit {
		ch.State = StateSitting
		remaining /= 2
	} else {
		ch.State = StateIdle
		if remaining > maxRegenWaitBeforeStand {
			remaining = maxRegenWaitBeforeStand
		}
		remaining *= 2
	}
	p.regenTickTime = now + remaining

	if ch.Map != nil {
		ch.Map.broadcast(ch, func(m *Map) {
			m.Commands.SendSitStand(p.Entity, sit)
		})
	}
	return true
}

// RegenWait сколько секунд осталось до тика регенерации
func (p *Player) RegenWait() float64 {
	return p.regenTickTime - p.Character.now()
}

// SetRegenTickTime выставляет момент следующего тика регенерации
func (p *Player) SetRegenTickTime(t float64) {
	p.regenTickTime = t
}

// RegenTick восстанавливает HP и SP по формулам регенерации
func (p *Player) RegenTick() {
	ce := p.CombatEntity
	ch := p.Character
	hp := stats.HpRegen(stats.RegenInput{
		Current:      ce.Stats.Get(stats.Hp),
		Max:          ce.GetStat(stats.MaxHp),
		PrimaryStat:  ce.GetStat(stats.Vit),
		BonusPercent: ce.GetStat(stats.AddHpRecoveryPercent),
		Sitting:      ch.State == StateSitting,
		Moving:       ch.State == StateMoving,
	})
	ce.HealHp(hp, true)

	sp := stats.SpRegen(stats.RegenInput{
		Current:      ce.Stats.Get(stats.Sp),
		Max:          ce.GetStat(stats.MaxSp),
		PrimaryStat:  ce.GetStat(stats.Int),
		BonusPercent: ce.GetStat(stats.AddSpRecoveryPercent),
		Sitting:      ch.State == StateSitting,
	})
	ce.HealSp(sp, true)
}

// Die смерть игрока: очередь, цель и движение сбрасываются
func (p *Player) Die() {
	ch := p.Character
	ch.ResetState()
	ch.State = StateDead
	p.AutoAttackLock = false
	p.Target = ecs.Null
	if ch.Map != nil {
		ch.Map.broadcast(ch, func(m *Map) {
			m.Commands.SendDeath(p.Entity, ch.Position)
		})
	}
}

// Resurrect поднимает мёртвого игрока на месте с указанным HP
func (p *Player) Resurrect(hp int) bool {
	ch := p.Character
	if ch.State != StateDead {
		return false
	}
	ch.State = StateIdle
	ce := p.CombatEntity
	ce.Stats.Set(stats.Hp, stats.Clamp(hp, 1, ce.GetStat(stats.MaxHp)))
	ch.SetSpawnImmunity()
	if ch.Map != nil {
		ch.Map.broadcast(ch, func(m *Map) {
			m.Commands.SendResurrect(p.Entity, ch.Position)
		})
	}
	return true
}

// Respawn возвращает мёртвого игрока на точку сохранения с полным здоровьем
func (p *Player) Respawn() bool {
	ch := p.Character
	if ch.State != StateDead {
		return false
	}
	ch.State = StateIdle
	p.CombatEntity.FullRecovery(true, true)
	ch.SetSpawnImmunity()
	sp := p.SavePoint
	return p.WarpPlayer(sp.Map, vec.Vec2{X: sp.X, Y: sp.Y}, sp.Area)
}

// WarpPlayer перемещает игрока в точку карты. area > 0: случайная клетка рядом.
// Переход на другую карту идёт через передачу между потоками карт,
// клетку на чужой карте выбирает её поток.
func (p *Player) WarpPlayer(mapName string, pos vec.Vec2, area int) bool {
	w := p.world()
	if w == nil {
		return false
	}
	dest, ok := w.Map(mapName)
	if !ok {
		logging.GetSimLogger().Warn("Варп %s: карта %q не найдена", p.Name, mapName)
		return false
	}
	p.ClearTarget()
	p.Character.ResetState()
	p.CombatEntity.IsCasting = false
	p.CombatEntity.QueuedCastingSkill.Clear()

	return w.TransferPlayer(p, dest, pos, area)
}

// ChangeTarget меняет выбранную цель
func (p *Player) ChangeTarget(target ecs.Entity) {
	p.Target = target
	if m := p.Character.Map; m != nil {
		m.sendToPlayer(p.Entity, func(m *Map) {
			m.Commands.SendChangeTarget(p.Entity, target)
		})
	}
}

// ClearTarget снимает цель и автоатаку
func (p *Player) ClearTarget() {
	p.AutoAttackLock = false
	p.Target = ecs.Null
}

// ValidateTarget возвращает объект цели, если его ещё можно атаковать
func (p *Player) ValidateTarget() (*WorldObject, bool) {
	w := p.world()
	if w == nil || p.Target.IsNull() {
		return nil, false
	}
	target, ok := w.Objects.Get(p.Target)
	if !ok || target.Combat == nil || !target.Combat.IsValidTarget(p.CombatEntity) {
		return nil, false
	}
	return target, true
}

// TargetForAttack выбирает цель и включает автоатаку
func (p *Player) TargetForAttack(target *WorldObject) bool {
	if target == nil || target.Combat == nil || !target.Combat.IsValidTarget(p.CombatEntity) {
		return false
	}
	if p.Target != target.Entity {
		p.ChangeTarget(target.Entity)
	}
	p.AutoAttackLock = true
	return true
}

// PerformQueuedAttack подходит к цели, если нужно, и атакует
func (p *Player) PerformQueuedAttack() {
	target, ok := p.ValidateTarget()
	if !ok {
		p.ClearTarget()
		return
	}

	ch := p.Character
	ce := p.CombatEntity
	rng := ce.GetStat(stats.Range)

	if !ch.Position.InRange(target.Position, rng) {
		if ch.InMoveLock() {
			return
		}
		if ch.State != StateMoving || ch.TargetPosition != target.Position {
			if !ch.TryMove(target.Position, rng) {
				p.ClearTarget()
			}
		}
		return
	}

	if !ch.Map.Walk.HasLineOfSight(ch.Position, target.Position) {
		if ch.State != StateMoving && !ch.TryMove(target.Position, 1) {
			p.ClearTarget()
		}
		return
	}

	p.PerformAttack(target)
}

// PerformAttack бьёт цель в радиусе атаки
func (p *Player) PerformAttack(target *WorldObject) {
	ch := p.Character
	ce := p.CombatEntity
	if !ce.CanAttackTarget(target, 0) {
		return
	}

	p.AutoAttackLock = true
	if ch.State == StateMoving {
		ch.StopMovingImmediately()
	}
	if ch.InAttackCooldown() {
		return
	}

	ch.ResetSpawnImmunity()
	ce.PerformMeleeAttack(target.Combat)
	ce.ApplyCooldownForAttackAction()
}

// InActionCooldown накопленная задержка действий превышает порог
func (p *Player) InActionCooldown() bool {
	return p.CurrentCooldown > actionCooldownBlockLimit
}

// AddActionDelay добавляет задержку за действие
func (p *Player) AddActionDelay(action CooldownAction) {
	if int(action) < len(actionCooldowns) {
		p.CurrentCooldown += actionCooldowns[action]
	}
}

// CanPerformCharacterActions может ли игрок сейчас действовать
func (p *Player) CanPerformCharacterActions() bool {
	return p.Character.State != StateDead && !p.InActionCooldown()
}

func (p *Player) inCombatReadyState() bool {
	ch := p.Character
	return (ch.State == StateIdle || ch.State == StateMoving) &&
		!p.CombatEntity.IsCasting && !ch.InAttackCooldown()
}

func (p *Player) inMoveReadyState() bool {
	return p.Character.State == StateIdle || p.Character.State == StateMoving
}

// --- предметы ---

// InventoryWeight суммарный вес инвентаря
func (p *Player) InventoryWeight() int {
	return p.inventoryWeight
}

// CanPickUpItem хватит ли грузоподъёмности
func (p *Player) CanPickUpItem(itemID, count int) bool {
	info := data.Current().Item(itemID)
	if data.IsSentinelItem(info) {
		return false
	}
	capacity := p.CombatEntity.GetStat(stats.WeightCapacity)
	return p.inventoryWeight+info.Weight*count <= capacity
}

// AddItemToInventory кладёт предметы в инвентарь
func (p *Player) AddItemToInventory(itemID, count int) {
	if count <= 0 {
		return
	}
	info := data.Current().Item(itemID)
	p.Inventory[itemID] += count
	p.inventoryWeight += info.Weight * count
	if m := p.Character.Map; m != nil {
		total := p.Inventory[itemID]
		m.sendToPlayer(p.Entity, func(m *Map) {
			m.Commands.SendInventoryAdd(p.Entity, itemID, count, total)
		})
	}
}

// TryPickUp ставит в очередь подбор предмета с земли
func (p *Player) TryPickUp(dropID int) bool {
	ch := p.Character
	if ch.Map == nil || ch.State == StateDead || ch.State == StateSitting {
		return false
	}
	drop, ok := ch.Map.TryGetGroundItem(dropID)
	if !ok {
		return false
	}
	ch.ItemTarget = dropID
	if ch.Position.SquareDistance(drop.Position) > 1 {
		if !ch.TryMove(drop.Position, 1) {
			ch.ItemTarget = 0
			return false
		}
	}
	ch.QueuedAction = QueuedPickUpItem
	return true
}

func (p *Player) attemptQueuedPickupAction() {
	ch := p.Character
	m := ch.Map
	drop, ok := m.TryGetGroundItem(ch.ItemTarget)
	if !ok {
		ch.QueuedAction = QueuedNone
		ch.ItemTarget = 0
		return
	}

	if ch.Position.SquareDistance(drop.Position) > 1 {
		if ch.TryMove(drop.Position, 1) {
			ch.QueuedAction = QueuedPickUpItem
			return
		}
		ch.QueuedAction = QueuedNone
		ch.ItemTarget = 0
		return
	}

	ch.QueuedAction = QueuedNone
	ch.ItemTarget = 0
	if !p.CanPickUpItem(drop.ItemID, drop.Count) {
		m.Commands.SendRequestFailed(p.Entity, outbound.FailCannotPickUp)
		return
	}
	if !m.PickUpOrRemoveItem(ch, drop.ID) {
		return
	}
	p.AddItemToInventory(drop.ItemID, drop.Count)
	ch.AttackCooldown = ch.now() + pickUpAttackCooldown
}

// EquipItem надевает предмет из инвентаря
func (p *Player) EquipItem(itemID int) bool {
	info := data.Current().Item(itemID)
	if data.IsSentinelItem(info) || info.Slot == data.SlotNone {
		return false
	}
	if p.Inventory[itemID] <= 0 {
		return false
	}

	p.unequip(info.Slot)
	p.Equipment[info.Slot] = itemID
	for _, mod := range info.StatModifiers() {
		p.CombatEntity.Stats.ApplyModifier(mod)
	}
	if info.Class == data.ItemWeapon {
		p.WeaponClass = info.WeaponClass
		p.RefreshWeaponMastery()
	}
	p.UpdateStats()
	p.sendEquip(info.Slot, itemID)
	return true
}

// UnequipItem снимает предмет со слота
func (p *Player) UnequipItem(slot data.EquipSlot) bool {
	if !p.unequip(slot) {
		return false
	}
	p.UpdateStats()
	p.sendEquip(slot, 0)
	return true
}

func (p *Player) unequip(slot data.EquipSlot) bool {
	if slot < 0 || int(slot) >= data.EquipSlotCount {
		return false
	}
	itemID := p.Equipment[slot]
	if itemID == 0 {
		return false
	}
	info := data.Current().Item(itemID)
	for _, mod := range info.StatModifiers() {
		p.CombatEntity.Stats.RemoveModifier(mod)
	}
	p.Equipment[slot] = 0
	if info.Class == data.ItemWeapon {
		p.WeaponClass = WeaponClassFist
		p.RefreshWeaponMastery()
	}
	return true
}

func (p *Player) sendEquip(slot data.EquipSlot, itemID int) {
	if m := p.Character.Map; m != nil {
		m.broadcast(p.Character, func(m *Map) {
			m.Commands.SendEquip(p.Entity, int(slot), itemID)
		})
	}
}
