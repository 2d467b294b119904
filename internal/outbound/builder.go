package outbound

import (
	"github.com/annel0/ro-zone/internal/ecs"
	"github.com/annel0/ro-zone/internal/vec"
)

// CommandBuilder копит уведомления одной карты. Используется только из потока карты.
//
// Порядок работы как у исходящего буфера: набрать получателей,
// вызвать Send*, очистить получателей. Уведомление без получателей отбрасывается.
type CommandBuilder struct {
	mapName    string
	recipients []uint64
	messages   []Message
}

// NewCommandBuilder создаёт построитель для карты
func NewCommandBuilder(mapName string) *CommandBuilder {
	return &CommandBuilder{
		mapName:    mapName,
		recipients: make([]uint64, 0, 16),
		messages:   make([]Message, 0, 64),
	}
}

// AddRecipient добавляет получателя
func (cb *CommandBuilder) AddRecipient(e ecs.Entity) {
	if e.IsNull() {
		return
	}
	packed := e.Pack()
	for _, r := range cb.recipients {
		if r == packed {
			return
		}
	}
	cb.recipients = append(cb.recipients, packed)
}

// AddRecipients добавляет всех получателей списка
func (cb *CommandBuilder) AddRecipients(list *ecs.EntityList) {
	if list == nil {
		return
	}
	for _, e := range list.Items() {
		cb.AddRecipient(e)
	}
}

// HasRecipients есть ли получатели
func (cb *CommandBuilder) HasRecipients() bool { return len(cb.recipients) > 0 }

// ClearRecipients очищает список получателей
func (cb *CommandBuilder) ClearRecipients() { cb.recipients = cb.recipients[:0] }

// Pending количество накопленных сообщений
func (cb *CommandBuilder) Pending() int { return len(cb.messages) }

// Send добавляет уведомление для текущих получателей
func (cb *CommandBuilder) Send(n Notification) {
	if len(cb.recipients) == 0 {
		return
	}
	r := make([]uint64, len(cb.recipients))
	copy(r, cb.recipients)
	cb.messages = append(cb.messages, Message{Recipients: r, Notification: n})
}

// SendTo отправляет уведомление одному получателю, не трогая текущий список
func (cb *CommandBuilder) SendTo(recipient ecs.Entity, n Notification) {
	if recipient.IsNull() {
		return
	}
	cb.messages = append(cb.messages, Message{Recipients: []uint64{recipient.Pack()}, Notification: n})
}

// Take забирает накопленную пачку. Возвращает nil, если сообщений нет.
func (cb *CommandBuilder) Take(tick uint64) *Batch {
	if len(cb.messages) == 0 {
		return nil
	}
	b := &Batch{Map: cb.mapName, Tick: tick, Messages: cb.messages}
	cb.messages = make([]Message, 0, cap(cb.messages))
	return b
}

// Discard выбрасывает накопленное
func (cb *CommandBuilder) Discard() {
	cb.messages = cb.messages[:0]
	cb.recipients = cb.recipients[:0]
}

func pos(n Notification, p vec.Vec2) Notification {
	n.X, n.Y = p.X, p.Y
	return n
}

// SendEntityAppear сущность появилась в зоне видимости
func (cb *CommandBuilder) SendEntityAppear(e ecs.Entity, entityType ecs.EntityType, classID int, p vec.Vec2, name string) {
	cb.Send(pos(Notification{Kind: KindEntityAppear, Source: e.Pack(), Values: []int{int(entityType), classID}, Text: name}, p))
}

// SendEntityDisappear сущность пропала из зоны видимости
func (cb *CommandBuilder) SendEntityDisappear(e ecs.Entity, reason int) {
	cb.Send(Notification{Kind: KindEntityDisappear, Source: e.Pack(), Values: []int{reason}})
}

// SendMove начало движения к клетке
func (cb *CommandBuilder) SendMove(e ecs.Entity, from, to vec.Vec2) {
	cb.Send(pos(Notification{Kind: KindMove, Source: e.Pack(), Values: []int{from.X, from.Y}}, to))
}

// SendStopMove остановка
func (cb *CommandBuilder) SendStopMove(e ecs.Entity, at vec.Vec2) {
	cb.Send(pos(Notification{Kind: KindStopMove, Source: e.Pack()}, at))
}

// SendTeleport мгновенное перемещение в пределах карты
func (cb *CommandBuilder) SendTeleport(e ecs.Entity, at vec.Vec2) {
	cb.Send(pos(Notification{Kind: KindTeleport, Source: e.Pack()}, at))
}

// SendSitStand смена позы
func (cb *CommandBuilder) SendSitStand(e ecs.Entity, sitting bool) {
	v := 0
	if sitting {
		v = 1
	}
	cb.Send(Notification{Kind: KindSitStand, Source: e.Pack(), Values: []int{v}})
}

// SendChangeTarget игрок сменил цель; target = ecs.Null снимает цель
func (cb *CommandBuilder) SendChangeTarget(player, target ecs.Entity) {
	cb.SendTo(player, Notification{Kind: KindChangeTarget, Source: player.Pack(), Target: target.Pack()})
}

// SendAttack удар с исходом
func (cb *CommandBuilder) SendAttack(attacker, defender ecs.Entity, damage, hitCount, hitType int, motion float64) {
	cb.Send(Notification{
		Kind: KindAttack, Source: attacker.Pack(), Target: defender.Pack(),
		Values: []int{damage, hitCount, hitType, int(motion * 1000)},
	})
}

// SendTakeDamage урон без анимации атаки (области, отложенные удары)
func (cb *CommandBuilder) SendTakeDamage(attacker, defender ecs.Entity, damage, hitType int) {
	cb.Send(Notification{Kind: KindTakeDamage, Source: attacker.Pack(), Target: defender.Pack(), Values: []int{damage, hitType}})
}

// SendDeath смерть
func (cb *CommandBuilder) SendDeath(e ecs.Entity, at vec.Vec2) {
	cb.Send(pos(Notification{Kind: KindDeath, Source: e.Pack()}, at))
}

// SendResurrect воскрешение
func (cb *CommandBuilder) SendResurrect(e ecs.Entity, at vec.Vec2) {
	cb.Send(pos(Notification{Kind: KindResurrect, Source: e.Pack()}, at))
}

// SendHeal восстановление HP
func (cb *CommandBuilder) SendHeal(e ecs.Entity, amount, healType int) {
	cb.Send(Notification{Kind: KindHeal, Source: e.Pack(), Values: []int{amount, healType}})
}

// SendSpChange новое значение SP (только владельцу)
func (cb *CommandBuilder) SendSpChange(player ecs.Entity, sp, maxSp int) {
	cb.SendTo(player, Notification{Kind: KindSpChange, Source: player.Pack(), Values: []int{sp, maxSp}})
}

// SendStartCast начало каста
func (cb *CommandBuilder) SendStartCast(caster, target ecs.Entity, at vec.Vec2, skill, level int, castTime float64) {
	cb.Send(pos(Notification{
		Kind: KindStartCast, Source: caster.Pack(), Target: target.Pack(),
		Values: []int{skill, level, int(castTime * 1000)},
	}, at))
}

// SendSkillExecuteTarget скилл по цели
func (cb *CommandBuilder) SendSkillExecuteTarget(caster, target ecs.Entity, skill, level, damage int) {
	cb.Send(Notification{Kind: KindSkillExecuteTarget, Source: caster.Pack(), Target: target.Pack(), Values: []int{skill, level, damage}})
}

// SendSkillExecuteArea скилл по земле
func (cb *CommandBuilder) SendSkillExecuteArea(caster ecs.Entity, at vec.Vec2, skill, level int) {
	cb.Send(pos(Notification{Kind: KindSkillExecuteArea, Source: caster.Pack(), Values: []int{skill, level}}, at))
}

// SendEffectAtLocation визуальный эффект
func (cb *CommandBuilder) SendEffectAtLocation(effect string, at vec.Vec2) {
	cb.Send(pos(Notification{Kind: KindEffectAtLocation, Text: effect}, at))
}

// SendAoeCreate / SendAoeRemove: появление и исчезновение области эффекта
func (cb *CommandBuilder) SendAoeCreate(source ecs.Entity, area vec.Area, aoeType int) {
	cb.Send(Notification{Kind: KindAoeCreate, Source: source.Pack(), Values: []int{area.MinX, area.MinY, area.MaxX, area.MaxY, aoeType}})
}

func (cb *CommandBuilder) SendAoeRemove(source ecs.Entity) {
	cb.Send(Notification{Kind: KindAoeRemove, Source: source.Pack()})
}

// SendItemDrop предмет на земле
func (cb *CommandBuilder) SendItemDrop(dropID, itemID, count int, at vec.Vec2) {
	cb.Send(pos(Notification{Kind: KindItemDrop, Values: []int{dropID, itemID, count}}, at))
}

// SendItemPickup кто-то подобрал предмет
func (cb *CommandBuilder) SendItemPickup(picker ecs.Entity, dropID int) {
	cb.Send(Notification{Kind: KindItemPickup, Source: picker.Pack(), Values: []int{dropID}})
}

// SendItemRemove предмет исчез с земли
func (cb *CommandBuilder) SendItemRemove(dropID int) {
	cb.Send(Notification{Kind: KindItemRemove, Values: []int{dropID}})
}

// SendInventoryAdd предмет попал в инвентарь (только владельцу)
func (cb *CommandBuilder) SendInventoryAdd(player ecs.Entity, itemID, added, total int) {
	cb.SendTo(player, Notification{Kind: KindInventoryAdd, Source: player.Pack(), Values: []int{itemID, added, total}})
}

// SendEquip смена экипировки
func (cb *CommandBuilder) SendEquip(player ecs.Entity, slot, itemID int) {
	cb.Send(Notification{Kind: KindEquip, Source: player.Pack(), Values: []int{slot, itemID}})
}

// SendLevelUp повышение уровня
func (cb *CommandBuilder) SendLevelUp(e ecs.Entity, level int) {
	cb.Send(Notification{Kind: KindLevelUp, Source: e.Pack(), Values: []int{level}})
}

// SendPlayerData полный пересчёт характеристик (только владельцу)
func (cb *CommandBuilder) SendPlayerData(player ecs.Entity, values []int) {
	cb.SendTo(player, Notification{Kind: KindPlayerData, Source: player.Pack(), Values: values})
}

// SendRequestFailed отказ, о котором клиент должен узнать
func (cb *CommandBuilder) SendRequestFailed(player ecs.Entity, reason FailReason) {
	cb.SendTo(player, Notification{Kind: KindRequestFailed, Source: player.Pack(), Values: []int{int(reason)}})
}

// SendChangeMaps игрок переходит на другую карту
func (cb *CommandBuilder) SendChangeMaps(player ecs.Entity, mapName string, at vec.Vec2) {
	cb.SendTo(player, pos(Notification{Kind: KindChangeMaps, Source: player.Pack(), Text: mapName}, at))
}
